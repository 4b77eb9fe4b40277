package repository

import (
	"gorm.io/gorm"

	"github.com/eshashah22/131-Insight/pkg/database"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Feedback FeedbackRepository
}

// NewRepository 创建基于 PostgreSQL 的 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Feedback: NewFeedbackRepo(db),
	}
}

// NewMongoRepository 创建基于 MongoDB 的 Repository 聚合
func NewMongoRepository(conn *database.MongoConnector) *Repository {
	return &Repository{
		Feedback: NewFeedbackMongoRepo(conn),
	}
}
