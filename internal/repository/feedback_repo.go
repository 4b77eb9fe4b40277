package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/eshashah22/131-Insight/internal/model"
	pkgerrors "github.com/eshashah22/131-Insight/pkg/errors"
)

// FeedbackFilter 反馈查询条件；零值字段表示不过滤
type FeedbackFilter struct {
	ProfessorName string
	CourseCode    string
	Semester      string
	Year          *int
}

// FeedbackRepository 反馈数据访问接口
//
// Find / FindMissingSemester 返回的结果均按 needs_attention DESC, date DESC 排序。
type FeedbackRepository interface {
	Create(ctx context.Context, fb *model.Feedback) error
	Find(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error)
	// FindMissingSemester 按教授/课程过滤出 semester 或 year 缺失的旧数据
	// filter 中的 Semester / Year 会被忽略
	FindMissingSemester(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error)
	UpdateSemester(ctx context.Context, id string, semester string, year int) error
	Delete(ctx context.Context, id string) error
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) Create(ctx context.Context, fb *model.Feedback) error {
	return r.db.WithContext(ctx).Create(fb).Error
}

func (r *feedbackRepo) Find(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error) {
	var list []model.Feedback
	q := r.scoped(ctx, filter)
	if filter.Semester != "" {
		q = q.Where("semester = ?", filter.Semester)
	}
	if filter.Year != nil {
		q = q.Where("year = ?", *filter.Year)
	}
	err := q.Order("needs_attention DESC").Order("date DESC").Find(&list).Error
	return list, err
}

func (r *feedbackRepo) FindMissingSemester(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error) {
	var list []model.Feedback
	err := r.scoped(ctx, filter).
		Where("(semester IS NULL OR semester = '' OR year IS NULL)").
		Order("needs_attention DESC").Order("date DESC").
		Find(&list).Error
	return list, err
}

// UpdateSemester 回填学期字段；相同值重复写入无副作用
func (r *feedbackRepo) UpdateSemester(ctx context.Context, id string, semester string, year int) error {
	if !validID(id) {
		return pkgerrors.ErrRecordNotFound
	}
	res := r.db.WithContext(ctx).
		Model(&model.Feedback{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"semester":   semester,
			"year":       year,
			"updated_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

func (r *feedbackRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return pkgerrors.ErrRecordNotFound
	}
	res := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&model.Feedback{})
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrRecordNotFound) {
			return pkgerrors.ErrRecordNotFound
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

// scoped 应用教授 / 课程过滤
func (r *feedbackRepo) scoped(ctx context.Context, filter FeedbackFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Feedback{})
	if filter.ProfessorName != "" {
		q = q.Where("professor_name = ?", filter.ProfessorName)
	}
	if filter.CourseCode != "" {
		q = q.Where("course_code = ?", filter.CourseCode)
	}
	return q
}

// validID 非 UUID 格式的 id 不可能存在，直接视为未找到
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
