package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eshashah22/131-Insight/internal/model"
	"github.com/eshashah22/131-Insight/pkg/database"
	pkgerrors "github.com/eshashah22/131-Insight/pkg/errors"
)

// feedbackDocument 集合中的文档形态；_id 沿用 ObjectID 以兼容已有数据
type feedbackDocument struct {
	ObjectID       primitive.ObjectID `bson:"_id,omitempty"`
	model.Feedback `bson:",inline"`
}

func (d *feedbackDocument) toModel() model.Feedback {
	fb := d.Feedback
	fb.ID = d.ObjectID.Hex()
	// 驱动按 UTC 解码日期，统一转为本地时区
	fb.Date = fb.Date.In(time.Local)
	fb.CreatedAt = fb.CreatedAt.In(time.Local)
	fb.UpdatedAt = fb.UpdatedAt.In(time.Local)
	return fb
}

var feedbackSort = bson.D{
	{Key: "needsAttention", Value: -1},
	{Key: "date", Value: -1},
}

type feedbackMongoRepo struct {
	conn *database.MongoConnector
}

// NewFeedbackMongoRepo 创建基于 MongoDB 的 FeedbackRepository
func NewFeedbackMongoRepo(conn *database.MongoConnector) FeedbackRepository {
	return &feedbackMongoRepo{conn: conn}
}

func (r *feedbackMongoRepo) Create(ctx context.Context, fb *model.Feedback) error {
	coll, err := r.conn.Collection(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = now
	}
	fb.UpdatedAt = now

	doc := feedbackDocument{ObjectID: primitive.NewObjectID(), Feedback: *fb}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		return err
	}
	fb.ID = doc.ObjectID.Hex()
	return nil
}

func (r *feedbackMongoRepo) Find(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error) {
	q := scopedFilter(filter)
	if filter.Semester != "" {
		q["semester"] = filter.Semester
	}
	if filter.Year != nil {
		q["year"] = *filter.Year
	}
	return r.find(ctx, q)
}

func (r *feedbackMongoRepo) FindMissingSemester(ctx context.Context, filter FeedbackFilter) ([]model.Feedback, error) {
	q := scopedFilter(filter)
	// {field: nil} 同时匹配字段缺失与显式 null
	q["$or"] = bson.A{
		bson.M{"semester": nil},
		bson.M{"semester": ""},
		bson.M{"year": nil},
	}
	return r.find(ctx, q)
}

func (r *feedbackMongoRepo) UpdateSemester(ctx context.Context, id string, semester string, year int) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return pkgerrors.ErrRecordNotFound
	}
	coll, err := r.conn.Collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"semester":  semester,
		"year":      year,
		"updatedAt": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

func (r *feedbackMongoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return pkgerrors.ErrRecordNotFound
	}
	coll, err := r.conn.Collection(ctx)
	if err != nil {
		return err
	}

	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return pkgerrors.ErrRecordNotFound
	}
	return nil
}

func (r *feedbackMongoRepo) find(ctx context.Context, q bson.M) ([]model.Feedback, error) {
	coll, err := r.conn.Collection(ctx)
	if err != nil {
		return nil, err
	}

	cur, err := coll.Find(ctx, q, options.Find().SetSort(feedbackSort))
	if err != nil {
		return nil, err
	}
	var docs []feedbackDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	list := make([]model.Feedback, 0, len(docs))
	for i := range docs {
		list = append(list, docs[i].toModel())
	}
	return list, nil
}

func scopedFilter(filter FeedbackFilter) bson.M {
	q := bson.M{}
	if filter.ProfessorName != "" {
		q["professorName"] = filter.ProfessorName
	}
	if filter.CourseCode != "" {
		q["courseCode"] = filter.CourseCode
	}
	return q
}
