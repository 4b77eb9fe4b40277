//go:build integration

package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eshashah22/131-Insight/internal/model"
	"github.com/eshashah22/131-Insight/internal/repository"
	pkgerrors "github.com/eshashah22/131-Insight/pkg/errors"
)

// setupMongoRepo 清空集合后返回基于 MongoDB 的 Repository
func setupMongoRepo(t *testing.T) *repository.Repository {
	t.Helper()
	ctx := context.Background()

	coll, err := testMongo.Collection(ctx)
	if err != nil {
		t.Fatalf("获取集合失败: %v", err)
	}
	if err := coll.Drop(ctx); err != nil {
		t.Fatalf("清空集合失败: %v", err)
	}
	return repository.NewMongoRepository(testMongo)
}

// insertLegacy 直接写入旧版文档（不经过 Repository），返回 hex id
func insertLegacy(t *testing.T, doc bson.M) string {
	t.Helper()
	ctx := context.Background()

	coll, err := testMongo.Collection(ctx)
	if err != nil {
		t.Fatalf("获取集合失败: %v", err)
	}
	oid := primitive.NewObjectID()
	doc["_id"] = oid
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("写入旧文档失败: %v", err)
	}
	return oid.Hex()
}

func legacyDoc(date time.Time) bson.M {
	return bson.M{
		"taName":            "Legacy TA",
		"courseCode":        "CMSC131",
		"professorName":     "Elias Gonzalez",
		"date":              date,
		"attendanceType":    "exact",
		"attendanceCount":   12,
		"topicsCovered":     bson.A{"Loops"},
		"studentEngagement": 3,
		"overview":          "old record",
		"needsAttention":    false,
	}
}

func ids(list []model.Feedback) map[string]bool {
	out := make(map[string]bool, len(list))
	for _, fb := range list {
		out[fb.ID] = true
	}
	return out
}

// ═══════════════════════════════════════════════════════════
// Test: Create / Find
// ═══════════════════════════════════════════════════════════

func TestFeedbackMongoRepo_CreateAndFind(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	fb := newFeedback("Alice", time.Date(2023, 10, 2, 12, 0, 0, 0, time.UTC), false)
	fb.Semester = strPtr("Fall")
	fb.Year = intPtr(2023)
	if err := repo.Feedback.Create(ctx, fb); err != nil {
		t.Fatalf("创建反馈失败: %v", err)
	}
	if _, err := primitive.ObjectIDFromHex(fb.ID); err != nil {
		t.Fatalf("ID 应为 ObjectID hex, 实际 %q", fb.ID)
	}

	list, err := repo.Feedback.Find(ctx, repository.FeedbackFilter{
		ProfessorName: "Elias Gonzalez",
		Semester:      "Fall",
		Year:          intPtr(2023),
	})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != fb.ID {
		t.Fatalf("期望查到刚创建的反馈, 实际 %+v", list)
	}
	got := list[0]
	if len(got.TopicsCovered) != 2 || got.TopicsCovered[1] != "Loops, nested" {
		t.Errorf("topicsCovered 往返不一致: %v", got.TopicsCovered)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("创建时间戳应被写入")
	}

	other, err := repo.Feedback.Find(ctx, repository.FeedbackFilter{CourseCode: "CMSC132"})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("课程过滤无效: %+v", other)
	}
}

func TestFeedbackMongoRepo_Find_Ordering(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	a := newFeedback("A", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false)
	b := newFeedback("B", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), true)
	c := newFeedback("C", time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), false)
	for _, fb := range []*model.Feedback{a, b, c} {
		if err := repo.Feedback.Create(ctx, fb); err != nil {
			t.Fatalf("创建反馈失败: %v", err)
		}
	}

	list, err := repo.Feedback.Find(ctx, repository.FeedbackFilter{})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	want := []string{b.ID, c.ID, a.ID}
	if len(list) != len(want) {
		t.Fatalf("期望 %d 条, 实际 %d 条", len(want), len(list))
	}
	for i := range want {
		if list[i].ID != want[i] {
			t.Errorf("第 %d 条顺序错误: expected %s, got %s", i, want[i], list[i].ID)
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Test: 旧数据（缺少学期字段）
// ═══════════════════════════════════════════════════════════

func TestFeedbackMongoRepo_FindMissingSemester_AndUpdate(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	// 驱动以 UTC 写入，读取后应为同一时刻的本地时间
	date := time.Date(2023, 10, 2, 15, 30, 0, 0, time.UTC)

	noFields := insertLegacy(t, legacyDoc(date))

	emptyTerm := legacyDoc(date)
	emptyTerm["semester"] = ""
	emptyTerm["year"] = 2023
	emptyTermID := insertLegacy(t, emptyTerm)

	nullYear := legacyDoc(date)
	nullYear["semester"] = "Fall"
	nullYear["year"] = nil
	nullYearID := insertLegacy(t, nullYear)

	complete := newFeedback("Complete", date, false)
	complete.Semester = strPtr("Fall")
	complete.Year = intPtr(2023)
	if err := repo.Feedback.Create(ctx, complete); err != nil {
		t.Fatalf("创建反馈失败: %v", err)
	}

	missing, err := repo.Feedback.FindMissingSemester(ctx, repository.FeedbackFilter{ProfessorName: "Elias Gonzalez"})
	if err != nil {
		t.Fatalf("查询缺失学期失败: %v", err)
	}
	got := ids(missing)
	for _, id := range []string{noFields, emptyTermID, nullYearID} {
		if !got[id] {
			t.Errorf("旧文档 %s 应出现在缺失学期结果中", id)
		}
	}
	if got[complete.ID] {
		t.Error("学期完整的记录不应出现在缺失学期结果中")
	}

	for _, fb := range missing {
		if fb.Date.Location() != time.Local {
			t.Errorf("日期应转换为本地时区, 实际 %v", fb.Date.Location())
		}
		if !fb.Date.Equal(date) {
			t.Errorf("日期时刻不应改变: %v", fb.Date)
		}
		if fb.HasSemester() {
			t.Errorf("缺失学期的记录 HasSemester 应为 false: %+v", fb)
		}
	}

	if err := repo.Feedback.UpdateSemester(ctx, noFields, "Fall", 2023); err != nil {
		t.Fatalf("回填失败: %v", err)
	}

	list, err := repo.Feedback.Find(ctx, repository.FeedbackFilter{Semester: "Fall", Year: intPtr(2023)})
	if err != nil {
		t.Fatalf("查询失败: %v", err)
	}
	if !ids(list)[noFields] {
		t.Error("回填后应能按学期查到该文档")
	}

	missing, err = repo.Feedback.FindMissingSemester(ctx, repository.FeedbackFilter{})
	if err != nil {
		t.Fatalf("查询缺失学期失败: %v", err)
	}
	if ids(missing)[noFields] {
		t.Error("回填后不应再出现在缺失学期结果中")
	}
}

func TestFeedbackMongoRepo_NotFound(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	cases := []string{"not-an-object-id", primitive.NewObjectID().Hex()}
	for _, id := range cases {
		if err := repo.Feedback.Delete(ctx, id); !errors.Is(err, pkgerrors.ErrRecordNotFound) {
			t.Errorf("Delete(%q) 期望 ErrRecordNotFound, 实际 %v", id, err)
		}
		if err := repo.Feedback.UpdateSemester(ctx, id, "Fall", 2023); !errors.Is(err, pkgerrors.ErrRecordNotFound) {
			t.Errorf("UpdateSemester(%q) 期望 ErrRecordNotFound, 实际 %v", id, err)
		}
	}
}

func TestFeedbackMongoRepo_Delete(t *testing.T) {
	repo := setupMongoRepo(t)
	ctx := context.Background()

	fb := newFeedback("Alice", time.Now(), false)
	if err := repo.Feedback.Create(ctx, fb); err != nil {
		t.Fatalf("创建反馈失败: %v", err)
	}
	if err := repo.Feedback.Delete(ctx, fb.ID); err != nil {
		t.Fatalf("删除失败: %v", err)
	}
	if err := repo.Feedback.Delete(ctx, fb.ID); !errors.Is(err, pkgerrors.ErrRecordNotFound) {
		t.Errorf("重复删除期望 ErrRecordNotFound, 实际 %v", err)
	}
}
