package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/internal/dto"
)

// ── 测试辅助 ──

func setupTestExportService() (ExportService, *mockFeedbackRepo) {
	f := setupTestFeedbackService(nil)
	return NewExportService(f.svc, zap.NewNop()), f.repo
}

// ── ExportFeedback 测试 ──

func TestExportService_ExportFeedback_Empty(t *testing.T) {
	svc, _ := setupTestExportService()

	_, _, err := svc.ExportFeedback(context.Background(), &dto.FeedbackQuery{CourseCode: "CMSC132"})
	if !errors.Is(err, ErrExportNoFeedback) {
		t.Errorf("期望 ErrExportNoFeedback，实际: %v", err)
	}
}

func TestExportService_ExportFeedback_StoreError(t *testing.T) {
	svc, repo := setupTestExportService()
	repo.findErr = errStoreDown

	_, _, err := svc.ExportFeedback(context.Background(), &dto.FeedbackQuery{})
	if !errors.Is(err, errStoreDown) {
		t.Errorf("期望存储错误透传，实际: %v", err)
	}
}

func TestExportService_ExportFeedback_Success(t *testing.T) {
	svc, repo := setupTestExportService()

	urgent := sampleFeedback(time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC), true)
	urgent.TopicsCovered = []string{"Arrays", "Loops"}
	urgent.SentimentLabel = strPtr("negative")
	urgent.SentimentScore = floatPtr(-0.6)
	repo.seed(urgent)
	repo.seed(withSemester(sampleFeedback(time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC), false), "Fall", 2023))

	buf, filename, err := svc.ExportFeedback(context.Background(), &dto.FeedbackQuery{CourseCode: "CMSC131", Semester: "Fall", Year: "2023"})
	if err != nil {
		t.Fatalf("ExportFeedback 应成功: %v", err)
	}
	if filename != "反馈_CMSC131_Fall_2023.xlsx" {
		t.Errorf("文件名错误: %s", filename)
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("无法解析导出的 Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("反馈")
	if err != nil {
		t.Fatalf("读取 Sheet 失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("期望 1 行标题 + 1 行表头 + 2 行数据，实际 %d 行", len(rows))
	}
	if rows[1][0] != "日期" {
		t.Errorf("表头错误: %v", rows[1])
	}

	// 需关注的旧数据排在最前，且已补全学期
	first := rows[2]
	if first[0] != "2023-10-02" || first[1] != "Fall 2023" || first[6] != "Arrays, Loops" || first[10] != "是" {
		t.Errorf("首行数据错误: %v", first)
	}
	if first[11] != "negative" || first[12] != "-0.60" {
		t.Errorf("情感列错误: %v", first)
	}
}
