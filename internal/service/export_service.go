package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/internal/dto"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoFeedback   = errors.New("没有符合条件的反馈")
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出结果与 GET /feedback 使用同一查询（含旧数据合并与学期回填），
// 以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response。
type ExportService interface {
	ExportFeedback(ctx context.Context, q *dto.FeedbackQuery) (*bytes.Buffer, string, error)
}

type exportService struct {
	feedback FeedbackService
	logger   *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(feedback FeedbackService, logger *zap.Logger) ExportService {
	return &exportService{feedback: feedback, logger: logger}
}

// exportColumns 表头，顺序即列顺序
var exportColumns = []struct {
	title string
	width float64
}{
	{"日期", 12},
	{"学期", 14},
	{"课程", 10},
	{"教授", 18},
	{"助教", 16},
	{"出勤", 8},
	{"主题", 30},
	{"参与度", 8},
	{"概述", 48},
	{"建议", 36},
	{"需关注", 8},
	{"情感", 10},
	{"情感分数", 10},
}

// ═══════════════════════════════════════════════════════════
// ExportFeedback 导出反馈为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单个 Sheet "反馈"
//   - 第 1 行标题（筛选条件），第 2 行表头，其后每条反馈一行
//   - 需关注的行使用浅红底色
//
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportFeedback(ctx context.Context, q *dto.FeedbackQuery) (*bytes.Buffer, string, error) {
	list, err := s.feedback.Query(ctx, q)
	if err != nil {
		return nil, "", err
	}
	if len(list) == 0 {
		return nil, "", ErrExportNoFeedback
	}

	title := exportTitle(q)

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "反馈"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	for i, col := range exportColumns {
		name := colName(i)
		f.SetColWidth(sheetName, name, name, col.width)
	}

	// 样式
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	urgentStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(colName(len(exportColumns)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头
	row := 2
	for i, col := range exportColumns {
		f.SetCellValue(sheetName, cell(colName(i), row), col.title)
	}
	f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(exportColumns)-1), row), headerStyle)

	// 数据行
	row = 3
	for _, fb := range list {
		term := ""
		if fb.HasSemester() {
			term = fmt.Sprintf("%s %d", *fb.Semester, *fb.Year)
		}
		label, score := "-", "-"
		if fb.SentimentLabel != nil {
			label = *fb.SentimentLabel
		}
		if fb.SentimentScore != nil {
			score = fmt.Sprintf("%.2f", *fb.SentimentScore)
		}
		urgent := "否"
		if fb.NeedsAttention {
			urgent = "是"
		}

		values := []interface{}{
			fb.Date.Format(dateLayout),
			term,
			fb.CourseCode,
			fb.ProfessorName,
			fb.TAName,
			fb.AttendanceCount,
			strings.Join(fb.TopicsCovered, ", "),
			fb.StudentEngagement,
			fb.Overview,
			fb.Suggestions,
			urgent,
			label,
			score,
		}
		for i, v := range values {
			f.SetCellValue(sheetName, cell(colName(i), row), v)
		}
		if fb.NeedsAttention {
			f.SetCellStyle(sheetName, cell("A", row), cell(colName(len(values)-1), row), urgentStyle)
		}
		row++
	}

	// 写入 buffer
	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("反馈_%s.xlsx", strings.ReplaceAll(title, " ", "_"))
	return buf, filename, nil
}

// exportTitle 由筛选条件拼出标题；无条件时为 "全部反馈"
func exportTitle(q *dto.FeedbackQuery) string {
	var parts []string
	for _, p := range []string{q.CourseCode, q.ProfessorName, q.Semester, q.Year} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "全部反馈"
	}
	return strings.Join(parts, " ")
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
