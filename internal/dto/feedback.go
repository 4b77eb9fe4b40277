package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/eshashah22/131-Insight/internal/model"
)

// ── 反馈模块 DTO ──

// TopicsInput 课堂主题输入：既可以是逗号分隔的字符串，也可以是字符串数组
type TopicsInput struct {
	Text  *string  // 字符串形式原文
	Items []string // 数组形式原文
}

// UnmarshalJSON 接受 "a, b" 或 ["a","b"]；null 视为未提供
func (t *TopicsInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*t = TopicsInput{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = TopicsInput{Text: &s}
		return nil
	case len(data) > 0 && data[0] == '[':
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*t = TopicsInput{Items: items}
		return nil
	default:
		return fmt.Errorf("topicsCovered 必须是字符串或字符串数组")
	}
}

// CreateFeedbackRequest 提交课堂反馈请求
// 字段约束在 model.Feedback.Validate 中统一校验
type CreateFeedbackRequest struct {
	TAName             string      `json:"taName"`
	CourseCode         string      `json:"courseCode"`
	ProfessorName      string      `json:"professorName"`
	Date               string      `json:"date"` // RFC3339 或 "2006-01-02"；为空取当前时间
	Semester           *string     `json:"semester"`
	Year               *int        `json:"year"`
	AttendanceType     string      `json:"attendanceType"` // exact | estimate，为空按 exact
	AttendanceCount    *int        `json:"attendanceCount"`
	AttendanceEstimate string      `json:"attendanceEstimate"` // low | medium | high
	TopicsCovered      TopicsInput `json:"topicsCovered"`
	StudentEngagement  int         `json:"studentEngagement"`
	Overview           string      `json:"overview"`
	Suggestions        string      `json:"suggestions"`
	NeedsAttention     bool        `json:"needsAttention"`
}

// FeedbackQuery 反馈查询条件（均为可选）
type FeedbackQuery struct {
	ProfessorName string `form:"professorName"`
	CourseCode    string `form:"courseCode"`
	Semester      string `form:"semester"`
	Year          string `form:"year"` // 非整数时忽略
}

// DeleteFeedbackQuery 删除反馈参数
type DeleteFeedbackQuery struct {
	ID string `form:"id" binding:"required"`
}

// ── 看板 ──

// DashboardRequest 教授看板请求
type DashboardRequest struct {
	FeedbackQuery
	From string `form:"from"` // "2006-01-02"
	To   string `form:"to"`   // "2006-01-02"，含当天
}

// DateRangeResponse 日期区间
type DateRangeResponse struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TrendPoint 单日参与度 / 出勤均值
type TrendPoint struct {
	Date       string  `json:"date"`
	Engagement float64 `json:"engagement"`
	Attendance float64 `json:"attendance"`
}

// DashboardResponse 教授看板聚合结果
type DashboardResponse struct {
	AvailableSemesters []string          `json:"availableSemesters"`
	Range              DateRangeResponse `json:"range"`
	Items              []model.Feedback  `json:"items"`
	Urgent             []model.Feedback  `json:"urgent"`
	EngagementTrend    []TrendPoint      `json:"engagementTrend"`
	AverageEngagement  float64           `json:"averageEngagement"`
	AverageSentiment   *float64          `json:"averageSentiment,omitempty"`
	SentimentLabel     string            `json:"sentimentLabel,omitempty"`
	SentimentBreakdown map[string]int    `json:"sentimentBreakdown"`
	SummaryText        string            `json:"summaryText"`
}

// ── AI 分析 ──

// SentimentRequest 独立情感分析请求
type SentimentRequest struct {
	Text string `json:"text"`
}

// SummaryRequest 摘要请求
type SummaryRequest struct {
	FeedbackText string `json:"feedbackText"`
}

// SummaryResponse 摘要结果
type SummaryResponse struct {
	Summary string `json:"summary"`
}

// ── 学期 ──

// CurrentSemesterResponse 当前学期
type CurrentSemesterResponse struct {
	Code     string `json:"code"`
	Semester string `json:"semester"`
	Year     int    `json:"year"`
	Start    string `json:"start"`
	End      string `json:"end"`
}
