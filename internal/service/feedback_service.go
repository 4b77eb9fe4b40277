package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/eshashah22/131-Insight/internal/dto"
	"github.com/eshashah22/131-Insight/internal/llm"
	"github.com/eshashah22/131-Insight/internal/metrics"
	"github.com/eshashah22/131-Insight/internal/model"
	"github.com/eshashah22/131-Insight/internal/repository"
	"github.com/eshashah22/131-Insight/internal/sentiment"
	pkgerrors "github.com/eshashah22/131-Insight/pkg/errors"
	"github.com/eshashah22/131-Insight/pkg/semester"
)

// ── 反馈模块业务错误 ──

var (
	ErrFeedbackNotFound      = errors.New("反馈不存在")
	ErrFeedbackInvalid       = errors.New("反馈数据校验失败")
	ErrDashboardRangeInvalid = errors.New("日期区间格式无效，应为 YYYY-MM-DD")
)

const dateLayout = "2006-01-02"

// dashboardDefaultDays 未选择学期且未指定区间时，看板默认展示最近 30 天
const dashboardDefaultDays = 30

// FeedbackService 反馈业务接口
type FeedbackService interface {
	// Create 规范化输入、推导学期、尽力计算情感后入库
	Create(ctx context.Context, req *dto.CreateFeedbackRequest) (*model.Feedback, error)
	// Query 按条件查询；同时指定学期与年份时合并缺少学期字段的旧数据，并回填
	Query(ctx context.Context, q *dto.FeedbackQuery) ([]model.Feedback, error)
	Delete(ctx context.Context, id string) error
	Dashboard(ctx context.Context, req *dto.DashboardRequest) (*dto.DashboardResponse, error)
	// AvailableSemesters 教授/课程下出现过的学期代码（字典序倒序）
	AvailableSemesters(ctx context.Context, professorName, courseCode string) ([]string, error)
}

type feedbackService struct {
	repo    *repository.Repository
	llm     llm.Completer // 未配置时为 nil
	metrics *metrics.Metrics
	clock   clockwork.Clock
	logger  *zap.Logger

	// backfills 合并同一进程内对同一条记录的并发回填
	backfills singleflight.Group
}

// NewFeedbackService 创建 FeedbackService 实例
func NewFeedbackService(
	repo *repository.Repository,
	completer llm.Completer,
	m *metrics.Metrics,
	clock clockwork.Clock,
	logger *zap.Logger,
) FeedbackService {
	return &feedbackService{
		repo:    repo,
		llm:     completer,
		metrics: m,
		clock:   clock,
		logger:  logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *feedbackService) Create(ctx context.Context, req *dto.CreateFeedbackRequest) (*model.Feedback, error) {
	date, err := s.parseSubmittedDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q 无法解析", ErrFeedbackInvalid, req.Date)
	}

	attendanceType, count, err := resolveAttendance(req)
	if err != nil {
		return nil, err
	}

	fb := &model.Feedback{
		TAName:            strings.TrimSpace(req.TAName),
		CourseCode:        req.CourseCode,
		ProfessorName:     req.ProfessorName,
		Date:              date,
		AttendanceType:    attendanceType,
		AttendanceCount:   count,
		TopicsCovered:     normalizeTopics(req.TopicsCovered),
		StudentEngagement: req.StudentEngagement,
		Overview:          req.Overview,
		Suggestions:       req.Suggestions,
		NeedsAttention:    req.NeedsAttention,
	}

	// 显式传入的学期 / 年份保持不变，只补缺失项
	if req.Semester != nil && *req.Semester != "" {
		term := *req.Semester
		fb.Semester = &term
	}
	if req.Year != nil {
		year := *req.Year
		fb.Year = &year
	}
	if fb.Semester == nil || fb.Year == nil {
		term, year := semester.Split(date)
		if fb.Semester == nil {
			fb.Semester = &term
		}
		if fb.Year == nil {
			fb.Year = &year
		}
	}

	s.attachSentiment(ctx, fb)

	if err := fb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFeedbackInvalid, err)
	}

	if err := s.repo.Feedback.Create(ctx, fb); err != nil {
		s.logger.Error("保存反馈失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("反馈已保存",
		zap.String("id", fb.ID),
		zap.String("course", fb.CourseCode),
		zap.Bool("needs_attention", fb.NeedsAttention),
	)
	return fb, nil
}

// attachSentiment 尽力为反馈附加情感结果；任何失败都只记录日志，反馈照常保存
func (s *feedbackService) attachSentiment(ctx context.Context, fb *model.Feedback) {
	text := strings.TrimSpace(fb.Overview + " " + fb.Suggestions)
	if text == "" || s.llm == nil {
		return
	}

	result, _, err := analyzeSentiment(ctx, s.llm, s.metrics, text)
	if err != nil {
		s.logger.Warn("情感分析失败，反馈将不带情感字段保存", zap.Error(err))
		return
	}

	score, label := result.Score, result.Label
	fb.SentimentScore = &score
	fb.SentimentLabel = &label
}

func (s *feedbackService) parseSubmittedDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.clock.Now(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, raw, time.Local)
}

// resolveAttendance 估算档位优先换算为人数；否则要求给出确切人数
func resolveAttendance(req *dto.CreateFeedbackRequest) (string, int, error) {
	attendanceType := req.AttendanceType
	if attendanceType == "" {
		attendanceType = model.AttendanceExact
	}

	if attendanceType == model.AttendanceEstimate && req.AttendanceEstimate != "" {
		count, ok := model.AttendanceEstimates[req.AttendanceEstimate]
		if !ok {
			return "", 0, fmt.Errorf("%w: attendanceEstimate 必须是 low / medium / high", ErrFeedbackInvalid)
		}
		return attendanceType, count, nil
	}
	if req.AttendanceCount == nil {
		return "", 0, fmt.Errorf("%w: 需要提供 attendanceCount 或 attendanceEstimate", ErrFeedbackInvalid)
	}
	return attendanceType, *req.AttendanceCount, nil
}

// normalizeTopics 字符串按逗号拆分，数组逐项去空白，均丢弃空项
func normalizeTopics(in dto.TopicsInput) model.StringArray {
	var raw []string
	switch {
	case in.Text != nil:
		raw = strings.Split(*in.Text, ",")
	default:
		raw = in.Items
	}

	topics := make(model.StringArray, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

// ────────────────────── Query ──────────────────────

func (s *feedbackService) Query(ctx context.Context, q *dto.FeedbackQuery) ([]model.Feedback, error) {
	filter := toFilter(q)

	list, err := s.repo.Feedback.Find(ctx, filter)
	if err != nil {
		s.logger.Error("查询反馈失败", zap.Error(err))
		return nil, err
	}

	if filter.Semester != "" && filter.Year != nil {
		legacy, err := s.repo.Feedback.FindMissingSemester(ctx, filter)
		if err != nil {
			s.logger.Error("查询缺少学期的旧反馈失败", zap.Error(err))
			return nil, err
		}
		list = mergeLegacy(list, legacy, filter.Semester, *filter.Year)
	}

	s.enrich(ctx, list)
	return list, nil
}

// toFilter 年份无法解析为整数时不参与过滤
func toFilter(q *dto.FeedbackQuery) repository.FeedbackFilter {
	filter := repository.FeedbackFilter{
		ProfessorName: q.ProfessorName,
		CourseCode:    q.CourseCode,
		Semester:      q.Semester,
	}
	if q.Year != "" {
		if year, err := strconv.Atoi(q.Year); err == nil {
			filter.Year = &year
		}
	}
	return filter
}

// mergeLegacy 按日期推算旧数据的学期，命中的并入结果（按 ID 去重）后重新排序
func mergeLegacy(base, legacy []model.Feedback, term string, year int) []model.Feedback {
	seen := make(map[string]struct{}, len(base))
	for _, fb := range base {
		seen[fb.ID] = struct{}{}
	}

	merged := base
	for _, fb := range legacy {
		if _, dup := seen[fb.ID]; dup {
			continue
		}
		t, y := semester.Split(fb.Date)
		if t != term || y != year {
			continue
		}
		seen[fb.ID] = struct{}{}
		merged = append(merged, fb)
	}

	sortFeedback(merged)
	return merged
}

// sortFeedback needsAttention 优先，其次日期倒序；稳定排序保留存储层原有次序
func sortFeedback(list []model.Feedback) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].NeedsAttention != list[j].NeedsAttention {
			return list[i].NeedsAttention
		}
		return list[i].Date.After(list[j].Date)
	})
}

// enrich 为缺少学期 / 年份的记录补全返回值，并尽力回写存储
func (s *feedbackService) enrich(ctx context.Context, list []model.Feedback) {
	for i := range list {
		fb := &list[i]
		if fb.HasSemester() {
			continue
		}

		term, year := semester.Split(fb.Date)
		fb.Semester = &term
		fb.Year = &year

		s.backfill(ctx, fb.ID, term, year)
	}
}

func (s *feedbackService) backfill(ctx context.Context, id, term string, year int) {
	key := fmt.Sprintf("%s:%s:%d", id, term, year)
	_, err, _ := s.backfills.Do(key, func() (interface{}, error) {
		return nil, s.repo.Feedback.UpdateSemester(ctx, id, term, year)
	})
	if err != nil {
		s.countBackfill("error")
		s.logger.Warn("回填学期失败",
			zap.String("id", id),
			zap.String("semester", term),
			zap.Int("year", year),
			zap.Error(err),
		)
		return
	}
	s.countBackfill("ok")
}

func (s *feedbackService) countBackfill(result string) {
	if s.metrics != nil {
		s.metrics.BackfillWrites.WithLabelValues(result).Inc()
	}
}

// ────────────────────── Delete ──────────────────────

func (s *feedbackService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Feedback.Delete(ctx, id); err != nil {
		if errors.Is(err, pkgerrors.ErrRecordNotFound) {
			return ErrFeedbackNotFound
		}
		s.logger.Error("删除反馈失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.logger.Info("反馈已删除", zap.String("id", id))
	return nil
}

// ────────────────────── Dashboard ──────────────────────

func (s *feedbackService) Dashboard(ctx context.Context, req *dto.DashboardRequest) (*dto.DashboardResponse, error) {
	rng, err := s.dashboardRange(req)
	if err != nil {
		return nil, err
	}

	list, err := s.Query(ctx, &req.FeedbackQuery)
	if err != nil {
		return nil, err
	}

	available, err := s.AvailableSemesters(ctx, req.ProfessorName, req.CourseCode)
	if err != nil {
		return nil, err
	}

	items := make([]model.Feedback, 0, len(list))
	for _, fb := range list {
		if rng.Contains(fb.Date.In(rng.Start.Location())) {
			items = append(items, fb)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Date.After(items[j].Date) })

	resp := &dto.DashboardResponse{
		AvailableSemesters: available,
		Range: dto.DateRangeResponse{
			From: rng.Start.Format(dateLayout),
			To:   rng.End.Format(dateLayout),
		},
		Items:              items,
		Urgent:             make([]model.Feedback, 0),
		EngagementTrend:    engagementTrend(items, rng.Start.Location()),
		SentimentBreakdown: map[string]int{"positive": 0, "neutral": 0, "negative": 0},
		SummaryText:        summaryText(items),
	}

	var engagementSum, sentimentSum float64
	sentimentCount := 0
	for _, fb := range items {
		engagementSum += float64(fb.StudentEngagement)
		if fb.NeedsAttention {
			resp.Urgent = append(resp.Urgent, fb)
		}
		// 旧数据中可能存在三档以外的标签，不计入分布
		if fb.SentimentLabel != nil && sentiment.ValidLabel(*fb.SentimentLabel) {
			resp.SentimentBreakdown[*fb.SentimentLabel]++
		}
		if fb.SentimentScore != nil {
			sentimentSum += *fb.SentimentScore
			sentimentCount++
		}
	}
	if len(items) > 0 {
		resp.AverageEngagement = engagementSum / float64(len(items))
	}
	if sentimentCount > 0 {
		avg := sentimentSum / float64(sentimentCount)
		resp.AverageSentiment = &avg
		resp.SentimentLabel = sentiment.LabelFor(avg)
	}

	return resp, nil
}

// dashboardRange 显式区间 > 所选学期区间 > 最近 30 天
func (s *feedbackService) dashboardRange(req *dto.DashboardRequest) (semester.Range, error) {
	if req.From != "" || req.To != "" {
		from, err := time.ParseInLocation(dateLayout, req.From, time.Local)
		if err != nil {
			return semester.Range{}, ErrDashboardRangeInvalid
		}
		to, err := time.ParseInLocation(dateLayout, req.To, time.Local)
		if err != nil || to.Before(from) {
			return semester.Range{}, ErrDashboardRangeInvalid
		}
		return semester.Range{Start: from, End: to}, nil
	}

	if req.Semester != "" {
		if year, err := strconv.Atoi(req.Year); err == nil {
			return semester.DateRange(semester.Of(req.Semester, year))
		}
	}

	now := s.clock.Now().In(time.Local)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return semester.Range{Start: today.AddDate(0, 0, -dashboardDefaultDays), End: today}, nil
}

// engagementTrend 按天聚合参与度与出勤均值，日期升序
func engagementTrend(items []model.Feedback, loc *time.Location) []dto.TrendPoint {
	type acc struct {
		engagement, attendance float64
		count                  int
	}
	byDay := make(map[string]*acc)
	for _, fb := range items {
		day := fb.Date.In(loc).Format(dateLayout)
		a, ok := byDay[day]
		if !ok {
			a = &acc{}
			byDay[day] = a
		}
		a.engagement += float64(fb.StudentEngagement)
		a.attendance += float64(fb.AttendanceCount)
		a.count++
	}

	days := make([]string, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Strings(days)

	trend := make([]dto.TrendPoint, 0, len(days))
	for _, d := range days {
		a := byDay[d]
		trend = append(trend, dto.TrendPoint{
			Date:       d,
			Engagement: a.engagement / float64(a.count),
			Attendance: a.attendance / float64(a.count),
		})
	}
	return trend
}

// summaryText 拼接待摘要的课堂观察文本
func summaryText(items []model.Feedback) string {
	parts := make([]string, 0, len(items))
	for _, fb := range items {
		if fb.TAName == "" || fb.Overview == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("Student %s: %s", fb.TAName, fb.Overview))
	}
	return strings.Join(parts, " ")
}

// ────────────────────── AvailableSemesters ──────────────────────

func (s *feedbackService) AvailableSemesters(ctx context.Context, professorName, courseCode string) ([]string, error) {
	list, err := s.repo.Feedback.Find(ctx, repository.FeedbackFilter{
		ProfessorName: professorName,
		CourseCode:    courseCode,
	})
	if err != nil {
		s.logger.Error("查询学期列表失败", zap.Error(err))
		return nil, err
	}

	set := make(map[semester.Code]struct{})
	var undated []time.Time
	for _, fb := range list {
		if fb.HasSemester() {
			set[semester.Of(*fb.Semester, *fb.Year)] = struct{}{}
			continue
		}
		undated = append(undated, fb.Date)
	}
	for _, code := range semester.Unique(undated) {
		set[code] = struct{}{}
	}

	codes := semester.SortCodes(set)
	out := make([]string, len(codes))
	for i, c := range codes {
		out[i] = string(c)
	}
	return out, nil
}
