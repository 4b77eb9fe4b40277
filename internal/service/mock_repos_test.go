package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/eshashah22/131-Insight/internal/llm"
	"github.com/eshashah22/131-Insight/internal/model"
	"github.com/eshashah22/131-Insight/internal/repository"
	pkgerrors "github.com/eshashah22/131-Insight/pkg/errors"
)

// ── Mock FeedbackRepository ──

type semesterUpdate struct {
	id       string
	semester string
	year     int
}

// mockFeedbackRepo 按插入顺序保存记录；Find 的过滤与排序语义与真实存储一致
type mockFeedbackRepo struct {
	mu      sync.Mutex
	records []model.Feedback
	nextID  int

	updates []semesterUpdate

	findErr   error
	createErr error
	updateErr error
}

func newMockFeedbackRepo() *mockFeedbackRepo {
	return &mockFeedbackRepo{}
}

// seed 直接写入记录（不经过 Create 流程），返回分配的 ID
func (m *mockFeedbackRepo) seed(fb model.Feedback) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fb.ID == "" {
		m.nextID++
		fb.ID = fmt.Sprintf("fb-%d", m.nextID)
	}
	m.records = append(m.records, fb)
	return fb.ID
}

func (m *mockFeedbackRepo) Create(_ context.Context, fb *model.Feedback) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seed(*fb)
	m.mu.Lock()
	fb.ID = m.records[len(m.records)-1].ID
	m.mu.Unlock()
	return nil
}

func (m *mockFeedbackRepo) Find(_ context.Context, filter repository.FeedbackFilter) ([]model.Feedback, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.query(func(fb model.Feedback) bool {
		if filter.Semester != "" && (fb.Semester == nil || *fb.Semester != filter.Semester) {
			return false
		}
		if filter.Year != nil && (fb.Year == nil || *fb.Year != *filter.Year) {
			return false
		}
		return true
	}, filter), nil
}

func (m *mockFeedbackRepo) FindMissingSemester(_ context.Context, filter repository.FeedbackFilter) ([]model.Feedback, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.query(func(fb model.Feedback) bool { return !fb.HasSemester() }, filter), nil
}

func (m *mockFeedbackRepo) UpdateSemester(_ context.Context, id string, semester string, year int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, semesterUpdate{id: id, semester: semester, year: year})
	if m.updateErr != nil {
		return m.updateErr
	}
	for i := range m.records {
		if m.records[i].ID == id {
			term, y := semester, year
			m.records[i].Semester = &term
			m.records[i].Year = &y
			return nil
		}
	}
	return pkgerrors.ErrRecordNotFound
}

func (m *mockFeedbackRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return pkgerrors.ErrRecordNotFound
}

func (m *mockFeedbackRepo) query(keep func(model.Feedback) bool, filter repository.FeedbackFilter) []model.Feedback {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Feedback
	for _, fb := range m.records {
		if filter.ProfessorName != "" && fb.ProfessorName != filter.ProfessorName {
			continue
		}
		if filter.CourseCode != "" && fb.CourseCode != filter.CourseCode {
			continue
		}
		if keep(fb) {
			out = append(out, fb)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].NeedsAttention != out[j].NeedsAttention {
			return out[i].NeedsAttention
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (m *mockFeedbackRepo) get(id string) (model.Feedback, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, fb := range m.records {
		if fb.ID == id {
			return fb, true
		}
	}
	return model.Feedback{}, false
}

// ── Mock Completer ──

type mockCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []llm.Request
}

func (m *mockCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

// ── Mock SummaryCache ──

type mockSummaryCache struct {
	entries map[string]string
	ttls    map[string]time.Duration
	getErr  error
}

func newMockSummaryCache() *mockSummaryCache {
	return &mockSummaryCache{entries: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockSummaryCache) GetSummary(_ context.Context, key string) (string, bool, error) {
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *mockSummaryCache) SetSummary(_ context.Context, key, summary string, ttl time.Duration) error {
	m.entries[key] = summary
	m.ttls[key] = ttl
	return nil
}

// ── 测试数据辅助 ──

var errStoreDown = errors.New("store unavailable")

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func floatPtr(f float64) *float64 { return &f }

// sampleFeedback 构造一条字段齐全的反馈（不含学期）
func sampleFeedback(date time.Time, urgent bool) model.Feedback {
	return model.Feedback{
		TAName:            "Alice",
		CourseCode:        "CMSC131",
		ProfessorName:     "Elias Gonzalez",
		Date:              date,
		AttendanceType:    model.AttendanceExact,
		AttendanceCount:   20,
		TopicsCovered:     model.StringArray{"Loops"},
		StudentEngagement: 4,
		Overview:          "students were engaged",
		NeedsAttention:    urgent,
	}
}

func withSemester(fb model.Feedback, term string, year int) model.Feedback {
	fb.Semester = strPtr(term)
	fb.Year = intPtr(year)
	return fb
}
