package service

import (
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/config"
	"github.com/eshashah22/131-Insight/internal/llm"
	"github.com/eshashah22/131-Insight/internal/metrics"
	"github.com/eshashah22/131-Insight/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Feedback FeedbackService
	Analysis AnalysisService
	Semester SemesterService
	Export   ExportService
}

// Deps 外部依赖；Completer / Cache 未配置时传 nil，对应功能降级
type Deps struct {
	Completer llm.Completer
	Cache     SummaryCache
	Metrics   *metrics.Metrics
	Clock     clockwork.Clock
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	deps Deps,
	logger *zap.Logger,
) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	feedback := NewFeedbackService(repo, deps.Completer, deps.Metrics, clock, logger)
	return &Service{
		Feedback: feedback,
		Analysis: NewAnalysisService(deps.Completer, deps.Cache, cfg.Cache.SummaryTTL, deps.Metrics, logger),
		Semester: NewSemesterService(clock, logger),
		Export:   NewExportService(feedback, logger),
	}
}
