package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/internal/llm"
	"github.com/eshashah22/131-Insight/internal/metrics"
	"github.com/eshashah22/131-Insight/internal/sentiment"
	applogger "github.com/eshashah22/131-Insight/pkg/logger"
)

// ── AI 分析模块业务错误 ──

var (
	ErrTextRequired     = errors.New("未提供待分析文本")
	ErrLLMNotConfigured = errors.New("未配置文本补全服务 API Key")
)

// SummaryCache 摘要缓存，由 *redis.Client 实现
type SummaryCache interface {
	GetSummary(ctx context.Context, key string) (string, bool, error)
	SetSummary(ctx context.Context, key, summary string, ttl time.Duration) error
}

// AnalysisService 独立的情感分析与摘要接口
//
// 与提交流程中的情感计算不同，这里的上游错误会直接返回给调用方。
type AnalysisService interface {
	Sentiment(ctx context.Context, text string) (*sentiment.Result, error)
	Summarize(ctx context.Context, feedbackText string) (string, error)
}

type analysisService struct {
	llm        llm.Completer // 未配置时为 nil
	cache      SummaryCache  // Redis 不可用时为 nil
	summaryTTL time.Duration
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewAnalysisService 创建 AnalysisService 实例
func NewAnalysisService(
	completer llm.Completer,
	cache SummaryCache,
	summaryTTL time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) AnalysisService {
	return &analysisService{
		llm:        completer,
		cache:      cache,
		summaryTTL: summaryTTL,
		metrics:    m,
		logger:     logger,
	}
}

// ────────────────────── Sentiment ──────────────────────

func (s *analysisService) Sentiment(ctx context.Context, text string) (*sentiment.Result, error) {
	if s.llm == nil {
		return nil, ErrLLMNotConfigured
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrTextRequired
	}

	result, source, err := analyzeSentiment(ctx, s.llm, s.metrics, text)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("情感分析完成",
		applogger.Excerpt("text", text),
		zap.String("source", string(source)),
		zap.Float64("score", result.Score),
		zap.String("label", result.Label),
	)
	return &result, nil
}

// analyzeSentiment 调用模型并规范化结果；回复不可解析时使用关键词兜底
// 仅当调用本身失败时返回 error
func analyzeSentiment(ctx context.Context, completer llm.Completer, m *metrics.Metrics, text string) (sentiment.Result, sentiment.Source, error) {
	reply, err := completer.Complete(ctx, llm.SentimentRequest(text))
	if err != nil {
		countLLM(m, "sentiment", "error")
		countSentiment(m, "failed")
		return sentiment.Result{}, "", err
	}
	countLLM(m, "sentiment", "ok")

	result, source := sentiment.Analyze(reply, text)
	countSentiment(m, string(source))
	return result, source, nil
}

// ────────────────────── Summarize ──────────────────────

func (s *analysisService) Summarize(ctx context.Context, feedbackText string) (string, error) {
	if s.llm == nil {
		return "", ErrLLMNotConfigured
	}
	if strings.TrimSpace(feedbackText) == "" {
		return "", ErrTextRequired
	}

	key := summaryKey(feedbackText)
	if s.cache != nil {
		cached, ok, err := s.cache.GetSummary(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn("读取摘要缓存失败", zap.Error(err))
		case ok:
			s.countCache("hit")
			return cached, nil
		default:
			s.countCache("miss")
		}
	}

	summary, err := s.llm.Complete(ctx, llm.SummaryRequest(feedbackText))
	if err != nil {
		countLLM(s.metrics, "summary", "error")
		return "", err
	}
	countLLM(s.metrics, "summary", "ok")

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, key, summary, s.summaryTTL); err != nil {
			s.logger.Warn("写入摘要缓存失败", zap.Error(err))
		}
	}
	return summary, nil
}

func summaryKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (s *analysisService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.SummaryCache.WithLabelValues(result).Inc()
	}
}

func countLLM(m *metrics.Metrics, purpose, result string) {
	if m != nil {
		m.LLMCalls.WithLabelValues(purpose, result).Inc()
	}
}

func countSentiment(m *metrics.Metrics, source string) {
	if m != nil {
		m.SentimentSource.WithLabelValues(source).Inc()
	}
}
