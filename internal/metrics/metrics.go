package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "insight"

// Metrics 服务指标集合
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// SentimentSource 情感结果来源：model（模型 JSON）/ keyword（关键词兜底）/ failed
	SentimentSource *prometheus.CounterVec
	// BackfillWrites 读路径学期回填写入结果：ok / error
	BackfillWrites *prometheus.CounterVec
	// LLMCalls 补全调用结果，按用途区分：sentiment / summary
	LLMCalls *prometheus.CounterVec
	// SummaryCache 摘要缓存命中：hit / miss
	SummaryCache *prometheus.CounterVec
}

// New 创建并在 reg 上注册全部指标
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		SentimentSource: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sentiment",
			Name:      "results_total",
			Help:      "Sentiment results by source.",
		}, []string{"source"}),
		BackfillWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "semester_backfill_total",
			Help:      "Semester backfill writes issued on the read path, by result.",
		}, []string{"result"}),
		LLMCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "calls_total",
			Help:      "Completion calls by purpose and result.",
		}, []string{"purpose", "result"}),
		SummaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "summary_cache",
			Name:      "lookups_total",
			Help:      "Summary cache lookups by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.RequestDuration, m.RequestsTotal,
		m.SentimentSource, m.BackfillWrites, m.LLMCalls, m.SummaryCache,
	)
	return m
}
