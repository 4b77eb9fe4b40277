package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/eshashah22/131-Insight/config"
	"github.com/eshashah22/131-Insight/internal/api/handler"
	"github.com/eshashah22/131-Insight/internal/api/middleware"
	"github.com/eshashah22/131-Insight/internal/metrics"
)

// Setup 初始化并返回 Gin 路由引擎
// limiter 为 nil 时 AI 接口不限流
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	limiter middleware.RateLimiter,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 / 指标 ──
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	aiLimit := middleware.RateLimit(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 反馈模块
		feedback := v1.Group("/feedback")
		{
			feedback.POST("", h.Feedback.CreateFeedback)
			feedback.GET("", h.Feedback.ListFeedback)
			feedback.DELETE("", h.Feedback.DeleteFeedback)
			feedback.GET("/dashboard", h.Feedback.GetDashboard)
			feedback.GET("/export", h.Export.ExportFeedback)
		}

		// 学期模块
		semesters := v1.Group("/semesters")
		{
			semesters.GET("", h.Semester.ListSemesters)
			semesters.GET("/current", h.Semester.GetCurrentSemester)
			semesters.GET("/range", h.Semester.GetSemesterRange)
		}

		// AI 分析模块
		v1.POST("/sentiment", aiLimit, h.Analysis.AnalyzeSentiment)
		v1.POST("/summary", aiLimit, h.Analysis.Summarize)
	}

	return r
}
