package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshashah22/131-Insight/internal/service"
	"github.com/eshashah22/131-Insight/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Feedback *FeedbackHandler
	Analysis *AnalysisHandler
	Semester *SemesterHandler
	Export   *ExportHandler
	Health   *HealthHandler
}

// NewHandler 创建 Handler 聚合
// checks 为 /health 需要检查的外部依赖，按名称上报
func NewHandler(svc *service.Service, checks map[string]HealthCheck) *Handler {
	return &Handler{
		Feedback: NewFeedbackHandler(svc.Feedback),
		Analysis: NewAnalysisHandler(svc.Analysis),
		Semester: NewSemesterHandler(svc.Semester, svc.Feedback),
		Export:   NewExportHandler(svc.Export),
		Health:   NewHealthHandler(checks),
	}
}

// bindJSON 解析 JSON 请求体；失败时已写入响应，调用方直接 return
// 请求体超限的错误交给 BodyLimit 中间件统一返回 413
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(err)
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeInvalidParams, "请求体格式错误", err.Error())
		return false
	}
	return true
}
