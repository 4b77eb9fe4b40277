package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshashah22/131-Insight/internal/dto"
	"github.com/eshashah22/131-Insight/internal/llm"
	"github.com/eshashah22/131-Insight/internal/service"
	"github.com/eshashah22/131-Insight/pkg/response"
)

// AnalysisHandler 情感分析 / 摘要 HTTP 处理器
type AnalysisHandler struct {
	analysisSvc service.AnalysisService
}

// NewAnalysisHandler 创建 AnalysisHandler
func NewAnalysisHandler(analysisSvc service.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisSvc: analysisSvc}
}

// AnalyzeSentiment 独立情感分析
// POST /api/v1/sentiment  {"text": "..."}
func (h *AnalysisHandler) AnalyzeSentiment(c *gin.Context) {
	var req dto.SentimentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.analysisSvc.Sentiment(c.Request.Context(), req.Text)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.OK(c, result)
}

// Summarize 反馈摘要
// POST /api/v1/summary  {"feedbackText": "..."}
func (h *AnalysisHandler) Summarize(c *gin.Context) {
	var req dto.SummaryRequest
	if !bindJSON(c, &req) {
		return
	}

	summary, err := h.analysisSvc.Summarize(c.Request.Context(), req.FeedbackText)
	if err != nil {
		h.handleAnalysisError(c, err)
		return
	}

	response.Created(c, dto.SummaryResponse{Summary: summary})
}

func (h *AnalysisHandler) handleAnalysisError(c *gin.Context, err error) {
	var upErr *llm.UpstreamError
	switch {
	case errors.Is(err, service.ErrTextRequired):
		response.BadRequest(c, response.CodeTextRequired, "未提供待分析文本")
	case errors.Is(err, service.ErrLLMNotConfigured):
		response.Error(c, http.StatusInternalServerError, response.CodeLLMNotConfigured, "未配置文本补全服务 API Key")
	case errors.As(err, &upErr):
		status := upErr.StatusCode
		if status < 400 || status > 599 {
			status = http.StatusBadGateway
		}
		response.Error(c, status, response.CodeUpstreamError, upErr.Message)
	case errors.Is(err, llm.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeUpstreamError, "文本补全服务暂不可用")
	case errors.Is(err, llm.ErrEmptyCompletion):
		response.Error(c, http.StatusInternalServerError, response.CodeUpstreamError, "文本补全服务返回格式异常")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
