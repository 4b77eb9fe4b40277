package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshashah22/131-Insight/internal/dto"
	"github.com/eshashah22/131-Insight/internal/service"
	"github.com/eshashah22/131-Insight/pkg/response"
)

// FeedbackHandler 反馈模块 HTTP 处理器
type FeedbackHandler struct {
	feedbackSvc service.FeedbackService
}

// NewFeedbackHandler 创建 FeedbackHandler
func NewFeedbackHandler(feedbackSvc service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackSvc: feedbackSvc}
}

// CreateFeedback 提交课堂反馈
// POST /api/v1/feedback
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req dto.CreateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	fb, err := h.feedbackSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.Created(c, fb)
}

// ListFeedback 查询反馈
// GET /api/v1/feedback?professorName=&courseCode=&semester=&year=
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	var q dto.FeedbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "查询参数错误")
		return
	}

	list, err := h.feedbackSvc.Query(c.Request.Context(), &q)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.OK(c, list)
}

// DeleteFeedback 删除反馈
// DELETE /api/v1/feedback?id=xxx
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	var q dto.DeleteFeedbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "id 不能为空")
		return
	}

	if err := h.feedbackSvc.Delete(c.Request.Context(), q.ID); err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.OK(c, gin.H{"id": q.ID})
}

// GetDashboard 教授看板聚合数据
// GET /api/v1/feedback/dashboard?professorName=&courseCode=&semester=&year=&from=&to=
func (h *FeedbackHandler) GetDashboard(c *gin.Context) {
	var req dto.DashboardRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "查询参数错误")
		return
	}

	resp, err := h.feedbackSvc.Dashboard(c.Request.Context(), &req)
	if err != nil {
		h.handleFeedbackError(c, err)
		return
	}

	response.OK(c, resp)
}

func (h *FeedbackHandler) handleFeedbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFeedbackNotFound):
		response.NotFound(c, response.CodeFeedbackNotFound, "反馈不存在")
	case errors.Is(err, service.ErrFeedbackInvalid):
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeFeedbackInvalid, "反馈数据校验失败", err.Error())
	case errors.Is(err, service.ErrDashboardRangeInvalid):
		response.BadRequest(c, response.CodeInvalidParams, "日期区间格式无效，应为 YYYY-MM-DD")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
