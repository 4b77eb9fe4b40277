package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/eshashah22/131-Insight/internal/service"
	"github.com/eshashah22/131-Insight/pkg/response"
)

// SemesterHandler 学期模块 HTTP 处理器
type SemesterHandler struct {
	semesterSvc service.SemesterService
	feedbackSvc service.FeedbackService
}

// NewSemesterHandler 创建 SemesterHandler
func NewSemesterHandler(semesterSvc service.SemesterService, feedbackSvc service.FeedbackService) *SemesterHandler {
	return &SemesterHandler{semesterSvc: semesterSvc, feedbackSvc: feedbackSvc}
}

// ListSemesters 有反馈数据的学期列表
// GET /api/v1/semesters?professorName=&courseCode=
func (h *SemesterHandler) ListSemesters(c *gin.Context) {
	codes, err := h.feedbackSvc.AvailableSemesters(c.Request.Context(), c.Query("professorName"), c.Query("courseCode"))
	if err != nil {
		_ = c.Error(err)
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": codes})
}

// GetCurrentSemester 获取当前学期
// GET /api/v1/semesters/current
func (h *SemesterHandler) GetCurrentSemester(c *gin.Context) {
	semester, err := h.semesterSvc.Current(c.Request.Context())
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

// GetSemesterRange 学期代码对应的日期区间
// GET /api/v1/semesters/range?code=Fall%202024
func (h *SemesterHandler) GetSemesterRange(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, response.CodeInvalidParams, "code 不能为空")
		return
	}

	semester, err := h.semesterSvc.Resolve(c.Request.Context(), code)
	if err != nil {
		h.handleSemesterError(c, err)
		return
	}

	response.OK(c, semester)
}

func (h *SemesterHandler) handleSemesterError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterCodeInvalid):
		response.BadRequest(c, response.CodeInvalidParams, "学期代码无效，应为 \"<Fall|Spring|Summer> <Year>\"")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
