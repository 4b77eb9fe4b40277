package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/eshashah22/131-Insight/internal/dto"
	"github.com/eshashah22/131-Insight/internal/service"
	"github.com/eshashah22/131-Insight/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportFeedback 导出反馈为 Excel
// GET /api/v1/feedback/export?professorName=&courseCode=&semester=&year=
func (h *ExportHandler) ExportFeedback(c *gin.Context) {
	var q dto.FeedbackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, response.CodeInvalidParams, "查询参数错误")
		return
	}

	buf, filename, err := h.exportSvc.ExportFeedback(c.Request.Context(), &q)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoFeedback):
		response.NotFound(c, response.CodeNothingToExport, "没有符合条件的反馈")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
