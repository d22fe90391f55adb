package handlers

import (
	"fmt"
	"net/http"
	"time"

	"malvinvet/internal/service"

	"github.com/gin-gonic/gin"
)

type ExportHandler struct {
	service service.ExportService
}

func NewExportHandler(exportService service.ExportService) *ExportHandler {
	return &ExportHandler{service: exportService}
}

func (h *ExportHandler) Export(c *gin.Context) {
	ctx := c.Request.Context()

	format := c.DefaultQuery("format", "csv")

	switch format {
	case "csv":
		filename := fmt.Sprintf("analyses_export_%s.csv",
			time.Now().UTC().Format("20060102_150405"))

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

		if err := h.service.ExportCSV(ctx, c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to export analyses",
				"message": err.Error(),
			})
		}

	case "excel", "xlsx":
		path, err := h.service.ExportExcel(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to export analyses",
				"message": err.Error(),
			})
			return
		}
		c.FileAttachment(path, "analyses_export.xlsx")

	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unsupported format, use 'csv' or 'excel'",
		})
	}
}
