package handlers

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"malvinvet/internal/service"
	"malvinvet/internal/utils"

	"github.com/gin-gonic/gin"
)

// Лимит размера загружаемого CSV
const maxUploadSize = 10 << 20 // 10MB

type ImportHandler struct {
	service service.ImportService
}

func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{service: importService}
}

// Upload принимает CSV, декодирует его на границе и отдает ядру готовый текст
func (h *ImportHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("csv_file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл не найден в запросе"})
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "пожалуйста, загрузите CSV файл с расширением .csv"})
		return
	}

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл слишком большой, максимальный размер 10MB"})
		return
	}

	content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "не удалось прочитать файл"})
		return
	}
	if len(content) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "файл пуст"})
		return
	}

	decoded := utils.DecodeFileContent(content)

	summary, err := h.service.ImportCSV(ctx, strings.NewReader(decoded), header.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"summary": summary,
	})
}

func (h *ImportHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.service.History(ctx, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imports": logs})
}
