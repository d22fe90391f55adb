package handlers

import (
	"errors"
	"net/http"

	"malvinvet/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError переводит ошибки сервисов в HTTP-статусы
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnalysisNotFound),
		errors.Is(err, service.ErrDoctorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateAnalysis),
		errors.Is(err, service.ErrDoctorExists),
		errors.Is(err, service.ErrDoctorHasAnalyses),
		errors.Is(err, service.ErrNotProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
