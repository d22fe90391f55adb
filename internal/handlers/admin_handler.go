package handlers

import (
	"net/http"
	"strings"

	"malvinvet/internal/calllog"
	"malvinvet/internal/service"

	"github.com/gin-gonic/gin"
)

// Фраза подтверждения полного сброса
const resetConfirmation = "сбросить базу данных"

type AdminHandler struct {
	service        service.AdminService
	callLog        *calllog.FileWriter
	resetPassword  string
	defaultDoctors []string
}

func NewAdminHandler(
	adminService service.AdminService,
	callLog *calllog.FileWriter,
	resetPassword string,
	defaultDoctors []string,
) *AdminHandler {
	return &AdminHandler{
		service:        adminService,
		callLog:        callLog,
		resetPassword:  resetPassword,
		defaultDoctors: defaultDoctors,
	}
}

// ResetDatabase: пароль и фраза подтверждения проверяются здесь, ядро о них не знает
func (h *AdminHandler) ResetDatabase(c *gin.Context) {
	ctx := c.Request.Context()

	var req struct {
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
		Confirmation    string `json:"confirmation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Password != h.resetPassword {
		c.JSON(http.StatusForbidden, gin.H{"error": "неверный пароль"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"error": "пароли не совпадают"})
		return
	}
	if strings.ToLower(strings.TrimSpace(req.Confirmation)) != resetConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{"error": "неверное подтверждение действия"})
		return
	}

	report, err := h.service.ResetDatabase(ctx, h.defaultDoctors)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

// CallLogs отдает дневные журналы звонков для просмотра
func (h *AdminHandler) CallLogs(c *gin.Context) {
	files, err := h.callLog.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": files})
}
