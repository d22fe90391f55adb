package handlers

import (
	"net/http"
	"time"

	"malvinvet/internal/repository"
	"malvinvet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnalysisHandler struct {
	service service.AnalysisService
	archive service.ArchiveService
}

func NewAnalysisHandler(analysisService service.AnalysisService, archiveService service.ArchiveService) *AnalysisHandler {
	return &AnalysisHandler{
		service: analysisService,
		archive: archiveService,
	}
}

type analysisRequest struct {
	PatientID     string `json:"patient_id"`
	ClientSurname string `json:"client_surname"`
	PetName       string `json:"pet_name"`
	AnalysisType  string `json:"analysis_type"`
	Notes         string `json:"notes"`
	DoctorID      string `json:"doctor_id"`
	CustomDate    string `json:"custom_date"`
	CustomTime    string `json:"custom_time"`
}

// List возвращает разбиение на актуальные / свежие обработанные / архив
func (h *AnalysisHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var filter repository.AnalysisFilter

	if doctorParam := c.Query("doctor_id"); doctorParam != "" {
		doctorID, err := uuid.Parse(doctorParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid doctor_id"})
			return
		}
		filter.DoctorID = &doctorID
	}

	filter.Search = c.Query("search")

	if dateParam := c.Query("date"); dateParam != "" {
		date, err := time.Parse("02.01.2006", dateParam)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, use DD.MM.YYYY"})
			return
		}
		filter.Date = &date
	}

	partition, err := h.service.List(ctx, filter, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"actual":             partition.Actual,
		"recently_processed": partition.Recent,
		"archived":           partition.Archived,
		"actual_count":       len(partition.Actual),
		"processed_count":    len(partition.Recent),
		"archived_count":     len(partition.Archived),
	})
}

func (h *AnalysisHandler) Add(c *gin.Context) {
	ctx := c.Request.Context()

	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid doctor_id"})
		return
	}

	analysis, err := h.service.Add(ctx, service.AddAnalysisInput{
		PatientID:     req.PatientID,
		ClientSurname: req.ClientSurname,
		PetName:       req.PetName,
		AnalysisType:  req.AnalysisType,
		Notes:         req.Notes,
		DoctorID:      doctorID,
		CustomDate:    req.CustomDate,
		CustomTime:    req.CustomTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, analysis)
}

func (h *AnalysisHandler) Edit(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	doctorID, err := uuid.Parse(req.DoctorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid doctor_id"})
		return
	}

	analysis, err := h.service.Edit(ctx, id, service.EditAnalysisInput{
		PatientID:     req.PatientID,
		ClientSurname: req.ClientSurname,
		PetName:       req.PetName,
		AnalysisType:  req.AnalysisType,
		Notes:         req.Notes,
		DoctorID:      doctorID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

func (h *AnalysisHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	if err := h.service.Delete(ctx, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "analysis deleted"})
}

// MarkProcessed идемпотентен: повторный вызов отвечает already_processed
func (h *AnalysisHandler) MarkProcessed(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	outcome, analysis, err := h.service.MarkProcessed(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome":  outcome,
		"analysis": analysis,
	})
}

func (h *AnalysisHandler) ForceArchive(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	if err := h.archive.ForceArchive(ctx, id, time.Now().UTC()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "analysis archived"})
}

func (h *AnalysisHandler) ArchiveRecent(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.archive.ArchiveRecent(ctx, time.Now().UTC())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": count})
}

func (h *AnalysisHandler) ResetStatuses(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.service.ResetAll(ctx)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reset": count})
}
