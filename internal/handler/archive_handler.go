package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/response"
	"github.com/horizon-rp/department-backend/internal/service"
	"github.com/horizon-rp/department-backend/internal/validator"
)

// ArchiveHandler exposes the command-staff result archive.
type ArchiveHandler struct {
	archiveService *service.ArchiveService
	log            zerolog.Logger
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(archiveService *service.ArchiveService, log zerolog.Logger) *ArchiveHandler {
	return &ArchiveHandler{
		archiveService: archiveService,
		log:            log.With().Str("component", "archive_handler").Logger(),
	}
}

type setArchivedRequest struct {
	Archived *bool `json:"archived" binding:"required"`
}

// ListResults returns a filtered, paginated page of exam results.
// GET /api/v1/examiner/results?page=&per_page=&exam_type_id=&archived=
func (h *ArchiveHandler) ListResults(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if perPage < 1 || perPage > 100 {
		perPage = 25
	}

	var examTypeID *uuid.UUID
	if raw := c.Query("exam_type_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
			return
		}
		examTypeID = &id
	}

	var archived *bool
	if raw := c.Query("archived"); raw != "" {
		val, err := strconv.ParseBool(raw)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		archived = &val
	}

	rows, total, err := h.archiveService.ListResults(c.Request.Context(), page, perPage, examTypeID, archived)
	if err != nil {
		h.log.Error().Err(err).Msg("Result listing failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage != 0 {
		totalPages++
	}
	response.SuccessWithPagination(c, http.StatusOK, rows, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

// SetArchived toggles the archived flag on a result.
// PATCH /api/v1/examiner/results/:id/archive
func (h *ArchiveHandler) SetArchived(c *gin.Context) {
	resultID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req setArchivedRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.archiveService.SetArchived(c.Request.Context(), resultID, *req.Archived); err != nil {
		h.log.Error().Err(err).Msg("Archive toggle failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": resultID, "archived": *req.Archived})
}
