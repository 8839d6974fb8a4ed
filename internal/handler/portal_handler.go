package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/exam"
	"github.com/horizon-rp/department-backend/internal/middleware"
	"github.com/horizon-rp/department-backend/internal/model"
	"github.com/horizon-rp/department-backend/internal/repository"
	"github.com/horizon-rp/department-backend/internal/response"
	"github.com/horizon-rp/department-backend/internal/service"
	"github.com/horizon-rp/department-backend/internal/validator"
)

// PortalHandler exposes the candidate-facing exam session API.
type PortalHandler struct {
	portalService  *service.PortalService
	archiveService *service.ArchiveService
	log            zerolog.Logger
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(portalService *service.PortalService, archiveService *service.ArchiveService, log zerolog.Logger) *PortalHandler {
	return &PortalHandler{
		portalService:  portalService,
		archiveService: archiveService,
		log:            log.With().Str("component", "portal_handler").Logger(),
	}
}

type startSessionRequest struct {
	ExamTypeID uuid.UUID `json:"exam_type_id" binding:"required"`
}

type authorizeRequest struct {
	Token string `json:"token" binding:"required"`
}

type answerRequest struct {
	QuestionID  uuid.UUID `json:"question_id" binding:"required"`
	OptionIndex *int      `json:"option_index" binding:"required"`
}

type violationRequest struct {
	Kind string `json:"kind" binding:"required,oneof=focus_lost visibility_lost"`
}

// ListExamTypes returns the selectable exam types.
// GET /api/v1/portal/exam-types
func (h *PortalHandler) ListExamTypes(c *gin.Context) {
	types, err := h.portalService.ListExamTypes(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Exam type listing failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, types)
}

// StartSession begins or rejoins an exam session.
// POST /api/v1/portal/sessions
func (h *PortalHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req startSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.portalService.StartSession(c.Request.Context(), candidateFromClaims(claims), req.ExamTypeID)
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Authorize consumes a one-time access token and starts the question loop.
// POST /api/v1/portal/sessions/authorize
func (h *PortalHandler) Authorize(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req authorizeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.portalService.Authorize(c.Request.Context(), candidateFromClaims(claims), req.Token)
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// CurrentSession returns the live (or snapshot-recovered) session view.
// GET /api/v1/portal/sessions/current
func (h *PortalHandler) CurrentSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.portalService.CurrentSession(c.Request.Context(), candidateFromClaims(claims))
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Answer records an option select/deselect on the current question.
// POST /api/v1/portal/sessions/answer
func (h *PortalHandler) Answer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req answerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.portalService.Answer(c.Request.Context(), claims.CandidateID, req.QuestionID, *req.OptionIndex); err != nil {
		h.failEngine(c, err)
		return
	}

	view, err := h.portalService.CurrentSession(c.Request.Context(), candidateFromClaims(claims))
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// Next advances to the next question, or submits on the last one.
// POST /api/v1/portal/sessions/next
func (h *PortalHandler) Next(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.portalService.Next(c.Request.Context(), claims.CandidateID)
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// ReportViolation feeds an integrity signal into the session.
// POST /api/v1/portal/sessions/violation
func (h *PortalHandler) ReportViolation(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req violationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	view, err := h.portalService.ReportViolation(c.Request.Context(), claims.CandidateID, exam.ViolationKind(req.Kind))
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// RetrySubmit re-attempts a failed result persist.
// POST /api/v1/portal/sessions/submit-retry
func (h *PortalHandler) RetrySubmit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.portalService.RetrySubmit(c.Request.Context(), claims.CandidateID)
	if err != nil {
		h.failEngine(c, err)
		return
	}
	response.Success(c, http.StatusOK, view)
}

// LatestResult returns the candidate's most recent verdict. The in-memory
// session result is preferred; the archive covers restarted processes.
// GET /api/v1/portal/results/latest
func (h *PortalHandler) LatestResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if res := h.portalService.SessionResult(claims.CandidateID); res != nil {
		response.Success(c, http.StatusOK, exam.NewResultView(res))
		return
	}

	res, err := h.archiveService.LatestResult(c.Request.Context(), claims.CandidateID)
	if err != nil {
		if repository.IsNotFound(err) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Msg("Latest result lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, exam.NewResultView(res))
}

// failEngine maps engine and portal errors onto API error codes.
func (h *PortalHandler) failEngine(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNoActiveSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
	case errors.Is(err, service.ErrExamTypeUnavailable):
		response.Fail(c, http.StatusNotFound, response.ErrExamTypeUnavailable)
	case errors.Is(err, exam.ErrEmptyPool):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, exam.ErrAuthorization):
		response.Fail(c, http.StatusForbidden, response.ErrAccessTokenRejected)
	case errors.Is(err, exam.ErrWrongState):
		response.Fail(c, http.StatusConflict, response.ErrWrongSessionState)
	case errors.Is(err, exam.ErrAnswerRequired):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAnswerRequired)
	case errors.Is(err, exam.ErrStaleQuestion):
		response.Fail(c, http.StatusConflict, response.ErrStaleQuestion)
	case errors.Is(err, exam.ErrSubmitRetryable):
		response.Fail(c, http.StatusBadGateway, response.ErrSubmitFailed)
	default:
		h.log.Error().Err(err).Msg("Portal operation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func candidateFromClaims(claims *service.Claims) model.Candidate {
	return model.Candidate{
		ID:         claims.CandidateID,
		Name:       claims.Name,
		Privileged: claims.Privileged,
	}
}
