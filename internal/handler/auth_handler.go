package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/middleware"
	"github.com/horizon-rp/department-backend/internal/model"
	"github.com/horizon-rp/department-backend/internal/repository"
	"github.com/horizon-rp/department-backend/internal/response"
	"github.com/horizon-rp/department-backend/internal/service"
	"github.com/horizon-rp/department-backend/internal/validator"
)

// AuthHandler handles candidate login, logout, and identity lookup.
type AuthHandler struct {
	authService *service.AuthService
	candidates  *repository.CandidateRepository
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, candidates *repository.CandidateRepository, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		candidates:  candidates,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login authenticates a candidate by callsign and password.
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	candidate, err := h.candidates.GetByCallsign(c.Request.Context(), req.Callsign)
	if err != nil {
		if repository.IsNotFound(err) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Msg("Candidate lookup failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if err := h.authService.CheckPassword(candidate.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateToken(c.Request.Context(), candidate)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		h.log.Error().Err(err).Msg("Token generation failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"candidate": gin.H{
			"id":         candidate.ID,
			"callsign":   candidate.Callsign,
			"name":       candidate.Name,
			"privileged": candidate.Privileged,
		},
	})
}

// Logout ends the candidate's login session.
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.CandidateID); err != nil {
		h.log.Error().Err(err).Msg("Logout failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"logged_out": true})
}

// Me returns the authenticated candidate's identity.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"id":         claims.CandidateID,
		"name":       claims.Name,
		"privileged": claims.Privileged,
	})
}
