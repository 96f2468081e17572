package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spardha-tech/spardha-backend/internal/middleware"
	"github.com/spardha-tech/spardha-backend/internal/model"
	"github.com/spardha-tech/spardha-backend/internal/repository"
	"github.com/spardha-tech/spardha-backend/internal/response"
	"github.com/spardha-tech/spardha-backend/internal/service"
	"github.com/spardha-tech/spardha-backend/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService     *service.AuthService
	participantRepo *repository.ParticipantRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, participantRepo *repository.ParticipantRepository) *AuthHandler {
	return &AuthHandler{
		authService:     authService,
		participantRepo: participantRepo,
	}
}

func participantView(p *model.Participant) gin.H {
	return gin.H{
		"id":                p.ID,
		"name":              p.Name,
		"email":             p.Email,
		"enrollment_number": p.EnrollmentNumber,
		"role":              p.Role,
	}
}

// Register godoc
// POST /api/v1/auth/register
// Creates a new participant account.
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	p := &model.Participant{
		Name:         req.Name,
		Email:        req.Email,
		Role:         model.RoleParticipant,
		PasswordHash: hash,
	}
	if req.EnrollmentNumber != "" {
		p.EnrollmentNumber = &req.EnrollmentNumber
	}

	if err := h.participantRepo.Create(c.Request.Context(), p); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			response.Fail(c, http.StatusConflict, response.ErrConflict)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"participant": participantView(p)})
}

// Login godoc
// POST /api/v1/auth/login
// Validates identifier + password. Participants get a single-device session;
// organizers get a plain token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	p, err := h.participantRepo.GetByIdentifier(c.Request.Context(), req.Identifier)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(p.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	var token string
	if p.Role == model.RoleOrganizer {
		token, err = h.authService.GenerateOrganizerToken(p.ID)
	} else {
		token, err = h.authService.GenerateParticipantToken(c.Request.Context(), p.ID)
	}
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":       token,
		"participant": participantView(p),
	})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	p, err := h.participantRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"participant": participantView(p)})
}

// Logout godoc
// POST /api/v1/auth/logout
// Releases the participant's single-device session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetParticipantSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
