package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aramartialarts/portal-backend/internal/middleware"
	"github.com/aramartialarts/portal-backend/internal/model"
	"github.com/aramartialarts/portal-backend/internal/repository"
	"github.com/aramartialarts/portal-backend/internal/response"
	"github.com/aramartialarts/portal-backend/internal/service"
	"github.com/aramartialarts/portal-backend/internal/validator"
)

// PortalHandler handles the student-facing portal endpoints.
type PortalHandler struct {
	portalService *service.PortalService
}

// NewPortalHandler creates a new PortalHandler.
func NewPortalHandler(portalService *service.PortalService) *PortalHandler {
	return &PortalHandler{portalService: portalService}
}

// loginEventResponse is the wire shape of POST /portal/login-event.
// Token, Student and Progress appear only on a successful login action.
type loginEventResponse struct {
	OK         bool                      `json:"ok"`
	RecordedAt time.Time                 `json:"recordedAt"`
	Token      string                    `json:"token,omitempty"`
	Student    *model.StudentProfile     `json:"student,omitempty"`
	Progress   *service.ProgressSnapshot `json:"progress,omitempty"`
}

// RecordLoginEvent godoc
// POST /portal/login-event
// Journals a portal event; for "login" actions it also runs the
// birth-date credential check and returns a session token with the
// student's sanitized profile and progress snapshot.
func (h *PortalHandler) RecordLoginEvent(c *gin.Context) {
	var req model.LoginEventRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.portalService.RecordLoginEvent(c.Request.Context(), service.LoginEventInput{
		StudentID: req.StudentID,
		Action:    req.Action,
		Actor:     req.Actor,
		BirthDate: req.BirthDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBirthDateRequired):
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"birthDate": "birthDate is required for login"})
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		default:
			response.FailErr(c, http.StatusInternalServerError, response.ErrInternal, err)
		}
		return
	}

	c.JSON(http.StatusOK, loginEventResponse{
		OK:         true,
		RecordedAt: result.RecordedAt,
		Token:      result.Token,
		Student:    result.Student,
		Progress:   result.Progress,
	})
}

// GetProgress godoc
// GET /portal/progress/:studentId
// Returns the ordered progress sequence. The path id must match the
// token subject; a valid token for another student answers 403.
func (h *PortalHandler) GetProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	studentID := c.Param("studentId")
	if !middleware.SubjectMatches(claims, studentID) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	snapshot, err := h.portalService.GetProgress(c.Request.Context(), studentID)
	if err != nil {
		response.FailErr(c, http.StatusInternalServerError, response.ErrInternal, err)
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// GetProfile godoc
// GET /portal/profile
// Returns the sanitized profile for the token's subject. Identity comes
// solely from the verified token; no path parameter is consulted.
func (h *PortalHandler) GetProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	profile, err := h.portalService.GetProfile(c.Request.Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.FailErr(c, http.StatusInternalServerError, response.ErrInternal, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"student": profile})
}

// SaveProgress godoc
// POST /portal/progress
// Upserts a (student, belt) progress row for the token's subject.
func (h *PortalHandler) SaveProgress(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SaveProgressRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if !middleware.SubjectMatches(claims, req.StudentID) {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return
	}

	result, err := h.portalService.SaveProgress(c.Request.Context(), req)
	if err != nil {
		response.FailErr(c, http.StatusInternalServerError, response.ErrInternal, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"beltSlug":   result.BeltSlug,
		"uploadedAt": result.UploadedAt,
	})
}
