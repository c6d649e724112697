package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/relieflabs/go-drms/internal/auth"
	"github.com/relieflabs/go-drms/internal/repository"
	"github.com/relieflabs/go-drms/internal/verification"
)

const apiVersion = "1.0"

type meta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	RequestID string    `json:"requestId"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
	Meta    meta       `json:"meta"`
}

func newMeta(c *gin.Context) meta {
	return meta{
		Timestamp: time.Now().UTC(),
		Version:   apiVersion,
		RequestID: requestID(c),
	}
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data, Meta: newMeta(c)})
}

func respondError(c *gin.Context, status int, code, message string, details any) {
	c.JSON(status, envelope{
		Success: false,
		Error:   &errorBody{Code: code, Message: message, Details: details},
		Meta:    newMeta(c),
	})
}

// bindError turns gin binding failures into a 400 with per-field detail.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed", fields)
		return
	}
	respondError(c, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
}

// fail maps domain errors onto their status codes; anything unexpected
// is logged server-side and returned as a generic 500.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "record not found", nil)
	case errors.Is(err, repository.ErrStateConflict):
		respondError(c, http.StatusConflict, "STATE_CONFLICT", err.Error(), nil)
	case errors.Is(err, repository.ErrDuplicate):
		respondError(c, http.StatusConflict, "DUPLICATE", err.Error(), nil)
	case errors.Is(err, verification.ErrInvalidRejection),
		errors.Is(err, verification.ErrNotDelivered):
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, verification.ErrUnverifiedAssessment):
		respondError(c, http.StatusConflict, "STATE_CONFLICT", err.Error(), nil)
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrUserInactive):
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", err.Error(), nil)
	default:
		slog.Error("request failed", "path", c.FullPath(), "request_id", requestID(c), "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
	}
}
