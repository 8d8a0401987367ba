package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error  string           `json:"error"`
	Wizard *wizard.Snapshot `json:"wizard,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidationFailed),
		errors.Is(err, domain.ErrMediaRejected),
		errors.Is(err, domain.ErrLocationUnavailable),
		errors.Is(err, domain.ErrUnknownField):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, wizard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWizardLocked), errors.Is(err, wizard.ErrNoTransition):
		return http.StatusConflict
	case errors.Is(err, wizard.ErrTooManyWizards):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrSubmissionFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "route", c.FullPath(), "error", err)
		msg = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: msg})
}

// writeWizardError reports err along with the wizard state it left behind.
func writeWizardError(c *gin.Context, err error, snap wizard.Snapshot) {
	c.AbortWithStatusJSON(statusFor(err), errorResponse{Error: err.Error(), Wizard: &snap})
}
