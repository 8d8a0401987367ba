package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/couchcryptid/shore-hazard-service/internal/wizard"
	"github.com/gin-gonic/gin"
)

const identityKey = "shore.identity"

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		logger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// requireSession resolves the bearer token to an identity or answers 401.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			s.writeError(c, domain.ErrNoSession)
			return
		}
		identity, err := s.deps.Sessions.Restore(c.Request.Context(), token)
		if err != nil {
			s.writeError(c, err)
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

func identityFrom(c *gin.Context) domain.Identity {
	v, _ := c.Get(identityKey)
	identity, _ := v.(domain.Identity)
	return identity
}

// withWizard loads the caller's wizard named by the :id parameter.
func (s *Server) withWizard(h func(*gin.Context, *wizard.Wizard)) gin.HandlerFunc {
	return func(c *gin.Context) {
		w, err := s.deps.Wizards.Get(c.Param("id"), identityFrom(c).ID)
		if err != nil {
			s.writeError(c, err)
			return
		}
		h(c, w)
	}
}
