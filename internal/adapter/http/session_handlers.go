package http

import (
	"net/http"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string          `json:"token"`
	Identity domain.Identity `json:"identity"`
}

type sessionResponse struct {
	Identity domain.Identity `json:"identity"`
	Language string          `json:"language"`
}

type languageRequest struct {
	Language string `json:"language"`
}

type languageResponse struct {
	Language string `json:"language"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	login, err := s.deps.Sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: login.Token, Identity: login.Identity})
}

func (s *Server) handleSession(c *gin.Context) {
	identity := identityFrom(c)
	lang := s.deps.Sessions.Language(c.Request.Context(), identity.ID, c.GetHeader("Accept-Language"))
	c.Header("Content-Language", lang)
	c.JSON(http.StatusOK, sessionResponse{Identity: identity, Language: lang})
}

// handleLogout ends the session and disposes the caller's open wizards.
func (s *Server) handleLogout(c *gin.Context) {
	identity := identityFrom(c)
	closed := s.deps.Wizards.CloseOwner(identity.ID)
	if err := s.deps.Sessions.Logout(c.Request.Context(), identity.ID); err != nil {
		s.writeError(c, err)
		return
	}
	s.logger.Debug("session ended", "identity_id", identity.ID, "wizards_closed", closed)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetLanguage(c *gin.Context) {
	lang := s.deps.Sessions.Language(c.Request.Context(), identityFrom(c).ID, c.GetHeader("Accept-Language"))
	c.Header("Content-Language", lang)
	c.JSON(http.StatusOK, languageResponse{Language: lang})
}

func (s *Server) handleSetLanguage(c *gin.Context) {
	var req languageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}
	lang, err := s.deps.Sessions.SetLanguage(c.Request.Context(), identityFrom(c).ID, req.Language)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Language", lang)
	c.JSON(http.StatusOK, languageResponse{Language: lang})
}
