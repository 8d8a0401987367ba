package http

import (
	"net/http"

	"github.com/couchcryptid/shore-hazard-service/internal/access"
	"github.com/couchcryptid/shore-hazard-service/internal/dashboard"
	"github.com/gin-gonic/gin"
)

type mapResponse struct {
	Markers []dashboard.Marker `json:"markers"`
}

type analyticsResponse struct {
	View   access.View              `json:"view"`
	Stats  dashboard.Stats          `json:"stats"`
	Social dashboard.SocialInsights `json:"social"`
}

func (s *Server) handleDashboard(c *gin.Context) {
	identity := identityFrom(c)
	if err := access.Check(identity.Role, access.RouteDashboard); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.deps.Ledger.DashboardFor(identity))
}

func (s *Server) handleMap(c *gin.Context) {
	if err := access.Check(identityFrom(c).Role, access.RouteMap); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapResponse{Markers: s.deps.Ledger.Markers()})
}

func (s *Server) handleAnalytics(c *gin.Context) {
	identity := identityFrom(c)
	if err := access.Check(identity.Role, access.RouteAnalytics); err != nil {
		s.writeError(c, err)
		return
	}
	filter, err := dashboard.ParsePostFilter(c.Query("platform"), c.Query("sentiment"), c.Query("range"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyticsResponse{
		View:   access.ViewFor(identity.Role),
		Stats:  s.deps.Ledger.Analytics(),
		Social: s.deps.Social.Insights(filter),
	})
}
