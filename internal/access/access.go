// Package access maps roles to dashboard variants and guards routes.
package access

import (
	"fmt"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
)

// View is the dashboard variant rendered for a role.
type View string

const (
	ViewCitizen  View = "citizen"
	ViewOfficial View = "official"
	ViewAnalyst  View = "analyst"
)

// Route names a guarded screen.
type Route string

const (
	RouteDashboard Route = "dashboard"
	RouteMap       Route = "map"
	RouteAnalytics Route = "analytics"
)

var routeRoles = map[Route][]domain.Role{
	RouteDashboard: {domain.RoleCitizen, domain.RoleOfficial, domain.RoleAnalyst},
	RouteMap:       {domain.RoleCitizen, domain.RoleOfficial, domain.RoleAnalyst},
	RouteAnalytics: {domain.RoleOfficial, domain.RoleAnalyst},
}

// ViewFor returns the dashboard variant for role. Unknown roles get the
// citizen dashboard.
func ViewFor(role domain.Role) View {
	switch role {
	case domain.RoleOfficial:
		return ViewOfficial
	case domain.RoleAnalyst:
		return ViewAnalyst
	default:
		return ViewCitizen
	}
}

// Allowed reports whether role may open route.
func Allowed(role domain.Role, route Route) bool {
	for _, r := range routeRoles[route] {
		if r == role {
			return true
		}
	}
	return false
}

// Check returns ErrForbidden when role may not open route.
func Check(role domain.Role, route Route) error {
	if !Allowed(role, route) {
		return fmt.Errorf("%w: %s may not open %s", domain.ErrForbidden, role, route)
	}
	return nil
}
