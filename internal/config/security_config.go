package config

import "reviewhub-backend/internal/security"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAccess                      // Access token required
)

// RouteRule is the access requirement for one named route.
// An empty Roles list admits any authenticated role.
type RouteRule struct {
	Level SecurityLevel
	Roles []security.Role
}

// RouteSecurity maps mux route names to their access requirement
var RouteSecurity = map[string]RouteRule{
	// Public
	"Health":  {Level: SecurityPublic},
	"Metrics": {Level: SecurityPublic},

	// Admin
	"AssignTask":     {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin}},
	"ApproveStep":    {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin}},
	"RejectTask":     {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin}},
	"DecideRecharge": {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin}},
	"ListRecharges":  {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin, security.RoleSeller}},
	"GetUpload":      {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin}},

	// Reviewer
	"SubmitStep": {Level: SecurityAccess, Roles: []security.Role{security.RoleReviewer}},

	// Seller
	"CreateRecharge": {Level: SecurityAccess, Roles: []security.Role{security.RoleSeller}},

	// Admin or assigned reviewer
	"GetTask":   {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin, security.RoleReviewer}},
	"ListTasks": {Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin, security.RoleReviewer}},

	// Any authenticated user
	"GetWallet":            {Level: SecurityAccess},
	"ListTransactions":     {Level: SecurityAccess},
	"ListNotifications":    {Level: SecurityAccess},
	"MarkNotificationRead": {Level: SecurityAccess},
}

// GetRouteRule returns the access requirement for a route name
func GetRouteRule(route string) RouteRule {
	if rule, exists := RouteSecurity[route]; exists {
		return rule
	}
	// Default to admin-only for unknown routes
	return RouteRule{Level: SecurityAccess, Roles: []security.Role{security.RoleAdmin}}
}

// Allows reports whether role satisfies the rule
func (r RouteRule) Allows(role security.Role) bool {
	if len(r.Roles) == 0 {
		return role.IsValid()
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}
