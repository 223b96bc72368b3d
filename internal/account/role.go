package account

import "strings"

// Role is the closed set of actor roles the approval chain recognizes.
// It is resolved once from the session's role display name at the transport
// boundary; everything past the middleware works with this enum, never with
// raw strings.
type Role string

const (
	RolePresident      Role = "President"
	RoleProjectManager Role = "ProjectManager"
	RoleClient         Role = "Client"
)

// DisplayName is the canonical label stored on account rows for each role.
func (r Role) DisplayName() string {
	if r == RoleProjectManager {
		return "Project Manager"
	}
	return string(r)
}

// Actor is the authenticated identity behind a request. Role and RoleName
// are captured from the session at the transport boundary, not re-derived
// downstream; RoleName keeps the raw display name for audit rows and the
// escalation policy's substring checks.
type Actor struct {
	AccountID string
	Role      Role
	RoleName  string
}

// ResolveRole maps a role display name onto the closed actor set. Names
// outside the approval chain (deans, councils, ordinary clients) all resolve
// to RoleClient; their display name still matters to the escalation policy,
// which keeps the raw string.
func ResolveRole(name string) Role {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "") {
	case "president":
		return RolePresident
	case "projectmanager", "pm":
		return RoleProjectManager
	default:
		return RoleClient
	}
}
