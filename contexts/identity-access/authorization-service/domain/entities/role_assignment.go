package entities

import "time"

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

// RoleAssignment captures an active or historical user-role relation. At
// most one active assignment exists per (user, role); revocation stamps
// revoked_at instead of deleting the row.
type RoleAssignment struct {
	AssignmentID string
	UserID       string
	RoleID       string
	AssignedBy   string
	Reason       string
	AssignedAt   time.Time
	RevokedAt    *time.Time
}

func (a RoleAssignment) IsActive() bool {
	return a.RevokedAt == nil
}

func IsSupportedRole(roleID string) bool {
	switch roleID {
	case RoleAdmin, RoleModerator:
		return true
	default:
		return false
	}
}
