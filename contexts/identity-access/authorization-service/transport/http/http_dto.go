package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type GrantRoleRequest struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
	Reason string `json:"reason,omitempty"`
}

type RevokeRoleRequest struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
	Reason string `json:"reason,omitempty"`
}

type CheckPermissionRequest struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles"`
}

type RoleAssignmentDTO struct {
	AssignmentID string `json:"assignment_id"`
	UserID       string `json:"user_id"`
	RoleID       string `json:"role_id"`
	AssignedBy   string `json:"assigned_by"`
	Reason       string `json:"reason,omitempty"`
	AssignedAt   string `json:"assigned_at"`
	RevokedAt    string `json:"revoked_at,omitempty"`
}

type GrantRoleResponse struct {
	Assignment RoleAssignmentDTO `json:"assignment"`
	Created    bool              `json:"created"`
}

type RevokeRoleResponse struct {
	Revoked bool `json:"revoked"`
}

type CheckPermissionResponse struct {
	Allowed bool `json:"allowed"`
}

type ListUserRolesResponse struct {
	Items []RoleAssignmentDTO `json:"items"`
}
