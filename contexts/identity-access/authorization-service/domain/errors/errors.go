package errors

import "errors"

var (
	ErrInvalidUserID = errors.New("invalid user id")
	ErrInvalidRoleID = errors.New("invalid role id")
	ErrForbidden     = errors.New("forbidden")
)
