package errors

import "errors"

var (
	ErrAssignmentNotFound    = errors.New("assignment not found")
	ErrMilestoneNotFound     = errors.New("milestone not found")
	ErrInvalidMilestoneInput = errors.New("invalid milestone input")
	ErrInvalidState          = errors.New("operation not valid in current state")
	ErrForbidden             = errors.New("actor not allowed to perform this action")
	ErrConfirmConflict       = errors.New("milestone confirmation conflicts with a concurrent update")
)
