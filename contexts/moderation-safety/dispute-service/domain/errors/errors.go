package errors

import "errors"

var (
	ErrDisputeNotFound        = errors.New("dispute not found")
	ErrInvalidDisputeInput    = errors.New("invalid dispute input")
	ErrInvalidState           = errors.New("operation not valid in current state")
	ErrForbidden              = errors.New("actor not allowed to perform this action")
	ErrIdempotencyKeyRequired = errors.New("idempotency key required")
	ErrIdempotencyConflict    = errors.New("idempotency key reused with different request")
)
