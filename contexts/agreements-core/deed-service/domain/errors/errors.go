package errors

import "errors"

var (
	ErrDeedNotFound     = errors.New("deed not found")
	ErrInvalidDeedInput = errors.New("invalid deed input")
	ErrDeedImmutable    = errors.New("deed is immutable and cannot be updated in place")
	ErrDeedNotImmutable = errors.New("deed is not immutable; edit it directly instead of amending")
	ErrNotASigner       = errors.New("caller is not a declared signer on this deed")
	ErrAlreadySigned    = errors.New("signer slot is already signed")
	ErrInvalidState     = errors.New("operation not allowed in current deed state")
	ErrSignConflict     = errors.New("concurrent signature update, retry")
	ErrAmendConflict    = errors.New("deed version already amended")
)
