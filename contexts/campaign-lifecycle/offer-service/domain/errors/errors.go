package errors

import "errors"

var (
	ErrOfferNotFound     = errors.New("supplier offer not found")
	ErrInvalidOfferInput = errors.New("invalid supplier offer input")
	ErrOfferNotSigned    = errors.New("supplier offer is not signed")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrCampaignNotFound  = errors.New("feed campaign not found")
	ErrCampaignNotOpen   = errors.New("feed campaign is not open for offers")
	ErrForbidden         = errors.New("actor is not allowed to perform this action")
)
