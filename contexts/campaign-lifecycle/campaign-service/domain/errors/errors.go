package errors

import "errors"

var (
	ErrCampaignNotFound       = errors.New("campaign not found")
	ErrInvalidCampaignInput   = errors.New("invalid campaign input")
	ErrInvalidPledgeInput     = errors.New("invalid pledge input")
	ErrInvalidStateTransition = errors.New("invalid campaign state transition")
	ErrCampaignNotLive        = errors.New("campaign is not accepting pledges")
	ErrNotNeedCampaign        = errors.New("operation requires a need campaign")
	ErrNotFeedCampaign        = errors.New("operation requires a feed campaign")
	ErrForbidden              = errors.New("actor lacks permission for this action")
	ErrReasonRequired         = errors.New("a reason is required for this action")
	ErrTransitionConflict     = errors.New("campaign status changed concurrently")
)
