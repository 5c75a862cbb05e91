package entities

import "time"

type ThresholdType string

const (
	ThresholdTypeQuantity ThresholdType = "quantity"
	ThresholdTypeValue    ThresholdType = "value"
)

// ThresholdDefinition is attached to a need campaign: the target the pledges
// must cross before the campaign can seed, plus the commercial terms the
// spawned feed campaign inherits.
type ThresholdDefinition struct {
	Type     ThresholdType
	Target   float64
	Deadline time.Time

	Deposit      DepositTerms
	Payment      PaymentTerms
	Delivery     DeliveryTerms
	Cancellation CancellationTerms
}

func (d ThresholdDefinition) Validate() bool {
	if d.Type != ThresholdTypeQuantity && d.Type != ThresholdTypeValue {
		return false
	}
	if d.Target <= 0 {
		return false
	}
	return !d.Deadline.IsZero()
}

// Policy terms are typed where the shape is known; Extra carries genuinely
// free-form keys and is passed through unchanged, never consulted by
// decision logic.

type DepositTerms struct {
	Percent float64           `json:"percent"`
	DueDays int               `json:"due_days"`
	Extra   map[string]string `json:"extra,omitempty"`
}

type PaymentTerms struct {
	Method  string            `json:"method"`
	NetDays int               `json:"net_days"`
	Extra   map[string]string `json:"extra,omitempty"`
}

type DeliveryTerms struct {
	Mode       string            `json:"mode"`
	WindowDays int               `json:"window_days"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type CancellationTerms struct {
	WindowDays int               `json:"window_days"`
	FeePercent float64           `json:"fee_percent"`
	Extra      map[string]string `json:"extra,omitempty"`
}
