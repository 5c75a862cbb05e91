package entities

import (
	"strings"
	"time"
)

type OfferStatus string

const (
	OfferStatusSubmitted OfferStatus = "submitted"
	OfferStatusSigned    OfferStatus = "signed"
	OfferStatusSelected  OfferStatus = "selected"
	OfferStatusRejected  OfferStatus = "rejected"
)

// SupplierOffer is one supplier's priced bid on an open feed campaign.
// Only signed offers are eligible for selection, and at most one offer per
// campaign ever reaches selected.
type SupplierOffer struct {
	OfferID    string
	CampaignID string
	SupplierID string
	Status     OfferStatus
	Rows       []OfferRow
	Terms      OfferTerms
	SignedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type OfferRow struct {
	RowID     string
	ItemRef   string
	Quantity  int64
	UnitPrice float64
}

type OfferTerms struct {
	DeliveryDays int               `json:"delivery_days"`
	Notes        string            `json:"notes"`
	Extra        map[string]string `json:"extra,omitempty"`
}

func (o SupplierOffer) Validate() bool {
	if strings.TrimSpace(o.CampaignID) == "" || strings.TrimSpace(o.SupplierID) == "" {
		return false
	}
	if len(o.Rows) == 0 {
		return false
	}
	for _, row := range o.Rows {
		if strings.TrimSpace(row.ItemRef) == "" {
			return false
		}
		if row.Quantity <= 0 || row.UnitPrice < 0 {
			return false
		}
	}
	return true
}

func (o SupplierOffer) TotalValue() float64 {
	var total float64
	for _, row := range o.Rows {
		total += float64(row.Quantity) * row.UnitPrice
	}
	return total
}

func IsSupportedOfferStatus(value OfferStatus) bool {
	switch value {
	case OfferStatusSubmitted, OfferStatusSigned, OfferStatusSelected, OfferStatusRejected:
		return true
	default:
		return false
	}
}
