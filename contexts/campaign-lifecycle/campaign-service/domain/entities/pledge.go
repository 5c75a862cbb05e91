package entities

import (
	"strings"
	"time"
)

// Pledge is one backer's additive contribution toward a need campaign's
// threshold. Pledges are never edited once the campaign has left live.
type Pledge struct {
	PledgeID   string
	CampaignID string
	BackerID   string
	Rows       []PledgeRow
	CreatedAt  time.Time
}

type PledgeRow struct {
	RowID     string
	ItemRef   string
	Quantity  int64
	UnitPrice float64
}

func (p Pledge) Validate() bool {
	if strings.TrimSpace(p.BackerID) == "" || strings.TrimSpace(p.CampaignID) == "" {
		return false
	}
	if len(p.Rows) == 0 {
		return false
	}
	for _, row := range p.Rows {
		if strings.TrimSpace(row.ItemRef) == "" {
			return false
		}
		if row.Quantity <= 0 || row.UnitPrice < 0 {
			return false
		}
	}
	return true
}
