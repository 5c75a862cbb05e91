package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ThresholdRequest struct {
	Type         string           `json:"type"`
	Target       float64          `json:"target"`
	Deadline     string           `json:"deadline"`
	Deposit      DepositTermsDTO  `json:"deposit"`
	Payment      PaymentTermsDTO  `json:"payment"`
	Delivery     DeliveryTermsDTO `json:"delivery"`
	Cancellation CancelTermsDTO   `json:"cancellation"`
}

type DepositTermsDTO struct {
	Percent float64           `json:"percent"`
	DueDays int               `json:"due_days"`
	Extra   map[string]string `json:"extra,omitempty"`
}

type PaymentTermsDTO struct {
	Method  string            `json:"method"`
	NetDays int               `json:"net_days"`
	Extra   map[string]string `json:"extra,omitempty"`
}

type DeliveryTermsDTO struct {
	Mode       string            `json:"mode"`
	WindowDays int               `json:"window_days"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type CancelTermsDTO struct {
	WindowDays int               `json:"window_days"`
	FeePercent float64           `json:"fee_percent"`
	Extra      map[string]string `json:"extra,omitempty"`
}

type CreateCampaignRequest struct {
	Kind        string            `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Visibility  string            `json:"visibility"`
	GroupID     string            `json:"group_id"`
	Threshold   *ThresholdRequest `json:"threshold"`
}

type CreateCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type StatusActionRequest struct {
	Reason string `json:"reason"`
}

type ModerateCampaignRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type TransitionCampaignRequest struct {
	Action string `json:"action"`
	Reason string `json:"reason"`
}

type SeedCampaignResponse struct {
	Need CampaignDTO `json:"need"`
	Feed CampaignDTO `json:"feed"`
}

type SubmitPledgeRequest struct {
	Rows []PledgeRowRequest `json:"rows"`
}

type PledgeRowRequest struct {
	ItemRef   string  `json:"item_ref"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type PledgeDTO struct {
	PledgeID   string         `json:"pledge_id"`
	CampaignID string         `json:"campaign_id"`
	BackerID   string         `json:"backer_id"`
	Rows       []PledgeRowDTO `json:"rows"`
	CreatedAt  string         `json:"created_at"`
}

type PledgeRowDTO struct {
	RowID     string  `json:"row_id"`
	ItemRef   string  `json:"item_ref"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type SubmitPledgeResponse struct {
	Pledge PledgeDTO `json:"pledge"`
}

type ThresholdStatusDTO struct {
	Current float64 `json:"current"`
	Target  float64 `json:"target"`
	Type    string  `json:"threshold_type"`
	Met     bool    `json:"met"`
}

type ThresholdDTO struct {
	Type         string           `json:"type"`
	Target       float64          `json:"target"`
	Deadline     string           `json:"deadline"`
	Deposit      DepositTermsDTO  `json:"deposit"`
	Payment      PaymentTermsDTO  `json:"payment"`
	Delivery     DeliveryTermsDTO `json:"delivery"`
	Cancellation CancelTermsDTO   `json:"cancellation"`
}

type CampaignDTO struct {
	CampaignID           string              `json:"campaign_id"`
	Kind                 string              `json:"kind"`
	OwnerID              string              `json:"owner_id"`
	Title                string              `json:"title"`
	Description          string              `json:"description"`
	Visibility           string              `json:"visibility"`
	GroupID              string              `json:"group_id,omitempty"`
	SourceNeedCampaignID string              `json:"source_need_campaign_id,omitempty"`
	Status               string              `json:"status"`
	Threshold            *ThresholdDTO       `json:"threshold,omitempty"`
	ThresholdStatus      *ThresholdStatusDTO `json:"threshold_status,omitempty"`
	CreatedAt            string              `json:"created_at"`
	UpdatedAt            string              `json:"updated_at"`
	SeededAt             string              `json:"seeded_at,omitempty"`
}

type GetCampaignResponse struct {
	Campaign CampaignDTO `json:"campaign"`
}

type ListCampaignsResponse struct {
	Items []CampaignDTO `json:"items"`
}
