package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OfferTermsDTO struct {
	DeliveryDays int               `json:"delivery_days"`
	Notes        string            `json:"notes"`
	Extra        map[string]string `json:"extra,omitempty"`
}

type OfferRowRequest struct {
	ItemRef   string  `json:"item_ref"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type SubmitOfferRequest struct {
	CampaignID string            `json:"campaign_id"`
	Rows       []OfferRowRequest `json:"rows"`
	Terms      OfferTermsDTO     `json:"terms"`
}

type OfferRowDTO struct {
	RowID     string  `json:"row_id"`
	ItemRef   string  `json:"item_ref"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type OfferDTO struct {
	OfferID    string        `json:"offer_id"`
	CampaignID string        `json:"campaign_id"`
	SupplierID string        `json:"supplier_id"`
	Status     string        `json:"status"`
	Rows       []OfferRowDTO `json:"rows"`
	Terms      OfferTermsDTO `json:"terms"`
	TotalValue float64       `json:"total_value"`
	SignedAt   string        `json:"signed_at,omitempty"`
	CreatedAt  string        `json:"created_at"`
	UpdatedAt  string        `json:"updated_at"`
}

type OfferResponse struct {
	Offer OfferDTO `json:"offer"`
}

type ListOffersResponse struct {
	Items []OfferDTO `json:"items"`
}

type SelectOfferRequest struct {
	OfferID string `json:"offer_id"`
}

type SelectOfferResponse struct {
	Winner           OfferDTO `json:"winner"`
	RejectedOfferIDs []string `json:"rejected_offer_ids"`
	AssignmentID     string   `json:"assignment_id"`
}
