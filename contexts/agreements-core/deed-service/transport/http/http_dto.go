package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type DocumentRowDTO struct {
	ItemRef   string  `json:"item_ref"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

type DeedDocumentDTO struct {
	Title     string           `json:"title"`
	ContextID string           `json:"context_id"`
	Terms     map[string]any   `json:"terms,omitempty"`
	Rows      []DocumentRowDTO `json:"rows,omitempty"`
	DraftedAt string           `json:"drafted_at,omitempty"`
}

type SignerRequest struct {
	UserID string `json:"user_id"`
	Kind   string `json:"kind"`
}

type CreateDeedRequest struct {
	Kind        string          `json:"kind"`
	ContextType string          `json:"context_type"`
	ContextID   string          `json:"context_id"`
	Document    DeedDocumentDTO `json:"document"`
	Signers     []SignerRequest `json:"signers"`
}

type AmendDeedRequest struct {
	Document DeedDocumentDTO `json:"document"`
	Signers  []SignerRequest `json:"signers,omitempty"`
}

type VoidDeedRequest struct {
	Reason string `json:"reason"`
}

type SignerDTO struct {
	UserID   string `json:"user_id"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	SignedAt string `json:"signed_at,omitempty"`
}

type DeedDTO struct {
	DeedID      string          `json:"deed_id"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	ContextType string          `json:"context_type"`
	ContextID   string          `json:"context_id"`
	Document    DeedDocumentDTO `json:"document"`
	ContentHash string          `json:"content_hash"`
	Version     int             `json:"version"`
	PrevDeedID  string          `json:"prev_deed_id,omitempty"`
	Signers     []SignerDTO     `json:"signers"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
	SignedAt    string          `json:"signed_at,omitempty"`
}

type DeedResponse struct {
	Deed DeedDTO `json:"deed"`
}

type VersionHistoryResponse struct {
	Items []DeedDTO `json:"items"`
}
