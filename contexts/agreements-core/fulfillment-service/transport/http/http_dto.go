package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateMilestoneRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DueAt       string `json:"due_at,omitempty"`
}

type UpdateMilestoneRequest struct {
	Status   string `json:"status"`
	ProofURL string `json:"proof_url,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type MilestoneDTO struct {
	MilestoneID  string `json:"milestone_id"`
	AssignmentID string `json:"assignment_id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	DueAt        string `json:"due_at,omitempty"`
	Status       string `json:"status"`
	ProofURL     string `json:"proof_url,omitempty"`
	Notes        string `json:"notes,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type MilestoneResponse struct {
	Milestone MilestoneDTO `json:"milestone"`
}

type ConfirmMilestoneResponse struct {
	Milestone           MilestoneDTO `json:"milestone"`
	AssignmentStatus    string       `json:"assignment_status"`
	AssignmentFulfilled bool         `json:"assignment_fulfilled"`
}

type AssignmentDTO struct {
	AssignmentID   string         `json:"assignment_id"`
	NeedCampaignID string         `json:"need_campaign_id"`
	FeedCampaignID string         `json:"feed_campaign_id"`
	OfferID        string         `json:"offer_id"`
	SupplierID     string         `json:"supplier_id"`
	OwnerID        string         `json:"owner_id"`
	DeedID         string         `json:"deed_id,omitempty"`
	Status         string         `json:"status"`
	Milestones     []MilestoneDTO `json:"milestones"`
	CreatedAt      string         `json:"created_at"`
	FulfilledAt    string         `json:"fulfilled_at,omitempty"`
}

type AssignmentResponse struct {
	Assignment AssignmentDTO `json:"assignment"`
}

type FulfillmentEventDTO struct {
	EventID      string         `json:"event_id"`
	AssignmentID string         `json:"assignment_id"`
	MilestoneID  string         `json:"milestone_id,omitempty"`
	ActorID      string         `json:"actor_id"`
	EventType    string         `json:"event_type"`
	Payload      map[string]any `json:"payload,omitempty"`
	CreatedAt    string         `json:"created_at"`
}

type ListFulfillmentEventsResponse struct {
	Items []FulfillmentEventDTO `json:"items"`
}
