package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type OpenDisputeRequest struct {
	ContextType string `json:"context_type"`
	ContextID   string `json:"context_id"`
	Reason      string `json:"reason"`
	MilestoneID string `json:"milestone_id,omitempty"`
}

type ResolveDisputeRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes,omitempty"`
}

type DisputeDTO struct {
	DisputeID       string `json:"dispute_id"`
	ContextType     string `json:"context_type"`
	ContextID       string `json:"context_id"`
	OpenerID        string `json:"opener_id"`
	Reason          string `json:"reason"`
	Status          string `json:"status"`
	ResolutionNotes string `json:"resolution_notes,omitempty"`
	ResolverID      string `json:"resolver_id,omitempty"`
	ResolvedAt      string `json:"resolved_at,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type EvidenceEntryDTO struct {
	AuditID    string `json:"audit_id"`
	ActorID    string `json:"actor_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id"`
	Payload    any    `json:"payload,omitempty"`
	CreatedAt  string `json:"created_at"`
}

type DisputeResponse struct {
	Dispute DisputeDTO `json:"dispute"`
}

type DisputeDetailResponse struct {
	Dispute  DisputeDTO         `json:"dispute"`
	Evidence []EvidenceEntryDTO `json:"evidence"`
}
