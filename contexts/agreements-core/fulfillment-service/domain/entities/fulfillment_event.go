package entities

import "time"

// FulfillmentEvent is the per-assignment activity stream. It runs in
// parallel with the platform audit log and is readable by the assignment
// parties.
type FulfillmentEvent struct {
	EventID      string
	AssignmentID string
	MilestoneID  string
	ActorID      string
	EventType    string
	Payload      map[string]any
	CreatedAt    time.Time
}
