package websocket

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types pushed to connected dashboards.
const (
	EventLoanCreated        = "loan.created"
	EventLoanStatusChanged  = "loan.status_changed"
	EventCollectionRecorded = "collection.recorded"
	EventScheduleGenerated  = "schedule.generated"
)

// Event is the wire format of a pushed notification. CustomerID identifies
// the customer the event concerns and drives delivery scoping.
type Event struct {
	Type       string    `json:"type"`
	CustomerID uuid.UUID `json:"customerId"`
	Payload    any       `json:"payload,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewEvent creates an event stamped with the current UTC time.
func NewEvent(eventType string, customerID uuid.UUID, payload any) Event {
	return Event{
		Type:       eventType,
		CustomerID: customerID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
