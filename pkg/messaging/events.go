package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types
const (
	// Verification events
	EventVerificationCompleted = "verification.completed"
	EventVerificationFlagged   = "verification.flagged"
	EventVerificationApproved  = "verification.approved"
	EventVerificationRejected  = "verification.rejected"

	// Audit events
	EventAuditLogCreated = "audit.log.created"
)

// Exchange names
const (
	ExchangeVerificationEvents = "verification.events"
	ExchangeAuditEvents        = "audit.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// Verification Events

// VerificationCompletedEvent is published after every verification run
type VerificationCompletedEvent struct {
	VerificationID string `json:"verification_id"`
	AgentID        string `json:"agent_id"`
	DocumentID     string `json:"document_id"`
	DocumentType   string `json:"document_type"`
	RiskScore      int    `json:"risk_score"`
	RiskLevel      string `json:"risk_level"`
	Recommendation string `json:"recommendation"`
}

// VerificationFlaggedEvent is published when a verification recommends
// rejection; the alerting subsystem consumes it.
type VerificationFlaggedEvent struct {
	VerificationID string   `json:"verification_id"`
	AgentID        string   `json:"agent_id"`
	DocumentID     string   `json:"document_id"`
	DocumentType   string   `json:"document_type"`
	RiskScore      int      `json:"risk_score"`
	RiskLevel      string   `json:"risk_level"`
	Reasons        []string `json:"reasons,omitempty"`
}

// VerificationDecisionEvent is published when an admin approves or
// rejects a stored verification result
type VerificationDecisionEvent struct {
	VerificationID string `json:"verification_id"`
	AgentID        string `json:"agent_id"`
	DecidedBy      string `json:"decided_by"`
	Notes          string `json:"notes,omitempty"`
}

// Audit Events

// AuditLogCreatedEvent is published when an audit log entry is created
type AuditLogCreatedEvent struct {
	LogID      string         `json:"log_id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id"`
	Changes    map[string]any `json:"changes,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
