package messaging

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change actions mirrored from the database change feed
const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// Tables that produce change events
const (
	TableLeads           = "leads"
	TablePipelineColumns = "pipeline_columns"
	TableFollowUps       = "follow_ups"
	TableAppointments    = "appointments"
	TableMeetings        = "meetings"
	TablePartners        = "partners"
	TableScripts         = "scripts"
	TableProducts        = "products"
	TableProfiles        = "profiles"
	TableRoles           = "roles"
)

// Exchange names
const (
	ExchangeCRMEvents   = "crm.events"
	ExchangeAuditEvents = "audit.events"
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

// RecordChange is the payload carried by every table change event.
// Routing key: "<table>.<action>" on the crm.events exchange, e.g.
// "leads.created", "appointments.updated", "scripts.deleted".
type RecordChange struct {
	Table     string          `json:"table"`
	Action    string          `json:"action"` // insert, update, delete
	CompanyID string          `json:"company_id"`
	RecordID  string          `json:"record_id"`
	Record    json.RawMessage `json:"record,omitempty"`     // new row (insert/update)
	OldRecord json.RawMessage `json:"old_record,omitempty"` // previous row (update/delete)
}

// ChangeEventType builds the event type / routing key for a table change.
// Actions map to past-tense suffixes: insert -> created, update -> updated,
// delete -> deleted.
func ChangeEventType(table, action string) string {
	switch action {
	case ActionInsert:
		return table + ".created"
	case ActionUpdate:
		return table + ".updated"
	case ActionDelete:
		return table + ".deleted"
	default:
		return table + "." + action
	}
}

// AuditEntry is published for every audited mutation.
type AuditEntry struct {
	LogID        string         `json:"log_id"`
	CompanyID    string         `json:"company_id"`
	ActorID      string         `json:"actor_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Details      map[string]any `json:"details,omitempty"`
}

// GenerateEventID generates a unique event ID
func GenerateEventID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%10000)
}
