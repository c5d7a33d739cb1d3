package audit

import "time"

// Event is an immutable, append-only activity log record.
//
// Invariants:
// - Events are never updated or deleted.
// - company_id is required for tenancy isolation ("platform" for global events).
// - Actor and ip capture are best-effort; do not block business flows on audit failures.
type Event struct {
	ID        string `json:"id" db:"id"`
	CompanyID string `json:"company_id" db:"company_id"`

	// Type indicates the business category of the record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	// ActorRole may include hidden roles.
	ActorRole string `json:"actor_role,omitempty" db:"actor_role"`

	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// Target identifiers (optional, depending on the event type).
	LeadID        string `json:"lead_id,omitempty" db:"lead_id"`
	MatchID       string `json:"match_id,omitempty" db:"match_id"`
	CallID        string `json:"call_id,omitempty" db:"call_id"`
	DisputeID     string `json:"dispute_id,omitempty" db:"dispute_id"`
	TransactionID string `json:"transaction_id,omitempty" db:"transaction_id"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	EventLeadCreated     EventType = "lead_created"
	EventLeadRouted      EventType = "lead_routed"
	EventLeadAccepted    EventType = "lead_accepted"
	EventLeadRefunded    EventType = "lead_refunded"
	EventCallBilled      EventType = "call_billed"
	EventDisputeOpened   EventType = "dispute_opened"
	EventDisputeResolved EventType = "dispute_resolved"
	EventAdminAction     EventType = "admin_action"
)

// PlatformCompanyID marks events not tied to a tenant company.
const PlatformCompanyID = "platform"
