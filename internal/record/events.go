package record

import "time"

// EventKind tags an externally observable event.
type EventKind string

const (
	EventActRegistered     EventKind = "act_registered"
	EventActValidated      EventKind = "act_validated"
	EventActRejected       EventKind = "act_rejected"
	EventOverrideCreated   EventKind = "override_created"
	EventOverrideApproved  EventKind = "override_approved"
	EventVersionRegistered EventKind = "version_registered"
	EventAuditEntryCreated EventKind = "audit_entry_created"
	EventCapabilityGranted EventKind = "capability_granted"
	EventCapabilityRevoked EventKind = "capability_revoked"
)

// Event is the record handed to external subscribers after a mutation
// commits. Only the fields relevant to the event kind are populated;
// the rest stay zero. Events are emitted strictly after the state they
// describe is durable - a failed operation emits nothing.
type Event struct {
	Kind      EventKind
	Seq       int64
	Timestamp time.Time
	Actor     Principal

	// Entity references; zero when not applicable to the kind.
	ActID      int64
	OverrideID int64
	VersionID  int64
	AuditID    int64

	// Indexed fields for downstream consumers.
	BusinessNumber string
	Code           string
	VersionCode    string
	Capability     Capability
	Subject        Principal // grant/revoke target

	// ExternalRef matches the audit entry written by the same operation,
	// so subscribers can join events to the trail.
	ExternalRef string
}
