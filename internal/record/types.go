package record

import (
	"fmt"
	"time"
)

// Principal is an opaque caller identity. The core only ever compares
// principals for equality; resolution from credentials happens outside.
type Principal string

// Capability is a named permission a principal may hold.
// A principal may hold any subset of the four capabilities.
type Capability string

const (
	// CapabilityAdmin allows granting and revoking capabilities.
	CapabilityAdmin Capability = "admin"

	// CapabilityValidator allows registering, validating, and rejecting
	// acts, approving overrides, and registering reference versions.
	CapabilityValidator Capability = "validator"

	// CapabilityOverride allows creating override proposals.
	CapabilityOverride Capability = "override"

	// CapabilityAudit allows appending manual audit annotations.
	CapabilityAudit Capability = "audit"
)

// AllCapabilities lists every capability in declaration order.
// The bootstrap principal is granted all of these at init.
var AllCapabilities = []Capability{
	CapabilityAdmin,
	CapabilityValidator,
	CapabilityOverride,
	CapabilityAudit,
}

// ParseCapability converts a string to a Capability.
// Returns an error for unknown names.
func ParseCapability(s string) (Capability, error) {
	switch Capability(s) {
	case CapabilityAdmin, CapabilityValidator, CapabilityOverride, CapabilityAudit:
		return Capability(s), nil
	}
	return "", fmt.Errorf("unknown capability %q", s)
}

// LifecycleState is the workflow state of an act.
//
// State machine: pending --validate--> validated (terminal),
// pending --reject--> rejected (terminal). No transition leaves a
// terminal state.
type LifecycleState string

const (
	StatePending   LifecycleState = "pending"
	StateValidated LifecycleState = "validated"
	StateRejected  LifecycleState = "rejected"
)

// Terminal reports whether the state is closed to further transitions.
func (s LifecycleState) Terminal() bool {
	return s == StateValidated || s == StateRejected
}

// ParseLifecycleState converts a string to a LifecycleState.
func ParseLifecycleState(s string) (LifecycleState, error) {
	switch LifecycleState(s) {
	case StatePending, StateValidated, StateRejected:
		return LifecycleState(s), nil
	}
	return "", fmt.Errorf("unknown lifecycle state %q", s)
}

// Act is a single medical-coding decision record.
//
// IDs are allocated by the store, start at 1, increase monotonically,
// and are never reused. ID 0 is the "does not exist" sentinel.
// BusinessNumber is caller-supplied and unique for the lifetime of the
// ledger, including among rejected acts.
type Act struct {
	ID               int64
	BusinessNumber   string
	SubjectRef       string // pseudonymous subject reference, never a direct identifier
	SuggestedCode    string
	ReferenceVersion string
	Justification    string
	RejectionReason  string // set only on transition to rejected
	Author           Principal
	CreatedAt        time.Time
	State            LifecycleState
	ValidatedBy      Principal // principal that closed the act, zero while pending
	ValidatedAt      time.Time // zero while pending
}

// Override is a proposed correction to an act's code.
//
// Approval is one-way and happens at most once. Approving an override is
// the only path that changes Act.SuggestedCode after registration, and
// it applies regardless of the act's lifecycle state: corrections are
// expected to land after validation.
type Override struct {
	ID            int64
	ActID         int64
	OriginalCode  string
	OverrideCode  string
	Justification string
	Signature     string // opaque, stored verbatim, never verified here
	Author        Principal
	CreatedAt     time.Time
	Approved      bool
	ApprovedBy    Principal // set only on approval
}

// VersionRef is a named, checksummed snapshot of the external coding
// reference, valid over a time window. VersionCode is unique among all
// versions ever registered.
type VersionRef struct {
	ID             int64
	VersionCode    string
	Name           string
	Checksum       string
	EffectiveFrom  int64 // unix seconds
	EffectiveUntil int64 // unix seconds, 0 = open-ended
	Active         bool
	Deprecated     bool
	RegisteredBy   Principal
	CreatedAt      time.Time
}

// Audit action tags written by the core itself. Manual annotations may
// carry any action string.
const (
	ActionActRegistered    = "act_registered"
	ActionActValidated     = "act_validated"
	ActionActRejected      = "act_rejected"
	ActionOverrideCreated  = "override_created"
	ActionOverrideApproved = "override_approved"
)

// Entity type tags for audit entries.
const (
	EntityAct      = "act"
	EntityOverride = "override"
)

// AuditEntry is one immutable log line describing a state change to an
// act. Entries are grouped by ActID, strictly ordered by Seq, and never
// deleted, edited, or reordered.
//
// PrevHash links each entry to its predecessor within the same act's
// trail ("" for the first entry); EntryHash covers the entry's canonical
// form including PrevHash. See hash.go.
type AuditEntry struct {
	ID          int64
	ActID       int64
	Seq         int64 // global logical clock stamp, see registry.Clock
	Action      string
	EntityType  string
	EntityID    int64
	Actor       Principal
	Timestamp   time.Time
	OldValues   Snapshot
	NewValues   Snapshot
	ExternalRef string // opaque transport/transaction identifier
	PrevHash    string
	EntryHash   string
}
