package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/store"
)

// Registry is the single-writer ledger core.
//
// Thread-safety model:
//   - mutating operations: serialized by an internal mutex, safe from
//     any goroutine
//   - read operations (queries.go): safe from any goroutine, never
//     blocked by writers
type Registry struct {
	mu      sync.Mutex
	store   *store.Store
	clock   *Clock
	sink    EventSink
	refGen  RefGenerator
	now     func() time.Time
	log     zerolog.Logger
	metrics Observer
}

// Observer receives operation outcomes for metrics.
// Implemented by metrics.Collector; nil-safe via the noopObserver default.
type Observer interface {
	Observe(op string, code OpErrorCode)
}

type noopObserver struct{}

func (noopObserver) Observe(string, OpErrorCode) {}

// Option configures a Registry.
type Option func(*Registry)

// WithEventSink sets the event sink. Default: NopSink.
func WithEventSink(sink EventSink) Option {
	return func(r *Registry) { r.sink = sink }
}

// WithRefGenerator sets the external reference generator.
// Default: UUIDv7Generator. Tests use FixedGenerator.
func WithRefGenerator(gen RefGenerator) Option {
	return func(r *Registry) { r.refGen = gen }
}

// WithNow sets the wall-clock source. Default: time.Now (UTC).
// Tests pin this for deterministic timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger sets the structured logger. Default: disabled logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithObserver sets the metrics observer. Default: no-op.
func WithObserver(obs Observer) Option {
	return func(r *Registry) { r.metrics = obs }
}

// New creates a Registry over an open store.
// The logical clock resumes from the highest persisted seq stamp so
// ordering stays monotonic across restarts.
func New(ctx context.Context, s *store.Store, opts ...Option) (*Registry, error) {
	maxSeq, err := s.MaxSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("new registry: %w", err)
	}

	r := &Registry{
		store:   s,
		clock:   NewClockAt(maxSeq),
		sink:    NopSink{},
		refGen:  UUIDv7Generator{},
		now:     func() time.Time { return time.Now().UTC() },
		log:     zerolog.Nop(),
		metrics: noopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// RegisterAct records a new coding decision in the pending state.
// Requires the validator capability.
//
// Fails with EMPTY_FIELD if businessNumber is blank and with
// DUPLICATE_BUSINESS_NUMBER if it was ever used before. On success the
// act id is returned, one "act_registered" audit entry is appended, and
// an ActRegistered event is emitted.
func (r *Registry) RegisterAct(ctx context.Context, caller record.Principal, businessNumber, subjectRef, suggestedCode, referenceVersion, justification string) (int64, error) {
	const op = "register_act"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityValidator); err != nil {
		return 0, r.observe(op, err)
	}
	if businessNumber == "" {
		return 0, r.observe(op, &OpError{
			Code:      ErrCodeEmptyField,
			Message:   "business number must not be empty",
			Op:        op,
			Principal: string(caller),
		})
	}

	now := r.now()
	act := record.Act{
		BusinessNumber:   businessNumber,
		SubjectRef:       subjectRef,
		SuggestedCode:    suggestedCode,
		ReferenceVersion: referenceVersion,
		Justification:    justification,
		Author:           caller,
		CreatedAt:        now,
		State:            record.StatePending,
	}

	entry := record.AuditEntry{
		Seq:        r.clock.Next(),
		Action:     record.ActionActRegistered,
		EntityType: record.EntityAct,
		Actor:      caller,
		Timestamp:  now,
		OldValues:  record.Snapshot{},
		NewValues: record.Fields(
			"business_number", businessNumber,
			"subject_ref", subjectRef,
			"suggested_code", suggestedCode,
			"reference_version", referenceVersion,
			"lifecycle_state", string(record.StatePending),
		),
		ExternalRef: r.refGen.Generate(),
	}

	actID, err := r.store.InsertAct(ctx, act, entry)
	if err != nil {
		return 0, r.observe(op, r.mapStoreErr(op, caller, 0, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("act_id", actID).
		Str("business_number", businessNumber).
		Str("caller", string(caller)).
		Msg("act registered")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:           record.EventActRegistered,
		Seq:            entry.Seq,
		Timestamp:      now,
		Actor:          caller,
		ActID:          actID,
		BusinessNumber: businessNumber,
		Code:           suggestedCode,
		VersionCode:    referenceVersion,
		ExternalRef:    entry.ExternalRef,
	})
	return actID, nil
}

// ValidateAct closes a pending act as validated, recording the final
// code and justification. Requires the validator capability.
//
// Fails with NOT_FOUND for an unknown id and ALREADY_CLOSED if the act
// already reached a terminal state - validate and reject are mutually
// exclusive, first one processed wins.
func (r *Registry) ValidateAct(ctx context.Context, caller record.Principal, actID int64, finalCode, justification string) error {
	const op = "validate_act"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityValidator); err != nil {
		return r.observe(op, err)
	}

	act, err := r.store.GetAct(ctx, actID)
	if err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}
	// Check the state before taking a seq: a refused close must not
	// leave a gap in the stamp sequence. The store transaction rechecks.
	if act.State != record.StatePending {
		return r.observe(op, &OpError{
			Code:      ErrCodeAlreadyClosed,
			Message:   "act already closed",
			Op:        op,
			Principal: string(caller),
			EntityID:  actID,
		})
	}

	now := r.now()
	entry := record.AuditEntry{
		Seq:        r.clock.Next(),
		Action:     record.ActionActValidated,
		EntityType: record.EntityAct,
		Actor:      caller,
		Timestamp:  now,
		OldValues: record.Fields(
			"suggested_code", act.SuggestedCode,
			"lifecycle_state", string(act.State),
		),
		NewValues: record.Fields(
			"suggested_code", finalCode,
			"justification", justification,
			"lifecycle_state", string(record.StateValidated),
		),
		ExternalRef: r.refGen.Generate(),
	}

	fin := store.ActFinalization{
		ActID:         actID,
		State:         record.StateValidated,
		FinalCode:     finalCode,
		Justification: justification,
		By:            caller,
		At:            now,
	}
	if err := r.store.FinalizeAct(ctx, fin, entry); err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("act_id", actID).
		Str("final_code", finalCode).
		Str("caller", string(caller)).
		Msg("act validated")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:           record.EventActValidated,
		Seq:            entry.Seq,
		Timestamp:      now,
		Actor:          caller,
		ActID:          actID,
		BusinessNumber: act.BusinessNumber,
		Code:           finalCode,
		ExternalRef:    entry.ExternalRef,
	})
	return nil
}

// RejectAct closes a pending act as rejected, recording the reason.
// Requires the validator capability. Same existence and state
// preconditions as ValidateAct.
func (r *Registry) RejectAct(ctx context.Context, caller record.Principal, actID int64, reason string) error {
	const op = "reject_act"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityValidator); err != nil {
		return r.observe(op, err)
	}

	act, err := r.store.GetAct(ctx, actID)
	if err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}
	if act.State != record.StatePending {
		return r.observe(op, &OpError{
			Code:      ErrCodeAlreadyClosed,
			Message:   "act already closed",
			Op:        op,
			Principal: string(caller),
			EntityID:  actID,
		})
	}

	now := r.now()
	entry := record.AuditEntry{
		Seq:        r.clock.Next(),
		Action:     record.ActionActRejected,
		EntityType: record.EntityAct,
		Actor:      caller,
		Timestamp:  now,
		OldValues: record.Fields(
			"lifecycle_state", string(act.State),
		),
		NewValues: record.Fields(
			"lifecycle_state", string(record.StateRejected),
			"rejection_reason", reason,
		),
		ExternalRef: r.refGen.Generate(),
	}

	fin := store.ActFinalization{
		ActID:  actID,
		State:  record.StateRejected,
		Reason: reason,
		By:     caller,
		At:     now,
	}
	if err := r.store.FinalizeAct(ctx, fin, entry); err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("act_id", actID).
		Str("caller", string(caller)).
		Msg("act rejected")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:           record.EventActRejected,
		Seq:            entry.Seq,
		Timestamp:      now,
		Actor:          caller,
		ActID:          actID,
		BusinessNumber: act.BusinessNumber,
		ExternalRef:    entry.ExternalRef,
	})
	return nil
}

// CreateOverride files a correction proposal against a still-pending
// act. Requires the override capability.
//
// Fails with NOT_FOUND / ALREADY_CLOSED under the same rules as
// ValidateAct: overrides cannot be created once the act closed, though
// an already-created override may still be approved afterwards.
func (r *Registry) CreateOverride(ctx context.Context, caller record.Principal, actID int64, originalCode, overrideCode, justification, signature string) (int64, error) {
	const op = "create_override"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityOverride); err != nil {
		return 0, r.observe(op, err)
	}

	act, err := r.store.GetAct(ctx, actID)
	if err != nil {
		return 0, r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}
	if act.State != record.StatePending {
		return 0, r.observe(op, &OpError{
			Code:      ErrCodeAlreadyClosed,
			Message:   "act already closed",
			Op:        op,
			Principal: string(caller),
			EntityID:  actID,
		})
	}

	now := r.now()
	ov := record.Override{
		ActID:         actID,
		OriginalCode:  originalCode,
		OverrideCode:  overrideCode,
		Justification: justification,
		Signature:     signature,
		Author:        caller,
		CreatedAt:     now,
	}

	entry := record.AuditEntry{
		Seq:        r.clock.Next(),
		Action:     record.ActionOverrideCreated,
		EntityType: record.EntityOverride,
		Actor:      caller,
		Timestamp:  now,
		OldValues:  record.Snapshot{},
		NewValues: record.Fields(
			"original_code", originalCode,
			"override_code", overrideCode,
			"justification", justification,
			"approved", false,
		),
		ExternalRef: r.refGen.Generate(),
	}

	overrideID, err := r.store.InsertOverride(ctx, ov, entry)
	if err != nil {
		return 0, r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("act_id", actID).
		Int64("override_id", overrideID).
		Str("caller", string(caller)).
		Msg("override created")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:        record.EventOverrideCreated,
		Seq:         entry.Seq,
		Timestamp:   now,
		Actor:       caller,
		ActID:       actID,
		OverrideID:  overrideID,
		Code:        overrideCode,
		ExternalRef: entry.ExternalRef,
	})
	return overrideID, nil
}

// ApproveOverride approves a pending override and, as a side effect,
// writes its override code into the referenced act's suggested code -
// regardless of the act's lifecycle state. Corrections are expected to
// land after validation, so this is the one operation that may mutate
// a closed act. Requires the validator capability.
//
// Fails with NOT_FOUND for an unknown override and ALREADY_APPROVED on
// a second approval.
func (r *Registry) ApproveOverride(ctx context.Context, caller record.Principal, overrideID int64) error {
	const op = "approve_override"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityValidator); err != nil {
		return r.observe(op, err)
	}

	ov, err := r.store.GetOverride(ctx, overrideID)
	if err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, overrideID, err))
	}
	if ov.Approved {
		return r.observe(op, &OpError{
			Code:      ErrCodeAlreadyApproved,
			Message:   "override already approved",
			Op:        op,
			Principal: string(caller),
			EntityID:  overrideID,
		})
	}

	act, err := r.store.GetAct(ctx, ov.ActID)
	if err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, ov.ActID, err))
	}

	now := r.now()
	entry := record.AuditEntry{
		Seq:        r.clock.Next(),
		Action:     record.ActionOverrideApproved,
		EntityType: record.EntityOverride,
		Actor:      caller,
		Timestamp:  now,
		OldValues: record.Fields(
			"approved", false,
			"suggested_code", act.SuggestedCode,
		),
		NewValues: record.Fields(
			"approved", true,
			"approved_by", string(caller),
			"suggested_code", ov.OverrideCode,
		),
		ExternalRef: r.refGen.Generate(),
	}

	if err := r.store.ApproveOverride(ctx, overrideID, caller, entry); err != nil {
		return r.observe(op, r.mapStoreErr(op, caller, overrideID, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("override_id", overrideID).
		Int64("act_id", ov.ActID).
		Str("override_code", ov.OverrideCode).
		Str("caller", string(caller)).
		Msg("override approved")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:        record.EventOverrideApproved,
		Seq:         entry.Seq,
		Timestamp:   now,
		Actor:       caller,
		ActID:       ov.ActID,
		OverrideID:  overrideID,
		Code:        ov.OverrideCode,
		ExternalRef: entry.ExternalRef,
	})
	return nil
}

// RegisterVersion records a new reference version, active and not
// deprecated. Requires the validator capability.
//
// Fails with EMPTY_FIELD for a blank version code or name and
// DUPLICATE_VERSION if the code was ever registered. Versions are not
// tied to an act, so no audit entry is written; a standalone
// VersionRegistered event is emitted instead.
func (r *Registry) RegisterVersion(ctx context.Context, caller record.Principal, versionCode, name, checksum string, effectiveFrom, effectiveUntil int64) (int64, error) {
	const op = "register_version"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityValidator); err != nil {
		return 0, r.observe(op, err)
	}
	if versionCode == "" {
		return 0, r.observe(op, &OpError{
			Code:      ErrCodeEmptyField,
			Message:   "version code must not be empty",
			Op:        op,
			Principal: string(caller),
		})
	}
	if name == "" {
		return 0, r.observe(op, &OpError{
			Code:      ErrCodeEmptyField,
			Message:   "version name must not be empty",
			Op:        op,
			Principal: string(caller),
		})
	}

	now := r.now()
	v := record.VersionRef{
		VersionCode:    versionCode,
		Name:           name,
		Checksum:       checksum,
		EffectiveFrom:  effectiveFrom,
		EffectiveUntil: effectiveUntil,
		Active:         true,
		RegisteredBy:   caller,
		CreatedAt:      now,
	}

	versionID, err := r.store.InsertVersion(ctx, v)
	if err != nil {
		return 0, r.observe(op, r.mapStoreErr(op, caller, 0, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("version_id", versionID).
		Str("version_code", versionCode).
		Str("caller", string(caller)).
		Msg("reference version registered")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:        record.EventVersionRegistered,
		Seq:         r.clock.Next(),
		Timestamp:   now,
		Actor:       caller,
		VersionID:   versionID,
		VersionCode: versionCode,
		ExternalRef: r.refGen.Generate(),
	})
	return versionID, nil
}

// AppendAuditEntry appends a manual audit annotation to an act's trail.
// Requires the audit capability - this is the only externally exposed
// write to the trail; the other operations append their entries
// internally without it.
//
// Fails with NOT_FOUND for an unknown act. The snapshots are stored
// unconditionally, with no further validation of their content.
func (r *Registry) AppendAuditEntry(ctx context.Context, caller record.Principal, actID int64, action, entityType string, entityID int64, oldValues, newValues record.Snapshot) (int64, error) {
	const op = "append_audit_entry"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityAudit); err != nil {
		return 0, r.observe(op, err)
	}

	now := r.now()
	entry := record.AuditEntry{
		ActID:       actID,
		Seq:         r.clock.Next(),
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Actor:       caller,
		Timestamp:   now,
		OldValues:   oldValues.Clone(),
		NewValues:   newValues.Clone(),
		ExternalRef: r.refGen.Generate(),
	}

	auditID, err := r.store.AppendAuditEntry(ctx, entry)
	if err != nil {
		return 0, r.observe(op, r.mapStoreErr(op, caller, actID, err))
	}

	r.log.Info().
		Str("op", op).
		Int64("act_id", actID).
		Int64("audit_id", auditID).
		Str("action", action).
		Str("caller", string(caller)).
		Msg("audit annotation appended")

	r.observe(op, nil)
	r.emit(record.Event{
		Kind:        record.EventAuditEntryCreated,
		Seq:         entry.Seq,
		Timestamp:   now,
		Actor:       caller,
		ActID:       actID,
		AuditID:     auditID,
		ExternalRef: entry.ExternalRef,
	})
	return auditID, nil
}

// emit hands an event to the sink. Called only after a successful
// commit, inside the writer critical section, so sinks see commit order.
func (r *Registry) emit(ev record.Event) {
	r.sink.Emit(ev)
}

// observe reports the operation outcome to the metrics observer and
// passes the error through unchanged.
func (r *Registry) observe(op string, err error) error {
	if err == nil {
		r.metrics.Observe(op, "")
		return nil
	}
	code := CodeOf(err)
	if code == "" {
		code = "INTERNAL"
	}
	r.metrics.Observe(op, code)
	return err
}

// mapStoreErr converts store sentinel errors into caller-facing
// OpErrors. Unrecognized errors pass through wrapped.
func (r *Registry) mapStoreErr(op string, caller record.Principal, entityID int64, err error) error {
	var code OpErrorCode
	switch {
	case errors.Is(err, store.ErrNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, store.ErrDuplicateBusinessNumber):
		code = ErrCodeDuplicateBusinessNumber
	case errors.Is(err, store.ErrDuplicateVersion):
		code = ErrCodeDuplicateVersion
	case errors.Is(err, store.ErrActClosed):
		code = ErrCodeAlreadyClosed
	case errors.Is(err, store.ErrAlreadyApproved):
		code = ErrCodeAlreadyApproved
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	return &OpError{
		Code:      code,
		Message:   err.Error(),
		Op:        op,
		Principal: string(caller),
		EntityID:  entityID,
	}
}
