package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caduceon/acteledger/internal/record"
)

// ActFinalization carries the fields written when an act leaves the
// pending state. Exactly one of the two terminal states applies:
// FinalCode and Justification for validated, RejectionReason for rejected.
type ActFinalization struct {
	ActID         int64
	State         record.LifecycleState
	FinalCode     string
	Justification string
	Reason        string
	By            record.Principal
	At            time.Time
}

// InsertAct atomically inserts an act and its registration audit entry.
//
// Returns ErrDuplicateBusinessNumber if the business number was ever
// used before - uniqueness holds for the lifetime of the ledger, not
// just active acts. The entry's ActID and EntityID are filled from the
// allocated id; PrevHash and EntryHash are computed inside the
// transaction.
func (s *Store) InsertAct(ctx context.Context, act record.Act, entry record.AuditEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert act: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	// Precondition: business number never used. Checked with a SELECT
	// rather than relying on the UNIQUE constraint so the failure maps
	// to a typed sentinel instead of a driver-specific error.
	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM acts WHERE business_number = ?`, act.BusinessNumber,
	).Scan(&existing)
	if err == nil {
		return 0, fmt.Errorf("insert act: business number %q: %w", act.BusinessNumber, ErrDuplicateBusinessNumber)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("insert act: check business number: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO acts
		(business_number, subject_ref, suggested_code, reference_version, justification, author, created_at, lifecycle_state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		act.BusinessNumber,
		act.SubjectRef,
		act.SuggestedCode,
		act.ReferenceVersion,
		act.Justification,
		string(act.Author),
		act.CreatedAt.Unix(),
		string(record.StatePending),
	)
	if err != nil {
		return 0, fmt.Errorf("insert act: %w", err)
	}

	actID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert act: last insert id: %w", err)
	}

	entry.ActID = actID
	entry.EntityID = actID
	if _, err := s.appendEntryTx(ctx, tx, entry); err != nil {
		return 0, fmt.Errorf("insert act: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert act: commit: %w", err)
	}

	return actID, nil
}

// FinalizeAct atomically moves a pending act to a terminal state and
// appends the matching audit entry.
//
// Returns ErrNotFound for an unknown id and ErrActClosed if the act
// already left the pending state. The terminal transition writes
// validated_by/validated_at for both outcomes - rejection is a decision
// with an accountable decider too.
func (s *Store) FinalizeAct(ctx context.Context, fin ActFinalization, entry record.AuditEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("finalize act: begin tx: %w", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx,
		`SELECT lifecycle_state FROM acts WHERE id = ?`, fin.ActID,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("finalize act %d: %w", fin.ActID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("finalize act: read state: %w", err)
	}
	if record.LifecycleState(state) != record.StatePending {
		return fmt.Errorf("finalize act %d: state %s: %w", fin.ActID, state, ErrActClosed)
	}

	switch fin.State {
	case record.StateValidated:
		_, err = tx.ExecContext(ctx, `
			UPDATE acts
			SET lifecycle_state = ?, suggested_code = ?, justification = ?, validated_by = ?, validated_at = ?
			WHERE id = ?
		`, string(record.StateValidated), fin.FinalCode, fin.Justification, string(fin.By), fin.At.Unix(), fin.ActID)
	case record.StateRejected:
		_, err = tx.ExecContext(ctx, `
			UPDATE acts
			SET lifecycle_state = ?, rejection_reason = ?, validated_by = ?, validated_at = ?
			WHERE id = ?
		`, string(record.StateRejected), fin.Reason, string(fin.By), fin.At.Unix(), fin.ActID)
	default:
		return fmt.Errorf("finalize act: %q is not a terminal state", fin.State)
	}
	if err != nil {
		return fmt.Errorf("finalize act: update: %w", err)
	}

	entry.ActID = fin.ActID
	entry.EntityID = fin.ActID
	if _, err := s.appendEntryTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("finalize act: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("finalize act: commit: %w", err)
	}

	return nil
}

// InsertOverride atomically inserts an override proposal and its audit
// entry.
//
// Overrides may only be created against a still-pending act: returns
// ErrNotFound for an unknown act and ErrActClosed for a terminal one.
// Approval, by contrast, is allowed after the act closes - see
// ApproveOverride.
func (s *Store) InsertOverride(ctx context.Context, ov record.Override, entry record.AuditEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert override: begin tx: %w", err)
	}
	defer tx.Rollback()

	var state string
	err = tx.QueryRowContext(ctx,
		`SELECT lifecycle_state FROM acts WHERE id = ?`, ov.ActID,
	).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("insert override: act %d: %w", ov.ActID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("insert override: read act state: %w", err)
	}
	if record.LifecycleState(state) != record.StatePending {
		return 0, fmt.Errorf("insert override: act %d state %s: %w", ov.ActID, state, ErrActClosed)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO act_overrides
		(act_id, original_code, override_code, justification, signature, author, created_at, approved)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`,
		ov.ActID,
		ov.OriginalCode,
		ov.OverrideCode,
		ov.Justification,
		ov.Signature,
		string(ov.Author),
		ov.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert override: %w", err)
	}

	overrideID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert override: last insert id: %w", err)
	}

	entry.ActID = ov.ActID
	entry.EntityID = overrideID
	if _, err := s.appendEntryTx(ctx, tx, entry); err != nil {
		return 0, fmt.Errorf("insert override: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert override: commit: %w", err)
	}

	return overrideID, nil
}

// ApproveOverride atomically marks an override approved, rewrites the
// referenced act's suggested code, and appends the audit entry.
//
// This is the one operation allowed to mutate a closed act: corrections
// are expected to land after validation. Returns ErrNotFound for an
// unknown override and ErrAlreadyApproved on a second approval -
// approval is one-way and happens at most once.
func (s *Store) ApproveOverride(ctx context.Context, overrideID int64, by record.Principal, entry record.AuditEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("approve override: begin tx: %w", err)
	}
	defer tx.Rollback()

	var (
		actID        int64
		approved     bool
		overrideCode string
	)
	err = tx.QueryRowContext(ctx,
		`SELECT act_id, approved, override_code FROM act_overrides WHERE id = ?`, overrideID,
	).Scan(&actID, &approved, &overrideCode)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("approve override %d: %w", overrideID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("approve override: read: %w", err)
	}
	if approved {
		return fmt.Errorf("approve override %d: %w", overrideID, ErrAlreadyApproved)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE act_overrides SET approved = 1, approved_by = ? WHERE id = ?`,
		string(by), overrideID,
	); err != nil {
		return fmt.Errorf("approve override: update override: %w", err)
	}

	// Side effect: the act's code follows the approved correction,
	// regardless of the act's lifecycle state.
	if _, err := tx.ExecContext(ctx,
		`UPDATE acts SET suggested_code = ? WHERE id = ?`,
		overrideCode, actID,
	); err != nil {
		return fmt.Errorf("approve override: update act: %w", err)
	}

	entry.ActID = actID
	entry.EntityID = overrideID
	if _, err := s.appendEntryTx(ctx, tx, entry); err != nil {
		return fmt.Errorf("approve override: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("approve override: commit: %w", err)
	}

	return nil
}

// InsertVersion inserts a reference version.
//
// Returns ErrDuplicateVersion if the version code was ever registered.
// Versions are not tied to an act, so no audit entry is written here -
// the registry emits a standalone event instead.
func (s *Store) InsertVersion(ctx context.Context, v record.VersionRef) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert version: begin tx: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM ref_versions WHERE version_code = ?`, v.VersionCode,
	).Scan(&existing)
	if err == nil {
		return 0, fmt.Errorf("insert version: code %q: %w", v.VersionCode, ErrDuplicateVersion)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("insert version: check code: %w", err)
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO ref_versions
		(version_code, name, checksum, effective_from, effective_until, active, deprecated, registered_by, created_at)
		VALUES (?, ?, ?, ?, ?, 1, 0, ?, ?)
	`,
		v.VersionCode,
		v.Name,
		v.Checksum,
		v.EffectiveFrom,
		v.EffectiveUntil,
		string(v.RegisteredBy),
		v.CreatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert version: %w", err)
	}

	versionID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert version: last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert version: commit: %w", err)
	}

	return versionID, nil
}

// AppendAuditEntry appends a manual audit annotation for an act.
// Returns ErrNotFound if the act does not exist. The entry content is
// stored unconditionally - snapshots are opaque to the core.
func (s *Store) AppendAuditEntry(ctx context.Context, entry record.AuditEntry) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("append audit entry: begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM acts WHERE id = ?`, entry.ActID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("append audit entry: act %d: %w", entry.ActID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("append audit entry: check act: %w", err)
	}

	id, err := s.appendEntryTx(ctx, tx, entry)
	if err != nil {
		return 0, fmt.Errorf("append audit entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("append audit entry: commit: %w", err)
	}

	return id, nil
}

// GrantCapability records a capability grant.
// Granting an already-held capability is a no-op: returns inserted=false.
func (s *Store) GrantCapability(ctx context.Context, principal record.Principal, cap record.Capability, grantedBy record.Principal, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO capability_grants
		(principal, capability, granted_by, granted_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(principal, capability) DO NOTHING
	`,
		string(principal),
		string(cap),
		string(grantedBy),
		at.Unix(),
	)
	if err != nil {
		return false, fmt.Errorf("grant capability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("grant capability: rows affected: %w", err)
	}
	return rows > 0, nil
}

// RevokeCapability removes a capability grant.
// Revoking a capability the principal does not hold is a no-op:
// returns removed=false. There is no self-protection - an admin may
// revoke its own admin capability.
func (s *Store) RevokeCapability(ctx context.Context, principal record.Principal, cap record.Capability) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM capability_grants WHERE principal = ? AND capability = ?`,
		string(principal), string(cap),
	)
	if err != nil {
		return false, fmt.Errorf("revoke capability: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoke capability: rows affected: %w", err)
	}
	return rows > 0, nil
}

// appendEntryTx appends an audit entry inside an open transaction.
//
// Fills PrevHash from the last entry of the same act's trail and
// computes EntryHash over the canonical entry. Callers supply
// everything else, including the Seq stamp.
func (s *Store) appendEntryTx(ctx context.Context, tx *sql.Tx, entry record.AuditEntry) (int64, error) {
	var prevHash string
	err := tx.QueryRowContext(ctx, `
		SELECT entry_hash FROM audit_entries
		WHERE act_id = ?
		ORDER BY seq DESC, id DESC
		LIMIT 1
	`, entry.ActID).Scan(&prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("read prev hash: %w", err)
	}

	entry.PrevHash = prevHash
	entryHash, err := record.EntryHash(entry)
	if err != nil {
		return 0, fmt.Errorf("compute entry hash: %w", err)
	}

	oldJSON, err := marshalSnapshot(entry.OldValues)
	if err != nil {
		return 0, err
	}
	newJSON, err := marshalSnapshot(entry.NewValues)
	if err != nil {
		return 0, err
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO audit_entries
		(act_id, seq, action, entity_type, entity_id, actor, timestamp, old_values, new_values, external_ref, prev_hash, entry_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ActID,
		entry.Seq,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		string(entry.Actor),
		entry.Timestamp.Unix(),
		oldJSON,
		newJSON,
		entry.ExternalRef,
		prevHash,
		entryHash,
	)
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert audit entry: last insert id: %w", err)
	}

	return id, nil
}
