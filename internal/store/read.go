package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/caduceon/acteledger/internal/record"
)

// TrailFilter narrows an audit trail read. Zero values mean
// "no constraint"; Limit 0 means no limit.
type TrailFilter struct {
	Action string    // exact action tag match
	Since  time.Time // entries at or after this instant
	Until  time.Time // entries strictly before this instant
	Limit  int
	Offset int
}

// Totals holds the ledger-wide record counts.
type Totals struct {
	Acts         int64
	Overrides    int64
	Versions     int64
	AuditEntries int64
}

// GetAct retrieves a single act by id.
// Returns ErrNotFound if the id is unknown.
func (s *Store) GetAct(ctx context.Context, id int64) (record.Act, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_number, subject_ref, suggested_code, reference_version,
		       justification, rejection_reason, author, created_at, lifecycle_state,
		       validated_by, validated_at
		FROM acts
		WHERE id = ?
	`, id)
	return scanAct(row)
}

// GetActByBusinessNumber retrieves an act by its business number.
// Returns ErrNotFound if the number is unknown.
func (s *Store) GetActByBusinessNumber(ctx context.Context, businessNumber string) (record.Act, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, business_number, subject_ref, suggested_code, reference_version,
		       justification, rejection_reason, author, created_at, lifecycle_state,
		       validated_by, validated_at
		FROM acts
		WHERE business_number = ?
	`, businessNumber)
	return scanAct(row)
}

// GetOverride retrieves a single override by id.
// Returns ErrNotFound if the id is unknown.
func (s *Store) GetOverride(ctx context.Context, id int64) (record.Override, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, act_id, original_code, override_code, justification, signature,
		       author, created_at, approved, approved_by
		FROM act_overrides
		WHERE id = ?
	`, id)
	return scanOverride(row)
}

// OverridesForAct returns all overrides attached to an act in id order.
// Returns ErrNotFound if the act is unknown; an act with no overrides
// yields an empty slice, not nil.
func (s *Store) OverridesForAct(ctx context.Context, actID int64) ([]record.Override, error) {
	if err := s.requireAct(ctx, actID); err != nil {
		return nil, fmt.Errorf("overrides for act: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, act_id, original_code, override_code, justification, signature,
		       author, created_at, approved, approved_by
		FROM act_overrides
		WHERE act_id = ?
		ORDER BY id ASC
	`, actID)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	overrides := []record.Override{}
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}

	return overrides, nil
}

// GetVersionByCode retrieves a reference version by its unique code.
// Returns ErrNotFound if the code is unknown.
func (s *Store) GetVersionByCode(ctx context.Context, versionCode string) (record.VersionRef, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, version_code, name, checksum, effective_from, effective_until,
		       active, deprecated, registered_by, created_at
		FROM ref_versions
		WHERE version_code = ?
	`, versionCode)
	return scanVersion(row)
}

// AuditTrail returns an act's audit entries matching the filter,
// ordered by seq ASC, id ASC so repeated reads observe a stable
// append-only sequence. Returns ErrNotFound for an unknown act.
func (s *Store) AuditTrail(ctx context.Context, actID int64, filter TrailFilter) ([]record.AuditEntry, error) {
	if err := s.requireAct(ctx, actID); err != nil {
		return nil, fmt.Errorf("audit trail: %w", err)
	}

	query := `
		SELECT id, act_id, seq, action, entity_type, entity_id, actor, timestamp,
		       old_values, new_values, external_ref, prev_hash, entry_hash
		FROM audit_entries
		WHERE act_id = ?
	`
	args := []any{actID}

	if filter.Action != "" {
		query += ` AND action = ?`
		args = append(args, filter.Action)
	}
	if !filter.Since.IsZero() {
		query += ` AND timestamp >= ?`
		args = append(args, filter.Since.Unix())
	}
	if !filter.Until.IsZero() {
		query += ` AND timestamp < ?`
		args = append(args, filter.Until.Unix())
	}

	query += ` ORDER BY seq ASC, id ASC`

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit trail: %w", err)
	}
	defer rows.Close()

	entries := []record.AuditEntry{}
	for rows.Next() {
		entry, err := scanAuditEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit trail: %w", err)
	}

	return entries, nil
}

// Capabilities returns the capability set held by a principal.
// A principal with no grants yields an empty slice, not an error.
func (s *Store) Capabilities(ctx context.Context, principal record.Principal) ([]record.Capability, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT capability FROM capability_grants
		WHERE principal = ?
		ORDER BY capability ASC
	`, string(principal))
	if err != nil {
		return nil, fmt.Errorf("query capabilities: %w", err)
	}
	defer rows.Close()

	caps := []record.Capability{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan capability: %w", err)
		}
		caps = append(caps, record.Capability(c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capabilities: %w", err)
	}

	return caps, nil
}

// HasCapability reports whether a principal holds a capability.
func (s *Store) HasCapability(ctx context.Context, principal record.Principal, cap record.Capability) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM capability_grants
		WHERE principal = ? AND capability = ?
	`, string(principal), string(cap)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check capability: %w", err)
	}
	return count > 0, nil
}

// GrantCount returns the number of capability grants in the ledger.
// Zero means the ledger has not been bootstrapped yet.
func (s *Store) GrantCount(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM capability_grants`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count grants: %w", err)
	}
	return count, nil
}

// GetTotals returns ledger-wide record counts.
func (s *Store) GetTotals(ctx context.Context) (Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM acts),
			(SELECT COUNT(*) FROM act_overrides),
			(SELECT COUNT(*) FROM ref_versions),
			(SELECT COUNT(*) FROM audit_entries)
	`)
	if err := row.Scan(&t.Acts, &t.Overrides, &t.Versions, &t.AuditEntries); err != nil {
		return Totals{}, fmt.Errorf("query totals: %w", err)
	}
	return t, nil
}

// ActIDs returns every act id in ascending order.
// Used by chain verification to walk all trails.
func (s *Store) ActIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM acts ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query act ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan act id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate act ids: %w", err)
	}

	return ids, nil
}

// requireAct returns ErrNotFound if the act does not exist.
func (s *Store) requireAct(ctx context.Context, actID int64) error {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM acts WHERE id = ?`, actID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("act %d: %w", actID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check act: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanAct(row scanner) (record.Act, error) {
	var (
		act                    record.Act
		author, validatedBy    string
		createdAt, validatedAt int64
		state                  string
	)
	err := row.Scan(
		&act.ID,
		&act.BusinessNumber,
		&act.SubjectRef,
		&act.SuggestedCode,
		&act.ReferenceVersion,
		&act.Justification,
		&act.RejectionReason,
		&author,
		&createdAt,
		&state,
		&validatedBy,
		&validatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Act{}, fmt.Errorf("act: %w", ErrNotFound)
	}
	if err != nil {
		return record.Act{}, fmt.Errorf("scan act: %w", err)
	}

	act.Author = record.Principal(author)
	act.CreatedAt = time.Unix(createdAt, 0).UTC()
	act.State = record.LifecycleState(state)
	act.ValidatedBy = record.Principal(validatedBy)
	if validatedAt != 0 {
		act.ValidatedAt = time.Unix(validatedAt, 0).UTC()
	}
	return act, nil
}

func scanOverride(row scanner) (record.Override, error) {
	var (
		ov                  record.Override
		author, approvedBy  string
		createdAt           int64
	)
	err := row.Scan(
		&ov.ID,
		&ov.ActID,
		&ov.OriginalCode,
		&ov.OverrideCode,
		&ov.Justification,
		&ov.Signature,
		&author,
		&createdAt,
		&ov.Approved,
		&approvedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return record.Override{}, fmt.Errorf("override: %w", ErrNotFound)
	}
	if err != nil {
		return record.Override{}, fmt.Errorf("scan override: %w", err)
	}

	ov.Author = record.Principal(author)
	ov.ApprovedBy = record.Principal(approvedBy)
	ov.CreatedAt = time.Unix(createdAt, 0).UTC()
	return ov, nil
}

func scanVersion(row scanner) (record.VersionRef, error) {
	var (
		v            record.VersionRef
		registeredBy string
		createdAt    int64
	)
	err := row.Scan(
		&v.ID,
		&v.VersionCode,
		&v.Name,
		&v.Checksum,
		&v.EffectiveFrom,
		&v.EffectiveUntil,
		&v.Active,
		&v.Deprecated,
		&registeredBy,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return record.VersionRef{}, fmt.Errorf("version: %w", ErrNotFound)
	}
	if err != nil {
		return record.VersionRef{}, fmt.Errorf("scan version: %w", err)
	}

	v.RegisteredBy = record.Principal(registeredBy)
	v.CreatedAt = time.Unix(createdAt, 0).UTC()
	return v, nil
}

func scanAuditEntry(row scanner) (record.AuditEntry, error) {
	var (
		entry            record.AuditEntry
		actor            string
		timestamp        int64
		oldJSON, newJSON string
	)
	err := row.Scan(
		&entry.ID,
		&entry.ActID,
		&entry.Seq,
		&entry.Action,
		&entry.EntityType,
		&entry.EntityID,
		&actor,
		&timestamp,
		&oldJSON,
		&newJSON,
		&entry.ExternalRef,
		&entry.PrevHash,
		&entry.EntryHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return record.AuditEntry{}, fmt.Errorf("audit entry: %w", ErrNotFound)
	}
	if err != nil {
		return record.AuditEntry{}, fmt.Errorf("scan audit entry: %w", err)
	}

	entry.Actor = record.Principal(actor)
	entry.Timestamp = time.Unix(timestamp, 0).UTC()

	entry.OldValues, err = unmarshalSnapshot(oldJSON)
	if err != nil {
		return record.AuditEntry{}, fmt.Errorf("audit entry %d: %w", entry.ID, err)
	}
	entry.NewValues, err = unmarshalSnapshot(newJSON)
	if err != nil {
		return record.AuditEntry{}, fmt.Errorf("audit entry %d: %w", entry.ID, err)
	}

	return entry, nil
}
