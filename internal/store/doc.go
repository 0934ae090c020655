// Package store provides SQLite-backed durable storage for the act ledger.
//
// The store holds four monotonic-id keyed tables (acts, act_overrides,
// ref_versions, audit_entries) plus capability_grants, with two secondary
// unique indexes: acts.business_number and ref_versions.version_code.
// Row ids come from AUTOINCREMENT, so they start at 1, increase
// monotonically, and are never reused - id 0 is safe as the
// "does not exist" sentinel.
//
// # Atomicity
//
// Every mutating method is a single SQLite transaction covering the
// entity write and its audit entry. Precondition failures (duplicate
// key, unknown id, closed act, already approved) are detected inside
// the transaction and roll the whole thing back, so no partial state is
// ever visible. Failed preconditions surface as the sentinel errors in
// errors.go; the registry layer maps them to caller-facing error codes.
//
// # Ordering
//
// All audit trail queries include ORDER BY seq ASC, id ASC so repeated
// reads observe a stable sequence where each read is a prefix of any
// later read.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Audit snapshots are persisted as the exact canonical JSON bytes that
// fed the entry hash (internal/record), so chain verification re-reads
// precisely what was hashed.
package store
