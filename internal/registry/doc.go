// Package registry implements the permissioned act ledger core.
//
// The registry is the only writer of the four stores (acts, overrides,
// reference versions, audit entries). Callers present a principal and
// invoke one operation; the registry checks the required capability,
// validates arguments, applies the mutation and its audit entry as one
// SQLite transaction, then emits one event to the configured sink.
//
// ARCHITECTURE:
//
// Single-Writer Critical Section:
// A mutex serializes all mutating operations, so each executes to
// completion before the next begins. Combined with the store's
// transactional writes this gives the operation-level atomicity the
// ledger requires: an operation is either fully applied (state + audit
// entry + event) or leaves no trace. Read operations go straight to
// the store and are never blocked by the writer lock - committed SQLite
// state is all a reader can observe.
//
// Operation Shape:
// 1. requireCapability(principal, capability) - Unauthorized on failure
// 2. argument checks (empty fields) - before any write
// 3. one store transaction: entity write + audit entry
// 4. metrics observation
// 5. event emission (only after commit)
//
// Precondition failures abort before step 3, and state preconditions
// are read before the clock ticks, so a refused operation consumes no
// seq, no id, no audit entry, no event.
//
// ORDERING:
//
// Audit entries and events carry a seq stamp from the logical Clock,
// seeded from the highest persisted stamp at startup. Wall-clock
// timestamps are recorded but never used for ordering.
package registry
