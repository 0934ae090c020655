// Package record defines the acteledger domain records and their
// content-addressed identity rules.
//
// The package holds the four persisted record kinds (Act, Override,
// VersionRef, AuditEntry), the capability and lifecycle enumerations,
// and the externally observable Event type.
//
// CANONICAL SERIALIZATION:
//
// Audit snapshots are serialized with RFC 8785 canonical JSON before
// hashing: object keys sorted by UTF-16 code units, strings NFC
// normalized, no HTML escaping, no floats, no null. The resulting bytes
// feed the per-act audit hash chain (hash.go), which is what makes the
// trail tamper-evident: editing, dropping, or reordering any entry
// changes every hash downstream of it.
//
// The hash chain carries domain-separated SHA-256 digests. Domain
// prefixes are versioned so the algorithm can be migrated without
// ambiguity between old and new digests.
package record
