package record

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainAudit = "acteledger/audit/v1"
	DomainEvent = "acteledger/event/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryHash computes the chained hash of an audit entry.
//
// The hash covers every persisted field of the entry except ID and
// EntryHash itself, including PrevHash - that link is what makes the
// per-act trail tamper-evident. The first entry of a trail uses
// PrevHash "".
//
// Timestamps enter the hash as unix seconds (canonical JSON forbids
// floats, and sub-second precision is not stable across drivers).
func EntryHash(e AuditEntry) (string, error) {
	oldJSON, err := MarshalCanonical(e.OldValues)
	if err != nil {
		return "", fmt.Errorf("entry hash: old values: %w", err)
	}
	newJSON, err := MarshalCanonical(e.NewValues)
	if err != nil {
		return "", fmt.Errorf("entry hash: new values: %w", err)
	}

	envelope := Snapshot{
		"act_id":       IntValue(e.ActID),
		"seq":          IntValue(e.Seq),
		"action":       StringValue(e.Action),
		"entity_type":  StringValue(e.EntityType),
		"entity_id":    IntValue(e.EntityID),
		"actor":        StringValue(string(e.Actor)),
		"timestamp":    IntValue(e.Timestamp.Unix()),
		"old_values":   StringValue(string(oldJSON)),
		"new_values":   StringValue(string(newJSON)),
		"external_ref": StringValue(e.ExternalRef),
		"prev_hash":    StringValue(e.PrevHash),
	}

	canonical, err := MarshalCanonical(envelope)
	if err != nil {
		return "", fmt.Errorf("entry hash: %w", err)
	}

	return hashWithDomain(DomainAudit, canonical), nil
}

// MustEntryHash is like EntryHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryHash(e AuditEntry) string {
	h, err := EntryHash(e)
	if err != nil {
		panic(err)
	}
	return h
}
