// Package policy loads bootstrap policies from CUE files.
//
// A policy describes the initial shape of a fresh ledger: which
// principals hold which capabilities, and which reference versions are
// registered up front. Policies are applied once, at init time; after
// that, capability administration happens through the registry's
// grant and revoke operations.
//
// Policy files are CUE, which gives operators schema constraints and
// value validation without any code in this package:
//
//	grants: alice: ["admin", "validator"]
//	grants: bob:   ["audit"]
//
//	versions: v2025: {
//		name:           "CCAM v2025"
//		checksum:       "sha256:..."
//		effective_from: 1735689600
//	}
package policy

import (
	"github.com/caduceon/acteledger/internal/record"
)

// Policy is a compiled bootstrap policy.
type Policy struct {
	Grants   []GrantRule
	Versions []VersionSeed
}

// GrantRule assigns a capability set to one principal.
type GrantRule struct {
	Principal    record.Principal
	Capabilities []record.Capability
}

// VersionSeed describes a reference version to register at init.
type VersionSeed struct {
	VersionCode    string
	Name           string
	Checksum       string
	EffectiveFrom  int64
	EffectiveUntil int64
}
