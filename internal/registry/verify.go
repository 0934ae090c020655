package registry

import (
	"context"
	"fmt"

	"github.com/caduceon/acteledger/internal/record"
)

// ChainReport summarizes a tamper-evidence check over the whole ledger.
type ChainReport struct {
	ActsChecked    int64
	EntriesChecked int64
	Faults         []ChainFault
}

// OK reports whether every checked trail is intact.
func (rep ChainReport) OK() bool {
	return len(rep.Faults) == 0
}

// ChainFault describes one broken link found during verification.
type ChainFault struct {
	ActID   int64
	EntryID int64
	Seq     int64
	Kind    ChainFaultKind
	Detail  string
}

// ChainFaultKind categorizes chain faults.
type ChainFaultKind string

const (
	// FaultHashMismatch means the stored entry hash does not match the
	// hash recomputed from the entry's fields. The entry was altered
	// after being written.
	FaultHashMismatch ChainFaultKind = "hash_mismatch"

	// FaultBrokenLink means the entry's prev hash does not match the
	// entry hash of its predecessor in the trail. An entry was removed,
	// reordered, or inserted.
	FaultBrokenLink ChainFaultKind = "broken_link"

	// FaultSeqRegression means a trail's seq stamps are not strictly
	// increasing in append order.
	FaultSeqRegression ChainFaultKind = "seq_regression"
)

func (f ChainFault) String() string {
	return fmt.Sprintf("act %d entry %d (seq %d): %s: %s", f.ActID, f.EntryID, f.Seq, f.Kind, f.Detail)
}

// VerifyChains recomputes every audit entry hash and checks each
// per-act trail's prev-hash links and seq ordering. Audit capability
// required.
//
// Verification reads the trails as the query surface does; it does not
// hold the writer mutex, so a trail appended to mid-scan is checked up
// to the snapshot the read observed.
func (r *Registry) VerifyChains(ctx context.Context, caller record.Principal) (ChainReport, error) {
	const op = "verify_chains"

	if err := r.requireCapability(ctx, op, caller, record.CapabilityAudit); err != nil {
		return ChainReport{}, err
	}

	actIDs, err := r.store.ActIDs(ctx)
	if err != nil {
		return ChainReport{}, fmt.Errorf("%s: %w", op, err)
	}

	rep := ChainReport{}
	for _, actID := range actIDs {
		entries, err := r.store.AuditTrail(ctx, actID, TrailFilter{})
		if err != nil {
			return ChainReport{}, fmt.Errorf("%s: act %d: %w", op, actID, err)
		}
		rep.ActsChecked++

		prevHash := ""
		prevSeq := int64(0)
		for _, e := range entries {
			rep.EntriesChecked++

			if e.PrevHash != prevHash {
				rep.Faults = append(rep.Faults, ChainFault{
					ActID:   actID,
					EntryID: e.ID,
					Seq:     e.Seq,
					Kind:    FaultBrokenLink,
					Detail:  fmt.Sprintf("prev_hash %q, want %q", e.PrevHash, prevHash),
				})
			}

			computed, err := record.EntryHash(e)
			if err != nil {
				return ChainReport{}, fmt.Errorf("%s: entry %d: %w", op, e.ID, err)
			}
			if computed != e.EntryHash {
				rep.Faults = append(rep.Faults, ChainFault{
					ActID:   actID,
					EntryID: e.ID,
					Seq:     e.Seq,
					Kind:    FaultHashMismatch,
					Detail:  fmt.Sprintf("stored %q, computed %q", e.EntryHash, computed),
				})
			}

			if e.Seq <= prevSeq {
				rep.Faults = append(rep.Faults, ChainFault{
					ActID:   actID,
					EntryID: e.ID,
					Seq:     e.Seq,
					Kind:    FaultSeqRegression,
					Detail:  fmt.Sprintf("seq %d after %d", e.Seq, prevSeq),
				})
			}

			// Chain from the stored hash, not the recomputed one, so an
			// altered entry does not cascade broken links down the rest
			// of the trail. Payload tampering surfaces as exactly one
			// hash mismatch; a tampered prev_hash reports both a broken
			// link and a hash mismatch, since the entry hash covers it.
			prevHash = e.EntryHash
			prevSeq = e.Seq
		}
	}

	if rep.OK() {
		r.log.Info().
			Int64("acts", rep.ActsChecked).
			Int64("entries", rep.EntriesChecked).
			Msg("chain verification passed")
	} else {
		r.log.Warn().
			Int64("acts", rep.ActsChecked).
			Int64("entries", rep.EntriesChecked).
			Int("faults", len(rep.Faults)).
			Msg("chain verification found faults")
	}

	return rep, nil
}
