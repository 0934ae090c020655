package harness

import (
	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
)

// evaluateAssertions checks final state through the registry's read
// surface. Chain verification runs as the bootstrap principal.
func (h *Harness) evaluateAssertions(scenario *Scenario, result *Result) {
	verifier := record.Principal(scenario.Bootstrap)

	for i, a := range scenario.Assertions {
		switch a.Type {
		case AssertActState:
			if int(a.ActID) > len(h.actIDs) {
				result.AddError("assertions[%d]: act ordinal %d out of range", i, a.ActID)
				continue
			}
			act, err := h.registry.ActByID(h.ctx, h.actIDs[a.ActID-1])
			if err != nil {
				result.AddError("assertions[%d]: %v", i, err)
				continue
			}
			if string(act.State) != a.State {
				result.AddError("assertions[%d]: act#%d state %s, want %s", i, a.ActID, act.State, a.State)
			}
			if a.Code != "" && act.SuggestedCode != a.Code {
				result.AddError("assertions[%d]: act#%d code %s, want %s", i, a.ActID, act.SuggestedCode, a.Code)
			}

		case AssertTrailCount:
			if int(a.ActID) > len(h.actIDs) {
				result.AddError("assertions[%d]: act ordinal %d out of range", i, a.ActID)
				continue
			}
			entries, err := h.registry.AuditTrail(h.ctx, h.actIDs[a.ActID-1], registry.TrailFilter{})
			if err != nil {
				result.AddError("assertions[%d]: %v", i, err)
				continue
			}
			if len(entries) != a.Count {
				result.AddError("assertions[%d]: act#%d trail has %d entries, want %d", i, a.ActID, len(entries), a.Count)
			}

		case AssertChainOK:
			rep, err := h.registry.VerifyChains(h.ctx, verifier)
			if err != nil {
				result.AddError("assertions[%d]: %v", i, err)
				continue
			}
			for _, fault := range rep.Faults {
				result.AddError("assertions[%d]: chain fault: %s", i, fault)
			}

		case AssertTotals:
			totals, err := h.registry.LedgerTotals(h.ctx)
			if err != nil {
				result.AddError("assertions[%d]: %v", i, err)
				continue
			}
			if a.Acts != 0 && totals.Acts != a.Acts {
				result.AddError("assertions[%d]: %d acts, want %d", i, totals.Acts, a.Acts)
			}
			if a.AuditEntries != 0 && totals.AuditEntries != a.AuditEntries {
				result.AddError("assertions[%d]: %d audit entries, want %d", i, totals.AuditEntries, a.AuditEntries)
			}
		}
	}
}
