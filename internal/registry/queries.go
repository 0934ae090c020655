package registry

import (
	"context"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/store"
)

// Read surface. Queries are ungated: any caller can read, and a query
// touches nothing: no capability check, no clock ticks, no audit
// entries, no events. The only failure mode is not-found (or a broken
// database). Queries do not take the writer mutex; SQLite's snapshot
// isolation under WAL gives each read a consistent view.

// TrailFilter narrows AuditTrail reads. Re-exported so callers do not
// import the store package directly.
type TrailFilter = store.TrailFilter

// Totals holds ledger-wide record counts.
type Totals = store.Totals

// ActByID returns a single act.
func (r *Registry) ActByID(ctx context.Context, actID int64) (record.Act, error) {
	const op = "act_by_id"
	act, err := r.store.GetAct(ctx, actID)
	if err != nil {
		return record.Act{}, r.mapStoreErr(op, "", actID, err)
	}
	return act, nil
}

// ActByBusinessNumber returns the act registered under a business
// number.
func (r *Registry) ActByBusinessNumber(ctx context.Context, businessNumber string) (record.Act, error) {
	const op = "act_by_business_number"
	act, err := r.store.GetActByBusinessNumber(ctx, businessNumber)
	if err != nil {
		return record.Act{}, r.mapStoreErr(op, "", 0, err)
	}
	return act, nil
}

// OverrideByID returns a single override.
func (r *Registry) OverrideByID(ctx context.Context, overrideID int64) (record.Override, error) {
	const op = "override_by_id"
	ov, err := r.store.GetOverride(ctx, overrideID)
	if err != nil {
		return record.Override{}, r.mapStoreErr(op, "", overrideID, err)
	}
	return ov, nil
}

// OverridesForAct returns every override filed against an act, oldest
// first.
func (r *Registry) OverridesForAct(ctx context.Context, actID int64) ([]record.Override, error) {
	const op = "overrides_for_act"
	ovs, err := r.store.OverridesForAct(ctx, actID)
	if err != nil {
		return nil, r.mapStoreErr(op, "", actID, err)
	}
	return ovs, nil
}

// AuditTrail returns an act's trail matching the filter, in append
// order.
func (r *Registry) AuditTrail(ctx context.Context, actID int64, filter TrailFilter) ([]record.AuditEntry, error) {
	const op = "audit_trail"
	entries, err := r.store.AuditTrail(ctx, actID, filter)
	if err != nil {
		return nil, r.mapStoreErr(op, "", actID, err)
	}
	return entries, nil
}

// VersionByCode returns a reference version.
func (r *Registry) VersionByCode(ctx context.Context, versionCode string) (record.VersionRef, error) {
	const op = "version_by_code"
	v, err := r.store.GetVersionByCode(ctx, versionCode)
	if err != nil {
		return record.VersionRef{}, r.mapStoreErr(op, "", 0, err)
	}
	return v, nil
}

// LedgerTotals returns record counts across the whole ledger.
func (r *Registry) LedgerTotals(ctx context.Context) (Totals, error) {
	const op = "ledger_totals"
	t, err := r.store.GetTotals(ctx)
	if err != nil {
		return Totals{}, r.mapStoreErr(op, "", 0, err)
	}
	return t, nil
}

// CapabilitiesOf returns the capability set held by a principal.
// Unlike the record reads this is gated: admin capability required, so
// principals cannot enumerate each other's grants.
func (r *Registry) CapabilitiesOf(ctx context.Context, caller, subject record.Principal) ([]record.Capability, error) {
	const op = "capabilities_of"
	if err := r.requireCapability(ctx, op, caller, record.CapabilityAdmin); err != nil {
		return nil, err
	}
	caps, err := r.store.Capabilities(ctx, subject)
	if err != nil {
		return nil, r.mapStoreErr(op, caller, 0, err)
	}
	return caps, nil
}
