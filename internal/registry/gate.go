package registry

import (
	"context"
	"fmt"

	"github.com/caduceon/acteledger/internal/record"
)

// requireCapability checks that the principal holds the capability.
// Every mutating operation calls this before touching any state.
// Record reads never do; the exceptions are CapabilitiesOf (admin) and
// VerifyChains (audit).
func (r *Registry) requireCapability(ctx context.Context, op string, principal record.Principal, cap record.Capability) error {
	held, err := r.store.HasCapability(ctx, principal, cap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !held {
		return &OpError{
			Code:      ErrCodeUnauthorized,
			Message:   fmt.Sprintf("requires %s capability", cap),
			Op:        op,
			Principal: string(principal),
		}
	}
	return nil
}

// Grant gives a capability to a principal. Requires the admin
// capability. Granting a capability the subject already holds is a
// no-op and emits no event.
func (r *Registry) Grant(ctx context.Context, caller, subject record.Principal, cap record.Capability) error {
	const op = "grant_capability"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityAdmin); err != nil {
		return err
	}

	granted, err := r.store.GrantCapability(ctx, subject, cap, caller, r.now())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !granted {
		return nil
	}

	r.log.Info().
		Str("op", op).
		Str("caller", string(caller)).
		Str("subject", string(subject)).
		Str("capability", string(cap)).
		Msg("capability granted")

	r.emit(record.Event{
		Kind:       record.EventCapabilityGranted,
		Seq:        r.clock.Next(),
		Timestamp:  r.now(),
		Actor:      caller,
		Subject:    subject,
		Capability: cap,
	})
	return nil
}

// Revoke removes a capability from a principal. Requires the admin
// capability. Revoking a capability the subject does not hold is a
// no-op and emits no event.
//
// There is no self-protection: an admin may revoke its own admin
// capability, leaving the ledger without an administrator. Operators
// who lock themselves out recover by bootstrapping a fresh ledger.
func (r *Registry) Revoke(ctx context.Context, caller, subject record.Principal, cap record.Capability) error {
	const op = "revoke_capability"

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.requireCapability(ctx, op, caller, record.CapabilityAdmin); err != nil {
		return err
	}

	removed, err := r.store.RevokeCapability(ctx, subject, cap)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !removed {
		return nil
	}

	r.log.Info().
		Str("op", op).
		Str("caller", string(caller)).
		Str("subject", string(subject)).
		Str("capability", string(cap)).
		Msg("capability revoked")

	r.emit(record.Event{
		Kind:       record.EventCapabilityRevoked,
		Seq:        r.clock.Next(),
		Timestamp:  r.now(),
		Actor:      caller,
		Subject:    subject,
		Capability: cap,
	})
	return nil
}

// Bootstrap grants all four capabilities to the given principal.
// Allowed only while no grants exist at all; afterwards capability
// administration goes through Grant/Revoke under the admin gate.
func (r *Registry) Bootstrap(ctx context.Context, principal record.Principal) error {
	const op = "bootstrap"

	r.mu.Lock()
	defer r.mu.Unlock()

	// Refuse to bootstrap a ledger that already has grants.
	total, err := r.store.GrantCount(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if total > 0 {
		return &OpError{
			Code:    ErrCodeUnauthorized,
			Message: "ledger already bootstrapped",
			Op:      op,
		}
	}

	for _, cap := range record.AllCapabilities {
		if _, err := r.store.GrantCapability(ctx, principal, cap, principal, r.now()); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	r.log.Info().
		Str("op", op).
		Str("principal", string(principal)).
		Msg("bootstrap principal granted all capabilities")

	return nil
}
