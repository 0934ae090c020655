package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
	"github.com/caduceon/acteledger/internal/testutil"
)

func TestBootstrap(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Bootstrap(ctx, admin))

	caps, err := reg.CapabilitiesOf(ctx, admin, admin)
	require.NoError(t, err)
	assert.ElementsMatch(t, record.AllCapabilities, caps)
}

func TestBootstrap_RefusedOnNonEmptyLedger(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()

	require.NoError(t, reg.Bootstrap(ctx, admin))

	err := reg.Bootstrap(ctx, stranger)
	assert.True(t, registry.IsUnauthorized(err))

	// The refused principal gained nothing.
	caps, err := reg.CapabilitiesOf(ctx, admin, stranger)
	require.NoError(t, err)
	assert.Empty(t, caps)
}

func TestGrant(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)

	require.NoError(t, reg.Grant(ctx, admin, validator, record.CapabilityValidator))

	caps, err := reg.CapabilitiesOf(ctx, admin, validator)
	require.NoError(t, err)
	assert.Equal(t, []record.Capability{record.CapabilityValidator}, caps)
}

func TestGrant_RequiresAdmin(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)
	require.NoError(t, reg.Grant(ctx, admin, validator, record.CapabilityValidator))

	err := reg.Grant(ctx, validator, stranger, record.CapabilityValidator)
	assert.True(t, registry.IsUnauthorized(err))
}

func TestGrant_AlreadyHeldEmitsNoEvent(t *testing.T) {
	sink := &registry.CollectSink{}
	reg := testutil.NewRegistry(t, registry.WithEventSink(sink))
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)

	require.NoError(t, reg.Grant(ctx, admin, validator, record.CapabilityValidator))
	sink.Reset()

	require.NoError(t, reg.Grant(ctx, admin, validator, record.CapabilityValidator))
	assert.Empty(t, sink.Events())
}

func TestRevoke(t *testing.T) {
	sink := &registry.CollectSink{}
	reg := testutil.NewRegistry(t, registry.WithEventSink(sink))
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)
	require.NoError(t, reg.Grant(ctx, admin, validator, record.CapabilityValidator))
	sink.Reset()

	require.NoError(t, reg.Revoke(ctx, admin, validator, record.CapabilityValidator))

	caps, err := reg.CapabilitiesOf(ctx, admin, validator)
	require.NoError(t, err)
	assert.Empty(t, caps)

	events := sink.Events()
	require.Len(t, events, 1)
	assert.Equal(t, record.EventCapabilityRevoked, events[0].Kind)
	assert.Equal(t, validator, events[0].Subject)

	// Revoking again is a silent no-op.
	sink.Reset()
	require.NoError(t, reg.Revoke(ctx, admin, validator, record.CapabilityValidator))
	assert.Empty(t, sink.Events())
}

func TestRevoke_AdminMayRevokeItself(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)

	require.NoError(t, reg.Revoke(ctx, admin, admin, record.CapabilityAdmin))

	// No administrator remains; further grants are refused.
	err := reg.Grant(ctx, admin, validator, record.CapabilityValidator)
	assert.True(t, registry.IsUnauthorized(err))
}

func TestRevokedCapabilityStopsWorking(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)
	require.NoError(t, reg.Grant(ctx, admin, validator, record.CapabilityValidator))

	_, err := reg.RegisterAct(ctx, validator, "NDA-2026-0001", "", "", "", "")
	require.NoError(t, err)

	require.NoError(t, reg.Revoke(ctx, admin, validator, record.CapabilityValidator))

	_, err = reg.RegisterAct(ctx, validator, "NDA-2026-0002", "", "", "", "")
	assert.True(t, registry.IsUnauthorized(err))
}

func TestCapabilitiesOf_RequiresAdmin(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, admin)
	require.NoError(t, reg.Grant(ctx, admin, auditor, record.CapabilityAudit))

	_, err := reg.CapabilitiesOf(ctx, auditor, admin)
	assert.True(t, registry.IsUnauthorized(err))
}
