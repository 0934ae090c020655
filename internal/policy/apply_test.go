package policy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caduceon/acteledger/internal/policy"
	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
	"github.com/caduceon/acteledger/internal/testutil"
)

func TestApply(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, "operator")

	p := &policy.Policy{
		Grants: []policy.GrantRule{
			{Principal: "bob", Capabilities: []record.Capability{record.CapabilityValidator}},
			{Principal: "carol", Capabilities: []record.Capability{record.CapabilityAudit, record.CapabilityOverride}},
		},
		Versions: []policy.VersionSeed{
			{VersionCode: "v2026", Name: "CCAM v2026", Checksum: "sha256:abc"},
		},
	}
	require.NoError(t, policy.Apply(ctx, reg, "operator", p))

	caps, err := reg.CapabilitiesOf(ctx, "operator", "carol")
	require.NoError(t, err)
	assert.ElementsMatch(t, []record.Capability{record.CapabilityAudit, record.CapabilityOverride}, caps)

	v, err := reg.VersionByCode(ctx, "v2026")
	require.NoError(t, err)
	assert.Equal(t, "CCAM v2026", v.Name)
}

func TestApply_Rerun(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, "operator")

	p := &policy.Policy{
		Grants: []policy.GrantRule{
			{Principal: "bob", Capabilities: []record.Capability{record.CapabilityValidator}},
		},
		Versions: []policy.VersionSeed{
			{VersionCode: "v2026", Name: "CCAM v2026"},
		},
	}
	require.NoError(t, policy.Apply(ctx, reg, "operator", p))

	// Second run converges: held grants and registered versions are
	// skipped, not errors.
	require.NoError(t, policy.Apply(ctx, reg, "operator", p))
}

func TestApply_OperatorWithoutAdmin(t *testing.T) {
	reg := testutil.NewRegistry(t)
	ctx := context.Background()
	testutil.Bootstrap(t, reg, "operator")

	p := &policy.Policy{
		Grants: []policy.GrantRule{
			{Principal: "bob", Capabilities: []record.Capability{record.CapabilityValidator}},
		},
	}
	err := policy.Apply(ctx, reg, "mallory", p)
	require.Error(t, err)
	assert.True(t, registry.IsUnauthorized(err))
}
