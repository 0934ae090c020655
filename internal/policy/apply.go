package policy

import (
	"context"
	"fmt"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
)

// Apply replays a policy onto the registry as the given operator.
// The operator must already hold the admin capability for grants and
// the validator capability for versions; init bootstraps the operator
// with the full set before calling this.
//
// Apply is not atomic across rules. A failing rule leaves earlier
// rules applied and returns the failure; grants are idempotent, so
// re-running a corrected policy converges.
func Apply(ctx context.Context, reg *registry.Registry, operator record.Principal, p *Policy) error {
	for _, rule := range p.Grants {
		for _, cap := range rule.Capabilities {
			if err := reg.Grant(ctx, operator, rule.Principal, cap); err != nil {
				return fmt.Errorf("apply policy: grant %s to %s: %w", cap, rule.Principal, err)
			}
		}
	}

	for _, seed := range p.Versions {
		_, err := reg.RegisterVersion(ctx, operator, seed.VersionCode, seed.Name, seed.Checksum, seed.EffectiveFrom, seed.EffectiveUntil)
		if err != nil {
			if registry.CodeOf(err) == registry.ErrCodeDuplicateVersion {
				continue
			}
			return fmt.Errorf("apply policy: version %s: %w", seed.VersionCode, err)
		}
	}

	return nil
}
