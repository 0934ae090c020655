package cli

import (
	"github.com/spf13/cobra"

	"github.com/caduceon/acteledger/internal/policy"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	PolicyDir string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a ledger and bootstrap the first principal",
		Long: `Create the database, grant the acting principal every capability,
and apply the bootstrap policy when one is configured.

Init refuses to run against a ledger that already has capability
grants. Example:

  acteledger init --as alice --db ledger.db --policy ./policy`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.PolicyDir, "policy", "", "bootstrap policy directory (CUE, overrides config)")

	return cmd
}

func runInit(cmd *cobra.Command, opts *InitOptions) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	operator, err := opts.principal()
	if err != nil {
		return err
	}

	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Registry.Bootstrap(cmd.Context(), operator); err != nil {
		return f.RenderLedgerError(err)
	}
	f.VerboseLog("bootstrapped %s with all capabilities", operator)

	policyDir := opts.PolicyDir
	if policyDir == "" {
		policyDir = sess.Config.PolicyDir
	}
	if policyDir != "" {
		pol, err := policy.Load(policyDir)
		if err != nil {
			return WrapExitError(ExitCommandError, "loading policy", err)
		}
		if err := policy.Apply(cmd.Context(), sess.Registry, operator, pol); err != nil {
			return f.RenderLedgerError(err)
		}
		f.VerboseLog("applied policy: %d grant rules, %d versions", len(pol.Grants), len(pol.Versions))
	}

	return f.Successf(map[string]any{
		"database":  sess.Config.Database,
		"principal": string(operator),
	}, "Ledger initialized at %s. Principal %s holds all capabilities.", sess.Config.Database, operator)
}
