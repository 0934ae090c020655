package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "status",
		Short:         "Show ledger totals",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, rootOpts)
		},
	}
	return cmd
}

func runStatus(cmd *cobra.Command, rootOpts *RootOptions) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	totals, err := sess.Registry.LedgerTotals(cmd.Context())
	if err != nil {
		return f.RenderLedgerError(err)
	}
	sess.Metrics.SetTotals(totals)

	return f.Successf(map[string]any{
		"acts":          totals.Acts,
		"overrides":     totals.Overrides,
		"versions":      totals.Versions,
		"audit_entries": totals.AuditEntries,
	}, "Ledger: %d acts, %d overrides, %d versions, %d audit entries.",
		totals.Acts, totals.Overrides, totals.Versions, totals.AuditEntries)
}
