package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the audit trails' hash chains",
		Long: `Recompute every audit entry hash and check the per-act chains.

Exit code 0 when all trails are intact, 1 when any fault is found.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, rootOpts)
		},
	}
	return cmd
}

func runVerify(cmd *cobra.Command, rootOpts *RootOptions) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	caller, err := rootOpts.principal()
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	rep, err := sess.Registry.VerifyChains(cmd.Context(), caller)
	if err != nil {
		return f.RenderLedgerError(err)
	}
	sess.Metrics.RecordChainFaults(len(rep.Faults))

	if rep.OK() {
		return f.Successf(map[string]any{
			"acts_checked":    rep.ActsChecked,
			"entries_checked": rep.EntriesChecked,
			"faults":          []string{},
		}, "OK: %d acts, %d entries, all chains intact.", rep.ActsChecked, rep.EntriesChecked)
	}

	if rootOpts.Format == "json" {
		if err := f.Success(map[string]any{
			"acts_checked":    rep.ActsChecked,
			"entries_checked": rep.EntriesChecked,
			"faults":          rep.Faults,
		}); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "FAIL: %d fault(s) in %d entries\n", len(rep.Faults), rep.EntriesChecked)
		for _, fault := range rep.Faults {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fault)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d chain fault(s) found", len(rep.Faults)))
}
