package cli

import (
	"github.com/spf13/cobra"
)

// NewOverrideCommand creates the override command group.
func NewOverrideCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "File and approve code overrides",
	}

	cmd.AddCommand(newOverrideCreateCommand(rootOpts))
	cmd.AddCommand(newOverrideApproveCommand(rootOpts))
	cmd.AddCommand(newOverrideShowCommand(rootOpts))

	return cmd
}

// OverrideCreateOptions holds flags for override create.
type OverrideCreateOptions struct {
	*RootOptions
	OriginalCode  string
	OverrideCode  string
	Justification string
	Signature     string
}

func newOverrideCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OverrideCreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <act-id>",
		Short: "File an override against a pending act",
		Long: `File an override proposing a replacement code for a pending act.

The override takes effect only when a validator approves it; approval
rewrites the act's code even if the act closed in the meantime.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideCreate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.OriginalCode, "original-code", "", "code being overridden")
	cmd.Flags().StringVar(&opts.OverrideCode, "override-code", "", "replacement code")
	cmd.Flags().StringVar(&opts.Justification, "justification", "", "override justification")
	cmd.Flags().StringVar(&opts.Signature, "signature", "", "author signature token")

	return cmd
}

func runOverrideCreate(cmd *cobra.Command, opts *OverrideCreateOptions, idArg string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	caller, err := opts.principal()
	if err != nil {
		return err
	}
	actID, err := parseID(idArg)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	overrideID, err := sess.Registry.CreateOverride(cmd.Context(), caller, actID,
		opts.OriginalCode, opts.OverrideCode, opts.Justification, opts.Signature)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"override_id":   overrideID,
		"act_id":        actID,
		"override_code": opts.OverrideCode,
	}, "Override %d filed against act %d.", overrideID, actID)
}

func newOverrideApproveCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "approve <override-id>",
		Short:         "Approve an override, rewriting the act's code",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideApprove(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runOverrideApprove(cmd *cobra.Command, rootOpts *RootOptions, idArg string) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	caller, err := rootOpts.principal()
	if err != nil {
		return err
	}
	overrideID, err := parseID(idArg)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Registry.ApproveOverride(cmd.Context(), caller, overrideID); err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"override_id": overrideID,
		"approved":    true,
	}, "Override %d approved.", overrideID)
}

func newOverrideShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <override-id>",
		Short:         "Show an override",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOverrideShow(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runOverrideShow(cmd *cobra.Command, rootOpts *RootOptions, idArg string) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	overrideID, err := parseID(idArg)
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	ov, err := sess.Registry.OverrideByID(cmd.Context(), overrideID)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	status := "awaiting approval"
	if ov.Approved {
		status = "approved by " + string(ov.ApprovedBy)
	}
	return f.Successf(map[string]any{"override": ov},
		"Override %d on act %d: %s -> %s (%s)",
		ov.ID, ov.ActID, ov.OriginalCode, ov.OverrideCode, status)
}
