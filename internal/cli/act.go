package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/caduceon/acteledger/internal/record"
)

// NewActCommand creates the act command group.
func NewActCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "act",
		Short: "Register, validate, reject and inspect coding acts",
	}

	cmd.AddCommand(newActRegisterCommand(rootOpts))
	cmd.AddCommand(newActValidateCommand(rootOpts))
	cmd.AddCommand(newActRejectCommand(rootOpts))
	cmd.AddCommand(newActShowCommand(rootOpts))

	return cmd
}

// ActRegisterOptions holds flags for act register.
type ActRegisterOptions struct {
	*RootOptions
	BusinessNumber string
	Subject        string
	Code           string
	Version        string
	Justification  string
}

func newActRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActRegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a coding act in the pending state",
		Long: `Register a coding act in the pending state.

Example:
  acteledger act register --as alice \
    --business-number NDA-2026-0142 --subject patient-7731 \
    --code HBQK002 --version v2026 --justification "initial coding"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActRegister(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.BusinessNumber, "business-number", "", "unique business number (required)")
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "opaque subject reference")
	cmd.Flags().StringVar(&opts.Code, "code", "", "suggested classification code")
	cmd.Flags().StringVar(&opts.Version, "version", "", "reference version code")
	cmd.Flags().StringVar(&opts.Justification, "justification", "", "free-text justification")

	return cmd
}

func runActRegister(cmd *cobra.Command, opts *ActRegisterOptions) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	caller, err := opts.principal()
	if err != nil {
		return err
	}
	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	actID, err := sess.Registry.RegisterAct(cmd.Context(), caller,
		opts.BusinessNumber, opts.Subject, opts.Code, opts.Version, opts.Justification)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"act_id":          actID,
		"business_number": opts.BusinessNumber,
		"state":           string(record.StatePending),
	}, "Act %d registered (pending).", actID)
}

// ActValidateOptions holds flags for act validate.
type ActValidateOptions struct {
	*RootOptions
	Code          string
	Justification string
}

func newActValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "validate <act-id>",
		Short:         "Close a pending act as validated",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActValidate(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Code, "code", "", "final classification code")
	cmd.Flags().StringVar(&opts.Justification, "justification", "", "validation justification")

	return cmd
}

func runActValidate(cmd *cobra.Command, opts *ActValidateOptions, idArg string) error {
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

	if err := sess.Registry.ValidateAct(cmd.Context(), caller, actID, opts.Code, opts.Justification); err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"act_id": actID,
		"state":  string(record.StateValidated),
		"code":   opts.Code,
	}, "Act %d validated with code %s.", actID, opts.Code)
}

// ActRejectOptions holds flags for act reject.
type ActRejectOptions struct {
	*RootOptions
	Reason string
}

func newActRejectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActRejectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "reject <act-id>",
		Short:         "Close a pending act as rejected",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runActReject(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Reason, "reason", "", "rejection reason")

	return cmd
}

func runActReject(cmd *cobra.Command, opts *ActRejectOptions, idArg string) error {
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

	if err := sess.Registry.RejectAct(cmd.Context(), caller, actID, opts.Reason); err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"act_id": actID,
		"state":  string(record.StateRejected),
	}, "Act %d rejected.", actID)
}

// ActShowOptions holds flags for act show.
type ActShowOptions struct {
	*RootOptions
	BusinessNumber string
	WithOverrides  bool
}

func newActShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ActShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "show [act-id]",
		Short:         "Show an act by id or business number",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			idArg := ""
			if len(args) == 1 {
				idArg = args[0]
			}
			return runActShow(cmd, opts, idArg)
		},
	}

	cmd.Flags().StringVar(&opts.BusinessNumber, "business-number", "", "look up by business number instead of id")
	cmd.Flags().BoolVar(&opts.WithOverrides, "overrides", false, "include overrides filed against the act")

	return cmd
}

func runActShow(cmd *cobra.Command, opts *ActShowOptions, idArg string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	var act record.Act
	switch {
	case opts.BusinessNumber != "":
		act, err = sess.Registry.ActByBusinessNumber(cmd.Context(), opts.BusinessNumber)
	case idArg != "":
		var actID int64
		actID, err = parseID(idArg)
		if err != nil {
			return err
		}
		act, err = sess.Registry.ActByID(cmd.Context(), actID)
	default:
		return NewExitError(ExitCommandError, "an act id or --business-number is required")
	}
	if err != nil {
		return f.RenderLedgerError(err)
	}

	payload := map[string]any{"act": act}
	if opts.WithOverrides {
		overrides, err := sess.Registry.OverridesForAct(cmd.Context(), act.ID)
		if err != nil {
			return f.RenderLedgerError(err)
		}
		payload["overrides"] = overrides
	}

	return f.Successf(payload,
		"Act %d  %s\n  state: %s\n  code: %s (version %s)\n  author: %s",
		act.ID, act.BusinessNumber, act.State, act.SuggestedCode, act.ReferenceVersion, act.Author)
}

// parseID parses a positive decimal id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, "id must be a positive integer")
	}
	return id, nil
}
