package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
)

// NewAuditCommand creates the audit command group.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read and annotate audit trails",
	}

	cmd.AddCommand(newAuditShowCommand(rootOpts))
	cmd.AddCommand(newAuditNoteCommand(rootOpts))

	return cmd
}

// AuditShowOptions holds flags for audit show.
type AuditShowOptions struct {
	*RootOptions
	Action string
	Since  string
	Until  string
	Limit  int
	Offset int
}

func newAuditShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <act-id>",
		Short: "Show an act's audit trail",
		Long: `Show an act's audit trail in append order.

Filters combine with AND. Example:
  acteledger audit show 42 --as carol --action act_validated --since 2026-01-01T00:00:00Z`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditShow(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "", "only entries with this action tag")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only entries at or after this instant (RFC 3339)")
	cmd.Flags().StringVar(&opts.Until, "until", "", "only entries before this instant (RFC 3339)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size (0 = all)")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "page offset")

	return cmd
}

func runAuditShow(cmd *cobra.Command, opts *AuditShowOptions, idArg string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	actID, err := parseID(idArg)
	if err != nil {
		return err
	}

	filter := registry.TrailFilter{
		Action: opts.Action,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if opts.Since != "" {
		t, err := time.Parse(time.RFC3339, opts.Since)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --since", err)
		}
		filter.Since = t
	}
	if opts.Until != "" {
		t, err := time.Parse(time.RFC3339, opts.Until)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --until", err)
		}
		filter.Until = t
	}

	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	entries, err := sess.Registry.AuditTrail(cmd.Context(), actID, filter)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	if opts.Format == "json" {
		return f.Success(map[string]any{
			"act_id":  actID,
			"entries": entries,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Audit trail for act %d (%d entries)\n", actID, len(entries))
	for _, e := range entries {
		fmt.Fprintf(&b, "  seq %d  %s  %s  by %s\n",
			e.Seq, e.Timestamp.Format(time.RFC3339), e.Action, e.Actor)
		for _, k := range e.NewValues.SortedKeys() {
			fmt.Fprintf(&b, "      %s: %v\n", k, e.NewValues[k])
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), b.String())
	return nil
}

// AuditNoteOptions holds flags for audit note.
type AuditNoteOptions struct {
	*RootOptions
	Action string
	Fields []string
}

func newAuditNoteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuditNoteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "note <act-id>",
		Short: "Append a manual annotation to an act's trail",
		Long: `Append a manual annotation to an act's trail.

Fields are key=value pairs recorded in the entry's new values.
Example:
  acteledger audit note 42 --as carol --action manual_review --field reviewer=carol --field outcome=ok`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuditNote(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Action, "action", "annotation", "action tag for the entry")
	cmd.Flags().StringArrayVar(&opts.Fields, "field", nil, "key=value pair, repeatable")

	return cmd
}

func runAuditNote(cmd *cobra.Command, opts *AuditNoteOptions, idArg string) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	caller, err := opts.principal()
	if err != nil {
		return err
	}
	actID, err := parseID(idArg)
	if err != nil {
		return err
	}

	values := record.Snapshot{}
	for _, pair := range opts.Fields {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return NewExitError(ExitCommandError, fmt.Sprintf("--field %q: expected key=value", pair))
		}
		values[k] = record.StringValue(v)
	}

	sess, err := openSession(cmd, opts.RootOptions)
	if err != nil {
		return err
	}
	defer sess.Close()

	auditID, err := sess.Registry.AppendAuditEntry(cmd.Context(), caller, actID,
		opts.Action, record.EntityAct, actID, record.Snapshot{}, values)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"audit_id": auditID,
		"act_id":   actID,
		"action":   opts.Action,
	}, "Annotation %d appended to act %d.", auditID, actID)
}
