package cli

import (
	"github.com/spf13/cobra"

	"github.com/caduceon/acteledger/internal/record"
)

// NewGrantCommand creates the grant command.
func NewGrantCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant <principal> <capability>",
		Short: "Grant a capability to a principal",
		Long: `Grant a capability to a principal. Requires the admin capability.

Capabilities: admin, validator, override, audit. Example:
  acteledger grant bob validator --as alice`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilityChange(cmd, rootOpts, args[0], args[1], true)
		},
	}
	return cmd
}

// NewRevokeCommand creates the revoke command.
func NewRevokeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <principal> <capability>",
		Short: "Revoke a capability from a principal",
		Long: `Revoke a capability from a principal. Requires the admin capability.

An admin may revoke their own admin capability; there is no safety net.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapabilityChange(cmd, rootOpts, args[0], args[1], false)
		},
	}
	return cmd
}

func runCapabilityChange(cmd *cobra.Command, rootOpts *RootOptions, subjectArg, capArg string, grant bool) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	caller, err := rootOpts.principal()
	if err != nil {
		return err
	}
	cap, err := record.ParseCapability(capArg)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid capability", err)
	}
	subject := record.Principal(subjectArg)

	sess, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	verb := "granted to"
	if grant {
		err = sess.Registry.Grant(cmd.Context(), caller, subject, cap)
	} else {
		verb = "revoked from"
		err = sess.Registry.Revoke(cmd.Context(), caller, subject, cap)
	}
	if err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"principal":  string(subject),
		"capability": string(cap),
		"granted":    grant,
	}, "Capability %s %s %s.", cap, verb, subject)
}
