package cli

import (
	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command group for reference
// version management. Not to be confused with a build-version command;
// versions here are classification catalogs (CCAM v2026 and the like).
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Register and inspect reference versions",
	}

	cmd.AddCommand(newVersionRegisterCommand(rootOpts))
	cmd.AddCommand(newVersionShowCommand(rootOpts))

	return cmd
}

// VersionRegisterOptions holds flags for version register.
type VersionRegisterOptions struct {
	*RootOptions
	Name           string
	Checksum       string
	EffectiveFrom  int64
	EffectiveUntil int64
}

func newVersionRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VersionRegisterOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "register <version-code>",
		Short:         "Register a reference version",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionRegister(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "human-readable name (required)")
	cmd.Flags().StringVar(&opts.Checksum, "checksum", "", "catalog content checksum")
	cmd.Flags().Int64Var(&opts.EffectiveFrom, "effective-from", 0, "effective start (unix seconds)")
	cmd.Flags().Int64Var(&opts.EffectiveUntil, "effective-until", 0, "effective end (unix seconds, 0 = open)")

	return cmd
}

func runVersionRegister(cmd *cobra.Command, opts *VersionRegisterOptions, code string) error {
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

	versionID, err := sess.Registry.RegisterVersion(cmd.Context(), caller,
		code, opts.Name, opts.Checksum, opts.EffectiveFrom, opts.EffectiveUntil)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{
		"version_id":   versionID,
		"version_code": code,
	}, "Reference version %s registered (id %d).", code, versionID)
}

func newVersionShowCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "show <version-code>",
		Short:         "Show a reference version",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVersionShow(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runVersionShow(cmd *cobra.Command, rootOpts *RootOptions, code string) error {
	f := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	sess, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer sess.Close()

	v, err := sess.Registry.VersionByCode(cmd.Context(), code)
	if err != nil {
		return f.RenderLedgerError(err)
	}

	return f.Successf(map[string]any{"version": v},
		"Version %s (%s)\n  checksum: %s\n  active: %t, deprecated: %t",
		v.VersionCode, v.Name, v.Checksum, v.Active, v.Deprecated)
}
