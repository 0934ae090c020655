// Package cli implements the acteledger command line interface.
package cli

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caduceon/acteledger/internal/config"
	"github.com/caduceon/acteledger/internal/logger"
	"github.com/caduceon/acteledger/internal/metrics"
	"github.com/caduceon/acteledger/internal/record"
	"github.com/caduceon/acteledger/internal/registry"
	"github.com/caduceon/acteledger/internal/store"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	ConfigPath string
	Database   string // overrides the config file when set
	As         string // acting principal
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the acteledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "acteledger",
		Short: "Permissioned registry of medical coding acts",
		Long: `acteledger keeps a permissioned registry of coding acts with a
tamper-evident audit trail. Every mutation is attributed to a principal
and appended to a hash-chained per-act trail.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (YAML)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite database path (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.As, "as", "", "acting principal")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewActCommand(opts))
	cmd.AddCommand(NewOverrideCommand(opts))
	cmd.AddCommand(NewVersionCommand(opts))
	cmd.AddCommand(NewAuditCommand(opts))
	cmd.AddCommand(NewGrantCommand(opts))
	cmd.AddCommand(NewRevokeCommand(opts))
	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// principal returns the --as flag as a Principal, or an error when the
// flag was not given. Every command that touches the ledger needs one.
func (opts *RootOptions) principal() (record.Principal, error) {
	if opts.As == "" {
		return "", NewExitError(ExitCommandError, "--as <principal> is required")
	}
	return record.Principal(opts.As), nil
}

// session bundles the open store and registry for one command run.
type session struct {
	Config   config.Config
	Store    *store.Store
	Registry *registry.Registry
	Log      zerolog.Logger
	Metrics  *metrics.Collector
}

// Close releases the session's store.
func (s *session) Close() error {
	return s.Store.Close()
}

// openSession loads config, opens the store, and builds the registry
// with logging and metrics wired in. Callers must Close it.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "loading config", err)
		}
		cfg = loaded
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "opening database", err)
	}

	promReg := prometheus.NewRegistry()
	coll := metrics.New(promReg)

	reg, err := registry.New(cmd.Context(), st,
		registry.WithLogger(log),
		registry.WithObserver(coll),
		registry.WithEventSink(registry.LogSink{Log: log}),
	)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "opening registry", err)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
		go func() {
			if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
				log.Error().Err(err).Str("listen", cfg.Metrics.Listen).Msg("metrics endpoint failed")
			}
		}()
	}

	return &session{
		Config:   cfg,
		Store:    st,
		Registry: reg,
		Log:      log,
		Metrics:  coll,
	}, nil
}
