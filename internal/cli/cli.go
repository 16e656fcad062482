package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lovecontract/internal/config"
	"github.com/matzehuels/lovecontract/internal/storeopen"
	"github.com/matzehuels/lovecontract/pkg/buildinfo"
	"github.com/matzehuels/lovecontract/pkg/session"
	"github.com/matzehuels/lovecontract/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "lovecontract"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag. Empty means the default location.
	ConfigPath string

	// Config is loaded before any subcommand runs.
	Config config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "A contract of love, signed by two",
		Long: `lovecontract keeps a two-party Valentine's contract: each party draws a
signature, the envelope is opened, and the proposal is accepted.

The contract is stored in the configured backend (sqlite by default) and can
be served over HTTP, signed from the terminal or exported as a printable page.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/lovecontract/config.toml)")

	root.AddCommand(c.serveCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.signCommand())
	root.AddCommand(c.clearCommand())
	root.AddCommand(c.acceptCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.openCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// LoadConfig reads the configuration. verbose forces debug logging; without
// it the configured level applies.
func (c *CLI) LoadConfig(verbose bool) error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if verbose {
		c.SetLogLevel(LogDebug)
		return nil
	}
	level, _ := cfg.Log.ParseLevel()
	c.SetLogLevel(level)
	return nil
}

// =============================================================================
// Store and Session Factories
// =============================================================================

// openStore connects the configured backend.
func (c *CLI) openStore(ctx context.Context) (store.Store, error) {
	c.Logger.Debug("opening store", "driver", c.Config.Store.Driver)
	return storeopen.Open(ctx, c.Config.Store)
}

// sessionOptions maps the session config onto coordinator options.
func (c *CLI) sessionOptions() []session.Option {
	opts := []session.Option{
		session.WithLogger(c.Logger),
		session.WithKey(c.Config.Store.Key),
		session.WithDelays(c.Config.Session.EnvelopeDelay, c.Config.Session.CelebrationDuration),
	}
	if c.Config.Session.Rollback {
		opts = append(opts, session.WithRollback())
	}
	return opts
}

// openSession opens the store and a coordinator over it with the stored
// record loaded. The returned func closes both.
func (c *CLI) openSession(ctx context.Context) (*session.Coordinator, func(), error) {
	st, err := c.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	coord := session.New(st, c.sessionOptions()...)
	closeAll := func() {
		_ = coord.Close()
		_ = st.Close()
	}
	if err := coord.Load(ctx); err != nil {
		closeAll()
		return nil, nil, err
	}
	return coord, closeAll, nil
}
