// Package commands implements the grndctl commands.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/bootstrap"
	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/logger"
)

// ConfigLoader loads the configuration from path; an empty path searches the
// default locations
type ConfigLoader func(path string) (*config.Config, error)

// AppBuilder assembles the application for a loaded configuration
type AppBuilder func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*bootstrap.App, error)

// CLI represents the grndctl command line interface
type CLI struct {
	rootCmd    *cobra.Command
	loadConfig ConfigLoader
	buildApp   AppBuilder

	cfg *config.Config
	log *zap.Logger
	app *bootstrap.App
}

// Option configures a CLI
type Option func(*CLI)

// WithConfigLoader replaces config.LoadFrom
func WithConfigLoader(fn ConfigLoader) Option {
	return func(c *CLI) {
		c.loadConfig = fn
	}
}

// WithAppBuilder replaces bootstrap.New
func WithAppBuilder(fn AppBuilder) Option {
	return func(c *CLI) {
		c.buildApp = fn
	}
}

// New creates the CLI with every command registered
func New(opts ...Option) *CLI {
	c := &CLI{
		loadConfig: config.LoadFrom,
		buildApp: func(ctx context.Context, cfg *config.Config, log *zap.Logger) (*bootstrap.App, error) {
			return bootstrap.New(ctx, cfg, log)
		},
	}
	for _, opt := range opts {
		opt(c)
	}

	rootCmd := &cobra.Command{
		Use:           "grndctl",
		Short:         "Operate the GRND stats service caches and lookups",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return c.teardown()
		},
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config.toml (default: search ., ./config, /app)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")

	c.rootCmd = rootCmd
	rootCmd.AddCommand(c.newResolveCmd())
	rootCmd.AddCommand(c.newMatchCmd())
	rootCmd.AddCommand(c.newLeaderboardCmd())
	rootCmd.AddCommand(c.newAccountCmd())
	rootCmd.AddCommand(c.newCacheCmd())
	rootCmd.AddCommand(c.newTokenCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if err != nil && c.app != nil {
		// PersistentPostRunE is skipped when RunE fails
		_ = c.teardown()
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOut redirects command output. Used for testing.
func (c *CLI) SetOut(w io.Writer) {
	c.rootCmd.SetOut(w)
	c.rootCmd.SetErr(w)
}

func (c *CLI) setup(cmd *cobra.Command) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	c.cfg, err = c.loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	c.log, err = logger.New(logger.Config{Level: level, Format: "console", Output: "stderr"})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	return nil
}

func (c *CLI) teardown() error {
	if c.log != nil {
		_ = c.log.Sync()
	}
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// application builds the service graph on first use so commands that only
// need the configuration skip provider validation
func (c *CLI) application(ctx context.Context) (*bootstrap.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	if c.cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	app, err := c.buildApp(ctx, c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	c.app = app
	return app, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
