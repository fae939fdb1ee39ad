package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/grndstats/backend/internal/infrastructure/config"
	"github.com/grndstats/backend/internal/infrastructure/logger"
	"github.com/grndstats/backend/internal/infrastructure/migration"
)

var errUsage = errors.New("usage")

type command struct {
	args  int
	usage string
	run   func(m *migration.Migrator, log *zap.Logger, args []string) error
}

var commands = map[string]command{
	"up": {
		usage: "up                    Apply all pending migrations",
		run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
			return m.Up()
		},
	},
	"down": {
		usage: "down                  Roll back every cache schema migration",
		run: func(m *migration.Migrator, _ *zap.Logger, _ []string) error {
			return m.Down()
		},
	},
	"step": {
		args:  1,
		usage: "step <n>              Apply n migrations (negative n rolls back)",
		run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid step count %q", args[0])
			}
			return m.Steps(n)
		},
	},
	"version": {
		usage: "version               Print the applied schema version",
		run: func(m *migration.Migrator, log *zap.Logger, _ []string) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			if version == 0 {
				log.Info("Cache schema has no migrations applied")
				return nil
			}
			log.Info("Cache schema version", zap.Uint("version", version), zap.Bool("dirty", dirty))
			return nil
		},
	},
	"force": {
		args:  1,
		usage: "force <version>       Mark version as applied without running it",
		run: func(m *migration.Migrator, _ *zap.Logger, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return m.Force(version)
		},
	},
}

var commandOrder = []string{"up", "down", "step", "version", "force"}

func main() {
	configPath := flag.String("config", "", "Path to config.toml (default: search ., ./config, /app)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	if err := run(*configPath, *logLevel, flag.Args()); err != nil {
		if errors.Is(err, errUsage) {
			printUsage()
		} else {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(configPath, logLevel string, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 < cmd.args {
		return errUsage
	}

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("database driver %q is migrated automatically; this tool only serves postgres", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database %s/%s: %w", cfg.Database.Host, cfg.Database.DBName, err)
	}

	m, err := migration.New(db, log)
	if err != nil {
		return err
	}
	defer m.Close()

	log.Info("Running cache schema migration",
		zap.String("command", args[0]),
		zap.String("database", cfg.Database.DBName),
	)
	return cmd.run(m, log, args[1:])
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Cache schema migrations for the postgres cache backend")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage:\n  migrate [flags] <command> [arguments]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, name := range commandOrder {
		fmt.Fprintf(os.Stderr, "  %s\n", commands[name].usage)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Flags:")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Database settings come from config.toml or GRND_DATABASE_HOST, GRND_DATABASE_PORT,")
	fmt.Fprintln(os.Stderr, "GRND_DATABASE_USER, GRND_DATABASE_PASSWORD, GRND_DATABASE_DBNAME and GRND_DATABASE_SSLMODE.")
}
