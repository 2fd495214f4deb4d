package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/imadgeboyega/kiekky-weekly/internal/app"
	"github.com/imadgeboyega/kiekky-weekly/internal/config"
	"github.com/imadgeboyega/kiekky-weekly/internal/logger"
)

const appName = "matchgen"

// Actual version can be specified in build command.
var version = "unknown"

// flagEnv maps persistent flags to the environment keys config.Load reads. A flag given on the
// command line wins over the environment.
var flagEnv = map[string]string{
	"store":        "STORE_BACKEND",
	"database-url": "DATABASE_URL",
	"redis-url":    "REDIS_URL",
	"fixture":      "FIXTURE_FILE",
	"project":      "FIRESTORE_PROJECT_ID",
	"credentials":  "FIRESTORE_CREDENTIALS_FILE",
	"json":         "LOG_JSON",
	"debug":        "LOG_DEBUG",
}

type cli struct {
	v   *viper.Viper
	out io.Writer

	// newLogger is swapped in tests.
	newLogger func(json, debug bool) (*zap.Logger, error)
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New(), newLogger: logger.New}

	root := &cobra.Command{
		Use:           appName,
		Short:         "matchgen generates, validates and inspects weekly prompt matches",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			c.out = cmd.OutOrStdout()
			_ = godotenv.Load()
		},
	}

	flags := root.PersistentFlags()
	flags.String("store", "", "storage backend: postgres, firestore or memory")
	flags.String("database-url", "", "postgres connection URL")
	flags.String("redis-url", "", "redis URL for the run lock")
	flags.String("fixture", "", "YAML or JSON fixture for the memory store")
	flags.String("project", "", "firestore project id")
	flags.String("credentials", "", "firestore service account file")
	flags.BoolP("json", "j", false, "json format for logging")
	flags.BoolP("debug", "d", false, "verbose/debug output")

	for name, env := range flagEnv {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
		_ = c.v.BindEnv(name, env)
	}

	root.AddCommand(
		c.generateCmd(),
		c.validateCmd(),
		c.showCmd(),
		c.statsCmd(),
		c.revealCmd(),
		c.addMatchCmd(),
		c.migrateCmd(),
		c.tokenCmd(),
		versionCmd(),
	)
	return root
}

// config loads the environment configuration and applies flag overrides.
func (c *cli) config() (*config.Config, error) {
	cfg := config.Load()

	if c.v.IsSet("store") {
		cfg.StoreBackend = c.v.GetString("store")
	}
	if c.v.IsSet("database-url") {
		cfg.DatabaseURL = c.v.GetString("database-url")
	}
	if c.v.IsSet("redis-url") {
		cfg.RedisURL = c.v.GetString("redis-url")
	}
	if c.v.IsSet("fixture") {
		cfg.FixtureFile = c.v.GetString("fixture")
	}
	if c.v.IsSet("project") {
		cfg.FirestoreProjectID = c.v.GetString("project")
	}
	if c.v.IsSet("credentials") {
		cfg.FirestoreCredentialsFile = c.v.GetString("credentials")
	}
	if c.v.IsSet("json") {
		cfg.LogJSON = c.v.GetBool("json")
	}
	if c.v.IsSet("debug") {
		cfg.LogDebug = c.v.GetBool("debug")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withApp builds the application for one command invocation and closes it afterwards.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}

	l, err := c.newLogger(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer l.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Error("initializing application", zap.Error(err))
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func (c *cli) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", appName, version)
		},
	}
}
