// Command mgmctl administers an MGM data store directly: backups, reset,
// commission rates, lookups and password hashes for the login roles.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mgm-veiculos/mgm-api-go/internal/app"
	"github.com/mgm-veiculos/mgm-api-go/internal/config"
	"github.com/mgm-veiculos/mgm-api-go/internal/infra/observability"
)

func main() {
	_ = config.LoadDotEnv(".env")

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cli carries what every subcommand shares.
type cli struct {
	v *viper.Viper
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "mgmctl",
		Short:         "Administer the MGM vehicle store",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `mgmctl works directly on the configured data backend.

Settings come from, highest first:
  1. flags
  2. environment variables (same names the server reads, e.g. DATA_BACKEND)
  3. the YAML file given with --config
  4. built-in defaults`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.loadConfigFile(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "YAML config file")
	flags.String("data-backend", "", "sqlite, memory, supabase or redis")
	flags.String("sqlite-path", "", "SQLite database file")
	flags.String("log-level", "error", "log level written to stderr")

	root.AddCommand(
		c.newBackupCmd(),
		c.newRatesCmd(),
		c.newSearchCmd(),
		newHashPasswordCmd(),
	)
	return root
}

func (c *cli) loadConfigFile(cmd *cobra.Command) error {
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	c.v.AutomaticEnv()

	for flag, key := range map[string]string{
		"data-backend": "DATA_BACKEND",
		"sqlite-path":  "SQLITE_PATH",
		"log-level":    "LOG_LEVEL",
	} {
		if err := c.v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}
	c.v.SetConfigFile(path)
	c.v.SetConfigType("yaml")
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// open builds the application graph over the configured store.
func (c *cli) open(ctx context.Context) (*app.App, error) {
	cfg := config.LoadWith(c.v.GetString)
	logger := observability.NewLogger(cfg.LogLevel)
	return app.New(ctx, cfg, logger)
}

// withApp runs fn and always releases the stores.
func (c *cli) withApp(ctx context.Context, fn func(*app.App) error) (err error) {
	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.Close())
	}()
	return fn(a)
}
