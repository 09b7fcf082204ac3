// Command catalogctl manages the movie catalog from a shell.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"kinotut-bot/internal/catalog"
	"kinotut-bot/internal/config"
	"kinotut-bot/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries the store opened by the root command for its subcommands.
type cli struct {
	dbPath  string
	timeout time.Duration

	store   storage.Backend
	catalog *catalog.Catalog
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:   "catalogctl",
		Short: "Manage the movie catalog",
		Long: `Manage the movie catalog the bot serves.

Storage settings come from .env, CONFIG_FILE and the environment, the same
way the bot reads them. --db forces the file backend at the given path.`,
		SilenceUsage:      true,
		PersistentPreRunE: c.open,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return c.store.Close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "catalog file (forces the file backend)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 30*time.Second, "storage connect timeout")

	root.AddCommand(
		c.initCmd(),
		c.importCmd(),
		c.addGenreCmd(),
		c.deleteCmd(),
		c.searchCmd(),
		c.topCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadStorage()
	if err != nil {
		return err
	}
	if c.dbPath != "" {
		cfg.StorageDriver = "file"
		cfg.DBPath = c.dbPath
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}
	c.store = store
	c.catalog = catalog.New(store)
	return nil
}
