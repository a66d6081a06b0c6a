package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mailsignal/dmarclens/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the resolution cache",
}

var cachePingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the cache service is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := cache.NewRedisStore(cfg.Redis)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("cache unreachable: %w", err)
		}
		color.Green("✓ cache reachable at %s", cfg.Redis.Addr)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <pattern>",
	Short: "Delete cached entries matching a glob pattern",
	Long: `Delete cached entries matching a glob pattern, e.g. 'geo:*' or
'hostname:203.0.113.*'. Cleared IPs are re-resolved on next lookup.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := cache.NewRedisStore(cfg.Redis)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		deleted, err := store.Clear(ctx, args[0])
		if err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}
		fmt.Printf("Deleted %d key(s) matching %q\n", deleted, args[0])
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePingCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
