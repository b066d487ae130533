package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/technosupport/foe-be-gone/internal/config"
	"github.com/technosupport/foe-be-gone/internal/effectiveness"
	"github.com/technosupport/foe-be-gone/internal/settings"
	"github.com/technosupport/foe-be-gone/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "foectl",
	Short: "Operator CLI for the foe-be-gone controller",
	Long:  "foectl inspects and tunes a running foe-be-gone controller: deterrence effectiveness, process health, and the DB-backed settings table.",
}

var opsAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&opsAddr, "ops-addr", "http://localhost:9090", "base URL of the controller's ops HTTP surface")
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(settingsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats <pest>",
	Short: "Show deterrence effectiveness for a pest kind",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		db, err := store.Open(cfg.DatabaseDSN, zerolog.Nop())
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()

		reporter := effectiveness.NewReporter(db.DB)
		summary, err := reporter.Summary(cmd.Context(), store.FoeKind(args[0]))
		if err != nil {
			return fmt.Errorf("load summary: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the controller's /healthz endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, opsAddr+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("controller unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("controller reported unhealthy status: %d", resp.StatusCode)
		}
		fmt.Println("ok")
		return nil
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read or write the DB-backed settings table",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting's current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		acc, db, err := openSettings()
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Println(acc.String(cmd.Context(), args[0]))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one setting's value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openSettings()
		if err != nil {
			return err
		}
		defer db.Close()
		repo := store.SettingsRepo{DB: db.DB}
		return repo.Set(cmd.Context(), args[0], args[1])
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func openSettings() (*settings.Accessor, *store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	db, err := store.Open(cfg.DatabaseDSN, zerolog.Nop())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return settings.New(store.SettingsRepo{DB: db.DB}), db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
