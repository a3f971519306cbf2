package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stylescan/stylescan/internal/history"
	"github.com/stylescan/stylescan/internal/logger"
	"github.com/stylescan/stylescan/internal/rules"
	"github.com/stylescan/stylescan/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scan API",
	Long: `Run an HTTP server exposing the scanner as an API.

Endpoints:
  GET  /api/v1/health   liveness check
  POST /api/v1/scan     scan a single file's content
  GET  /api/v1/rules    list the active rules
  GET  /api/v1/runs     list recent scan runs
  GET  /metrics         Prometheus metrics

Authentication is enabled by setting server.token_hash in the config
to a bcrypt hash of the bearer token. Generate one with --hash-token.

Examples:
  # Serve on the configured address
  stylescan serve

  # Serve on a specific address
  stylescan serve --addr :9090

  # Print the bcrypt hash for an API token
  stylescan serve --hash-token s3cret`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().String("hash-token", "", "Print the bcrypt hash of a token and exit")
	serveCmd.Flags().Bool("no-history", false, "Serve without the history database")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Token hashing is a helper mode, no server involved
	if token, _ := cmd.Flags().GetString("hash-token"); token != "" {
		hash, err := server.HashToken(token)
		if err != nil {
			return fmt.Errorf("hashing token: %w", err)
		}
		fmt.Println(hash)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr, _ = cmd.Flags().GetString("addr")
	}

	set, err := rules.Resolve(rules.ResolveOptions{
		Preset:     cfg.Rules.Preset,
		CustomFile: cfg.Rules.CustomFile,
		Enable:     cfg.Rules.Enabled,
		Disable:    cfg.Rules.Disabled,
	})
	if err != nil {
		return fmt.Errorf("resolving rules: %w", err)
	}

	// The runs endpoint needs the history store; everything else works
	// without it, so a broken database only degrades the API.
	var store *history.Store
	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory && cfg.History.Enabled {
		store, err = history.NewStore(history.StoreConfig{Path: cfg.History.Path})
		if err != nil {
			logger.Warn("history disabled: %v", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	srv := server.New(cfg.Server, set, store, Version)
	return srv.ListenAndServe(context.Background())
}
