package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/config"
	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
	"github.com/Istiyak4099/Airdrop/services"
)

// Version is set at build time.
var Version = "0.1.0"

// app holds what the store-backed commands need. It is opened lazily so the
// webhook helpers work without any database configured.
type app struct {
	verbose bool

	cfg      *config.Config
	log      *slog.Logger
	store    db.Store
	cache    *cache.Cache
	pages    *services.PageService
	profiles *services.ProfileService
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "airdropctl",
		Short: "Manage the Airdrop Messenger auto-responder",
		Long: `airdropctl manages the data the Airdrop webhook reads: connected page
credentials and business profiles. It also signs and sends webhook payloads
for local testing.

Storage and cache settings are read from the same environment variables
(or .env file) as the server.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close(cmd.Context())
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newPageCmd(a))
	root.AddCommand(newProfileCmd(a))
	root.AddCommand(newWebhookCmd())
	return root
}

// open connects to the configured store and builds the services.
func (a *app) open(ctx context.Context) error {
	if a.store != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.verbose {
		cfg.Log.Level = slog.LevelDebug
	} else {
		cfg.Log.Level = slog.LevelWarn
	}
	cfg.Log.File = ""
	log, _ := logger.Setup(cfg.Log)

	store, err := db.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.store = store
	a.cache = cache.New(ctx, cfg.Redis, log)
	a.pages = services.NewPageService(store, a.cache, log)
	a.profiles = services.NewProfileService(store, a.cache, log)
	return nil
}

func (a *app) close(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.log.Warn("failed to close store", "error", err)
		}
		a.store = nil
	}
	if a.cache != nil {
		_ = a.cache.Close()
		a.cache = nil
	}
}
