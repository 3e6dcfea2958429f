// main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/config"
	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/handlers"
	"github.com/Istiyak4099/Airdrop/pkg/ai"
	"github.com/Istiyak4099/Airdrop/pkg/facebook"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
	"github.com/Istiyak4099/Airdrop/pkg/worker"
	"github.com/Istiyak4099/Airdrop/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, closeLog := logger.Setup(cfg.Log)
	defer closeLog()
	slog.SetDefault(log)

	log.Info("starting airdrop",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model)

	if cfg.Facebook.AppSecret == "" {
		log.Warn("FACEBOOK_APP_SECRET is not set; webhook events will be rejected")
	}
	if cfg.Facebook.VerifyToken == "" {
		log.Warn("FACEBOOK_VERIFY_TOKEN is not set; webhook verification will fail")
	}
	if cfg.Admin.APIKey == "" {
		log.Warn("ADMIN_API_KEY is not set; admin API is disabled")
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.Open(startCtx, cfg.Storage, log)
	if err != nil {
		return err
	}
	rc := cache.New(startCtx, cfg.Redis, log)

	model, err := ai.NewModel(startCtx, cfg.LLM)
	if err != nil {
		return err
	}

	pages := services.NewPageService(store, rc, log)
	profiles := services.NewProfileService(store, rc, log)
	conversations := services.NewConversationService(store, log)
	assembler := services.NewContextAssembler(profiles, conversations, services.DefaultHistoryLimit)
	graph := facebook.NewClient(cfg.Facebook.GraphURL, cfg.Facebook.GraphVersion, cfg.Facebook.Timeout, log)

	processor := services.NewProcessor(services.ProcessorConfig{
		Pages:         pages,
		Conversations: conversations,
		Assembler:     assembler,
		Replier:       ai.NewReplyGenerator(model, log),
		Messenger:     graph,
		Cache:         rc,
		Logger:        log,
		FetchNames:    cfg.Facebook.FetchCustomerNames,
	})
	pool := worker.New(cfg.Worker.Concurrency, cfg.Worker.QueueSize, log)

	router := handlers.NewRouter(handlers.RouterConfig{
		Webhook:        handlers.NewWebhookHandler(cfg.Facebook.VerifyToken, cfg.Facebook.AppSecret, pool, processor, log),
		Admin:          handlers.NewAdminHandler(pages, profiles, conversations, ai.NewAnalyzer(model), log),
		AdminKey:       cfg.Admin.APIKey,
		AdminRateLimit: cfg.Admin.RateLimit,
		TrustProxy:     cfg.Admin.TrustProxy,
		Logger:         log,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	if err := pool.Shutdown(ctx); err != nil {
		log.Warn("worker pool did not drain before deadline", "error", err)
	}
	if err := store.Close(ctx); err != nil {
		log.Error("failed to close store", "error", err)
	}
	if err := rc.Close(); err != nil {
		log.Error("failed to close redis", "error", err)
	}

	log.Info("server stopped")
	return nil
}
