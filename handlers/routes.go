package handlers

import (
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/Istiyak4099/Airdrop/pkg/errors"
)

type RouterConfig struct {
	Webhook        *WebhookHandler
	Admin          *AdminHandler
	AdminKey       string
	AdminRateLimit int
	TrustProxy     bool
	Logger         *slog.Logger
}

// NewRouter mounts every route behind the request id, logging and recovery
// middleware. Admin routes are rate limited before the admin key is checked,
// so failed key guesses count against the client.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	for _, path := range []string{"/api/facebook/webhook", "/webhook"} {
		mux.HandleFunc("GET "+path, cfg.Webhook.Verify)
		mux.HandleFunc("POST "+path, cfg.Webhook.Receive)
	}

	limiter := NewIPRateLimiter(cfg.AdminRateLimit, time.Minute, cfg.TrustProxy)
	admin := func(h http.HandlerFunc) http.Handler {
		return chain(h, limiter.RateLimit, AdminAuth(cfg.AdminKey))
	}

	mux.Handle("POST /api/admin/facebook/page-token", admin(cfg.Admin.StorePageToken))
	mux.Handle("GET /api/admin/profiles/{accountId}", admin(cfg.Admin.GetProfile))
	mux.Handle("PUT /api/admin/profiles/{accountId}", admin(cfg.Admin.PutProfile))
	mux.Handle("GET /api/admin/accounts/{accountId}/conversations", admin(cfg.Admin.ListConversations))
	mux.Handle("GET /api/admin/accounts/{accountId}/conversations/{conversationId}/messages", admin(cfg.Admin.ListMessages))
	mux.Handle("POST /api/admin/ai/sentiment", admin(cfg.Admin.Sentiment))
	mux.Handle("POST /api/admin/ai/language", admin(cfg.Admin.DetectLanguage))
	mux.Handle("POST /api/admin/ai/suggest-replies", admin(cfg.Admin.SuggestReplies))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return chain(mux, RequestID(cfg.Logger), Logging(cfg.Logger), Recover(cfg.Logger))
}
