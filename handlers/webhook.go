package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	apperrors "github.com/Istiyak4099/Airdrop/pkg/errors"
	"github.com/Istiyak4099/Airdrop/pkg/facebook"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
	"github.com/Istiyak4099/Airdrop/pkg/worker"
	"github.com/Istiyak4099/Airdrop/services"
)

// MaxWebhookBody is the largest webhook body accepted.
const MaxWebhookBody = 1 << 20

// Submitter hands a job to the background executor.
type Submitter interface {
	Submit(name string, job worker.Job) error
}

// EventProcessor runs the reply pipeline for one webhook event.
type EventProcessor interface {
	Process(ctx context.Context, event facebook.Event, requestID string) services.Result
}

type WebhookHandler struct {
	verifyToken string
	appSecret   string
	pool        Submitter
	processor   EventProcessor
	logger      *slog.Logger
}

func NewWebhookHandler(verifyToken, appSecret string, pool Submitter, processor EventProcessor, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifyToken: verifyToken,
		appSecret:   appSecret,
		pool:        pool,
		processor:   processor,
		logger:      logger,
	}
}

// Verify answers the subscription handshake.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")
	l := logger.FromContext(r.Context(), h.logger)

	if mode == "subscribe" && h.verifyToken != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(h.verifyToken)) == 1 {
		l.Info("webhook verified successfully")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, challenge)
		return
	}

	l.Warn("webhook verification failed", "mode", mode, "token_configured", h.verifyToken != "")
	http.Error(w, "Verification failed", http.StatusForbidden)
}

// Receive authenticates a webhook POST, queues it and acknowledges at once.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	l := logger.FromContext(r.Context(), h.logger)

	if h.appSecret == "" {
		l.Error("FACEBOOK_APP_SECRET is not set")
		apperrors.WriteJSON(w, http.StatusInternalServerError, apperrors.ErrorResponse{Error: "Configuration error"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			l.Warn("webhook body too large", "limit", tooLarge.Limit)
			apperrors.WriteJSON(w, http.StatusRequestEntityTooLarge, apperrors.ErrorResponse{Error: "Payload too large"})
			return
		}
		l.Warn("error reading webhook body", "error", err)
		apperrors.WriteJSON(w, http.StatusBadRequest, apperrors.ErrorResponse{Error: "Invalid payload"})
		return
	}

	if !facebook.VerifySignature(body, r.Header.Get(facebook.SignatureHeader), h.appSecret) {
		l.Warn("invalid webhook signature", "bytes", len(body))
		apperrors.WriteJSON(w, http.StatusUnauthorized, apperrors.ErrorResponse{Error: "Invalid signature"})
		return
	}

	var event facebook.Event
	if err := json.Unmarshal(body, &event); err != nil {
		l.Warn("error parsing webhook JSON", "error", err)
		apperrors.WriteJSON(w, http.StatusBadRequest, apperrors.ErrorResponse{Error: "Invalid payload"})
		return
	}

	messages := 0
	for _, e := range event.Entry {
		messages += len(e.Messaging)
	}
	l.Info("webhook received", "object", event.Object, "entries", len(event.Entry), "messages", messages)

	requestID := RequestIDFromContext(r.Context())
	err = h.pool.Submit("webhook "+requestID, func(ctx context.Context) {
		h.processor.Process(ctx, event, requestID)
	})
	if err != nil {
		l.Error("failed to queue webhook", "error", err)
		apperrors.WriteJSON(w, http.StatusServiceUnavailable, apperrors.ErrorResponse{Error: "Busy"})
		return
	}

	apperrors.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}
