package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/Istiyak4099/Airdrop/models"
	"github.com/Istiyak4099/Airdrop/pkg/ai"
	apperrors "github.com/Istiyak4099/Airdrop/pkg/errors"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
	"github.com/Istiyak4099/Airdrop/services"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxAdminBody     = 1 << 20
)

// Analyzer is the set of AI helper flows exposed to the inbox.
type Analyzer interface {
	Sentiment(ctx context.Context, message string) (ai.SentimentResult, error)
	DetectLanguage(ctx context.Context, message string) (string, error)
	SuggestReplies(ctx context.Context, message string) ([]string, error)
}

type AdminHandler struct {
	pages         *services.PageService
	profiles      *services.ProfileService
	conversations *services.ConversationService
	analyzer      Analyzer
	validate      *validator.Validate
	logger        *slog.Logger
}

func NewAdminHandler(pages *services.PageService, profiles *services.ProfileService, conversations *services.ConversationService, analyzer Analyzer, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		pages:         pages,
		profiles:      profiles,
		conversations: conversations,
		analyzer:      analyzer,
		validate:      newValidator(),
		logger:        logger,
	}
}

type pageTokenRequest struct {
	PageID          string `json:"pageId" validate:"required,path_segment"`
	PageAccessToken string `json:"pageAccessToken" validate:"required"`
	PageName        string `json:"pageName"`
	OwnerAccountID  string `json:"ownerAccountId" validate:"required,path_segment"`
	UserAccountID   string `json:"userAccountId"`
}

type messageRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

// decode reads a JSON body into dst and validates it.
func (h *AdminHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody)).Decode(dst); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, "Invalid JSON body", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, validationMessage(err), err)
	}
	return nil
}

// StorePageToken connects a page by storing its access token and owner.
func (h *AdminHandler) StorePageToken(w http.ResponseWriter, r *http.Request) {
	var req pageTokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody)).Decode(&req); err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrValidation, "Invalid JSON body", err))
		return
	}
	if req.OwnerAccountID == "" {
		req.OwnerAccountID = req.UserAccountID
	}
	if err := h.validate.Struct(req); err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrValidation, validationMessage(err), err))
		return
	}

	err := h.pages.Save(r.Context(), models.PageCredential{
		PageID:          req.PageID,
		PageAccessToken: req.PageAccessToken,
		PageName:        req.PageName,
		OwnerAccountID:  req.OwnerAccountID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	apperrors.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Page token stored successfully",
	})
}

func (h *AdminHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), r.PathValue("accountId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if profile == nil {
		apperrors.HandleError(w, apperrors.New(apperrors.ErrNotFound, "Business profile not found"))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, profile)
}

// PutProfile merges the supplied top-level fields into the stored profile
// and returns the result.
func (h *AdminHandler) PutProfile(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("accountId")

	var patch models.BusinessProfile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAdminBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrValidation, "Invalid profile body", err))
		return
	}
	if err := h.validate.Struct(patch); err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrValidation, validationMessage(err), err))
		return
	}

	if err := h.profiles.Save(r.Context(), accountID, patch); err != nil {
		h.fail(w, r, err)
		return
	}
	profile, err := h.profiles.Get(r.Context(), accountID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if profile == nil {
		profile = &models.BusinessProfile{}
	}
	apperrors.WriteJSON(w, http.StatusOK, profile)
}

func (h *AdminHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		apperrors.HandleError(w, err)
		return
	}

	convs, err := h.conversations.List(r.Context(), r.PathValue("accountId"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]any{"conversations": convs})
}

func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		apperrors.HandleError(w, err)
		return
	}

	msgs, err := h.conversations.Messages(r.Context(), r.PathValue("accountId"), r.PathValue("conversationId"), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *AdminHandler) Sentiment(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := h.decode(w, r, &req); err != nil {
		apperrors.HandleError(w, err)
		return
	}
	res, err := h.analyzer.Sentiment(r.Context(), req.Message)
	if err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrUpstream, "Sentiment analysis failed", err))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, res)
}

func (h *AdminHandler) DetectLanguage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := h.decode(w, r, &req); err != nil {
		apperrors.HandleError(w, err)
		return
	}
	lang, err := h.analyzer.DetectLanguage(r.Context(), req.Message)
	if err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrUpstream, "Language detection failed", err))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string]string{"language": lang})
}

func (h *AdminHandler) SuggestReplies(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := h.decode(w, r, &req); err != nil {
		apperrors.HandleError(w, err)
		return
	}
	replies, err := h.analyzer.SuggestReplies(r.Context(), req.Message)
	if err != nil {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrUpstream, "Quick reply suggestion failed", err))
		return
	}
	apperrors.WriteJSON(w, http.StatusOK, map[string][]string{"quickReplies": replies})
}

// fail maps service errors onto API errors.
func (h *AdminHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, services.ErrInvalidID) {
		apperrors.HandleError(w, apperrors.Wrap(apperrors.ErrValidation, "Invalid id", err))
		return
	}
	logger.FromContext(r.Context(), h.logger).Error("admin request failed", "path", r.URL.Path, "error", err)
	apperrors.HandleError(w, err)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperrors.New(apperrors.ErrValidation, "limit must be a positive integer")
	}
	return min(n, maxListLimit), nil
}
