package ai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Istiyak4099/Airdrop/models"
)

const (
	// NotConfiguredReply is sent when the owning account has no business profile.
	NotConfiguredReply = "I'm sorry, my configuration is not complete yet. Please try again later."

	// FallbackReply is sent when the model fails or returns nothing usable.
	FallbackReply = "Thanks for your message! We're having trouble answering right now, but a member of our team will get back to you soon."

	DefaultCustomerName = "Customer"
	DefaultPlatform     = "Facebook"
)

// ReplyRequest is everything needed to answer one customer message.
type ReplyRequest struct {
	Profile      *models.BusinessProfile
	History      []models.ChatTurn
	Message      string
	CustomerName string
	Platform     string
}

// ReplyGenerator turns a ReplyRequest into the text sent back to the customer.
type ReplyGenerator struct {
	model  *Model
	logger *slog.Logger
}

func NewReplyGenerator(model *Model, logger *slog.Logger) *ReplyGenerator {
	return &ReplyGenerator{model: model, logger: logger}
}

// Generate never fails: a missing profile yields NotConfiguredReply without a
// model call, and any model or template problem yields FallbackReply.
func (g *ReplyGenerator) Generate(ctx context.Context, req ReplyRequest) string {
	if req.Profile == nil {
		g.logger.Info("no business profile, sending not-configured reply")
		return NotConfiguredReply
	}
	if req.CustomerName == "" {
		req.CustomerName = DefaultCustomerName
	}
	if req.Platform == "" {
		req.Platform = DefaultPlatform
	}

	system, err := buildSystemPrompt(promptData{
		Profile:      req.Profile,
		CustomerName: req.CustomerName,
		Platform:     req.Platform,
	})
	if err != nil {
		g.logger.Error("failed to build reply prompt", "error", err)
		return FallbackReply
	}

	raw, err := g.model.Chat(ctx, system, req.History, req.Message)
	if err != nil {
		g.logger.Error("reply generation failed", "model", g.model.Model(), "error", err)
		return FallbackReply
	}

	reply := parseReply(raw)
	if reply == "" {
		g.logger.Warn("model returned an empty reply", "model", g.model.Model())
		return FallbackReply
	}
	return reply
}

type replyPayload struct {
	Reply          string `json:"reply"`
	WelcomeMessage string `json:"welcomeMessage"`
}

// parseReply accepts {"reply": ...} (optionally fenced) or plain text.
func parseReply(raw string) string {
	s := stripFences(raw)
	if strings.HasPrefix(s, "{") {
		// A broken object is never shown to the customer.
		var p replyPayload
		if err := decodeJSON(s, &p); err != nil {
			return ""
		}
		if p.Reply != "" {
			return strings.TrimSpace(p.Reply)
		}
		return strings.TrimSpace(p.WelcomeMessage)
	}
	return strings.TrimSpace(s)
}
