package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Istiyak4099/Airdrop/cache"
	"github.com/Istiyak4099/Airdrop/models"
	"github.com/Istiyak4099/Airdrop/pkg/ai"
	"github.com/Istiyak4099/Airdrop/pkg/facebook"
)

// Replier produces the text sent back to a customer. It never fails.
type Replier interface {
	Generate(ctx context.Context, req ai.ReplyRequest) string
}

// Messenger is the part of the Graph API the processor needs.
type Messenger interface {
	SendMessage(ctx context.Context, pageAccessToken, recipientID, text string) error
	GetUserName(ctx context.Context, pageAccessToken, psid string) (string, error)
}

// Result counts what happened to the messaging events of one webhook.
type Result struct {
	Replied int
	Skipped int
	Failed  int
}

type Processor struct {
	pages         *PageService
	conversations *ConversationService
	assembler     *ContextAssembler
	replier       Replier
	messenger     Messenger
	cache         *cache.Cache
	logger        *slog.Logger

	fetchNames bool
}

type ProcessorConfig struct {
	Pages         *PageService
	Conversations *ConversationService
	Assembler     *ContextAssembler
	Replier       Replier
	Messenger     Messenger
	Cache         *cache.Cache
	Logger        *slog.Logger
	FetchNames    bool
}

func NewProcessor(cfg ProcessorConfig) *Processor {
	return &Processor{
		pages:         cfg.Pages,
		conversations: cfg.Conversations,
		assembler:     cfg.Assembler,
		replier:       cfg.Replier,
		messenger:     cfg.Messenger,
		cache:         cfg.Cache,
		logger:        cfg.Logger,
		fetchNames:    cfg.FetchNames,
	}
}

// Process handles every entry and messaging event of a webhook in order. A
// failing or panicking event is logged and does not stop the rest.
func (p *Processor) Process(ctx context.Context, event facebook.Event, requestID string) Result {
	var res Result
	logger := p.logger.With("request_id", requestID)

	for _, entry := range event.Entry {
		pending := 0
		for _, m := range entry.Messaging {
			if m.IsCustomerText() {
				pending++
			} else {
				res.Skipped++
			}
		}
		if pending == 0 {
			logger.Debug("skipping echo or non-text messages", "page_id", entry.ID, "events", len(entry.Messaging))
			continue
		}

		cred, err := p.pages.Lookup(ctx, entry.ID)
		if errors.Is(err, ErrUnknownPage) {
			logger.Warn("no credentials found for page", "page_id", entry.ID)
			res.Skipped += pending
			continue
		}
		if err != nil {
			logger.Error("page lookup failed", "page_id", entry.ID, "error", err)
			res.Failed += pending
			continue
		}

		for _, m := range entry.Messaging {
			if !m.IsCustomerText() {
				continue
			}
			eventLogger := logger.With("page_id", entry.ID, "sender_id", m.Sender.ID)
			if err := p.processEvent(ctx, cred, m, eventLogger); err != nil {
				eventLogger.Error("message processing failed", "error", err)
				res.Failed++
				continue
			}
			res.Replied++
		}
	}

	logger.Info("webhook processed", "replied", res.Replied, "skipped", res.Skipped, "failed", res.Failed)
	return res
}

func (p *Processor) processEvent(ctx context.Context, cred *models.PageCredential, m facebook.Messaging, logger *slog.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing message", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	owner := cred.OwnerAccountID
	text := m.Message.Text
	logger.Info("received message", "length", len(text))

	conv, err := p.conversations.FindOrCreate(ctx, owner, cred.PageID, m.Sender.ID)
	if err != nil {
		return err
	}

	inbound, err := p.conversations.AppendMessage(ctx, owner, conv.ID, models.SenderUser, text)
	if err != nil {
		return err
	}

	rc, err := p.assembler.Assemble(ctx, owner, conv.ID, inbound.ID)
	if err != nil {
		return err
	}

	var reply string
	if rc.ProfileInvalid {
		logger.Error("stored business profile is malformed; sending fallback reply", "owner_account_id", owner)
		reply = ai.FallbackReply
	} else {
		reply = p.replier.Generate(ctx, ai.ReplyRequest{
			Profile:      rc.Profile,
			History:      rc.History,
			Message:      text,
			CustomerName: p.customerName(ctx, cred, m.Sender.ID, logger),
			Platform:     ai.DefaultPlatform,
		})
	}

	if err := p.messenger.SendMessage(ctx, cred.PageAccessToken, m.Sender.ID, reply); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	logger.Info("reply sent", "conversation_id", conv.ID, "length", len(reply))

	if _, err := p.conversations.AppendMessage(ctx, owner, conv.ID, models.SenderAI, reply); err != nil {
		return err
	}
	return p.conversations.Touch(ctx, owner, conv.ID)
}

// customerName looks up the customer's display name, falling back to a
// generic one when lookups are disabled or fail.
func (p *Processor) customerName(ctx context.Context, cred *models.PageCredential, psid string, logger *slog.Logger) string {
	if !p.fetchNames {
		return ai.DefaultCustomerName
	}

	name, err := cache.GetOrLoad(ctx, p.cache, cache.CustomerNameKey(cred.PageID, psid), func(ctx context.Context) (string, error) {
		return p.messenger.GetUserName(ctx, cred.PageAccessToken, psid)
	})
	if err != nil || name == "" {
		logger.Debug("customer name lookup failed", "error", err)
		return ai.DefaultCustomerName
	}
	return name
}
