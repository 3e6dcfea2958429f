package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/models"
)

// DefaultHistoryLimit is the number of prior messages given to the model.
const DefaultHistoryLimit = 10

// ReplyContext is what the reply generator knows about a conversation.
// Profile is nil when the account has not configured one. ProfileInvalid
// is set when a stored profile exists but could not be decoded.
type ReplyContext struct {
	Profile        *models.BusinessProfile
	ProfileInvalid bool
	History        []models.ChatTurn
}

type ContextAssembler struct {
	profiles      *ProfileService
	conversations *ConversationService
	historyLimit  int
}

func NewContextAssembler(profiles *ProfileService, conversations *ConversationService, historyLimit int) *ContextAssembler {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &ContextAssembler{profiles: profiles, conversations: conversations, historyLimit: historyLimit}
}

// Assemble loads the profile and the most recent history in chronological
// order, leaving out the message with id excludeMessageID.
func (a *ContextAssembler) Assemble(ctx context.Context, ownerAccountID, conversationID, excludeMessageID string) (*ReplyContext, error) {
	invalid := false
	profile, err := a.profiles.Get(ctx, ownerAccountID)
	switch {
	case errors.Is(err, db.ErrMalformed):
		invalid = true
	case err != nil:
		return nil, fmt.Errorf("load profile: %w", err)
	}

	recent, err := a.conversations.Recent(ctx, ownerAccountID, conversationID, a.historyLimit+1)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	history := make([]models.ChatTurn, 0, a.historyLimit)
	for _, m := range recent {
		if m.ID == excludeMessageID {
			continue
		}
		if len(history) == a.historyLimit {
			break
		}
		sender := models.SenderUser
		if m.SenderType == models.SenderAI {
			sender = models.SenderAI
		}
		history = append(history, models.ChatTurn{Sender: sender, Content: m.Content})
	}
	reverse(history)

	return &ReplyContext{Profile: profile, ProfileInvalid: invalid, History: history}, nil
}
