package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Istiyak4099/Airdrop/db"
	"github.com/Istiyak4099/Airdrop/models"
)

const (
	accountsCollection      = "userAccounts"
	conversationsCollection = "conversations"
)

type ConversationService struct {
	store  db.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewConversationService(store db.Store, logger *slog.Logger) *ConversationService {
	return &ConversationService{store: store, logger: logger, now: time.Now}
}

func conversationRef(ownerAccountID, conversationID string) db.Ref {
	return db.Doc(accountsCollection, ownerAccountID, conversationsCollection, conversationID)
}

// FindOrCreate returns the conversation between a page and a customer,
// creating it on first contact. Creation is a merge write on the
// deterministic id, so concurrent or repeated deliveries converge.
func (s *ConversationService) FindOrCreate(ctx context.Context, ownerAccountID, pageID, customerID string) (*models.Conversation, error) {
	if err := checkID("account", ownerAccountID); err != nil {
		return nil, err
	}
	if err := checkID("page", pageID); err != nil {
		return nil, err
	}
	if err := checkID("customer", customerID); err != nil {
		return nil, err
	}

	id := models.ConversationID(pageID, customerID)
	ref := conversationRef(ownerAccountID, id)

	var conv models.Conversation
	err := s.store.GetDoc(ctx, ref, &conv)
	if err == nil {
		if conv.ID == "" {
			conv.ID = id
		}
		return &conv, nil
	}
	if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}

	now := s.now().UTC()
	conv = models.Conversation{
		ID:                   id,
		PageID:               pageID,
		CustomerID:           customerID,
		OwnerAccountID:       ownerAccountID,
		Status:               models.ConversationStatusOpen,
		CreatedAt:            now,
		LastMessageTimestamp: now,
	}
	err = s.store.SetDoc(ctx, ref, map[string]any{
		"id":                   conv.ID,
		"pageId":               conv.PageID,
		"customerId":           conv.CustomerID,
		"ownerAccountId":       conv.OwnerAccountID,
		"status":               conv.Status,
		"createdAt":            conv.CreatedAt,
		"lastMessageTimestamp": conv.LastMessageTimestamp,
	}, db.Merge())
	if err != nil {
		return nil, fmt.Errorf("create conversation %s: %w", id, err)
	}

	s.logger.Info("conversation created", "conversation_id", id, "owner_account_id", ownerAccountID)
	return &conv, nil
}

// AppendMessage stores a new immutable message under the conversation.
func (s *ConversationService) AppendMessage(ctx context.Context, ownerAccountID, conversationID, senderType, content string) (*models.Message, error) {
	if err := checkID("account", ownerAccountID); err != nil {
		return nil, err
	}
	if err := checkID("conversation", conversationID); err != nil {
		return nil, err
	}
	switch senderType {
	case models.SenderUser, models.SenderAI:
	default:
		return nil, fmt.Errorf("invalid sender type %q", senderType)
	}

	msg := models.Message{
		ConversationID: conversationID,
		SenderType:     senderType,
		Content:        content,
		Timestamp:      s.now().UTC(),
		OwnerAccountID: ownerAccountID,
	}
	ref, err := s.store.AddDoc(ctx, conversationRef(ownerAccountID, conversationID).Collection("messages"), map[string]any{
		"conversationId": msg.ConversationID,
		"senderType":     msg.SenderType,
		"content":        msg.Content,
		"timestamp":      msg.Timestamp,
		"ownerAccountId": msg.OwnerAccountID,
	})
	if err != nil {
		return nil, fmt.Errorf("append message to %s: %w", conversationID, err)
	}
	msg.ID = ref.ID()
	return &msg, nil
}

// Touch sets lastMessageTimestamp to now.
func (s *ConversationService) Touch(ctx context.Context, ownerAccountID, conversationID string) error {
	if err := checkID("account", ownerAccountID); err != nil {
		return err
	}
	if err := checkID("conversation", conversationID); err != nil {
		return err
	}
	err := s.store.SetDoc(ctx, conversationRef(ownerAccountID, conversationID), map[string]any{
		"lastMessageTimestamp": s.now().UTC(),
	}, db.Merge())
	if err != nil {
		return fmt.Errorf("touch conversation %s: %w", conversationID, err)
	}
	return nil
}

// List returns the account's conversations, most recently active first.
func (s *ConversationService) List(ctx context.Context, ownerAccountID string, limit int) ([]models.Conversation, error) {
	if err := checkID("account", ownerAccountID); err != nil {
		return nil, err
	}

	collection := db.Doc(accountsCollection, ownerAccountID).Collection(conversationsCollection)
	docs, err := s.store.ListDocs(ctx, collection, "lastMessageTimestamp", db.Descending, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}

	convs := make([]models.Conversation, 0, len(docs))
	for _, d := range docs {
		var c models.Conversation
		if err := d.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode conversation %s: %w", d.Ref(), err)
		}
		if c.ID == "" {
			c.ID = d.Ref().ID()
		}
		convs = append(convs, c)
	}
	return convs, nil
}

// Recent returns up to limit of the newest messages, newest first.
func (s *ConversationService) Recent(ctx context.Context, ownerAccountID, conversationID string, limit int) ([]models.Message, error) {
	if err := checkID("account", ownerAccountID); err != nil {
		return nil, err
	}
	if err := checkID("conversation", conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.store.QueryMessages(ctx, conversationRef(ownerAccountID, conversationID), limit, db.Descending)
	if err != nil {
		return nil, fmt.Errorf("query messages of %s: %w", conversationID, err)
	}
	return msgs, nil
}

// Messages returns the newest limit messages in chronological order.
func (s *ConversationService) Messages(ctx context.Context, ownerAccountID, conversationID string, limit int) ([]models.Message, error) {
	msgs, err := s.Recent(ctx, ownerAccountID, conversationID, limit)
	if err != nil {
		return nil, err
	}
	reverse(msgs)
	return msgs, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
