package models

import (
	"time"
)

// Sender types stored on Message.SenderType.
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// ConversationStatusOpen is the status of every conversation created by the webhook.
const ConversationStatusOpen = "open"

// PageCredential links a connected Facebook Page to its access token and owning account.
type PageCredential struct {
	PageID          string    `json:"pageId" bson:"pageId"`
	PageAccessToken string    `json:"pageAccessToken" bson:"pageAccessToken"`
	PageName        string    `json:"pageName,omitempty" bson:"pageName,omitempty"`
	OwnerAccountID  string    `json:"ownerAccountId" bson:"ownerAccountId"`
	UserAccountID   string    `json:"userAccountId,omitempty" bson:"userAccountId,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Owner returns the owning account, accepting documents written with the
// older userAccountId field.
func (p PageCredential) Owner() string {
	if p.OwnerAccountID != "" {
		return p.OwnerAccountID
	}
	return p.UserAccountID
}

// Conversation is one (page, customer) thread, nested under its owning account.
type Conversation struct {
	ID                   string    `json:"id" bson:"id"`
	PageID               string    `json:"pageId,omitempty" bson:"pageId,omitempty"`
	CustomerID           string    `json:"customerId" bson:"customerId"`
	OwnerAccountID       string    `json:"ownerAccountId" bson:"ownerAccountId"`
	Status               string    `json:"status" bson:"status"`
	CreatedAt            time.Time `json:"createdAt" bson:"createdAt"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp" bson:"lastMessageTimestamp"`
}

// ConversationID builds the deterministic conversation key for a page and customer.
func ConversationID(pageID, customerID string) string {
	return pageID + "_" + customerID
}

// Message is a single immutable entry in a conversation.
type Message struct {
	ID             string    `json:"id" bson:"id"`
	ConversationID string    `json:"conversationId" bson:"conversationId"`
	SenderType     string    `json:"senderType" bson:"senderType"`
	Content        string    `json:"content" bson:"content"`
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	OwnerAccountID string    `json:"ownerAccountId" bson:"ownerAccountId"`
}

// ChatTurn is the prompt-facing view of a stored message.
type ChatTurn struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// Product is a catalog entry of a business profile.
type Product struct {
	ID          int64  `json:"id" bson:"id" yaml:"id"`
	Name        string `json:"name" bson:"name" yaml:"name"`
	Price       string `json:"price" bson:"price" yaml:"price"`
	Description string `json:"description" bson:"description" yaml:"description"`
}

// FAQ is a question/answer pair of a business profile.
type FAQ struct {
	ID       int64  `json:"id" bson:"id" yaml:"id"`
	Question string `json:"question" bson:"question" yaml:"question"`
	Answer   string `json:"answer" bson:"answer" yaml:"answer"`
}

// Brand voice slider positions.
const (
	VoiceLeft    = "left"
	VoiceNeutral = "neutral"
	VoiceRight   = "right"
)

// BrandVoice holds the three tone sliders of the settings page.
type BrandVoice struct {
	Professionalism string `json:"professionalism" bson:"professionalism" yaml:"professionalism" validate:"omitempty,oneof=left neutral right"`
	Verbosity       string `json:"verbosity" bson:"verbosity" yaml:"verbosity" validate:"omitempty,oneof=left neutral right"`
	Formality       string `json:"formality" bson:"formality" yaml:"formality" validate:"omitempty,oneof=left neutral right"`
}

// BusinessProfile is everything the reply generator may know about a business.
// Pointer and omitempty fields let partial profiles be merged into stored ones.
type BusinessProfile struct {
	CompanyName                  string      `json:"companyName,omitempty" bson:"companyName,omitempty" yaml:"companyName"`
	Industry                     string      `json:"industry,omitempty" bson:"industry,omitempty" yaml:"industry"`
	Description                  string      `json:"description,omitempty" bson:"description,omitempty" yaml:"description"`
	Products                     []Product   `json:"products,omitempty" bson:"products,omitempty" yaml:"products"`
	FAQs                         []FAQ       `json:"faqs,omitempty" bson:"faqs,omitempty" yaml:"faqs"`
	BrandVoice                   *BrandVoice `json:"brandVoice,omitempty" bson:"brandVoice,omitempty" yaml:"brandVoice"`
	WritingStyleExample          string      `json:"writingStyleExample,omitempty" bson:"writingStyleExample,omitempty" yaml:"writingStyleExample"`
	LanguageHandling             string      `json:"languageHandling,omitempty" bson:"languageHandling,omitempty" yaml:"languageHandling"`
	PreferredResponseLength      string      `json:"preferredResponseLength,omitempty" bson:"preferredResponseLength,omitempty" yaml:"preferredResponseLength"`
	EscalationProtocol           string      `json:"escalationProtocol,omitempty" bson:"escalationProtocol,omitempty" yaml:"escalationProtocol"`
	FollowUpQuestions            *bool       `json:"followUpQuestions,omitempty" bson:"followUpQuestions,omitempty" yaml:"followUpQuestions"`
	ProactiveSuggestions         *bool       `json:"proactiveSuggestions,omitempty" bson:"proactiveSuggestions,omitempty" yaml:"proactiveSuggestions"`
	AdditionalResponseGuidelines string      `json:"additionalResponseGuidelines,omitempty" bson:"additionalResponseGuidelines,omitempty" yaml:"additionalResponseGuidelines"`
	CompanyPolicies              string      `json:"companyPolicies,omitempty" bson:"companyPolicies,omitempty" yaml:"companyPolicies"`
	SensitiveTopicsHandling      string      `json:"sensitiveTopicsHandling,omitempty" bson:"sensitiveTopicsHandling,omitempty" yaml:"sensitiveTopicsHandling"`
	ComplianceRequirements       string      `json:"complianceRequirements,omitempty" bson:"complianceRequirements,omitempty" yaml:"complianceRequirements"`
	AdditionalKnowledge          string      `json:"additionalKnowledge,omitempty" bson:"additionalKnowledge,omitempty" yaml:"additionalKnowledge"`
}
