package ai

import (
	"context"
	"fmt"
	"strings"
)

const (
	sentimentPrompt = `You are a sentiment analysis expert. Analyze the sentiment of the customer message and provide a sentiment label (positive, negative, or neutral) and a sentiment score between -1 and 1.
Respond with JSON only: {"sentiment": "<label>", "score": <number>}`

	languagePrompt = `Detect the language of the text. Respond with JSON only: {"language": "<name>"}, using the English name of the language, for example "English", "Spanish", "Bengali".`

	suggestPrompt = `You are an AI assistant helping a business suggest quick replies to customer messages.
Based on the latest customer message, suggest 3 relevant, short quick replies.
Respond with JSON only: {"quickReplies": ["...", "...", "..."]}`

	quickReplyCount = 3
)

type SentimentResult struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
}

// Analyzer runs the auxiliary flows used by the inbox.
type Analyzer struct {
	model *Model
}

func NewAnalyzer(model *Model) *Analyzer {
	return &Analyzer{model: model}
}

func (a *Analyzer) Sentiment(ctx context.Context, message string) (SentimentResult, error) {
	raw, err := a.model.GenerateWithSystem(ctx, sentimentPrompt, "Message: "+message)
	if err != nil {
		return SentimentResult{}, err
	}

	var res SentimentResult
	if err := decodeJSON(raw, &res); err != nil {
		return SentimentResult{}, fmt.Errorf("parse sentiment: %w", err)
	}

	res.Sentiment = strings.ToLower(strings.TrimSpace(res.Sentiment))
	switch res.Sentiment {
	case "positive", "negative", "neutral":
	default:
		return SentimentResult{}, fmt.Errorf("unexpected sentiment label %q", res.Sentiment)
	}
	res.Score = min(max(res.Score, -1), 1)
	return res, nil
}

func (a *Analyzer) DetectLanguage(ctx context.Context, message string) (string, error) {
	raw, err := a.model.GenerateWithSystem(ctx, languagePrompt, fmt.Sprintf("Text: %q", message))
	if err != nil {
		return "", err
	}

	var res struct {
		Language string `json:"language"`
	}
	if err := decodeJSON(raw, &res); err != nil {
		// Plain answers like "Bengali" are fine too.
		res.Language = strings.Trim(stripFences(raw), "\"'. \n")
	}
	if res.Language == "" {
		return "", fmt.Errorf("no language in model output")
	}
	return res.Language, nil
}

func (a *Analyzer) SuggestReplies(ctx context.Context, message string) ([]string, error) {
	raw, err := a.model.GenerateWithSystem(ctx, suggestPrompt, "Latest customer message: "+message)
	if err != nil {
		return nil, err
	}

	var replies []string
	if strings.HasPrefix(stripFences(raw), "[") {
		err = decodeJSON(raw, &replies)
	} else {
		var res struct {
			QuickReplies []string `json:"quickReplies"`
		}
		err = decodeJSON(raw, &res)
		replies = res.QuickReplies
	}
	if err != nil {
		return nil, fmt.Errorf("parse quick replies: %w", err)
	}

	out := make([]string, 0, quickReplyCount)
	for _, r := range replies {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
		if len(out) == quickReplyCount {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no quick replies in model output")
	}
	return out, nil
}
