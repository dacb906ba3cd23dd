package analysis

import (
	"context"
	"fmt"

	"github.com/leadlens/leadlens/internal/cache"
	"github.com/leadlens/leadlens/internal/providers"
)

const (
	sentimentTemperature = 0.1
	sentimentMaxTokens   = 700
)

const sentimentSystemPrompt = "You are a senior revenue operations strategist. " +
	"Always respond with concise JSON grounded in the provided message. " +
	"Focus on B2B buying intent, urgency, and recommended actions."

// SentimentInput carries one inbound email to score.
type SentimentInput struct {
	Content string
	Subject string
	Sender  string
}

// SentimentService runs AI-only sentiment and intent analysis for email
// content.
type SentimentService struct {
	router    Completer
	responses *cache.ResponseCache
}

// NewSentimentService builds a sentiment service on top of the given
// router and response cache.
func NewSentimentService(completer Completer, responses *cache.ResponseCache) *SentimentService {
	return &SentimentService{router: completer, responses: responses}
}

// Analyze scores one email for sales prioritisation. Cached results come
// back with CacheProvider and zero latency.
func (s *SentimentService) Analyze(ctx context.Context, in SentimentInput) (*Result, error) {
	payload := map[string]any{
		"subject": in.Subject,
		"sender":  in.Sender,
		"content": in.Content,
	}

	if hit, ok := s.responses.Lookup(ctx, TypeSentiment, payload).Get(); ok {
		return &Result{Data: hit, Provider: CacheProvider}, nil
	}

	req := providers.NewRequest(sentimentPrompt(in))
	req.System = sentimentSystemPrompt
	req.Temperature = sentimentTemperature
	req.MaxTokens = sentimentMaxTokens

	routed, err := s.router.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	data := formatSentiment(routed.Data)
	s.responses.Store(ctx, TypeSentiment, payload, data)

	return &Result{Data: data, Provider: routed.Provider, Latency: routed.Latency}, nil
}

func sentimentPrompt(in SentimentInput) string {
	return fmt.Sprintf(`Evaluate the following inbound email for sales prioritisation. Provide results as strict JSON with keys:
- sentiment_label: one of [positive, neutral, negative]
- sentiment_confidence: float between 0 and 1
- buyer_intent: one of [high, medium, low]
- intent_probability: float between 0 and 1
- urgency: one of [high, medium, low]
- priority_score: integer 0-100 (higher is more urgent)
- key_signals: array of strings referencing evidence
- recommended_actions: array of strings with concrete next steps
- summary: single sentence summary focused on commercial intent
Email metadata:
Subject: %s
Sender: %s
Body:
%s`, in.Subject, in.Sender, in.Content)
}

// formatSentiment flattens the model output into the shape the frontend
// expects, filling a default for every key the model omitted.
func formatSentiment(ai map[string]any) map[string]any {
	return map[string]any{
		"sentiment":          pick(ai, "sentiment_label", "neutral"),
		"buying_intent":      pick(ai, "buyer_intent", "low"),
		"urgency":            pick(ai, "urgency", "low"),
		"priority_score":     pick(ai, "priority_score", 50),
		"confidence":         pick(ai, "sentiment_confidence", 0.5),
		"intent_probability": pick(ai, "intent_probability", 0.3),
		"key_insights":       pick(ai, "key_signals", []string{"Analysis completed"}),
		"recommendations":    pick(ai, "recommended_actions", []string{"Review email content"}),
		"summary":            pick(ai, "summary", "Email analysis completed"),
		"raw_analysis":       ai,
	}
}
