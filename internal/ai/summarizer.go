// Package ai produces the end-of-day narrative summary. A Gemini-backed
// summarizer is used when an API key is configured; otherwise (and
// whenever the model call fails) callers fall back to the fixed
// template, so the summary endpoint never depends on the AI being up.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"veira/backend/internal/domain"
)

const geminiModel = "gemini-2.0-flash-001"

type Summarizer interface {
	Summarize(ctx context.Context, summary domain.DailySummary, businessName string) (string, error)
}

type GeminiSummarizer struct {
	apiKey string
}

func NewGeminiSummarizer(apiKey string) *GeminiSummarizer {
	return &GeminiSummarizer{apiKey: apiKey}
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, summary domain.DailySummary, businessName string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return "", err
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel)

	prompt := fmt.Sprintf(
		`You are a retail analyst for a small Kenyan shop called %q.
Write a short, friendly daily summary (2-3 sentences, plain text, no markdown) of today's trading:
- Date: %s
- Total sales: KES %.2f
- Transactions: %d
- Best seller: %s
Mention the best seller and end with one short encouragement for tomorrow.`,
		businessName, summary.Date, float64(summary.TotalCents)/100, summary.TransactionCount, summary.TopProduct,
	)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok && strings.TrimSpace(string(txt)) != "" {
				return strings.TrimSpace(string(txt)), nil
			}
		}
	}
	return "", fmt.Errorf("gemini returned no text candidates")
}

// TemplateSummarizer renders the fixed-template message. It is both the
// offline default and the fallback when the Gemini call errors.
type TemplateSummarizer struct{}

func (TemplateSummarizer) Summarize(_ context.Context, summary domain.DailySummary, businessName string) (string, error) {
	return FallbackSummary(summary, businessName), nil
}

func FallbackSummary(summary domain.DailySummary, businessName string) string {
	if businessName == "" {
		businessName = "Veira"
	}
	top := summary.TopProduct
	if top == "" {
		top = "n/a"
	}
	return fmt.Sprintf(
		"%s Daily Summary for %s: KES %.2f across %d transactions. Top product: %s.",
		businessName, summary.Date, float64(summary.TotalCents)/100, summary.TransactionCount, top,
	)
}
