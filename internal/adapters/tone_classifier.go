package adapters

import (
	"context"
	"fmt"
	"strings"

	"funnel_backend/internal/leads/ports"
	"funnel_backend/platform/config"

	"google.golang.org/genai"
)

const (
	toneMaxInputRunes = 2000

	toneInstruction = `You classify the tone of a message a prospect wrote in a marketing funnel.
Reply with exactly one lowercase word: positive, neutral or negative.`
)

var knownTones = map[string]struct{}{
	"positive": {},
	"neutral":  {},
	"negative": {},
}

// contentGenerator is the subset of *genai.Models the classifier calls.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiToneClassifier labels free text with a Gemini model.
type GeminiToneClassifier struct {
	models contentGenerator
	model  string
}

var _ ports.ToneClassifier = (*GeminiToneClassifier)(nil)

// NewGeminiToneClassifier creates a classifier backed by the Gemini API.
func NewGeminiToneClassifier(ctx context.Context, cfg config.ToneClassifierConfig) (*GeminiToneClassifier, error) {
	if !cfg.IsToneClassifierEnabled() {
		return nil, fmt.Errorf("tone classifier is not configured")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiToneClassifier{models: client.Models, model: cfg.GetGeminiModel()}, nil
}

func (c *GeminiToneClassifier) ClassifyTone(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty text")
	}
	if r := []rune(text); len(r) > toneMaxInputRunes {
		text = string(r[:toneMaxInputRunes])
	}

	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(text), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(toneInstruction, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
		MaxOutputTokens:   8,
	})
	if err != nil {
		return "", fmt.Errorf("classify tone: %w", err)
	}

	label := strings.ToLower(strings.Trim(strings.TrimSpace(resp.Text()), ".!\"'"))
	if _, ok := knownTones[label]; !ok {
		return "", fmt.Errorf("unexpected tone label %q", label)
	}
	return label, nil
}
