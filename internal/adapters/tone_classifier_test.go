package adapters

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply string
	err   error
	model string
	input string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, _ *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.input = contents[0].Parts[0].Text
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestGeminiToneClassifier(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    string
		wantErr bool
	}{
		{name: "plain label", reply: "positive", want: "positive"},
		{name: "normalizes case and punctuation", reply: " Negative.\n", want: "negative"},
		{name: "unknown label", reply: "ecstatic", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply}
			c := &GeminiToneClassifier{models: gen, model: "gemini-test"}

			got, err := c.ClassifyTone(context.Background(), "Siamo molto interessati alla demo")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "gemini-test", gen.model)
		})
	}
}

func TestGeminiToneClassifierInput(t *testing.T) {
	gen := &fakeGenerator{reply: "neutral"}
	c := &GeminiToneClassifier{models: gen, model: "m"}

	_, err := c.ClassifyTone(context.Background(), "   ")
	assert.Error(t, err)

	_, err = c.ClassifyTone(context.Background(), strings.Repeat("è", toneMaxInputRunes+50))
	require.NoError(t, err)
	assert.Equal(t, toneMaxInputRunes, utf8.RuneCountInString(gen.input))

	gen.err = errors.New("quota exceeded")
	_, err = c.ClassifyTone(context.Background(), "hello")
	assert.Error(t, err)
}
