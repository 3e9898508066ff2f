package enrich

import (
	"context"
	"fmt"

	"booktracker/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Generator is a single-turn generative text backend. Implementations return
// the raw model response; sanitization and parsing happen in the engine.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini is the production Generator backed by Google Gemini.
type Gemini struct{}

// NewGemini returns a new Gemini generator.
func NewGemini() *Gemini {
	return &Gemini{}
}

// Generate sends a single-turn prompt to Gemini and returns the text of the
// first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	apiKey := config.GeminiAPIKey
	if apiKey == "" {
		return "", fmt.Errorf("gemini API key not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(config.GeminiModel)
	model.SetTemperature(0.4)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return string(txt), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

// metadataPrompt builds the single-turn enrichment prompt. The response is
// required to be nothing but a JSON object with the seven canonical fields.
func metadataPrompt(title, author string) string {
	return fmt.Sprintf(`Please return metadata for the book:
- Title: %s
- Author: %s

Respond with *only raw JSON* (no backticks, no Markdown formatting) matching this structure:

{
  "publisher": "",
  "pub_year": null,
  "pages": null,
  "genre": "",
  "fiction_nonfiction": "",
  "author_gender": "",
  "tags": []
}
`, title, author)
}
