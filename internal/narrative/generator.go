// Package narrative optionally phrases the report conclusion with an LLM.
package narrative

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/kavery/weatherpipe/internal/stats"
)

// Generator writes a short report conclusion from seasonal figures.
type Generator struct {
	client openai.Client
	model  string
}

// NewGenerator creates a generator. It reads the OPENAI_API_KEY
// environment variable; callers should treat an error as "disabled", not
// fatal.
func NewGenerator() (*Generator, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Generator{
		client: client,
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

// Conclusion asks the model for a two-to-three sentence conclusion over
// the seasonal means and peak rainfall month.
func (g *Generator) Conclusion(ctx context.Context, means []stats.SeasonalMean, peakMonth string, peakTotal float64) (string, error) {
	prompt := buildPrompt(means, peakMonth, peakTotal)

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: g.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You summarize weather statistics for a written report. Be factual and concise; no speculation beyond the numbers given."),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("narrative generation failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no completion returned")
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty completion returned")
	}
	return text, nil
}

func buildPrompt(means []stats.SeasonalMean, peakMonth string, peakTotal float64) string {
	var b strings.Builder
	b.WriteString("Write a 2-3 sentence conclusion for a weather analysis report based on these season-wise averages:\n")
	for _, m := range means {
		fmt.Fprintf(&b, "- %s: temperature %.2f, rainfall %.2f, humidity %.2f (%d days)\n",
			m.Season, m.Temperature, m.Rainfall, m.Humidity, m.Count)
	}
	if peakMonth != "" {
		fmt.Fprintf(&b, "Peak rainfall month: %s with %.2f mm total.\n", peakMonth, peakTotal)
	}
	return b.String()
}
