package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/pkg/anthropic"
)

type anthropicGenerator struct {
	client anthropic.Client
	model  string
}

// NewAnthropic returns a Generator backed by the Anthropic Messages API.
func NewAnthropic(client anthropic.Client, defaultModel string) Generator {
	return &anthropicGenerator{client: client, model: defaultModel}
}

func (g *anthropicGenerator) Generate(ctx context.Context, req Request) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	temp := req.Temperature

	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   int64(req.MaxTokens),
		System:      req.System,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: anthropic generate")
	}

	return &Completion{
		Text:         strings.TrimSpace(resp.Text()),
		Model:        model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
	}, nil
}
