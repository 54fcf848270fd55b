package llm

import (
	"context"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/config"
)

type openAIGenerator struct {
	chat  model.BaseChatModel
	model string
}

// NewOpenAI returns a Generator for OpenAI or any compatible chat endpoint.
func NewOpenAI(ctx context.Context, cfg config.OpenAIConfig) (Generator, error) {
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.Key,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: init openai chat model")
	}
	return newOpenAIGenerator(cm, cfg.Model), nil
}

func newOpenAIGenerator(cm model.BaseChatModel, defaultModel string) *openAIGenerator {
	return &openAIGenerator{chat: cm, model: defaultModel}
}

func (g *openAIGenerator) Generate(ctx context.Context, req Request) (*Completion, error) {
	name := req.Model
	if name == "" {
		name = g.model
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: req.System},
		{Role: schema.User, Content: req.Prompt},
	}
	opts := []model.Option{
		model.WithModel(name),
		model.WithTemperature(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(req.MaxTokens))
	}

	resp, err := g.chat.Generate(ctx, messages, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "llm: openai generate")
	}

	c := &Completion{Text: strings.TrimSpace(resp.Content), Model: name}
	if resp.ResponseMeta != nil && resp.ResponseMeta.Usage != nil {
		c.InputTokens = int64(resp.ResponseMeta.Usage.PromptTokens)
		c.OutputTokens = int64(resp.ResponseMeta.Usage.CompletionTokens)
	}
	return c, nil
}
