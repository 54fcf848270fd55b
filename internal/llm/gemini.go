package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/evidence-cli/internal/config"
)

// geminiModels is the subset of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type geminiGenerator struct {
	models geminiModels
	model  string
}

// NewGemini returns a Generator backed by the Gemini API.
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (Generator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: create genai client")
	}
	return &geminiGenerator{models: client.Models, model: cfg.Model}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, req Request) (*Completion, error) {
	name := req.Model
	if name == "" {
		name = g.model
	}

	gcfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.System != "" {
		gcfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		gcfg.MaxOutputTokens = int32(req.MaxTokens)
	}

	resp, err := g.models.GenerateContent(ctx, name, genai.Text(req.Prompt), gcfg)
	if err != nil {
		return nil, eris.Wrap(err, "llm: gemini generate")
	}

	c := &Completion{Text: strings.TrimSpace(resp.Text()), Model: name}
	if resp.UsageMetadata != nil {
		c.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		c.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return c, nil
}
