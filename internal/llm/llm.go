// Package llm defines the text-generation capability the pipeline stages call
// and its provider implementations.
package llm

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/evidence-cli/internal/config"
	"github.com/sells-group/evidence-cli/internal/resilience"
	"github.com/sells-group/evidence-cli/pkg/anthropic"
)

// Request is one completion request: a fixed system instruction and a user
// prompt. Empty Model selects the provider default.
type Request struct {
	System      string
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the trimmed text of a reply with its token usage.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Generator produces a single text completion.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Completion, error)
}

// New builds the configured provider, wrapped in a circuit breaker when
// llm.circuit_threshold is positive.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.LLM.Provider {
	case "anthropic", "":
		gen = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model)
	case "openai":
		gen, err = NewOpenAI(ctx, cfg.OpenAI)
	case "gemini":
		gen, err = NewGemini(ctx, cfg.Gemini)
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.LLM.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.LLM.CircuitThreshold > 0 {
		bcfg := resilience.FromCircuitConfig(cfg.LLM.CircuitThreshold, cfg.LLM.CircuitResetSecs)
		bcfg.OnStateChange = resilience.BreakerLogger(cfg.LLM.Provider)
		gen = WithBreaker(gen, resilience.NewCircuitBreaker(bcfg))
	}
	return gen, nil
}

// DefaultModel returns the configured default model of the selected provider.
func DefaultModel(cfg *config.Config) string {
	switch cfg.LLM.Provider {
	case "openai":
		return cfg.OpenAI.Model
	case "gemini":
		return cfg.Gemini.Model
	default:
		return cfg.Anthropic.Model
	}
}

type breakerGenerator struct {
	next Generator
	cb   *resilience.CircuitBreaker
}

// WithBreaker fails calls fast with resilience.ErrCircuitOpen once cb opens.
func WithBreaker(next Generator, cb *resilience.CircuitBreaker) Generator {
	return &breakerGenerator{next: next, cb: cb}
}

func (g *breakerGenerator) Generate(ctx context.Context, req Request) (*Completion, error) {
	return resilience.ExecuteVal(ctx, g.cb, func(ctx context.Context) (*Completion, error) {
		return g.next.Generate(ctx, req)
	})
}
