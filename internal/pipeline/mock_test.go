package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/job"
	"github.com/sells-group/evidence-cli/internal/llm"
)

// scriptedGenerator answers a prompt with the reply of the first rule whose
// needle the prompt contains, or fallback when none matches.
type scriptedGenerator struct {
	mu       sync.Mutex
	rules    []rule
	fallback string
	requests []llm.Request
}

type rule struct {
	needle string
	reply  string
	err    error
}

func (g *scriptedGenerator) on(needle, reply string) *scriptedGenerator {
	g.rules = append(g.rules, rule{needle: needle, reply: reply})
	return g
}

func (g *scriptedGenerator) fail(needle string, err error) *scriptedGenerator {
	g.rules = append(g.rules, rule{needle: needle, err: err})
	return g
}

func (g *scriptedGenerator) Generate(_ context.Context, req llm.Request) (*llm.Completion, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	for _, r := range g.rules {
		if strings.Contains(req.Prompt, r.needle) {
			if r.err != nil {
				return nil, r.err
			}
			return &llm.Completion{Text: r.reply, Model: "test-model", InputTokens: 10, OutputTokens: 2}, nil
		}
	}
	return &llm.Completion{Text: g.fallback, Model: "test-model", InputTokens: 10, OutputTokens: 2}, nil
}

func (g *scriptedGenerator) prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, len(g.requests))
	for i, r := range g.requests {
		out[i] = r.Prompt
	}
	return out
}

func testDeps(gen llm.Generator) Deps {
	return Deps{
		Gen: gen,
		Job: job.Config{
			Model:      "test-model",
			MaxTokens:  64,
			RetryLimit: 3,
			RetryDelay: time.Millisecond,
		},
	}
}

func openStore[T any](t *testing.T, path string, mode checkpoint.Mode) *checkpoint.Store[T] {
	t.Helper()
	s, err := checkpoint.Open[T](path, mode, false)
	require.NoError(t, err)
	return s
}
