package job

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/evidence-cli/internal/checkpoint"
	"github.com/sells-group/evidence-cli/internal/cost"
	"github.com/sells-group/evidence-cli/internal/llm"
	"github.com/sells-group/evidence-cli/internal/model"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req llm.Request) (*llm.Completion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Completion), args.Error(1)
}

// echoGenerator answers every prompt with "answer: <prompt>" and fails
// prompts listed in failing.
type echoGenerator struct {
	calls   atomic.Int32
	failing map[string]bool
}

func (g *echoGenerator) Generate(_ context.Context, req llm.Request) (*llm.Completion, error) {
	g.calls.Add(1)
	if g.failing[req.Prompt] {
		return nil, errors.New("upstream 500")
	}
	return &llm.Completion{Text: "answer: " + req.Prompt, Model: "test-model", InputTokens: 100, OutputTokens: 10}, nil
}

// failingStore rejects every append.
type failingStore struct{}

func (failingStore) Records() []model.ExtractionRecord   { return nil }
func (failingStore) Append(model.ExtractionRecord) error { return errors.New("disk full") }

func testConfig() Config {
	return Config{
		Stage:      model.StageExtract,
		MaxTokens:  64,
		RetryLimit: 3,
		RetryDelay: time.Millisecond,
	}
}

func extractionTask(recordID, term string) Task[model.ExtractionRecord] {
	prompt := recordID + "/" + term
	return Task[model.ExtractionRecord]{
		Key:    model.Key{RecordID: recordID, Kind: model.KindOutcome, Term: term},
		Prompt: prompt,
		Build: func(reply string) model.ExtractionRecord {
			return model.ExtractionRecord{
				RecordID: recordID,
				Kind:     model.KindOutcome,
				Term:     term,
				Query:    prompt,
				Response: reply,
			}
		},
	}
}

func openStore(t *testing.T, path string) *checkpoint.Store[model.ExtractionRecord] {
	t.Helper()
	s, err := checkpoint.Open[model.ExtractionRecord](path, checkpoint.ModeAppend, false)
	require.NoError(t, err)
	return s
}

func TestRunCompletesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.yaml")
	store := openStore(t, path)
	gen := &echoGenerator{}

	tasks := []Task[model.ExtractionRecord]{
		extractionTask("R00001", "income"),
		extractionTask("R00001", "assets"),
		extractionTask("R00002", "income"),
	}

	calc := cost.NewCalculator(cost.Rates{Models: map[string]cost.ModelRate{"test-model": {Input: 1, Output: 10}}})
	sum, err := NewRunner(testConfig(), gen, store, calc).Run(context.Background(), "system", tasks)
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 3, sum.Submitted)
	assert.Equal(t, 3, sum.Completed)
	assert.Equal(t, int64(300), sum.InputTokens)
	assert.Equal(t, int64(30), sum.OutputTokens)
	assert.InDelta(t, 3*(100.0/1e6+10*10.0/1e6), sum.Cost, 1e-12)

	persisted, err := checkpoint.Load[model.ExtractionRecord](path)
	require.NoError(t, err)
	require.Len(t, persisted, 3)
	assert.Equal(t, "answer: R00001/assets", persisted[1].Response)
}

func TestRunIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.yaml")
	tasks := []Task[model.ExtractionRecord]{
		extractionTask("R00001", "income"),
		extractionTask("R00002", "income"),
	}

	gen := &echoGenerator{}
	_, err := NewRunner(testConfig(), gen, openStore(t, path), nil).Run(context.Background(), "system", tasks)
	require.NoError(t, err)
	require.Equal(t, int32(2), gen.calls.Load())

	second := &echoGenerator{}
	sum, err := NewRunner(testConfig(), second, openStore(t, path), nil).Run(context.Background(), "system", tasks)
	require.NoError(t, err)

	assert.Equal(t, int32(0), second.calls.Load())
	assert.Equal(t, 0, sum.Completed)
	assert.Equal(t, 2, sum.AlreadyDone)

	persisted, err := checkpoint.Load[model.ExtractionRecord](path)
	require.NoError(t, err)
	assert.Len(t, persisted, 2)
}

func TestRunDeduplicatesRepeatedKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.yaml")
	tasks := []Task[model.ExtractionRecord]{
		extractionTask("R00001", "income"),
		extractionTask("R00001", "income"),
		extractionTask("R00001", "assets"),
		extractionTask("R00001", "income"),
	}

	gen := &echoGenerator{}
	sum, err := NewRunner(testConfig(), gen, openStore(t, path), nil).Run(context.Background(), "system", tasks)
	require.NoError(t, err)

	assert.Equal(t, int32(2), gen.calls.Load())
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 2, sum.Duplicates)

	persisted, err := checkpoint.Load[model.ExtractionRecord](path)
	require.NoError(t, err)
	keys := make(map[model.Key]int)
	for _, rec := range persisted {
		keys[rec.Key()]++
	}
	for k, n := range keys {
		assert.Equal(t, 1, n, k.String())
	}
}

func TestRunIsolatesFailingItem(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractions.yaml")
	tasks := []Task[model.ExtractionRecord]{
		extractionTask("R00001", "income"),
		extractionTask("R00002", "income"),
		extractionTask("R00003", "income"),
	}

	gen := &echoGenerator{failing: map[string]bool{"R00002/income": true}}
	var failures []Failure
	cfg := testConfig()
	cfg.OnFailure = func(f Failure) { failures = append(failures, f) }

	sum, err := NewRunner(cfg, gen, openStore(t, path), nil).Run(context.Background(), "system", tasks)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 1, sum.Failed)
	// 1 + 3 attempts + 1
	assert.Equal(t, int32(5), gen.calls.Load())

	require.Len(t, failures, 1)
	assert.Equal(t, "R00002", failures[0].Key.RecordID)
	assert.Equal(t, 3, failures[0].Attempts)

	persisted, err := checkpoint.Load[model.ExtractionRecord](path)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	for _, rec := range persisted {
		assert.NotEqual(t, "R00002", rec.RecordID)
	}

	// The abandoned item is picked up again by the next run.
	gen.failing = nil
	sum, err = NewRunner(testConfig(), gen, openStore(t, path), nil).Run(context.Background(), "system", tasks)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 2, sum.AlreadyDone)
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("timeout")).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req llm.Request) bool {
		return req.System == "system" && req.Temperature == 0 && req.MaxTokens == 64 && req.Model == "m"
	})).Return(&llm.Completion{Text: "ok", Model: "m"}, nil).Once()

	cfg := testConfig()
	cfg.Model = "m"
	store := openStore(t, filepath.Join(t.TempDir(), "x.yaml"))
	sum, err := NewRunner(cfg, gen, store, nil).Run(context.Background(), "system", []Task[model.ExtractionRecord]{
		extractionTask("R00001", "income"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Completed)
	assert.Equal(t, 0, sum.Failed)
	gen.AssertExpectations(t)
}

func TestRunMaxItems(t *testing.T) {
	tasks := []Task[model.ExtractionRecord]{
		extractionTask("R00001", "a"),
		extractionTask("R00002", "a"),
		extractionTask("R00003", "a"),
	}
	cfg := testConfig()
	cfg.MaxItems = 2

	gen := &echoGenerator{}
	sum, err := NewRunner(cfg, gen, openStore(t, filepath.Join(t.TempDir(), "x.yaml")), nil).Run(context.Background(), "system", tasks)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Submitted)
	assert.Equal(t, int32(2), gen.calls.Load())
}

func TestRunStoreErrorIsFatal(t *testing.T) {
	gen := &echoGenerator{}
	sum, err := NewRunner[model.ExtractionRecord](testConfig(), gen, failingStore{}, nil).Run(context.Background(), "system", []Task[model.ExtractionRecord]{
		extractionTask("R00001", "a"),
		extractionTask("R00002", "a"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, int32(1), gen.calls.Load())
	assert.Equal(t, 0, sum.Completed)
}

func TestRunContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := &echoGenerator{}
	var failures int
	cfg := testConfig()
	cfg.OnFailure = func(Failure) { failures++ }

	_, err := NewRunner(cfg, gen, openStore(t, filepath.Join(t.TempDir(), "x.yaml")), nil).Run(ctx, "system", []Task[model.ExtractionRecord]{
		extractionTask("R00001", "a"),
	})
	require.Error(t, err)
	assert.True(t, eris.Is(err, context.Canceled))
	assert.Equal(t, int32(0), gen.calls.Load())
	assert.Zero(t, failures)
}

func TestRunCountsUntrustedResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grades.yaml")
	store, err := checkpoint.Open[model.GradeRecord](path, checkpoint.ModeAppend, false)
	require.NoError(t, err)

	grade := func(id string) Task[model.GradeRecord] {
		return Task[model.GradeRecord]{
			Key:    model.Key{RecordID: id, Term: "income"},
			Prompt: id,
			Build: func(reply string) model.GradeRecord {
				return model.GradeRecord{RecordID: id, Term: "income", Grade: model.ParseGradeLabel(reply)}
			},
		}
	}

	gen := new(mockGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(r llm.Request) bool { return r.Prompt == "R00001" })).
		Return(&llm.Completion{Text: "Significant"}, nil)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(r llm.Request) bool { return r.Prompt == "R00002" })).
		Return(&llm.Completion{Text: "Mostly positive"}, nil)

	cfg := testConfig()
	cfg.Stage = model.StageGrade
	sum, err := NewRunner(cfg, gen, store, nil).Run(context.Background(), "system", []Task[model.GradeRecord]{grade("R00001"), grade("R00002")})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Completed)
	assert.Equal(t, 1, sum.Warnings)

	persisted, err := checkpoint.Load[model.GradeRecord](path)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	assert.Equal(t, "mostly positive", persisted[1].Grade.String())
}
