package model

import "time"

// Stage names one pass of the pipeline.
type Stage string

const (
	StageScrape   Stage = "scrape"
	StageExtract  Stage = "extract"
	StageGrade    Stage = "grade"
	StageForecast Stage = "forecast"
)

// RunStatus represents the current state of a stage run.
type RunStatus string

const (
	RunStatusRunning     RunStatus = "running"
	RunStatusComplete    RunStatus = "complete"
	RunStatusInterrupted RunStatus = "interrupted"
	RunStatusFailed      RunStatus = "failed"
)

// Run is one invocation of a pipeline stage, as kept in the run ledger.
type Run struct {
	ID        string      `json:"id"`
	Stage     Stage       `json:"stage"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// RunSummary tallies what a stage run did.
type RunSummary struct {
	Stage        Stage   `json:"stage"`
	Total        int     `json:"total"`
	Submitted    int     `json:"submitted"`
	Completed    int     `json:"completed"`
	AlreadyDone  int     `json:"already_done"`
	Duplicates   int     `json:"duplicates"`
	Failed       int     `json:"failed"`
	Warnings     int     `json:"warnings"`
	Skipped      int     `json:"skipped"`
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost"`
	DurationMs   int64   `json:"duration_ms"`
}
