package resilience

import (
	"time"

	"github.com/sells-group/evidence-cli/internal/model"
)

// DLQEntry records a work item that was abandoned after exhausting its
// retries. The item stays pending in its checkpoint store and is attempted
// again by the next run; the entry is an audit record only.
type DLQEntry struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Stage     model.Stage `json:"stage"`
	Key       model.Key   `json:"key"`
	Error     string      `json:"error"`
	ErrorType string      `json:"error_type"` // "transient" or "permanent"
	Attempts  int         `json:"attempts"`
	CreatedAt time.Time   `json:"created_at"`
}

// DLQFilter specifies criteria for querying the dead letter queue.
type DLQFilter struct {
	RunID     string      `json:"run_id,omitempty"`
	Stage     model.Stage `json:"stage,omitempty"`
	ErrorType string      `json:"error_type,omitempty"` // "transient", "permanent", or "" for all
	Limit     int         `json:"limit,omitempty"`
}

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
