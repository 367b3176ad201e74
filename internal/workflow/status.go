package workflow

// Status is the execution state of a node within one run.
//
// Transitions: idle → running → {completed | error}; any idle or pending
// node may go directly to skipped; running → cancelled only on external
// abort. StatusTimeout and StatusCacheHit are assigned by the calling task
// layer, never by the core itself, but the core must carry them (the
// from-cache replay mode treats cache_hit like completed).
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
	StatusSkipped   Status = "skipped"
	StatusCancelled Status = "cancelled"
	StatusTimeout   Status = "timeout"
	StatusCacheHit  Status = "cache_hit"
)

// Terminal reports whether the status is a final state for the current pass.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusSkipped, StatusCancelled, StatusTimeout, StatusCacheHit:
		return true
	}
	return false
}
