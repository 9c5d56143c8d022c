package jobs

import "time"

// Status is the lifecycle state of a transcription job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition can occur.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// isValidTransition enforces the allowed job state machine edges.
// Progression is strictly monotonic; terminal states have no exits.
func isValidTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed
	default:
		return false
	}
}

// FilePayload is an uploaded audio file held in memory for the job's lifetime.
type FilePayload struct {
	Data      []byte
	Name      string
	MediaType string
}

// Job is one transcription request's lifecycle record.
type Job struct {
	// ID is the opaque lookup key, generated at submission time.
	ID string
	// Status is the current lifecycle state.
	Status Status
	// File is the audio payload to transcribe.
	File FilePayload
	// APIKey is the caller-supplied provider credential. It is forwarded on
	// the remote call and never exposed through status reads.
	APIKey string
	// Language is an optional language hint passed through to the provider.
	Language string
	// Result holds the transcript text once the job completes.
	Result string
	// Error holds a failure description once the job fails.
	Error string
	// CreatedAt is when the job was submitted.
	CreatedAt time.Time
	// DoneAt is when the job reached a terminal state.
	DoneAt time.Time
}

// StatusView is the client-visible projection of a job. Result and Error are
// only populated in a terminal state; callers branch on Status.
type StatusView struct {
	Status Status `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// View returns the status projection of the job. The credential and payload
// never appear here.
func (j *Job) View() StatusView {
	return StatusView{
		Status: j.Status,
		Result: j.Result,
		Error:  j.Error,
	}
}
