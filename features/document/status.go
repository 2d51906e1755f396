package document

import "errors"

// Status is a document's processing lifecycle state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

// Event is something that happened to an ingestion.
type Event string

const (
	EventProcessingStarted   Event = "processing_started"
	EventProcessingCompleted Event = "processing_completed"
	EventProcessingFailed    Event = "processing_failed"
)

var ErrIllegalTransition = errors.New("illegal status transition")

// Transition returns the status that follows current after event. COMPLETED
// and FAILED are terminal; nothing leaves them. A failure is accepted from
// both PENDING and PROCESSING, since an ingestion can die before it manages
// to mark itself as started.
func Transition(current Status, event Event) (Status, error) {
	switch event {
	case EventProcessingStarted:
		if current == StatusPending {
			return StatusProcessing, nil
		}
	case EventProcessingCompleted:
		if current == StatusProcessing {
			return StatusCompleted, nil
		}
	case EventProcessingFailed:
		if current == StatusPending || current == StatusProcessing {
			return StatusFailed, nil
		}
	}
	return current, ErrIllegalTransition
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}
