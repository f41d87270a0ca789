package partition

import "errors"

// NotFoundError is returned when no record exists for a message id.
type NotFoundError struct {
	MessageID string
}

func (e NotFoundError) Error() string {
	if e.MessageID == "" {
		return "partition record not found"
	}

	return "partition record not found: " + e.MessageID
}

// ErrUnavailable indicates the backing store cannot be reached. The
// orchestrator treats it as fatal to the whole run.
var ErrUnavailable = errors.New("partition store unavailable")
