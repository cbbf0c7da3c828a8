package queue

import (
	"errors"
	"fmt"
)

// Common errors returned by queue operations.
var (
	// ErrEmptyTopic indicates a topic that is empty after trimming whitespace.
	ErrEmptyTopic = errors.New("topic is empty")

	// ErrCorrupt indicates a queue file that cannot be interpreted as a
	// message envelope or list. Returned errors carry detail as a
	// *CorruptError; match with errors.Is(err, ErrCorrupt).
	ErrCorrupt = errors.New("corrupt queue file")
)

// CorruptError reports a queue data file whose contents are not a valid
// envelope or bare message list. It is distinct from an empty queue: a
// missing or whitespace-only file is not corruption.
type CorruptError struct {
	Topic string
	Path  string
	Err   error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt queue file for topic %q: %s: %v", e.Topic, e.Path, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

func (e *CorruptError) Is(target error) bool { return target == ErrCorrupt }
