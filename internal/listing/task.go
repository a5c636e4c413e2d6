package listing

import (
	"context"
	"errors"

	"coconet/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrSuperseded is the result of a task whose response was discarded
	// because a newer task was issued after it.
	ErrSuperseded = errors.New("fetch superseded by a newer request")
	ErrClosed     = errors.New("listing session closed")
)

// Task is the handle for one issued fetch.
type Task struct {
	ID     uuid.UUID
	Seq    uint64
	Filter models.ArticleFilter
	Page   models.PageRequest

	done    chan struct{}
	err     error
	applied bool
}

func newTask(seq uint64, filter models.ArticleFilter, page models.PageRequest) *Task {
	return &Task{
		ID:     uuid.New(),
		Seq:    seq,
		Filter: filter,
		Page:   page,
		done:   make(chan struct{}),
	}
}

func (t *Task) finish(err error, applied bool) {
	t.err = err
	t.applied = applied
	close(t.done)
}

func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the task completes or ctx ends. The returned error is the
// fetch error (already absorbed into the session state), ErrSuperseded,
// ErrClosed, or ctx.Err().
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Applied reports whether the task's outcome was written to the session.
// Valid only after Done is closed.
func (t *Task) Applied() bool {
	select {
	case <-t.done:
		return t.applied
	default:
		return false
	}
}
