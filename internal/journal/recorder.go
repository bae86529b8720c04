package journal

import (
	"context"
	"flash-alliance/internal/model"

	"github.com/sasha-s/go-deadlock"
)

// Recorder keeps events in memory. It is the store used when no database is
// configured, and doubles as a Publisher in tests.
type Recorder struct {
	mutex  deadlock.Mutex
	events []model.Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event model.Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.events = append(r.events, event)
}

func (r *Recorder) InsertEvent(ctx context.Context, event model.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.Publish(ctx, event)
	return nil
}

// Events returns the events of source, or every event when source is empty.
func (r *Recorder) Events(ctx context.Context, source model.Address) ([]model.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	out := make([]model.Event, 0, len(r.events))
	for _, event := range r.events {
		if source == "" || event.Source == source {
			out = append(out, event)
		}
	}
	return out, nil
}

// Kinds lists the kinds recorded so far, in order.
func (r *Recorder) Kinds() []model.EventKind {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	kinds := make([]model.EventKind, len(r.events))
	for i, event := range r.events {
		kinds[i] = event.Kind
	}
	return kinds
}
