package journal

import (
	"context"
	"errors"
	"flash-alliance/internal/hashing"
	"flash-alliance/internal/model"
	"time"

	"github.com/fxamacker/cbor"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher receives every state change of alliances, the factory and the faucet.
// Publishing never fails the ledger operation that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event model.Event)
}

// Store persists published events in publication order.
type Store interface {
	InsertEvent(ctx context.Context, event model.Event) error
	Events(ctx context.Context, source model.Address) ([]model.Event, error)
}

type Nop struct{}

func (Nop) Publish(context.Context, model.Event) {}

// Digest hashes the canonical CBOR form of the event body. ID and Digest are
// excluded so the digest only depends on what happened.
func Digest(event model.Event) (string, error) {
	opts := cbor.CanonicalEncOptions()
	opts.TimeRFC3339 = true

	data, err := cbor.Marshal(event, opts)
	if err != nil {
		return "", errors.New("failed to encode the event: " + err.Error())
	}

	return hashing.Calculate(data), nil
}

// DefaultStoreTimeout bounds a single InsertEvent call.
const DefaultStoreTimeout = 5 * time.Second

// Sink stamps, logs and stores events.
type Sink struct {
	store        Store
	storeTimeout time.Duration
	logger       *zap.Logger
}

type SinkOption func(s *Sink)

// WithStoreTimeout bounds how long Publish waits for the store. Publishers
// call it while holding their own lock.
func WithStoreTimeout(timeout time.Duration) SinkOption {
	return func(s *Sink) {
		if timeout > 0 {
			s.storeTimeout = timeout
		}
	}
}

func NewSink(logger *zap.Logger, store Store, opts ...SinkOption) *Sink {
	if store == nil {
		store = NewRecorder()
	}
	s := &Sink{store: store, storeTimeout: DefaultStoreTimeout, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) StoreTimeout() time.Duration {
	return s.storeTimeout
}

func (s *Sink) Publish(ctx context.Context, event model.Event) {
	event.ID = uuid.NewString()

	digest, err := Digest(event)
	if err != nil {
		s.logger.Error("event digest failed: "+err.Error(), zap.String("kind", string(event.Kind)))
	}
	event.Digest = digest

	s.logger.Info("event",
		zap.String("kind", string(event.Kind)),
		zap.String("source", event.Source.String()),
		zap.String("actor", event.Actor.String()),
		zap.Any("attributes", event.Attributes),
		zap.String("id", event.ID))

	// the ledger change already happened, detach from the caller's cancellation
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.storeTimeout)
	defer cancel()

	if err := s.store.InsertEvent(storeCtx, event); err != nil {
		s.logger.Error("failed to store the event: "+err.Error(), zap.String("id", event.ID), zap.String("kind", string(event.Kind)))
	}
}

func (s *Sink) Events(ctx context.Context, source model.Address) ([]model.Event, error) {
	return s.store.Events(ctx, source)
}
