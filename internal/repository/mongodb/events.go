package mongodb

import (
	"context"
	"errors"
	"flash-alliance/internal/model"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	eventsCollection = "events"
)

// storedEvent keeps times as UnixNano; BSON datetimes drop everything below a
// millisecond and the digest covers the full timestamp.
type storedEvent struct {
	EventID    string            `bson:"_id"`
	Source     string            `bson:"source"`
	Kind       string            `bson:"kind"`
	Actor      string            `bson:"actor"`
	Attributes map[string]string `bson:"attributes,omitempty"`
	OccurredAt int64             `bson:"occurredAt"`
	RecordedAt int64             `bson:"recordedAt"`
	Digest     string            `bson:"digest"`
}

func toStored(event model.Event, recordedAt time.Time) storedEvent {
	return storedEvent{
		EventID:    event.ID,
		Source:     event.Source.String(),
		Kind:       string(event.Kind),
		Actor:      event.Actor.String(),
		Attributes: event.Attributes,
		OccurredAt: event.OccurredAt.UnixNano(),
		RecordedAt: recordedAt.UnixNano(),
		Digest:     event.Digest,
	}
}

func (s storedEvent) toModel() model.Event {
	return model.Event{
		ID:         s.EventID,
		Source:     model.Address(s.Source),
		Kind:       model.EventKind(s.Kind),
		Actor:      model.Address(s.Actor),
		Attributes: s.Attributes,
		OccurredAt: time.Unix(0, s.OccurredAt).UTC(),
		Digest:     s.Digest,
	}
}

// eventFilter selects the events of one source, or all of them.
func eventFilter(source model.Address) bson.M {
	if source == "" {
		return bson.M{}
	}
	return bson.M{"source": source.String()}
}

func (b Repository) InsertEvent(ctx context.Context, event model.Event) error {
	if event.ID == "" {
		return errors.New("event ID is missing")
	}

	coll := b.client.Database(b.database).Collection(eventsCollection)

	data, err := bson.Marshal(toStored(event, time.Now()))
	if err != nil {
		return errors.New("failed to marshal the event: " + err.Error())
	}

	result, err := coll.InsertOne(ctx, data)
	if err != nil {
		return errors.New("failed to insert a new event: " + err.Error())
	}
	if result.InsertedID != event.ID {
		return errors.New(fmt.Sprint("inserted an event with unexpected ID: ", result.InsertedID, "; expected: ", event.ID))
	}

	b.logger.Debug("event stored", zap.String("id", event.ID), zap.String("kind", string(event.Kind)))
	return nil
}

// Events returns the events of source in the order they were stored.
func (b Repository) Events(ctx context.Context, source model.Address) ([]model.Event, error) {
	coll := b.client.Database(b.database).Collection(eventsCollection)

	opts := options.Find().SetSort(bson.D{{Key: "recordedAt", Value: 1}})
	cursor, err := coll.Find(ctx, eventFilter(source), opts)
	if err != nil {
		return nil, errors.New("failed to find the events: " + err.Error())
	}

	var stored []storedEvent
	if err := cursor.All(ctx, &stored); err != nil {
		return nil, errors.New("failed to get all events from the cursor: " + err.Error())
	}

	events := make([]model.Event, len(stored))
	for i, s := range stored {
		events[i] = s.toModel()
	}
	return events, nil
}
