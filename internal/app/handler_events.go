package app

import (
	"context"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"fmt"

	"go.uber.org/zap"
)

// VerifiedEvent is a journal entry together with the result of re-hashing it.
type VerifiedEvent struct {
	model.Event
	Verified bool `json:"verified"`
}

// Events reads the journal of source (all sources when empty) and checks every
// stored digest against the event body.
func (a *App) Events(ctx context.Context, source model.Address) ([]VerifiedEvent, error) {
	events, err := a.journal.Events(ctx, source)
	if err != nil {
		return nil, err
	}

	verified := 0
	out := make([]VerifiedEvent, len(events))
	for i, event := range events {
		out[i] = VerifiedEvent{Event: event}

		digest, err := journal.Digest(event)
		if err != nil {
			a.logger.Error("error when hashing the event: "+err.Error(), zap.String("id", event.ID))
			continue
		}
		if digest != event.Digest {
			a.logger.Warn("event digest mismatch", zap.String("id", event.ID), zap.String("kind", string(event.Kind)))
			continue
		}
		out[i].Verified = true
		verified++
	}

	a.logger.Debug(fmt.Sprint("event digests checked, ", verified, "/", len(events), " verified"), zap.String("source", source.String()))
	return out, nil
}
