package mongodb

import (
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEventFilter(t *testing.T) {
	assert.Equal(t, bson.M{}, eventFilter(""))

	source := model.Address("0x00000000000000000000000000000000000000a1")
	assert.Equal(t, bson.M{"source": source.String()}, eventFilter(source))
}

func TestStoredEventDocument(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	event := model.NewEvent("0x00000000000000000000000000000000000000a1", model.EventDeposited,
		"0x00000000000000000000000000000000000000b0", at, "amount", "10")
	event.ID = "4f1c"
	event.Digest = "abcd"

	data, err := bson.Marshal(toStored(event, at.Add(time.Second)))
	require.NoError(t, err)

	var raw bson.M
	require.NoError(t, bson.Unmarshal(data, &raw))
	assert.Equal(t, "4f1c", raw["_id"])
	assert.Equal(t, "Deposited", raw["kind"])

	var decoded storedEvent
	require.NoError(t, bson.Unmarshal(data, &decoded))
	back := decoded.toModel()
	assert.Equal(t, event.Attributes, back.Attributes)
	assert.True(t, event.OccurredAt.Equal(back.OccurredAt))
	assert.Equal(t, event.Digest, back.Digest)
}

func TestStoredEventKeepsDigest(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC)
	event := model.NewEvent("0x00000000000000000000000000000000000000a1", model.EventSaleExecuted,
		"0x00000000000000000000000000000000000000b0", at, "price", "1500")
	event.ID = "9e2a"

	digest, err := journal.Digest(event)
	require.NoError(t, err)
	event.Digest = digest

	data, err := bson.Marshal(toStored(event, time.Now()))
	require.NoError(t, err)

	var decoded storedEvent
	require.NoError(t, bson.Unmarshal(data, &decoded))
	back := decoded.toModel()

	assert.Equal(t, at, back.OccurredAt)
	rehashed, err := journal.Digest(back)
	require.NoError(t, err)
	assert.Equal(t, event.Digest, rehashed)
}
