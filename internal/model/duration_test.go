package model_test

import (
	"flash-alliance/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeconds(t *testing.T) {
	d, err := model.Seconds(3600)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = model.Seconds(model.MaxDurationSeconds)
	require.NoError(t, err)
	assert.Greater(t, d, time.Duration(0))

	_, err = model.Seconds(0)
	assert.ErrorIs(t, err, model.ErrNonPositiveSeconds)
	_, err = model.Seconds(-5)
	assert.ErrorIs(t, err, model.ErrNonPositiveSeconds)
	_, err = model.Seconds(20_000_000_000)
	assert.ErrorIs(t, err, model.ErrSecondsOverflow)
	_, err = model.Seconds(model.MaxDurationSeconds + 1)
	assert.ErrorIs(t, err, model.ErrSecondsOverflow)
}
