package model_test

import (
	"flash-alliance/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validParams() model.AllianceParams {
	return model.AllianceParams{
		TargetPrice:  model.NewAmount(1000),
		Duration:     7 * 24 * time.Hour,
		Participants: []model.Address{"0x00000000000000000000000000000000000000a1", "0x00000000000000000000000000000000000000b2"},
		Shares:       []uint8{60, 40},
		Admin:        "0x00000000000000000000000000000000000000ad",
	}
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, validParams().Validate())

	tests := []struct {
		name   string
		mutate func(p *model.AllianceParams)
		err    error
	}{
		{"length mismatch", func(p *model.AllianceParams) { p.Shares = []uint8{100} }, model.ErrLengthMismatch},
		{"empty", func(p *model.AllianceParams) { p.Participants, p.Shares = nil, nil }, model.ErrNoParticipants},
		{"zero target", func(p *model.AllianceParams) { p.TargetPrice = model.Amount{} }, model.ErrZeroTarget},
		{"zero duration", func(p *model.AllianceParams) { p.Duration = 0 }, model.ErrZeroDuration},
		{"zero admin", func(p *model.AllianceParams) { p.Admin = model.ZeroAddress }, model.ErrZeroAdministrator},
		{"zero participant", func(p *model.AllianceParams) { p.Participants[1] = model.ZeroAddress }, model.ErrZeroParticipant},
		{"duplicate", func(p *model.AllianceParams) { p.Participants[1] = p.Participants[0] }, model.ErrDuplicate},
		{"zero share", func(p *model.AllianceParams) { p.Shares = []uint8{100, 0} }, model.ErrZeroShare},
		{"sum", func(p *model.AllianceParams) { p.Shares = []uint8{60, 39} }, model.ErrSharesSum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validParams()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), tt.err)
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "funding", model.StateFunding.String())
	assert.Equal(t, "sold", model.StateSold.String())
	assert.Equal(t, 2, int(model.StateSold))
	assert.True(t, model.StateWithdrawn.IsTerminal())
	assert.False(t, model.StateHolding.IsTerminal())
}
