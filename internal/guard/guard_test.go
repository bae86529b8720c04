package guard_test

import (
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/guard"
	"flash-alliance/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	owner    model.Address = "0x00000000000000000000000000000000000000ad"
	stranger model.Address = "0x00000000000000000000000000000000000000ee"
)

func TestOwnable(t *testing.T) {
	o := guard.NewOwnable(owner)

	assert.Equal(t, owner, o.Owner())
	assert.NoError(t, o.CheckOwner(owner))
	assert.ErrorIs(t, o.CheckOwner(stranger), guard.ErrUnauthorizedAccount)
	assert.ErrorIs(t, o.CheckOwner(model.ZeroAddress), guard.ErrUnauthorizedAccount)
}

func TestPauseCycle(t *testing.T) {
	p := guard.NewPausable(owner)
	assert.False(t, p.Paused())
	assert.NoError(t, p.WhenNotPaused())

	assert.ErrorIs(t, p.Pause(stranger), guard.ErrUnauthorizedAccount)
	assert.ErrorIs(t, p.Unpause(owner), guard.ErrExpectedPause)

	assert.NoError(t, p.Pause(owner))
	assert.True(t, p.Paused())
	err := p.WhenNotPaused()
	assert.ErrorIs(t, err, guard.ErrEnforcedPause)
	assert.True(t, apperr.IsKind(err, apperr.KindPaused))
	assert.ErrorIs(t, p.Pause(owner), guard.ErrAlreadyPaused)

	assert.ErrorIs(t, p.Unpause(stranger), guard.ErrUnauthorizedAccount)
	assert.NoError(t, p.Unpause(owner))
	assert.NoError(t, p.WhenNotPaused())
}
