package addressing_test

import (
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/hashing"
	"flash-alliance/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAllianceAddress(t *testing.T) {
	hashing.Initialize(zap.NewNop())

	factory := addressing.FactoryAddress("0x00000000000000000000000000000000000000ad")
	first := addressing.AllianceAddress(factory, 0)
	second := addressing.AllianceAddress(factory, 1)

	assert.Len(t, first.String(), 42)
	assert.NotEqual(t, first, second)
	assert.Equal(t, first, addressing.AllianceAddress(factory, 0))

	parsed, err := model.ParseAddress(first.String())
	require.NoError(t, err)
	assert.Equal(t, first, parsed)

	// same family namespace, different prefix
	account := addressing.AccountAddress("02abcdef")
	assert.Equal(t, first.String()[:8], account.String()[:8])
	assert.NotEqual(t, first.String()[8:14], account.String()[8:14])
}
