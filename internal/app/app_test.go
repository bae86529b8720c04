package app

import (
	"context"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/faucet"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"flash-alliance/internal/registry"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	deployer model.Address = "0x00000000000000000000000000000000000000d0"
	alice    model.Address = "0x00000000000000000000000000000000000000a1"
	bob      model.Address = "0x00000000000000000000000000000000000000b2"
	carol    model.Address = "0x00000000000000000000000000000000000000c3"
	seller   model.Address = "0x00000000000000000000000000000000000000e4"
	buyer    model.Address = "0x00000000000000000000000000000000000000f5"
)

var start = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func units(value string) model.Amount {
	return model.MustParseUnits(value, model.DefaultDecimals)
}

func newTestApp(t *testing.T) (*App, *clock.Mock, *journal.Recorder) {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(start)
	store := journal.NewRecorder()

	a, err := NewApp(zap.NewNop(), store, Config{
		Deployer:    deployer,
		TokenName:   "Flash Alliance Token",
		TokenSymbol: "FATK",
	}, WithClock(clk))
	require.NoError(t, err)
	return a, clk, store
}

func TestNewAppRequiresDeployer(t *testing.T) {
	_, err := NewApp(zap.NewNop(), nil, Config{TokenSymbol: "FATK"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestAllianceLifecycle(t *testing.T) {
	ctx := context.Background()
	a, clk, _ := newTestApp(t)

	for _, account := range []model.Address{alice, bob, carol} {
		require.NoError(t, a.Mint(ctx, deployer, account, units("1000")))
	}
	require.NoError(t, a.Mint(ctx, deployer, buyer, units("2000")))

	collection, err := a.CreateCollection(ctx, deployer, "Mock", "MOCK")
	require.NoError(t, err)
	require.NoError(t, a.MintItem(ctx, collection, seller, 7))

	address, err := a.CreateAlliance(ctx, deployer, units("1000"), 7*24*time.Hour,
		[]model.Address{alice, bob, carol}, []uint8{50, 30, 20})
	require.NoError(t, err)
	assert.Equal(t, []model.Address{address}, a.Alliances())
	at, err := a.AllianceAt(0)
	require.NoError(t, err)
	assert.Equal(t, address, at)

	deposits := map[model.Address]string{alice: "500", bob: "300", carol: "200"}
	for account, amount := range deposits {
		require.NoError(t, a.Approve(ctx, account, address, units(amount)))
		require.NoError(t, a.Deposit(ctx, address, account, units(amount)))
	}

	require.NoError(t, a.ApproveItem(ctx, seller, collection, address, 7))
	require.NoError(t, a.AcquireAsset(ctx, address, bob, collection, 7, seller))

	owner, err := a.OwnerOf(ctx, collection, 7)
	require.NoError(t, err)
	assert.Equal(t, address, owner)
	assert.Equal(t, units("1000"), a.BalanceOf(seller))

	deadline := clk.Now().Add(24 * time.Hour)
	require.NoError(t, a.VoteToSell(ctx, address, alice, buyer, units("1500"), deadline))
	require.NoError(t, a.VoteToSell(ctx, address, bob, buyer, units("1500"), deadline))
	require.NoError(t, a.Approve(ctx, buyer, address, units("1500")))
	require.NoError(t, a.ExecuteSale(ctx, address, carol))

	snapshot, err := a.Alliance(address)
	require.NoError(t, err)
	assert.Equal(t, model.StateSold.String(), snapshot.State)
	owner, err = a.OwnerOf(ctx, collection, 7)
	require.NoError(t, err)
	assert.Equal(t, buyer, owner)
	assert.Equal(t, units("1250"), a.BalanceOf(alice))
	assert.Equal(t, units("1150"), a.BalanceOf(bob))
	assert.Equal(t, units("1100"), a.BalanceOf(carol))

	events, err := a.Events(ctx, address)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	for _, event := range events {
		assert.True(t, event.Verified, event.Kind)
		assert.NotEmpty(t, event.ID)
	}

	factoryEvents, err := a.Events(ctx, a.FactoryAddress())
	require.NoError(t, err)
	require.Len(t, factoryEvents, 1)
	assert.Equal(t, model.EventAllianceCreated, factoryEvents[0].Kind)
}

func TestEventsDetectTampering(t *testing.T) {
	ctx := context.Background()
	a, _, store := newTestApp(t)

	_, err := a.CreateAlliance(ctx, deployer, units("10"), time.Hour, []model.Address{alice, bob}, []uint8{60, 40})
	require.NoError(t, err)

	forged := model.NewEvent(a.FactoryAddress(), model.EventAllianceCreated, alice, start)
	forged.ID = "forged"
	forged.Digest = "not-a-digest"
	require.NoError(t, store.InsertEvent(ctx, forged))

	events, err := a.Events(ctx, a.FactoryAddress())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].Verified)
	assert.False(t, events[1].Verified)
}

func TestUnknownAlliance(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	err := a.Deposit(ctx, alice, alice, units("1"))
	assert.ErrorIs(t, err, registry.ErrNotFound)
	assert.True(t, IsNotFound(err))

	_, err = a.AllianceAt(3)
	assert.True(t, IsNotFound(err))

	_, err = a.OwnerOf(ctx, alice, 1)
	assert.True(t, IsNotFound(err))
}

func TestAlliancePauseThroughApp(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	address, err := a.CreateAlliance(ctx, deployer, units("10"), time.Hour, []model.Address{alice, bob}, []uint8{60, 40})
	require.NoError(t, err)

	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(a.PauseAlliance(ctx, address, alice)))
	require.NoError(t, a.PauseAlliance(ctx, address, deployer))
	assert.Equal(t, apperr.KindPaused, apperr.KindOf(a.Deposit(ctx, address, alice, units("1"))))
	require.NoError(t, a.UnpauseAlliance(ctx, address, deployer))

	err = a.Deposit(ctx, address, alice, units("1"))
	assert.Equal(t, apperr.KindTransfer, apperr.KindOf(err))
}

func TestFaucetThroughApp(t *testing.T) {
	ctx := context.Background()
	a, clk, _ := newTestApp(t)

	assert.ErrorIs(t, a.Claim(ctx, alice), ErrNoFaucet)
	_, err := a.FaucetInfo()
	assert.True(t, IsNotFound(err))

	address, err := a.DeployFaucet(ctx, deployer, units("10"), time.Hour)
	require.NoError(t, err)
	_, err = a.DeployFaucet(ctx, deployer, units("10"), time.Hour)
	assert.ErrorIs(t, err, ErrFaucetDeployed)

	require.NoError(t, a.Mint(ctx, deployer, address, units("100")))
	require.NoError(t, a.Claim(ctx, alice))
	assert.ErrorIs(t, a.Claim(ctx, alice), faucet.ErrCooldownActive)

	next, last, claimed, err := a.NextClaimAt(alice)
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.Equal(t, start, last)
	assert.Equal(t, start.Add(time.Hour), next)

	clk.Add(time.Hour)
	require.NoError(t, a.Claim(ctx, alice))
	assert.Equal(t, units("20"), a.BalanceOf(alice))

	require.NoError(t, a.SetClaimAmount(ctx, deployer, units("5")))
	require.NoError(t, a.SetClaimCooldown(ctx, deployer, time.Minute))
	require.NoError(t, a.WithdrawFaucet(ctx, deployer, bob, units("30")))

	info, err := a.FaucetInfo()
	require.NoError(t, err)
	assert.Equal(t, units("50"), info.Balance)
	assert.Equal(t, units("5"), info.ClaimAmount)
	assert.Equal(t, time.Minute, info.ClaimCooldown)
	assert.Equal(t, deployer, info.Owner)
}

func TestTokenPauseBlocksDeposits(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newTestApp(t)

	address, err := a.CreateAlliance(ctx, deployer, units("10"), time.Hour, []model.Address{alice, bob}, []uint8{60, 40})
	require.NoError(t, err)
	require.NoError(t, a.Mint(ctx, deployer, alice, units("10")))
	require.NoError(t, a.Approve(ctx, alice, address, units("10")))

	require.NoError(t, a.PauseToken(ctx, deployer))
	assert.True(t, a.TokenInfo().Paused)

	err = a.Deposit(ctx, address, alice, units("5"))
	assert.Equal(t, apperr.KindTransfer, apperr.KindOf(err))
	snapshot, err := a.Alliance(address)
	require.NoError(t, err)
	assert.True(t, snapshot.TotalDeposited.IsZero())

	require.NoError(t, a.UnpauseToken(ctx, deployer))
	require.NoError(t, a.Deposit(ctx, address, alice, units("5")))
	assert.Equal(t, units("5"), a.Allowance(alice, address))
}

// slowStore holds every write until its context expires.
type slowStore struct {
	journal.Recorder
}

func (s *slowStore) InsertEvent(ctx context.Context, event model.Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestSlowJournalDoesNotHoldAlliances(t *testing.T) {
	ctx := context.Background()
	a, err := NewApp(zap.NewNop(), &slowStore{}, Config{
		Deployer:       deployer,
		TokenSymbol:    "FATK",
		JournalTimeout: 30 * time.Millisecond,
	})
	require.NoError(t, err)

	members := []model.Address{alice, bob, carol}
	address, err := a.CreateAlliance(ctx, deployer, units("30"), time.Hour, members, []uint8{40, 30, 30})
	require.NoError(t, err)
	for _, member := range members {
		require.NoError(t, a.Mint(ctx, deployer, member, units("10")))
		require.NoError(t, a.Approve(ctx, member, address, units("10")))
	}

	started := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, len(members))
	for i, member := range members {
		wg.Add(1)
		go func(i int, member model.Address) {
			defer wg.Done()
			errs[i] = a.Deposit(ctx, address, member, units("10"))
		}(i, member)
	}
	wg.Wait()

	assert.Less(t, time.Since(started), 5*time.Second)
	for _, err := range errs {
		assert.NoError(t, err)
	}
	snapshot, err := a.Alliance(address)
	require.NoError(t, err)
	assert.Equal(t, units("30"), snapshot.TotalDeposited)
}
