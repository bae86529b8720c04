package alliance_test

import (
	"context"
	"errors"
	"flash-alliance/internal/alliance"
	"flash-alliance/internal/collectible"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"flash-alliance/internal/token"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	admin    model.Address = "0x00000000000000000000000000000000000000ad"
	alice    model.Address = "0x00000000000000000000000000000000000000a1"
	bob      model.Address = "0x00000000000000000000000000000000000000b0"
	carol    model.Address = "0x00000000000000000000000000000000000000c0"
	seller   model.Address = "0x00000000000000000000000000000000000005e1"
	buyer    model.Address = "0x0000000000000000000000000000000000000b00"
	stranger model.Address = "0x0000000000000000000000000000000000000e00"

	allianceAddress model.Address = "0x0000000000000000000000000000000000a11a00"
	itemID          uint64        = 1
	fundingWindow                 = 7 * 24 * time.Hour
)

var start = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func ether(value string) model.Amount {
	return model.MustParseUnits(value, model.DefaultDecimals)
}

type fixture struct {
	ctx      context.Context
	clock    *clock.Mock
	token    *token.Token
	balances *flakyBalances
	nft      *collectible.Registry
	registry *flakyRegistry
	events   *journal.Recorder
	alliance *alliance.Alliance
	members  []model.Address
	shares   []uint8
}

// flakyBalances fails pushes to failTo while set.
type flakyBalances struct {
	*token.Token
	failTo model.Address
}

func (f *flakyBalances) Transfer(ctx context.Context, from model.Address, to model.Address, amount model.Amount) error {
	if f.failTo != "" && to == f.failTo {
		return errors.New("receiver rejected the transfer")
	}
	return f.Token.Transfer(ctx, from, to, amount)
}

// flakyRegistry fails deliveries to failTo while set.
type flakyRegistry struct {
	*collectible.Registry
	failTo model.Address
}

func (f *flakyRegistry) TransferFrom(ctx context.Context, operator model.Address, from model.Address, to model.Address, id uint64) error {
	if f.failTo != "" && to == f.failTo {
		return errors.New("receiver cannot hold the item")
	}
	return f.Registry.TransferFrom(ctx, operator, from, to, id)
}

func newFixture(t *testing.T, shares ...uint8) *fixture {
	t.Helper()
	if len(shares) == 0 {
		shares = []uint8{50, 30, 20}
	}
	members := []model.Address{alice, bob, carol}[:len(shares)]

	ctx := context.Background()
	clk := clock.NewMock()
	clk.Set(start)

	tok := token.New(zap.NewNop(), "Flash USD", "fUSD", admin)
	for _, account := range append([]model.Address{buyer}, members...) {
		require.NoError(t, tok.Mint(ctx, admin, account, ether("5000")))
	}

	nft := collectible.New(zap.NewNop(), "Mock NFT", "MNFT")
	require.NoError(t, nft.Mint(ctx, seller, itemID))

	f := &fixture{
		ctx:      ctx,
		clock:    clk,
		token:    tok,
		balances: &flakyBalances{Token: tok},
		nft:      nft,
		registry: &flakyRegistry{Registry: nft},
		events:   journal.NewRecorder(),
		members:  members,
		shares:   shares,
	}

	resolver := alliance.AssetResolverFunc(func(collection model.Address) (alliance.AssetRegistry, error) {
		if collection != nft.Address() {
			return nil, collectible.ErrUnknownCollection
		}
		return f.registry, nil
	})

	params := model.AllianceParams{
		TargetPrice:  ether("1000"),
		Duration:     fundingWindow,
		Participants: members,
		Shares:       shares,
		Admin:        admin,
	}
	a, err := alliance.New(allianceAddress, params, f.balances, resolver,
		alliance.WithClock(clk), alliance.WithLogger(zap.NewNop()), alliance.WithPublisher(f.events))
	require.NoError(t, err)
	f.alliance = a

	for _, account := range append([]model.Address{buyer}, members...) {
		require.NoError(t, tok.Approve(ctx, account, a.Address(), ether("5000")))
	}

	return f
}

// fund deposits every member's share of the target.
func (f *fixture) fund(t *testing.T) {
	t.Helper()
	for i, member := range f.members {
		amount := ether("1000").MulDiv(uint64(f.shares[i]), 100)
		require.NoError(t, f.alliance.Deposit(f.ctx, member, amount))
	}
}

func (f *fixture) acquire(t *testing.T) {
	t.Helper()
	require.NoError(t, f.nft.Approve(f.ctx, seller, f.alliance.Address(), itemID))
	require.NoError(t, f.alliance.AcquireAsset(f.ctx, f.members[0], f.nft.Address(), itemID, seller))
}

func (f *fixture) holding(t *testing.T) *fixture {
	f.fund(t)
	f.acquire(t)
	return f
}

func (f *fixture) owner(t *testing.T) model.Address {
	t.Helper()
	owner, err := f.nft.OwnerOf(f.ctx, itemID)
	require.NoError(t, err)
	return owner
}
