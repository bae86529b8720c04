package registry

import (
	"context"
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/alliance"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"strconv"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var (
	ErrLengthMismatch = apperr.New(apperr.KindValidation, "factory: length mismatch")
	ErrSharesSum      = apperr.New(apperr.KindValidation, "factory: shares must sum to 100")
	ErrZeroToken      = apperr.New(apperr.KindValidation, "factory: zero token")
	ErrOutOfRange     = apperr.New(apperr.KindValidation, "factory: index out of range")
	ErrNotFound       = apperr.New(apperr.KindValidation, "factory: unknown alliance")
)

// Factory creates alliances and keeps the append-only list of everything it
// created.
type Factory struct {
	mutex deadlock.RWMutex

	address   model.Address
	alliances []*alliance.Alliance
	byAddress map[model.Address]*alliance.Alliance

	assets alliance.AssetResolver
	clock  clock.Clock
	events journal.Publisher
	logger *zap.Logger
}

func New(logger *zap.Logger, address model.Address, assets alliance.AssetResolver, clk clock.Clock, events journal.Publisher) *Factory {
	if clk == nil {
		clk = clock.New()
	}
	if events == nil {
		events = journal.Nop{}
	}
	return &Factory{
		address:   address,
		byAddress: make(map[model.Address]*alliance.Alliance),
		assets:    assets,
		clock:     clk,
		events:    events,
		logger:    logger,
	}
}

func (f *Factory) Address() model.Address {
	return f.address
}

// CreateAlliance validates the terms, creates the alliance with caller as its
// administrator and registers it.
func (f *Factory) CreateAlliance(ctx context.Context, caller model.Address, targetPrice model.Amount, duration time.Duration,
	participants []model.Address, shares []uint8, balances alliance.BalanceProvider) (*alliance.Alliance, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(participants) != len(shares) {
		return nil, ErrLengthMismatch
	}
	sum := 0
	for _, share := range shares {
		sum += int(share)
	}
	if sum != model.SharesTotal {
		return nil, ErrSharesSum
	}
	if balances == nil {
		return nil, ErrZeroToken
	}

	params := model.AllianceParams{
		TargetPrice:  targetPrice,
		Duration:     duration,
		Participants: participants,
		Shares:       shares,
		Admin:        caller,
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	index := len(f.alliances)
	address := addressing.AllianceAddress(f.address, index)

	created, err := alliance.New(address, params, balances, f.assets,
		alliance.WithClock(f.clock),
		alliance.WithLogger(f.logger),
		alliance.WithPublisher(f.events))
	if err != nil {
		return nil, err
	}

	f.alliances = append(f.alliances, created)
	f.byAddress[address] = created

	members := make([]string, len(participants))
	for i, participant := range participants {
		members[i] = participant.String() + ":" + strconv.Itoa(int(shares[i]))
	}

	f.logger.Info("alliance created", zap.String("alliance", address.String()), zap.String("admin", caller.String()), zap.Int("index", index))
	f.events.Publish(ctx, model.NewEvent(f.address, model.EventAllianceCreated, caller, f.clock.Now(),
		"alliance", address.String(),
		"index", strconv.Itoa(index),
		"targetPrice", targetPrice.String(),
		"deadline", created.FundingDeadline().Format(time.RFC3339),
		"participants", strings.Join(members, ",")))

	return created, nil
}

func (f *Factory) Len() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return len(f.alliances)
}

// At returns the alliance created index-th.
func (f *Factory) At(index int) (*alliance.Alliance, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	if index < 0 || index >= len(f.alliances) {
		return nil, ErrOutOfRange
	}
	return f.alliances[index], nil
}

func (f *Factory) Get(address model.Address) (*alliance.Alliance, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	found, ok := f.byAddress[address]
	if !ok {
		return nil, ErrNotFound
	}
	return found, nil
}

// Alliances lists every created alliance address in creation order.
func (f *Factory) Alliances() []model.Address {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	out := make([]model.Address, len(f.alliances))
	for i, created := range f.alliances {
		out[i] = created.Address()
	}
	return out
}
