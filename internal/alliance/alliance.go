package alliance

import (
	"context"
	"flash-alliance/internal/guard"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

const (
	// MajorityQuorum is the weight needed for a sale at or above the reserve
	// price and for an emergency withdrawal: strictly more than half.
	MajorityQuorum uint = 51
	// LossQuorum is the weight needed for a sale below the reserve price.
	LossQuorum uint = 80
)

// BalanceProvider moves the pooled fungible balance.
type BalanceProvider interface {
	Transfer(ctx context.Context, from model.Address, to model.Address, amount model.Amount) error
	TransferFrom(ctx context.Context, spender model.Address, from model.Address, to model.Address, amount model.Amount) error
}

// AssetRegistry tracks ownership of the items of one collection.
type AssetRegistry interface {
	OwnerOf(ctx context.Context, itemID uint64) (model.Address, error)
	TransferFrom(ctx context.Context, operator model.Address, from model.Address, to model.Address, itemID uint64) error
}

type AssetResolver interface {
	Resolve(collection model.Address) (AssetRegistry, error)
}

type AssetResolverFunc func(collection model.Address) (AssetRegistry, error)

func (f AssetResolverFunc) Resolve(collection model.Address) (AssetRegistry, error) {
	return f(collection)
}

type saleProposal struct {
	buyer    model.Address
	price    model.Amount
	deadline time.Time
	weight   uint
	voters   []model.Address
	voted    map[model.Address]bool
}

type emergencyProposal struct {
	recipient model.Address
	weight    uint
	voters    []model.Address
	voted     map[model.Address]bool
}

// Alliance is one funding pool and governance unit for a single asset.
// Every entry point holds the instance lock for its whole duration, external
// transfers included, so calls on one alliance never interleave.
type Alliance struct {
	mutex deadlock.Mutex
	guard guard.Pausable

	address         model.Address
	targetPrice     model.Amount
	minSalePrice    model.Amount
	fundingDeadline time.Time

	participants  []model.Address
	shares        map[model.Address]uint8
	dustRecipient model.Address

	deposits       map[model.Address]model.Amount
	totalDeposited model.Amount
	proceeds       map[model.Address]model.Amount

	state     model.AllianceState
	asset     *model.HeldAsset
	registry  AssetRegistry
	sale      *saleProposal
	emergency *emergencyProposal

	balances BalanceProvider
	assets   AssetResolver
	clock    clock.Clock
	events   journal.Publisher
	logger   *zap.Logger
}

type Option func(a *Alliance)

func WithClock(c clock.Clock) Option {
	return func(a *Alliance) { a.clock = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Alliance) { a.logger = logger }
}

func WithPublisher(events journal.Publisher) Option {
	return func(a *Alliance) { a.events = events }
}

func New(address model.Address, params model.AllianceParams, balances BalanceProvider, assets AssetResolver, opts ...Option) (*Alliance, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if balances == nil {
		return nil, ErrNoBalances
	}
	if assets == nil {
		return nil, ErrNoAssetResolver
	}

	a := &Alliance{
		guard:        guard.NewPausable(params.Admin),
		address:      address,
		targetPrice:  params.TargetPrice,
		minSalePrice: params.TargetPrice,
		participants: append([]model.Address(nil), params.Participants...),
		shares:       make(map[model.Address]uint8, len(params.Participants)),
		deposits:     make(map[model.Address]model.Amount, len(params.Participants)),
		proceeds:     make(map[model.Address]model.Amount),
		state:        model.StateFunding,
		balances:     balances,
		assets:       assets,
		clock:        clock.New(),
		events:       journal.Nop{},
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	var largest uint8
	for i, participant := range a.participants {
		a.shares[participant] = params.Shares[i]
		if params.Shares[i] > largest {
			largest = params.Shares[i]
			a.dustRecipient = participant
		}
	}
	a.fundingDeadline = a.clock.Now().Add(params.Duration)
	a.logger = a.logger.With(zap.String("alliance", address.String()))

	return a, nil
}

func (a *Alliance) Address() model.Address {
	return a.address
}

func (a *Alliance) Owner() model.Address {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.guard.Owner()
}

func (a *Alliance) Paused() bool {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.guard.Paused()
}

func (a *Alliance) State() model.AllianceState {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.state
}

func (a *Alliance) TargetPrice() model.Amount {
	return a.targetPrice
}

func (a *Alliance) MinSalePrice() model.Amount {
	return a.minSalePrice
}

func (a *Alliance) FundingDeadline() time.Time {
	return a.fundingDeadline
}

func (a *Alliance) Participants() []model.Address {
	return append([]model.Address(nil), a.participants...)
}

// SharePercent is zero for accounts outside the alliance.
func (a *Alliance) SharePercent(account model.Address) uint8 {
	return a.shares[account]
}

func (a *Alliance) Deposited(account model.Address) model.Amount {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.deposits[account]
}

func (a *Alliance) TotalDeposited() model.Amount {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.totalDeposited
}

// Proceeds is the sale payout still owed to account after a failed push.
func (a *Alliance) Proceeds(account model.Address) model.Amount {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.proceeds[account]
}

func (a *Alliance) HeldAsset() (model.HeldAsset, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.asset == nil {
		return model.HeldAsset{}, false
	}
	return *a.asset, true
}

func (a *Alliance) SaleProposal() (model.SaleProposal, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.sale == nil {
		return model.SaleProposal{}, false
	}
	return a.sale.view(), true
}

// ProposedPrice is zero when no sale proposal is live.
func (a *Alliance) ProposedPrice() model.Amount {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.sale == nil {
		return model.Amount{}
	}
	return a.sale.price
}

func (a *Alliance) EmergencyProposal() (model.EmergencyProposal, bool) {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.emergency == nil {
		return model.EmergencyProposal{}, false
	}
	return a.emergency.view(), true
}

func (a *Alliance) Snapshot() model.AllianceSnapshot {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	snapshot := model.AllianceSnapshot{
		Address:         a.address,
		Admin:           a.guard.Owner(),
		Paused:          a.guard.Paused(),
		State:           a.state.String(),
		Closed:          a.state.IsTerminal(),
		TargetPrice:     a.targetPrice,
		MinSalePrice:    a.minSalePrice,
		TotalDeposited:  a.totalDeposited,
		FundingDeadline: a.fundingDeadline,
		Participants:    make([]model.ParticipantPosition, len(a.participants)),
	}
	for i, participant := range a.participants {
		snapshot.Participants[i] = model.ParticipantPosition{
			Address:   participant,
			Share:     a.shares[participant],
			Deposited: a.deposits[participant],
			Proceeds:  a.proceeds[participant],
		}
	}
	if a.asset != nil {
		asset := *a.asset
		snapshot.Asset = &asset
	}
	if a.sale != nil {
		sale := a.sale.view()
		snapshot.Sale = &sale
	}
	if a.emergency != nil {
		emergency := a.emergency.view()
		snapshot.Emergency = &emergency
	}
	return snapshot
}

func (a *Alliance) Pause(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.guard.Pause(caller); err != nil {
		return err
	}
	a.publish(ctx, model.EventPaused, caller)
	return nil
}

func (a *Alliance) Unpause(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.guard.Unpause(caller); err != nil {
		return err
	}
	a.publish(ctx, model.EventUnpaused, caller)
	return nil
}

// enter runs the checks shared by every mutating participant entry point.
// The lock must be held.
func (a *Alliance) enter(ctx context.Context, caller model.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := a.guard.WhenNotPaused(); err != nil {
		return err
	}
	if _, ok := a.shares[caller]; !ok {
		return ErrOnlyParticipant
	}
	return nil
}

func (a *Alliance) publish(ctx context.Context, kind model.EventKind, actor model.Address, attrs ...string) {
	a.events.Publish(ctx, model.NewEvent(a.address, kind, actor, a.clock.Now(), attrs...))
}

func (p *saleProposal) view() model.SaleProposal {
	return model.SaleProposal{
		Buyer:       p.buyer,
		Price:       p.price,
		Deadline:    p.deadline,
		VotesWeight: p.weight,
		Voters:      append([]model.Address(nil), p.voters...),
	}
}

func (p *emergencyProposal) view() model.EmergencyProposal {
	return model.EmergencyProposal{
		Recipient:   p.recipient,
		VotesWeight: p.weight,
		Voters:      append([]model.Address(nil), p.voters...),
	}
}
