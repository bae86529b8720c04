package app

import (
	"context"
	"errors"
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/alliance"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/collectible"
	"flash-alliance/internal/faucet"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"flash-alliance/internal/registry"
	"flash-alliance/internal/token"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var (
	ErrNoFaucet       = apperr.New(apperr.KindState, "app: faucet not deployed")
	ErrFaucetDeployed = apperr.New(apperr.KindState, "app: faucet already deployed")
)

// Config names the deployment the App hosts.
type Config struct {
	Deployer    model.Address
	TokenName   string
	TokenSymbol string
	Decimals    uint8
	// JournalTimeout bounds each event write; zero keeps the journal default.
	JournalTimeout time.Duration
}

type TokenInfo struct {
	Address     model.Address `json:"address"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	Decimals    uint8         `json:"decimals"`
	Owner       model.Address `json:"owner"`
	Paused      bool          `json:"paused"`
	TotalSupply model.Amount  `json:"totalSupply"`
}

type FaucetInfo struct {
	Address       model.Address `json:"address"`
	Owner         model.Address `json:"owner"`
	Balance       model.Amount  `json:"balance"`
	ClaimAmount   model.Amount  `json:"claimAmount"`
	ClaimCooldown time.Duration `json:"claimCooldown"`
}

type CollectionInfo struct {
	Address model.Address `json:"address"`
	Name    string        `json:"name"`
	Symbol  string        `json:"symbol"`
}

// App hosts the ledger: one fungible token, the collectible collections, the
// alliance factory and an optional faucet. Every state change is published to
// the journal.
type App struct {
	deployer    model.Address
	token       *token.Token
	collections *collectible.Directory
	factory     *registry.Factory

	faucetMutex deadlock.RWMutex
	faucet      *faucet.Faucet

	journal        *journal.Sink
	journalTimeout time.Duration
	clock          clock.Clock
	logger         *zap.Logger
}

type Option func(a *App)

func WithClock(c clock.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithJournalTimeout overrides Config.JournalTimeout.
func WithJournalTimeout(timeout time.Duration) Option {
	return func(a *App) { a.journalTimeout = timeout }
}

func NewApp(logger *zap.Logger, store journal.Store, cfg Config, opts ...Option) (*App, error) {
	if cfg.Deployer.IsZero() {
		return nil, apperr.New(apperr.KindValidation, "app: zero deployer")
	}
	if cfg.Decimals == 0 {
		cfg.Decimals = model.DefaultDecimals
	}

	a := &App{
		deployer:       cfg.Deployer,
		collections:    collectible.NewDirectory(),
		journalTimeout: cfg.JournalTimeout,
		clock:          clock.New(),
		logger:         logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.journal = journal.NewSink(logger, store, journal.WithStoreTimeout(a.journalTimeout))

	a.token = token.New(logger, cfg.TokenName, cfg.TokenSymbol, cfg.Deployer, token.WithDecimals(cfg.Decimals))
	resolver := alliance.AssetResolverFunc(func(collection model.Address) (alliance.AssetRegistry, error) {
		found, err := a.collections.Get(collection)
		if err != nil {
			return nil, err
		}
		return found, nil
	})
	a.factory = registry.New(logger, addressing.FactoryAddress(cfg.Deployer), resolver, a.clock, a.journal)

	logger.Info("ledger deployed",
		zap.String("deployer", cfg.Deployer.String()),
		zap.String("token", a.token.Address().String()),
		zap.String("factory", a.factory.Address().String()))

	return a, nil
}

func (a *App) Deployer() model.Address {
	return a.deployer
}

func (a *App) FactoryAddress() model.Address {
	return a.factory.Address()
}

// Token

func (a *App) TokenInfo() TokenInfo {
	return TokenInfo{
		Address:     a.token.Address(),
		Name:        a.token.Name(),
		Symbol:      a.token.Symbol(),
		Decimals:    a.token.Decimals(),
		Owner:       a.token.Owner(),
		Paused:      a.token.Paused(),
		TotalSupply: a.token.TotalSupply(),
	}
}

func (a *App) BalanceOf(account model.Address) model.Amount {
	return a.token.BalanceOf(account)
}

func (a *App) Allowance(owner model.Address, spender model.Address) model.Amount {
	return a.token.Allowance(owner, spender)
}

func (a *App) Mint(ctx context.Context, caller model.Address, to model.Address, amount model.Amount) error {
	return a.token.Mint(ctx, caller, to, amount)
}

func (a *App) Approve(ctx context.Context, caller model.Address, spender model.Address, amount model.Amount) error {
	return a.token.Approve(ctx, caller, spender, amount)
}

func (a *App) Transfer(ctx context.Context, caller model.Address, to model.Address, amount model.Amount) error {
	return a.token.Transfer(ctx, caller, to, amount)
}

func (a *App) PauseToken(ctx context.Context, caller model.Address) error {
	return a.token.Pause(ctx, caller)
}

func (a *App) UnpauseToken(ctx context.Context, caller model.Address) error {
	return a.token.Unpause(ctx, caller)
}

// Collectibles

func (a *App) CreateCollection(ctx context.Context, caller model.Address, name string, symbol string) (model.Address, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if symbol == "" {
		return "", apperr.New(apperr.KindValidation, "app: collection symbol is missing")
	}

	collection := collectible.New(a.logger, name, symbol)
	if err := a.collections.Register(collection); err != nil {
		return "", err
	}

	a.logger.Info("collection created", zap.String("collection", collection.Address().String()), zap.String("symbol", symbol), zap.String("creator", caller.String()))
	return collection.Address(), nil
}

func (a *App) Collections() []CollectionInfo {
	registries := a.collections.Collections()
	out := make([]CollectionInfo, len(registries))
	for i, r := range registries {
		out[i] = CollectionInfo{Address: r.Address(), Name: r.Name(), Symbol: r.Symbol()}
	}
	return out
}

func (a *App) MintItem(ctx context.Context, collection model.Address, to model.Address, itemID uint64) error {
	r, err := a.collections.Get(collection)
	if err != nil {
		return err
	}
	return r.Mint(ctx, to, itemID)
}

func (a *App) ApproveItem(ctx context.Context, caller model.Address, collection model.Address, spender model.Address, itemID uint64) error {
	r, err := a.collections.Get(collection)
	if err != nil {
		return err
	}
	return r.Approve(ctx, caller, spender, itemID)
}

func (a *App) OwnerOf(ctx context.Context, collection model.Address, itemID uint64) (model.Address, error) {
	r, err := a.collections.Get(collection)
	if err != nil {
		return "", err
	}
	return r.OwnerOf(ctx, itemID)
}

func (a *App) GetApproved(ctx context.Context, collection model.Address, itemID uint64) (model.Address, error) {
	r, err := a.collections.Get(collection)
	if err != nil {
		return "", err
	}
	return r.GetApproved(ctx, itemID)
}

// Factory

// CreateAlliance creates an alliance pooling the hosted token, administered by caller.
func (a *App) CreateAlliance(ctx context.Context, caller model.Address, targetPrice model.Amount, duration time.Duration,
	participants []model.Address, shares []uint8) (model.Address, error) {

	created, err := a.factory.CreateAlliance(ctx, caller, targetPrice, duration, participants, shares, a.token)
	if err != nil {
		return "", err
	}
	return created.Address(), nil
}

func (a *App) Alliances() []model.Address {
	return a.factory.Alliances()
}

func (a *App) AllianceAt(index int) (model.Address, error) {
	found, err := a.factory.At(index)
	if err != nil {
		return "", err
	}
	return found.Address(), nil
}

func (a *App) Alliance(address model.Address) (model.AllianceSnapshot, error) {
	found, err := a.factory.Get(address)
	if err != nil {
		return model.AllianceSnapshot{}, err
	}
	return found.Snapshot(), nil
}

// Alliance operations

func (a *App) withAlliance(address model.Address, op func(target *alliance.Alliance) error) error {
	target, err := a.factory.Get(address)
	if err != nil {
		return err
	}
	return op(target)
}

func (a *App) Deposit(ctx context.Context, address model.Address, caller model.Address, amount model.Amount) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.Deposit(ctx, caller, amount)
	})
}

func (a *App) AcquireAsset(ctx context.Context, address model.Address, caller model.Address, collection model.Address, itemID uint64, holder model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.AcquireAsset(ctx, caller, collection, itemID, holder)
	})
}

func (a *App) CancelFunding(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.CancelFunding(ctx, caller)
	})
}

func (a *App) WithdrawRefund(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.WithdrawRefund(ctx, caller)
	})
}

func (a *App) VoteToSell(ctx context.Context, address model.Address, caller model.Address, buyer model.Address, price model.Amount, deadline time.Time) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.VoteToSell(ctx, caller, buyer, price, deadline)
	})
}

func (a *App) ExecuteSale(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.ExecuteSale(ctx, caller)
	})
}

func (a *App) ResetSaleProposal(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.ResetSaleProposal(ctx, caller)
	})
}

func (a *App) WithdrawProceeds(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.WithdrawProceeds(ctx, caller)
	})
}

func (a *App) VoteEmergencyWithdraw(ctx context.Context, address model.Address, caller model.Address, recipient model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.VoteEmergencyWithdraw(ctx, caller, recipient)
	})
}

func (a *App) EmergencyWithdraw(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.EmergencyWithdraw(ctx, caller)
	})
}

func (a *App) PauseAlliance(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.Pause(ctx, caller)
	})
}

func (a *App) UnpauseAlliance(ctx context.Context, address model.Address, caller model.Address) error {
	return a.withAlliance(address, func(target *alliance.Alliance) error {
		return target.Unpause(ctx, caller)
	})
}

// Faucet

// DeployFaucet creates the faucet owned by caller. Liquidity is added by
// transferring or minting tokens to its address.
func (a *App) DeployFaucet(ctx context.Context, caller model.Address, claimAmount model.Amount, cooldown time.Duration) (model.Address, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	a.faucetMutex.Lock()
	defer a.faucetMutex.Unlock()

	if a.faucet != nil {
		return "", ErrFaucetDeployed
	}
	deployed, err := faucet.New(a.logger, a.token, caller, claimAmount, cooldown,
		faucet.WithClock(a.clock), faucet.WithPublisher(a.journal))
	if err != nil {
		return "", err
	}
	a.faucet = deployed

	a.logger.Info("faucet deployed", zap.String("faucet", deployed.Address().String()), zap.String("owner", caller.String()))
	return deployed.Address(), nil
}

func (a *App) getFaucet() (*faucet.Faucet, error) {
	a.faucetMutex.RLock()
	defer a.faucetMutex.RUnlock()
	if a.faucet == nil {
		return nil, ErrNoFaucet
	}
	return a.faucet, nil
}

func (a *App) FaucetInfo() (FaucetInfo, error) {
	f, err := a.getFaucet()
	if err != nil {
		return FaucetInfo{}, err
	}
	return FaucetInfo{
		Address:       f.Address(),
		Owner:         f.Owner(),
		Balance:       f.Balance(),
		ClaimAmount:   f.ClaimAmount(),
		ClaimCooldown: f.ClaimCooldown(),
	}, nil
}

// NextClaimAt reports when account may claim next and when it last claimed.
func (a *App) NextClaimAt(account model.Address) (next time.Time, last time.Time, claimed bool, err error) {
	f, err := a.getFaucet()
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	last, claimed = f.LastClaimAt(account)
	return f.NextClaimAt(account), last, claimed, nil
}

func (a *App) Claim(ctx context.Context, caller model.Address) error {
	f, err := a.getFaucet()
	if err != nil {
		return err
	}
	return f.Claim(ctx, caller)
}

func (a *App) SetClaimAmount(ctx context.Context, caller model.Address, amount model.Amount) error {
	f, err := a.getFaucet()
	if err != nil {
		return err
	}
	return f.SetClaimAmount(ctx, caller, amount)
}

func (a *App) SetClaimCooldown(ctx context.Context, caller model.Address, cooldown time.Duration) error {
	f, err := a.getFaucet()
	if err != nil {
		return err
	}
	return f.SetClaimCooldown(ctx, caller, cooldown)
}

func (a *App) WithdrawFaucet(ctx context.Context, caller model.Address, recipient model.Address, amount model.Amount) error {
	f, err := a.getFaucet()
	if err != nil {
		return err
	}
	return f.Withdraw(ctx, caller, recipient, amount)
}

// IsNotFound reports whether err means the addressed component does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, registry.ErrNotFound) || errors.Is(err, registry.ErrOutOfRange) ||
		errors.Is(err, collectible.ErrUnknownCollection) || errors.Is(err, ErrNoFaucet)
}
