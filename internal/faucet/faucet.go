package faucet

import (
	"context"
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/guard"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var (
	ErrCooldownActive = apperr.New(apperr.KindTemporal, "faucet: cooldown active")
	ErrZeroRecipient  = apperr.New(apperr.KindValidation, "faucet: zero recipient")
	ErrZeroAmount     = apperr.New(apperr.KindValidation, "faucet: zero amount")
	ErrZeroCooldown   = apperr.New(apperr.KindValidation, "faucet: zero cooldown")
	ErrZeroToken      = apperr.New(apperr.KindValidation, "faucet: zero token")
	ErrZeroOwner      = apperr.New(apperr.KindValidation, "faucet: zero owner")
)

// Token is the balance the faucet hands out from its own account.
type Token interface {
	Address() model.Address
	BalanceOf(account model.Address) model.Amount
	Transfer(ctx context.Context, from model.Address, to model.Address, amount model.Amount) error
}

// Faucet dispenses a fixed amount per account, at most once per cooldown.
type Faucet struct {
	mutex deadlock.Mutex
	owner guard.Ownable

	address     model.Address
	token       Token
	claimAmount model.Amount
	cooldown    time.Duration
	lastClaimAt map[model.Address]time.Time

	clock  clock.Clock
	events journal.Publisher
	logger *zap.Logger
}

type Option func(f *Faucet)

func WithClock(c clock.Clock) Option {
	return func(f *Faucet) { f.clock = c }
}

func WithPublisher(events journal.Publisher) Option {
	return func(f *Faucet) { f.events = events }
}

func New(logger *zap.Logger, token Token, owner model.Address, claimAmount model.Amount, cooldown time.Duration, opts ...Option) (*Faucet, error) {
	if token == nil {
		return nil, ErrZeroToken
	}
	if owner.IsZero() {
		return nil, ErrZeroOwner
	}
	if claimAmount.IsZero() {
		return nil, ErrZeroAmount
	}
	if cooldown <= 0 {
		return nil, ErrZeroCooldown
	}

	f := &Faucet{
		owner:       guard.NewOwnable(owner),
		address:     addressing.FaucetAddress(token.Address(), owner),
		token:       token,
		claimAmount: claimAmount,
		cooldown:    cooldown,
		lastClaimAt: make(map[model.Address]time.Time),
		clock:       clock.New(),
		events:      journal.Nop{},
		logger:      logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Faucet) Address() model.Address {
	return f.address
}

func (f *Faucet) Owner() model.Address {
	return f.owner.Owner()
}

// Balance is the liquidity left to dispense.
func (f *Faucet) Balance() model.Amount {
	return f.token.BalanceOf(f.address)
}

func (f *Faucet) ClaimAmount() model.Amount {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.claimAmount
}

func (f *Faucet) ClaimCooldown() time.Duration {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.cooldown
}

// LastClaimAt reports when account last claimed; false if it never did.
func (f *Faucet) LastClaimAt(account model.Address) (time.Time, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	at, ok := f.lastClaimAt[account]
	return at, ok
}

// NextClaimAt is the earliest time account may claim again.
func (f *Faucet) NextClaimAt(account model.Address) time.Time {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	at, ok := f.lastClaimAt[account]
	if !ok {
		return f.clock.Now()
	}
	return at.Add(f.cooldown)
}

func (f *Faucet) Claim(ctx context.Context, caller model.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if caller.IsZero() {
		return ErrZeroRecipient
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	now := f.clock.Now()
	if last, ok := f.lastClaimAt[caller]; ok && now.Before(last.Add(f.cooldown)) {
		return ErrCooldownActive
	}

	if err := f.token.Transfer(ctx, f.address, caller, f.claimAmount); err != nil {
		return apperr.Wrap(apperr.KindTransfer, "faucet: claim failed", err)
	}
	f.lastClaimAt[caller] = now

	f.logger.Info("faucet claimed", zap.String("account", caller.String()), zap.String("amount", f.claimAmount.String()))
	f.events.Publish(ctx, model.NewEvent(f.address, model.EventClaimed, caller, now, "amount", f.claimAmount.String()))
	return nil
}

func (f *Faucet) SetClaimAmount(ctx context.Context, caller model.Address, amount model.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err := f.owner.CheckOwner(caller); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	f.claimAmount = amount

	f.events.Publish(ctx, model.NewEvent(f.address, model.EventClaimAmountUpdated, caller, f.clock.Now(), "amount", amount.String()))
	return nil
}

func (f *Faucet) SetClaimCooldown(ctx context.Context, caller model.Address, cooldown time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err := f.owner.CheckOwner(caller); err != nil {
		return err
	}
	if cooldown <= 0 {
		return ErrZeroCooldown
	}
	f.cooldown = cooldown

	f.events.Publish(ctx, model.NewEvent(f.address, model.EventClaimCooldownUpdated, caller, f.clock.Now(), "cooldown", cooldown.String()))
	return nil
}

// Withdraw moves liquidity out of the faucet.
func (f *Faucet) Withdraw(ctx context.Context, caller model.Address, recipient model.Address, amount model.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if err := f.owner.CheckOwner(caller); err != nil {
		return err
	}
	if recipient.IsZero() {
		return ErrZeroRecipient
	}

	if err := f.token.Transfer(ctx, f.address, recipient, amount); err != nil {
		return apperr.Wrap(apperr.KindTransfer, "faucet: withdraw failed", err)
	}

	f.logger.Info("faucet withdrawn", zap.String("recipient", recipient.String()), zap.String("amount", amount.String()))
	f.events.Publish(ctx, model.NewEvent(f.address, model.EventFaucetWithdrawn, caller, f.clock.Now(),
		"recipient", recipient.String(), "amount", amount.String()))
	return nil
}
