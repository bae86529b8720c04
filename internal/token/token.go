package token

import (
	"context"
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/guard"
	"flash-alliance/internal/model"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var (
	ErrInsufficientBalance   = apperr.New(apperr.KindTransfer, "token: insufficient balance")
	ErrInsufficientAllowance = apperr.New(apperr.KindTransfer, "token: insufficient allowance")
	ErrInvalidReceiver       = apperr.New(apperr.KindValidation, "token: invalid receiver")
	ErrInvalidSender         = apperr.New(apperr.KindValidation, "token: invalid sender")
	ErrSupplyOverflow        = apperr.New(apperr.KindValidation, "token: supply overflow")
)

// Token is an in-memory fungible token with an owner who can mint and pause.
// It is the balance provider alliances and the faucet move funds through.
type Token struct {
	mutex deadlock.Mutex
	guard guard.Pausable

	name     string
	symbol   string
	decimals uint8
	address  model.Address

	totalSupply model.Amount
	balances    map[model.Address]model.Amount
	allowances  map[model.Address]map[model.Address]model.Amount

	logger *zap.Logger
}

type Option func(t *Token)

// WithDecimals sets the display precision; balances are always base units.
func WithDecimals(decimals uint8) Option {
	return func(t *Token) { t.decimals = decimals }
}

func New(logger *zap.Logger, name string, symbol string, owner model.Address, opts ...Option) *Token {
	t := &Token{
		guard:      guard.NewPausable(owner),
		name:       name,
		symbol:     symbol,
		decimals:   model.DefaultDecimals,
		address:    addressing.TokenAddress(symbol),
		balances:   make(map[model.Address]model.Amount),
		allowances: make(map[model.Address]map[model.Address]model.Amount),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Token) Address() model.Address { return t.address }
func (t *Token) Name() string           { return t.name }
func (t *Token) Symbol() string         { return t.symbol }
func (t *Token) Decimals() uint8        { return t.decimals }

func (t *Token) Owner() model.Address {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.guard.Owner()
}

func (t *Token) Paused() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.guard.Paused()
}

func (t *Token) TotalSupply() model.Amount {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.totalSupply
}

func (t *Token) BalanceOf(account model.Address) model.Amount {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.balances[account]
}

func (t *Token) Allowance(owner model.Address, spender model.Address) model.Amount {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.allowances[owner][spender]
}

func (t *Token) Mint(ctx context.Context, caller model.Address, to model.Address, amount model.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if err := t.guard.CheckOwner(caller); err != nil {
		return err
	}
	if err := t.guard.WhenNotPaused(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidReceiver
	}

	supply, overflow := t.totalSupply.Add(amount)
	if overflow {
		return ErrSupplyOverflow
	}
	t.totalSupply = supply
	// balances never exceed the supply, no overflow possible
	t.balances[to], _ = t.balances[to].Add(amount)

	t.logger.Debug("minted", zap.String("token", t.symbol), zap.String("to", to.String()), zap.String("amount", amount.String()))
	return nil
}

func (t *Token) Pause(ctx context.Context, caller model.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.guard.Pause(caller)
}

func (t *Token) Unpause(ctx context.Context, caller model.Address) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.guard.Unpause(caller)
}

func (t *Token) Approve(ctx context.Context, owner model.Address, spender model.Address, amount model.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if owner.IsZero() {
		return ErrInvalidSender
	}
	if spender.IsZero() {
		return ErrInvalidReceiver
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.allowances[owner] == nil {
		t.allowances[owner] = make(map[model.Address]model.Amount)
	}
	t.allowances[owner][spender] = amount
	return nil
}

// Transfer moves amount out of from's balance, on from's own authority.
func (t *Token) Transfer(ctx context.Context, from model.Address, to model.Address, amount model.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.move(from, to, amount)
}

// TransferFrom lets spender pull amount from from's balance within its allowance.
func (t *Token) TransferFrom(ctx context.Context, spender model.Address, from model.Address, to model.Address, amount model.Amount) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	allowance := t.allowances[from][spender]
	remaining, underflow := allowance.Sub(amount)
	if underflow {
		return ErrInsufficientAllowance
	}
	if err := t.move(from, to, amount); err != nil {
		return err
	}
	if t.allowances[from] == nil {
		t.allowances[from] = make(map[model.Address]model.Amount)
	}
	t.allowances[from][spender] = remaining
	return nil
}

func (t *Token) move(from model.Address, to model.Address, amount model.Amount) error {
	if err := t.guard.WhenNotPaused(); err != nil {
		return err
	}
	if from.IsZero() {
		return ErrInvalidSender
	}
	if to.IsZero() {
		return ErrInvalidReceiver
	}

	fromBalance, underflow := t.balances[from].Sub(amount)
	if underflow {
		return ErrInsufficientBalance
	}
	t.balances[from] = fromBalance
	t.balances[to], _ = t.balances[to].Add(amount)
	return nil
}
