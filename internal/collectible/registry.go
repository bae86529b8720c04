package collectible

import (
	"context"
	"flash-alliance/internal/addressing"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/model"
	"strconv"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
)

var (
	ErrAlreadyMinted        = apperr.New(apperr.KindValidation, "collectible: token already minted")
	ErrNonexistentToken     = apperr.New(apperr.KindValidation, "collectible: nonexistent token")
	ErrInvalidReceiver      = apperr.New(apperr.KindValidation, "collectible: invalid receiver")
	ErrInvalidApprover      = apperr.New(apperr.KindAuthorization, "collectible: invalid approver")
	ErrIncorrectOwner       = apperr.New(apperr.KindTransfer, "collectible: incorrect owner")
	ErrInsufficientApproval = apperr.New(apperr.KindTransfer, "collectible: insufficient approval")
)

// Registry is one in-memory collection of non-fungible items.
type Registry struct {
	mutex deadlock.Mutex

	name    string
	symbol  string
	address model.Address

	owners    map[uint64]model.Address
	approvals map[uint64]model.Address

	logger *zap.Logger
}

func New(logger *zap.Logger, name string, symbol string) *Registry {
	return &Registry{
		name:      name,
		symbol:    symbol,
		address:   addressing.CollectionAddress(symbol),
		owners:    make(map[uint64]model.Address),
		approvals: make(map[uint64]model.Address),
		logger:    logger,
	}
}

func (r *Registry) Address() model.Address { return r.address }
func (r *Registry) Name() string           { return r.name }
func (r *Registry) Symbol() string         { return r.symbol }

// Mint is open to anyone, the collection is a test fixture for alliances.
func (r *Registry) Mint(ctx context.Context, to model.Address, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidReceiver
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.owners[itemID]; ok {
		return ErrAlreadyMinted
	}
	r.owners[itemID] = to

	r.logger.Debug("item minted", zap.String("collection", r.symbol), zap.String("itemID", strconv.FormatUint(itemID, 10)), zap.String("to", to.String()))
	return nil
}

func (r *Registry) OwnerOf(ctx context.Context, itemID uint64) (model.Address, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	owner, ok := r.owners[itemID]
	if !ok {
		return "", ErrNonexistentToken
	}
	return owner, nil
}

// Approve lets spender move the item once. Only the current holder approves.
func (r *Registry) Approve(ctx context.Context, caller model.Address, spender model.Address, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	owner, ok := r.owners[itemID]
	if !ok {
		return ErrNonexistentToken
	}
	if caller != owner {
		return ErrInvalidApprover
	}
	r.approvals[itemID] = spender
	return nil
}

func (r *Registry) GetApproved(ctx context.Context, itemID uint64) (model.Address, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.owners[itemID]; !ok {
		return "", ErrNonexistentToken
	}
	return r.approvals[itemID], nil
}

// TransferFrom moves the item from its holder to `to`. The operator must be
// the holder or the approved spender; the approval is consumed.
func (r *Registry) TransferFrom(ctx context.Context, operator model.Address, from model.Address, to model.Address, itemID uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to.IsZero() {
		return ErrInvalidReceiver
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	owner, ok := r.owners[itemID]
	if !ok {
		return ErrNonexistentToken
	}
	if owner != from {
		return ErrIncorrectOwner
	}
	if operator != owner && r.approvals[itemID] != operator {
		return ErrInsufficientApproval
	}

	delete(r.approvals, itemID)
	r.owners[itemID] = to
	return nil
}
