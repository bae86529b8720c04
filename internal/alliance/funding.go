package alliance

import (
	"context"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/model"
	"strconv"

	"go.uber.org/zap"
)

// Deposit pulls amount from the caller into the pool. The caller must have
// approved the alliance on the balance provider beforehand.
func (a *Alliance) Deposit(ctx context.Context, caller model.Address, amount model.Amount) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if amount.IsZero() {
		return ErrZeroAmount
	}
	if a.state != model.StateFunding {
		return ErrNotFunding
	}
	if a.clock.Now().After(a.fundingDeadline) {
		return ErrFundingOver
	}

	total, overflow := a.totalDeposited.Add(amount)
	if overflow {
		return ErrDepositOverflow
	}
	if total.Cmp(a.targetPrice) > 0 {
		return ErrExceedsTarget
	}

	if err := a.balances.TransferFrom(ctx, a.address, caller, a.address, amount); err != nil {
		return transferFailed("deposit failed", err)
	}

	a.deposits[caller], _ = a.deposits[caller].Add(amount)
	a.totalDeposited = total

	a.logger.Info("deposit accepted", zap.String("participant", caller.String()), zap.String("amount", amount.String()), zap.String("total", total.String()))
	a.publish(ctx, model.EventDeposited, caller, "amount", amount.String(), "total", total.String())
	return nil
}

// AcquireAsset buys the item from its current holder for the target price.
// The holder must have approved the alliance on the asset registry.
func (a *Alliance) AcquireAsset(ctx context.Context, caller model.Address, collection model.Address, itemID uint64, holder model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateFunding {
		return ErrNotFunding
	}
	if a.totalDeposited.Cmp(a.targetPrice) != 0 {
		return ErrFundingIncomplete
	}
	if holder.IsZero() {
		return ErrZeroHolder
	}
	if holder == a.address {
		return ErrSelfHolder
	}

	registry, err := a.assets.Resolve(collection)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, ErrUnknownAsset.Message, err)
	}

	if err := registry.TransferFrom(ctx, a.address, holder, a.address, itemID); err != nil {
		return transferFailed("asset transfer failed", err)
	}

	if err := a.balances.Transfer(ctx, a.address, holder, a.targetPrice); err != nil {
		// hand the item back so nothing changed hands
		if rollbackErr := registry.TransferFrom(context.WithoutCancel(ctx), a.address, a.address, holder, itemID); rollbackErr != nil {
			a.logger.Error("failed to return the asset after a failed payment: "+rollbackErr.Error(),
				zap.String("collection", collection.String()), zap.String("holder", holder.String()))
		}
		return transferFailed("payment failed", err)
	}

	a.state = model.StateHolding
	a.asset = &model.HeldAsset{Collection: collection, ItemID: itemID}
	a.registry = registry

	a.logger.Info("asset acquired", zap.String("collection", collection.String()), zap.Uint64("itemID", itemID), zap.String("seller", holder.String()))
	a.publish(ctx, model.EventAssetAcquired, caller,
		"collection", collection.String(), "itemId", strconv.FormatUint(itemID, 10), "seller", holder.String(), "price", a.targetPrice.String())
	return nil
}

// CancelFunding closes a pool whose deadline passed without acquisition and
// opens refunds.
func (a *Alliance) CancelFunding(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateFunding {
		return ErrNotFunding
	}
	if !a.clock.Now().After(a.fundingDeadline) {
		return ErrFundingActive
	}

	a.state = model.StateCancelled

	a.logger.Info("funding cancelled", zap.String("participant", caller.String()), zap.String("raised", a.totalDeposited.String()))
	a.publish(ctx, model.EventFundingCancelled, caller, "raised", a.totalDeposited.String())
	return nil
}

// WithdrawRefund returns the caller's whole deposit, once.
func (a *Alliance) WithdrawRefund(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateCancelled {
		return ErrNotCancelled
	}
	amount := a.deposits[caller]
	if amount.IsZero() {
		return ErrNothingToRefund
	}

	if err := a.balances.Transfer(ctx, a.address, caller, amount); err != nil {
		return transferFailed("refund failed", err)
	}

	a.deposits[caller] = model.Amount{}
	a.totalDeposited, _ = a.totalDeposited.Sub(amount)

	a.logger.Info("refund paid", zap.String("participant", caller.String()), zap.String("amount", amount.String()))
	a.publish(ctx, model.EventRefundWithdrawn, caller, "amount", amount.String())
	return nil
}
