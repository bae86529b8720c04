package alliance

import (
	"context"
	"flash-alliance/internal/model"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// VoteToSell opens a sale proposal with the given terms, or votes for the
// live one. A participant voting twice is not counted twice.
func (a *Alliance) VoteToSell(ctx context.Context, caller model.Address, buyer model.Address, price model.Amount, deadline time.Time) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateHolding {
		return ErrNotHolding
	}

	now := a.clock.Now()
	if a.sale == nil {
		if buyer.IsZero() {
			return ErrZeroBuyer
		}
		if price.IsZero() {
			return ErrZeroPrice
		}
		if !deadline.After(now) {
			return ErrInvalidDeadline
		}
		a.sale = &saleProposal{
			buyer:    buyer,
			price:    price,
			deadline: deadline,
			voted:    make(map[model.Address]bool),
		}
		a.logger.Info("sale proposed", zap.String("buyer", buyer.String()), zap.String("price", price.String()), zap.Time("deadline", deadline))
	} else {
		if now.After(a.sale.deadline) {
			return ErrProposalExpired
		}
		if buyer != a.sale.buyer {
			return ErrBuyerMismatch
		}
		if price.Cmp(a.sale.price) != 0 {
			return ErrPriceMismatch
		}
		if !deadline.Equal(a.sale.deadline) {
			return ErrDeadlineMismatch
		}
	}

	if a.sale.voted[caller] {
		return nil
	}
	a.sale.voted[caller] = true
	a.sale.voters = append(a.sale.voters, caller)
	a.sale.weight += uint(a.shares[caller])

	a.publish(ctx, model.EventSaleVoted, caller,
		"buyer", buyer.String(), "price", price.String(), "weight", strconv.FormatUint(uint64(a.sale.weight), 10))
	return nil
}

// saleQuorum is stricter when the price does not recover the reserve.
func (a *Alliance) saleQuorum(price model.Amount) uint {
	if price.Cmp(a.minSalePrice) < 0 {
		return LossQuorum
	}
	return MajorityQuorum
}

// ExecuteSale collects the price from the buyer, delivers the asset and pays
// every participant pro rata. A payout that cannot be pushed is kept as
// proceeds the participant withdraws later.
func (a *Alliance) ExecuteSale(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateHolding {
		return ErrNotHolding
	}
	if a.sale == nil {
		return ErrNoSaleProposal
	}
	if a.clock.Now().After(a.sale.deadline) {
		return ErrProposalExpired
	}
	if a.sale.weight < a.saleQuorum(a.sale.price) {
		return ErrQuorumNotReached
	}

	sale := a.sale
	if err := a.balances.TransferFrom(ctx, a.address, sale.buyer, a.address, sale.price); err != nil {
		return transferFailed("buyer payment failed", err)
	}

	if err := a.registry.TransferFrom(ctx, a.address, a.address, sale.buyer, a.asset.ItemID); err != nil {
		if refundErr := a.balances.Transfer(context.WithoutCancel(ctx), a.address, sale.buyer, sale.price); refundErr != nil {
			a.logger.Error("failed to refund the buyer after a failed delivery: "+refundErr.Error(), zap.String("buyer", sale.buyer.String()))
		}
		return transferFailed("asset delivery failed", err)
	}

	a.state = model.StateSold
	a.logger.Info("sale executed", zap.String("buyer", sale.buyer.String()), zap.String("price", sale.price.String()), zap.Uint("weight", sale.weight))
	a.publish(ctx, model.EventSaleExecuted, caller,
		"buyer", sale.buyer.String(), "price", sale.price.String(), "weight", strconv.FormatUint(uint64(sale.weight), 10))

	for _, payout := range a.distribution(sale.price) {
		if payout.amount.IsZero() {
			continue
		}
		// The buyer payment just succeeded, so with the hosted token a payout
		// fails only when the token gets paused between the two transfers. The
		// sale stands and the share waits in proceeds for WithdrawProceeds.
		if err := a.balances.Transfer(ctx, a.address, payout.participant, payout.amount); err != nil {
			a.proceeds[payout.participant], _ = a.proceeds[payout.participant].Add(payout.amount)
			a.logger.Warn("payout deferred: "+err.Error(), zap.String("participant", payout.participant.String()), zap.String("amount", payout.amount.String()))
			a.publish(ctx, model.EventProceedsDeferred, payout.participant, "amount", payout.amount.String())
			continue
		}
		a.publish(ctx, model.EventProceedsPaid, payout.participant, "amount", payout.amount.String())
	}

	return nil
}

type payout struct {
	participant model.Address
	amount      model.Amount
}

// distribution splits price by share. Integer division dust goes to the
// participant with the largest share, the earliest listed on a tie.
func (a *Alliance) distribution(price model.Amount) []payout {
	payouts := make([]payout, len(a.participants))
	var paid model.Amount
	for i, participant := range a.participants {
		amount := price.MulDiv(uint64(a.shares[participant]), model.SharesTotal)
		payouts[i] = payout{participant: participant, amount: amount}
		paid, _ = paid.Add(amount)
	}

	dust, _ := price.Sub(paid)
	if !dust.IsZero() {
		for i := range payouts {
			if payouts[i].participant == a.dustRecipient {
				payouts[i].amount, _ = payouts[i].amount.Add(dust)
				break
			}
		}
	}
	return payouts
}

// ResetSaleProposal clears a proposal whose deadline passed unexecuted.
func (a *Alliance) ResetSaleProposal(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateHolding {
		return ErrNotHolding
	}
	if a.sale == nil {
		return ErrNoSaleProposal
	}
	if !a.clock.Now().After(a.sale.deadline) {
		return ErrProposalActive
	}

	expired := a.sale
	a.sale = nil

	a.logger.Info("sale proposal reset", zap.String("buyer", expired.buyer.String()), zap.String("price", expired.price.String()))
	a.publish(ctx, model.EventSaleProposalReset, caller, "buyer", expired.buyer.String(), "price", expired.price.String())
	return nil
}

// WithdrawProceeds pays out sale proceeds whose push failed at execution.
func (a *Alliance) WithdrawProceeds(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	amount := a.proceeds[caller]
	if amount.IsZero() {
		return ErrNothingToWithdraw
	}

	if err := a.balances.Transfer(ctx, a.address, caller, amount); err != nil {
		return transferFailed("proceeds transfer failed", err)
	}
	delete(a.proceeds, caller)

	a.publish(ctx, model.EventProceedsWithdrawn, caller, "amount", amount.String())
	return nil
}
