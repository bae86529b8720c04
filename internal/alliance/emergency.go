package alliance

import (
	"context"
	"flash-alliance/internal/model"
	"strconv"

	"go.uber.org/zap"
)

// VoteEmergencyWithdraw opens or supports the proposal to hand the asset to
// recipient without a sale. It is independent from the sale proposal.
func (a *Alliance) VoteEmergencyWithdraw(ctx context.Context, caller model.Address, recipient model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateHolding {
		return ErrNotHolding
	}

	if a.emergency == nil {
		if recipient.IsZero() {
			return ErrZeroRecipient
		}
		a.emergency = &emergencyProposal{
			recipient: recipient,
			voted:     make(map[model.Address]bool),
		}
		a.logger.Warn("emergency withdrawal proposed", zap.String("recipient", recipient.String()), zap.String("participant", caller.String()))
	} else if recipient != a.emergency.recipient {
		return ErrRecipientMismatch
	}

	if a.emergency.voted[caller] {
		return nil
	}
	a.emergency.voted[caller] = true
	a.emergency.voters = append(a.emergency.voters, caller)
	a.emergency.weight += uint(a.shares[caller])

	a.publish(ctx, model.EventEmergencyVoted, caller,
		"recipient", recipient.String(), "weight", strconv.FormatUint(uint64(a.emergency.weight), 10))
	return nil
}

// EmergencyWithdraw transfers the asset to the voted recipient. No funds move.
func (a *Alliance) EmergencyWithdraw(ctx context.Context, caller model.Address) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if err := a.enter(ctx, caller); err != nil {
		return err
	}
	if a.state != model.StateHolding {
		return ErrNotHolding
	}
	if a.emergency == nil {
		return ErrNoEmergencyProposal
	}
	if a.emergency.weight < MajorityQuorum {
		return ErrQuorumNotReached
	}

	recipient := a.emergency.recipient
	if err := a.registry.TransferFrom(ctx, a.address, a.address, recipient, a.asset.ItemID); err != nil {
		return transferFailed("asset transfer failed", err)
	}

	a.state = model.StateWithdrawn
	a.sale = nil

	a.logger.Warn("asset withdrawn through the emergency path", zap.String("recipient", recipient.String()))
	a.publish(ctx, model.EventEmergencyWithdrawn, caller, "recipient", recipient.String())
	return nil
}
