package alliance

import (
	"flash-alliance/internal/apperr"
)

var (
	ErrOnlyParticipant = apperr.New(apperr.KindAuthorization, "alliance: only participant")

	ErrZeroAmount      = apperr.New(apperr.KindValidation, "alliance: zero amount")
	ErrExceedsTarget   = apperr.New(apperr.KindValidation, "alliance: exceeds target")
	ErrZeroBuyer       = apperr.New(apperr.KindValidation, "alliance: zero buyer")
	ErrZeroPrice       = apperr.New(apperr.KindValidation, "alliance: zero price")
	ErrInvalidDeadline = apperr.New(apperr.KindValidation, "alliance: invalid deadline")
	ErrZeroRecipient   = apperr.New(apperr.KindValidation, "alliance: zero recipient")
	ErrZeroHolder      = apperr.New(apperr.KindValidation, "alliance: zero holder")
	ErrSelfHolder      = apperr.New(apperr.KindValidation, "alliance: holder is the alliance")
	ErrNoBalances      = apperr.New(apperr.KindValidation, "alliance: zero token")
	ErrNoAssetResolver = apperr.New(apperr.KindValidation, "alliance: zero asset registry")
	ErrUnknownAsset    = apperr.New(apperr.KindValidation, "alliance: unknown collection")
	ErrDepositOverflow = apperr.New(apperr.KindValidation, "alliance: deposit overflow")

	ErrNotFunding          = apperr.New(apperr.KindState, "alliance: not funding")
	ErrFundingIncomplete   = apperr.New(apperr.KindState, "alliance: funding incomplete")
	ErrNotCancelled        = apperr.New(apperr.KindState, "alliance: not cancelled")
	ErrNothingToRefund     = apperr.New(apperr.KindState, "alliance: nothing to refund")
	ErrNothingToWithdraw   = apperr.New(apperr.KindState, "alliance: nothing to withdraw")
	ErrNotHolding          = apperr.New(apperr.KindState, "alliance: not holding")
	ErrNoSaleProposal      = apperr.New(apperr.KindState, "alliance: no sale proposal")
	ErrNoEmergencyProposal = apperr.New(apperr.KindState, "alliance: no emergency proposal")

	ErrBuyerMismatch     = apperr.New(apperr.KindQuorum, "alliance: buyer mismatch")
	ErrPriceMismatch     = apperr.New(apperr.KindQuorum, "alliance: price mismatch")
	ErrDeadlineMismatch  = apperr.New(apperr.KindQuorum, "alliance: deadline mismatch")
	ErrRecipientMismatch = apperr.New(apperr.KindQuorum, "alliance: recipient mismatch")
	ErrQuorumNotReached  = apperr.New(apperr.KindQuorum, "alliance: quorum not reached")

	ErrFundingOver     = apperr.New(apperr.KindTemporal, "alliance: funding over")
	ErrFundingActive   = apperr.New(apperr.KindTemporal, "alliance: funding active")
	ErrProposalActive  = apperr.New(apperr.KindTemporal, "alliance: proposal active")
	ErrProposalExpired = apperr.New(apperr.KindTemporal, "alliance: proposal expired")
)

func transferFailed(message string, cause error) error {
	return apperr.Wrap(apperr.KindTransfer, "alliance: "+message, cause)
}
