package model

import (
	"errors"
	"flash-alliance/internal/apperr"
	"time"
)

// SharesTotal is the sum every share table must reach.
const SharesTotal = 100

type AllianceState int

const (
	StateFunding AllianceState = iota
	StateHolding
	StateSold
	StateCancelled
	// StateWithdrawn marks an alliance whose asset left through the emergency path.
	StateWithdrawn
)

func (s AllianceState) String() string {
	switch s {
	case StateFunding:
		return "funding"
	case StateHolding:
		return "holding"
	case StateSold:
		return "sold"
	case StateCancelled:
		return "cancelled"
	case StateWithdrawn:
		return "withdrawn"
	}
	return "unknown"
}

func (s AllianceState) IsTerminal() bool {
	return s == StateSold || s == StateCancelled || s == StateWithdrawn
}

// AllianceParams are the immutable terms an alliance is created with.
type AllianceParams struct {
	TargetPrice  Amount
	Duration     time.Duration
	Participants []Address
	Shares       []uint8
	Admin        Address
}

var (
	ErrLengthMismatch    = apperr.New(apperr.KindValidation, "length mismatch")
	ErrSharesSum         = apperr.New(apperr.KindValidation, "shares must sum to 100")
	ErrZeroTarget        = apperr.New(apperr.KindValidation, "zero target price")
	ErrZeroDuration      = apperr.New(apperr.KindValidation, "zero duration")
	ErrNoParticipants    = apperr.New(apperr.KindValidation, "no participants")
	ErrZeroParticipant   = apperr.New(apperr.KindValidation, "zero participant")
	ErrDuplicate         = apperr.New(apperr.KindValidation, "duplicate participant")
	ErrZeroShare         = apperr.New(apperr.KindValidation, "zero share")
	ErrZeroAdministrator = apperr.New(apperr.KindValidation, "zero admin")
)

func (p AllianceParams) Validate() error {
	if len(p.Participants) != len(p.Shares) {
		return ErrLengthMismatch
	}
	if len(p.Participants) == 0 {
		return ErrNoParticipants
	}
	if p.TargetPrice.IsZero() {
		return ErrZeroTarget
	}
	if p.Duration <= 0 {
		return ErrZeroDuration
	}
	if p.Admin.IsZero() {
		return ErrZeroAdministrator
	}

	sum := 0
	seen := make(map[Address]struct{}, len(p.Participants))
	for i, participant := range p.Participants {
		if participant.IsZero() {
			return ErrZeroParticipant
		}
		if _, ok := seen[participant]; ok {
			return apperr.Wrap(apperr.KindValidation, ErrDuplicate.Message, errors.New(participant.String()))
		}
		seen[participant] = struct{}{}

		if p.Shares[i] == 0 {
			return ErrZeroShare
		}
		sum += int(p.Shares[i])
	}
	if sum != SharesTotal {
		return ErrSharesSum
	}

	return nil
}

// HeldAsset points at the non-fungible item an alliance owns.
type HeldAsset struct {
	Collection Address `json:"collection"`
	ItemID     uint64  `json:"itemId"`
}

type SaleProposal struct {
	Buyer       Address   `json:"buyer"`
	Price       Amount    `json:"price"`
	Deadline    time.Time `json:"deadline"`
	VotesWeight uint      `json:"votesWeight"`
	Voters      []Address `json:"voters"`
}

type EmergencyProposal struct {
	Recipient   Address   `json:"recipient"`
	VotesWeight uint      `json:"votesWeight"`
	Voters      []Address `json:"voters"`
}

type ParticipantPosition struct {
	Address   Address `json:"address"`
	Share     uint8   `json:"share"`
	Deposited Amount  `json:"deposited"`
	Proceeds  Amount  `json:"proceeds"`
}

// AllianceSnapshot is a consistent read of one alliance.
type AllianceSnapshot struct {
	Address         Address               `json:"address"`
	Admin           Address               `json:"admin"`
	Paused          bool                  `json:"paused"`
	State           string                `json:"state"`
	Closed          bool                  `json:"closed"`
	TargetPrice     Amount                `json:"targetPrice"`
	MinSalePrice    Amount                `json:"minSalePrice"`
	TotalDeposited  Amount                `json:"totalDeposited"`
	FundingDeadline time.Time             `json:"fundingDeadline"`
	Participants    []ParticipantPosition `json:"participants"`
	Asset           *HeldAsset            `json:"asset,omitempty"`
	Sale            *SaleProposal         `json:"sale,omitempty"`
	Emergency       *EmergencyProposal    `json:"emergency,omitempty"`
}
