package model

import (
	"time"
)

type EventKind string

const (
	EventAllianceCreated      EventKind = "AllianceCreated"
	EventDeposited            EventKind = "Deposited"
	EventAssetAcquired        EventKind = "AssetAcquired"
	EventFundingCancelled     EventKind = "FundingCancelled"
	EventRefundWithdrawn      EventKind = "RefundWithdrawn"
	EventSaleVoted            EventKind = "SaleVoted"
	EventSaleExecuted         EventKind = "SaleExecuted"
	EventProceedsPaid         EventKind = "ProceedsPaid"
	EventProceedsDeferred     EventKind = "ProceedsDeferred"
	EventProceedsWithdrawn    EventKind = "ProceedsWithdrawn"
	EventSaleProposalReset    EventKind = "SaleProposalReset"
	EventEmergencyVoted       EventKind = "EmergencyVoted"
	EventEmergencyWithdrawn   EventKind = "EmergencyWithdrawn"
	EventPaused               EventKind = "Paused"
	EventUnpaused             EventKind = "Unpaused"
	EventClaimed              EventKind = "Claimed"
	EventClaimAmountUpdated   EventKind = "ClaimAmountUpdated"
	EventClaimCooldownUpdated EventKind = "ClaimCooldownUpdated"
	EventFaucetWithdrawn      EventKind = "FaucetWithdrawn"
)

// Event records one observable state change of a ledger component.
// ID and Digest are filled in by the journal.
type Event struct {
	ID         string            `json:"id" cbor:"-"`
	Source     Address           `json:"source" cbor:"1,keyasint"`
	Kind       EventKind         `json:"kind" cbor:"2,keyasint"`
	Actor      Address           `json:"actor" cbor:"3,keyasint"`
	Attributes map[string]string `json:"attributes,omitempty" cbor:"4,keyasint,omitempty"`
	OccurredAt time.Time         `json:"occurredAt" cbor:"5,keyasint"`
	Digest     string            `json:"digest" cbor:"-"`
}

func NewEvent(source Address, kind EventKind, actor Address, at time.Time, attrs ...string) Event {
	event := Event{
		Source:     source,
		Kind:       kind,
		Actor:      actor,
		OccurredAt: at.UTC(),
	}
	if len(attrs) > 1 {
		event.Attributes = make(map[string]string, len(attrs)/2)
		for i := 0; i+1 < len(attrs); i += 2 {
			event.Attributes[attrs[i]] = attrs[i+1]
		}
	}
	return event
}
