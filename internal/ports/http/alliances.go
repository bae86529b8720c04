package http

import (
	"errors"
	"flash-alliance/internal/model"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type createAllianceRequest struct {
	TargetPrice     string   `json:"targetPrice"`
	DurationSeconds int64    `json:"durationSeconds"`
	Participants    []string `json:"participants"`
	Shares          []uint8  `json:"shares"`
}

type amountRequest struct {
	Amount string `json:"amount"`
}

type acquireRequest struct {
	Collection string `json:"collection"`
	ItemID     string `json:"itemId"`
	Holder     string `json:"holder"`
}

type voteToSellRequest struct {
	Buyer    string `json:"buyer"`
	Price    string `json:"price"`
	Deadline int64  `json:"deadline"`
}

type emergencyVoteRequest struct {
	Recipient string `json:"recipient"`
}

type createdResponse struct {
	Address model.Address `json:"address"`
}

func (ser server) allianceParam(r *http.Request) (model.Address, error) {
	var err error
	address := parseAddress(&err, "alliance", mux.Vars(r)["alliance"])
	return address, err
}

func (ser server) getAlliances(w http.ResponseWriter, r *http.Request) {
	ser.ok(w, ser.app.Alliances())
}

func (ser server) getAllianceAt(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		ser.badRequest(w, errors.New("index is not a valid number"))
		return
	}

	address, err := ser.app.AllianceAt(index)
	if err != nil {
		ser.ledgerError(w, "getting the alliance", err)
		return
	}
	ser.ok(w, createdResponse{Address: address})
}

func (ser server) getAlliance(w http.ResponseWriter, r *http.Request) {
	address, err := ser.allianceParam(r)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	snapshot, err := ser.app.Alliance(address)
	if err != nil {
		ser.ledgerError(w, "getting the alliance", err)
		return
	}
	ser.ok(w, snapshot)
}

func (ser server) getAllianceEvents(w http.ResponseWriter, r *http.Request) {
	address, err := ser.allianceParam(r)
	if err != nil {
		ser.badRequest(w, err)
		return
	}
	if _, err := ser.app.Alliance(address); err != nil {
		ser.ledgerError(w, "getting the alliance events", err)
		return
	}
	ser.writeEvents(w, r, address)
}

func (ser server) createAlliance(w http.ResponseWriter, r *http.Request) {
	var req createAllianceRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	var err error
	target := parseAmount(&err, "targetPrice", req.TargetPrice)
	duration := parseSeconds(&err, "durationSeconds", req.DurationSeconds)
	participants := make([]model.Address, len(req.Participants))
	for i, raw := range req.Participants {
		participants[i] = parseAddress(&err, "participants["+strconv.Itoa(i)+"]", raw)
	}
	if len(participants) == 0 {
		err = multierr.Append(err, errors.New("participants are missing"))
	}
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	address, err := ser.app.CreateAlliance(ctx, callerOf(r), target, duration, participants, req.Shares)
	if err != nil {
		ser.ledgerError(w, "creating the alliance", err)
		return
	}

	ser.logger.Info("alliance created over http", zap.String("alliance", address.String()))
	ser.writeJSON(w, http.StatusCreated, createdResponse{Address: address})
}

func (ser server) deposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	address, err := ser.allianceParam(r)
	amount := parseAmount(&err, "amount", req.Amount)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.Deposit(ctx, address, callerOf(r), amount); err != nil {
		ser.ledgerError(w, "deposit", err)
		return
	}
	ser.done(w)
}

func (ser server) acquireAsset(w http.ResponseWriter, r *http.Request) {
	var req acquireRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	address, err := ser.allianceParam(r)
	collection := parseAddress(&err, "collection", req.Collection)
	itemID := parseUint(&err, "itemId", req.ItemID)
	holder := parseAddress(&err, "holder", req.Holder)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.AcquireAsset(ctx, address, callerOf(r), collection, itemID, holder); err != nil {
		ser.ledgerError(w, "acquiring the asset", err)
		return
	}
	ser.done(w)
}

func (ser server) voteToSell(w http.ResponseWriter, r *http.Request) {
	var req voteToSellRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	address, err := ser.allianceParam(r)
	buyer := parseAddress(&err, "buyer", req.Buyer)
	price := parseAmount(&err, "price", req.Price)
	if req.Deadline <= 0 {
		err = multierr.Append(err, errors.New("deadline must be a unix timestamp"))
	}
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	deadline := time.Unix(req.Deadline, 0).UTC()
	if err := ser.app.VoteToSell(ctx, address, callerOf(r), buyer, price, deadline); err != nil {
		ser.ledgerError(w, "sale vote", err)
		return
	}
	ser.done(w)
}

func (ser server) voteEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	var req emergencyVoteRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	address, err := ser.allianceParam(r)
	recipient := parseAddress(&err, "recipient", req.Recipient)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.VoteEmergencyWithdraw(ctx, address, callerOf(r), recipient); err != nil {
		ser.ledgerError(w, "emergency vote", err)
		return
	}
	ser.done(w)
}

// allianceAction serves the alliance operations that take no body.
func (ser server) allianceAction(operation string, call func(r *http.Request, address model.Address) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address, err := ser.allianceParam(r)
		if err != nil {
			ser.badRequest(w, err)
			return
		}
		if err := call(r, address); err != nil {
			ser.ledgerError(w, operation, err)
			return
		}
		ser.done(w)
	}
}

func (ser server) cancelFunding(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("cancelling the funding", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.CancelFunding(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) withdrawRefund(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("refund", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.WithdrawRefund(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) executeSale(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("executing the sale", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.ExecuteSale(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) resetSaleProposal(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("resetting the sale proposal", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.ResetSaleProposal(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) withdrawProceeds(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("withdrawing the proceeds", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.WithdrawProceeds(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) emergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("emergency withdrawal", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.EmergencyWithdraw(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) pauseAlliance(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("pausing the alliance", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.PauseAlliance(ctx, address, callerOf(r))
	})(w, r)
}

func (ser server) unpauseAlliance(w http.ResponseWriter, r *http.Request) {
	ser.allianceAction("unpausing the alliance", func(r *http.Request, address model.Address) error {
		ctx, cancel := ser.requestContext(r)
		defer cancel()
		return ser.app.UnpauseAlliance(ctx, address, callerOf(r))
	})(w, r)
}
