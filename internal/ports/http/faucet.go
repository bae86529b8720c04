package http

import (
	"errors"
	"flash-alliance/internal/model"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type deployFaucetRequest struct {
	ClaimAmount     string `json:"claimAmount"`
	CooldownSeconds int64  `json:"cooldownSeconds"`
}

type cooldownRequest struct {
	CooldownSeconds int64 `json:"cooldownSeconds"`
}

type withdrawRequest struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type faucetResponse struct {
	Address         model.Address `json:"address"`
	Owner           model.Address `json:"owner"`
	Balance         model.Amount  `json:"balance"`
	ClaimAmount     model.Amount  `json:"claimAmount"`
	CooldownSeconds int64         `json:"cooldownSeconds"`
}

type claimResponse struct {
	Account     model.Address `json:"account"`
	LastClaimAt *time.Time    `json:"lastClaimAt,omitempty"`
	NextClaimAt time.Time     `json:"nextClaimAt"`
}

func (ser server) getFaucet(w http.ResponseWriter, r *http.Request) {
	info, err := ser.app.FaucetInfo()
	if err != nil {
		ser.ledgerError(w, "getting the faucet", err)
		return
	}
	ser.ok(w, faucetResponse{
		Address:         info.Address,
		Owner:           info.Owner,
		Balance:         info.Balance,
		ClaimAmount:     info.ClaimAmount,
		CooldownSeconds: int64(info.ClaimCooldown / time.Second),
	})
}

func (ser server) getClaim(w http.ResponseWriter, r *http.Request) {
	var err error
	account := parseAddress(&err, "account", mux.Vars(r)["account"])
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	next, last, claimed, err := ser.app.NextClaimAt(account)
	if err != nil {
		ser.ledgerError(w, "getting the claim", err)
		return
	}
	response := claimResponse{Account: account, NextClaimAt: next}
	if claimed {
		response.LastClaimAt = &last
	}
	ser.ok(w, response)
}

func (ser server) deployFaucet(w http.ResponseWriter, r *http.Request) {
	var req deployFaucetRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	var err error
	amount := parseAmount(&err, "claimAmount", req.ClaimAmount)
	cooldown := parseSeconds(&err, "cooldownSeconds", req.CooldownSeconds)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	address, err := ser.app.DeployFaucet(ctx, callerOf(r), amount, cooldown)
	if err != nil {
		ser.ledgerError(w, "deploying the faucet", err)
		return
	}
	ser.writeJSON(w, http.StatusCreated, createdResponse{Address: address})
}

func (ser server) claim(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.Claim(ctx, callerOf(r)); err != nil {
		ser.ledgerError(w, "claim", err)
		return
	}
	ser.done(w)
}

func (ser server) setClaimAmount(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	var err error
	amount := parseAmount(&err, "amount", req.Amount)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.SetClaimAmount(ctx, callerOf(r), amount); err != nil {
		ser.ledgerError(w, "setting the claim amount", err)
		return
	}
	ser.done(w)
}

func (ser server) setClaimCooldown(w http.ResponseWriter, r *http.Request) {
	var req cooldownRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	if req.CooldownSeconds > model.MaxDurationSeconds {
		ser.badRequest(w, errors.New("cooldownSeconds: "+model.ErrSecondsOverflow.Error()))
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	// zero reaches the faucet so it reports its own validation error
	cooldown := time.Duration(req.CooldownSeconds) * time.Second
	if err := ser.app.SetClaimCooldown(ctx, callerOf(r), cooldown); err != nil {
		ser.ledgerError(w, "setting the claim cooldown", err)
		return
	}
	ser.done(w)
}

func (ser server) withdrawFaucet(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	var err error
	recipient := parseAddress(&err, "recipient", req.Recipient)
	amount := parseAmount(&err, "amount", req.Amount)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.WithdrawFaucet(ctx, callerOf(r), recipient, amount); err != nil {
		ser.ledgerError(w, "withdrawing from the faucet", err)
		return
	}
	ser.done(w)
}
