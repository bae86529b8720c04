package http

import (
	"flash-alliance/internal/model"
	"net/http"

	"github.com/gorilla/mux"
)

type transferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type approveRequest struct {
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type balanceResponse struct {
	Account model.Address `json:"account"`
	Balance model.Amount  `json:"balance"`
}

type allowanceResponse struct {
	Owner     model.Address `json:"owner"`
	Spender   model.Address `json:"spender"`
	Allowance model.Amount  `json:"allowance"`
}

func (ser server) getToken(w http.ResponseWriter, r *http.Request) {
	ser.ok(w, ser.app.TokenInfo())
}

func (ser server) getBalance(w http.ResponseWriter, r *http.Request) {
	var err error
	account := parseAddress(&err, "account", mux.Vars(r)["account"])
	if err != nil {
		ser.badRequest(w, err)
		return
	}
	ser.ok(w, balanceResponse{Account: account, Balance: ser.app.BalanceOf(account)})
}

func (ser server) getAllowance(w http.ResponseWriter, r *http.Request) {
	var err error
	params := mux.Vars(r)
	owner := parseAddress(&err, "owner", params["owner"])
	spender := parseAddress(&err, "spender", params["spender"])
	if err != nil {
		ser.badRequest(w, err)
		return
	}
	ser.ok(w, allowanceResponse{Owner: owner, Spender: spender, Allowance: ser.app.Allowance(owner, spender)})
}

func (ser server) readTransfer(w http.ResponseWriter, r *http.Request) (model.Address, model.Amount, bool) {
	var req transferRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return "", model.Amount{}, false
	}

	var err error
	to := parseAddress(&err, "to", req.To)
	amount := parseAmount(&err, "amount", req.Amount)
	if err != nil {
		ser.badRequest(w, err)
		return "", model.Amount{}, false
	}
	return to, amount, true
}

func (ser server) mint(w http.ResponseWriter, r *http.Request) {
	to, amount, ok := ser.readTransfer(w, r)
	if !ok {
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.Mint(ctx, callerOf(r), to, amount); err != nil {
		ser.ledgerError(w, "mint", err)
		return
	}
	ser.done(w)
}

func (ser server) transfer(w http.ResponseWriter, r *http.Request) {
	to, amount, ok := ser.readTransfer(w, r)
	if !ok {
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.Transfer(ctx, callerOf(r), to, amount); err != nil {
		ser.ledgerError(w, "transfer", err)
		return
	}
	ser.done(w)
}

func (ser server) approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	var err error
	spender := parseAddress(&err, "spender", req.Spender)
	amount := parseAmount(&err, "amount", req.Amount)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.Approve(ctx, callerOf(r), spender, amount); err != nil {
		ser.ledgerError(w, "approve", err)
		return
	}
	ser.done(w)
}

func (ser server) pauseToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.PauseToken(ctx, callerOf(r)); err != nil {
		ser.ledgerError(w, "pausing the token", err)
		return
	}
	ser.done(w)
}

func (ser server) unpauseToken(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.UnpauseToken(ctx, callerOf(r)); err != nil {
		ser.ledgerError(w, "unpausing the token", err)
		return
	}
	ser.done(w)
}
