package http

import (
	"flash-alliance/internal/model"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

type createCollectionRequest struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

type mintItemRequest struct {
	To     string `json:"to"`
	ItemID string `json:"itemId"`
}

type approveItemRequest struct {
	Spender string `json:"spender"`
}

type itemResponse struct {
	Collection model.Address `json:"collection"`
	ItemID     uint64        `json:"itemId"`
	Owner      model.Address `json:"owner"`
	Approved   model.Address `json:"approved,omitempty"`
}

func (ser server) itemParams(r *http.Request) (model.Address, uint64, error) {
	var err error
	params := mux.Vars(r)
	collection := parseAddress(&err, "collection", params["collection"])
	itemID := parseUint(&err, "itemID", params["itemID"])
	return collection, itemID, err
}

func (ser server) getCollections(w http.ResponseWriter, r *http.Request) {
	ser.ok(w, ser.app.Collections())
}

func (ser server) createCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	address, err := ser.app.CreateCollection(ctx, callerOf(r), strings.TrimSpace(req.Name), strings.TrimSpace(req.Symbol))
	if err != nil {
		ser.ledgerError(w, "creating the collection", err)
		return
	}
	ser.writeJSON(w, http.StatusCreated, createdResponse{Address: address})
}

func (ser server) getItem(w http.ResponseWriter, r *http.Request) {
	collection, itemID, err := ser.itemParams(r)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	owner, err := ser.app.OwnerOf(r.Context(), collection, itemID)
	if err != nil {
		ser.ledgerError(w, "getting the item", err)
		return
	}
	approved, err := ser.app.GetApproved(r.Context(), collection, itemID)
	if err != nil {
		ser.ledgerError(w, "getting the item", err)
		return
	}
	ser.ok(w, itemResponse{Collection: collection, ItemID: itemID, Owner: owner, Approved: approved})
}

func (ser server) mintItem(w http.ResponseWriter, r *http.Request) {
	var req mintItemRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	var err error
	collection := parseAddress(&err, "collection", mux.Vars(r)["collection"])
	to := parseAddress(&err, "to", req.To)
	itemID := parseUint(&err, "itemId", req.ItemID)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.MintItem(ctx, collection, to, itemID); err != nil {
		ser.ledgerError(w, "minting the item", err)
		return
	}
	ser.writeJSON(w, http.StatusCreated, itemResponse{Collection: collection, ItemID: itemID, Owner: to})
}

func (ser server) approveItem(w http.ResponseWriter, r *http.Request) {
	var req approveItemRequest
	if err := readBody(w, r, &req); err != nil {
		ser.badRequest(w, err)
		return
	}

	collection, itemID, err := ser.itemParams(r)
	spender := parseAddress(&err, "spender", req.Spender)
	if err != nil {
		ser.badRequest(w, err)
		return
	}

	ctx, cancel := ser.requestContext(r)
	defer cancel()

	if err := ser.app.ApproveItem(ctx, callerOf(r), collection, spender, itemID); err != nil {
		ser.ledgerError(w, "approving the item", err)
		return
	}
	ser.done(w)
}
