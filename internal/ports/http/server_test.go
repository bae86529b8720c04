package http

import (
	"bytes"
	"context"
	"encoding/json"
	"flash-alliance/internal/alliance"
	"flash-alliance/internal/app"
	"flash-alliance/internal/apperr"
	"flash-alliance/internal/faucet"
	"flash-alliance/internal/guard"
	"flash-alliance/internal/model"
	"flash-alliance/internal/ports/http/middleware/auth"
	"flash-alliance/internal/registry"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	deployer model.Address = "0x00000000000000000000000000000000000000d0"
	alice    model.Address = "0x00000000000000000000000000000000000000a1"
	bob      model.Address = "0x00000000000000000000000000000000000000b2"
	seller   model.Address = "0x00000000000000000000000000000000000000e4"
	buyer    model.Address = "0x00000000000000000000000000000000000000f5"

	secret = "test-secret"
)

var start = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler http.Handler
	clock   *clock.Mock
	app     *app.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(start)

	a, err := app.NewApp(zap.NewNop(), nil, app.Config{Deployer: deployer, TokenName: "Flash Alliance Token", TokenSymbol: "FATK"}, app.WithClock(clk))
	require.NoError(t, err)

	ser := NewServer(zap.NewNop(), a, ":0", Options{Auth: auth.JwtTokenParams{Secret: secret}, RequestTimeout: time.Second})
	return &testServer{t: t, handler: ser.Handler(), clock: clk, app: a}
}

func (s *testServer) do(method string, path string, caller model.Address, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		token, err := auth.IssueToken(auth.JwtTokenParams{Issuer: auth.DefaultIssuer, Secret: secret}, caller, time.Now(), time.Hour)
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) decode(rec *httptest.ResponseRecorder, dest interface{}) {
	s.t.Helper()
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func units(value string) string {
	return model.MustParseUnits(value, model.DefaultDecimals).String()
}

func (s *testServer) createAlliance(target string) model.Address {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/alliances", deployer, map[string]interface{}{
		"targetPrice":     units(target),
		"durationSeconds": 3600,
		"participants":    []string{alice.String(), bob.String()},
		"shares":          []int{60, 40},
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var created createdResponse
	s.decode(rec, &created)
	return created.Address
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "all good here", rec.Body.String())
}

func TestMutationsRequireToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/api/token/mint", "", map[string]string{"to": alice.String(), "amount": "1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAllianceOverHTTP(t *testing.T) {
	s := newTestServer(t)
	address := s.createAlliance("100")
	base := "/api/alliances/" + address.String()

	var listed []model.Address
	s.decode(s.do(http.MethodGet, "/api/alliances", "", nil), &listed)
	assert.Equal(t, []model.Address{address}, listed)

	var at createdResponse
	s.decode(s.do(http.MethodGet, "/api/alliances/index/0", "", nil), &at)
	assert.Equal(t, address, at.Address)

	for _, member := range []model.Address{alice, bob} {
		rec := s.do(http.MethodPost, "/api/token/mint", deployer, map[string]string{"to": member.String(), "amount": units("100")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		rec = s.do(http.MethodPost, "/api/token/approve", member, map[string]string{"spender": address.String(), "amount": units("100")})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// non participant
	rec := s.do(http.MethodPost, base+"/deposit", seller, map[string]string{"amount": units("1")})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, base+"/deposit", alice, map[string]string{"amount": units("101")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var failure errorResponse
	s.decode(rec, &failure)
	assert.Equal(t, string(apperr.KindValidation), failure.Kind)
	assert.Equal(t, alliance.ErrExceedsTarget.Error(), failure.Message)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/deposit", alice, map[string]string{"amount": units("60")}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/deposit", bob, map[string]string{"amount": units("40")}).Code)

	// collection and item offered by the seller
	rec = s.do(http.MethodPost, "/api/collections", deployer, map[string]string{"name": "Mock", "symbol": "MOCK"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var collection createdResponse
	s.decode(rec, &collection)
	items := "/api/collections/" + collection.Address.String() + "/items"

	rec = s.do(http.MethodPost, items, seller, map[string]string{"to": seller.String(), "itemId": "9"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = s.do(http.MethodPost, items+"/9/approve", seller, map[string]string{"spender": address.String()})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, base+"/acquire", bob, map[string]string{
		"collection": collection.Address.String(), "itemId": "9", "holder": seller.String(),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var item itemResponse
	s.decode(s.do(http.MethodGet, items+"/9", "", nil), &item)
	assert.Equal(t, address, item.Owner)

	// sale below reserve with 60 weight stays under quorum
	deadline := start.Add(time.Hour).Unix()
	rec = s.do(http.MethodPost, base+"/sale/votes", alice, map[string]interface{}{
		"buyer": buyer.String(), "price": units("90"), "deadline": deadline,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, base+"/sale/votes", bob, map[string]interface{}{
		"buyer": buyer.String(), "price": units("95"), "deadline": deadline,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, base+"/sale/execute", bob, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, base+"/sale/reset", bob, nil)
	assert.Equal(t, http.StatusTooEarly, rec.Code)

	var snapshot model.AllianceSnapshot
	s.decode(s.do(http.MethodGet, base, "", nil), &snapshot)
	assert.Equal(t, model.StateHolding.String(), snapshot.State)
	assert.False(t, snapshot.Closed)
	require.NotNil(t, snapshot.Sale)
	assert.Equal(t, uint(60), snapshot.Sale.VotesWeight)

	// emergency recovery with the majority
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/emergency/votes", alice, map[string]string{"recipient": seller.String()}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/emergency/execute", bob, nil).Code)

	s.decode(s.do(http.MethodGet, items+"/9", "", nil), &item)
	assert.Equal(t, seller, item.Owner)

	s.decode(s.do(http.MethodGet, base, "", nil), &snapshot)
	assert.Equal(t, model.StateWithdrawn.String(), snapshot.State)
	assert.True(t, snapshot.Closed)

	var events []app.VerifiedEvent
	s.decode(s.do(http.MethodGet, base+"/events", "", nil), &events)
	require.NotEmpty(t, events)
	assert.Equal(t, model.EventEmergencyWithdrawn, events[len(events)-1].Kind)
	for _, event := range events {
		assert.True(t, event.Verified)
	}
}

func TestPauseOverHTTP(t *testing.T) {
	s := newTestServer(t)
	address := s.createAlliance("10")
	base := "/api/alliances/" + address.String()

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, base+"/pause", alice, nil).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/pause", deployer, nil).Code)

	rec := s.do(http.MethodPost, base+"/deposit", alice, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusLocked, rec.Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, base+"/unpause", deployer, nil).Code)
	rec = s.do(http.MethodPost, base+"/deposit", alice, map[string]string{"amount": "1"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/alliances", deployer, map[string]interface{}{
		"targetPrice":     "ten",
		"durationSeconds": 0,
		"participants":    []string{"alice"},
		"shares":          []int{100},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var failure errorResponse
	s.decode(rec, &failure)
	assert.Len(t, failure.Details, 3)

	rec = s.do(http.MethodPost, "/api/alliances", deployer, map[string]interface{}{
		"targetPrice":     units("10"),
		"durationSeconds": int64(20_000_000_000),
		"participants":    []string{alice.String()},
		"shares":          []int{100},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	s.decode(rec, &failure)
	require.Len(t, failure.Details, 1)
	assert.Contains(t, failure.Details[0], "durationSeconds")
	assert.Empty(t, s.app.Alliances())

	rec = s.do(http.MethodPost, "/api/alliances", deployer, map[string]interface{}{"unknown": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/alliances/0x00000000000000000000000000000000000000ff", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/alliances/index/x", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/api/alliances/not-an-address", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFaucetOverHTTP(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/api/faucet", "", nil).Code)

	rec := s.do(http.MethodPost, "/api/faucet", deployer, map[string]interface{}{"claimAmount": units("10"), "cooldownSeconds": 60})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created createdResponse
	s.decode(rec, &created)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/token/mint", deployer, map[string]string{"to": created.Address.String(), "amount": units("100")}).Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/faucet/claim", alice, nil).Code)
	rec = s.do(http.MethodPost, "/api/faucet/claim", alice, nil)
	assert.Equal(t, http.StatusTooEarly, rec.Code)

	var claim claimResponse
	s.decode(s.do(http.MethodGet, "/api/faucet/claims/"+alice.String(), "", nil), &claim)
	require.NotNil(t, claim.LastClaimAt)
	assert.True(t, start.Equal(*claim.LastClaimAt))
	assert.True(t, start.Add(time.Minute).Equal(claim.NextClaimAt))

	s.clock.Add(time.Minute)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/faucet/claim", alice, nil).Code)

	var balance balanceResponse
	s.decode(s.do(http.MethodGet, "/api/token/balances/"+alice.String(), "", nil), &balance)
	assert.Equal(t, units("20"), balance.Balance.String())

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodPost, "/api/faucet/claim-cooldown", alice, map[string]int{"cooldownSeconds": 5}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/faucet/claim-cooldown", deployer, map[string]int{"cooldownSeconds": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/faucet/claim-cooldown", deployer, map[string]int64{"cooldownSeconds": 20_000_000_000}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/faucet/claim-amount", deployer, map[string]string{"amount": units("1")}).Code)
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/faucet/withdraw", deployer, map[string]string{"recipient": bob.String(), "amount": units("30")}).Code)

	var info faucetResponse
	s.decode(s.do(http.MethodGet, "/api/faucet", "", nil), &info)
	assert.Equal(t, units("50"), info.Balance.String())
	assert.Equal(t, units("1"), info.ClaimAmount.String())
	assert.Equal(t, int64(60), info.CooldownSeconds)
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{alliance.ErrZeroAmount, http.StatusBadRequest},
		{guard.ErrUnauthorizedAccount, http.StatusForbidden},
		{alliance.ErrNotHolding, http.StatusConflict},
		{alliance.ErrQuorumNotReached, http.StatusConflict},
		{faucet.ErrCooldownActive, http.StatusTooEarly},
		{apperr.Wrap(apperr.KindTransfer, "alliance: deposit failed", guard.ErrEnforcedPause), http.StatusUnprocessableEntity},
		{guard.ErrEnforcedPause, http.StatusLocked},
		{registry.ErrNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{assert.AnError, http.StatusInternalServerError},
	}

	for i, tt := range tests {
		t.Run(strconv.Itoa(i), func(t *testing.T) {
			assert.Equal(t, tt.status, statusOf(tt.err))
		})
	}
}
