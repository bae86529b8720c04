package http

import (
	"context"
	"flash-alliance/internal/app"
	"flash-alliance/internal/ports/http/middleware/auth"
	"flash-alliance/internal/ports/http/middleware/cors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

type server struct {
	app        *app.App
	httpServer *http.Server
	addr       string
	validator  auth.TokenValidator
	timeout    time.Duration
	origins    []string
	logger     *zap.Logger
}

type Options struct {
	Auth           auth.JwtTokenParams
	RequestTimeout time.Duration
	AllowedOrigins []string
}

func (ser server) registerHandlers(router *mux.Router) {

	router.HandleFunc("/health", healthcheck)

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/token", ser.getToken).Methods(http.MethodGet)
	api.HandleFunc("/token/balances/{account}", ser.getBalance).Methods(http.MethodGet)
	api.HandleFunc("/token/allowances/{owner}/{spender}", ser.getAllowance).Methods(http.MethodGet)
	api.Handle("/token/mint", ser.secured(ser.mint)).Methods(http.MethodPost)
	api.Handle("/token/approve", ser.secured(ser.approve)).Methods(http.MethodPost)
	api.Handle("/token/transfer", ser.secured(ser.transfer)).Methods(http.MethodPost)
	api.Handle("/token/pause", ser.secured(ser.pauseToken)).Methods(http.MethodPost)
	api.Handle("/token/unpause", ser.secured(ser.unpauseToken)).Methods(http.MethodPost)

	api.HandleFunc("/collections", ser.getCollections).Methods(http.MethodGet)
	api.Handle("/collections", ser.secured(ser.createCollection)).Methods(http.MethodPost)
	api.HandleFunc("/collections/{collection}/items/{itemID}", ser.getItem).Methods(http.MethodGet)
	api.Handle("/collections/{collection}/items", ser.secured(ser.mintItem)).Methods(http.MethodPost)
	api.Handle("/collections/{collection}/items/{itemID}/approve", ser.secured(ser.approveItem)).Methods(http.MethodPost)

	api.HandleFunc("/alliances", ser.getAlliances).Methods(http.MethodGet)
	api.Handle("/alliances", ser.secured(ser.createAlliance)).Methods(http.MethodPost)
	api.HandleFunc("/alliances/index/{index}", ser.getAllianceAt).Methods(http.MethodGet)
	api.HandleFunc("/alliances/{alliance}", ser.getAlliance).Methods(http.MethodGet)
	api.HandleFunc("/alliances/{alliance}/events", ser.getAllianceEvents).Methods(http.MethodGet)
	api.Handle("/alliances/{alliance}/deposit", ser.secured(ser.deposit)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/acquire", ser.secured(ser.acquireAsset)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/cancel", ser.secured(ser.cancelFunding)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/refund", ser.secured(ser.withdrawRefund)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/sale/votes", ser.secured(ser.voteToSell)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/sale/execute", ser.secured(ser.executeSale)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/sale/reset", ser.secured(ser.resetSaleProposal)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/proceeds/withdraw", ser.secured(ser.withdrawProceeds)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/emergency/votes", ser.secured(ser.voteEmergencyWithdraw)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/emergency/execute", ser.secured(ser.emergencyWithdraw)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/pause", ser.secured(ser.pauseAlliance)).Methods(http.MethodPost)
	api.Handle("/alliances/{alliance}/unpause", ser.secured(ser.unpauseAlliance)).Methods(http.MethodPost)

	api.HandleFunc("/faucet", ser.getFaucet).Methods(http.MethodGet)
	api.HandleFunc("/faucet/claims/{account}", ser.getClaim).Methods(http.MethodGet)
	api.Handle("/faucet", ser.secured(ser.deployFaucet)).Methods(http.MethodPost)
	api.Handle("/faucet/claim", ser.secured(ser.claim)).Methods(http.MethodPost)
	api.Handle("/faucet/claim-amount", ser.secured(ser.setClaimAmount)).Methods(http.MethodPost)
	api.Handle("/faucet/claim-cooldown", ser.secured(ser.setClaimCooldown)).Methods(http.MethodPost)
	api.Handle("/faucet/withdraw", ser.secured(ser.withdrawFaucet)).Methods(http.MethodPost)

	api.HandleFunc("/events", ser.getEvents).Methods(http.MethodGet)
}

func healthcheck(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("all good here"))
}

// secured requires a bearer token naming the caller.
func (ser server) secured(handler http.HandlerFunc) http.Handler {
	return ser.validator.Authenticate(handler)
}

// requestContext bounds a ledger call by the configured request timeout.
func (ser server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), ser.timeout)
}

func NewServer(logger *zap.Logger, a *app.App, address string, opts Options) server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Auth.Issuer == "" {
		opts.Auth.Issuer = auth.DefaultIssuer
	}
	return server{
		app:       a,
		addr:      address,
		validator: auth.NewTokenValidator(logger, opts.Auth),
		timeout:   opts.RequestTimeout,
		origins:   opts.AllowedOrigins,
		logger:    logger,
	}
}

func (ser server) Handler() http.Handler {
	router := mux.NewRouter()
	ser.registerHandlers(router)
	return cors.AddCorsPolicy(router, ser.origins)
}

func (ser server) Run() error {
	ser.httpServer = &http.Server{
		Handler:           ser.Handler(),
		Addr:              ser.addr,
		ReadHeaderTimeout: ser.timeout,
	}

	ser.logger.Info("listening", zap.String("addr", ser.addr))
	return ser.httpServer.ListenAndServe()
}
