// Package httpapi exposes the trading services over a JSON REST API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Delta200513/InvestBuy/internal/domain"
	"github.com/Delta200513/InvestBuy/internal/usecase/dashboard"
	"github.com/Delta200513/InvestBuy/internal/usecase/ledger"
	"github.com/Delta200513/InvestBuy/internal/usecase/recorder"
	"github.com/Delta200513/InvestBuy/internal/usecase/registration"
)

// QuoteBoard is the read side of the quote cache: the full quote list
// plus cache bookkeeping for the status endpoint.
type QuoteBoard interface {
	Quotes(ctx context.Context) ([]*domain.Quote, error)
	Refresh(ctx context.Context) error
	LastUpdate() time.Time
	Fresh() bool
}

// AccountCounter reports how many accounts exist, for the status
// endpoint.
type AccountCounter interface {
	CountAccounts(ctx context.Context) (int, error)
}

// Server wires the use case services into a chi router.
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger

	registration *registration.Service
	ledger       *ledger.Service
	recorder     *recorder.Service
	dashboard    *dashboard.Service
	quotes       QuoteBoard
	counter      AccountCounter
}

// Config holds everything the HTTP server needs.
type Config struct {
	Log          zerolog.Logger
	Addr         string
	APIToken     string
	Registration *registration.Service
	Ledger       *ledger.Service
	Recorder     *recorder.Service
	Dashboard    *dashboard.Service
	Quotes       QuoteBoard
	Counter      AccountCounter
}

// New creates a new HTTP server.
func New(cfg Config) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		log:          cfg.Log.With().Str("component", "httpapi").Logger(),
		registration: cfg.Registration,
		ledger:       cfg.Ledger,
		recorder:     cfg.Recorder,
		dashboard:    cfg.Dashboard,
		quotes:       cfg.Quotes,
		counter:      cfg.Counter,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.APIToken)

	s.server = &http.Server{
		Addr:    cfg.Addr,
		Handler: s.router,
	}

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes(apiToken string) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Market data and status are public.
		r.Get("/status", s.handleStatus)
		r.Get("/stocks", s.handleStocks)
		r.Post("/stocks/refresh", s.handleStocksRefresh)

		// Account operations require the API token.
		r.Group(func(r chi.Router) {
			r.Use(Auth(apiToken))

			r.Post("/accounts", s.handleRegister)
			r.Route("/accounts/{accountID}", func(r chi.Router) {
				r.Post("/deposit", s.handleDeposit)
				r.Post("/buy", s.handleBuy)
				r.Post("/sell", s.handleSell)
				r.Get("/holdings", s.handleHoldings)
				r.Get("/portfolio", s.handlePortfolio)
				r.Get("/transactions", s.handleTransactions)
			})
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Name string `json:"name"`
}

type accountResponse struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.registration.Register(r.Context(), req.Name)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountResponse{
		AccountID: account.ID.String(),
		Name:      account.Name,
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt.UTC().Format(time.RFC3339),
	})
}

type depositRequest struct {
	Amount string `json:"amount"`
}

type balanceResponse struct {
	Balance string `json:"balance"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.accountID(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount format")
		return
	}

	balance, err := s.ledger.Deposit(r.Context(), accountID, amount)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.StringFixed(2)})
}

type tradeRequest struct {
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.ledger.Buy)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	s.handleTrade(w, r, s.ledger.Sell)
}

func (s *Server) handleTrade(
	w http.ResponseWriter,
	r *http.Request,
	execute func(ctx context.Context, accountID uuid.UUID, symbol string, quantity int64, price decimal.Decimal) (decimal.Decimal, error),
) {
	accountID, ok := s.accountID(w, r)
	if !ok {
		return
	}

	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price format")
		return
	}

	balance, err := execute(r.Context(), accountID, req.Symbol, req.Quantity, price)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{Balance: balance.StringFixed(2)})
}

type holdingResponse struct {
	Symbol      string `json:"symbol"`
	Quantity    int64  `json:"quantity"`
	AvgPrice    string `json:"avg_price"`
	FirstBought string `json:"first_bought"`
}

func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.accountID(w, r)
	if !ok {
		return
	}

	holdings, err := s.ledger.Holdings(r.Context(), accountID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	out := make([]holdingResponse, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, holdingResponse{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AvgPrice:    h.AvgPrice.StringFixed(2),
			FirstBought: h.FirstBought.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"holdings": out})
}

type valuedHoldingResponse struct {
	Symbol           string `json:"symbol"`
	Quantity         int64  `json:"quantity"`
	AvgPrice         string `json:"avg_price"`
	CurrentPrice     string `json:"current_price"`
	MarketValue      string `json:"market_value"`
	UnrealizedProfit string `json:"unrealized_profit"`
	ReturnPercent    string `json:"return_percent"`
}

type portfolioResponse struct {
	AccountID        string                  `json:"account_id"`
	Balance          string                  `json:"balance"`
	Holdings         []valuedHoldingResponse `json:"holdings"`
	TotalMarketValue string                  `json:"total_market_value"`
	TotalProfit      string                  `json:"total_profit"`
	ReturnPercent    string                  `json:"return_percent"`
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.accountID(w, r)
	if !ok {
		return
	}

	view, err := s.dashboard.Portfolio(r.Context(), accountID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	holdings := make([]valuedHoldingResponse, 0, len(view.Holdings))
	for _, h := range view.Holdings {
		holdings = append(holdings, valuedHoldingResponse{
			Symbol:           h.Symbol,
			Quantity:         h.Quantity,
			AvgPrice:         h.AvgPrice.StringFixed(2),
			CurrentPrice:     h.CurrentPrice.StringFixed(2),
			MarketValue:      h.MarketValue.StringFixed(2),
			UnrealizedProfit: h.UnrealizedProfit.StringFixed(2),
			ReturnPercent:    h.ReturnPercent.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, portfolioResponse{
		AccountID:        view.AccountID.String(),
		Balance:          view.Balance.StringFixed(2),
		Holdings:         holdings,
		TotalMarketValue: view.TotalMarketValue.StringFixed(2),
		TotalProfit:      view.TotalProfit.StringFixed(2),
		ReturnPercent:    view.ReturnPercent.StringFixed(2),
	})
}

type transactionResponse struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
	Price    string `json:"price"`
	Side     string `json:"side"`
	Date     string `json:"date"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, ok := s.accountID(w, r)
	if !ok {
		return
	}

	transactions, err := s.recorder.History(r.Context(), accountID)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	out := make([]transactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		out = append(out, transactionResponse{
			ID:       tx.ID.String(),
			Symbol:   tx.Symbol,
			Quantity: tx.Quantity,
			Price:    tx.Price.StringFixed(2),
			Side:     string(tx.Side),
			Date:     tx.Date.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": out})
}

type stockResponse struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"change_percent"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Open          string `json:"open"`
	PreviousClose string `json:"previous_close"`
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	all, err := s.quotes.Quotes(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	out := make([]stockResponse, 0, len(all))
	for _, q := range all {
		out = append(out, stockResponse{
			Symbol:        q.Symbol,
			Name:          q.Name,
			Price:         q.Price.StringFixed(2),
			Change:        q.Change.StringFixed(2),
			ChangePercent: q.ChangePercent.StringFixed(2),
			High:          q.High.StringFixed(2),
			Low:           q.Low.StringFixed(2),
			Open:          q.Open.StringFixed(2),
			PreviousClose: q.PreviousClose.StringFixed(2),
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"stocks": out})
}

func (s *Server) handleStocksRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.quotes.Refresh(r.Context()); err != nil {
		s.writeMappedError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"last_update": s.quotes.LastUpdate().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.counter.CountAccounts(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	lastUpdate := ""
	if t := s.quotes.LastUpdate(); !t.IsZero() {
		lastUpdate = t.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"accounts":      count,
		"quotes_fresh":  s.quotes.Fresh(),
		"quotes_update": lastUpdate,
	})
}

// accountID parses the accountID URL parameter, writing a 400 response
// on failure.
func (s *Server) accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "accountID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account_id format")
		return uuid.Nil, false
	}
	return id, true
}

// writeMappedError converts domain errors to HTTP status codes.
func (s *Server) writeMappedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrHoldingNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAccountExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientShares):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrQuoteUnavailable):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.log.Error().Err(err).Msg("Unhandled error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
