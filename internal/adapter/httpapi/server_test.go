package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Delta200513/InvestBuy/internal/adapter/quotes"
	"github.com/Delta200513/InvestBuy/internal/adapter/repository/memory"
	"github.com/Delta200513/InvestBuy/internal/usecase/dashboard"
	"github.com/Delta200513/InvestBuy/internal/usecase/ledger"
	"github.com/Delta200513/InvestBuy/internal/usecase/recorder"
	"github.com/Delta200513/InvestBuy/internal/usecase/registration"
	"github.com/shopspring/decimal"
)

const testToken = "test-token"

func newTestServer(t *testing.T) *Server {
	t.Helper()

	log := zerolog.Nop()
	store := memory.NewStore()
	quoteCache := quotes.NewCache(quotes.NewSynthetic(42), 5*time.Minute, log)

	recorderService := recorder.NewService(store, log)
	ledgerService := ledger.NewService(store, recorderService, log)

	return New(Config{
		Log:          log,
		Addr:         ":0",
		APIToken:     testToken,
		Registration: registration.NewService(store, decimal.NewFromInt(100000), log),
		Ledger:       ledgerService,
		Recorder:     recorderService,
		Dashboard:    dashboard.NewService(ledgerService, quoteCache, log),
		Quotes:       quoteCache,
		Counter:      store,
	})
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+testToken)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec
}

func registerAccount(t *testing.T, handler http.Handler) string {
	t.Helper()

	var resp accountResponse
	rec := doJSON(t, handler, http.MethodPost, "/api/accounts", registerRequest{Name: "tester"}, &resp)
	require.Equal(t, http.StatusCreated, rec.Code)
	return resp.AccountID
}

func TestRegisterAccount(t *testing.T) {
	handler := newTestServer(t).Handler()

	var resp accountResponse
	rec := doJSON(t, handler, http.MethodPost, "/api/accounts", registerRequest{Name: "tester"}, &resp)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "tester", resp.Name)
	assert.Equal(t, "100000.00", resp.Balance)
	_, err := uuid.Parse(resp.AccountID)
	assert.NoError(t, err)
}

func TestDepositAndBuyFlow(t *testing.T) {
	handler := newTestServer(t).Handler()
	accountID := registerAccount(t, handler)

	var dep balanceResponse
	rec := doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/deposit",
		depositRequest{Amount: "500.00"}, &dep)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "100500.00", dep.Balance)

	var buy balanceResponse
	rec = doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/buy",
		tradeRequest{Symbol: "AAPL", Quantity: 10, Price: "268.89"}, &buy)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "97811.10", buy.Balance)

	var holdings struct {
		Holdings []holdingResponse `json:"holdings"`
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/accounts/"+accountID+"/holdings", nil, &holdings)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, holdings.Holdings, 1)
	assert.Equal(t, "AAPL", holdings.Holdings[0].Symbol)
	assert.Equal(t, int64(10), holdings.Holdings[0].Quantity)
	assert.Equal(t, "268.89", holdings.Holdings[0].AvgPrice)
}

func TestBuyInsufficientFunds(t *testing.T) {
	handler := newTestServer(t).Handler()
	accountID := registerAccount(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/buy",
		tradeRequest{Symbol: "AAPL", Quantity: 1000, Price: "268.89"}, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "insufficient funds")
}

func TestSellWithoutHolding(t *testing.T) {
	handler := newTestServer(t).Handler()
	accountID := registerAccount(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/sell",
		tradeRequest{Symbol: "AAPL", Quantity: 1, Price: "268.89"}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownAccountReturns404(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodPost, fmt.Sprintf("/api/accounts/%s/deposit", uuid.New()),
		depositRequest{Amount: "100.00"}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMalformedAccountIDReturns400(t *testing.T) {
	handler := newTestServer(t).Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/accounts/not-a-uuid/holdings", nil, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvalidQuantityReturns400(t *testing.T) {
	handler := newTestServer(t).Handler()
	accountID := registerAccount(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/buy",
		tradeRequest{Symbol: "AAPL", Quantity: 0, Price: "268.89"}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountRoutesRequireToken(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/api/accounts", bytes.NewBufferString(`{"name":"x"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStocksIsPublic(t *testing.T) {
	handler := newTestServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/stocks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Stocks []stockResponse `json:"stocks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Stocks)
}

func TestStatus(t *testing.T) {
	handler := newTestServer(t).Handler()
	registerAccount(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status   string `json:"status"`
		Accounts int    `json:"accounts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Accounts)
}

func TestTransactionsHistory(t *testing.T) {
	handler := newTestServer(t).Handler()
	accountID := registerAccount(t, handler)

	rec := doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/buy",
		tradeRequest{Symbol: "MSFT", Quantity: 5, Price: "387.15"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/accounts/"+accountID+"/sell",
		tradeRequest{Symbol: "MSFT", Quantity: 2, Price: "390.00"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Transactions []transactionResponse `json:"transactions"`
	}
	rec = doJSON(t, handler, http.MethodGet, "/api/accounts/"+accountID+"/transactions", nil, &resp)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Transactions, 2)
	assert.Equal(t, "BUY", resp.Transactions[0].Side)
	assert.Equal(t, "SELL", resp.Transactions[1].Side)
}
