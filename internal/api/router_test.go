package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"customer-ledger/internal/api/handler/dto"
	mw "customer-ledger/internal/api/middleware"
	"customer-ledger/internal/config"
	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/domain/ledger"
	"customer-ledger/internal/infrastructure/database/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, authEnabled bool) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{}
	cfg.Server.Auth = config.AuthConfig{Enabled: authEnabled, JWTSecret: "router-secret", TokenTTL: time.Hour}
	cfg.Metrics.Path = "/metrics"

	repo := memory.NewCustomerRepository(logger)
	cs := customer.NewCustomerService(repo, nil, logger)
	ls := ledger.NewLedgerService(cs, nil, logger)
	rl := mw.NewRateLimiterMiddleware(config.RateLimitConfig{Enabled: false}, logger)
	t.Cleanup(rl.Stop)

	srv := httptest.NewServer(SetupRouter(cs, ls, rl, cfg, logger))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body, token string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestRouterAuthenticatedFlow(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, http.MethodPost, srv.URL+"/customers",
		`{"name":"Root","dob":"1960-01-01","city":"Pune","account_number":"ADM-1","balance":0,"password":"pw","role":"admin"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodPost, srv.URL+"/customers",
		`{"name":"Alice","dob":"1990-05-01","city":"Pune","account_number":"ACC-1","balance":100,"password":"pw","role":"user"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/customers/2/balance", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = do(t, http.MethodPost, srv.URL+"/auth/token", `{"customerId":2,"password":"pw"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var userToken dto.TokenResponse
	require.NoError(t, json.Unmarshal(body, &userToken))

	resp, body = do(t, http.MethodPost, srv.URL+"/customers/2/deposit", `{"amount":50}`, userToken.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"message":"Deposit successful","newBalance":150}`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/customers/1/balance", "", userToken.Token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/admin/senior-citizens?admin_id=2", "", userToken.Token)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = do(t, http.MethodPost, srv.URL+"/auth/token", `{"customerId":1,"password":"pw"}`, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var adminToken dto.TokenResponse
	require.NoError(t, json.Unmarshal(body, &adminToken))

	resp, body = do(t, http.MethodGet, srv.URL+"/customers/city/Pune?admin_id=1", "", adminToken.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var list dto.CustomerListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list.Customers, 2)

	resp, body = do(t, http.MethodDelete, srv.URL+"/admin/users/2", `{"admin_id":1}`, adminToken.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, _ = do(t, http.MethodPost, srv.URL+"/auth/token", `{"customerId":2,"password":"pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRouterWithoutAuth(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := do(t, http.MethodPost, srv.URL+"/customers",
		`{"name":"Alice","dob":"1990-05-01","city":"Pune","account_number":"ACC-1","balance":10,"password":"pw","role":"user"}`, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = do(t, http.MethodPost, srv.URL+"/customers/1/withdraw", `{"amount":11}`, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "INSUFFICIENT_FUNDS")

	resp, body = do(t, http.MethodGet, srv.URL+"/customers/1/balance", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"customerId":1,"balance":10}`, string(body))
}

func TestRouterAmbientRoutes(t *testing.T) {
	srv := newTestServer(t, true)

	resp, body := do(t, http.MethodGet, srv.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = do(t, http.MethodGet, srv.URL+"/does/not/exist", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"This URL does not exist"}}`, string(body))

	resp, _ = do(t, http.MethodGet, srv.URL+"/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
