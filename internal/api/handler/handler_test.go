package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"customer-ledger/internal/api/handler/dto"
	"customer-ledger/internal/api/middleware"
	"customer-ledger/internal/config"
	"customer-ledger/internal/domain/customer"
	"customer-ledger/internal/domain/ledger"
	"customer-ledger/internal/infrastructure/database/memory"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	customers customer.CustomerService
	ledger    ledger.LedgerService
	logger    *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := memory.NewCustomerRepository(logger)
	cs := customer.NewCustomerService(repo, nil, logger)
	return &testEnv{
		customers: cs,
		ledger:    ledger.NewLedgerService(cs, nil, logger, ledger.WithClock(func() time.Time { return testNow })),
		logger:    logger,
	}
}

func (e *testEnv) seed(t *testing.T, name, dob, city, acct string, balance int64, role string) int64 {
	t.Helper()
	c, err := e.customers.CreateCustomer(context.Background(), customer.NewCustomerParams{
		Name:          name,
		DateOfBirth:   dob,
		City:          city,
		AccountNumber: acct,
		Balance:       decimal.NewFromInt(balance),
		Password:      "secret",
		Role:          role,
	})
	require.NoError(t, err)
	return c.CustomerID
}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func withSubject(req *http.Request, id int64) *http.Request {
	return req.WithContext(middleware.WithSubject(req.Context(), id))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorDetail {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func TestCreateCustomerHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewCustomerHandler(env.customers, env.logger)

	t.Run("creates customer", func(t *testing.T) {
		body := `{"name":"Alice","dob":"1990-05-01","city":"Pune","account_number":"ACC-1","balance":1000.50,"password":"pw","role":"user"}`
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, newRequest(http.MethodPost, "/customers", body, nil))

		require.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CreateCustomerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.CustomerID)
		assert.Equal(t, "Customer created successfully!", resp.Message)
	})

	t.Run("duplicate account number is a conflict", func(t *testing.T) {
		body := `{"name":"Bob","dob":"1990-05-01","city":"Pune","account_number":"ACC-1","balance":0,"password":"pw","role":"user"}`
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, newRequest(http.MethodPost, "/customers", body, nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "CONFLICT", decodeError(t, rec).Code)
	})

	t.Run("string balance is rejected", func(t *testing.T) {
		body := `{"name":"Bob","dob":"1990-05-01","city":"Pune","account_number":"ACC-2","balance":"100","password":"pw","role":"user"}`
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, newRequest(http.MethodPost, "/customers", body, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		detail := decodeError(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", detail.Code)
		assert.Equal(t, "balance", detail.Field)
	})

	t.Run("missing field is rejected", func(t *testing.T) {
		body := `{"name":"Bob","city":"Pune","account_number":"ACC-3","balance":1,"password":"pw","role":"user"}`
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, newRequest(http.MethodPost, "/customers", body, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "dob", decodeError(t, rec).Field)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.CreateCustomer(rec, newRequest(http.MethodPost, "/customers", `{"name":`, nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLedgerHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewLedgerHandler(env.ledger, env.logger)
	aliceID := env.seed(t, "Alice", "1990-05-01", "Pune", "ACC-1", 100, "user")

	t.Run("get balance", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetBalance(rec, newRequest(http.MethodGet, "/", "", map[string]string{"customerID": id(aliceID)}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"customerId":1,"balance":100}`, rec.Body.String())
	})

	t.Run("deposit returns new balance as a number", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Deposit(rec, newRequest(http.MethodPost, "/", `{"amount":25.5}`, map[string]string{"customerID": id(aliceID)}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Deposit successful","newBalance":125.5}`, rec.Body.String())
	})

	t.Run("withdraw", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Withdraw(rec, newRequest(http.MethodPost, "/", `{"amount":25.5}`, map[string]string{"customerID": id(aliceID)}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Withdrawal successful","newBalance":100}`, rec.Body.String())
	})

	t.Run("overdraw is insufficient funds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Withdraw(rec, newRequest(http.MethodPost, "/", `{"amount":1000}`, map[string]string{"customerID": id(aliceID)}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INSUFFICIENT_FUNDS", decodeError(t, rec).Code)
	})

	t.Run("non-numeric amounts are rejected", func(t *testing.T) {
		for _, body := range []string{`{"amount":"10"}`, `{"amount":true}`, `{"amount":null}`, `{}`} {
			rec := httptest.NewRecorder()
			h.Deposit(rec, newRequest(http.MethodPost, "/", body, map[string]string{"customerID": id(aliceID)}))
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})

	t.Run("out of range amounts are rejected", func(t *testing.T) {
		for _, body := range []string{`{"amount":1e-20000000}`, `{"amount":1e20000000}`, `{"amount":0.123456789}`} {
			rec := httptest.NewRecorder()
			h.Deposit(rec, newRequest(http.MethodPost, "/", body, map[string]string{"customerID": id(aliceID)}))
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Equal(t, "amount", decodeError(t, rec).Field, body)
		}
	})

	t.Run("zero amount is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Deposit(rec, newRequest(http.MethodPost, "/", `{"amount":0}`, map[string]string{"customerID": id(aliceID)}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "amount", decodeError(t, rec).Field)
	})

	t.Run("unknown customer", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetBalance(rec, newRequest(http.MethodGet, "/", "", map[string]string{"customerID": "99"}))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("invalid customer id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.GetBalance(rec, newRequest(http.MethodGet, "/", "", map[string]string{"customerID": "abc"}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("token for another customer is forbidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := withSubject(newRequest(http.MethodPost, "/", `{"amount":1}`, map[string]string{"customerID": id(aliceID)}), aliceID+1)
		h.Withdraw(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "ACCESS_DENIED", decodeError(t, rec).Code)

		balance, err := env.ledger.GetBalance(context.Background(), aliceID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(decimal.NewFromInt(100)))
	})
}

func TestAdminHandler(t *testing.T) {
	env := newTestEnv(t)
	h := NewAdminHandler(env.ledger, env.logger)
	adminID := env.seed(t, "Root", "1980-01-01", "Delhi", "ADM-1", 0, "admin")
	userID := env.seed(t, "Alice", "1990-05-01", "Pune", "ACC-1", 100, "user")
	seniorID := env.seed(t, "Old", "1966-10-16", "Pune", "ACC-2", 100, "user")

	t.Run("list by city", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ListByCity(rec, newRequest(http.MethodGet, "/customers/city/Pune?admin_id="+id(adminID), "", map[string]string{"city": "Pune"}))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Customers, 2)
		assert.NotContains(t, rec.Body.String(), "balance")
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("empty city result is an empty array", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ListByCity(rec, newRequest(http.MethodGet, "/customers/city/Nowhere?admin_id="+id(adminID), "", map[string]string{"city": "Nowhere"}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"customers":[]}`, rec.Body.String())
	})

	t.Run("senior citizens", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ListSeniorCitizens(rec, newRequest(http.MethodGet, "/admin/senior-citizens?admin_id="+id(adminID), "", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Customers, 1)
		assert.Equal(t, seniorID, resp.Customers[0].CustomerID)
	})

	t.Run("missing admin_id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ListSeniorCitizens(rec, newRequest(http.MethodGet, "/admin/senior-citizens", "", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "admin_id", decodeError(t, rec).Field)
	})

	t.Run("non-admin and unknown actors are denied alike", func(t *testing.T) {
		for _, actor := range []int64{userID, 999} {
			rec := httptest.NewRecorder()
			h.ListSeniorCitizens(rec, newRequest(http.MethodGet, "/admin/senior-citizens?admin_id="+id(actor), "", nil))

			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, dto.ErrorDetail{Code: "ACCESS_DENIED", Message: "administrator privileges required"}, decodeError(t, rec))
		}
	})

	t.Run("change name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"admin_id":` + id(adminID) + `,"name":"Alicia"}`
		h.ChangeName(rec, newRequest(http.MethodPut, "/", body, map[string]string{"userID": id(userID)}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Name updated successfully."}`, rec.Body.String())

		c, err := env.customers.GetCustomer(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "Alicia", c.Name)
	})

	t.Run("change name by non-admin leaves record unchanged", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"admin_id":` + id(userID) + `,"name":"Mallory"}`
		h.ChangeName(rec, newRequest(http.MethodPut, "/", body, map[string]string{"userID": id(userID)}))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		c, err := env.customers.GetCustomer(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, "Alicia", c.Name)
	})

	t.Run("change dob", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"admin_id":` + id(adminID) + `,"dob":"1991-06-02"}`
		h.ChangeDateOfBirth(rec, newRequest(http.MethodPut, "/", body, map[string]string{"userID": id(userID)}))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"DOB updated successfully."}`, rec.Body.String())
	})

	t.Run("change dob rejects bad date", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"admin_id":` + id(adminID) + `,"dob":"02/06/1991"}`
		h.ChangeDateOfBirth(rec, newRequest(http.MethodPut, "/", body, map[string]string{"userID": id(userID)}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown target is reported before the payload", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ChangeName(rec, newRequest(http.MethodPut, "/", `{"admin_id":`+id(adminID)+`,"name":""}`, map[string]string{"userID": "999"}))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		h.ChangeDateOfBirth(rec, newRequest(http.MethodPut, "/", `{"admin_id":`+id(adminID)+`,"dob":"tomorrow"}`, map[string]string{"userID": "999"}))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty name on a known target is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ChangeName(rec, newRequest(http.MethodPut, "/", `{"admin_id":`+id(adminID)+`}`, map[string]string{"userID": id(userID)}))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name", decodeError(t, rec).Field)
	})

	t.Run("admin_id must match token subject", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"admin_id":` + id(adminID) + `}`
		req := withSubject(newRequest(http.MethodDelete, "/", body, map[string]string{"userID": id(userID)}), userID)
		h.DeleteUser(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
		_, err := env.customers.GetCustomer(context.Background(), userID)
		assert.NoError(t, err)
	})

	t.Run("delete user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"admin_id":` + id(adminID) + `}`
		req := withSubject(newRequest(http.MethodDelete, "/", body, map[string]string{"userID": id(userID)}), adminID)
		h.DeleteUser(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"User deleted successfully."}`, rec.Body.String())

		rec = httptest.NewRecorder()
		h.DeleteUser(rec, newRequest(http.MethodDelete, "/", body, map[string]string{"userID": id(userID)}))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestAuthHandler(t *testing.T) {
	env := newTestEnv(t)
	cfg := config.AuthConfig{Enabled: true, JWTSecret: "testsecret", TokenTTL: time.Hour}
	h := NewAuthHandler(cfg, env.customers, env.logger)
	userID := env.seed(t, "Alice", "1990-05-01", "Pune", "ACC-1", 100, "user")

	t.Run("issues token with customer subject", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"customerId":` + id(userID) + `,"password":"secret"}`
		h.IssueToken(rec, newRequest(http.MethodPost, "/auth/token", body, nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var resp dto.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Bearer", resp.TokenType)

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		})
		require.NoError(t, err)
		assert.Equal(t, id(userID), claims.Subject)
		require.NotNil(t, claims.ExpiresAt)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"customerId":` + id(userID) + `,"password":"nope"}`
		h.IssueToken(rec, newRequest(http.MethodPost, "/auth/token", body, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown customer is unauthorized", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.IssueToken(rec, newRequest(http.MethodPost, "/auth/token", `{"customerId":42,"password":"secret"}`, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNotFoundHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":{"code":"NOT_FOUND","message":"This URL does not exist"}}`, rec.Body.String())
}
