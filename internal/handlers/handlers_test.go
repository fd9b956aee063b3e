package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"fizpay/internal/auth"
	"fizpay/internal/models"
	"fizpay/internal/storage"
)

func strp(s string) *string { return &s }

// HandlersTestSuite exercises the JSON API against an in-memory database
type HandlersTestSuite struct {
	suite.Suite
	db     *storage.DB
	router *chi.Mux
}

func (suite *HandlersTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db

	h := NewHandlers(db, auth.NewService(db, &auth.MemoryCredentialStore{}))

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Get("/session", h.CurrentSession)
		r.Get("/accounts", h.ListAccounts)
		r.Post("/accounts", h.UpsertAccount)
		r.Get("/accounts/{id}", h.GetAccount)
		r.Put("/accounts/{id}", h.UpdateAccount)
		r.Delete("/accounts/{id}", h.DeleteAccount)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}", h.GetTransaction)
		r.Get("/statement", h.Statement)
		r.Get("/cashback", h.Cashback)
		r.Get("/prefs/balance-visibility", h.GetBalanceVisibility)
		r.Put("/prefs/balance-visibility", h.SetBalanceVisibility)
	})
	suite.router = r

	_, err = db.CreateAccount("Rafa", "00009100000", strp("123456"), nil)
	require.NoError(suite.T(), err)
}

func (suite *HandlersTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *HandlersTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(suite.T(), err)
		reader = bytes.NewBuffer(b)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) doRaw(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *HandlersTestSuite) TestLoginFlow() {
	// Nobody is logged in yet.
	w := suite.do("GET", "/api/session", nil)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	// Wrong password.
	w = suite.do("POST", "/api/login", map[string]string{"cpf_cnpj": "00009100000", "password": "wrong"})
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	// Punctuated tax id, right password.
	w = suite.do("POST", "/api/login", map[string]string{"cpf_cnpj": "000.091.000-00", "password": "123456"})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var account models.Account
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &account))
	assert.Equal(suite.T(), "Rafa", account.Name)

	// The session now resolves to the account.
	w = suite.do("GET", "/api/session", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// Logout clears it.
	w = suite.do("POST", "/api/logout", nil)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
	w = suite.do("GET", "/api/session", nil)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)
}

func (suite *HandlersTestSuite) TestLoginNeverLeaksPassword() {
	w := suite.do("POST", "/api/login", map[string]string{"cpf_cnpj": "00009100000", "password": "123456"})
	require.Equal(suite.T(), http.StatusOK, w.Code)
	assert.NotContains(suite.T(), w.Body.String(), "123456")
}

func (suite *HandlersTestSuite) TestUpsertAccount() {
	body := map[string]any{"name": "Maria", "cpf_cnpj": "000.091.000-01", "password": "654321"}
	w := suite.do("POST", "/api/accounts", body)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// Same tax id again with a new name: one row, updated.
	body["name"] = "Maria Santos"
	w = suite.do("POST", "/api/accounts", body)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var accounts []models.Account
	w = suite.do("GET", "/api/accounts", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &accounts))
	require.Len(suite.T(), accounts, 2) // Rafa + Maria

	maria, err := suite.db.GetAccountByTaxID("00009100001")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), maria)
	assert.Equal(suite.T(), "Maria Santos", maria.Name)
}

func (suite *HandlersTestSuite) TestUpsertAccountValidation() {
	w := suite.do("POST", "/api/accounts", map[string]string{"name": "", "cpf_cnpj": "123"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.do("POST", "/api/accounts", map[string]string{"name": "X", "cpf_cnpj": "---"})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateAccountAbsentVersusNull() {
	account, err := suite.db.GetAccountByTaxID("00009100000")
	require.NoError(suite.T(), err)

	// Absent fields keep stored values.
	w := suite.doRaw("PUT", "/api/accounts/1", `{"name":"Rafael"}`)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	updated, err := suite.db.GetAccountByID(account.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "Rafael", updated.Name)
	require.NotNil(suite.T(), updated.Password, "absent password field must not clear it")

	// Explicit null clears.
	w = suite.doRaw("PUT", "/api/accounts/1", `{"password":null}`)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	updated, err = suite.db.GetAccountByID(account.ID)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), updated.Password)
}

func (suite *HandlersTestSuite) TestAccountNotFound() {
	w := suite.do("GET", "/api/accounts/999", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.doRaw("PUT", "/api/accounts/999", `{"name":"X"}`)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestDeleteAccount() {
	w := suite.do("DELETE", "/api/accounts/1", nil)
	assert.Equal(suite.T(), http.StatusNoContent, w.Code)

	w = suite.do("GET", "/api/accounts/1", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) seedFeed() {
	now := time.Now()
	txs := []models.Transaction{
		{ID: "t1", Title: "PIX Recebido", Amount: 250, Date: now.AddDate(0, 0, -1).UnixMilli(), Status: models.StatusCompleted, Category: models.CategoryPix},
		{ID: "t2", Title: "Cashback", Amount: 12.5, Date: now.AddDate(0, 0, -2).UnixMilli(), Status: models.StatusCompleted, Category: models.CategoryCashback},
		{ID: "t3", Title: "Compra", Amount: -89.5, Date: now.UnixMilli(), Status: models.StatusCompleted, Category: models.CategoryPurchase},
	}
	for _, tx := range txs {
		require.NoError(suite.T(), suite.db.InsertTransaction(tx))
	}
}

func (suite *HandlersTestSuite) TestTransactions() {
	suite.seedFeed()

	var txs []models.Transaction
	w := suite.do("GET", "/api/transactions", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &txs))
	require.Len(suite.T(), txs, 3)
	assert.Equal(suite.T(), "t3", txs[0].ID, "newest first")

	w = suite.do("GET", "/api/transactions?limit=2", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &txs))
	assert.Len(suite.T(), txs, 2)

	w = suite.do("GET", "/api/transactions?limit=x", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	w = suite.do("GET", "/api/transactions/t2", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.do("GET", "/api/transactions/nope", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestStatement() {
	suite.seedFeed()

	w := suite.do("GET", "/api/statement?period=year", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var sections []struct {
		Title string `json:"title"`
		Count int    `json:"count"`
		Items []struct {
			ID     string `json:"id"`
			Visual struct {
				Icon string `json:"icon"`
			} `json:"visual"`
		} `json:"items"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &sections))
	require.Len(suite.T(), sections, 3)
	assert.Equal(suite.T(), "Today", sections[0].Title)
	assert.Equal(suite.T(), "Yesterday", sections[1].Title)
	assert.Equal(suite.T(), "credit-card", sections[0].Items[0].Visual.Icon)

	w = suite.do("GET", "/api/statement?period=fortnight", nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCashback() {
	suite.seedFeed()

	w := suite.do("GET", "/api/cashback", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	var sum struct {
		Total string `json:"total"`
		Count int    `json:"count"`
	}
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(suite.T(), "12.50", sum.Total)
	assert.Equal(suite.T(), 1, sum.Count)
}

func (suite *HandlersTestSuite) TestBalanceVisibilityPref() {
	var pref struct {
		ShowBalance bool `json:"show_balance"`
	}

	w := suite.do("GET", "/api/prefs/balance-visibility", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &pref))
	assert.True(suite.T(), pref.ShowBalance, "balance visible by default")

	w = suite.do("PUT", "/api/prefs/balance-visibility", map[string]bool{"show_balance": false})
	require.Equal(suite.T(), http.StatusOK, w.Code)

	w = suite.do("GET", "/api/prefs/balance-visibility", nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	require.NoError(suite.T(), json.Unmarshal(w.Body.Bytes(), &pref))
	assert.False(suite.T(), pref.ShowBalance)
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
