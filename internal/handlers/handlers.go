package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"fizpay/internal/auth"
	"fizpay/internal/models"
	"fizpay/internal/statement"
	"fizpay/internal/storage"
)

// ShowBalancePref is the preference key for the home-screen balance toggle.
const ShowBalancePref = "pref:showBalance"

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	db   *storage.DB
	auth *auth.Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *storage.DB, authSvc *auth.Service) *Handlers {
	return &Handlers{db: db, auth: authSvc}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("JSON encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// NullableString distinguishes an absent JSON field from an explicit null.
// Absent leaves the column untouched; null clears it.
type NullableString struct {
	set   bool
	value *string
}

// UnmarshalJSON is only called for present fields, which is what marks the
// patch as set.
func (f *NullableString) UnmarshalJSON(b []byte) error {
	f.set = true
	if string(b) == "null" {
		f.value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	f.value = &s
	return nil
}

func (f NullableString) patch() storage.StringPatch {
	if !f.set {
		return storage.StringPatch{}
	}
	if f.value == nil {
		return storage.ClearString()
	}
	return storage.SetString(*f.value)
}

type loginRequest struct {
	TaxID    string `json:"cpf_cnpj"`
	Password string `json:"password"`
}

// Login validates credentials and records a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.auth.Login(req.TaxID, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		log.Printf("Login error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// Logout clears every session.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.SignOut(); err != nil {
		log.Printf("Logout error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CurrentSession returns the account of the most recent session, or 204 when
// nobody is logged in.
func (h *Handlers) CurrentSession(w http.ResponseWriter, r *http.Request) {
	account, err := h.auth.CurrentAccount()
	if err != nil {
		log.Printf("CurrentSession error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if account == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// ListAccounts returns every stored account, newest first.
func (h *Handlers) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.db.ListAccounts()
	if err != nil {
		log.Printf("ListAccounts error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

type upsertAccountRequest struct {
	Name     string  `json:"name"`
	TaxID    string  `json:"cpf_cnpj"`
	Password *string `json:"password"`
	Avatar   *string `json:"avatar"`
}

// UpsertAccount creates or updates an account by tax id. This backs the
// connect-another-account flow.
func (h *Handlers) UpsertAccount(w http.ResponseWriter, r *http.Request) {
	var req upsertAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || storage.NormalizeTaxID(req.TaxID) == "" {
		writeError(w, http.StatusBadRequest, "name and cpf_cnpj are required")
		return
	}

	account, err := h.db.UpsertAccount(req.Name, req.TaxID, req.Password, req.Avatar)
	if err != nil {
		log.Printf("UpsertAccount error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func accountID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// GetAccount returns one account by id.
func (h *Handlers) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	account, err := h.db.GetAccountByID(id)
	if err != nil {
		log.Printf("GetAccount error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if account == nil {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type updateAccountRequest struct {
	Name     *string        `json:"name"`
	Password NullableString `json:"password"`
	Avatar   NullableString `json:"avatar"`
}

// UpdateAccount applies a partial update. An absent field keeps the stored
// value; an explicit null clears it.
func (h *Handlers) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.db.UpdateAccount(id, storage.AccountPatch{
		Name:     req.Name,
		Avatar:   req.Avatar.patch(),
		Password: req.Password.patch(),
	})
	if errors.Is(err, storage.ErrAccountNotFound) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	if err != nil {
		log.Printf("UpdateAccount error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// DeleteAccount removes an account and its sessions.
func (h *Handlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := accountID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.db.DeleteAccount(id); err != nil {
		log.Printf("DeleteAccount error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListTransactions returns the feed newest-first, optionally limited by
// ?limit=N.
func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var (
		txs []models.Transaction
		err error
	)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, convErr := strconv.Atoi(limitStr)
		if convErr != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		txs, err = h.db.RecentTransactions(limit)
	} else {
		txs, err = h.db.ListTransactions()
	}
	if err != nil {
		log.Printf("ListTransactions error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

// GetTransaction returns one transaction by id.
func (h *Handlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := h.db.GetTransaction(chi.URLParam(r, "id"))
	if err != nil {
		log.Printf("GetTransaction error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if tx == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// transactionView decorates a transaction with its visual treatment.
type transactionView struct {
	models.Transaction
	Visual statement.Visual `json:"visual"`
}

type sectionView struct {
	Title string            `json:"title"`
	Date  int64             `json:"date"`
	Count int               `json:"count"`
	Total string            `json:"total"`
	Items []transactionView `json:"items"`
}

// Statement returns the period-filtered, day-grouped statement sections.
// Defaults to the current month.
func (h *Handlers) Statement(w http.ResponseWriter, r *http.Request) {
	period := statement.PeriodKey(r.URL.Query().Get("period"))
	if period == "" {
		period = statement.PeriodMonth
	}
	if !period.Valid() {
		writeError(w, http.StatusBadRequest, "unknown period")
		return
	}

	txs, err := h.db.ListTransactions()
	if err != nil {
		log.Printf("Statement error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	sections := statement.ToSections(statement.FilterByPeriod(txs, period))
	views := make([]sectionView, 0, len(sections))
	for _, s := range sections {
		items := make([]transactionView, 0, len(s.Items))
		for _, tx := range s.Items {
			items = append(items, transactionView{Transaction: tx, Visual: statement.VisualFor(tx)})
		}
		views = append(views, sectionView{
			Title: s.Title,
			Date:  s.Date,
			Count: s.Count,
			Total: s.Total.StringFixed(2),
			Items: items,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// Cashback returns the cashback summary over the full feed.
func (h *Handlers) Cashback(w http.ResponseWriter, r *http.Request) {
	txs, err := h.db.ListTransactions()
	if err != nil {
		log.Printf("Cashback error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	sum := statement.SummarizeCashback(txs)
	writeJSON(w, http.StatusOK, map[string]any{
		"total": sum.Total.StringFixed(2),
		"count": sum.Count,
	})
}

type balancePref struct {
	ShowBalance bool `json:"show_balance"`
}

// GetBalanceVisibility reads the balance-visibility preference. Defaults to
// visible.
func (h *Handlers) GetBalanceVisibility(w http.ResponseWriter, r *http.Request) {
	value, err := h.db.GetPref(ShowBalancePref, "1")
	if err != nil {
		log.Printf("GetBalanceVisibility error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, balancePref{ShowBalance: value == "1"})
}

// SetBalanceVisibility writes the balance-visibility preference.
func (h *Handlers) SetBalanceVisibility(w http.ResponseWriter, r *http.Request) {
	var req balancePref
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	value := "0"
	if req.ShowBalance {
		value = "1"
	}
	if err := h.db.SetPref(ShowBalancePref, value); err != nil {
		log.Printf("SetBalanceVisibility error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, req)
}
