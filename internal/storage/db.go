package storage

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"fizpay/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// ErrAccountNotFound is returned by UpdateAccount for an unknown account id.
var ErrAccountNotFound = errors.New("account not found")

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection, enables foreign keys and runs migrations.
func NewDB(path string) (*DB, error) {
	// The pragma rides on the DSN so every pooled connection enforces
	// foreign keys, not just the first one handed out.
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer at a time; a single pooled connection
	// matches that and keeps :memory: databases from splitting per
	// connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.Migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// NormalizeTaxID strips everything but digits from a CPF/CNPJ, so punctuated
// forms like "123.456.789-09" match the stored "12345678909".
func NormalizeTaxID(v string) string {
	var b strings.Builder
	for _, r := range v {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StringPatch is an optional update to a nullable text column. The zero value
// leaves the column untouched; Clear writes NULL; Set writes a value.
type StringPatch struct {
	set   bool
	value *string
}

// SetString returns a patch that writes v.
func SetString(v string) StringPatch {
	return StringPatch{set: true, value: &v}
}

// ClearString returns a patch that writes NULL.
func ClearString() StringPatch {
	return StringPatch{set: true}
}

func (p StringPatch) apply(current *string) *string {
	if !p.set {
		return current
	}
	return p.value
}

// AccountPatch is a partial account update. Nil / zero-value fields keep the
// stored value.
type AccountPatch struct {
	Name     *string
	Avatar   StringPatch
	Password StringPatch
}

// CreateAccount inserts a new account and returns the stored row. The tax id
// is normalized to digits, the name trimmed. A duplicate tax id surfaces the
// driver's unique-constraint error.
func (db *DB) CreateAccount(name, taxID string, password, avatar *string) (*models.Account, error) {
	now := time.Now().UnixMilli()
	result, err := db.conn.Exec(
		"INSERT INTO accounts (name, cpf_cnpj, avatar, password, created_at) VALUES (?, ?, ?, ?, ?)",
		strings.TrimSpace(name), NormalizeTaxID(taxID), avatar, password, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetAccountByID(id)
}

// UpdateAccount applies a partial update and returns the stored row.
func (db *DB) UpdateAccount(id int64, patch AccountPatch) (*models.Account, error) {
	current, err := db.GetAccountByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrAccountNotFound
	}

	name := current.Name
	if patch.Name != nil {
		name = strings.TrimSpace(*patch.Name)
	}
	avatar := patch.Avatar.apply(current.Avatar)
	password := patch.Password.apply(current.Password)

	if _, err := db.conn.Exec(
		"UPDATE accounts SET name = ?, avatar = ?, password = ? WHERE id = ?",
		name, avatar, password, id,
	); err != nil {
		return nil, err
	}

	return db.GetAccountByID(id)
}

// UpsertAccount updates the account with the given tax id or creates it. All
// fields are written on update; a nil password or avatar clears the column.
// This is the single entry point of the connect-another-account flow.
func (db *DB) UpsertAccount(name, taxID string, password, avatar *string) (*models.Account, error) {
	existing, err := db.GetAccountByTaxID(taxID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return db.CreateAccount(name, taxID, password, avatar)
	}

	patch := AccountPatch{Name: &name, Avatar: ClearString(), Password: ClearString()}
	if avatar != nil {
		patch.Avatar = SetString(*avatar)
	}
	if password != nil {
		patch.Password = SetString(*password)
	}
	return db.UpdateAccount(existing.ID, patch)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	err := row.Scan(&a.ID, &a.Name, &a.TaxID, &a.Avatar, &a.Password, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountByID retrieves an account by id, or nil when absent.
func (db *DB) GetAccountByID(id int64) (*models.Account, error) {
	return scanAccount(db.conn.QueryRow(
		"SELECT id, name, cpf_cnpj, avatar, password, created_at FROM accounts WHERE id = ?",
		id,
	))
}

// GetAccountByTaxID retrieves an account by CPF/CNPJ (any punctuation), or nil
// when absent.
func (db *DB) GetAccountByTaxID(taxID string) (*models.Account, error) {
	return scanAccount(db.conn.QueryRow(
		"SELECT id, name, cpf_cnpj, avatar, password, created_at FROM accounts WHERE cpf_cnpj = ?",
		NormalizeTaxID(taxID),
	))
}

// ListAccounts returns every account, newest first.
func (db *DB) ListAccounts() ([]models.Account, error) {
	rows, err := db.conn.Query(
		"SELECT id, name, cpf_cnpj, avatar, password, created_at FROM accounts ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.TaxID, &a.Avatar, &a.Password, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// DeleteAccount removes an account; its sessions cascade.
func (db *DB) DeleteAccount(id int64) error {
	_, err := db.conn.Exec("DELETE FROM accounts WHERE id = ?", id)
	return err
}

// CreateSession appends a login event for an account.
func (db *DB) CreateSession(accountID int64) (*models.Session, error) {
	now := time.Now().UnixMilli()
	result, err := db.conn.Exec(
		"INSERT INTO sessions (account_id, created_at) VALUES (?, ?)",
		accountID, now,
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	var s models.Session
	err = db.conn.QueryRow(
		"SELECT id, account_id, created_at FROM sessions WHERE id = ?", id,
	).Scan(&s.ID, &s.AccountID, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSessions returns every login event, newest first.
func (db *DB) ListSessions() ([]models.Session, error) {
	rows, err := db.conn.Query(
		"SELECT id, account_id, created_at FROM sessions ORDER BY created_at DESC, id DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.AccountID, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// LastSessionAccount returns the account of the most recent session, or nil
// when no session exists.
func (db *DB) LastSessionAccount() (*models.Account, error) {
	var accountID int64
	err := db.conn.QueryRow(
		"SELECT account_id FROM sessions ORDER BY created_at DESC, id DESC LIMIT 1",
	).Scan(&accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.GetAccountByID(accountID)
}

// ClearSessions deletes every session row (global sign-out).
func (db *DB) ClearSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions")
	return err
}

// GetPref reads a preference value, or fallback when the key is unset.
func (db *DB) GetPref(key, fallback string) (string, error) {
	var value string
	err := db.conn.QueryRow("SELECT value FROM prefs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetPref writes a preference value.
func (db *DB) SetPref(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO prefs (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
