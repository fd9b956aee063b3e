package storage

import (
	"database/sql"
	"errors"

	"fizpay/internal/models"
)

const txColumns = "id, title, subtitle, amount, date, status, category"

func scanTransactions(rows *sql.Rows) ([]models.Transaction, error) {
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Title, &t.Subtitle, &t.Amount, &t.Date, &t.Status, &t.Category); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

// ListTransactions returns every transaction, newest first.
func (db *DB) ListTransactions() ([]models.Transaction, error) {
	rows, err := db.conn.Query(
		"SELECT " + txColumns + " FROM transactions ORDER BY date DESC",
	)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

// RecentTransactions returns the n newest transactions.
func (db *DB) RecentTransactions(n int) ([]models.Transaction, error) {
	rows, err := db.conn.Query(
		"SELECT "+txColumns+" FROM transactions ORDER BY date DESC LIMIT ?", n,
	)
	if err != nil {
		return nil, err
	}
	return scanTransactions(rows)
}

// GetTransaction retrieves a transaction by id, or nil when absent.
func (db *DB) GetTransaction(id string) (*models.Transaction, error) {
	var t models.Transaction
	err := db.conn.QueryRow(
		"SELECT "+txColumns+" FROM transactions WHERE id = ?", id,
	).Scan(&t.ID, &t.Title, &t.Subtitle, &t.Amount, &t.Date, &t.Status, &t.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTransaction stores a transaction. The app never mutates the feed at
// runtime; this exists for the seeder and tests.
func (db *DB) InsertTransaction(t models.Transaction) error {
	_, err := db.conn.Exec(
		"INSERT INTO transactions (id, title, subtitle, amount, date, status, category) VALUES (?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Title, t.Subtitle, t.Amount, t.Date, t.Status, t.Category,
	)
	return err
}
