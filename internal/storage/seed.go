package storage

import (
	"time"

	"fizpay/internal/models"
)

func strptr(s string) *string { return &s }

// demoTransactions builds the canned statement feed with dates relative to now.
func demoTransactions(now time.Time) []models.Transaction {
	day := func(n int) int64 { return now.AddDate(0, 0, -n).UnixMilli() }

	return []models.Transaction{
		{ID: "t1", Title: "PIX Recebido", Subtitle: strptr("De: João Silva"), Amount: 250.00, Date: day(1), Status: models.StatusCompleted, Category: models.CategoryPix},
		{ID: "t2", Title: "Compra no débito", Subtitle: strptr("Supermercado Extra"), Amount: -89.50, Date: day(1), Status: models.StatusCompleted, Category: models.CategoryPurchase},
		{ID: "t3", Title: "PIX Enviado", Subtitle: strptr("Para: Maria Santos"), Amount: -150.00, Date: day(2), Status: models.StatusCompleted, Category: models.CategoryPix},
		{ID: "t4", Title: "Cashback", Subtitle: strptr("Compra Farmácia Droga Raia"), Amount: 12.50, Date: day(2), Status: models.StatusCompleted, Category: models.CategoryCashback},
		{ID: "t5", Title: "Pagamento", Subtitle: strptr("Netflix Mensal"), Amount: -39.90, Date: day(3), Status: models.StatusCompleted, Category: models.CategoryPurchase},
		{ID: "t6", Title: "PIX Recebido", Subtitle: strptr("De: Vitoria Oliveira"), Amount: 75.00, Date: day(4), Status: models.StatusCompleted, Category: models.CategoryPix},
		{ID: "t7", Title: "PIX Recebido", Subtitle: strptr("De: Jose Oliveira"), Amount: 175.00, Date: day(5), Status: models.StatusCompleted, Category: models.CategoryPix},
		{ID: "t8", Title: "PIX Recebido", Subtitle: strptr("De: Pedro Oliveira"), Amount: 275.00, Date: day(0), Status: models.StatusCompleted, Category: models.CategoryPix},
	}
}

// Seed populates the demo accounts and the canned transaction feed. Tables
// that already hold rows are left alone, so it is safe to call on every boot.
// All inserts run in one transaction; partial seeding is never observable.
func (db *DB) Seed() error {
	var accountCount, txCount int
	if err := db.conn.QueryRow("SELECT COUNT(1) FROM accounts").Scan(&accountCount); err != nil {
		return err
	}
	if err := db.conn.QueryRow("SELECT COUNT(1) FROM transactions").Scan(&txCount); err != nil {
		return err
	}
	if accountCount > 0 && txCount > 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()

	if accountCount == 0 {
		demoAccounts := []struct {
			name, taxID, password string
		}{
			{"Rafa", "00009100000", "123456"},
			{"Maria", "00009100001", "123456"},
		}
		for _, a := range demoAccounts {
			if _, err := tx.Exec(
				"INSERT INTO accounts (name, cpf_cnpj, password, created_at) VALUES (?, ?, ?, ?)",
				a.name, a.taxID, a.password, now.UnixMilli(),
			); err != nil {
				return err
			}
		}
	}

	if txCount == 0 {
		for _, t := range demoTransactions(now) {
			if _, err := tx.Exec(
				"INSERT INTO transactions (id, title, subtitle, amount, date, status, category) VALUES (?, ?, ?, ?, ?, ?, ?)",
				t.ID, t.Title, t.Subtitle, t.Amount, t.Date, t.Status, t.Category,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ResetAndSeed clears the transaction feed and reseeds it. Dev helper.
func (db *DB) ResetAndSeed() error {
	if _, err := db.conn.Exec("DELETE FROM transactions"); err != nil {
		return err
	}
	return db.Seed()
}
