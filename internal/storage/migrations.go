package storage

import "time"

// Migration is one versioned schema change. Up statements run in order and
// should be idempotent (IF NOT EXISTS) so an aborted migration can be retried.
type Migration struct {
	ID   int
	Name string
	Up   []string
}

var migrations = []Migration{
	{
		ID:   1,
		Name: "init-accounts-sessions",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS accounts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL,
				cpf_cnpj TEXT NOT NULL UNIQUE,
				avatar TEXT,
				password TEXT,
				created_at INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS sessions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				account_id INTEGER NOT NULL,
				created_at INTEGER NOT NULL,
				FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
			)`,
		},
	},
	{
		ID:   2,
		Name: "transactions",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS transactions (
				id TEXT PRIMARY KEY,
				title TEXT NOT NULL,
				subtitle TEXT,
				amount REAL NOT NULL,
				date INTEGER NOT NULL,
				status TEXT NOT NULL,
				category TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date DESC)`,
		},
	},
	{
		ID:   3,
		Name: "prefs",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS prefs (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
		},
	},
}

// Migrate brings the schema to the latest version. It is idempotent: applied
// migration ids are recorded in the _migrations ledger and never re-run. A
// statement failure leaves its migration unrecorded so a later call resumes
// from it.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(`CREATE TABLE IF NOT EXISTS _migrations (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		run_at INTEGER NOT NULL
	)`); err != nil {
		return err
	}

	rows, err := db.conn.Query("SELECT id FROM _migrations")
	if err != nil {
		return err
	}
	applied := make(map[int]bool)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		applied[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	// migrations is kept sorted by ID; apply strictly in ascending order.
	for _, m := range migrations {
		if applied[m.ID] {
			continue
		}
		for _, stmt := range m.Up {
			if _, err := db.conn.Exec(stmt); err != nil {
				return err
			}
		}
		if _, err := db.conn.Exec(
			"INSERT INTO _migrations (id, name, run_at) VALUES (?, ?, ?)",
			m.ID, m.Name, time.Now().UnixMilli(),
		); err != nil {
			return err
		}
	}

	return nil
}
