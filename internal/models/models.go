package models

// Account is a locally stored bank account. TaxID is the CPF/CNPJ, kept as
// digits only and used as the login key. Password is nil when the account
// requires no password (demo behavior, stored in the clear).
type Account struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	TaxID     string  `json:"cpf_cnpj"`
	Avatar    *string `json:"avatar,omitempty"`
	Password  *string `json:"-"`
	CreatedAt int64   `json:"created_at"` // epoch ms
}

// Session is one login event. The current user is the account referenced by
// the most recent session row.
type Session struct {
	ID        int64 `json:"id"`
	AccountID int64 `json:"account_id"`
	CreatedAt int64 `json:"created_at"` // epoch ms
}

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
	StatusPending   TransactionStatus = "pending"
	StatusFailed    TransactionStatus = "failed"
)

// TransactionCategory classifies a transaction for display.
type TransactionCategory string

const (
	CategoryPix      TransactionCategory = "pix"
	CategoryTransfer TransactionCategory = "transfer"
	CategoryCard     TransactionCategory = "card"
	CategoryPurchase TransactionCategory = "purchase"
	CategoryCashback TransactionCategory = "cashback"
	CategoryRefund   TransactionCategory = "refund"
)

// Transaction is one statement entry. The sign of Amount is the source of
// truth for direction: >= 0 is a credit, < 0 a debit.
type Transaction struct {
	ID       string              `json:"id"`
	Title    string              `json:"title"`
	Subtitle *string             `json:"subtitle,omitempty"`
	Amount   float64             `json:"amount"`
	Date     int64               `json:"date"` // epoch ms
	Status   TransactionStatus   `json:"status"`
	Category TransactionCategory `json:"category"`
}

// Inbound reports whether the transaction is a credit.
func (t Transaction) Inbound() bool {
	return t.Amount >= 0
}
