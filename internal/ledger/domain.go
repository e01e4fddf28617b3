// Package ledger owns the transaction records: player deposits/withdrawals
// moving money between a bank and a website, manual adjustments against a
// single account, and introducer payouts. Rows are immutable once created;
// removal happens only through the deletion-request workflow.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
)

// Direction of a transaction.
type Direction string

const (
	Deposit  Direction = "deposit"
	Withdraw Direction = "withdraw"
)

// Valid reports whether the direction is known.
func (d Direction) Valid() bool {
	return d == Deposit || d == Withdraw
}

// LedgerTransaction ties a user, a bank, and a website together. A deposit
// moves money bank→website on behalf of the user; a withdraw moves it back.
type LedgerTransaction struct {
	ID            string          `json:"id"`
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	UserName      string          `json:"user_name"`
	BankID        string          `json:"bank_id"`
	BankName      string          `json:"bank_name"`
	WebsiteID     string          `json:"website_id"`
	WebsiteName   string          `json:"website_name"`
	Direction     Direction       `json:"direction"`
	Amount        decimal.Decimal `json:"amount"`
	Bonus         decimal.Decimal `json:"bonus"`
	BankCharges   decimal.Decimal `json:"bank_charges"`
	Remark        string          `json:"remark"`
	SubAdminID    string          `json:"sub_admin_id"`
	SubAdminName  string          `json:"sub_admin_name"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ManualTransaction is a direct deposit or withdrawal against one bank or one
// website, outside any user activity.
type ManualTransaction struct {
	ID           string          `json:"id"`
	AccountKind  accounts.Kind   `json:"account_kind"`
	AccountID    string          `json:"account_id"`
	AccountName  string          `json:"account_name"`
	Direction    Direction       `json:"direction"`
	Amount       decimal.Decimal `json:"amount"`
	Remark       string          `json:"remark"`
	SubAdminID   string          `json:"sub_admin_id"`
	SubAdminName string          `json:"sub_admin_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IntroducerTransaction records commission paid to or recovered from an
// introducer.
type IntroducerTransaction struct {
	ID             string          `json:"id"`
	IntroducerID   string          `json:"introducer_id"`
	IntroducerName string          `json:"introducer_name"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	Remark         string          `json:"remark"`
	SubAdminID     string          `json:"sub_admin_id"`
	SubAdminName   string          `json:"sub_admin_name"`
	CreatedAt      time.Time       `json:"created_at"`
}

// UserTransactionDetail mirrors a ledger transaction from the user's side and
// feeds introducer live-balance computation.
type UserTransactionDetail struct {
	ID             string          `json:"id"`
	TransactionRef string          `json:"transaction_ref"`
	UserID         string          `json:"user_id"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	BankName       string          `json:"bank_name"`
	WebsiteName    string          `json:"website_name"`
	CreatedAt      time.Time       `json:"created_at"`
}
