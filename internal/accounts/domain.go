// Package accounts holds the money-holding entities: banks, websites, and
// introducer users. Balances are never stored here; they are derived from
// transaction history by the balance package.
package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind discriminates the money-account variants.
type Kind string

const (
	KindBank       Kind = "bank"
	KindWebsite    Kind = "website"
	KindIntroducer Kind = "introducer"
)

// Valid reports whether the kind names a known account variant.
func (k Kind) Valid() bool {
	switch k {
	case KindBank, KindWebsite, KindIntroducer:
		return true
	}
	return false
}

// Bank is a payment bank account managed through the approval workflow.
type Bank struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AccountHolder string    `json:"account_holder"`
	AccountNumber string    `json:"account_number"`
	IFSC          string    `json:"ifsc"`
	UPIID         string    `json:"upi_id"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Website is a gaming site account managed through the approval workflow.
type Website struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntroducerUser is a referral agent earning a percentage of referred users'
// net transaction activity.
type IntroducerUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PermissionGrant scopes what a delegated operator may do on one account.
type PermissionGrant struct {
	AccountID    string    `json:"account_id"`
	AccountKind  Kind      `json:"account_kind"`
	SubAdminID   string    `json:"sub_admin_id"`
	SubAdminName string    `json:"sub_admin_name"`
	CanDeposit   bool      `json:"can_deposit"`
	CanWithdraw  bool      `json:"can_withdraw"`
	CanEdit      bool      `json:"can_edit"`
	CanRenew     bool      `json:"can_renew"`
	CanDelete    bool      `json:"can_delete"`
	CreatedAt    time.Time `json:"created_at"`
}

// IntroducerRef is one of up to three introducer slots on a referred user.
type IntroducerRef struct {
	Name       string          `json:"name"`
	Percentage decimal.Decimal `json:"percentage"`
}

// User is a referred player whose activity feeds introducer live balances.
type User struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Refs      [3]IntroducerRef `json:"introducer_refs"`
	CreatedAt time.Time        `json:"created_at"`
}
