// Package trash is the append-only archive of soft-deleted records. Entries
// are written only by an approved deletion request and removed only by a
// successful restore.
package trash

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Kind discriminates what a trash record archived.
type Kind string

const (
	KindBank        Kind = "bank"
	KindWebsite     Kind = "website"
	KindIntroducer  Kind = "introducer"
	KindTransaction Kind = "transaction"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	switch k {
	case KindBank, KindWebsite, KindIntroducer, KindTransaction:
		return true
	}
	return false
}

// KindForAccount maps an account kind to its trash discriminator.
func KindForAccount(kind accounts.Kind) (Kind, error) {
	switch kind {
	case accounts.KindBank:
		return KindBank, nil
	case accounts.KindWebsite:
		return KindWebsite, nil
	case accounts.KindIntroducer:
		return KindIntroducer, nil
	}
	return "", fmt.Errorf("%w: unknown account kind %q", shared.ErrValidation, kind)
}

// Record is an immutable snapshot of a deleted entity, keyed by the original
// natural id.
type Record struct {
	NaturalID    string          `json:"natural_id"`
	Kind         Kind            `json:"kind"`
	Snapshot     json.RawMessage `json:"snapshot"`
	Remark       string          `json:"remark"`
	SubAdminID   string          `json:"sub_admin_id"`
	SubAdminName string          `json:"sub_admin_name"`
	TrashedAt    time.Time       `json:"trashed_at"`
}

// BankSnapshot archives a bank together with its permission grants so a
// restore reproduces both.
type BankSnapshot struct {
	Bank   accounts.Bank             `json:"bank"`
	Grants []accounts.PermissionGrant `json:"grants,omitempty"`
}

// WebsiteSnapshot archives a website together with its permission grants.
type WebsiteSnapshot struct {
	Website accounts.Website           `json:"website"`
	Grants  []accounts.PermissionGrant `json:"grants,omitempty"`
}

// IntroducerSnapshot archives an introducer user.
type IntroducerSnapshot struct {
	Introducer accounts.IntroducerUser `json:"introducer"`
}

// TransactionSnapshot archives whichever transaction variant was deleted,
// plus the paired user detail row for ledger transactions.
type TransactionSnapshot struct {
	Ledger     *ledger.LedgerTransaction     `json:"ledger,omitempty"`
	Manual     *ledger.ManualTransaction     `json:"manual,omitempty"`
	Introducer *ledger.IntroducerTransaction `json:"introducer,omitempty"`
	Detail     *ledger.UserTransactionDetail `json:"detail,omitempty"`
}
