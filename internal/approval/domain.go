// Package approval implements the request/approve/reject state machine for
// sensitive mutations: account creation, edits, and deletions. A request is
// Open until resolved; both terminal states destroy the request record, so
// the only durable traces are the live table or the trash archive.
package approval

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

// ProposedAccount carries the full proposed record for a creation or edit.
// Exactly one variant is set.
type ProposedAccount struct {
	Bank    *accounts.Bank    `json:"bank,omitempty"`
	Website *accounts.Website `json:"website,omitempty"`
}

// Kind returns the account kind of the set variant.
func (p ProposedAccount) Kind() accounts.Kind {
	if p.Bank != nil {
		return accounts.KindBank
	}
	if p.Website != nil {
		return accounts.KindWebsite
	}
	return ""
}

// ID returns the proposed account's natural id.
func (p ProposedAccount) ID() string {
	if p.Bank != nil {
		return p.Bank.ID
	}
	if p.Website != nil {
		return p.Website.ID
	}
	return ""
}

// Name returns the proposed display name.
func (p ProposedAccount) Name() string {
	if p.Bank != nil {
		return p.Bank.Name
	}
	if p.Website != nil {
		return p.Website.Name
	}
	return ""
}

// Trimmed returns a copy with whitespace stripped from name fields, the form
// applied to the live table on approval.
func (p ProposedAccount) Trimmed() ProposedAccount {
	if p.Bank != nil {
		b := *p.Bank
		b.Name = strings.TrimSpace(b.Name)
		b.AccountHolder = strings.TrimSpace(b.AccountHolder)
		p.Bank = &b
	}
	if p.Website != nil {
		w := *p.Website
		w.Name = strings.TrimSpace(w.Name)
		p.Website = &w
	}
	return p
}

// CreationRequest proposes a new bank or website plus its sub-admin grants.
type CreationRequest struct {
	ID           uuid.UUID                  `json:"id"`
	Kind         accounts.Kind              `json:"kind"`
	Proposed     ProposedAccount            `json:"proposed"`
	Grants       []accounts.PermissionGrant `json:"grants,omitempty"`
	Message      string                     `json:"message"`
	SubAdminID   string                     `json:"sub_admin_id"`
	SubAdminName string                     `json:"sub_admin_name"`
	CreatedAt    time.Time                  `json:"created_at"`
}

// FieldChange records one genuinely changed field for audit display. Approval
// applies the whole proposed record, not just the diffed fields.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// EditRequest proposes field changes to an existing account.
type EditRequest struct {
	ID           uuid.UUID       `json:"id"`
	Kind         accounts.Kind   `json:"kind"`
	TargetID     string          `json:"target_id"`
	Proposed     ProposedAccount `json:"proposed"`
	Changed      []FieldChange   `json:"changed_fields"`
	Message      string          `json:"message"`
	IsApproved   bool            `json:"is_approved"`
	SubAdminID   string          `json:"sub_admin_id"`
	SubAdminName string          `json:"sub_admin_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DeletionRequest proposes removing an account or a transaction. The target's
// current field values are snapshotted at request time.
type DeletionRequest struct {
	ID           uuid.UUID       `json:"id"`
	Kind         trash.Kind      `json:"kind"`
	TargetID     string          `json:"target_id"`
	Snapshot     json.RawMessage `json:"snapshot"`
	Message      string          `json:"message"`
	SubAdminID   string          `json:"sub_admin_id"`
	SubAdminName string          `json:"sub_admin_name"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NormalizeName is the collision key for account names: case-insensitive and
// whitespace-insensitive.
func NormalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func diffBank(old, proposed accounts.Bank) []FieldChange {
	var changes []FieldChange
	appendChange(&changes, "name", old.Name, proposed.Name)
	appendChange(&changes, "account_holder", old.AccountHolder, proposed.AccountHolder)
	appendChange(&changes, "account_number", old.AccountNumber, proposed.AccountNumber)
	appendChange(&changes, "ifsc", old.IFSC, proposed.IFSC)
	appendChange(&changes, "upi_id", old.UPIID, proposed.UPIID)
	return changes
}

func diffWebsite(old, proposed accounts.Website) []FieldChange {
	var changes []FieldChange
	appendChange(&changes, "name", old.Name, proposed.Name)
	appendChange(&changes, "url", old.URL, proposed.URL)
	return changes
}

func appendChange(changes *[]FieldChange, field, old, new string) {
	if old != new {
		*changes = append(*changes, FieldChange{Field: field, Old: old, New: new})
	}
}
