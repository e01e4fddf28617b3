package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

// AccountReader resolves current live records for diffing and deletion
// snapshots. accounts.Repository satisfies it.
type AccountReader interface {
	GetBank(ctx context.Context, id string) (accounts.Bank, error)
	GetWebsite(ctx context.Context, id string) (accounts.Website, error)
	GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error)
	GrantsForAccount(ctx context.Context, kind accounts.Kind, accountID string) ([]accounts.PermissionGrant, error)
}

// Service drives the approval state machine.
type Service struct {
	repo     Repository
	accounts AccountReader
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewService builds a Service instance.
func NewService(repo Repository, accounts AccountReader, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{repo: repo, accounts: accounts, metrics: metrics, logger: logger}
}

// BankInput carries proposed bank fields.
type BankInput struct {
	Name          string `json:"name" validate:"required"`
	AccountHolder string `json:"account_holder" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required"`
	IFSC          string `json:"ifsc"`
	UPIID         string `json:"upi_id"`
}

// WebsiteInput carries proposed website fields.
type WebsiteInput struct {
	Name string `json:"name" validate:"required"`
	URL  string `json:"url"`
}

// GrantInput carries one proposed sub-admin permission grant.
type GrantInput struct {
	SubAdminID   string `json:"sub_admin_id" validate:"required"`
	SubAdminName string `json:"sub_admin_name"`
	CanDeposit   bool   `json:"can_deposit"`
	CanWithdraw  bool   `json:"can_withdraw"`
	CanEdit      bool   `json:"can_edit"`
	CanRenew     bool   `json:"can_renew"`
	CanDelete    bool   `json:"can_delete"`
}

// CreationInput proposes a new account with optional grants.
type CreationInput struct {
	Kind    accounts.Kind `json:"kind" validate:"required,oneof=bank website"`
	Bank    *BankInput    `json:"bank,omitempty"`
	Website *WebsiteInput `json:"website,omitempty"`
	Grants  []GrantInput  `json:"grants,omitempty"`
	Message string        `json:"message"`
}

// RequestCreation opens a creation request after the duplicate-name guard.
func (s *Service) RequestCreation(ctx context.Context, input CreationInput, principal *gate.Principal) (CreationRequest, error) {
	proposed, err := proposedFromCreation(input)
	if err != nil {
		return CreationRequest{}, err
	}
	if principal == nil {
		return CreationRequest{}, fmt.Errorf("%w: principal required", shared.ErrUnauthorized)
	}

	taken, err := s.repo.NameExists(ctx, input.Kind, proposed.Name())
	if err != nil {
		return CreationRequest{}, err
	}
	if taken {
		s.metrics.CountConflict("creation_name")
		return CreationRequest{}, fmt.Errorf("%w: name %q already exists or is pending approval", shared.ErrConflict, proposed.Name())
	}

	req := CreationRequest{
		ID:           uuid.New(),
		Kind:         input.Kind,
		Proposed:     proposed,
		Grants:       grantsFromInput(input.Grants, proposed.ID(), input.Kind),
		Message:      input.Message,
		SubAdminID:   principal.ID,
		SubAdminName: principal.DisplayName,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.InsertCreation(ctx, req); err != nil {
		return CreationRequest{}, err
	}
	s.logger.Info("creation requested",
		slog.String("kind", string(req.Kind)), slog.String("name", proposed.Name()),
		slog.String("by", principal.ID))
	return req, nil
}

// ResolveCreation approves or rejects a creation request. Approval
// materializes the account and its grants atomically; both outcomes destroy
// the request.
func (s *Service) ResolveCreation(ctx context.Context, requestID uuid.UUID, approve bool) (CreationRequest, error) {
	req, err := s.repo.GetCreation(ctx, requestID)
	if err != nil {
		return CreationRequest{}, err
	}
	if approve {
		if err := s.repo.ApproveCreation(ctx, req); err != nil {
			return CreationRequest{}, err
		}
		s.metrics.CountApproval("creation", "approved")
	} else {
		if err := s.repo.DeleteCreation(ctx, requestID); err != nil {
			return CreationRequest{}, err
		}
		s.metrics.CountApproval("creation", "rejected")
	}
	s.logger.Info("creation resolved",
		slog.String("request", requestID.String()), slog.Bool("approved", approve))
	return req, nil
}

// EditInput proposes field changes to an existing account.
type EditInput struct {
	Kind     accounts.Kind `json:"kind" validate:"required,oneof=bank website"`
	TargetID string        `json:"target_id" validate:"required"`
	Bank     *BankInput    `json:"bank,omitempty"`
	Website  *WebsiteInput `json:"website,omitempty"`
	Message  string        `json:"message"`
}

// RequestEdit opens an edit request after the one-open-per-target and name
// collision guards, recording the old-vs-new diff for audit display.
func (s *Service) RequestEdit(ctx context.Context, input EditInput, principal *gate.Principal) (EditRequest, error) {
	if input.TargetID == "" {
		return EditRequest{}, fmt.Errorf("%w: target id required", shared.ErrValidation)
	}
	if principal == nil {
		return EditRequest{}, fmt.Errorf("%w: principal required", shared.ErrUnauthorized)
	}

	open, err := s.repo.OpenEditExists(ctx, input.TargetID)
	if err != nil {
		return EditRequest{}, err
	}
	if open {
		s.metrics.CountConflict("edit_open")
		return EditRequest{}, fmt.Errorf("%w: already sent for approval", shared.ErrConflict)
	}

	var proposed ProposedAccount
	var changed []FieldChange
	switch input.Kind {
	case accounts.KindBank:
		if input.Bank == nil {
			return EditRequest{}, fmt.Errorf("%w: bank fields required", shared.ErrValidation)
		}
		current, err := s.accounts.GetBank(ctx, input.TargetID)
		if err != nil {
			return EditRequest{}, err
		}
		next := current
		next.Name = input.Bank.Name
		next.AccountHolder = input.Bank.AccountHolder
		next.AccountNumber = input.Bank.AccountNumber
		next.IFSC = input.Bank.IFSC
		next.UPIID = input.Bank.UPIID
		proposed = ProposedAccount{Bank: &next}.Trimmed()
		changed = diffBank(current, *proposed.Bank)
	case accounts.KindWebsite:
		if input.Website == nil {
			return EditRequest{}, fmt.Errorf("%w: website fields required", shared.ErrValidation)
		}
		current, err := s.accounts.GetWebsite(ctx, input.TargetID)
		if err != nil {
			return EditRequest{}, err
		}
		next := current
		next.Name = input.Website.Name
		next.URL = input.Website.URL
		proposed = ProposedAccount{Website: &next}.Trimmed()
		changed = diffWebsite(current, *proposed.Website)
	default:
		return EditRequest{}, fmt.Errorf("%w: edits apply to banks and websites only", shared.ErrValidation)
	}

	taken, err := s.repo.NameExistsExcept(ctx, input.Kind, proposed.Name(), input.TargetID)
	if err != nil {
		return EditRequest{}, err
	}
	if taken {
		s.metrics.CountConflict("edit_name")
		return EditRequest{}, fmt.Errorf("%w: name %q already exists", shared.ErrConflict, proposed.Name())
	}

	req := EditRequest{
		ID:           uuid.New(),
		Kind:         input.Kind,
		TargetID:     input.TargetID,
		Proposed:     proposed,
		Changed:      changed,
		Message:      input.Message,
		SubAdminID:   principal.ID,
		SubAdminName: principal.DisplayName,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.InsertEdit(ctx, req); err != nil {
		return EditRequest{}, err
	}
	s.logger.Info("edit requested",
		slog.String("kind", string(req.Kind)), slog.String("target", req.TargetID),
		slog.Int("changed_fields", len(changed)), slog.String("by", principal.ID))
	return req, nil
}

// ResolveEdit approves or rejects an edit request. Approval applies the whole
// proposed record; rejection leaves the live record untouched.
func (s *Service) ResolveEdit(ctx context.Context, requestID uuid.UUID, approve bool) (EditRequest, error) {
	req, err := s.repo.GetEdit(ctx, requestID)
	if err != nil {
		return EditRequest{}, err
	}
	if approve {
		if err := s.repo.ApproveEdit(ctx, req); err != nil {
			return EditRequest{}, err
		}
		req.IsApproved = true
		s.metrics.CountApproval("edit", "approved")
	} else {
		if err := s.repo.DeleteEdit(ctx, requestID); err != nil {
			return EditRequest{}, err
		}
		s.metrics.CountApproval("edit", "rejected")
	}
	s.logger.Info("edit resolved",
		slog.String("request", requestID.String()), slog.Bool("approved", approve))
	return req, nil
}

// RequestDeletion opens a deletion request, snapshotting the target's current
// field values. At most one open deletion request may exist per target; once
// resolved either way, a new one may be opened.
func (s *Service) RequestDeletion(ctx context.Context, kind trash.Kind, targetID, message string, principal *gate.Principal) (DeletionRequest, error) {
	if !kind.Valid() {
		return DeletionRequest{}, fmt.Errorf("%w: unknown deletion kind %q", shared.ErrValidation, kind)
	}
	if targetID == "" {
		return DeletionRequest{}, fmt.Errorf("%w: target id required", shared.ErrValidation)
	}
	if principal == nil {
		return DeletionRequest{}, fmt.Errorf("%w: principal required", shared.ErrUnauthorized)
	}

	open, err := s.repo.OpenDeletionExists(ctx, targetID)
	if err != nil {
		return DeletionRequest{}, err
	}
	if open {
		s.metrics.CountConflict("deletion_open")
		return DeletionRequest{}, fmt.Errorf("%w: deletion already sent for approval", shared.ErrConflict)
	}

	snapshot, err := s.snapshotTarget(ctx, kind, targetID)
	if err != nil {
		return DeletionRequest{}, err
	}

	req := DeletionRequest{
		ID:           uuid.New(),
		Kind:         kind,
		TargetID:     targetID,
		Snapshot:     snapshot,
		Message:      message,
		SubAdminID:   principal.ID,
		SubAdminName: principal.DisplayName,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.InsertDeletion(ctx, req); err != nil {
		return DeletionRequest{}, err
	}
	s.logger.Info("deletion requested",
		slog.String("kind", string(kind)), slog.String("target", targetID), slog.String("by", principal.ID))
	return req, nil
}

// ResolveDeletion locates the open deletion request for the target and
// resolves it. An absent request reports NotFound, the normal "nothing to do"
// signal, so a second resolve never re-applies the effect. Approval returns
// the created trash record; rejection returns nil.
func (s *Service) ResolveDeletion(ctx context.Context, targetID string, approve bool) (*trash.Record, error) {
	req, err := s.repo.GetDeletionByTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if !approve {
		if err := s.repo.DeleteDeletion(ctx, req.ID); err != nil {
			return nil, err
		}
		s.metrics.CountApproval("deletion", "rejected")
		s.logger.Info("deletion rejected", slog.String("target", targetID))
		return nil, nil
	}

	rec := trash.Record{
		NaturalID:    req.TargetID,
		Kind:         req.Kind,
		Snapshot:     req.Snapshot,
		Remark:       req.Message,
		SubAdminID:   req.SubAdminID,
		SubAdminName: req.SubAdminName,
		TrashedAt:    time.Now(),
	}
	var txSnap *trash.TransactionSnapshot
	if req.Kind == trash.KindTransaction {
		var snap trash.TransactionSnapshot
		if err := json.Unmarshal(req.Snapshot, &snap); err != nil {
			return nil, fmt.Errorf("approval: decode deletion snapshot %s: %w", targetID, err)
		}
		txSnap = &snap
	}
	if err := s.repo.ApproveDeletion(ctx, req, rec, txSnap); err != nil {
		return nil, err
	}
	s.metrics.CountApproval("deletion", "approved")
	s.logger.Info("deletion approved", slog.String("kind", string(req.Kind)), slog.String("target", targetID))
	return &rec, nil
}

func (s *Service) snapshotTarget(ctx context.Context, kind trash.Kind, targetID string) (json.RawMessage, error) {
	switch kind {
	case trash.KindBank:
		bank, err := s.accounts.GetBank(ctx, targetID)
		if err != nil {
			return nil, err
		}
		grants, err := s.accounts.GrantsForAccount(ctx, accounts.KindBank, targetID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(trash.BankSnapshot{Bank: bank, Grants: grants})
	case trash.KindWebsite:
		site, err := s.accounts.GetWebsite(ctx, targetID)
		if err != nil {
			return nil, err
		}
		grants, err := s.accounts.GrantsForAccount(ctx, accounts.KindWebsite, targetID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(trash.WebsiteSnapshot{Website: site, Grants: grants})
	case trash.KindIntroducer:
		intro, err := s.accounts.GetIntroducer(ctx, targetID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(trash.IntroducerSnapshot{Introducer: intro})
	default:
		snap, err := s.repo.FindTransaction(ctx, targetID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(snap)
	}
}

func (s *Service) ListCreation(ctx context.Context, filters shared.ListFilters) ([]CreationRequest, int, error) {
	return s.repo.ListCreation(ctx, filters)
}

func (s *Service) ListEdit(ctx context.Context, filters shared.ListFilters) ([]EditRequest, int, error) {
	return s.repo.ListEdit(ctx, filters)
}

func (s *Service) ListDeletion(ctx context.Context, filters shared.ListFilters) ([]DeletionRequest, int, error) {
	return s.repo.ListDeletion(ctx, filters)
}

func proposedFromCreation(input CreationInput) (ProposedAccount, error) {
	switch input.Kind {
	case accounts.KindBank:
		if input.Bank == nil {
			return ProposedAccount{}, fmt.Errorf("%w: bank fields required", shared.ErrValidation)
		}
		if input.Bank.Name == "" {
			return ProposedAccount{}, fmt.Errorf("%w: bank name required", shared.ErrValidation)
		}
		bank := accounts.Bank{
			ID:            uuid.NewString(),
			Name:          input.Bank.Name,
			AccountHolder: input.Bank.AccountHolder,
			AccountNumber: input.Bank.AccountNumber,
			IFSC:          input.Bank.IFSC,
			UPIID:         input.Bank.UPIID,
			Active:        true,
		}
		return ProposedAccount{Bank: &bank}.Trimmed(), nil
	case accounts.KindWebsite:
		if input.Website == nil {
			return ProposedAccount{}, fmt.Errorf("%w: website fields required", shared.ErrValidation)
		}
		if input.Website.Name == "" {
			return ProposedAccount{}, fmt.Errorf("%w: website name required", shared.ErrValidation)
		}
		site := accounts.Website{
			ID:     uuid.NewString(),
			Name:   input.Website.Name,
			URL:    input.Website.URL,
			Active: true,
		}
		return ProposedAccount{Website: &site}.Trimmed(), nil
	default:
		return ProposedAccount{}, fmt.Errorf("%w: creations apply to banks and websites only", shared.ErrValidation)
	}
}

func grantsFromInput(inputs []GrantInput, accountID string, kind accounts.Kind) []accounts.PermissionGrant {
	grants := make([]accounts.PermissionGrant, 0, len(inputs))
	for _, in := range inputs {
		grants = append(grants, accounts.PermissionGrant{
			AccountID:    accountID,
			AccountKind:  kind,
			SubAdminID:   in.SubAdminID,
			SubAdminName: in.SubAdminName,
			CanDeposit:   in.CanDeposit,
			CanWithdraw:  in.CanWithdraw,
			CanEdit:      in.CanEdit,
			CanRenew:     in.CanRenew,
			CanDelete:    in.CanDelete,
		})
	}
	return grants
}
