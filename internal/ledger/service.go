package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/observability"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// DefaultReuseWindow is how long a caller-supplied transaction id stays
// reserved against reuse.
const DefaultReuseWindow = 48 * time.Hour

// AccountDirectory resolves account records for denormalized attribution
// fields. accounts.Repository satisfies it.
type AccountDirectory interface {
	GetBank(ctx context.Context, id string) (accounts.Bank, error)
	GetWebsite(ctx context.Context, id string) (accounts.Website, error)
	GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error)
	GetUser(ctx context.Context, id string) (accounts.User, error)
}

// BalancePort computes the current balance for withdraw guards.
type BalancePort interface {
	Compute(ctx context.Context, kind accounts.Kind, accountID string) (decimal.Decimal, error)
}

// Service creates transactions with the reuse-window and balance guards.
type Service struct {
	repo        Repository
	directory   AccountDirectory
	balances    BalancePort
	reserver    Reserver
	reuseWindow time.Duration
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewService builds a Service. A zero reuseWindow falls back to the default.
func NewService(repo Repository, directory AccountDirectory, balances BalancePort, reserver Reserver, reuseWindow time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if reuseWindow <= 0 {
		reuseWindow = DefaultReuseWindow
	}
	if reserver == nil {
		reserver = NopReserver{}
	}
	return &Service{
		repo:        repo,
		directory:   directory,
		balances:    balances,
		reserver:    reserver,
		reuseWindow: reuseWindow,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateLedgerInput carries a proposed user deposit/withdraw.
type CreateLedgerInput struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	UserID        string          `json:"user_id" validate:"required"`
	BankID        string          `json:"bank_id" validate:"required"`
	WebsiteID     string          `json:"website_id" validate:"required"`
	Direction     Direction       `json:"direction" validate:"required,oneof=deposit withdraw"`
	Amount        decimal.Decimal `json:"amount"`
	Bonus         decimal.Decimal `json:"bonus"`
	BankCharges   decimal.Decimal `json:"bank_charges"`
	Remark        string          `json:"remark"`
}

// CreateLedger records a user transaction against a bank and a website.
func (s *Service) CreateLedger(ctx context.Context, input CreateLedgerInput, principal *gate.Principal) (LedgerTransaction, error) {
	if err := validateLedgerInput(input); err != nil {
		return LedgerTransaction{}, err
	}
	if principal == nil {
		return LedgerTransaction{}, fmt.Errorf("%w: principal required", shared.ErrUnauthorized)
	}

	user, err := s.directory.GetUser(ctx, input.UserID)
	if err != nil {
		return LedgerTransaction{}, err
	}
	bank, err := s.directory.GetBank(ctx, input.BankID)
	if err != nil {
		return LedgerTransaction{}, err
	}
	site, err := s.directory.GetWebsite(ctx, input.WebsiteID)
	if err != nil {
		return LedgerTransaction{}, err
	}

	since := time.Now().Add(-s.reuseWindow)
	used, err := s.repo.TransactionIDUsedSince(ctx, input.TransactionID, since)
	if err != nil {
		return LedgerTransaction{}, err
	}
	if used {
		s.metrics.CountConflict("ledger_txid_reuse")
		return LedgerTransaction{}, fmt.Errorf("%w: transaction id %s used within the last %s", shared.ErrConflict, input.TransactionID, s.reuseWindow)
	}

	if input.Direction == Withdraw {
		net, err := s.repo.UserNet(ctx, input.UserID)
		if err != nil {
			return LedgerTransaction{}, err
		}
		if input.Amount.GreaterThan(net) {
			return LedgerTransaction{}, fmt.Errorf("%w: withdraw %s exceeds user balance %s", shared.ErrInsufficientBalance, input.Amount, net)
		}
	}

	ok, err := s.reserver.Reserve(ctx, input.TransactionID, s.reuseWindow)
	if err != nil {
		s.logger.Warn("reserve transaction id", slog.Any("error", err))
	} else if !ok {
		s.metrics.CountConflict("ledger_txid_reuse")
		return LedgerTransaction{}, fmt.Errorf("%w: transaction id %s already reserved", shared.ErrConflict, input.TransactionID)
	}

	now := time.Now()
	tx := LedgerTransaction{
		ID:            uuid.NewString(),
		TransactionID: input.TransactionID,
		UserID:        user.ID,
		UserName:      user.Name,
		BankID:        bank.ID,
		BankName:      bank.Name,
		WebsiteID:     site.ID,
		WebsiteName:   site.Name,
		Direction:     input.Direction,
		Amount:        input.Amount,
		Bonus:         input.Bonus,
		BankCharges:   input.BankCharges,
		Remark:        input.Remark,
		SubAdminID:    principal.ID,
		SubAdminName:  principal.DisplayName,
		CreatedAt:     now,
	}
	detail := UserTransactionDetail{
		ID:             uuid.NewString(),
		TransactionRef: tx.ID,
		UserID:         user.ID,
		Direction:      input.Direction,
		Amount:         input.Amount,
		BankName:       bank.Name,
		WebsiteName:    site.Name,
		CreatedAt:      now,
	}
	if err := s.repo.CreateLedger(ctx, tx, detail); err != nil {
		if relErr := s.reserver.Release(ctx, input.TransactionID); relErr != nil {
			s.logger.Warn("release transaction id reservation", slog.Any("error", relErr))
		}
		return LedgerTransaction{}, err
	}
	return tx, nil
}

// CreateManualInput carries a direct deposit/withdraw against one account.
type CreateManualInput struct {
	AccountKind accounts.Kind   `json:"account_kind" validate:"required,oneof=bank website"`
	AccountID   string          `json:"account_id" validate:"required"`
	Direction   Direction       `json:"direction" validate:"required,oneof=deposit withdraw"`
	Amount      decimal.Decimal `json:"amount"`
	Remark      string          `json:"remark"`
}

// CreateManual records a manual adjustment against a bank or website.
func (s *Service) CreateManual(ctx context.Context, input CreateManualInput, principal *gate.Principal) (ManualTransaction, error) {
	if err := validateManualInput(input); err != nil {
		return ManualTransaction{}, err
	}
	if principal == nil {
		return ManualTransaction{}, fmt.Errorf("%w: principal required", shared.ErrUnauthorized)
	}

	var accountName string
	switch input.AccountKind {
	case accounts.KindBank:
		bank, err := s.directory.GetBank(ctx, input.AccountID)
		if err != nil {
			return ManualTransaction{}, err
		}
		accountName = bank.Name
	case accounts.KindWebsite:
		site, err := s.directory.GetWebsite(ctx, input.AccountID)
		if err != nil {
			return ManualTransaction{}, err
		}
		accountName = site.Name
	}

	if input.Direction == Withdraw {
		balance, err := s.balances.Compute(ctx, input.AccountKind, input.AccountID)
		if err != nil {
			return ManualTransaction{}, err
		}
		if input.Amount.GreaterThan(balance) {
			return ManualTransaction{}, fmt.Errorf("%w: withdraw %s exceeds balance %s", shared.ErrInsufficientBalance, input.Amount, balance)
		}
	}

	tx := ManualTransaction{
		ID:           uuid.NewString(),
		AccountKind:  input.AccountKind,
		AccountID:    input.AccountID,
		AccountName:  accountName,
		Direction:    input.Direction,
		Amount:       input.Amount,
		Remark:       input.Remark,
		SubAdminID:   principal.ID,
		SubAdminName: principal.DisplayName,
		CreatedAt:    time.Now(),
	}
	if err := s.repo.CreateManual(ctx, tx); err != nil {
		return ManualTransaction{}, err
	}
	return tx, nil
}

// CreateIntroducerInput carries a commission payout or recovery.
type CreateIntroducerInput struct {
	IntroducerID string          `json:"introducer_id" validate:"required"`
	Direction    Direction       `json:"direction" validate:"required,oneof=deposit withdraw"`
	Amount       decimal.Decimal `json:"amount"`
	Remark       string          `json:"remark"`
}

// CreateIntroducer records a transaction against an introducer user.
func (s *Service) CreateIntroducer(ctx context.Context, input CreateIntroducerInput, principal *gate.Principal) (IntroducerTransaction, error) {
	if err := validateIntroducerInput(input); err != nil {
		return IntroducerTransaction{}, err
	}
	if principal == nil {
		return IntroducerTransaction{}, fmt.Errorf("%w: principal required", shared.ErrUnauthorized)
	}

	intro, err := s.directory.GetIntroducer(ctx, input.IntroducerID)
	if err != nil {
		return IntroducerTransaction{}, err
	}

	if input.Direction == Withdraw {
		balance, err := s.balances.Compute(ctx, accounts.KindIntroducer, input.IntroducerID)
		if err != nil {
			return IntroducerTransaction{}, err
		}
		if input.Amount.GreaterThan(balance) {
			return IntroducerTransaction{}, fmt.Errorf("%w: withdraw %s exceeds balance %s", shared.ErrInsufficientBalance, input.Amount, balance)
		}
	}

	tx := IntroducerTransaction{
		ID:             uuid.NewString(),
		IntroducerID:   intro.ID,
		IntroducerName: intro.Name,
		Direction:      input.Direction,
		Amount:         input.Amount,
		Remark:         input.Remark,
		SubAdminID:     principal.ID,
		SubAdminName:   principal.DisplayName,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateIntroducer(ctx, tx); err != nil {
		return IntroducerTransaction{}, err
	}
	return tx, nil
}

func (s *Service) ListLedger(ctx context.Context, filters shared.ListFilters) ([]LedgerTransaction, int, error) {
	return s.repo.ListLedger(ctx, filters)
}

func (s *Service) ListManual(ctx context.Context, kind accounts.Kind, accountID string, filters shared.ListFilters) ([]ManualTransaction, int, error) {
	return s.repo.ListManual(ctx, kind, accountID, filters)
}

func (s *Service) ListIntroducer(ctx context.Context, introducerID string, filters shared.ListFilters) ([]IntroducerTransaction, int, error) {
	return s.repo.ListIntroducer(ctx, introducerID, filters)
}
