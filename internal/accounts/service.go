package accounts

import (
	"context"
	"fmt"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Service exposes read and activation operations over live accounts.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetBank(ctx context.Context, id string) (Bank, error) {
	if id == "" {
		return Bank{}, fmt.Errorf("%w: bank id required", shared.ErrValidation)
	}
	return s.repo.GetBank(ctx, id)
}

func (s *Service) GetWebsite(ctx context.Context, id string) (Website, error) {
	if id == "" {
		return Website{}, fmt.Errorf("%w: website id required", shared.ErrValidation)
	}
	return s.repo.GetWebsite(ctx, id)
}

func (s *Service) GetIntroducer(ctx context.Context, id string) (IntroducerUser, error) {
	if id == "" {
		return IntroducerUser{}, fmt.Errorf("%w: introducer id required", shared.ErrValidation)
	}
	return s.repo.GetIntroducer(ctx, id)
}

func (s *Service) ListBanks(ctx context.Context, filters shared.ListFilters) ([]Bank, int, error) {
	return s.repo.ListBanks(ctx, filters)
}

func (s *Service) ListWebsites(ctx context.Context, filters shared.ListFilters) ([]Website, int, error) {
	return s.repo.ListWebsites(ctx, filters)
}

func (s *Service) ListIntroducers(ctx context.Context, filters shared.ListFilters) ([]IntroducerUser, int, error) {
	return s.repo.ListIntroducers(ctx, filters)
}

func (s *Service) Grants(ctx context.Context, kind Kind, accountID string) ([]PermissionGrant, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown account kind %q", shared.ErrValidation, kind)
	}
	return s.repo.GrantsForAccount(ctx, kind, accountID)
}

// SetActive toggles the active flag; deactivation is the soft alternative to
// the deletion workflow.
func (s *Service) SetActive(ctx context.Context, kind Kind, id string, active bool) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown account kind %q", shared.ErrValidation, kind)
	}
	if id == "" {
		return fmt.Errorf("%w: account id required", shared.ErrValidation)
	}
	return s.repo.SetActive(ctx, kind, id, active)
}
