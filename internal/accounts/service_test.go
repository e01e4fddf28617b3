package accounts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

type mockRepo struct {
	banks  map[string]Bank
	active map[string]bool
}

func newMockRepo() *mockRepo {
	return &mockRepo{banks: make(map[string]Bank), active: make(map[string]bool)}
}

func (m *mockRepo) GetBank(ctx context.Context, id string) (Bank, error) {
	b, ok := m.banks[id]
	if !ok {
		return Bank{}, fmt.Errorf("%w: bank %s", shared.ErrNotFound, id)
	}
	return b, nil
}

func (m *mockRepo) GetWebsite(ctx context.Context, id string) (Website, error) {
	return Website{}, fmt.Errorf("%w: website %s", shared.ErrNotFound, id)
}

func (m *mockRepo) GetIntroducer(ctx context.Context, id string) (IntroducerUser, error) {
	return IntroducerUser{}, fmt.Errorf("%w: introducer %s", shared.ErrNotFound, id)
}

func (m *mockRepo) GetUser(ctx context.Context, id string) (User, error) {
	return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
}

func (m *mockRepo) ListBanks(ctx context.Context, filters shared.ListFilters) ([]Bank, int, error) {
	out := make([]Bank, 0, len(m.banks))
	for _, b := range m.banks {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListWebsites(ctx context.Context, filters shared.ListFilters) ([]Website, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) ListIntroducers(ctx context.Context, filters shared.ListFilters) ([]IntroducerUser, int, error) {
	return nil, 0, nil
}

func (m *mockRepo) GrantsForAccount(ctx context.Context, kind Kind, accountID string) ([]PermissionGrant, error) {
	return nil, nil
}

func (m *mockRepo) SetActive(ctx context.Context, kind Kind, id string, active bool) error {
	if _, ok := m.banks[id]; !ok {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
	}
	m.active[id] = active
	return nil
}

func TestGetBankRequiresID(t *testing.T) {
	svc := NewService(newMockRepo())

	_, err := svc.GetBank(context.Background(), "")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestSetActive(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = Bank{ID: "b1", Name: "HDFC Current", Active: true}
	svc := NewService(repo)

	require.NoError(t, svc.SetActive(context.Background(), KindBank, "b1", false))
	require.False(t, repo.active["b1"])

	err := svc.SetActive(context.Background(), Kind("broker"), "b1", false)
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.SetActive(context.Background(), KindBank, "", false)
	require.ErrorIs(t, err, shared.ErrValidation)

	err = svc.SetActive(context.Background(), KindBank, "ghost", false)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestKindValid(t *testing.T) {
	require.True(t, KindBank.Valid())
	require.True(t, KindWebsite.Valid())
	require.True(t, KindIntroducer.Valid())
	require.False(t, Kind("user").Valid())
	require.False(t, Kind("").Valid())
}
