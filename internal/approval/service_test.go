package approval

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/gate"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

type mockRepo struct {
	creations map[uuid.UUID]CreationRequest
	edits     map[uuid.UUID]EditRequest
	deletions map[uuid.UUID]DeletionRequest

	banks    map[string]accounts.Bank
	websites map[string]accounts.Website
	grants   map[string][]accounts.PermissionGrant
	trashed  []trash.Record
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		creations: make(map[uuid.UUID]CreationRequest),
		edits:     make(map[uuid.UUID]EditRequest),
		deletions: make(map[uuid.UUID]DeletionRequest),
		banks:     make(map[string]accounts.Bank),
		websites:  make(map[string]accounts.Website),
		grants:    make(map[string][]accounts.PermissionGrant),
	}
}

func (m *mockRepo) NameExists(ctx context.Context, kind accounts.Kind, name string) (bool, error) {
	key := NormalizeName(name)
	for _, b := range m.banks {
		if kind == accounts.KindBank && NormalizeName(b.Name) == key {
			return true, nil
		}
	}
	for _, w := range m.websites {
		if kind == accounts.KindWebsite && NormalizeName(w.Name) == key {
			return true, nil
		}
	}
	for _, req := range m.creations {
		if req.Kind == kind && NormalizeName(req.Proposed.Name()) == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) NameExistsExcept(ctx context.Context, kind accounts.Kind, name, exceptID string) (bool, error) {
	key := NormalizeName(name)
	for id, b := range m.banks {
		if kind == accounts.KindBank && id != exceptID && NormalizeName(b.Name) == key {
			return true, nil
		}
	}
	for id, w := range m.websites {
		if kind == accounts.KindWebsite && id != exceptID && NormalizeName(w.Name) == key {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) InsertCreation(ctx context.Context, req CreationRequest) error {
	m.creations[req.ID] = req
	return nil
}

func (m *mockRepo) GetCreation(ctx context.Context, id uuid.UUID) (CreationRequest, error) {
	req, ok := m.creations[id]
	if !ok {
		return CreationRequest{}, fmt.Errorf("%w: creation request %s", shared.ErrNotFound, id)
	}
	return req, nil
}

func (m *mockRepo) ListCreation(ctx context.Context, filters shared.ListFilters) ([]CreationRequest, int, error) {
	out := make([]CreationRequest, 0, len(m.creations))
	for _, req := range m.creations {
		out = append(out, req)
	}
	return out, len(out), nil
}

func (m *mockRepo) ApproveCreation(ctx context.Context, req CreationRequest) error {
	switch req.Kind {
	case accounts.KindBank:
		b := *req.Proposed.Bank
		b.Active = true
		m.banks[b.ID] = b
	case accounts.KindWebsite:
		w := *req.Proposed.Website
		w.Active = true
		m.websites[w.ID] = w
	}
	m.grants[req.Proposed.ID()] = req.Grants
	delete(m.creations, req.ID)
	return nil
}

func (m *mockRepo) DeleteCreation(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.creations[id]; !ok {
		return fmt.Errorf("%w: creation request %s", shared.ErrNotFound, id)
	}
	delete(m.creations, id)
	return nil
}

func (m *mockRepo) OpenEditExists(ctx context.Context, targetID string) (bool, error) {
	for _, req := range m.edits {
		if req.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) InsertEdit(ctx context.Context, req EditRequest) error {
	m.edits[req.ID] = req
	return nil
}

func (m *mockRepo) GetEdit(ctx context.Context, id uuid.UUID) (EditRequest, error) {
	req, ok := m.edits[id]
	if !ok {
		return EditRequest{}, fmt.Errorf("%w: edit request %s", shared.ErrNotFound, id)
	}
	return req, nil
}

func (m *mockRepo) ListEdit(ctx context.Context, filters shared.ListFilters) ([]EditRequest, int, error) {
	out := make([]EditRequest, 0, len(m.edits))
	for _, req := range m.edits {
		out = append(out, req)
	}
	return out, len(out), nil
}

func (m *mockRepo) ApproveEdit(ctx context.Context, req EditRequest) error {
	switch req.Kind {
	case accounts.KindBank:
		m.banks[req.TargetID] = *req.Proposed.Bank
	case accounts.KindWebsite:
		m.websites[req.TargetID] = *req.Proposed.Website
	}
	delete(m.edits, req.ID)
	return nil
}

func (m *mockRepo) DeleteEdit(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.edits[id]; !ok {
		return fmt.Errorf("%w: edit request %s", shared.ErrNotFound, id)
	}
	delete(m.edits, id)
	return nil
}

func (m *mockRepo) OpenDeletionExists(ctx context.Context, targetID string) (bool, error) {
	for _, req := range m.deletions {
		if req.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) InsertDeletion(ctx context.Context, req DeletionRequest) error {
	m.deletions[req.ID] = req
	return nil
}

func (m *mockRepo) GetDeletionByTarget(ctx context.Context, targetID string) (DeletionRequest, error) {
	for _, req := range m.deletions {
		if req.TargetID == targetID {
			return req, nil
		}
	}
	return DeletionRequest{}, fmt.Errorf("%w: deletion request for %s", shared.ErrNotFound, targetID)
}

func (m *mockRepo) ListDeletion(ctx context.Context, filters shared.ListFilters) ([]DeletionRequest, int, error) {
	out := make([]DeletionRequest, 0, len(m.deletions))
	for _, req := range m.deletions {
		out = append(out, req)
	}
	return out, len(out), nil
}

func (m *mockRepo) ApproveDeletion(ctx context.Context, req DeletionRequest, rec trash.Record, txSnap *trash.TransactionSnapshot) error {
	m.trashed = append(m.trashed, rec)
	switch req.Kind {
	case trash.KindBank:
		delete(m.banks, req.TargetID)
	case trash.KindWebsite:
		delete(m.websites, req.TargetID)
	}
	delete(m.deletions, req.ID)
	return nil
}

func (m *mockRepo) DeleteDeletion(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.deletions[id]; !ok {
		return fmt.Errorf("%w: deletion request %s", shared.ErrNotFound, id)
	}
	delete(m.deletions, id)
	return nil
}

func (m *mockRepo) FindTransaction(ctx context.Context, id string) (trash.TransactionSnapshot, error) {
	return trash.TransactionSnapshot{}, fmt.Errorf("%w: transaction %s", shared.ErrNotFound, id)
}

type mockAccounts struct {
	repo *mockRepo
}

func (m mockAccounts) GetBank(ctx context.Context, id string) (accounts.Bank, error) {
	b, ok := m.repo.banks[id]
	if !ok {
		return accounts.Bank{}, fmt.Errorf("%w: bank %s", shared.ErrNotFound, id)
	}
	return b, nil
}

func (m mockAccounts) GetWebsite(ctx context.Context, id string) (accounts.Website, error) {
	w, ok := m.repo.websites[id]
	if !ok {
		return accounts.Website{}, fmt.Errorf("%w: website %s", shared.ErrNotFound, id)
	}
	return w, nil
}

func (m mockAccounts) GetIntroducer(ctx context.Context, id string) (accounts.IntroducerUser, error) {
	return accounts.IntroducerUser{}, fmt.Errorf("%w: introducer %s", shared.ErrNotFound, id)
}

func (m mockAccounts) GrantsForAccount(ctx context.Context, kind accounts.Kind, accountID string) ([]accounts.PermissionGrant, error) {
	return m.repo.grants[accountID], nil
}

func testPrincipal() *gate.Principal {
	return gate.NewPrincipal("sub-admin-01", "Priya", []gate.Capability{
		gate.CapAccountCreate, gate.CapAccountEdit, gate.CapAccountDelete, gate.CapRequestResolve,
	})
}

func newTestService(repo *mockRepo) *Service {
	return NewService(repo, mockAccounts{repo: repo}, nil, slog.Default())
}

func bankCreation(name string) CreationInput {
	return CreationInput{
		Kind: accounts.KindBank,
		Bank: &BankInput{
			Name:          name,
			AccountHolder: "Acme Traders",
			AccountNumber: "50100234567890",
			IFSC:          "HDFC0001234",
		},
		Grants: []GrantInput{
			{SubAdminID: "sub-admin-02", SubAdminName: "Dev", CanDeposit: true},
			{SubAdminID: "sub-admin-03", SubAdminName: "Kiran", CanWithdraw: true, CanEdit: true},
		},
	}
}

func TestCreationApproveFlow(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req, err := svc.RequestCreation(ctx, bankCreation("  HDFC  Current "), testPrincipal())
	require.NoError(t, err)
	require.Equal(t, "HDFC  Current", req.Proposed.Name())
	require.Len(t, req.Grants, 2)
	require.Empty(t, repo.banks, "nothing live before approval")

	resolved, err := svc.ResolveCreation(ctx, req.ID, true)
	require.NoError(t, err)
	require.Equal(t, req.ID, resolved.ID)

	bank, ok := repo.banks[req.Proposed.ID()]
	require.True(t, ok)
	require.True(t, bank.Active)
	require.Len(t, repo.grants[bank.ID], 2)
	require.Empty(t, repo.creations, "request destroyed on approval")
}

func TestCreationRejectLeavesNoTrace(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	req, err := svc.RequestCreation(ctx, bankCreation("ICICI Savings"), testPrincipal())
	require.NoError(t, err)

	_, err = svc.ResolveCreation(ctx, req.ID, false)
	require.NoError(t, err)
	require.Empty(t, repo.banks)
	require.Empty(t, repo.creations)

	// A rejected name is free to be requested again.
	_, err = svc.RequestCreation(ctx, bankCreation("ICICI Savings"), testPrincipal())
	require.NoError(t, err)
}

func TestCreationDuplicateNameGuard(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{ID: "b1", Name: "HDFC Current"}
	svc := newTestService(repo)
	ctx := context.Background()

	// The collision key ignores case and whitespace runs.
	_, err := svc.RequestCreation(ctx, bankCreation("hdfc   CURRENT"), testPrincipal())
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestCreationPendingNameGuard(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RequestCreation(ctx, bankCreation("Axis Corporate"), testPrincipal())
	require.NoError(t, err)

	_, err = svc.RequestCreation(ctx, bankCreation("Axis Corporate"), testPrincipal())
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestEditFlow(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{
		ID: "b1", Name: "HDFC Current", AccountHolder: "Acme Traders",
		AccountNumber: "50100234567890", IFSC: "HDFC0001234", Active: true,
	}
	svc := newTestService(repo)
	ctx := context.Background()

	input := EditInput{
		Kind:     accounts.KindBank,
		TargetID: "b1",
		Bank: &BankInput{
			Name:          "HDFC Corporate",
			AccountHolder: "Acme Traders",
			AccountNumber: "50100234567890",
			IFSC:          "HDFC0009999",
		},
	}
	req, err := svc.RequestEdit(ctx, input, testPrincipal())
	require.NoError(t, err)
	require.Len(t, req.Changed, 2)
	require.Equal(t, "name", req.Changed[0].Field)
	require.Equal(t, "HDFC Current", req.Changed[0].Old)
	require.Equal(t, "HDFC Corporate", req.Changed[0].New)
	require.Equal(t, "HDFC Current", repo.banks["b1"].Name, "live row untouched until approval")

	resolved, err := svc.ResolveEdit(ctx, req.ID, true)
	require.NoError(t, err)
	require.True(t, resolved.IsApproved)
	require.Equal(t, "HDFC Corporate", repo.banks["b1"].Name)
	require.Equal(t, "HDFC0009999", repo.banks["b1"].IFSC)
	require.Empty(t, repo.edits)
}

func TestEditOnePerTarget(t *testing.T) {
	repo := newMockRepo()
	repo.websites["w1"] = accounts.Website{ID: "w1", Name: "Lotus Exchange", Active: true}
	svc := newTestService(repo)
	ctx := context.Background()

	input := EditInput{
		Kind:     accounts.KindWebsite,
		TargetID: "w1",
		Website:  &WebsiteInput{Name: "Lotus Prime"},
	}
	first, err := svc.RequestEdit(ctx, input, testPrincipal())
	require.NoError(t, err)

	_, err = svc.RequestEdit(ctx, input, testPrincipal())
	require.ErrorIs(t, err, shared.ErrConflict)

	// Rejection frees the target for a new request.
	_, err = svc.ResolveEdit(ctx, first.ID, false)
	require.NoError(t, err)
	require.Equal(t, "Lotus Exchange", repo.websites["w1"].Name)

	_, err = svc.RequestEdit(ctx, input, testPrincipal())
	require.NoError(t, err)
}

func TestEditNameCollisionGuard(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{ID: "b1", Name: "HDFC Current"}
	repo.banks["b2"] = accounts.Bank{ID: "b2", Name: "ICICI Savings"}
	svc := newTestService(repo)
	ctx := context.Background()

	input := EditInput{
		Kind:     accounts.KindBank,
		TargetID: "b2",
		Bank:     &BankInput{Name: "HDFC Current", AccountHolder: "x", AccountNumber: "1"},
	}
	_, err := svc.RequestEdit(ctx, input, testPrincipal())
	require.ErrorIs(t, err, shared.ErrConflict)

	// Keeping its own name is not a collision.
	input.Bank.Name = "ICICI Savings"
	_, err = svc.RequestEdit(ctx, input, testPrincipal())
	require.NoError(t, err)
}

func TestDeletionApproveFlow(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{ID: "b1", Name: "HDFC Current", Active: true}
	repo.grants["b1"] = []accounts.PermissionGrant{{AccountID: "b1", SubAdminID: "sub-admin-02"}}
	svc := newTestService(repo)
	ctx := context.Background()

	req, err := svc.RequestDeletion(ctx, trash.KindBank, "b1", "stale account", testPrincipal())
	require.NoError(t, err)

	var snap trash.BankSnapshot
	require.NoError(t, json.Unmarshal(req.Snapshot, &snap))
	require.Equal(t, "HDFC Current", snap.Bank.Name)
	require.Len(t, snap.Grants, 1)

	rec, err := svc.ResolveDeletion(ctx, "b1", true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "b1", rec.NaturalID)
	require.Equal(t, trash.KindBank, rec.Kind)
	require.Equal(t, "stale account", rec.Remark)
	require.NotContains(t, repo.banks, "b1")
	require.Len(t, repo.trashed, 1)
}

func TestDeletionRejectReturnsNilRecord(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{ID: "b1", Name: "HDFC Current"}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RequestDeletion(ctx, trash.KindBank, "b1", "", testPrincipal())
	require.NoError(t, err)

	rec, err := svc.ResolveDeletion(ctx, "b1", false)
	require.NoError(t, err)
	require.Nil(t, rec)
	require.Contains(t, repo.banks, "b1")
}

func TestDeletionResolveIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{ID: "b1", Name: "HDFC Current"}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RequestDeletion(ctx, trash.KindBank, "b1", "", testPrincipal())
	require.NoError(t, err)

	_, err = svc.ResolveDeletion(ctx, "b1", true)
	require.NoError(t, err)

	// The request is gone; a second resolve finds nothing to do.
	_, err = svc.ResolveDeletion(ctx, "b1", true)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Len(t, repo.trashed, 1)
}

func TestDeletionOnePerTarget(t *testing.T) {
	repo := newMockRepo()
	repo.banks["b1"] = accounts.Bank{ID: "b1", Name: "HDFC Current"}
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.RequestDeletion(ctx, trash.KindBank, "b1", "", testPrincipal())
	require.NoError(t, err)

	_, err = svc.RequestDeletion(ctx, trash.KindBank, "b1", "", testPrincipal())
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestDeletionUnknownTarget(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo)

	_, err := svc.RequestDeletion(context.Background(), trash.KindBank, "ghost", "", testPrincipal())
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "hdfc current", NormalizeName("  HDFC   Current "))
	require.Equal(t, "hdfc current", NormalizeName("hdfc\tcurrent"))
	require.Equal(t, "", NormalizeName("   "))
}
