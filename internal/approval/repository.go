package approval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/db"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
	"github.com/ledgerdesk/ledgerdesk/internal/trash"
)

// Repository persists the three request tables and applies approval effects
// atomically. Guard races the existence checks cannot close are closed by
// unique indexes; a 23505 surfaces as ErrConflict.
type Repository interface {
	NameExists(ctx context.Context, kind accounts.Kind, name string) (bool, error)
	NameExistsExcept(ctx context.Context, kind accounts.Kind, name, exceptID string) (bool, error)

	InsertCreation(ctx context.Context, req CreationRequest) error
	GetCreation(ctx context.Context, id uuid.UUID) (CreationRequest, error)
	ListCreation(ctx context.Context, filters shared.ListFilters) ([]CreationRequest, int, error)
	ApproveCreation(ctx context.Context, req CreationRequest) error
	DeleteCreation(ctx context.Context, id uuid.UUID) error

	OpenEditExists(ctx context.Context, targetID string) (bool, error)
	InsertEdit(ctx context.Context, req EditRequest) error
	GetEdit(ctx context.Context, id uuid.UUID) (EditRequest, error)
	ListEdit(ctx context.Context, filters shared.ListFilters) ([]EditRequest, int, error)
	ApproveEdit(ctx context.Context, req EditRequest) error
	DeleteEdit(ctx context.Context, id uuid.UUID) error

	OpenDeletionExists(ctx context.Context, targetID string) (bool, error)
	InsertDeletion(ctx context.Context, req DeletionRequest) error
	GetDeletionByTarget(ctx context.Context, targetID string) (DeletionRequest, error)
	ListDeletion(ctx context.Context, filters shared.ListFilters) ([]DeletionRequest, int, error)
	ApproveDeletion(ctx context.Context, req DeletionRequest, rec trash.Record, txSnap *trash.TransactionSnapshot) error
	DeleteDeletion(ctx context.Context, id uuid.UUID) error

	FindTransaction(ctx context.Context, id string) (trash.TransactionSnapshot, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type creationPayload struct {
	Proposed ProposedAccount            `json:"proposed"`
	Grants   []accounts.PermissionGrant `json:"grants,omitempty"`
}

type editPayload struct {
	Proposed ProposedAccount `json:"proposed"`
	Changed  []FieldChange   `json:"changed_fields,omitempty"`
}

// NameExists checks the case- and whitespace-insensitive name key against
// both the live table and the pending creation requests.
func (r *repository) NameExists(ctx context.Context, kind accounts.Kind, name string) (bool, error) {
	table := "banks"
	if kind == accounts.KindWebsite {
		table = "websites"
	}
	query := `SELECT EXISTS (
SELECT 1 FROM ` + table + ` WHERE lower(regexp_replace(btrim(name), '\s+', ' ', 'g')) = $1
) OR EXISTS (
SELECT 1 FROM creation_requests WHERE kind = $2 AND name_key = $1)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, NormalizeName(name), string(kind)).Scan(&exists)
	return exists, err
}

func (r *repository) NameExistsExcept(ctx context.Context, kind accounts.Kind, name, exceptID string) (bool, error) {
	table := "banks"
	if kind == accounts.KindWebsite {
		table = "websites"
	}
	query := `SELECT EXISTS (
SELECT 1 FROM ` + table + ` WHERE lower(regexp_replace(btrim(name), '\s+', ' ', 'g')) = $1 AND id <> $2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, NormalizeName(name), exceptID).Scan(&exists)
	return exists, err
}

func (r *repository) InsertCreation(ctx context.Context, req CreationRequest) error {
	payload, err := json.Marshal(creationPayload{Proposed: req.Proposed, Grants: req.Grants})
	if err != nil {
		return err
	}
	const query = `INSERT INTO creation_requests
(id, kind, name_key, payload, message, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err = r.pool.Exec(ctx, query,
		req.ID, string(req.Kind), NormalizeName(req.Proposed.Name()), payload,
		req.Message, req.SubAdminID, req.SubAdminName, req.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: a request for this name is already pending", shared.ErrConflict)
	}
	return err
}

func (r *repository) GetCreation(ctx context.Context, id uuid.UUID) (CreationRequest, error) {
	const query = `SELECT id, kind, payload, message, sub_admin_id, sub_admin_name, created_at
FROM creation_requests WHERE id = $1`
	var req CreationRequest
	var kind string
	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &kind, &payload, &req.Message, &req.SubAdminID, &req.SubAdminName, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CreationRequest{}, fmt.Errorf("%w: creation request %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return CreationRequest{}, err
	}
	req.Kind = accounts.Kind(kind)
	var p creationPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return CreationRequest{}, fmt.Errorf("approval: decode creation payload %s: %w", id, err)
	}
	req.Proposed = p.Proposed
	req.Grants = p.Grants
	return req, nil
}

func (r *repository) ListCreation(ctx context.Context, filters shared.ListFilters) ([]CreationRequest, int, error) {
	filters = filters.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM creation_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const query = `SELECT id, kind, payload, message, sub_admin_id, sub_admin_name, created_at
FROM creation_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []CreationRequest
	for rows.Next() {
		var req CreationRequest
		var kind string
		var payload []byte
		if err := rows.Scan(&req.ID, &kind, &payload, &req.Message, &req.SubAdminID, &req.SubAdminName, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		req.Kind = accounts.Kind(kind)
		var p creationPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, 0, err
		}
		req.Proposed = p.Proposed
		req.Grants = p.Grants
		reqs = append(reqs, req)
	}
	return reqs, total, rows.Err()
}

// ApproveCreation materializes the account and its grants and destroys the
// request, all in one transaction.
func (r *repository) ApproveCreation(ctx context.Context, req CreationRequest) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		switch {
		case req.Proposed.Bank != nil:
			b := req.Proposed.Bank
			const insert = `INSERT INTO banks (id, name, account_holder, account_number, ifsc, upi_id, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,TRUE,NOW(),NOW())`
			if _, err := tx.Exec(ctx, insert, b.ID, b.Name, b.AccountHolder, b.AccountNumber, b.IFSC, b.UPIID); err != nil {
				return err
			}
		case req.Proposed.Website != nil:
			w := req.Proposed.Website
			const insert = `INSERT INTO websites (id, name, url, active, created_at, updated_at) VALUES ($1,$2,$3,TRUE,NOW(),NOW())`
			if _, err := tx.Exec(ctx, insert, w.ID, w.Name, w.URL); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: creation request %s holds no proposed account", shared.ErrValidation, req.ID)
		}

		const insertGrant = `INSERT INTO permission_grants
(account_id, account_kind, sub_admin_id, sub_admin_name, can_deposit, can_withdraw, can_edit, can_renew, can_delete, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())`
		for _, g := range req.Grants {
			if _, err := tx.Exec(ctx, insertGrant,
				req.Proposed.ID(), string(req.Kind), g.SubAdminID, g.SubAdminName,
				g.CanDeposit, g.CanWithdraw, g.CanEdit, g.CanRenew, g.CanDelete,
			); err != nil {
				return err
			}
		}
		return deleteRequest(ctx, tx, "creation_requests", req.ID)
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: account already exists", shared.ErrConflict)
	}
	return err
}

func (r *repository) DeleteCreation(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM creation_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: creation request %s", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) OpenEditExists(ctx context.Context, targetID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM edit_requests WHERE target_id = $1)`, targetID).Scan(&exists)
	return exists, err
}

func (r *repository) InsertEdit(ctx context.Context, req EditRequest) error {
	payload, err := json.Marshal(editPayload{Proposed: req.Proposed, Changed: req.Changed})
	if err != nil {
		return err
	}
	const query = `INSERT INTO edit_requests
(id, kind, target_id, payload, message, is_approved, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err = r.pool.Exec(ctx, query,
		req.ID, string(req.Kind), req.TargetID, payload, req.Message, req.IsApproved,
		req.SubAdminID, req.SubAdminName, req.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: already sent for approval", shared.ErrConflict)
	}
	return err
}

func (r *repository) GetEdit(ctx context.Context, id uuid.UUID) (EditRequest, error) {
	const query = `SELECT id, kind, target_id, payload, message, is_approved, sub_admin_id, sub_admin_name, created_at
FROM edit_requests WHERE id = $1`
	var req EditRequest
	var kind string
	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &kind, &req.TargetID, &payload, &req.Message, &req.IsApproved,
		&req.SubAdminID, &req.SubAdminName, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return EditRequest{}, fmt.Errorf("%w: edit request %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return EditRequest{}, err
	}
	req.Kind = accounts.Kind(kind)
	var p editPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return EditRequest{}, fmt.Errorf("approval: decode edit payload %s: %w", id, err)
	}
	req.Proposed = p.Proposed
	req.Changed = p.Changed
	return req, nil
}

func (r *repository) ListEdit(ctx context.Context, filters shared.ListFilters) ([]EditRequest, int, error) {
	filters = filters.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM edit_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const query = `SELECT id, kind, target_id, payload, message, is_approved, sub_admin_id, sub_admin_name, created_at
FROM edit_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []EditRequest
	for rows.Next() {
		var req EditRequest
		var kind string
		var payload []byte
		if err := rows.Scan(&req.ID, &kind, &req.TargetID, &payload, &req.Message, &req.IsApproved,
			&req.SubAdminID, &req.SubAdminName, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		req.Kind = accounts.Kind(kind)
		var p editPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, 0, err
		}
		req.Proposed = p.Proposed
		req.Changed = p.Changed
		reqs = append(reqs, req)
	}
	return reqs, total, rows.Err()
}

// ApproveEdit applies the whole proposed record to the live row and destroys
// the request atomically.
func (r *repository) ApproveEdit(ctx context.Context, req EditRequest) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var tag pgconn.CommandTag
		var err error
		switch {
		case req.Proposed.Bank != nil:
			b := req.Proposed.Bank
			const update = `UPDATE banks SET name = $1, account_holder = $2, account_number = $3, ifsc = $4, upi_id = $5, updated_at = NOW()
WHERE id = $6`
			tag, err = tx.Exec(ctx, update, b.Name, b.AccountHolder, b.AccountNumber, b.IFSC, b.UPIID, req.TargetID)
		case req.Proposed.Website != nil:
			w := req.Proposed.Website
			const update = `UPDATE websites SET name = $1, url = $2, updated_at = NOW() WHERE id = $3`
			tag, err = tx.Exec(ctx, update, w.Name, w.URL, req.TargetID)
		default:
			return fmt.Errorf("%w: edit request %s holds no proposed account", shared.ErrValidation, req.ID)
		}
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s %s", shared.ErrNotFound, req.Kind, req.TargetID)
		}
		return deleteRequest(ctx, tx, "edit_requests", req.ID)
	})
}

func (r *repository) DeleteEdit(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM edit_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: edit request %s", shared.ErrNotFound, id)
	}
	return nil
}

func (r *repository) OpenDeletionExists(ctx context.Context, targetID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM deletion_requests WHERE target_id = $1)`, targetID).Scan(&exists)
	return exists, err
}

func (r *repository) InsertDeletion(ctx context.Context, req DeletionRequest) error {
	const query = `INSERT INTO deletion_requests
(id, kind, target_id, snapshot, message, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.pool.Exec(ctx, query,
		req.ID, string(req.Kind), req.TargetID, []byte(req.Snapshot), req.Message,
		req.SubAdminID, req.SubAdminName, req.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: deletion already sent for approval", shared.ErrConflict)
	}
	return err
}

func (r *repository) GetDeletionByTarget(ctx context.Context, targetID string) (DeletionRequest, error) {
	const query = `SELECT id, kind, target_id, snapshot, message, sub_admin_id, sub_admin_name, created_at
FROM deletion_requests WHERE target_id = $1`
	var req DeletionRequest
	var kind string
	err := r.pool.QueryRow(ctx, query, targetID).Scan(
		&req.ID, &kind, &req.TargetID, &req.Snapshot, &req.Message,
		&req.SubAdminID, &req.SubAdminName, &req.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DeletionRequest{}, fmt.Errorf("%w: deletion request for %s", shared.ErrNotFound, targetID)
	}
	req.Kind = trash.Kind(kind)
	return req, err
}

func (r *repository) ListDeletion(ctx context.Context, filters shared.ListFilters) ([]DeletionRequest, int, error) {
	filters = filters.Normalize()
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM deletion_requests`).Scan(&total); err != nil {
		return nil, 0, err
	}
	const query = `SELECT id, kind, target_id, snapshot, message, sub_admin_id, sub_admin_name, created_at
FROM deletion_requests ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var reqs []DeletionRequest
	for rows.Next() {
		var req DeletionRequest
		var kind string
		if err := rows.Scan(&req.ID, &kind, &req.TargetID, &req.Snapshot, &req.Message,
			&req.SubAdminID, &req.SubAdminName, &req.CreatedAt); err != nil {
			return nil, 0, err
		}
		req.Kind = trash.Kind(kind)
		reqs = append(reqs, req)
	}
	return reqs, total, rows.Err()
}

// ApproveDeletion archives the snapshot, hard-deletes the live row(s), and
// destroys the request, all in one transaction.
func (r *repository) ApproveDeletion(ctx context.Context, req DeletionRequest, rec trash.Record, txSnap *trash.TransactionSnapshot) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertTrash = `INSERT INTO trash
(natural_id, kind, snapshot, remark, sub_admin_id, sub_admin_name, trashed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)`
		if _, err := tx.Exec(ctx, insertTrash,
			rec.NaturalID, string(rec.Kind), []byte(rec.Snapshot), rec.Remark,
			rec.SubAdminID, rec.SubAdminName, rec.TrashedAt,
		); err != nil {
			return err
		}

		switch req.Kind {
		case trash.KindBank:
			if _, err := tx.Exec(ctx, `DELETE FROM permission_grants WHERE account_kind = 'bank' AND account_id = $1`, req.TargetID); err != nil {
				return err
			}
			if err := deleteLiveRow(ctx, tx, "banks", req.TargetID); err != nil {
				return err
			}
		case trash.KindWebsite:
			if _, err := tx.Exec(ctx, `DELETE FROM permission_grants WHERE account_kind = 'website' AND account_id = $1`, req.TargetID); err != nil {
				return err
			}
			if err := deleteLiveRow(ctx, tx, "websites", req.TargetID); err != nil {
				return err
			}
		case trash.KindIntroducer:
			if err := deleteLiveRow(ctx, tx, "introducer_users", req.TargetID); err != nil {
				return err
			}
		case trash.KindTransaction:
			if txSnap == nil {
				return fmt.Errorf("%w: transaction deletion without snapshot", shared.ErrValidation)
			}
			switch {
			case txSnap.Ledger != nil:
				if err := deleteLiveRow(ctx, tx, "ledger_transactions", req.TargetID); err != nil {
					return err
				}
				if _, err := tx.Exec(ctx, `DELETE FROM user_transaction_details WHERE transaction_ref = $1`, req.TargetID); err != nil {
					return err
				}
			case txSnap.Manual != nil:
				if err := deleteLiveRow(ctx, tx, "manual_transactions", req.TargetID); err != nil {
					return err
				}
			case txSnap.Introducer != nil:
				if err := deleteLiveRow(ctx, tx, "introducer_transactions", req.TargetID); err != nil {
					return err
				}
			}
		}
		return deleteRequest(ctx, tx, "deletion_requests", req.ID)
	})
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: target already trashed", shared.ErrConflict)
	}
	return err
}

func (r *repository) DeleteDeletion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deletion_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: deletion request %s", shared.ErrNotFound, id)
	}
	return nil
}

// FindTransaction locates a transaction of any variant by id and snapshots
// it, including the paired user detail row for ledger transactions.
func (r *repository) FindTransaction(ctx context.Context, id string) (trash.TransactionSnapshot, error) {
	var snap trash.TransactionSnapshot

	const ledgerQuery = `SELECT id, transaction_id, user_id, user_name, bank_id, bank_name, website_id, website_name,
direction, amount, bonus, bank_charges, remark, sub_admin_id, sub_admin_name, created_at
FROM ledger_transactions WHERE id = $1`
	var lt ledger.LedgerTransaction
	var direction string
	var amount, bonus, charges decimal.NullDecimal
	err := r.pool.QueryRow(ctx, ledgerQuery, id).Scan(
		&lt.ID, &lt.TransactionID, &lt.UserID, &lt.UserName, &lt.BankID, &lt.BankName,
		&lt.WebsiteID, &lt.WebsiteName, &direction, &amount, &bonus, &charges,
		&lt.Remark, &lt.SubAdminID, &lt.SubAdminName, &lt.CreatedAt,
	)
	switch {
	case err == nil:
		lt.Direction = ledger.Direction(direction)
		lt.Amount = amount.Decimal
		lt.Bonus = bonus.Decimal
		lt.BankCharges = charges.Decimal
		snap.Ledger = &lt
		detail, err := r.findUserDetail(ctx, id)
		if err != nil {
			return trash.TransactionSnapshot{}, err
		}
		snap.Detail = detail
		return snap, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return trash.TransactionSnapshot{}, err
	}

	const manualQuery = `SELECT id, account_kind, account_id, account_name, direction, amount, remark,
sub_admin_id, sub_admin_name, created_at FROM manual_transactions WHERE id = $1`
	var mt ledger.ManualTransaction
	var kind string
	err = r.pool.QueryRow(ctx, manualQuery, id).Scan(
		&mt.ID, &kind, &mt.AccountID, &mt.AccountName, &direction, &amount,
		&mt.Remark, &mt.SubAdminID, &mt.SubAdminName, &mt.CreatedAt,
	)
	switch {
	case err == nil:
		mt.AccountKind = accounts.Kind(kind)
		mt.Direction = ledger.Direction(direction)
		mt.Amount = amount.Decimal
		snap.Manual = &mt
		return snap, nil
	case !errors.Is(err, pgx.ErrNoRows):
		return trash.TransactionSnapshot{}, err
	}

	const introQuery = `SELECT id, introducer_id, introducer_name, direction, amount, remark,
sub_admin_id, sub_admin_name, created_at FROM introducer_transactions WHERE id = $1`
	var it ledger.IntroducerTransaction
	err = r.pool.QueryRow(ctx, introQuery, id).Scan(
		&it.ID, &it.IntroducerID, &it.IntroducerName, &direction, &amount,
		&it.Remark, &it.SubAdminID, &it.SubAdminName, &it.CreatedAt,
	)
	switch {
	case err == nil:
		it.Direction = ledger.Direction(direction)
		it.Amount = amount.Decimal
		snap.Introducer = &it
		return snap, nil
	case errors.Is(err, pgx.ErrNoRows):
		return trash.TransactionSnapshot{}, fmt.Errorf("%w: transaction %s", shared.ErrNotFound, id)
	default:
		return trash.TransactionSnapshot{}, err
	}
}

func (r *repository) findUserDetail(ctx context.Context, transactionRef string) (*ledger.UserTransactionDetail, error) {
	const query = `SELECT id, transaction_ref, user_id, direction, amount, bank_name, website_name, created_at
FROM user_transaction_details WHERE transaction_ref = $1`
	var d ledger.UserTransactionDetail
	var direction string
	var amount decimal.NullDecimal
	err := r.pool.QueryRow(ctx, query, transactionRef).Scan(
		&d.ID, &d.TransactionRef, &d.UserID, &direction, &amount, &d.BankName, &d.WebsiteName, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	d.Direction = ledger.Direction(direction)
	d.Amount = amount.Decimal
	return &d, nil
}

func deleteRequest(ctx context.Context, tx pgx.Tx, table string, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: request %s already resolved", shared.ErrNotFound, id)
	}
	return nil
}

func deleteLiveRow(ctx context.Context, tx pgx.Tx, table, id string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, table, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
