package trash

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/db"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Repository reads trash records and performs atomic restores. Each restore
// rebuilds the live row(s) and removes the trash record in one transaction;
// if anything fails the trash copy survives untouched.
type Repository interface {
	Get(ctx context.Context, kind Kind, naturalID string) (Record, error)
	List(ctx context.Context, filters shared.ListFilters) ([]Record, int, error)
	RestoreBank(ctx context.Context, rec Record, snap BankSnapshot) error
	RestoreWebsite(ctx context.Context, rec Record, snap WebsiteSnapshot) error
	RestoreIntroducer(ctx context.Context, rec Record, snap IntroducerSnapshot) error
	RestoreTransaction(ctx context.Context, rec Record, snap TransactionSnapshot) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, kind Kind, naturalID string) (Record, error) {
	const query = `SELECT natural_id, kind, snapshot, remark, sub_admin_id, sub_admin_name, trashed_at
FROM trash WHERE kind = $1 AND natural_id = $2`
	var rec Record
	var k string
	err := r.pool.QueryRow(ctx, query, string(kind), naturalID).Scan(
		&rec.NaturalID, &k, &rec.Snapshot, &rec.Remark, &rec.SubAdminID, &rec.SubAdminName, &rec.TrashedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: trash %s/%s", shared.ErrNotFound, kind, naturalID)
	}
	rec.Kind = Kind(k)
	return rec, err
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Record, int, error) {
	filters = filters.Normalize()
	const countQuery = `SELECT COUNT(*) FROM trash`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT natural_id, kind, snapshot, remark, sub_admin_id, sub_admin_name, trashed_at
FROM trash ORDER BY trashed_at DESC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var k string
		if err := rows.Scan(&rec.NaturalID, &k, &rec.Snapshot, &rec.Remark, &rec.SubAdminID, &rec.SubAdminName, &rec.TrashedAt); err != nil {
			return nil, 0, err
		}
		rec.Kind = Kind(k)
		records = append(records, rec)
	}
	return records, total, rows.Err()
}

func (r *repository) RestoreBank(ctx context.Context, rec Record, snap BankSnapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `INSERT INTO banks (id, name, account_holder, account_number, ifsc, upi_id, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
		b := snap.Bank
		if _, err := tx.Exec(ctx, insert, b.ID, b.Name, b.AccountHolder, b.AccountNumber, b.IFSC, b.UPIID, b.Active, b.CreatedAt, b.UpdatedAt); err != nil {
			return err
		}
		if err := insertGrants(ctx, tx, snap.Grants); err != nil {
			return err
		}
		return r.deleteTrash(ctx, tx, rec)
	})
}

func (r *repository) RestoreWebsite(ctx context.Context, rec Record, snap WebsiteSnapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `INSERT INTO websites (id, name, url, active, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`
		w := snap.Website
		if _, err := tx.Exec(ctx, insert, w.ID, w.Name, w.URL, w.Active, w.CreatedAt, w.UpdatedAt); err != nil {
			return err
		}
		if err := insertGrants(ctx, tx, snap.Grants); err != nil {
			return err
		}
		return r.deleteTrash(ctx, tx, rec)
	})
}

func (r *repository) RestoreIntroducer(ctx context.Context, rec Record, snap IntroducerSnapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insert = `INSERT INTO introducer_users (id, name, role, active, created_at, updated_at) VALUES ($1,$2,$3,$4,$5,$6)`
		u := snap.Introducer
		if _, err := tx.Exec(ctx, insert, u.ID, u.Name, u.Role, u.Active, u.CreatedAt, u.UpdatedAt); err != nil {
			return err
		}
		return r.deleteTrash(ctx, tx, rec)
	})
}

func (r *repository) RestoreTransaction(ctx context.Context, rec Record, snap TransactionSnapshot) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		switch {
		case snap.Ledger != nil:
			if err := insertLedgerTransaction(ctx, tx, *snap.Ledger); err != nil {
				return err
			}
			if snap.Detail != nil {
				if err := insertUserDetail(ctx, tx, *snap.Detail); err != nil {
					return err
				}
			}
		case snap.Manual != nil:
			if err := insertManualTransaction(ctx, tx, *snap.Manual); err != nil {
				return err
			}
		case snap.Introducer != nil:
			if err := insertIntroducerTransaction(ctx, tx, *snap.Introducer); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: transaction snapshot holds no variant", shared.ErrValidation)
		}
		return r.deleteTrash(ctx, tx, rec)
	})
}

// deleteTrash is the atomic check-and-delete closing concurrent restores:
// the first restorer removes the record, the second sees zero rows and the
// whole transaction rolls back as NotFound.
func (r *repository) deleteTrash(ctx context.Context, tx pgx.Tx, rec Record) error {
	tag, err := tx.Exec(ctx, `DELETE FROM trash WHERE kind = $1 AND natural_id = $2`, string(rec.Kind), rec.NaturalID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: trash %s/%s", shared.ErrNotFound, rec.Kind, rec.NaturalID)
	}
	return nil
}

func (r *repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM trash WHERE trashed_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func insertGrants(ctx context.Context, tx pgx.Tx, grants []accounts.PermissionGrant) error {
	const insert = `INSERT INTO permission_grants
(account_id, account_kind, sub_admin_id, sub_admin_name, can_deposit, can_withdraw, can_edit, can_renew, can_delete, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	for _, g := range grants {
		if _, err := tx.Exec(ctx, insert,
			g.AccountID, string(g.AccountKind), g.SubAdminID, g.SubAdminName,
			g.CanDeposit, g.CanWithdraw, g.CanEdit, g.CanRenew, g.CanDelete, g.CreatedAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertLedgerTransaction(ctx context.Context, tx pgx.Tx, t ledger.LedgerTransaction) error {
	const insert = `INSERT INTO ledger_transactions
(id, transaction_id, user_id, user_name, bank_id, bank_name, website_id, website_name,
 direction, amount, bonus, bank_charges, remark, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
	_, err := tx.Exec(ctx, insert,
		t.ID, t.TransactionID, t.UserID, t.UserName, t.BankID, t.BankName, t.WebsiteID, t.WebsiteName,
		string(t.Direction), t.Amount, t.Bonus, t.BankCharges, t.Remark, t.SubAdminID, t.SubAdminName, t.CreatedAt,
	)
	return err
}

func insertManualTransaction(ctx context.Context, tx pgx.Tx, t ledger.ManualTransaction) error {
	const insert = `INSERT INTO manual_transactions
(id, account_kind, account_id, account_name, direction, amount, remark, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := tx.Exec(ctx, insert,
		t.ID, string(t.AccountKind), t.AccountID, t.AccountName, string(t.Direction),
		t.Amount, t.Remark, t.SubAdminID, t.SubAdminName, t.CreatedAt,
	)
	return err
}

func insertIntroducerTransaction(ctx context.Context, tx pgx.Tx, t ledger.IntroducerTransaction) error {
	const insert = `INSERT INTO introducer_transactions
(id, introducer_id, introducer_name, direction, amount, remark, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := tx.Exec(ctx, insert,
		t.ID, t.IntroducerID, t.IntroducerName, string(t.Direction),
		t.Amount, t.Remark, t.SubAdminID, t.SubAdminName, t.CreatedAt,
	)
	return err
}

func insertUserDetail(ctx context.Context, tx pgx.Tx, d ledger.UserTransactionDetail) error {
	const insert = `INSERT INTO user_transaction_details
(id, transaction_ref, user_id, direction, amount, bank_name, website_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := tx.Exec(ctx, insert,
		d.ID, d.TransactionRef, d.UserID, string(d.Direction),
		d.Amount, d.BankName, d.WebsiteName, d.CreatedAt,
	)
	return err
}
