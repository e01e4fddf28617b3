package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/platform/db"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Repository persists transactions and answers the reuse-window query.
type Repository interface {
	CreateLedger(ctx context.Context, tx LedgerTransaction, detail UserTransactionDetail) error
	CreateManual(ctx context.Context, tx ManualTransaction) error
	CreateIntroducer(ctx context.Context, tx IntroducerTransaction) error
	TransactionIDUsedSince(ctx context.Context, transactionID string, since time.Time) (bool, error)
	UserNet(ctx context.Context, userID string) (decimal.Decimal, error)
	ListLedger(ctx context.Context, filters shared.ListFilters) ([]LedgerTransaction, int, error)
	ListManual(ctx context.Context, kind accounts.Kind, accountID string, filters shared.ListFilters) ([]ManualTransaction, int, error)
	ListIntroducer(ctx context.Context, introducerID string, filters shared.ListFilters) ([]IntroducerTransaction, int, error)

	// Full-history reads consumed by the balance engine.
	LedgerForBank(ctx context.Context, bankID string) ([]LedgerTransaction, error)
	LedgerForWebsite(ctx context.Context, websiteID string) ([]LedgerTransaction, error)
	ManualForAccount(ctx context.Context, kind accounts.Kind, accountID string) ([]ManualTransaction, error)
	IntroducerForUser(ctx context.Context, introducerID string) ([]IntroducerTransaction, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// CreateLedger inserts the transaction and its user-side mirror row in one
// transaction; neither is visible without the other.
func (r *repository) CreateLedger(ctx context.Context, t LedgerTransaction, detail UserTransactionDetail) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		const insertTx = `INSERT INTO ledger_transactions
(id, transaction_id, user_id, user_name, bank_id, bank_name, website_id, website_name,
 direction, amount, bonus, bank_charges, remark, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`
		if _, err := tx.Exec(ctx, insertTx,
			t.ID, t.TransactionID, t.UserID, t.UserName, t.BankID, t.BankName, t.WebsiteID, t.WebsiteName,
			string(t.Direction), t.Amount, t.Bonus, t.BankCharges, t.Remark, t.SubAdminID, t.SubAdminName, t.CreatedAt,
		); err != nil {
			return err
		}
		const insertDetail = `INSERT INTO user_transaction_details
(id, transaction_ref, user_id, direction, amount, bank_name, website_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
		_, err := tx.Exec(ctx, insertDetail,
			detail.ID, detail.TransactionRef, detail.UserID, string(detail.Direction),
			detail.Amount, detail.BankName, detail.WebsiteName, detail.CreatedAt,
		)
		return err
	})
}

func (r *repository) CreateManual(ctx context.Context, t ManualTransaction) error {
	const query = `INSERT INTO manual_transactions
(id, account_kind, account_id, account_name, direction, amount, remark, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.pool.Exec(ctx, query,
		t.ID, string(t.AccountKind), t.AccountID, t.AccountName, string(t.Direction),
		t.Amount, t.Remark, t.SubAdminID, t.SubAdminName, t.CreatedAt,
	)
	return err
}

func (r *repository) CreateIntroducer(ctx context.Context, t IntroducerTransaction) error {
	const query = `INSERT INTO introducer_transactions
(id, introducer_id, introducer_name, direction, amount, remark, sub_admin_id, sub_admin_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.pool.Exec(ctx, query,
		t.ID, t.IntroducerID, t.IntroducerName, string(t.Direction),
		t.Amount, t.Remark, t.SubAdminID, t.SubAdminName, t.CreatedAt,
	)
	return err
}

// TransactionIDUsedSince is the authoritative reuse-window check backing the
// redis fast path.
func (r *repository) TransactionIDUsedSince(ctx context.Context, transactionID string, since time.Time) (bool, error) {
	const query = `SELECT EXISTS (
SELECT 1 FROM ledger_transactions WHERE transaction_id = $1 AND created_at >= $2)`
	var used bool
	err := r.pool.QueryRow(ctx, query, transactionID, since).Scan(&used)
	return used, err
}

// UserNet returns deposits minus withdrawals over the user's detail history.
// NULL amounts contribute zero.
func (r *repository) UserNet(ctx context.Context, userID string) (decimal.Decimal, error) {
	const query = `SELECT COALESCE(SUM(
CASE WHEN direction = 'deposit' THEN COALESCE(amount, 0) ELSE -COALESCE(amount, 0) END), 0)
FROM user_transaction_details WHERE user_id = $1`
	var net decimal.Decimal
	err := r.pool.QueryRow(ctx, query, userID).Scan(&net)
	return net, err
}

func (r *repository) ListLedger(ctx context.Context, filters shared.ListFilters) ([]LedgerTransaction, int, error) {
	filters = filters.Normalize()
	query := `SELECT id, transaction_id, user_id, user_name, bank_id, bank_name, website_id, website_name,
direction, amount, bonus, bank_charges, remark, sub_admin_id, sub_admin_name, created_at
FROM ledger_transactions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM ledger_transactions WHERE 1=1`
	var args, countArgs []any
	if filters.Search != "" {
		query += ` AND (user_name ILIKE $1 OR transaction_id ILIKE $1)`
		countQuery += ` AND (user_name ILIKE $1 OR transaction_id ILIKE $1)`
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []LedgerTransaction
	for rows.Next() {
		t, err := scanLedger(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	return txs, total, rows.Err()
}

func (r *repository) ListManual(ctx context.Context, kind accounts.Kind, accountID string, filters shared.ListFilters) ([]ManualTransaction, int, error) {
	filters = filters.Normalize()
	const countQuery = `SELECT COUNT(*) FROM manual_transactions WHERE account_kind = $1 AND account_id = $2`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, string(kind), accountID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT id, account_kind, account_id, account_name, direction, amount, remark,
sub_admin_id, sub_admin_name, created_at
FROM manual_transactions WHERE account_kind = $1 AND account_id = $2
ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, string(kind), accountID, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []ManualTransaction
	for rows.Next() {
		t, err := scanManual(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	return txs, total, rows.Err()
}

func (r *repository) ListIntroducer(ctx context.Context, introducerID string, filters shared.ListFilters) ([]IntroducerTransaction, int, error) {
	filters = filters.Normalize()
	const countQuery = `SELECT COUNT(*) FROM introducer_transactions WHERE introducer_id = $1`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, introducerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `SELECT id, introducer_id, introducer_name, direction, amount, remark,
sub_admin_id, sub_admin_name, created_at
FROM introducer_transactions WHERE introducer_id = $1
ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, introducerID, filters.Limit, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var txs []IntroducerTransaction
	for rows.Next() {
		t, err := scanIntroducer(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, t)
	}
	return txs, total, rows.Err()
}

const ledgerColumns = `id, transaction_id, user_id, user_name, bank_id, bank_name, website_id, website_name,
direction, amount, bonus, bank_charges, remark, sub_admin_id, sub_admin_name, created_at`

func (r *repository) LedgerForBank(ctx context.Context, bankID string) ([]LedgerTransaction, error) {
	return r.ledgerWhere(ctx, `bank_id = $1`, bankID)
}

func (r *repository) LedgerForWebsite(ctx context.Context, websiteID string) ([]LedgerTransaction, error) {
	return r.ledgerWhere(ctx, `website_id = $1`, websiteID)
}

func (r *repository) ledgerWhere(ctx context.Context, where string, arg any) ([]LedgerTransaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+ledgerColumns+` FROM ledger_transactions WHERE `+where, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []LedgerTransaction
	for rows.Next() {
		t, err := scanLedger(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *repository) ManualForAccount(ctx context.Context, kind accounts.Kind, accountID string) ([]ManualTransaction, error) {
	const query = `SELECT id, account_kind, account_id, account_name, direction, amount, remark,
sub_admin_id, sub_admin_name, created_at
FROM manual_transactions WHERE account_kind = $1 AND account_id = $2`
	rows, err := r.pool.Query(ctx, query, string(kind), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []ManualTransaction
	for rows.Next() {
		t, err := scanManual(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *repository) IntroducerForUser(ctx context.Context, introducerID string) ([]IntroducerTransaction, error) {
	const query = `SELECT id, introducer_id, introducer_name, direction, amount, remark,
sub_admin_id, sub_admin_name, created_at
FROM introducer_transactions WHERE introducer_id = $1`
	rows, err := r.pool.Query(ctx, query, introducerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []IntroducerTransaction
	for rows.Next() {
		t, err := scanIntroducer(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// Balance-engine scan helpers tolerate NULL amounts per the reconciliation
// contract: a missing amount contributes zero, it never fails the read.

func scanLedger(rows pgx.Rows) (LedgerTransaction, error) {
	var t LedgerTransaction
	var direction string
	var amount, bonus, charges decimal.NullDecimal
	err := rows.Scan(&t.ID, &t.TransactionID, &t.UserID, &t.UserName, &t.BankID, &t.BankName,
		&t.WebsiteID, &t.WebsiteName, &direction, &amount, &bonus, &charges,
		&t.Remark, &t.SubAdminID, &t.SubAdminName, &t.CreatedAt)
	if err != nil {
		return LedgerTransaction{}, err
	}
	t.Direction = Direction(direction)
	t.Amount = amount.Decimal
	t.Bonus = bonus.Decimal
	t.BankCharges = charges.Decimal
	return t, nil
}

func scanManual(rows pgx.Rows) (ManualTransaction, error) {
	var t ManualTransaction
	var kind, direction string
	var amount decimal.NullDecimal
	err := rows.Scan(&t.ID, &kind, &t.AccountID, &t.AccountName, &direction, &amount,
		&t.Remark, &t.SubAdminID, &t.SubAdminName, &t.CreatedAt)
	if err != nil {
		return ManualTransaction{}, err
	}
	t.AccountKind = accounts.Kind(kind)
	t.Direction = Direction(direction)
	t.Amount = amount.Decimal
	return t, nil
}

func scanIntroducer(rows pgx.Rows) (IntroducerTransaction, error) {
	var t IntroducerTransaction
	var direction string
	var amount decimal.NullDecimal
	err := rows.Scan(&t.ID, &t.IntroducerID, &t.IntroducerName, &direction, &amount,
		&t.Remark, &t.SubAdminID, &t.SubAdminName, &t.CreatedAt)
	if err != nil {
		return IntroducerTransaction{}, err
	}
	t.Direction = Direction(direction)
	t.Amount = amount.Decimal
	return t, nil
}
