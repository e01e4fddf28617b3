package accounts

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Repository provides reads and the activation toggle over live accounts.
// Inserts and hard deletes happen only through the approval and trash
// subsystems, inside their transactions.
type Repository interface {
	GetBank(ctx context.Context, id string) (Bank, error)
	GetWebsite(ctx context.Context, id string) (Website, error)
	GetIntroducer(ctx context.Context, id string) (IntroducerUser, error)
	ListBanks(ctx context.Context, filters shared.ListFilters) ([]Bank, int, error)
	ListWebsites(ctx context.Context, filters shared.ListFilters) ([]Website, int, error)
	ListIntroducers(ctx context.Context, filters shared.ListFilters) ([]IntroducerUser, int, error)
	GrantsForAccount(ctx context.Context, kind Kind, accountID string) ([]PermissionGrant, error)
	SetActive(ctx context.Context, kind Kind, id string, active bool) error
	GetUser(ctx context.Context, id string) (User, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) GetBank(ctx context.Context, id string) (Bank, error) {
	const query = `SELECT id, name, account_holder, account_number, ifsc, upi_id, active, created_at, updated_at
FROM banks WHERE id = $1`
	var b Bank
	err := r.db.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.AccountHolder, &b.AccountNumber, &b.IFSC, &b.UPIID,
		&b.Active, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bank{}, fmt.Errorf("%w: bank %s", shared.ErrNotFound, id)
	}
	return b, err
}

func (r *repository) GetWebsite(ctx context.Context, id string) (Website, error) {
	const query = `SELECT id, name, url, active, created_at, updated_at FROM websites WHERE id = $1`
	var w Website
	err := r.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.Name, &w.URL, &w.Active, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Website{}, fmt.Errorf("%w: website %s", shared.ErrNotFound, id)
	}
	return w, err
}

func (r *repository) GetIntroducer(ctx context.Context, id string) (IntroducerUser, error) {
	const query = `SELECT id, name, role, active, created_at, updated_at FROM introducer_users WHERE id = $1`
	var u IntroducerUser
	err := r.db.QueryRow(ctx, query, id).Scan(&u.ID, &u.Name, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return IntroducerUser{}, fmt.Errorf("%w: introducer %s", shared.ErrNotFound, id)
	}
	return u, err
}

func (r *repository) ListBanks(ctx context.Context, filters shared.ListFilters) ([]Bank, int, error) {
	filters = filters.Normalize()
	query := `SELECT id, name, account_holder, account_number, ifsc, upi_id, active, created_at, updated_at FROM banks WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM banks WHERE 1=1`
	args, countArgs, where := listWhere(filters)
	query += where
	countQuery += where

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var banks []Bank
	for rows.Next() {
		var b Bank
		if err := rows.Scan(&b.ID, &b.Name, &b.AccountHolder, &b.AccountNumber, &b.IFSC, &b.UPIID, &b.Active, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		banks = append(banks, b)
	}
	return banks, total, rows.Err()
}

func (r *repository) ListWebsites(ctx context.Context, filters shared.ListFilters) ([]Website, int, error) {
	filters = filters.Normalize()
	query := `SELECT id, name, url, active, created_at, updated_at FROM websites WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM websites WHERE 1=1`
	args, countArgs, where := listWhere(filters)
	query += where
	countQuery += where

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sites []Website
	for rows.Next() {
		var w Website
		if err := rows.Scan(&w.ID, &w.Name, &w.URL, &w.Active, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, 0, err
		}
		sites = append(sites, w)
	}
	return sites, total, rows.Err()
}

func (r *repository) ListIntroducers(ctx context.Context, filters shared.ListFilters) ([]IntroducerUser, int, error) {
	filters = filters.Normalize()
	query := `SELECT id, name, role, active, created_at, updated_at FROM introducer_users WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM introducer_users WHERE 1=1`
	args, countArgs, where := listWhere(filters)
	query += where
	countQuery += where

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)
	args = append(args, filters.Limit, filters.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []IntroducerUser
	for rows.Next() {
		var u IntroducerUser
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.Active, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *repository) GrantsForAccount(ctx context.Context, kind Kind, accountID string) ([]PermissionGrant, error) {
	const query = `SELECT account_id, account_kind, sub_admin_id, sub_admin_name,
can_deposit, can_withdraw, can_edit, can_renew, can_delete, created_at
FROM permission_grants WHERE account_kind = $1 AND account_id = $2 ORDER BY sub_admin_name ASC`
	rows, err := r.db.Query(ctx, query, string(kind), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []PermissionGrant
	for rows.Next() {
		var g PermissionGrant
		var k string
		if err := rows.Scan(&g.AccountID, &k, &g.SubAdminID, &g.SubAdminName,
			&g.CanDeposit, &g.CanWithdraw, &g.CanEdit, &g.CanRenew, &g.CanDelete, &g.CreatedAt); err != nil {
			return nil, err
		}
		g.AccountKind = Kind(k)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *repository) SetActive(ctx context.Context, kind Kind, id string, active bool) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE `+table+` SET active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, kind, id)
	}
	return nil
}

func (r *repository) GetUser(ctx context.Context, id string) (User, error) {
	const query = `SELECT id, name,
intro_name_1, intro_pct_1, intro_name_2, intro_pct_2, intro_name_3, intro_pct_3, created_at
FROM users WHERE id = $1`
	var u User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Name,
		&u.Refs[0].Name, &u.Refs[0].Percentage,
		&u.Refs[1].Name, &u.Refs[1].Percentage,
		&u.Refs[2].Name, &u.Refs[2].Percentage,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}
	return u, err
}

func tableFor(kind Kind) (string, error) {
	switch kind {
	case KindBank:
		return "banks", nil
	case KindWebsite:
		return "websites", nil
	case KindIntroducer:
		return "introducer_users", nil
	}
	return "", fmt.Errorf("%w: unknown account kind %q", shared.ErrValidation, kind)
}

func listWhere(filters shared.ListFilters) (args, countArgs []any, where string) {
	n := 0
	if filters.Search != "" {
		n++
		where += ` AND name ILIKE $` + strconv.Itoa(n)
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}
	if filters.Active != nil {
		n++
		where += ` AND active = $` + strconv.Itoa(n)
		args = append(args, *filters.Active)
		countArgs = append(countArgs, *filters.Active)
	}
	return args, countArgs, where
}
