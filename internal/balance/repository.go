package balance

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type referralRepository struct {
	db *pgxpool.Pool
}

// NewReferralRepository constructs the Postgres-backed referral lookup.
func NewReferralRepository(db *pgxpool.Pool) ReferralReader {
	return &referralRepository{db: db}
}

// UsersReferredBy returns one Referral per matched introducer slot, so a user
// naming the same introducer in two slots contributes both percentages.
func (r *referralRepository) UsersReferredBy(ctx context.Context, introducerName string) ([]Referral, error) {
	const query = `SELECT id,
intro_name_1, intro_pct_1, intro_name_2, intro_pct_2, intro_name_3, intro_pct_3
FROM users WHERE intro_name_1 = $1 OR intro_name_2 = $1 OR intro_name_3 = $1`
	rows, err := r.db.Query(ctx, query, introducerName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referrals []Referral
	for rows.Next() {
		var id string
		var names [3]string
		var pcts [3]decimal.NullDecimal
		if err := rows.Scan(&id, &names[0], &pcts[0], &names[1], &pcts[1], &names[2], &pcts[2]); err != nil {
			return nil, err
		}
		for i := range names {
			if names[i] == introducerName {
				referrals = append(referrals, Referral{UserID: id, Percentage: pcts[i].Decimal})
			}
		}
	}
	return referrals, rows.Err()
}
