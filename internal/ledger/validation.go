package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/ledgerdesk/internal/accounts"
	"github.com/ledgerdesk/ledgerdesk/internal/shared"
)

// Write-path validation rejects non-numeric or negative money up front; only
// the balance engine's read path tolerates dirty historical data.

func validateLedgerInput(input CreateLedgerInput) error {
	if input.TransactionID == "" {
		return fmt.Errorf("%w: transaction id is required", shared.ErrValidation)
	}
	if input.UserID == "" || input.BankID == "" || input.WebsiteID == "" {
		return fmt.Errorf("%w: user, bank and website ids are required", shared.ErrValidation)
	}
	if !input.Direction.Valid() {
		return fmt.Errorf("%w: direction must be deposit or withdraw", shared.ErrValidation)
	}
	if err := requirePositive("amount", input.Amount); err != nil {
		return err
	}
	if input.Bonus.IsNegative() {
		return fmt.Errorf("%w: bonus must not be negative", shared.ErrValidation)
	}
	if input.BankCharges.IsNegative() {
		return fmt.Errorf("%w: bank charges must not be negative", shared.ErrValidation)
	}
	return nil
}

func validateManualInput(input CreateManualInput) error {
	if input.AccountKind != accounts.KindBank && input.AccountKind != accounts.KindWebsite {
		return fmt.Errorf("%w: manual transactions apply to banks and websites only", shared.ErrValidation)
	}
	if input.AccountID == "" {
		return fmt.Errorf("%w: account id is required", shared.ErrValidation)
	}
	if !input.Direction.Valid() {
		return fmt.Errorf("%w: direction must be deposit or withdraw", shared.ErrValidation)
	}
	return requirePositive("amount", input.Amount)
}

func validateIntroducerInput(input CreateIntroducerInput) error {
	if input.IntroducerID == "" {
		return fmt.Errorf("%w: introducer id is required", shared.ErrValidation)
	}
	if !input.Direction.Valid() {
		return fmt.Errorf("%w: direction must be deposit or withdraw", shared.ErrValidation)
	}
	return requirePositive("amount", input.Amount)
}

func requirePositive(field string, value decimal.Decimal) error {
	if !value.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", shared.ErrValidation, field)
	}
	return nil
}
