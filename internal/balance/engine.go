// Package balance derives account balances from transaction history on every
// read. Nothing here is stored authoritatively, so concurrent writers can
// never leave a drifted denormalized figure behind.
package balance

import (
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/ledgerdesk/internal/ledger"
)

// BankSum accumulates a bank's balance. Manual deposits add and withdrawals
// subtract. A user deposit lands in the bank so it adds; a user withdraw
// leaves the bank and carries the bank charges with it.
func BankSum(manual []ledger.ManualTransaction, txs []ledger.LedgerTransaction) decimal.Decimal {
	total := manualSum(manual)
	for _, t := range txs {
		switch t.Direction {
		case ledger.Deposit:
			total = total.Add(t.Amount)
		case ledger.Withdraw:
			total = total.Sub(t.Amount.Add(t.BankCharges))
		}
	}
	return total
}

// WebsiteSum accumulates a website's balance. A user deposit is money the
// site owes out, bonus included, so it subtracts; a user withdraw returns the
// amount to the site.
func WebsiteSum(manual []ledger.ManualTransaction, txs []ledger.LedgerTransaction) decimal.Decimal {
	total := manualSum(manual)
	for _, t := range txs {
		switch t.Direction {
		case ledger.Deposit:
			total = total.Sub(t.Amount.Add(t.Bonus))
		case ledger.Withdraw:
			total = total.Add(t.Amount)
		}
	}
	return total
}

// IntroducerSum accumulates an introducer's paid balance: deposits add,
// everything else subtracts.
func IntroducerSum(txs []ledger.IntroducerTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txs {
		if t.Direction == ledger.Deposit {
			total = total.Add(t.Amount)
		} else {
			total = total.Sub(t.Amount)
		}
	}
	return total
}

// Share applies an introducer percentage to a referred user's net activity.
func Share(net decimal.Decimal, percentage decimal.Decimal) decimal.Decimal {
	return net.Mul(percentage).Div(decimal.NewFromInt(100))
}

func manualSum(manual []ledger.ManualTransaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range manual {
		if t.Direction == ledger.Deposit {
			total = total.Add(t.Amount)
		} else {
			total = total.Sub(t.Amount)
		}
	}
	return total
}
