package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the top-level classification of a linked account.
type AccountType string

const (
	Depository AccountType = "depository"
	Credit     AccountType = "credit"
)

// AccountSubtype refines the account type into concrete products.
type AccountSubtype string

const (
	Checking    AccountSubtype = "checking"
	Savings     AccountSubtype = "savings"
	MoneyMarket AccountSubtype = "money_market"
	HSA         AccountSubtype = "hsa"
	CreditCard  AccountSubtype = "credit_card"
)

// Account represents an immutable snapshot of a user's financial account
// as provided by the transaction store. Balances are as-of the read time.
type Account struct {
	AccountID        string           `json:"accountID"`
	UserID           string           `json:"userID"`
	Type             AccountType      `json:"type"`
	Subtype          AccountSubtype   `json:"subtype"`
	BalanceCurrent   decimal.Decimal  `json:"balanceCurrent"`
	BalanceAvailable decimal.Decimal  `json:"balanceAvailable"`
	BalanceLimit     *decimal.Decimal `json:"balanceLimit"` // Credit limit; nil for non-credit accounts
}

// IsSavingsType reports whether the account counts toward savings metrics.
func (a Account) IsSavingsType() bool {
	if a.Type != Depository {
		return false
	}
	switch a.Subtype {
	case Savings, MoneyMarket, HSA:
		return true
	}
	return false
}

// IsChecking reports whether the account is a depository checking account.
func (a Account) IsChecking() bool {
	return a.Type == Depository && a.Subtype == Checking
}

// IsCreditCard reports whether the account is a credit card.
func (a Account) IsCreditCard() bool {
	return a.Type == Credit && a.Subtype == CreditCard
}
