package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Channel indicates how a transaction was made.
type Channel string

const (
	ChannelOnline  Channel = "online"
	ChannelInStore Channel = "in_store"
	ChannelOther   Channel = "other"
)

// Transaction represents one immutable ledger entry on an account.
//
// Amounts follow the aggregator convention: positive = outflow (money
// leaving the account), negative = inflow. Every detector relies on this
// sign convention; normalization to "positive means money in" happens
// inside the detectors, never in the record itself.
type Transaction struct {
	TransactionID    string          `json:"transactionID"`
	AccountID        string          `json:"accountID"`
	UserID           string          `json:"userID"`
	Date             time.Time       `json:"date"` // Calendar date, truncated to UTC midnight
	Amount           decimal.Decimal `json:"amount"`
	MerchantName     string          `json:"merchantName"`
	CategoryPrimary  string          `json:"categoryPrimary"`
	CategoryDetailed string          `json:"categoryDetailed"`
	Channel          Channel         `json:"channel"`
	Pending          bool            `json:"pending"`
}

// IsOutflow reports whether the transaction moves money out of the account.
func (t Transaction) IsOutflow() bool {
	return t.Amount.IsPositive()
}

// IsInflow reports whether the transaction moves money into the account.
func (t Transaction) IsInflow() bool {
	return t.Amount.IsNegative()
}
