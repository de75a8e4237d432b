package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Liability holds the credit-specific obligations attached to a credit
// account. There is at most one liability per credit account.
type Liability struct {
	AccountID            string          `json:"accountID"`
	UserID               string          `json:"userID"`
	APR                  decimal.Decimal `json:"apr"`
	MinimumPaymentAmount decimal.Decimal `json:"minimumPaymentAmount"`
	LastPaymentAmount    decimal.Decimal `json:"lastPaymentAmount"`
	IsOverdue            bool            `json:"isOverdue"`
	NextDueDate          time.Time       `json:"nextDueDate"`
}
