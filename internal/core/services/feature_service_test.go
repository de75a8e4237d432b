package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/spendsense/persona-engine/internal/apperrors"
	"github.com/spendsense/persona-engine/internal/core/domain"
	portssvc "github.com/spendsense/persona-engine/internal/core/ports/services"
	"github.com/spendsense/persona-engine/internal/core/services"
	"github.com/spendsense/persona-engine/pkg/config"
)

// testSignalParams mirrors the default calibration.
func testSignalParams() config.SignalParams {
	return config.SignalParams{
		SubscriptionLookbackDays: 90,
		CadenceToleranceDays:     2,
		CadenceGapShare:          0.70,
		LowBalanceThreshold:      100.0,
		ExpenseFloor:             1.0,
		MinPaymentTolerance:      0.10,
	}
}

func testThresholds() config.PersonaThresholds {
	return config.PersonaThresholds{
		HighUtilization:          0.50,
		PayGapDays:               45.0,
		LowBufferMonths:          1.0,
		RecurringMerchantMin:     3,
		MonthlyRecurringSpendMin: 50.0,
		SubscriptionShareMin:     0.10,
		GrowthRateMin:            0.02,
		NetInflowMonthlyMin:      200.0,
		UtilizationCeiling:       0.30,
		LowBalanceDaysShare:      0.20,
		VolatilityMin:            0.15,
	}
}

var testAsOf = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testAsOf.AddDate(0, 0, -n)
}

func checkingAccount(id, userID string, balance float64) domain.Account {
	return domain.Account{
		AccountID:      id,
		UserID:         userID,
		Type:           domain.Depository,
		Subtype:        domain.Checking,
		BalanceCurrent: decimal.NewFromFloat(balance),
	}
}

func savingsAccount(id, userID string, balance float64) domain.Account {
	return domain.Account{
		AccountID:      id,
		UserID:         userID,
		Type:           domain.Depository,
		Subtype:        domain.Savings,
		BalanceCurrent: decimal.NewFromFloat(balance),
	}
}

func creditCardAccount(id, userID string, balance, limit float64) domain.Account {
	lim := decimal.NewFromFloat(limit)
	return domain.Account{
		AccountID:      id,
		UserID:         userID,
		Type:           domain.Credit,
		Subtype:        domain.CreditCard,
		BalanceCurrent: decimal.NewFromFloat(balance),
		BalanceLimit:   &lim,
	}
}

func txn(id, accountID string, date time.Time, amount float64, merchant string) domain.Transaction {
	return domain.Transaction{
		TransactionID: id,
		AccountID:     accountID,
		UserID:        "user-1",
		Date:          date,
		Amount:        decimal.NewFromFloat(amount),
		MerchantName:  merchant,
	}
}

type FeatureServiceTestSuite struct {
	suite.Suite
	service portssvc.FeatureComputeSvc
}

func (suite *FeatureServiceTestSuite) SetupTest() {
	suite.service = services.NewFeatureService(testSignalParams())
}

func (suite *FeatureServiceTestSuite) compute(records domain.UserRecords, windowDays int) *domain.FeatureSet {
	set, err := suite.service.ComputeFeatureSet(context.Background(), records, windowDays, testAsOf)
	suite.Require().NoError(err)
	suite.Require().NotNil(set)
	return set
}

func (suite *FeatureServiceTestSuite) TestComputeFeatureSet_InvalidWindow() {
	records := domain.UserRecords{UserID: "user-1"}

	_, err := suite.service.ComputeFeatureSet(context.Background(), records, 0, testAsOf)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *FeatureServiceTestSuite) TestComputeFeatureSet_KeyAndEmptyRecords() {
	records := domain.UserRecords{UserID: "user-1"}

	set := suite.compute(records, 30)

	suite.Equal("user-1", set.Subscriptions.UserID)
	suite.Equal(30, set.Subscriptions.WindowDays)
	suite.Equal(testAsOf, set.Subscriptions.AsOfDate)

	suite.Zero(set.Subscriptions.RecurringMerchantCount)
	suite.Nil(set.Credit.MaxUtilization)
	suite.Nil(set.Income.MedianPayGapDays)
	suite.True(set.CashFlow.VolatilityUndefined)
}

// --- Subscriptions ---

func (suite *FeatureServiceTestSuite) TestSubscriptions_MonthlyCadence() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(75), 15.49, "Netflix"),
			txn("t2", "chk-1", daysAgo(45), 15.49, "Netflix"),
			txn("t3", "chk-1", daysAgo(15), 15.49, "Netflix"),
		},
	}

	set := suite.compute(records, 30)
	subs := set.Subscriptions

	suite.Equal(1, subs.RecurringMerchantCount)
	suite.Require().Len(subs.RecurringMerchants, 1)
	suite.Equal("Netflix", subs.RecurringMerchants[0].Merchant)
	suite.Equal(domain.CadenceMonthly, subs.RecurringMerchants[0].Cadence)
	suite.Equal(3, subs.RecurringMerchants[0].Count)

	// 46.47 over a 90-day (three month) lookback.
	suite.True(decimal.NewFromFloat(15.49).Equal(subs.MonthlyRecurringSpend), "got %s", subs.MonthlyRecurringSpend)
	// All lookback outflows are recurring here.
	suite.InDelta(1.0, subs.SubscriptionShare, 1e-9)
}

func (suite *FeatureServiceTestSuite) TestSubscriptions_WeeklyCadence() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(21), 9.99, "Blue Apron"),
			txn("t2", "chk-1", daysAgo(14), 9.99, "Blue Apron"),
			txn("t3", "chk-1", daysAgo(7), 9.99, "Blue Apron"),
		},
	}

	set := suite.compute(records, 30)

	suite.Equal(1, set.Subscriptions.RecurringMerchantCount)
	suite.Equal(domain.CadenceWeekly, set.Subscriptions.RecurringMerchants[0].Cadence)
}

func (suite *FeatureServiceTestSuite) TestSubscriptions_TwoOccurrencesNeverRecurring() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(45), 15.49, "Netflix"),
			txn("t2", "chk-1", daysAgo(15), 15.49, "Netflix"),
		},
	}

	set := suite.compute(records, 30)

	suite.Zero(set.Subscriptions.RecurringMerchantCount)
	suite.True(set.Subscriptions.MonthlyRecurringSpend.IsZero())
}

func (suite *FeatureServiceTestSuite) TestSubscriptions_IrregularGapsNotRecurring() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(60), 42.00, "Amazon"),
			txn("t2", "chk-1", daysAgo(50), 17.25, "Amazon"),
			txn("t3", "chk-1", daysAgo(25), 88.10, "Amazon"),
		},
	}

	set := suite.compute(records, 30)

	suite.Zero(set.Subscriptions.RecurringMerchantCount)
}

func (suite *FeatureServiceTestSuite) TestSubscriptions_MerchantNormalization() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(75), 15.49, "Netflix"),
			txn("t2", "chk-1", daysAgo(45), 15.49, "NETFLIX"),
			txn("t3", "chk-1", daysAgo(15), 15.49, " netflix "),
		},
	}

	set := suite.compute(records, 30)

	suite.Equal(1, set.Subscriptions.RecurringMerchantCount)
	// First-seen spelling is kept for display.
	suite.Equal("Netflix", set.Subscriptions.RecurringMerchants[0].Merchant)
}

func (suite *FeatureServiceTestSuite) TestSubscriptions_LookbackIndependentOfWindow() {
	// Occurrences older than the 30-day reporting window still count:
	// detection always spans the fixed lookback.
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(85), 11.00, "Spotify"),
			txn("t2", "chk-1", daysAgo(55), 11.00, "Spotify"),
			txn("t3", "chk-1", daysAgo(25), 11.00, "Spotify"),
		},
	}

	set := suite.compute(records, 30)

	suite.Equal(1, set.Subscriptions.RecurringMerchantCount)
	suite.Equal(30, set.Subscriptions.WindowDays)
}

// --- Savings ---

func (suite *FeatureServiceTestSuite) TestSavings_InflowSignNormalization() {
	records := domain.UserRecords{
		UserID: "user-1",
		Accounts: []domain.Account{
			checkingAccount("chk-1", "user-1", 800),
			savingsAccount("sav-1", "user-1", 1100),
		},
		Transactions: []domain.Transaction{
			// Deposit into savings: negative amount in store convention.
			txn("t1", "sav-1", daysAgo(10), -500, "Transfer"),
			// Regular spending from checking.
			txn("t2", "chk-1", daysAgo(5), 550, "Groceries"),
		},
	}

	set := suite.compute(records, 30)
	savings := set.Savings

	suite.True(decimal.NewFromInt(500).Equal(savings.NetInflow), "got %s", savings.NetInflow)
	suite.False(savings.GrowthRateUndefined)
	// Start balance 600, end balance 1100.
	suite.InDelta(500.0/600.0, savings.GrowthRate, 1e-9)
	suite.True(decimal.NewFromInt(550).Equal(savings.AvgMonthlyExpenses), "got %s", savings.AvgMonthlyExpenses)
	suite.InDelta(1100.0/550.0, savings.EmergencyFundCoverageMonths, 1e-9)
	suite.True(decimal.NewFromInt(500).Equal(savings.NetInflowMonthly()))
}

func (suite *FeatureServiceTestSuite) TestSavings_GrowthUndefinedOnNonPositiveStart() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{savingsAccount("sav-1", "user-1", 100)},
		Transactions: []domain.Transaction{
			txn("t1", "sav-1", daysAgo(10), -500, "Transfer"),
		},
	}

	set := suite.compute(records, 30)

	// Start balance would be -400; growth stays zero with the flag set.
	suite.True(set.Savings.GrowthRateUndefined)
	suite.Zero(set.Savings.GrowthRate)
}

func (suite *FeatureServiceTestSuite) TestSavings_NoSavingsAccounts() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 800)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(5), 300, "Rent"),
		},
	}

	set := suite.compute(records, 30)

	suite.True(set.Savings.NetInflow.IsZero())
	suite.Zero(set.Savings.GrowthRate)
	suite.Zero(set.Savings.EmergencyFundCoverageMonths)
	// Expenses are still reported even without savings accounts.
	suite.True(decimal.NewFromInt(300).Equal(set.Savings.AvgMonthlyExpenses))
}

// --- Credit ---

func (suite *FeatureServiceTestSuite) TestCredit_NoCards() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 800)},
	}

	set := suite.compute(records, 30)

	suite.Nil(set.Credit.MaxUtilization)
	suite.Nil(set.Credit.MinUtilization)
	suite.Nil(set.Credit.AvgUtilization)
	suite.False(set.Credit.MinimumPaymentOnly)
	suite.False(set.Credit.IsOverdue)
}

func (suite *FeatureServiceTestSuite) TestCredit_UtilizationAggregates() {
	records := domain.UserRecords{
		UserID: "user-1",
		Accounts: []domain.Account{
			creditCardAccount("cc-1", "user-1", 680, 1000),
			creditCardAccount("cc-2", "user-1", 200, 2000),
		},
	}

	set := suite.compute(records, 30)
	credit := set.Credit

	suite.Require().NotNil(credit.MaxUtilization)
	suite.InDelta(0.68, *credit.MaxUtilization, 1e-9)
	suite.InDelta(0.10, *credit.MinUtilization, 1e-9)
	suite.InDelta(0.39, *credit.AvgUtilization, 1e-9)
}

func (suite *FeatureServiceTestSuite) TestCredit_MinimumPaymentOnly() {
	liability := domain.Liability{
		AccountID:            "cc-1",
		UserID:               "user-1",
		MinimumPaymentAmount: decimal.NewFromInt(35),
		LastPaymentAmount:    decimal.NewFromInt(36),
	}
	records := domain.UserRecords{
		UserID:      "user-1",
		Accounts:    []domain.Account{creditCardAccount("cc-1", "user-1", 100, 1000)},
		Liabilities: []domain.Liability{liability},
	}

	set := suite.compute(records, 30)
	suite.True(set.Credit.MinimumPaymentOnly)

	// Paying well above the minimum clears the flag.
	records.Liabilities[0].LastPaymentAmount = decimal.NewFromInt(200)
	set = suite.compute(records, 30)
	suite.False(set.Credit.MinimumPaymentOnly)
}

func (suite *FeatureServiceTestSuite) TestCredit_InterestAndOverdue() {
	interest := txn("t1", "cc-1", daysAgo(5), 12.40, "")
	interest.CategoryPrimary = "BANK_FEES"
	interest.CategoryDetailed = "Interest"

	records := domain.UserRecords{
		UserID:       "user-1",
		Accounts:     []domain.Account{creditCardAccount("cc-1", "user-1", 100, 1000)},
		Transactions: []domain.Transaction{interest},
		Liabilities: []domain.Liability{
			{AccountID: "cc-1", UserID: "user-1", IsOverdue: true},
		},
	}

	set := suite.compute(records, 30)

	suite.True(set.Credit.InterestChargesPresent)
	suite.True(set.Credit.IsOverdue)
}

func (suite *FeatureServiceTestSuite) TestCredit_InterestOutsideWindowIgnored() {
	interest := txn("t1", "cc-1", daysAgo(40), 12.40, "")
	interest.CategoryPrimary = "BANK_FEES"
	interest.CategoryDetailed = "Interest"

	records := domain.UserRecords{
		UserID:       "user-1",
		Accounts:     []domain.Account{creditCardAccount("cc-1", "user-1", 100, 1000)},
		Transactions: []domain.Transaction{interest},
	}

	set := suite.compute(records, 30)

	suite.False(set.Credit.InterestChargesPresent)
}

// --- Income ---

func (suite *FeatureServiceTestSuite) TestIncome_BiweeklyPayroll() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 1200)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(28), -2000, "PAYROLL DEPOSIT"),
			txn("t2", "chk-1", daysAgo(14), -2000, "PAYROLL DEPOSIT"),
			txn("t3", "chk-1", daysAgo(7), 600, "Rent"),
		},
	}

	set := suite.compute(records, 30)
	income := set.Income

	suite.Equal(2, income.PayrollCount)
	suite.Require().NotNil(income.MedianPayGapDays)
	suite.InDelta(14.0, *income.MedianPayGapDays, 1e-9)
	suite.True(decimal.NewFromInt(600).Equal(income.AvgMonthlyExpenses))
	suite.InDelta(2.0, income.CashFlowBufferMonths, 1e-9)
}

func (suite *FeatureServiceTestSuite) TestIncome_SinglePayrollNoGap() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 1200)},
		Transactions: []domain.Transaction{
			txn("t1", "chk-1", daysAgo(14), -2000, "PAYROLL DEPOSIT"),
		},
	}

	set := suite.compute(records, 30)

	suite.Equal(1, set.Income.PayrollCount)
	suite.Nil(set.Income.MedianPayGapDays)
}

func (suite *FeatureServiceTestSuite) TestIncome_CategoryTaggedPayroll() {
	deposit := txn("t1", "chk-1", daysAgo(20), -1500, "ACME Corp")
	deposit.CategoryPrimary = "INCOME"
	// An outflow tagged INCOME is not payroll.
	refund := txn("t2", "chk-1", daysAgo(10), 1500, "ACME Corp")
	refund.CategoryPrimary = "INCOME"

	records := domain.UserRecords{
		UserID:       "user-1",
		Accounts:     []domain.Account{checkingAccount("chk-1", "user-1", 1200)},
		Transactions: []domain.Transaction{deposit, refund},
	}

	set := suite.compute(records, 30)

	suite.Equal(1, set.Income.PayrollCount)
}

// --- Cash flow ---

func (suite *FeatureServiceTestSuite) TestCashFlow_ConstantLowBalance() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 50)},
	}

	set := suite.compute(records, 30)
	cashFlow := set.CashFlow

	// Every reconstructed day sits at $50, under the $100 threshold.
	suite.InDelta(1.0, cashFlow.PctDaysBelowThreshold, 1e-9)
	suite.False(cashFlow.VolatilityUndefined)
	suite.Zero(cashFlow.BalanceVolatility)
	suite.True(decimal.NewFromInt(50).Equal(cashFlow.MinBalance))
	suite.True(decimal.NewFromInt(50).Equal(cashFlow.MaxBalance))
	suite.True(decimal.NewFromInt(50).Equal(cashFlow.AvgBalance))
}

func (suite *FeatureServiceTestSuite) TestCashFlow_BalanceReplay() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 1000)},
		Transactions: []domain.Transaction{
			// One $900 outflow ten days before the as-of date: the balance
			// was $1900 before it and $1000 after.
			txn("t1", "chk-1", daysAgo(10), 900, "Rent"),
		},
	}

	set := suite.compute(records, 30)
	cashFlow := set.CashFlow

	suite.True(decimal.NewFromInt(1000).Equal(cashFlow.MinBalance), "got %s", cashFlow.MinBalance)
	suite.True(decimal.NewFromInt(1900).Equal(cashFlow.MaxBalance), "got %s", cashFlow.MaxBalance)
	// 19 days at 1900 and 11 days at 1000.
	suite.True(decimal.NewFromInt(1570).Equal(cashFlow.AvgBalance), "got %s", cashFlow.AvgBalance)
	suite.Zero(cashFlow.PctDaysBelowThreshold)
	suite.InDelta(0.2762, cashFlow.BalanceVolatility, 1e-3)
}

func (suite *FeatureServiceTestSuite) TestCashFlow_NoCheckingAccount() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{savingsAccount("sav-1", "user-1", 900)},
	}

	set := suite.compute(records, 30)

	suite.True(set.CashFlow.VolatilityUndefined)
	suite.Zero(set.CashFlow.PctDaysBelowThreshold)
	suite.True(set.CashFlow.MinBalance.IsZero())
}

// --- Referential integrity ---

func (suite *FeatureServiceTestSuite) TestOrphanTransactionsSkipped() {
	records := domain.UserRecords{
		UserID:   "user-1",
		Accounts: []domain.Account{checkingAccount("chk-1", "user-1", 500)},
		Transactions: []domain.Transaction{
			txn("t1", "ghost-1", daysAgo(75), 15.49, "Netflix"),
			txn("t2", "ghost-1", daysAgo(45), 15.49, "Netflix"),
			txn("t3", "ghost-1", daysAgo(15), 15.49, "Netflix"),
		},
	}

	set := suite.compute(records, 30)

	suite.Zero(set.Subscriptions.RecurringMerchantCount, "transactions on unknown accounts must not count")
	suite.True(set.Subscriptions.MonthlyRecurringSpend.IsZero())
}

func TestFeatureService(t *testing.T) {
	suite.Run(t, new(FeatureServiceTestSuite))
}
