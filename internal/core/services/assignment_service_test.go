package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/spendsense/persona-engine/internal/core/domain"
	portssvc "github.com/spendsense/persona-engine/internal/core/ports/services"
	"github.com/spendsense/persona-engine/internal/core/services"
)

func floatPtr(v float64) *float64 { return &v }

// stableFeatureSet builds a feature set no persona matches.
func stableFeatureSet(userID string, windowDays int, asOf time.Time) domain.FeatureSet {
	key := domain.FeatureKey{UserID: userID, WindowDays: windowDays, AsOfDate: asOf}
	return domain.FeatureSet{
		Subscriptions: domain.SubscriptionFeatures{FeatureKey: key},
		Savings:       domain.SavingsFeatures{FeatureKey: key},
		Credit:        domain.CreditFeatures{FeatureKey: key, MaxUtilization: floatPtr(0.35), MinUtilization: floatPtr(0.35), AvgUtilization: floatPtr(0.35)},
		Income:        domain.IncomeFeatures{FeatureKey: key, PayrollCount: 2, MedianPayGapDays: floatPtr(14), CashFlowBufferMonths: 2.5},
		CashFlow:      domain.CashFlowFeatures{FeatureKey: key, PctDaysBelowThreshold: 0.05, BalanceVolatility: 0.08},
	}
}

type PersonaServiceTestSuite struct {
	suite.Suite
	service portssvc.PersonaAssignerSvc
}

func (suite *PersonaServiceTestSuite) SetupTest() {
	suite.service = services.NewPersonaService(testThresholds())
}

func (suite *PersonaServiceTestSuite) assign(fs domain.FeatureSet) *domain.PersonaAssignment {
	assignment, err := suite.service.AssignPersonas(context.Background(), fs)
	suite.Require().NoError(err)
	suite.Require().NotNil(assignment)
	return assignment
}

func (suite *PersonaServiceTestSuite) evaluation(a *domain.PersonaAssignment, id domain.PersonaID) domain.PersonaEvaluation {
	for _, e := range a.Trace.Evaluations {
		if e.PersonaID == id {
			return e
		}
	}
	suite.FailNowf("missing evaluation", "persona %d has no evaluation in trace", id)
	return domain.PersonaEvaluation{}
}

func (suite *PersonaServiceTestSuite) TestAssign_MissingUserID() {
	_, err := suite.service.AssignPersonas(context.Background(), domain.FeatureSet{})
	suite.Require().Error(err)
}

func (suite *PersonaServiceTestSuite) TestAssign_Stable() {
	fs := stableFeatureSet("user-1", 30, testAsOf)

	assignment := suite.assign(fs)

	suite.Equal(domain.StatusStable, assignment.Status)
	suite.Nil(assignment.Primary)
	suite.Nil(assignment.Secondary)
	suite.Len(assignment.Trace.Evaluations, 5, "trace always covers every persona")
	suite.Equal("No personas matched. User has stable financial behavior.", assignment.Trace.PrimaryReasoning)
}

func (suite *PersonaServiceTestSuite) TestAssign_HighUtilizationPrimary() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Credit.MaxUtilization = floatPtr(0.68)
	fs.Credit.InterestChargesPresent = true

	assignment := suite.assign(fs)

	suite.Equal(domain.StatusAssigned, assignment.Status)
	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaHighUtilization, assignment.Primary.ID)
	suite.Equal(domain.TierCritical, assignment.Primary.Tier)
	suite.InDelta(0.68, assignment.Primary.Severity, 1e-9)
	suite.Nil(assignment.Secondary, "single match yields no secondary")

	eval := suite.evaluation(assignment, domain.PersonaHighUtilization)
	suite.True(eval.Matched)
	suite.Contains(eval.TriggeredBy, "max_utilization")
	suite.Contains(eval.TriggeredBy, "interest_charges_present")
	suite.Contains(assignment.Trace.PrimaryReasoning, "max_utilization")
	suite.Contains(assignment.Trace.PrimaryReasoning, "CRITICAL")
}

func (suite *PersonaServiceTestSuite) TestAssign_HighUtilization_AnySingleFlag() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Credit.IsOverdue = true

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaHighUtilization, assignment.Primary.ID)
	// Max utilization below the threshold still sets the severity.
	suite.InDelta(0.35, assignment.Primary.Severity, 1e-9)
}

func (suite *PersonaServiceTestSuite) TestAssign_VariableIncome() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Income.MedianPayGapDays = floatPtr(67.5)
	fs.Income.CashFlowBufferMonths = 0.4

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaVariableIncome, assignment.Primary.ID)
	suite.InDelta(1.5, assignment.Primary.Severity, 1e-9)
}

func (suite *PersonaServiceTestSuite) TestAssign_VariableIncome_NoGapNoMatch() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Income.MedianPayGapDays = nil
	fs.Income.CashFlowBufferMonths = 0.4

	assignment := suite.assign(fs)

	suite.Equal(domain.StatusStable, assignment.Status)
	eval := suite.evaluation(assignment, domain.PersonaVariableIncome)
	suite.False(eval.Matched)
	suite.Require().Len(eval.Criteria, 2)
	suite.True(eval.Criteria[0].Missing, "absent pay gap is cited as missing")
}

func (suite *PersonaServiceTestSuite) TestAssign_SubscriptionHeavy() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Subscriptions.RecurringMerchantCount = 5
	fs.Subscriptions.MonthlyRecurringSpend = decimal.NewFromInt(75)
	fs.Subscriptions.SubscriptionShare = 0.40

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaSubscriptionHeavy, assignment.Primary.ID)
	suite.InDelta(0.40, assignment.Primary.Severity, 1e-9)
}

func (suite *PersonaServiceTestSuite) TestAssign_SubscriptionHeavy_CountAloneInsufficient() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Subscriptions.RecurringMerchantCount = 5
	fs.Subscriptions.MonthlyRecurringSpend = decimal.NewFromInt(10)
	fs.Subscriptions.SubscriptionShare = 0.02

	assignment := suite.assign(fs)

	suite.Equal(domain.StatusStable, assignment.Status)
}

func (suite *PersonaServiceTestSuite) TestAssign_SavingsBuilder_NoCardsAutoPass() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Credit = domain.CreditFeatures{FeatureKey: fs.Credit.FeatureKey} // no cards
	fs.Savings.GrowthRate = 0.05
	fs.Savings.NetInflow = decimal.NewFromInt(50)

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaSavingsBuilder, assignment.Primary.ID)

	eval := suite.evaluation(assignment, domain.PersonaSavingsBuilder)
	suite.Require().Len(eval.Criteria, 3)
	util := eval.Criteria[2]
	suite.Equal("max_utilization", util.Name)
	suite.True(util.Missing, "no cards is cited as missing")
	suite.True(util.Satisfied, "no cards passes the utilization ceiling")
}

func (suite *PersonaServiceTestSuite) TestAssign_SavingsBuilder_BlockedByUtilization() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Savings.GrowthRate = 0.05
	fs.Credit.MaxUtilization = floatPtr(0.45) // above the 0.30 ceiling

	assignment := suite.assign(fs)

	eval := suite.evaluation(assignment, domain.PersonaSavingsBuilder)
	suite.False(eval.Matched)
}

func (suite *PersonaServiceTestSuite) TestAssign_SavingsBuilder_UndefinedGrowthUsesInflow() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Credit = domain.CreditFeatures{FeatureKey: fs.Credit.FeatureKey}
	fs.Savings.GrowthRate = 0
	fs.Savings.GrowthRateUndefined = true
	fs.Savings.NetInflow = decimal.NewFromInt(250) // 250/month over 30 days

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaSavingsBuilder, assignment.Primary.ID)
	eval := suite.evaluation(assignment, domain.PersonaSavingsBuilder)
	suite.Contains(eval.TriggeredBy, "net_inflow_monthly")
	suite.NotContains(eval.TriggeredBy, "growth_rate")
}

func (suite *PersonaServiceTestSuite) TestAssign_CashFlowStressed() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.CashFlow.PctDaysBelowThreshold = 0.45
	fs.CashFlow.BalanceVolatility = 0.30

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Equal(domain.PersonaCashFlowStressed, assignment.Primary.ID)
	suite.InDelta(0.45, assignment.Primary.Severity, 1e-9)
}

func (suite *PersonaServiceTestSuite) TestAssign_CashFlowStressed_UndefinedVolatilityNoMatch() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.CashFlow.PctDaysBelowThreshold = 1.0
	fs.CashFlow.BalanceVolatility = 0
	fs.CashFlow.VolatilityUndefined = true

	assignment := suite.assign(fs)

	eval := suite.evaluation(assignment, domain.PersonaCashFlowStressed)
	suite.False(eval.Matched)
}

func (suite *PersonaServiceTestSuite) TestAssign_TierOrdersPrimaryAndSecondary() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	// Subscription-heavy (MEDIUM) with a hefty severity.
	fs.Subscriptions.RecurringMerchantCount = 6
	fs.Subscriptions.SubscriptionShare = 0.90
	// High utilization (CRITICAL) with a modest severity.
	fs.Credit.MaxUtilization = floatPtr(0.55)

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Require().NotNil(assignment.Secondary)
	suite.Equal(domain.PersonaHighUtilization, assignment.Primary.ID, "tier outranks severity")
	suite.Equal(domain.PersonaSubscriptionHeavy, assignment.Secondary.ID)
	suite.NotEmpty(assignment.Trace.SecondaryReasoning)
}

func (suite *PersonaServiceTestSuite) TestAssign_SeverityBreaksTiesWithinTier() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	// Both HIGH tier: variable income at severity 1.5, cash-flow stressed
	// at severity 0.8.
	fs.Income.MedianPayGapDays = floatPtr(67.5)
	fs.Income.CashFlowBufferMonths = 0.4
	fs.CashFlow.PctDaysBelowThreshold = 0.8
	fs.CashFlow.BalanceVolatility = 0.5

	assignment := suite.assign(fs)

	suite.Require().NotNil(assignment.Primary)
	suite.Require().NotNil(assignment.Secondary)
	suite.Equal(domain.PersonaVariableIncome, assignment.Primary.ID)
	suite.Equal(domain.PersonaCashFlowStressed, assignment.Secondary.ID)
}

func (suite *PersonaServiceTestSuite) TestAssign_Deterministic() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	fs.Credit.MaxUtilization = floatPtr(0.68)

	first := suite.assign(fs)
	second := suite.assign(fs)

	suite.Equal(first, second, "same features must yield a byte-identical assignment")
	suite.NotEmpty(first.AssignmentID)
}

func (suite *PersonaServiceTestSuite) TestAssign_IDChangesWithKey() {
	fs := stableFeatureSet("user-1", 30, testAsOf)
	a30 := suite.assign(fs)

	fs180 := stableFeatureSet("user-1", 180, testAsOf)
	a180 := suite.assign(fs180)

	suite.NotEqual(a30.AssignmentID, a180.AssignmentID)
}

func TestPersonaService(t *testing.T) {
	suite.Run(t, new(PersonaServiceTestSuite))
}
