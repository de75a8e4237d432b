package config

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// SignalParams holds the calibration parameters for the signal
// detectors. These are tunable, not business rules.
type SignalParams struct {
	SubscriptionLookbackDays int     `validate:"gt=0"`
	CadenceToleranceDays     int     `validate:"gte=0"`
	CadenceGapShare          float64 `validate:"gt=0,lte=1"`
	LowBalanceThreshold      float64 `validate:"gte=0"`
	ExpenseFloor             float64 `validate:"gt=0"`
	MinPaymentTolerance      float64 `validate:"gte=0,lte=1"`
}

// PersonaThresholds holds the injected thresholds for the persona
// predicates. Exact values are calibration parameters and have been
// revised during development; they are configuration, never constants
// inside the evaluators.
type PersonaThresholds struct {
	HighUtilization          float64 `validate:"gt=0,lte=1"`
	PayGapDays               float64 `validate:"gt=0"`
	LowBufferMonths          float64 `validate:"gt=0"`
	RecurringMerchantMin     int     `validate:"gte=1"`
	MonthlyRecurringSpendMin float64 `validate:"gte=0"`
	SubscriptionShareMin     float64 `validate:"gte=0,lte=1"`
	GrowthRateMin            float64 `validate:"gte=0"`
	NetInflowMonthlyMin      float64 `validate:"gte=0"`
	UtilizationCeiling       float64 `validate:"gt=0,lte=1"`
	LowBalanceDaysShare      float64 `validate:"gte=0,lte=1"`
	VolatilityMin            float64 `validate:"gte=0"`
}

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	IsProduction  bool
	EnableDBCheck bool

	// AsOfDate in YYYY-MM-DD form; empty means "today".
	AsOfDate string
	// Windows are the reporting window lengths in days.
	Windows []int `validate:"min=1,dive,gt=0"`
	// Concurrency bounds the batch worker pool; 0 means one worker per core.
	Concurrency int `validate:"gte=0"`

	Signals    SignalParams
	Thresholds PersonaThresholds
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("AS_OF_DATE", "")
	viper.SetDefault("WINDOWS", "30,180")
	viper.SetDefault("CONCURRENCY", 0)

	viper.SetDefault("SUBSCRIPTION_LOOKBACK_DAYS", 90)
	viper.SetDefault("CADENCE_TOLERANCE_DAYS", 2)
	viper.SetDefault("CADENCE_GAP_SHARE", 0.70)
	viper.SetDefault("LOW_BALANCE_THRESHOLD", 100.0)
	viper.SetDefault("EXPENSE_FLOOR", 1.0)
	viper.SetDefault("MIN_PAYMENT_TOLERANCE", 0.10)

	viper.SetDefault("THRESHOLD_HIGH_UTILIZATION", 0.50)
	viper.SetDefault("THRESHOLD_PAY_GAP_DAYS", 45.0)
	viper.SetDefault("THRESHOLD_LOW_BUFFER_MONTHS", 1.0)
	viper.SetDefault("THRESHOLD_RECURRING_MERCHANT_MIN", 3)
	viper.SetDefault("THRESHOLD_MONTHLY_RECURRING_SPEND", 50.0)
	viper.SetDefault("THRESHOLD_SUBSCRIPTION_SHARE", 0.10)
	viper.SetDefault("THRESHOLD_GROWTH_RATE", 0.02)
	viper.SetDefault("THRESHOLD_NET_INFLOW_MONTHLY", 200.0)
	viper.SetDefault("THRESHOLD_UTILIZATION_CEILING", 0.30)
	viper.SetDefault("THRESHOLD_LOW_BALANCE_DAYS_SHARE", 0.20)
	viper.SetDefault("THRESHOLD_VOLATILITY", 0.15)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")
	cfg.AsOfDate = viper.GetString("AS_OF_DATE")
	cfg.Concurrency = viper.GetInt("CONCURRENCY")

	windows, err := parseWindows(viper.GetString("WINDOWS"))
	if err != nil {
		return nil, fmt.Errorf("invalid WINDOWS value: %w", err)
	}
	cfg.Windows = windows

	cfg.Signals = SignalParams{
		SubscriptionLookbackDays: viper.GetInt("SUBSCRIPTION_LOOKBACK_DAYS"),
		CadenceToleranceDays:     viper.GetInt("CADENCE_TOLERANCE_DAYS"),
		CadenceGapShare:          viper.GetFloat64("CADENCE_GAP_SHARE"),
		LowBalanceThreshold:      viper.GetFloat64("LOW_BALANCE_THRESHOLD"),
		ExpenseFloor:             viper.GetFloat64("EXPENSE_FLOOR"),
		MinPaymentTolerance:      viper.GetFloat64("MIN_PAYMENT_TOLERANCE"),
	}

	cfg.Thresholds = PersonaThresholds{
		HighUtilization:          viper.GetFloat64("THRESHOLD_HIGH_UTILIZATION"),
		PayGapDays:               viper.GetFloat64("THRESHOLD_PAY_GAP_DAYS"),
		LowBufferMonths:          viper.GetFloat64("THRESHOLD_LOW_BUFFER_MONTHS"),
		RecurringMerchantMin:     viper.GetInt("THRESHOLD_RECURRING_MERCHANT_MIN"),
		MonthlyRecurringSpendMin: viper.GetFloat64("THRESHOLD_MONTHLY_RECURRING_SPEND"),
		SubscriptionShareMin:     viper.GetFloat64("THRESHOLD_SUBSCRIPTION_SHARE"),
		GrowthRateMin:            viper.GetFloat64("THRESHOLD_GROWTH_RATE"),
		NetInflowMonthlyMin:      viper.GetFloat64("THRESHOLD_NET_INFLOW_MONTHLY"),
		UtilizationCeiling:       viper.GetFloat64("THRESHOLD_UTILIZATION_CEILING"),
		LowBalanceDaysShare:      viper.GetFloat64("THRESHOLD_LOW_BALANCE_DAYS_SHARE"),
		VolatilityMin:            viper.GetFloat64("THRESHOLD_VOLATILITY"),
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := validate.Struct(cfg.Signals); err != nil {
		return nil, fmt.Errorf("invalid signal parameters: %w", err)
	}
	if err := validate.Struct(cfg.Thresholds); err != nil {
		return nil, fmt.Errorf("invalid persona thresholds: %w", err)
	}

	return cfg, nil
}

// parseWindows parses a comma-separated list of day counts.
func parseWindows(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	windows := make([]int, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		days, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("window %q is not an integer: %w", p, err)
		}
		windows = append(windows, days)
	}
	return windows, nil
}
