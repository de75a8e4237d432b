package config_test

import (
	"testing"

	"github.com/spendsense/persona-engine/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []int{30, 180}, cfg.Windows)
	assert.Zero(t, cfg.Concurrency)

	assert.Equal(t, 90, cfg.Signals.SubscriptionLookbackDays)
	assert.Equal(t, 2, cfg.Signals.CadenceToleranceDays)
	assert.InDelta(t, 0.70, cfg.Signals.CadenceGapShare, 1e-9)
	assert.InDelta(t, 100.0, cfg.Signals.LowBalanceThreshold, 1e-9)
	assert.InDelta(t, 0.10, cfg.Signals.MinPaymentTolerance, 1e-9)

	assert.InDelta(t, 0.50, cfg.Thresholds.HighUtilization, 1e-9)
	assert.InDelta(t, 45.0, cfg.Thresholds.PayGapDays, 1e-9)
	assert.Equal(t, 3, cfg.Thresholds.RecurringMerchantMin)
	assert.InDelta(t, 0.30, cfg.Thresholds.UtilizationCeiling, 1e-9)
	assert.InDelta(t, 0.20, cfg.Thresholds.LowBalanceDaysShare, 1e-9)
	assert.InDelta(t, 0.15, cfg.Thresholds.VolatilityMin, 1e-9)
}

func TestLoadConfig_WindowsOverride(t *testing.T) {
	t.Setenv("WINDOWS", "7, 30 ,90")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []int{7, 30, 90}, cfg.Windows)
}

func TestLoadConfig_InvalidWindows(t *testing.T) {
	t.Setenv("WINDOWS", "30,abc")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_NonPositiveWindowRejected(t *testing.T) {
	t.Setenv("WINDOWS", "0")

	_, err := config.LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_ThresholdOverride(t *testing.T) {
	t.Setenv("THRESHOLD_HIGH_UTILIZATION", "0.65")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.InDelta(t, 0.65, cfg.Thresholds.HighUtilization, 1e-9)
}
