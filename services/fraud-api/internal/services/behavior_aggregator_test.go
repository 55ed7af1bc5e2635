package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyTransaction_FirstTransaction(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	txDate := created.Add(2 * time.Hour)
	profile := models.UserBehaviorProfile{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		CreatedAt: created,
	}

	updated := ApplyTransaction(profile, 120.50, txDate)

	assert.Equal(t, 1, updated.TransactionVelocity)
	assert.Equal(t, 120.50, updated.AmountVelocity)
	assert.Equal(t, 120.50, updated.AverageTransactionAmount)
	assert.Equal(t, 120.50, updated.MaxTransactionAmount)
	assert.Equal(t, 120.50, updated.MinTransactionAmount)
	require.NotNil(t, updated.LastTransactionDate)
	assert.Equal(t, txDate, *updated.LastTransactionDate)
	// Same-day profile: frequency collapses to the raw velocity.
	assert.Equal(t, 1.0, updated.TransactionFrequencyPerDay)
	assert.Zero(t, updated.WeekendTransactionRatio)
	assert.Zero(t, updated.NightTransactionRatio)
}

func TestApplyTransaction_RunningMean(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	profile := models.UserBehaviorProfile{CreatedAt: created}

	amounts := []float64{100, 250, 75, 1000, 12.5}
	var sum float64
	for i, a := range amounts {
		profile = ApplyTransaction(profile, a, created.Add(time.Duration(i)*time.Hour))
		sum += a
		assert.Equal(t, i+1, profile.TransactionVelocity)
		assert.InDelta(t, sum/float64(i+1), profile.AverageTransactionAmount, 1e-9)
		assert.InDelta(t, sum, profile.AmountVelocity, 1e-9)
	}

	assert.Equal(t, 1000.0, profile.MaxTransactionAmount)
	assert.Equal(t, 12.5, profile.MinTransactionAmount)
}

func TestApplyTransaction_MinIgnoresZeroSentinel(t *testing.T) {
	profile := models.UserBehaviorProfile{CreatedAt: time.Now()}

	profile = ApplyTransaction(profile, 500, time.Now())
	assert.Equal(t, 500.0, profile.MinTransactionAmount)

	profile = ApplyTransaction(profile, 900, time.Now())
	assert.Equal(t, 500.0, profile.MinTransactionAmount)

	profile = ApplyTransaction(profile, 20, time.Now())
	assert.Equal(t, 20.0, profile.MinTransactionAmount)
}

func TestApplyTransaction_FrequencyOverDays(t *testing.T) {
	created := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	profile := models.UserBehaviorProfile{CreatedAt: created}

	// 10 transactions, the last one 5 days after profile creation.
	for i := 0; i < 10; i++ {
		profile = ApplyTransaction(profile, 100, created.AddDate(0, 0, 5))
	}

	assert.InDelta(t, 2.0, profile.TransactionFrequencyPerDay, 1e-9)
}

func TestRecomputeModalPreferences(t *testing.T) {
	history := []models.Transaction{
		{PaymentMethod: "CREDIT_CARD", DeviceType: "MOBILE", LocationCountry: "US"},
		{PaymentMethod: "PAYPAL", DeviceType: "MOBILE", LocationCountry: "US"},
		{PaymentMethod: "CREDIT_CARD", DeviceType: "DESKTOP", LocationCountry: "CA"},
		{PaymentMethod: "CREDIT_CARD", DeviceType: "MOBILE", LocationCountry: "US"},
	}

	profile := RecomputeModalPreferences(models.UserBehaviorProfile{}, history)

	assert.Equal(t, "CREDIT_CARD", profile.PreferredPaymentMethod)
	assert.Equal(t, "MOBILE", profile.PreferredDeviceType)
	assert.Equal(t, "US", profile.LocationCountry)
}

func TestRecomputeModalPreferences_TieKeepsFirstEncountered(t *testing.T) {
	history := []models.Transaction{
		{PaymentMethod: "PAYPAL"},
		{PaymentMethod: "CREDIT_CARD"},
	}

	profile := RecomputeModalPreferences(models.UserBehaviorProfile{}, history)
	assert.Equal(t, "PAYPAL", profile.PreferredPaymentMethod)
}

func TestRecomputeModalPreferences_EmptyHistoryKeepsExisting(t *testing.T) {
	profile := models.UserBehaviorProfile{
		PreferredPaymentMethod: "CREDIT_CARD",
		PreferredDeviceType:    "MOBILE",
	}

	updated := RecomputeModalPreferences(profile, nil)

	assert.Equal(t, "CREDIT_CARD", updated.PreferredPaymentMethod)
	assert.Equal(t, "MOBILE", updated.PreferredDeviceType)
}

func TestRecomputeModalPreferences_BlankValuesIgnored(t *testing.T) {
	history := []models.Transaction{
		{PaymentMethod: ""},
		{PaymentMethod: ""},
		{PaymentMethod: "PAYPAL"},
	}

	profile := RecomputeModalPreferences(models.UserBehaviorProfile{}, history)
	assert.Equal(t, "PAYPAL", profile.PreferredPaymentMethod)
}
