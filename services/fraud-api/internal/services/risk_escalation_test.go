package services

import (
	"testing"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestTierForFraudCount(t *testing.T) {
	tests := []struct {
		fraudCount int
		expected   pkg.RiskLevel
	}{
		{fraudCount: 0, expected: pkg.RiskLevelLow},
		{fraudCount: 1, expected: pkg.RiskLevelMedium},
		{fraudCount: 2, expected: pkg.RiskLevelHigh},
		{fraudCount: 3, expected: pkg.RiskLevelCritical},
		{fraudCount: 10, expected: pkg.RiskLevelCritical},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, tierForFraudCount(tc.fraudCount), "fraud count %d", tc.fraudCount)
	}
}

func TestEscalateRiskProfile_NeverDowngrades(t *testing.T) {
	// A user already flagged CRITICAL stays CRITICAL even when the counter
	// alone would only justify a lower tier.
	assert.Equal(t, pkg.RiskLevelCritical, EscalateRiskProfile(pkg.RiskLevelCritical, 0))
	assert.Equal(t, pkg.RiskLevelHigh, EscalateRiskProfile(pkg.RiskLevelHigh, 1))
	assert.Equal(t, pkg.RiskLevelMedium, EscalateRiskProfile(pkg.RiskLevelMedium, 0))
}

func TestEscalateRiskProfile_Upgrades(t *testing.T) {
	assert.Equal(t, pkg.RiskLevelMedium, EscalateRiskProfile(pkg.RiskLevelLow, 1))
	assert.Equal(t, pkg.RiskLevelHigh, EscalateRiskProfile(pkg.RiskLevelLow, 2))
	assert.Equal(t, pkg.RiskLevelCritical, EscalateRiskProfile(pkg.RiskLevelMedium, 3))
}

func TestApplyScoredTransaction_CleanTransaction(t *testing.T) {
	user := models.User{
		RiskProfile:       pkg.RiskLevelLow,
		TotalTransactions: 4,
		AverageAmount:     100,
	}

	updated := ApplyScoredTransaction(user, 200, false)

	assert.Equal(t, 5, updated.TotalTransactions)
	assert.InDelta(t, 120, updated.AverageAmount, 1e-9)
	assert.Zero(t, updated.FraudCount)
	assert.Equal(t, pkg.RiskLevelLow, updated.RiskProfile)
}

func TestApplyScoredTransaction_FraudEscalates(t *testing.T) {
	user := models.User{
		RiskProfile: pkg.RiskLevelLow,
		FraudCount:  1,
	}

	updated := ApplyScoredTransaction(user, 50, true)

	assert.Equal(t, 2, updated.FraudCount)
	assert.Equal(t, pkg.RiskLevelHigh, updated.RiskProfile)
}

func TestApplyScoredTransaction_ThirdFraudIsCritical(t *testing.T) {
	user := models.User{RiskProfile: pkg.RiskLevelHigh, FraudCount: 2}

	updated := ApplyScoredTransaction(user, 50, true)

	assert.Equal(t, 3, updated.FraudCount)
	assert.Equal(t, pkg.RiskLevelCritical, updated.RiskProfile)
}
