package services

import (
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
)

// Fraud counts at which the user risk tier escalates.
const (
	criticalTierFraudCount = 3
	highTierFraudCount     = 2
	mediumTierFraudCount   = 1
)

// tierForFraudCount maps a lifetime fraud count onto the risk tier scale.
func tierForFraudCount(fraudCount int) pkg.RiskLevel {
	switch {
	case fraudCount >= criticalTierFraudCount:
		return pkg.RiskLevelCritical
	case fraudCount >= highTierFraudCount:
		return pkg.RiskLevelHigh
	case fraudCount >= mediumTierFraudCount:
		return pkg.RiskLevelMedium
	default:
		return pkg.RiskLevelLow
	}
}

// EscalateRiskProfile returns the user's tier after accounting for the
// current fraud count. Tiers only move up; a computed tier below the current
// one leaves the profile untouched.
func EscalateRiskProfile(current pkg.RiskLevel, fraudCount int) pkg.RiskLevel {
	computed := tierForFraudCount(fraudCount)
	if computed.Rank() > current.Rank() {
		return computed
	}
	return current
}

// ApplyScoredTransaction folds one scored transaction into the user's rolling
// stats and, when the transaction was flagged, bumps the fraud counter and
// escalates the tier. Pure; the caller persists the result.
func ApplyScoredTransaction(user models.User, amount float64, isFraud bool) models.User {
	user.TotalTransactions++
	user.AverageAmount = ((user.AverageAmount * float64(user.TotalTransactions-1)) + amount) / float64(user.TotalTransactions)

	if isFraud {
		user.FraudCount++
		user.RiskProfile = EscalateRiskProfile(user.RiskProfile, user.FraudCount)
	}
	return user
}
