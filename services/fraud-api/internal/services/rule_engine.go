package services

import (
	"context"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"go.uber.org/zap"
)

// Rule weights and thresholds for the deterministic fallback scorer.
const (
	highAmountThreshold = 10000.0
	highAmountWeight    = 0.3
	unusualHourWeight   = 0.2
	fraudHistoryWeight  = 0.2

	// Earliest/latest hour considered a normal transaction time.
	normalHourStart = 6
	normalHourEnd   = 22

	criticalScoreThreshold = 0.7
	highScoreThreshold     = 0.5
	mediumScoreThreshold   = 0.3
)

// Fallback rule reasons.
const (
	ReasonHighAmount   = "High transaction amount"
	ReasonUnusualHours = "Transaction made during unusual hours"
	ReasonFraudHistory = "User has fraud history"
)

// Behavior-consistency advisory reasons. Appended by the pipeline after
// scoring; they never change the score.
const (
	ReasonDifferentPaymentMethod = "Different payment method from usual"
	ReasonDifferentDeviceType    = "Different device type from usual"
	ReasonDifferentLocation      = "Different location from usual"
	ReasonAmountExceedsMax       = "Amount exceeds user's maximum transaction amount"
)

// RuleEngine is the deterministic weighted-heuristic fallback scorer. It
// evaluates only features that are directly available from the transaction
// and user, so it works when the remote model never ran.
type RuleEngine struct {
	logger *zap.Logger
}

func NewRuleEngine(logger *zap.Logger) *RuleEngine {
	return &RuleEngine{logger: logger}
}

// Score sums the rule weights and maps the total onto the shared verdict
// shape. It never returns an error.
func (e *RuleEngine) Score(_ context.Context, features dtos.FeatureMap) (ScoreResult, error) {
	var score float64
	var reasons []string

	if amount, ok := featureFloat(features, "amount"); ok && amount > highAmountThreshold {
		score += highAmountWeight
		reasons = append(reasons, ReasonHighAmount)
	}

	if hour, ok := featureInt(features, "hour"); ok && (hour < normalHourStart || hour > normalHourEnd) {
		score += unusualHourWeight
		reasons = append(reasons, ReasonUnusualHours)
	}

	if fraudCount, ok := featureInt(features, "user_fraud_count"); ok && fraudCount > 0 {
		score += fraudHistoryWeight
		reasons = append(reasons, ReasonFraudHistory)
	}

	riskLevel, isFraud := classifyScore(score)
	e.logger.Debug("rule_verdict",
		zap.Float64("fraud_score", score),
		zap.String("risk_level", string(riskLevel)),
		zap.Strings("reasons", reasons))
	return ScoreResult{
		FraudScore: score,
		RiskLevel:  riskLevel,
		IsFraud:    isFraud,
		Reasons:    reasons,
	}, nil
}

// classifyScore maps a summed rule score onto a risk level and fraud flag.
func classifyScore(score float64) (pkg.RiskLevel, bool) {
	switch {
	case score >= criticalScoreThreshold:
		return pkg.RiskLevelCritical, true
	case score >= highScoreThreshold:
		return pkg.RiskLevelHigh, true
	case score >= mediumScoreThreshold:
		return pkg.RiskLevelMedium, false
	default:
		return pkg.RiskLevelLow, false
	}
}

// BehaviorConsistencyReasons compares a transaction against the user's
// behavior profile and returns advisory reasons for any deviation from the
// modal preferences or the historical maximum amount.
func BehaviorConsistencyReasons(txn models.Transaction, profile *models.UserBehaviorProfile) []string {
	if profile == nil {
		return nil
	}

	var reasons []string
	if profile.PreferredPaymentMethod != "" && profile.PreferredPaymentMethod != txn.PaymentMethod {
		reasons = append(reasons, ReasonDifferentPaymentMethod)
	}
	if profile.PreferredDeviceType != "" && profile.PreferredDeviceType != txn.DeviceType {
		reasons = append(reasons, ReasonDifferentDeviceType)
	}
	if profile.LocationCountry != "" && profile.LocationCountry != txn.LocationCountry {
		reasons = append(reasons, ReasonDifferentLocation)
	}
	if txn.Amount.InexactFloat64() > profile.MaxTransactionAmount {
		reasons = append(reasons, ReasonAmountExceedsMax)
	}
	return reasons
}
