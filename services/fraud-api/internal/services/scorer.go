package services

import (
	"context"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
)

// ScoreResult is the verdict shape shared by the remote model and the rule
// engine; the pipeline treats both paths identically.
type ScoreResult struct {
	FraudScore float64
	RiskLevel  pkg.RiskLevel
	IsFraud    bool
	Reasons    []string

	// Raw JSON explanation blobs from the remote model; empty on the
	// rule-engine path.
	MLExplanation   string
	RuleExplanation string
	Conclusion      string
}

// Scorer produces a fraud verdict from a feature map.
type Scorer interface {
	Score(ctx context.Context, features dtos.FeatureMap) (ScoreResult, error)
}

// featureFloat reads a numeric feature regardless of its concrete Go type.
func featureFloat(features dtos.FeatureMap, key string) (float64, bool) {
	v, ok := features[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func featureInt(features dtos.FeatureMap, key string) (int, bool) {
	f, ok := featureFloat(features, key)
	return int(f), ok
}
