package dtos

import "encoding/json"

// FeatureMap is the flat feature payload sent to the remote risk model.
// Numeric features are native JSON numbers, never stringified.
type FeatureMap map[string]any

// AnalyzeResponse is the envelope returned by the remote risk model.
type AnalyzeResponse struct {
	Analysis *Analysis `json:"analysis"`
}

// Analysis carries the model verdict. FraudScore, RiskLevel, IsFraud and
// Reasons are mandatory; the explanation members are optional and kept as
// raw JSON for verbatim storage.
type Analysis struct {
	FraudScore      *float64        `json:"fraud_score"`
	RiskLevel       string          `json:"risk_level"`
	IsFraud         *bool           `json:"is_fraud"`
	Reasons         []string        `json:"reasons"`
	MLExplanation   json.RawMessage `json:"ml_explanation,omitempty"`
	RuleExplanation json.RawMessage `json:"rule_explanation,omitempty"`
	Conclusion      json.RawMessage `json:"conclusion,omitempty"`
}
