package pkg

const (
	HeaderTraceId   string = "X-Trace-Id"
	HeaderRequestId string = "X-Request-Id"
)

const (
	TraceId       string = "trace_id"
	RequestId     string = "request_id"
	TransactionId string = "transaction_id"
	UserId        string = "user_id"
)

// TransactionStatus is the lifecycle state of a payment transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// RiskLevel is the per-transaction classification produced by the scorer.
// The same four-value scale is reused for user risk tiers and alert severity.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "LOW"
	RiskLevelMedium   RiskLevel = "MEDIUM"
	RiskLevelHigh     RiskLevel = "HIGH"
	RiskLevelCritical RiskLevel = "CRITICAL"
)

var riskLevelRank = map[RiskLevel]int{
	RiskLevelLow:      0,
	RiskLevelMedium:   1,
	RiskLevelHigh:     2,
	RiskLevelCritical: 3,
}

// Rank returns the ordinal position of the risk level; unknown values rank lowest.
func (r RiskLevel) Rank() int {
	return riskLevelRank[r]
}

// Valid reports whether r is one of the four known levels.
func (r RiskLevel) Valid() bool {
	_, ok := riskLevelRank[r]
	return ok
}

// AlertStatus is the investigation state of a fraud alert.
type AlertStatus string

const (
	AlertStatusActive        AlertStatus = "ACTIVE"
	AlertStatusInvestigating AlertStatus = "INVESTIGATING"
	AlertStatusResolved      AlertStatus = "RESOLVED"
	AlertStatusFalsePositive AlertStatus = "FALSE_POSITIVE"
)

// AlertTypeAIFraudDetection tags alerts emitted by the scoring pipeline.
const AlertTypeAIFraudDetection = "AI_FRAUD_DETECTION"
