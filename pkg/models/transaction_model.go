package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/smartmedishop/fraud-pipeline/pkg"
)

// Transaction maps to table `transactions`.
//
// The scoring fields (FraudScore, RiskLevel, IsFraud, FraudReasons and the
// explanation blobs) are written exactly once by the scoring pipeline after
// the row is created.
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Amount          decimal.Decimal
	PaymentMethod   string
	DeviceType      string
	IPAddress       string
	LocationCountry string
	MerchantName    string
	TransactionType string
	TransactionDate time.Time
	Status          pkg.TransactionStatus

	FraudScore   float64
	RiskLevel    pkg.RiskLevel
	IsFraud      bool
	FraudReasons string

	// Opaque JSON blobs from the remote model, stored verbatim for analyst review.
	MLExplanation   string
	RuleExplanation string
	Conclusion      string

	CreatedAt time.Time
}
