package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartmedishop/fraud-pipeline/pkg"
)

// FraudAlert maps to table `fraud_alerts`.
//
// At most one ACTIVE alert may exist per (transaction, alert type) pair;
// the emitter enforces this with an existence check before insert.
type FraudAlert struct {
	ID            uuid.UUID
	TransactionID uuid.UUID
	AlertType     string
	Severity      pkg.RiskLevel
	Description   string
	Status        pkg.AlertStatus
	FraudScore    float64
	RiskFactors   string

	InvestigationNotes string
	ResolvedBy         string
	ResolvedAt         *time.Time

	CreatedAt time.Time
}
