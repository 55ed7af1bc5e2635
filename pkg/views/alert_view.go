package views

import (
	"time"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
)

// FraudAlertView is the wire representation of a fraud alert.
type FraudAlertView struct {
	ID                 string          `json:"id"`
	TransactionID      string          `json:"transactionId"`
	AlertType          string          `json:"alertType"`
	Severity           pkg.RiskLevel   `json:"severity"`
	Description        string          `json:"description,omitempty"`
	Status             pkg.AlertStatus `json:"status"`
	FraudScore         float64         `json:"fraudScore"`
	RiskFactors        string          `json:"riskFactors,omitempty"`
	InvestigationNotes string          `json:"investigationNotes,omitempty"`
	ResolvedBy         string          `json:"resolvedBy,omitempty"`
	ResolvedAt         *time.Time      `json:"resolvedAt,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func ToFraudAlertView(a models.FraudAlert) FraudAlertView {
	return FraudAlertView{
		ID:                 a.ID.String(),
		TransactionID:      a.TransactionID.String(),
		AlertType:          a.AlertType,
		Severity:           a.Severity,
		Description:        a.Description,
		Status:             a.Status,
		FraudScore:         a.FraudScore,
		RiskFactors:        a.RiskFactors,
		InvestigationNotes: a.InvestigationNotes,
		ResolvedBy:         a.ResolvedBy,
		ResolvedAt:         a.ResolvedAt,
		CreatedAt:          a.CreatedAt,
	}
}

// AlertEvent is the payload published to the alert Kafka topic when the
// pipeline creates a new fraud alert.
type AlertEvent struct {
	AlertID       string        `json:"alertId"`
	TransactionID string        `json:"transactionId"`
	UserID        string        `json:"userId"`
	AlertType     string        `json:"alertType"`
	Severity      pkg.RiskLevel `json:"severity"`
	FraudScore    float64       `json:"fraudScore"`
	RiskFactors   string        `json:"riskFactors"`
	CreatedAt     time.Time     `json:"createdAt"`
}
