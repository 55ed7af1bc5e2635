package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/observability"
	"go.uber.org/zap"
)

// Alerts fire only above this score, even for flagged transactions.
const alertScoreThreshold = 0.5

// AlertEmitter creates a fraud alert for a flagged transaction inside the
// caller's unit of work.
type AlertEmitter interface {
	// MaybeEmit creates an alert when the verdict warrants one. Returns the
	// created alert, or nil when no alert was needed or one already exists.
	MaybeEmit(ctx context.Context, tx pgx.Tx, txn models.Transaction, result ScoreResult) (*models.FraudAlert, error)
}

type AlertEmitterConfig struct {
	Logger    *zap.Logger
	AlertRepo repositories.FraudAlertRepository
}

func NewAlertEmitter(cfg AlertEmitterConfig) AlertEmitter {
	return &cfg
}

func (e *AlertEmitterConfig) MaybeEmit(ctx context.Context, tx pgx.Tx, txn models.Transaction, result ScoreResult) (*models.FraudAlert, error) {
	if !result.IsFraud || result.FraudScore <= alertScoreThreshold {
		return nil, nil
	}

	// One ACTIVE alert per (transaction, type); a resubmitted transaction
	// must not duplicate its alert.
	exists, err := e.AlertRepo.ExistsActive(ctx, tx, txn.ID, pkg.AlertTypeAIFraudDetection)
	if err != nil {
		return nil, err
	}
	if exists {
		e.Logger.Debug("alert_already_active",
			zap.String(pkg.TransactionId, txn.ID.String()))
		return nil, nil
	}

	riskFactors := strings.Join(result.Reasons, ", ")
	alert := models.FraudAlert{
		ID:            uuid.New(),
		TransactionID: txn.ID,
		AlertType:     pkg.AlertTypeAIFraudDetection,
		Severity:      result.RiskLevel,
		Description:   "AI model detected potential fraud: " + riskFactors,
		Status:        pkg.AlertStatusActive,
		FraudScore:    result.FraudScore,
		RiskFactors:   riskFactors,
		CreatedAt:     time.Now(),
	}
	if _, err := e.AlertRepo.Create(ctx, tx, alert); err != nil {
		return nil, err
	}

	observability.AlertsEmitted.WithLabelValues(string(alert.Severity)).Inc()
	e.Logger.Info("fraud_alert_created",
		zap.String(pkg.TransactionId, txn.ID.String()),
		zap.String("severity", string(alert.Severity)),
		zap.Float64("fraud_score", alert.FraudScore))
	return &alert, nil
}
