package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
)

// FraudAlertRepository defines the interface for fraud alert persistence.
type FraudAlertRepository interface {
	// ExistsActive reports whether an ACTIVE alert already exists for the
	// given (transaction, alert type) pair.
	ExistsActive(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, alertType string) (bool, error)
	Create(ctx context.Context, tx pgx.Tx, alert models.FraudAlert) (pgconn.CommandTag, error)
	FindById(ctx context.Context, db *database.DB, id uuid.UUID) (models.FraudAlert, error)
	FindByStatus(ctx context.Context, db *database.DB, status pkg.AlertStatus) ([]models.FraudAlert, error)
	// UpdateResolution closes out an alert with its resolution metadata.
	UpdateResolution(ctx context.Context, tx pgx.Tx, id uuid.UUID, status pkg.AlertStatus, resolvedBy, notes string) error
}

type FraudAlertRepositoryImpl struct {
}

func NewFraudAlertRepository() FraudAlertRepository {
	return &FraudAlertRepositoryImpl{}
}

func (r FraudAlertRepositoryImpl) ExistsActive(ctx context.Context, tx pgx.Tx, transactionID uuid.UUID, alertType string) (bool, error) {
	if transactionID == uuid.Nil {
		return false, errors.New("transaction ID cannot be nil")
	}
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM fraud_alerts
			WHERE transaction_id = $1 AND alert_type = $2 AND status = $3)`,
		transactionID, alertType, pkg.AlertStatusActive,
	).Scan(&exists)
	return exists, err
}

func (r FraudAlertRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, alert models.FraudAlert) (pgconn.CommandTag, error) {
	return tx.Exec(ctx, `
		INSERT INTO fraud_alerts (id, transaction_id, alert_type, severity, description, status,
			fraud_score, risk_factors, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT DO NOTHING`,
		alert.ID,
		alert.TransactionID,
		alert.AlertType,
		alert.Severity,
		alert.Description,
		alert.Status,
		alert.FraudScore,
		alert.RiskFactors,
		alert.CreatedAt,
	)
}

func (r FraudAlertRepositoryImpl) FindById(ctx context.Context, db *database.DB, id uuid.UUID) (models.FraudAlert, error) {
	row := db.QueryRow(ctx, selectAlertColumns+` FROM fraud_alerts WHERE id = $1`, id)
	return scanAlert(row)
}

func (r FraudAlertRepositoryImpl) FindByStatus(ctx context.Context, db *database.DB, status pkg.AlertStatus) ([]models.FraudAlert, error) {
	rows, err := db.Query(ctx, selectAlertColumns+`
		FROM fraud_alerts WHERE status = $1 ORDER BY created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.FraudAlert
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}

func (r FraudAlertRepositoryImpl) UpdateResolution(ctx context.Context, tx pgx.Tx, id uuid.UUID, status pkg.AlertStatus, resolvedBy, notes string) error {
	_, err := tx.Exec(ctx, `
		UPDATE fraud_alerts
		SET status = $1, resolved_by = $2, investigation_notes = $3, resolved_at = $4
		WHERE id = $5`,
		status, resolvedBy, notes, time.Now(), id)
	return err
}

const selectAlertColumns = `
	SELECT id, transaction_id, alert_type, severity, COALESCE(description, ''), status,
		fraud_score, COALESCE(risk_factors, ''), COALESCE(investigation_notes, ''),
		COALESCE(resolved_by, ''), resolved_at, created_at`

func scanAlert(row pgx.Row) (models.FraudAlert, error) {
	var a models.FraudAlert
	err := row.Scan(
		&a.ID,
		&a.TransactionID,
		&a.AlertType,
		&a.Severity,
		&a.Description,
		&a.Status,
		&a.FraudScore,
		&a.RiskFactors,
		&a.InvestigationNotes,
		&a.ResolvedBy,
		&a.ResolvedAt,
		&a.CreatedAt,
	)
	return a, err
}
