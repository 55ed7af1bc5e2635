package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/pkg/views"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"go.uber.org/zap"
)

// AlertService serves the analyst-facing alert surface.
type AlertService interface {
	FindActive(ctx context.Context, traceID string) ([]views.FraudAlertView, error)
	// ResolveAlert closes an open alert. Only ACTIVE and INVESTIGATING
	// alerts can be resolved; resolving twice is a state error.
	ResolveAlert(ctx context.Context, traceID string, id uuid.UUID, req dtos.ResolveAlertRequest) (views.FraudAlertView, error)
}

type AlertServiceConfig struct {
	Logger    *zap.Logger
	DB        *database.DB
	AlertRepo repositories.FraudAlertRepository
}

func NewAlertService(cfg AlertServiceConfig) AlertService {
	return &cfg
}

func (s *AlertServiceConfig) FindActive(ctx context.Context, traceID string) ([]views.FraudAlertView, error) {
	alerts, err := s.AlertRepo.FindByStatus(ctx, s.DB, pkg.AlertStatusActive)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.Logger, err)
	}
	out := make([]views.FraudAlertView, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, views.ToFraudAlertView(a))
	}
	return out, nil
}

func (s *AlertServiceConfig) ResolveAlert(ctx context.Context, traceID string, id uuid.UUID, req dtos.ResolveAlertRequest) (views.FraudAlertView, error) {
	alert, err := s.AlertRepo.FindById(ctx, s.DB, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return views.FraudAlertView{}, pkg.NewAppError(pkg.ErrRecordNotFoundCode, "alert not found", err)
	}
	if err != nil {
		return views.FraudAlertView{}, pkg.HandleSQLError(traceID, s.Logger, err)
	}

	if alert.Status != pkg.AlertStatusActive && alert.Status != pkg.AlertStatusInvestigating {
		return views.FraudAlertView{}, pkg.NewAppError(pkg.ErrAlertStateCode,
			"alert is already closed", nil)
	}

	target := pkg.AlertStatus(req.Status)
	err = s.DB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return s.AlertRepo.UpdateResolution(ctx, tx, id, target, req.ResolvedBy, req.InvestigationNotes)
	})
	if err != nil {
		return views.FraudAlertView{}, pkg.HandleSQLError(traceID, s.Logger, err)
	}

	s.Logger.Info("alert_resolved",
		zap.String(pkg.TraceId, traceID),
		zap.String("alert_id", id.String()),
		zap.String("status", string(target)),
		zap.String("resolved_by", req.ResolvedBy))

	// Re-reading would route to a replica that may not have the write yet.
	now := time.Now()
	alert.Status = target
	alert.ResolvedBy = req.ResolvedBy
	alert.InvestigationNotes = req.InvestigationNotes
	alert.ResolvedAt = &now
	return views.ToFraudAlertView(alert), nil
}
