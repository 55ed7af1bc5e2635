package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/smartmedishop/fraud-pipeline/pkg/repositories"
	"github.com/smartmedishop/fraud-pipeline/pkg/views"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/dtos"
	"github.com/smartmedishop/fraud-pipeline/services/fraud-api/internal/observability"
	"go.uber.org/zap"
)

// TransactionService drives the scoring pipeline: accept a transaction,
// produce a verdict, persist it, escalate the user and emit alerts.
type TransactionService interface {
	// SubmitTransaction runs the full pipeline synchronously and returns the
	// scored transaction.
	SubmitTransaction(ctx context.Context, traceID string, req dtos.CreateTransactionRequest) (views.TransactionView, error)
	FindById(ctx context.Context, traceID string, id uuid.UUID) (views.TransactionView, error)
	FindByUserId(ctx context.Context, traceID string, userID uuid.UUID) ([]views.TransactionView, error)
}

type TransactionServiceConfig struct {
	Logger    *zap.Logger
	DB        *database.DB
	TxRepo    repositories.TransactionRepository
	UserRepo  repositories.UserRepository
	Extractor FeatureExtractor
	Gateway   Scorer
	Behavior  BehaviorAggregator
	Emitter   AlertEmitter
	Publisher AlertPublisher // optional
}

func NewTransactionService(cfg TransactionServiceConfig) TransactionService {
	return &cfg
}

func (s *TransactionServiceConfig) SubmitTransaction(ctx context.Context, traceID string, req dtos.CreateTransactionRequest) (views.TransactionView, error) {
	start := time.Now()
	defer func() {
		observability.ScoringLatency.Observe(time.Since(start).Seconds())
	}()

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return views.TransactionView{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "invalid user id", err)
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		return views.TransactionView{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "amount must be a positive decimal", err)
	}

	user, err := s.UserRepo.FindById(ctx, s.DB, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return views.TransactionView{}, pkg.NewAppError(pkg.ErrUnknownUserCode, "user does not exist", err)
	}
	if err != nil {
		return views.TransactionView{}, pkg.HandleSQLError(traceID, s.Logger, err)
	}

	now := time.Now()
	txn := models.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		Amount:          amount,
		PaymentMethod:   req.PaymentMethod,
		DeviceType:      req.DeviceType,
		IPAddress:       req.IPAddress,
		LocationCountry: req.LocationCountry,
		MerchantName:    req.MerchantName,
		TransactionType: req.TransactionType,
		TransactionDate: now,
		Status:          pkg.TransactionStatusPending,
		RiskLevel:       pkg.RiskLevelLow,
		CreatedAt:       now,
	}
	if req.TransactionDate != nil {
		txn.TransactionDate = *req.TransactionDate
	}

	// The PENDING row commits before scoring so the transaction survives a
	// scoring crash and is visible to concurrent readers.
	err = s.DB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := s.TxRepo.Create(ctx, tx, txn)
		return err
	})
	if err != nil {
		return views.TransactionView{}, pkg.HandleSQLError(traceID, s.Logger, err)
	}

	profile := s.Behavior.GetProfile(ctx, userID)
	features := s.Extractor.Extract(ctx, txn, user, profile)

	result, err := s.Gateway.Score(ctx, features)
	if err != nil {
		// The gateway recovers every remote failure locally; an error here
		// means even the rule path broke.
		return views.TransactionView{}, pkg.NewAppError(pkg.ErrScoringFailedCode, "scoring failed", err)
	}
	result.Reasons = append(result.Reasons, BehaviorConsistencyReasons(txn, profile)...)

	txn.FraudScore = result.FraudScore
	txn.RiskLevel = result.RiskLevel
	txn.IsFraud = result.IsFraud
	txn.FraudReasons = strings.Join(result.Reasons, ", ")
	txn.MLExplanation = result.MLExplanation
	txn.RuleExplanation = result.RuleExplanation
	txn.Conclusion = result.Conclusion
	txn.Status = pkg.TransactionStatusCompleted

	// Verdict, user stats and the alert commit atomically; a half-applied
	// escalation would leave the tier out of sync with the fraud counter.
	var alert *models.FraudAlert
	err = s.DB.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.TxRepo.UpdateScoring(ctx, tx, txn); err != nil {
			return err
		}
		user = ApplyScoredTransaction(user, amount.InexactFloat64(), result.IsFraud)
		if err := s.UserRepo.UpdateRiskStats(ctx, tx, user); err != nil {
			return err
		}
		alert, err = s.Emitter.MaybeEmit(ctx, tx, txn, result)
		return err
	})
	if err != nil {
		return views.TransactionView{}, pkg.NewAppError(pkg.ErrScoringFailedCode, "failed to persist scored transaction", err)
	}

	s.Logger.Info("transaction_scored",
		zap.String(pkg.TraceId, traceID),
		zap.String(pkg.TransactionId, txn.ID.String()),
		zap.String(pkg.UserId, userID.String()),
		zap.Float64("fraud_score", txn.FraudScore),
		zap.String("risk_level", string(txn.RiskLevel)),
		zap.Bool("is_fraud", txn.IsFraud))

	if alert != nil && s.Publisher != nil {
		event := views.AlertEvent{
			AlertID:       alert.ID.String(),
			TransactionID: alert.TransactionID.String(),
			UserID:        userID.String(),
			AlertType:     alert.AlertType,
			Severity:      alert.Severity,
			FraudScore:    alert.FraudScore,
			RiskFactors:   alert.RiskFactors,
			CreatedAt:     alert.CreatedAt,
		}
		if err := s.Publisher.PublishAlert(event); err != nil {
			s.Logger.Error("alert_event_publish_failed",
				zap.String(pkg.TraceId, traceID), zap.Error(err))
		}
	}

	// Behavior maintenance is advisory; its failures never fail the submit.
	s.Behavior.RecordTransaction(ctx, txn)

	return views.ToTransactionView(txn), nil
}

func (s *TransactionServiceConfig) FindById(ctx context.Context, traceID string, id uuid.UUID) (views.TransactionView, error) {
	txn, err := s.TxRepo.FindById(ctx, s.DB, id)
	if err != nil {
		return views.TransactionView{}, pkg.HandleSQLError(traceID, s.Logger, err)
	}
	return views.ToTransactionView(txn), nil
}

func (s *TransactionServiceConfig) FindByUserId(ctx context.Context, traceID string, userID uuid.UUID) ([]views.TransactionView, error) {
	txns, err := s.TxRepo.FindByUserId(ctx, s.DB, userID)
	if err != nil {
		return nil, pkg.HandleSQLError(traceID, s.Logger, err)
	}
	out := make([]views.TransactionView, 0, len(txns))
	for _, t := range txns {
		out = append(out, views.ToTransactionView(t))
	}
	return out, nil
}
