package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAlertRepo struct {
	active  map[uuid.UUID]bool
	created []models.FraudAlert
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{active: map[uuid.UUID]bool{}}
}

func (r *fakeAlertRepo) ExistsActive(_ context.Context, _ pgx.Tx, transactionID uuid.UUID, _ string) (bool, error) {
	return r.active[transactionID], nil
}

func (r *fakeAlertRepo) Create(_ context.Context, _ pgx.Tx, alert models.FraudAlert) (pgconn.CommandTag, error) {
	r.active[alert.TransactionID] = true
	r.created = append(r.created, alert)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeAlertRepo) FindById(context.Context, *database.DB, uuid.UUID) (models.FraudAlert, error) {
	return models.FraudAlert{}, pgx.ErrNoRows
}

func (r *fakeAlertRepo) FindByStatus(context.Context, *database.DB, pkg.AlertStatus) ([]models.FraudAlert, error) {
	return nil, nil
}

func (r *fakeAlertRepo) UpdateResolution(context.Context, pgx.Tx, uuid.UUID, pkg.AlertStatus, string, string) error {
	return nil
}

func newTestEmitter(repo *fakeAlertRepo) AlertEmitter {
	return NewAlertEmitter(AlertEmitterConfig{Logger: zap.NewNop(), AlertRepo: repo})
}

func TestAlertEmitter_EmitsForFlaggedHighScore(t *testing.T) {
	repo := newFakeAlertRepo()
	txn := models.Transaction{ID: uuid.New(), UserID: uuid.New()}
	result := ScoreResult{
		FraudScore: 0.72,
		RiskLevel:  pkg.RiskLevelCritical,
		IsFraud:    true,
		Reasons:    []string{ReasonHighAmount, ReasonFraudHistory},
	}

	alert, err := newTestEmitter(repo).MaybeEmit(context.Background(), nil, txn, result)

	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, txn.ID, alert.TransactionID)
	assert.Equal(t, pkg.AlertTypeAIFraudDetection, alert.AlertType)
	assert.Equal(t, pkg.RiskLevelCritical, alert.Severity)
	assert.Equal(t, pkg.AlertStatusActive, alert.Status)
	assert.Equal(t, 0.72, alert.FraudScore)
	assert.Equal(t, "High transaction amount, User has fraud history", alert.RiskFactors)
	assert.Equal(t, "AI model detected potential fraud: High transaction amount, User has fraud history", alert.Description)
	assert.Len(t, repo.created, 1)
}

func TestAlertEmitter_SkipsCleanTransaction(t *testing.T) {
	repo := newFakeAlertRepo()
	txn := models.Transaction{ID: uuid.New()}

	alert, err := newTestEmitter(repo).MaybeEmit(context.Background(), nil, txn, ScoreResult{
		FraudScore: 0.9,
		IsFraud:    false,
	})

	require.NoError(t, err)
	assert.Nil(t, alert)
	assert.Empty(t, repo.created)
}

func TestAlertEmitter_SkipsScoreAtThreshold(t *testing.T) {
	repo := newFakeAlertRepo()
	txn := models.Transaction{ID: uuid.New()}

	// A flagged transaction at exactly 0.5 stays below the alert bar.
	alert, err := newTestEmitter(repo).MaybeEmit(context.Background(), nil, txn, ScoreResult{
		FraudScore: 0.5,
		IsFraud:    true,
	})

	require.NoError(t, err)
	assert.Nil(t, alert)
}

func TestAlertEmitter_Idempotent(t *testing.T) {
	repo := newFakeAlertRepo()
	txn := models.Transaction{ID: uuid.New()}
	result := ScoreResult{FraudScore: 0.8, RiskLevel: pkg.RiskLevelCritical, IsFraud: true}
	emitter := newTestEmitter(repo)

	first, err := emitter.MaybeEmit(context.Background(), nil, txn, result)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := emitter.MaybeEmit(context.Background(), nil, txn, result)
	require.NoError(t, err)
	assert.Nil(t, second)
	assert.Len(t, repo.created, 1)
}
