package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTxRepo struct {
	history []models.Transaction
	err     error
}

func (r *fakeTxRepo) Create(context.Context, pgx.Tx, models.Transaction) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeTxRepo) UpdateScoring(context.Context, pgx.Tx, models.Transaction) error {
	return nil
}

func (r *fakeTxRepo) FindById(context.Context, *database.DB, uuid.UUID) (models.Transaction, error) {
	return models.Transaction{}, pgx.ErrNoRows
}

func (r *fakeTxRepo) FindByUserId(context.Context, *database.DB, uuid.UUID) ([]models.Transaction, error) {
	return r.history, r.err
}

func newTestExtractor(repo *fakeTxRepo) FeatureExtractor {
	return NewFeatureExtractor(FeatureExtractorConfig{Logger: zap.NewNop(), TxRepo: repo})
}

func TestFeatureExtractor_BasicFeatures(t *testing.T) {
	birth := time.Now().AddDate(-42, -1, 0)
	user := models.User{
		ID:          uuid.New(),
		BirthDate:   &birth,
		FraudCount:  2,
		RiskProfile: pkg.RiskLevelHigh,
	}
	txn := models.Transaction{
		ID:              uuid.New(),
		UserID:          user.ID,
		Amount:          decimal.NewFromFloat(250.75),
		PaymentMethod:   "CREDIT_CARD",
		DeviceType:      "MOBILE",
		LocationCountry: "US",
		MerchantName:    "acme-pharma",
		TransactionType: "PURCHASE",
		// A Wednesday at 03:15.
		TransactionDate: time.Date(2025, 3, 5, 3, 15, 0, 0, time.UTC),
	}

	features := newTestExtractor(&fakeTxRepo{history: []models.Transaction{txn}}).
		Extract(context.Background(), txn, user, nil)

	assert.Equal(t, 250.75, features["amount"])
	assert.Equal(t, "CREDIT_CARD", features["payment_method"])
	assert.Equal(t, "MOBILE", features["device_type"])
	assert.Equal(t, "US", features["location_country"])
	assert.Equal(t, "acme-pharma", features["merchant_name"])
	assert.Equal(t, "PURCHASE", features["transaction_type"])
	assert.Equal(t, 3, features["hour"])
	assert.Equal(t, 3, features["day_of_week"])
	assert.Equal(t, 3, features["month"])
	assert.Equal(t, user.ID.String(), features["user_id"])
	assert.Equal(t, 42, features["user_age"])
	assert.Equal(t, 2, features["user_fraud_count"])
	assert.Equal(t, "HIGH", features["user_risk_profile"])
	assert.Equal(t, 1, features["user_total_transactions"])
	assert.Equal(t, 250.75, features["user_average_amount"])

	// No profile yet means no profile features.
	assert.NotContains(t, features, "user_transaction_velocity")
}

func TestFeatureExtractor_DefaultsAgeWithoutBirthDate(t *testing.T) {
	user := models.User{ID: uuid.New()}
	txn := models.Transaction{ID: uuid.New(), Amount: decimal.NewFromInt(10), TransactionDate: time.Now()}

	features := newTestExtractor(&fakeTxRepo{}).Extract(context.Background(), txn, user, nil)

	assert.Equal(t, defaultUserAge, features["user_age"])
	assert.Equal(t, 0, features["user_account_age_days"])
}

func TestFeatureExtractor_ProfileFeatures(t *testing.T) {
	user := models.User{ID: uuid.New()}
	txn := models.Transaction{ID: uuid.New(), Amount: decimal.NewFromInt(50), TransactionDate: time.Now()}
	profile := &models.UserBehaviorProfile{
		TransactionVelocity:        12,
		AmountVelocity:             3400,
		AverageTransactionAmount:   283.33,
		MaxTransactionAmount:       900,
		UnusualPatternsCount:       1,
		TransactionFrequencyPerDay: 1.5,
	}

	features := newTestExtractor(&fakeTxRepo{}).Extract(context.Background(), txn, user, profile)

	assert.Equal(t, 12, features["user_transaction_velocity"])
	assert.Equal(t, 3400.0, features["user_amount_velocity"])
	assert.Equal(t, 283.33, features["user_average_transaction_amount"])
	assert.Equal(t, 900.0, features["user_max_transaction_amount"])
	assert.Equal(t, 1, features["user_unusual_patterns_count"])
	assert.Equal(t, 1.5, features["user_transaction_frequency_per_day"])
	assert.Equal(t, 0.0, features["user_weekend_transaction_ratio"])
	assert.Equal(t, 0.0, features["user_night_transaction_ratio"])
}

func TestFeatureExtractor_HistoryIncludesCurrentExactlyOnce(t *testing.T) {
	user := models.User{ID: uuid.New()}
	txn := models.Transaction{ID: uuid.New(), Amount: decimal.NewFromInt(100), TransactionDate: time.Now()}

	older := models.Transaction{ID: uuid.New(), Amount: decimal.NewFromInt(300)}

	// Current transaction not yet visible in the history read.
	features := newTestExtractor(&fakeTxRepo{history: []models.Transaction{older}}).
		Extract(context.Background(), txn, user, nil)
	assert.Equal(t, 2, features["user_total_transactions"])
	assert.InDelta(t, 200, features["user_average_amount"].(float64), 1e-9)

	// Current transaction already visible; it must not be double counted.
	features = newTestExtractor(&fakeTxRepo{history: []models.Transaction{older, txn}}).
		Extract(context.Background(), txn, user, nil)
	assert.Equal(t, 2, features["user_total_transactions"])
	assert.InDelta(t, 200, features["user_average_amount"].(float64), 1e-9)
}

func TestFeatureExtractor_HistoryReadFailureUsesCachedStats(t *testing.T) {
	user := models.User{ID: uuid.New(), TotalTransactions: 4, AverageAmount: 100}
	txn := models.Transaction{ID: uuid.New(), Amount: decimal.NewFromInt(600), TransactionDate: time.Now()}

	features := newTestExtractor(&fakeTxRepo{err: errors.New("read failed")}).
		Extract(context.Background(), txn, user, nil)

	require.Equal(t, 5, features["user_total_transactions"])
	assert.InDelta(t, 200, features["user_average_amount"].(float64), 1e-9)
}

func TestIsoWeekday(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	sunday := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, isoWeekday(monday))
	assert.Equal(t, 7, isoWeekday(sunday))
}
