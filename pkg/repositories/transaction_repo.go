package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/smartmedishop/fraud-pipeline/pkg/database"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
)

// TransactionRepository defines the interface for transaction persistence.
type TransactionRepository interface {
	// Create inserts a new transaction row with its pre-scoring fields.
	Create(ctx context.Context, tx pgx.Tx, txn models.Transaction) (pgconn.CommandTag, error)
	// UpdateScoring writes the scoring fields exactly once and marks the row completed.
	UpdateScoring(ctx context.Context, tx pgx.Tx, txn models.Transaction) error
	FindById(ctx context.Context, db *database.DB, id uuid.UUID) (models.Transaction, error)
	// FindByUserId returns the user's full transaction history, oldest first.
	FindByUserId(ctx context.Context, db *database.DB, userID uuid.UUID) ([]models.Transaction, error)
}

type TransactionRepositoryImpl struct {
}

func NewTransactionRepository() TransactionRepository {
	return &TransactionRepositoryImpl{}
}

func (r TransactionRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, txn models.Transaction) (pgconn.CommandTag, error) {
	return tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, amount, payment_method, device_type, ip_address,
			location_country, merchant_name, transaction_type, transaction_date, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) ON CONFLICT DO NOTHING`,
		txn.ID,
		txn.UserID,
		txn.Amount,
		txn.PaymentMethod,
		txn.DeviceType,
		txn.IPAddress,
		txn.LocationCountry,
		txn.MerchantName,
		txn.TransactionType,
		txn.TransactionDate,
		txn.Status,
		txn.CreatedAt,
	)
}

func (r TransactionRepositoryImpl) UpdateScoring(ctx context.Context, tx pgx.Tx, txn models.Transaction) error {
	_, err := tx.Exec(ctx, `
		UPDATE transactions
		SET fraud_score = $1, risk_level = $2, is_fraud = $3, fraud_reasons = $4,
			ml_explanation = $5, rule_explanation = $6, conclusion = $7, status = $8
		WHERE id = $9`,
		txn.FraudScore,
		txn.RiskLevel,
		txn.IsFraud,
		txn.FraudReasons,
		txn.MLExplanation,
		txn.RuleExplanation,
		txn.Conclusion,
		txn.Status,
		txn.ID,
	)
	return err
}

func (r TransactionRepositoryImpl) FindById(ctx context.Context, db *database.DB, id uuid.UUID) (models.Transaction, error) {
	if id == uuid.Nil {
		return models.Transaction{}, errors.New("transaction ID cannot be nil")
	}
	row := db.QueryRow(ctx, selectTransactionColumns+` FROM transactions WHERE id = $1`, id)
	return scanTransaction(row)
}

func (r TransactionRepositoryImpl) FindByUserId(ctx context.Context, db *database.DB, userID uuid.UUID) ([]models.Transaction, error) {
	rows, err := db.Query(ctx, selectTransactionColumns+`
		FROM transactions WHERE user_id = $1 ORDER BY transaction_date ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	return txns, rows.Err()
}

const selectTransactionColumns = `
	SELECT id, user_id, amount, payment_method, device_type, ip_address, location_country,
		merchant_name, transaction_type, transaction_date, status, fraud_score, risk_level,
		is_fraud, COALESCE(fraud_reasons, ''), COALESCE(ml_explanation, ''),
		COALESCE(rule_explanation, ''), COALESCE(conclusion, ''), created_at`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var txn models.Transaction
	var txnDate, createdAt time.Time
	err := row.Scan(
		&txn.ID,
		&txn.UserID,
		&txn.Amount,
		&txn.PaymentMethod,
		&txn.DeviceType,
		&txn.IPAddress,
		&txn.LocationCountry,
		&txn.MerchantName,
		&txn.TransactionType,
		&txnDate,
		&txn.Status,
		&txn.FraudScore,
		&txn.RiskLevel,
		&txn.IsFraud,
		&txn.FraudReasons,
		&txn.MLExplanation,
		&txn.RuleExplanation,
		&txn.Conclusion,
		&createdAt,
	)
	if err != nil {
		return models.Transaction{}, err
	}
	txn.TransactionDate = txnDate
	txn.CreatedAt = createdAt
	return txn, nil
}
