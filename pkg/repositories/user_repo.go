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

// UserRepository defines the interface for user persistence.
//
// User lifecycle is a collaborator concern; the pipeline only reads users
// and maintains their risk fields.
type UserRepository interface {
	// Create creates a new user. Used by seeders and tests.
	Create(ctx context.Context, tx pgx.Tx, user models.User) (pgconn.CommandTag, error)
	FindById(ctx context.Context, db *database.DB, id uuid.UUID) (models.User, error)
	// UpdateRiskStats persists the risk tier, fraud counter and rolling
	// transaction stats after a scoring run.
	UpdateRiskStats(ctx context.Context, tx pgx.Tx, user models.User) error
}

type UserRepositoryImpl struct {
}

func NewUserRepository() UserRepository {
	return &UserRepositoryImpl{}
}

func (u UserRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, user models.User) (pgconn.CommandTag, error) {
	return tx.Exec(ctx, `
		INSERT INTO users (id, username, email, birth_date, registration_date, risk_profile,
			fraud_count, total_transactions, average_amount, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT DO NOTHING`,
		user.ID,
		user.Username,
		user.Email,
		user.BirthDate,
		user.RegistrationDate,
		user.RiskProfile,
		user.FraudCount,
		user.TotalTransactions,
		user.AverageAmount,
		user.CreatedAt,
		user.UpdatedAt,
	)
}

func (u UserRepositoryImpl) FindById(ctx context.Context, db *database.DB, id uuid.UUID) (models.User, error) {
	if id == uuid.Nil {
		return models.User{}, errors.New("user ID cannot be nil")
	}
	var user models.User
	err := db.QueryRow(ctx, `
		SELECT id, username, email, birth_date, registration_date, risk_profile,
			fraud_count, total_transactions, average_amount, created_at, updated_at
		FROM users WHERE id = $1`, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.BirthDate,
		&user.RegistrationDate,
		&user.RiskProfile,
		&user.FraudCount,
		&user.TotalTransactions,
		&user.AverageAmount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	return user, err
}

func (u UserRepositoryImpl) UpdateRiskStats(ctx context.Context, tx pgx.Tx, user models.User) error {
	_, err := tx.Exec(ctx, `
		UPDATE users
		SET risk_profile = $1, fraud_count = $2, total_transactions = $3,
			average_amount = $4, updated_at = $5
		WHERE id = $6`,
		user.RiskProfile,
		user.FraudCount,
		user.TotalTransactions,
		user.AverageAmount,
		time.Now(),
		user.ID,
	)
	return err
}
