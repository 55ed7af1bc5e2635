package models

import (
	"time"

	"github.com/google/uuid"
)

// UserBehaviorProfile maps to table `user_behavior_profiles`.
//
// One row per user, created lazily on the user's first transaction.
// Invariants maintained by the aggregator:
//   - AverageTransactionAmount == AmountVelocity / TransactionVelocity
//   - MaxTransactionAmount >= every observed amount
//   - TransactionVelocity never decreases
type UserBehaviorProfile struct {
	ID     uuid.UUID
	UserID uuid.UUID

	// Modal preferences over the user's full transaction history.
	PreferredPaymentMethod string
	PreferredDeviceType    string
	LocationCountry        string

	TransactionVelocity      int
	AmountVelocity           float64
	AverageTransactionAmount float64
	MaxTransactionAmount     float64
	MinTransactionAmount     float64
	UnusualPatternsCount     int
	LastTransactionDate      *time.Time

	TransactionFrequencyPerDay float64
	// Both ratios are fixed at 0.0; computing them needs per-transaction
	// day-of-week tracking that was never added. Kept for schema parity.
	WeekendTransactionRatio float64
	NightTransactionRatio   float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
