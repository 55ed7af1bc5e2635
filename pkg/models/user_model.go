package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/smartmedishop/fraud-pipeline/pkg"
)

// User maps to table `users`.
//
// Account management is owned by a collaborator service; the pipeline only
// reads identity fields and maintains the risk tier, fraud counter and
// rolling transaction stats.
type User struct {
	ID               uuid.UUID
	Username         string
	Email            string
	BirthDate        *time.Time
	RegistrationDate *time.Time

	RiskProfile       pkg.RiskLevel
	FraudCount        int
	TotalTransactions int
	AverageAmount     float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeYears returns the user's age in whole years, or def when no birth date
// is recorded.
func (u User) AgeYears(now time.Time, def int) int {
	if u.BirthDate == nil {
		return def
	}
	years := now.Year() - u.BirthDate.Year()
	if now.YearDay() < u.BirthDate.YearDay() {
		years--
	}
	return years
}

// AccountAgeDays returns whole days since registration, 0 when unset.
func (u User) AccountAgeDays(now time.Time) int {
	if u.RegistrationDate == nil {
		return 0
	}
	return int(now.Sub(*u.RegistrationDate).Hours() / 24)
}
