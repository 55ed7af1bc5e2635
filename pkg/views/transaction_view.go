package views

import (
	"time"

	"github.com/smartmedishop/fraud-pipeline/pkg"
	"github.com/smartmedishop/fraud-pipeline/pkg/models"
)

// TransactionView is the wire representation of a scored transaction.
type TransactionView struct {
	ID              string                `json:"id"`
	UserID          string                `json:"userId"`
	Amount          string                `json:"amount"`
	PaymentMethod   string                `json:"paymentMethod,omitempty"`
	DeviceType      string                `json:"deviceType,omitempty"`
	IPAddress       string                `json:"ipAddress,omitempty"`
	LocationCountry string                `json:"locationCountry,omitempty"`
	MerchantName    string                `json:"merchantName,omitempty"`
	TransactionType string                `json:"transactionType,omitempty"`
	TransactionDate time.Time             `json:"transactionDate"`
	Status          pkg.TransactionStatus `json:"status"`
	FraudScore      float64               `json:"fraudScore"`
	RiskLevel       pkg.RiskLevel         `json:"riskLevel"`
	IsFraud         bool                  `json:"isFraud"`
	FraudReasons    string                `json:"fraudReasons,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

func ToTransactionView(t models.Transaction) TransactionView {
	return TransactionView{
		ID:              t.ID.String(),
		UserID:          t.UserID.String(),
		Amount:          t.Amount.String(),
		PaymentMethod:   t.PaymentMethod,
		DeviceType:      t.DeviceType,
		IPAddress:       t.IPAddress,
		LocationCountry: t.LocationCountry,
		MerchantName:    t.MerchantName,
		TransactionType: t.TransactionType,
		TransactionDate: t.TransactionDate,
		Status:          t.Status,
		FraudScore:      t.FraudScore,
		RiskLevel:       t.RiskLevel,
		IsFraud:         t.IsFraud,
		FraudReasons:    t.FraudReasons,
		CreatedAt:       t.CreatedAt,
	}
}
