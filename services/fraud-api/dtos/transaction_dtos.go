package dtos

import "time"

// CreateTransactionRequest is the submission payload for a new transaction.
// TransactionDate is optional; the server clock is used when it is omitted.
type CreateTransactionRequest struct {
	UserID          string     `json:"userId" binding:"required,uuid"`
	Amount          string     `json:"amount" binding:"required"`
	PaymentMethod   string     `json:"paymentMethod"`
	DeviceType      string     `json:"deviceType"`
	IPAddress       string     `json:"ipAddress"`
	LocationCountry string     `json:"locationCountry"`
	MerchantName    string     `json:"merchantName"`
	TransactionType string     `json:"transactionType"`
	TransactionDate *time.Time `json:"transactionDate"` // RFC3339
}

// ResolveAlertRequest closes out an alert investigation.
type ResolveAlertRequest struct {
	Status             string `json:"status" binding:"required,oneof=RESOLVED FALSE_POSITIVE"`
	ResolvedBy         string `json:"resolvedBy" binding:"required"`
	InvestigationNotes string `json:"investigationNotes"`
}
