package models

import (
	"time"
)

// AccountBalance backs the funds-confirmation flow. Amounts are in minor
// units of the account currency.
type AccountBalance struct {
	AccountID string    `json:"account_id" gorm:"primaryKey"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Currency  string    `json:"currency" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type FundsConfirmationResponse struct {
	FundsAvailable bool      `json:"funds_available"`
	CheckedAt      time.Time `json:"checked_at"`
}
