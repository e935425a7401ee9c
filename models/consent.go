package models

import (
	"time"
)

type ConsentStatus string

const (
	ConsentStatusAwaitingAuthorisation ConsentStatus = "AwaitingAuthorisation"
	ConsentStatusAuthorised            ConsentStatus = "Authorised"
	ConsentStatusConsumed              ConsentStatus = "Consumed"
	ConsentStatusRejected              ConsentStatus = "Rejected"
)

type PaymentType string

const (
	PaymentTypeDomestic    PaymentType = "domestic"
	PaymentTypeFile        PaymentType = "file"
	PaymentTypeDomesticVRP PaymentType = "domestic-vrp"
)

// MultiSubmission reports whether the type permits more than one submission
// per consent. VRP consents are long-lived and funded repeatedly; every other
// type is single-use.
func (t PaymentType) MultiSubmission() bool {
	return t == PaymentTypeDomesticVRP
}

// HasRisk reports whether submissions of this type carry a risk object.
// File payments have none, so the risk comparison is skipped for them.
func (t PaymentType) HasRisk() bool {
	return t != PaymentTypeFile
}

// Consent is the authorization a submission must match before execution. The
// initiation and risk documents are an immutable snapshot of what the payer
// approved: they are written once at creation and only the status, the
// authorised account and the timestamps change afterwards.
type Consent struct {
	ID                  string        `json:"id" gorm:"primaryKey"`
	APIClientID         string        `json:"api_client_id" gorm:"not null;index"`
	PaymentType         PaymentType   `json:"payment_type" gorm:"not null"`
	Status              ConsentStatus `json:"status" gorm:"not null;default:'AwaitingAuthorisation'"`
	Initiation          JSON          `json:"initiation" gorm:"type:jsonb;not null"`
	Risk                JSON          `json:"risk" gorm:"type:jsonb"`
	AuthorisedAccountID string        `json:"authorised_account_id"`
	Charges             JSON          `json:"charges" gorm:"type:jsonb"`
	ExchangeRate        JSON          `json:"exchange_rate" gorm:"type:jsonb"`
	OBVersion           string        `json:"ob_version" gorm:"not null"`
	CreatedAt           time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// Authorisable reports whether the consent can still move to Authorised.
// Status is monotonic once it leaves AwaitingAuthorisation.
func (c *Consent) Authorisable() bool {
	return c.Status == ConsentStatusAwaitingAuthorisation
}

type CreateConsentRequest struct {
	APIClientID string      `json:"api_client_id"`
	PaymentType PaymentType `json:"payment_type"`
	Initiation  JSON        `json:"initiation"`
	Risk        JSON        `json:"risk,omitempty"`
	Charges     JSON        `json:"charges,omitempty"`
	OBVersion   string      `json:"-"`
}

type AuthoriseConsentRequest struct {
	AccountID string `json:"account_id"`
}
