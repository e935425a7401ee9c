package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionStatusInitiationPending SubmissionStatus = "InitiationPending"
	SubmissionStatusAccepted          SubmissionStatus = "Accepted"
	SubmissionStatusRejected          SubmissionStatus = "Rejected"
	SubmissionStatusCancelled         SubmissionStatus = "Cancelled"
)

// PaymentSubmission records one attempt to execute a payment against a
// consent.
//
// For single-submission payment types the id equals the consent id, so the
// store's primary-key constraint is what enforces at-most-one submission per
// consent. VRP submissions get a generated id and share their consent id with
// siblings.
//
// The payment document is the immutable snapshot of what the caller submitted
// (initiation plus risk); idempotent-replay detection compares against it
// byte-for-byte after canonicalization.
type PaymentSubmission struct {
	ID             string           `json:"id" gorm:"primaryKey"`
	ConsentID      string           `json:"consent_id" gorm:"not null;index"`
	APIClientID    string           `json:"api_client_id" gorm:"not null;index:idx_submission_client_key"`
	PaymentType    PaymentType      `json:"payment_type" gorm:"not null"`
	Payment        JSON             `json:"payment" gorm:"type:jsonb;not null"`
	IdempotencyKey string           `json:"idempotency_key" gorm:"not null;index:idx_submission_client_key"`
	Status         SubmissionStatus `json:"status" gorm:"not null;default:'InitiationPending'"`
	OBVersion      string           `json:"ob_version" gorm:"not null"`
	CreatedAt      time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// PaymentRequest is the instruction carried by a submission request, already
// decoded from the wire by the boundary layer. Initiation and Risk are
// compared against the consent's snapshot; the engine never inspects
// individual domain fields beyond that comparison.
type PaymentRequest struct {
	PaymentType PaymentType `json:"payment_type"`
	Initiation  JSON        `json:"initiation"`
	Risk        JSON        `json:"risk,omitempty"`
}

// Document folds the instruction into the single jsonb snapshot persisted on
// the submission.
func (r *PaymentRequest) Document() JSON {
	doc := JSON{"initiation": map[string]interface{}(r.Initiation.Clone())}
	if r.Risk != nil {
		doc["risk"] = map[string]interface{}(r.Risk.Clone())
	}
	return doc
}
