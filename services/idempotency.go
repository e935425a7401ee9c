package services

import (
	"time"
	"unicode/utf8"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// maxIdempotencyKeyLength bounds the client-supplied key. Keys longer than
// this are rejected outright, never truncated.
const maxIdempotencyKeyLength = 40

// idempotencyKeyWindow is how long a stored key stays valid for deduplication.
// A retry arriving after the window is neither a replay nor a fresh
// submission: it fails with KeyExpired.
const idempotencyKeyWindow = 24 * time.Hour

// ValidateIdempotencyKey checks the syntactic shape of a client-supplied key.
// It runs before any store access, so an invalid key never reaches
// persistence. The length bound is in characters, not bytes.
func ValidateIdempotencyKey(key string) error {
	length := utf8.RuneCountInString(key)
	if length == 0 || length > maxIdempotencyKeyLength {
		return &utils.InvalidKeyError{Key: key, Length: length}
	}
	return nil
}

// checkReplay decides what an existing submission means for a retry carrying
// idempotencyKey and payload document doc.
//
// A stored key that differs from the supplied one means the consent already
// has a submission under another key (AlreadyExists). A matching key outside
// its validity window is KeyExpired. A matching, live key with a different
// payload is BodyChanged. Only a matching key with an identical payload is a
// genuine replay, returned as the prior result rather than an error.
func checkReplay(existing *models.PaymentSubmission, idempotencyKey string, doc models.JSON, now time.Time) (*models.PaymentSubmission, error) {
	if existing.IdempotencyKey != idempotencyKey {
		return nil, &utils.AlreadyExistsError{ExistingID: existing.ID}
	}
	if now.Sub(existing.CreatedAt) > idempotencyKeyWindow {
		return nil, &utils.KeyExpiredError{
			Key:        idempotencyKey,
			ExistingID: existing.ID,
			CreatedAt:  existing.CreatedAt,
		}
	}
	if !existing.Payment.Equal(doc) {
		return nil, &utils.BodyChangedError{ExistingID: existing.ID}
	}
	return existing, nil
}
