package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

func TestValidateIdempotencyKey(t *testing.T) {
	require.NoError(t, ValidateIdempotencyKey("k"))
	require.NoError(t, ValidateIdempotencyKey(strings.Repeat("x", 40)))

	var invalid *utils.InvalidKeyError

	err := ValidateIdempotencyKey("")
	require.Error(t, err)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 0, invalid.Length)

	err = ValidateIdempotencyKey(strings.Repeat("x", 41))
	require.Error(t, err)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 41, invalid.Length)

	// The bound is 40 characters, not bytes.
	require.NoError(t, ValidateIdempotencyKey(strings.Repeat("é", 40)))

	err = ValidateIdempotencyKey(strings.Repeat("é", 41))
	require.Error(t, err)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, 41, invalid.Length)
}

func TestCheckReplay(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	doc := models.JSON{"initiation": map[string]interface{}{"amount": "100.00"}}

	existing := &models.PaymentSubmission{
		ID:             "pcon-1",
		IdempotencyKey: "key-1",
		Payment:        doc,
		CreatedAt:      now.Add(-time.Hour),
	}

	t.Run("matching key and body is a replay", func(t *testing.T) {
		result, err := checkReplay(existing, "key-1", doc, now)
		require.NoError(t, err)
		assert.Equal(t, existing, result)
	})

	t.Run("different key", func(t *testing.T) {
		_, err := checkReplay(existing, "key-2", doc, now)
		var alreadyExists *utils.AlreadyExistsError
		require.True(t, errors.As(err, &alreadyExists))
		assert.Equal(t, "pcon-1", alreadyExists.ExistingID)
	})

	t.Run("different body", func(t *testing.T) {
		changed := models.JSON{"initiation": map[string]interface{}{"amount": "200.00"}}
		_, err := checkReplay(existing, "key-1", changed, now)
		var bodyChanged *utils.BodyChangedError
		require.True(t, errors.As(err, &bodyChanged))
		assert.Equal(t, "pcon-1", bodyChanged.ExistingID)
	})

	t.Run("expired key", func(t *testing.T) {
		stale := &models.PaymentSubmission{
			ID:             "pcon-1",
			IdempotencyKey: "key-1",
			Payment:        doc,
			CreatedAt:      now.Add(-25 * time.Hour),
		}
		_, err := checkReplay(stale, "key-1", doc, now)
		var expired *utils.KeyExpiredError
		require.True(t, errors.As(err, &expired))
		assert.Equal(t, stale.CreatedAt, expired.CreatedAt)
	})

	t.Run("a record just inside the window replays", func(t *testing.T) {
		fresh := &models.PaymentSubmission{
			ID:             "pcon-1",
			IdempotencyKey: "key-1",
			Payment:        doc,
			CreatedAt:      now.Add(-24 * time.Hour),
		}
		result, err := checkReplay(fresh, "key-1", doc, now)
		require.NoError(t, err)
		assert.Equal(t, fresh, result)
	})
}
