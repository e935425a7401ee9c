package stores

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// pgUniqueViolation is the SQLSTATE Postgres raises when an insert breaks a
// uniqueness constraint.
const pgUniqueViolation = "23505"

// SubmissionStore is the keyed document store for payment submissions.
// Uniqueness of the primary key is enforced atomically by Postgres, which is
// what the single-submission strategy's optimistic insert relies on.
type SubmissionStore struct {
	BaseStore
}

func CreateSubmissionStore(db *gorm.DB) *SubmissionStore {
	return &SubmissionStore{BaseStore: BaseStore{db: db}}
}

// FindByID returns (nil, nil) when no submission exists with the id.
func (s *SubmissionStore) FindByID(ctx context.Context, id string) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	err := s.GetDB(ctx).First(&submission, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// FindByClientKey looks up the most recent submission created by the client
// under the idempotency key. Expiry of the key is the caller's concern: the
// store returns the record either way so that an expired key can be rejected
// rather than silently reused.
func (s *SubmissionStore) FindByClientKey(ctx context.Context, apiClientID, idempotencyKey string) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	err := s.GetDB(ctx).
		Where("api_client_id = ? AND idempotency_key = ?", apiClientID, idempotencyKey).
		Order("created_at DESC").
		First(&submission).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// Insert persists a new submission, translating the store's uniqueness
// conflict into utils.ErrDuplicateSubmission so callers can reconcile against
// the record that won the race.
func (s *SubmissionStore) Insert(ctx context.Context, submission *models.PaymentSubmission) error {
	err := s.GetDB(ctx).Create(submission).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return utils.ErrDuplicateSubmission
	}
	return err
}

func (s *SubmissionStore) Save(ctx context.Context, submission *models.PaymentSubmission) error {
	return s.GetDB(ctx).Save(submission).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
