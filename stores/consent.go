package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/obsandbox/paygate/models"
)

type ConsentStore struct {
	BaseStore
}

func CreateConsentStore(db *gorm.DB) *ConsentStore {
	return &ConsentStore{BaseStore: BaseStore{db: db}}
}

func (s *ConsentStore) Create(ctx context.Context, consent *models.Consent) error {
	return s.GetDB(ctx).Create(consent).Error
}

// FindByID returns (nil, nil) when no consent exists with the id.
func (s *ConsentStore) FindByID(ctx context.Context, id string) (*models.Consent, error) {
	var consent models.Consent
	err := s.GetDB(ctx).First(&consent, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &consent, nil
}

// UpdateStatus persists a status transition. The initiation and risk columns
// are deliberately never written after Create.
func (s *ConsentStore) UpdateStatus(ctx context.Context, id string, status models.ConsentStatus) error {
	return s.GetDB(ctx).
		Model(&models.Consent{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// Authorise records the payer's approval and the account the payment will be
// drawn from.
func (s *ConsentStore) Authorise(ctx context.Context, id, accountID string) error {
	return s.GetDB(ctx).
		Model(&models.Consent{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":                models.ConsentStatusAuthorised,
			"authorised_account_id": accountID,
		}).Error
}
