package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// ConsentStorage is the keyed document store consents live in. FindByID
// returns (nil, nil) when the id is unknown.
type ConsentStorage interface {
	Create(ctx context.Context, consent *models.Consent) error
	FindByID(ctx context.Context, id string) (*models.Consent, error)
	UpdateStatus(ctx context.Context, id string, status models.ConsentStatus) error
	Authorise(ctx context.Context, id, accountID string) error
}

// ConsentService owns the consent lifecycle: created awaiting authorisation,
// authorised out of band (here via the sandbox authorise operation), consumed
// by the submission engine for single-use types. The initiation and risk
// snapshot taken at creation is immutable.
type ConsentService struct {
	store  ConsentStorage
	logger *utils.Logger
}

func CreateConsentService(store ConsentStorage) *ConsentService {
	return &ConsentService{
		store:  store,
		logger: utils.NewLogger("consent"),
	}
}

func (s *ConsentService) Create(ctx context.Context, req *models.CreateConsentRequest) (*models.Consent, error) {
	if req.Initiation == nil {
		return nil, &utils.MissingFieldError{Field: "initiation"}
	}

	consent := &models.Consent{
		ID:          "pcon-" + uuid.NewString(),
		APIClientID: req.APIClientID,
		PaymentType: req.PaymentType,
		Status:      models.ConsentStatusAwaitingAuthorisation,
		Initiation:  req.Initiation.Clone(),
		Risk:        req.Risk.Clone(),
		Charges:     req.Charges.Clone(),
		OBVersion:   req.OBVersion,
	}

	if err := s.store.Create(ctx, consent); err != nil {
		return nil, fmt.Errorf("failed to create consent: %w", err)
	}

	s.logger.Info(ctx, "consent created", map[string]interface{}{
		"consent_id":   consent.ID,
		"payment_type": consent.PaymentType,
	})
	return consent, nil
}

// Get loads a consent owned by apiClientID. A consent belonging to another
// client reads as not-found.
func (s *ConsentService) Get(ctx context.Context, consentID, apiClientID string) (*models.Consent, error) {
	consent, err := s.store.FindByID(ctx, consentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load consent: %w", err)
	}
	if consent == nil || consent.APIClientID != apiClientID {
		return nil, &utils.NotFoundError{Resource: "consent", ID: consentID}
	}
	return consent, nil
}

// GetForVersion applies the resource version gate on top of Get, for boundary
// reads.
func (s *ConsentService) GetForVersion(ctx context.Context, consentID, apiClientID string, requestVersion models.VersionTag) (*models.Consent, error) {
	consent, err := s.Get(ctx, consentID, apiClientID)
	if err != nil {
		return nil, err
	}
	if err := CheckResourceVersion(requestVersion, consent.OBVersion); err != nil {
		return nil, err
	}
	return consent, nil
}

// Authorise moves an awaiting consent to Authorised and binds the debtor
// account. Any other starting status is a lifecycle conflict.
func (s *ConsentService) Authorise(ctx context.Context, consentID, apiClientID, accountID string) (*models.Consent, error) {
	consent, err := s.Get(ctx, consentID, apiClientID)
	if err != nil {
		return nil, err
	}
	if !consent.Authorisable() {
		return nil, &utils.ConsentStateTransitionError{
			ConsentID: consentID,
			From:      string(consent.Status),
			To:        string(models.ConsentStatusAuthorised),
		}
	}

	if err := s.store.Authorise(ctx, consentID, accountID); err != nil {
		return nil, fmt.Errorf("failed to authorise consent: %w", err)
	}

	consent.Status = models.ConsentStatusAuthorised
	consent.AuthorisedAccountID = accountID
	return consent, nil
}

// Consume marks a single-use consent as spent after its payment was
// submitted. Only Authorised consents can be consumed.
func (s *ConsentService) Consume(ctx context.Context, consentID, apiClientID string) error {
	consent, err := s.Get(ctx, consentID, apiClientID)
	if err != nil {
		return err
	}
	if consent.Status != models.ConsentStatusAuthorised {
		return &utils.ConsentNotAuthorisedError{
			ConsentID: consentID,
			Status:    string(consent.Status),
		}
	}

	if err := s.store.UpdateStatus(ctx, consentID, models.ConsentStatusConsumed); err != nil {
		return fmt.Errorf("failed to consume consent: %w", err)
	}

	s.logger.Info(ctx, "consent consumed", map[string]interface{}{
		"consent_id": consentID,
	})
	return nil
}
