package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// SubmissionStore is the keyed document store the engine persists submissions
// to. FindByID and FindByClientKey return (nil, nil) when no record matches.
// Insert returns utils.ErrDuplicateSubmission when the id is already taken;
// the store must enforce that uniqueness atomically.
type SubmissionStore interface {
	FindByID(ctx context.Context, id string) (*models.PaymentSubmission, error)
	FindByClientKey(ctx context.Context, apiClientID, idempotencyKey string) (*models.PaymentSubmission, error)
	Insert(ctx context.Context, submission *models.PaymentSubmission) error
	Save(ctx context.Context, submission *models.PaymentSubmission) error
}

// ConsentAccessor is what the engine needs from the consent capability.
type ConsentAccessor interface {
	Get(ctx context.Context, consentID, apiClientID string) (*models.Consent, error)
	Consume(ctx context.Context, consentID, apiClientID string) error
}

// SubmissionCache is an optional read cache consulted on lookups by id after
// the version gate has passed. The store stays the source of truth; the
// strategy-A reconciliation path never touches the cache.
type SubmissionCache interface {
	GetSubmission(ctx context.Context, id string) (*models.PaymentSubmission, bool)
	SetSubmission(ctx context.Context, submission *models.PaymentSubmission)
	InvalidateSubmission(ctx context.Context, id string)
}

type SubmitRequest struct {
	ConsentID      string
	APIClientID    string
	IdempotencyKey string
	Payment        models.PaymentRequest
	RequestVersion models.VersionTag
}

// SubmissionService orchestrates idempotent persistence of payment
// submissions. Per payment type it picks one of two strategies:
//
//   - single submission per consent: the submission id is forced to equal the
//     consent id and the store's uniqueness constraint arbitrates races;
//   - multi submission per consent (VRP): ids are generated, deduplication is
//     by (api client, idempotency key).
type SubmissionService struct {
	store    SubmissionStore
	consents ConsentAccessor
	cache    SubmissionCache
	now      func() time.Time
	logger   *utils.Logger
}

func CreateSubmissionService(store SubmissionStore, consents ConsentAccessor, cache SubmissionCache) *SubmissionService {
	return &SubmissionService{
		store:    store,
		consents: consents,
		cache:    cache,
		now:      time.Now,
		logger:   utils.NewLogger("submission"),
	}
}

// Submit processes one submission request at most once. Retries carrying the
// same idempotency key and payload get the original submission back; every
// other collision is a typed conflict.
func (s *SubmissionService) Submit(ctx context.Context, req *SubmitRequest) (*models.PaymentSubmission, error) {
	if err := ValidateIdempotencyKey(req.IdempotencyKey); err != nil {
		return nil, err
	}

	strategy := s.strategyFor(req.Payment.PaymentType)

	existing, err := strategy.findExisting(ctx, req)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Info(ctx, "idempotent replay", map[string]interface{}{
			"submission_id": existing.ID,
			"consent_id":    existing.ConsentID,
		})
		return existing, nil
	}

	consent, err := s.consents.Get(ctx, req.ConsentID, req.APIClientID)
	if err != nil {
		return nil, err
	}
	if consent.PaymentType != req.Payment.PaymentType {
		return nil, &utils.NotFoundError{Resource: "consent", ID: req.ConsentID}
	}

	if err := ValidateConsentBinding(req.Payment, consent); err != nil {
		return nil, err
	}

	now := s.now()
	submission := &models.PaymentSubmission{
		ConsentID:      req.ConsentID,
		APIClientID:    req.APIClientID,
		PaymentType:    req.Payment.PaymentType,
		Payment:        req.Payment.Document(),
		IdempotencyKey: req.IdempotencyKey,
		Status:         models.SubmissionStatusInitiationPending,
		OBVersion:      req.RequestVersion.String(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, created, err := strategy.persist(ctx, submission)
	if err != nil {
		return nil, err
	}

	if created && !req.Payment.PaymentType.MultiSubmission() {
		if err := s.consents.Consume(ctx, req.ConsentID, req.APIClientID); err != nil {
			return nil, &utils.InternalError{Op: "consent consume", Err: err}
		}
	}

	s.logger.Info(ctx, "payment submission processed", map[string]interface{}{
		"submission_id": result.ID,
		"consent_id":    result.ConsentID,
		"created":       created,
	})
	return result, nil
}

// Get returns a submission by id, gated on the protocol version it was
// created under. A submission belonging to another api client reads as
// not-found rather than leaking its existence.
func (s *SubmissionService) Get(ctx context.Context, id, apiClientID string, requestVersion models.VersionTag) (*models.PaymentSubmission, error) {
	submission, cached := s.cachedFind(ctx, id)
	if submission == nil {
		var err error
		submission, err = s.store.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load submission: %w", err)
		}
	}
	if submission == nil || submission.APIClientID != apiClientID {
		return nil, &utils.NotFoundError{Resource: "payment submission", ID: id}
	}

	if err := CheckResourceVersion(requestVersion, submission.OBVersion); err != nil {
		return nil, err
	}

	if !cached && s.cache != nil {
		s.cache.SetSubmission(ctx, submission)
	}
	return submission, nil
}

// UpdateStatus progresses a submission and invalidates its cache entry. The
// payment snapshot itself is immutable.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) (*models.PaymentSubmission, error) {
	submission, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	if submission == nil {
		return nil, &utils.NotFoundError{Resource: "payment submission", ID: id}
	}

	submission.Status = status
	submission.UpdatedAt = s.now()
	if err := s.store.Save(ctx, submission); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateSubmission(ctx, id)
	}
	return submission, nil
}

func (s *SubmissionService) cachedFind(ctx context.Context, id string) (*models.PaymentSubmission, bool) {
	if s.cache == nil {
		return nil, false
	}
	if submission, ok := s.cache.GetSubmission(ctx, id); ok {
		return submission, true
	}
	return nil, false
}

func (s *SubmissionService) strategyFor(paymentType models.PaymentType) idempotencyStrategy {
	if paymentType.MultiSubmission() {
		return &multiSubmissionStrategy{store: s.store, now: s.now}
	}
	return &singleSubmissionStrategy{store: s.store, now: s.now}
}

// idempotencyStrategy is the part of submission handling that differs between
// single-submission and multi-submission payment types. persist reports
// whether a new record was created, as opposed to a race resolved in favour
// of an existing identical one.
type idempotencyStrategy interface {
	findExisting(ctx context.Context, req *SubmitRequest) (*models.PaymentSubmission, error)
	persist(ctx context.Context, submission *models.PaymentSubmission) (*models.PaymentSubmission, bool, error)
}

// singleSubmissionStrategy holds the at-most-once guarantee for payment types
// allowing exactly one submission per consent. The submission id is the
// consent id, persistence is an optimistic insert, and a uniqueness conflict
// means another request won: the loser rereads the winner and re-runs the
// replay comparison instead of failing outright.
type singleSubmissionStrategy struct {
	store SubmissionStore
	now   func() time.Time
}

func (st *singleSubmissionStrategy) findExisting(ctx context.Context, req *SubmitRequest) (*models.PaymentSubmission, error) {
	existing, err := st.store.FindByID(ctx, req.ConsentID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up submission: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.APIClientID != req.APIClientID {
		// Another client's submission reads as absent; the consent fetch that
		// follows enforces ownership and turns this into not-found.
		return nil, nil
	}
	return checkReplay(existing, req.IdempotencyKey, req.Payment.Document(), st.now())
}

func (st *singleSubmissionStrategy) persist(ctx context.Context, submission *models.PaymentSubmission) (*models.PaymentSubmission, bool, error) {
	submission.ID = submission.ConsentID

	err := st.store.Insert(ctx, submission)
	if err == nil {
		return submission, true, nil
	}
	if !errors.Is(err, utils.ErrDuplicateSubmission) {
		return nil, false, fmt.Errorf("failed to insert submission: %w", err)
	}

	// Lost the race. The winner's record must be visible now that the insert
	// conflicted; its absence means the store is inconsistent.
	winner, ferr := st.store.FindByID(ctx, submission.ID)
	if ferr != nil {
		return nil, false, fmt.Errorf("failed to reread submission after conflict: %w", ferr)
	}
	if winner == nil {
		return nil, false, &utils.InternalError{
			Op:  "submission reconcile",
			Err: fmt.Errorf("insert conflicted on id %s but no record could be reread", submission.ID),
		}
	}

	result, rerr := checkReplay(winner, submission.IdempotencyKey, submission.Payment, st.now())
	if rerr != nil {
		return nil, false, rerr
	}
	return result, false, nil
}

// multiSubmissionStrategy serves payment types permitting many submissions
// per consent (VRP). Ids are generated and deduplication is a lookup on
// (api client id, idempotency key).
//
// Unlike the single-submission strategy this is an unprotected read-then-
// write: two concurrent requests with the same key can both persist before
// either observes the other. That is an accepted limitation for a facility
// that moves no real funds; hardening it requires a unique index on
// (api_client_id, idempotency_key), which would also change observable
// behavior by rejecting races that today double-create.
type multiSubmissionStrategy struct {
	store SubmissionStore
	now   func() time.Time
}

func (st *multiSubmissionStrategy) findExisting(ctx context.Context, req *SubmitRequest) (*models.PaymentSubmission, error) {
	existing, err := st.store.FindByClientKey(ctx, req.APIClientID, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up submission: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.ConsentID != req.ConsentID {
		// Same key recycled against a different consent is key reuse, not a
		// retry.
		return nil, &utils.BodyChangedError{ExistingID: existing.ID}
	}
	return checkReplay(existing, req.IdempotencyKey, req.Payment.Document(), st.now())
}

func (st *multiSubmissionStrategy) persist(ctx context.Context, submission *models.PaymentSubmission) (*models.PaymentSubmission, bool, error) {
	submission.ID = "pvrp-" + uuid.NewString()

	if err := st.store.Insert(ctx, submission); err != nil {
		if errors.Is(err, utils.ErrDuplicateSubmission) {
			// Generated ids do not collide with client state; a conflict here
			// is a store fault.
			return nil, false, &utils.InternalError{Op: "submission insert", Err: err}
		}
		return nil, false, fmt.Errorf("failed to insert submission: %w", err)
	}
	return submission, true, nil
}
