package services

import (
	"context"
	"sync"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

func cloneSubmission(s *models.PaymentSubmission) *models.PaymentSubmission {
	c := *s
	c.Payment = s.Payment.Clone()
	return &c
}

// memSubmissionStore is an in-memory SubmissionStore with the same uniqueness
// semantics as the real one: Insert is atomic under its lock, so two racing
// inserts of the same id resolve to exactly one winner.
type memSubmissionStore struct {
	mu      sync.Mutex
	records map[string]*models.PaymentSubmission
	calls   int
}

func newMemSubmissionStore() *memSubmissionStore {
	return &memSubmissionStore{records: map[string]*models.PaymentSubmission{}}
}

func (s *memSubmissionStore) FindByID(ctx context.Context, id string) (*models.PaymentSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if record, ok := s.records[id]; ok {
		return cloneSubmission(record), nil
	}
	return nil, nil
}

func (s *memSubmissionStore) FindByClientKey(ctx context.Context, apiClientID, idempotencyKey string) (*models.PaymentSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var latest *models.PaymentSubmission
	for _, record := range s.records {
		if record.APIClientID != apiClientID || record.IdempotencyKey != idempotencyKey {
			continue
		}
		if latest == nil || record.CreatedAt.After(latest.CreatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, nil
	}
	return cloneSubmission(latest), nil
}

func (s *memSubmissionStore) Insert(ctx context.Context, submission *models.PaymentSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if _, ok := s.records[submission.ID]; ok {
		return utils.ErrDuplicateSubmission
	}
	s.records[submission.ID] = cloneSubmission(submission)
	return nil
}

func (s *memSubmissionStore) Save(ctx context.Context, submission *models.PaymentSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.records[submission.ID] = cloneSubmission(submission)
	return nil
}

func (s *memSubmissionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *memSubmissionStore) accessCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeConsents struct {
	mu       sync.Mutex
	byID     map[string]*models.Consent
	consumed int
}

func newFakeConsents(consents ...*models.Consent) *fakeConsents {
	f := &fakeConsents{byID: map[string]*models.Consent{}}
	for _, c := range consents {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeConsents) Get(ctx context.Context, consentID, apiClientID string) (*models.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	consent, ok := f.byID[consentID]
	if !ok || consent.APIClientID != apiClientID {
		return nil, &utils.NotFoundError{Resource: "consent", ID: consentID}
	}
	copied := *consent
	return &copied, nil
}

func (f *fakeConsents) Consume(ctx context.Context, consentID, apiClientID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	consent, ok := f.byID[consentID]
	if !ok || consent.APIClientID != apiClientID {
		return &utils.NotFoundError{Resource: "consent", ID: consentID}
	}
	if consent.Status != models.ConsentStatusAuthorised {
		return &utils.ConsentNotAuthorisedError{ConsentID: consentID, Status: string(consent.Status)}
	}
	consent.Status = models.ConsentStatusConsumed
	f.consumed++
	return nil
}

func (f *fakeConsents) consumeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.consumed
}

func (f *fakeConsents) status(consentID string) models.ConsentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byID[consentID].Status
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string]*models.PaymentSubmission
	hits        int
	invalidated int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]*models.PaymentSubmission{}}
}

func (c *fakeCache) GetSubmission(ctx context.Context, id string) (*models.PaymentSubmission, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if submission, ok := c.entries[id]; ok {
		c.hits++
		return cloneSubmission(submission), true
	}
	return nil, false
}

func (c *fakeCache) SetSubmission(ctx context.Context, submission *models.PaymentSubmission) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[submission.ID] = cloneSubmission(submission)
}

func (c *fakeCache) InvalidateSubmission(ctx context.Context, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	c.invalidated++
}

// brokenStore reports a duplicate on insert but cannot produce the winning
// record, simulating an inconsistent backend.
type brokenStore struct {
	memSubmissionStore
}

func (s *brokenStore) Insert(ctx context.Context, submission *models.PaymentSubmission) error {
	return utils.ErrDuplicateSubmission
}

func (s *brokenStore) FindByID(ctx context.Context, id string) (*models.PaymentSubmission, error) {
	return nil, nil
}

// fakeConsentStorage backs ConsentService tests.
type fakeConsentStorage struct {
	mu   sync.Mutex
	byID map[string]*models.Consent
}

func newFakeConsentStorage(consents ...*models.Consent) *fakeConsentStorage {
	f := &fakeConsentStorage{byID: map[string]*models.Consent{}}
	for _, c := range consents {
		f.byID[c.ID] = c
	}
	return f
}

func (f *fakeConsentStorage) Create(ctx context.Context, consent *models.Consent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *consent
	f.byID[consent.ID] = &copied
	return nil
}

func (f *fakeConsentStorage) FindByID(ctx context.Context, id string) (*models.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if consent, ok := f.byID[id]; ok {
		copied := *consent
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeConsentStorage) UpdateStatus(ctx context.Context, id string, status models.ConsentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if consent, ok := f.byID[id]; ok {
		consent.Status = status
	}
	return nil
}

func (f *fakeConsentStorage) Authorise(ctx context.Context, id, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if consent, ok := f.byID[id]; ok {
		consent.Status = models.ConsentStatusAuthorised
		consent.AuthorisedAccountID = accountID
	}
	return nil
}

type fakeBalances struct {
	byAccount map[string]*models.AccountBalance
}

func (f *fakeBalances) FindByAccount(ctx context.Context, accountID string) (*models.AccountBalance, error) {
	if balance, ok := f.byAccount[accountID]; ok {
		return balance, nil
	}
	return nil, nil
}
