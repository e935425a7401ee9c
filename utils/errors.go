package utils

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorKind classifies engine errors for the boundary layer. The engine never
// produces wire payloads itself; handlers translate kinds into status codes.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindConflict
	KindNotFound
	KindInternal
)

type kinded interface {
	Kind() ErrorKind
}

// ErrDuplicateSubmission is returned by the submission store when an insert
// hits the primary-key uniqueness constraint. The submission service treats it
// as "somebody else won the race" and reconciles against the winning record.
var ErrDuplicateSubmission = errors.New("submission already exists")

// InvalidKeyError rejects a malformed idempotency key before any store access.
type InvalidKeyError struct {
	Key    string
	Length int
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("invalid idempotency key: length %d, must be between 1 and 40", e.Length)
}

func (e *InvalidKeyError) Kind() ErrorKind { return KindValidation }

// MissingFieldError rejects a request lacking a required field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %s", e.Field)
}

func (e *MissingFieldError) Kind() ErrorKind { return KindValidation }

// InvalidVersionError rejects a protocol version identifier that does not
// parse as major.minor[.patch].
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid protocol version %q", e.Version)
}

func (e *InvalidVersionError) Kind() ErrorKind { return KindValidation }

// FieldDiff is one divergence between the submitted initiation document and
// the consent's snapshot, with the JSON path of the offending field.
type FieldDiff struct {
	Path     string      `json:"path"`
	Expected interface{} `json:"expected,omitempty"`
	Actual   interface{} `json:"actual,omitempty"`
}

type InitiationMismatchError struct {
	ConsentID string
	Diffs     []FieldDiff
}

func (e *InitiationMismatchError) Error() string {
	if len(e.Diffs) > 0 {
		return fmt.Sprintf("payment initiation does not match consent %s: %d field(s) differ, first at %s", e.ConsentID, len(e.Diffs), e.Diffs[0].Path)
	}
	return fmt.Sprintf("payment initiation does not match consent %s", e.ConsentID)
}

func (e *InitiationMismatchError) Kind() ErrorKind { return KindValidation }

type RiskMismatchError struct {
	ConsentID string
}

func (e *RiskMismatchError) Error() string {
	return fmt.Sprintf("payment risk data does not match consent %s", e.ConsentID)
}

func (e *RiskMismatchError) Kind() ErrorKind { return KindValidation }

type ConsentNotAuthorisedError struct {
	ConsentID string
	Status    string
}

func (e *ConsentNotAuthorisedError) Error() string {
	return fmt.Sprintf("consent %s is not authorised: status is %s", e.ConsentID, e.Status)
}

func (e *ConsentNotAuthorisedError) Kind() ErrorKind { return KindConflict }

// ConsentStateTransitionError rejects a consent status transition that the
// monotonic lifecycle does not permit.
type ConsentStateTransitionError struct {
	ConsentID string
	From      string
	To        string
}

func (e *ConsentStateTransitionError) Error() string {
	return fmt.Sprintf("consent %s cannot move from %s to %s", e.ConsentID, e.From, e.To)
}

func (e *ConsentStateTransitionError) Kind() ErrorKind { return KindConflict }

// AlreadyExistsError: a submission exists for the consent but was created
// under a different idempotency key.
type AlreadyExistsError struct {
	ExistingID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("a payment submission already exists with id %s", e.ExistingID)
}

func (e *AlreadyExistsError) Kind() ErrorKind { return KindConflict }

// BodyChangedError: the idempotency key matches an existing submission but
// the payload differs, so this is key reuse rather than a retry.
type BodyChangedError struct {
	ExistingID string
}

func (e *BodyChangedError) Error() string {
	return fmt.Sprintf("idempotency key was already used with a different payload by submission %s", e.ExistingID)
}

func (e *BodyChangedError) Kind() ErrorKind { return KindConflict }

type KeyExpiredError struct {
	Key        string
	ExistingID string
	CreatedAt  time.Time
}

func (e *KeyExpiredError) Error() string {
	return fmt.Sprintf("idempotency key expired: submission %s was created at %s", e.ExistingID, e.CreatedAt.Format(time.RFC3339))
}

func (e *KeyExpiredError) Kind() ErrorKind { return KindConflict }

// VersionConflictError: the resource was created under a newer protocol
// version than the caller's.
type VersionConflictError struct {
	RequestVersion  string
	ResourceVersion string
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("resource created under version %s cannot be accessed under version %s", e.ResourceVersion, e.RequestVersion)
}

func (e *VersionConflictError) Kind() ErrorKind { return KindConflict }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func (e *NotFoundError) Kind() ErrorKind { return KindNotFound }

// InternalError wraps unexpected store failures, including the one case where
// an insert reported a conflict but the winning record could not be reread.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("internal error during %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("internal error during %s", e.Op)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Kind() ErrorKind { return KindInternal }

// KindOf reports the taxonomy kind of err, walking wrapped errors. Anything
// untyped is internal.
func KindOf(err error) ErrorKind {
	for err != nil {
		if k, ok := err.(kinded); ok {
			return k.Kind()
		}
		err = errors.Unwrap(err)
	}
	return KindInternal
}

// HTTPStatus maps an engine error to the status code the boundary responds
// with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func WrapError(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}
