package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

const (
	headerIdempotencyKey = "x-idempotency-key"
	headerAPIClientID    = "x-api-client-id"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// Conflict context, populated when known so the caller can locate the
	// state it collided with.
	ExistingSubmissionID string            `json:"existing_submission_id,omitempty"`
	ResourceVersion      string            `json:"resource_version,omitempty"`
	ConsentStatus        string            `json:"consent_status,omitempty"`
	FieldMismatches      []utils.FieldDiff `json:"field_mismatches,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// writeError translates a typed engine error into the wire response. The
// engine itself never shapes payloads; everything protocol-specific lives
// here.
func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error(), Code: kindCode(err)}

	var alreadyExists *utils.AlreadyExistsError
	var bodyChanged *utils.BodyChangedError
	var keyExpired *utils.KeyExpiredError
	var versionConflict *utils.VersionConflictError
	var notAuthorised *utils.ConsentNotAuthorisedError
	var initiationMismatch *utils.InitiationMismatchError

	switch {
	case errors.As(err, &alreadyExists):
		resp.ExistingSubmissionID = alreadyExists.ExistingID
	case errors.As(err, &bodyChanged):
		resp.ExistingSubmissionID = bodyChanged.ExistingID
	case errors.As(err, &keyExpired):
		resp.ExistingSubmissionID = keyExpired.ExistingID
	case errors.As(err, &versionConflict):
		resp.ResourceVersion = versionConflict.ResourceVersion
	case errors.As(err, &notAuthorised):
		resp.ConsentStatus = notAuthorised.Status
	case errors.As(err, &initiationMismatch):
		resp.FieldMismatches = initiationMismatch.Diffs
	}

	status := utils.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		// Do not leak internals; the full error is in the logs.
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}

func kindCode(err error) string {
	switch utils.KindOf(err) {
	case utils.KindValidation:
		return "validation_error"
	case utils.KindConflict:
		return "conflict"
	case utils.KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

// requestVersion parses the protocol version from the route's {version} path
// variable.
func requestVersion(r *http.Request) (models.VersionTag, error) {
	raw := mux.Vars(r)["version"]
	if raw == "" {
		return models.VersionTag{}, &utils.MissingFieldError{Field: "version"}
	}
	version, err := models.ParseVersion(raw)
	if err != nil {
		return models.VersionTag{}, &utils.InvalidVersionError{Version: raw}
	}
	return version, nil
}

func apiClientID(r *http.Request) (string, error) {
	clientID := r.Header.Get(headerAPIClientID)
	if clientID == "" {
		return "", &utils.MissingFieldError{Field: headerAPIClientID}
	}
	return clientID, nil
}
