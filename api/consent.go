package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/services"
	"github.com/obsandbox/paygate/utils"
)

type ConsentHandler struct {
	consents *services.ConsentService
	funds    *services.FundsService
	logger   *utils.Logger
}

func CreateConsentHandler(consents *services.ConsentService, funds *services.FundsService) *ConsentHandler {
	return &ConsentHandler{
		consents: consents,
		funds:    funds,
		logger:   utils.NewLogger("api"),
	}
}

type createConsentRequest struct {
	PaymentType models.PaymentType `json:"payment_type"`
	Initiation  models.JSON        `json:"initiation"`
	Risk        models.JSON        `json:"risk,omitempty"`
	Charges     models.JSON        `json:"charges,omitempty"`
}

func (h *ConsentHandler) HandleCreateConsent(w http.ResponseWriter, r *http.Request) {
	version, err := requestVersion(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clientID, err := apiClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req createConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "validation_error"})
		return
	}

	switch req.PaymentType {
	case models.PaymentTypeDomestic, models.PaymentTypeFile, models.PaymentTypeDomesticVRP:
	default:
		writeError(w, &utils.MissingFieldError{Field: "payment_type"})
		return
	}

	consent, err := h.consents.Create(utils.WithAPIClientID(r.Context(), clientID), &models.CreateConsentRequest{
		APIClientID: clientID,
		PaymentType: req.PaymentType,
		Initiation:  req.Initiation,
		Risk:        req.Risk,
		Charges:     req.Charges,
		OBVersion:   version.String(),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, consent)
}

func (h *ConsentHandler) HandleGetConsent(w http.ResponseWriter, r *http.Request) {
	version, err := requestVersion(r)
	if err != nil {
		writeError(w, err)
		return
	}
	clientID, err := apiClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	id := mux.Vars(r)["id"]
	consent, err := h.consents.GetForVersion(utils.WithAPIClientID(r.Context(), clientID), id, clientID, version)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, consent)
}

// HandleAuthoriseConsent is the sandbox stand-in for the out-of-band payer
// authorisation flow: it binds the debtor account and moves the consent to
// Authorised.
func (h *ConsentHandler) HandleAuthoriseConsent(w http.ResponseWriter, r *http.Request) {
	clientID, err := apiClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req models.AuthoriseConsentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "validation_error"})
		return
	}
	if req.AccountID == "" {
		writeError(w, &utils.MissingFieldError{Field: "account_id"})
		return
	}

	id := mux.Vars(r)["id"]
	consent, err := h.consents.Authorise(utils.WithAPIClientID(r.Context(), clientID), id, clientID, req.AccountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, consent)
}

func (h *ConsentHandler) HandleFundsConfirmation(w http.ResponseWriter, r *http.Request) {
	clientID, err := apiClientID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	amount, err := strconv.ParseInt(r.URL.Query().Get("amount"), 10, 64)
	if err != nil || amount < 0 {
		writeError(w, &utils.MissingFieldError{Field: "amount"})
		return
	}

	id := mux.Vars(r)["id"]
	available, err := h.funds.IsFundsAvailable(utils.WithAPIClientID(r.Context(), clientID), id, clientID, amount)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, models.FundsConfirmationResponse{
		FundsAvailable: available,
		CheckedAt:      time.Now(),
	})
}
