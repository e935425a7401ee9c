package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/services"
	"github.com/obsandbox/paygate/utils"
)

type SubmissionHandler struct {
	submissions *services.SubmissionService
	logger      *utils.Logger
}

func CreateSubmissionHandler(submissions *services.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		logger:      utils.NewLogger("api"),
	}
}

type createSubmissionRequest struct {
	ConsentID  string      `json:"consent_id"`
	Initiation models.JSON `json:"initiation"`
	Risk       models.JSON `json:"risk,omitempty"`
}

func (h *SubmissionHandler) HandleCreateDomesticPayment(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.PaymentTypeDomestic)
}

func (h *SubmissionHandler) HandleGetDomesticPayment(w http.ResponseWriter, r *http.Request) {
	h.get(w, r)
}

func (h *SubmissionHandler) HandleCreateFilePayment(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.PaymentTypeFile)
}

func (h *SubmissionHandler) HandleGetFilePayment(w http.ResponseWriter, r *http.Request) {
	h.get(w, r)
}

func (h *SubmissionHandler) HandleCreateDomesticVRP(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.PaymentTypeDomesticVRP)
}

func (h *SubmissionHandler) HandleGetDomesticVRP(w http.ResponseWriter, r *http.Request) {
	h.get(w, r)
}

func (h *SubmissionHandler) create(w http.ResponseWriter, r *http.Request, paymentType models.PaymentType) {
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

	var req createSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body", Code: "validation_error"})
		return
	}
	if req.ConsentID == "" {
		writeError(w, &utils.MissingFieldError{Field: "consent_id"})
		return
	}
	if req.Initiation == nil {
		writeError(w, &utils.MissingFieldError{Field: "initiation"})
		return
	}

	ctx := utils.WithAPIClientID(r.Context(), clientID)
	submission, err := h.submissions.Submit(ctx, &services.SubmitRequest{
		ConsentID:      req.ConsentID,
		APIClientID:    clientID,
		IdempotencyKey: r.Header.Get(headerIdempotencyKey),
		Payment: models.PaymentRequest{
			PaymentType: paymentType,
			Initiation:  req.Initiation,
			Risk:        req.Risk,
		},
		RequestVersion: version,
	})
	if err != nil {
		if utils.KindOf(err) == utils.KindInternal {
			h.logger.Error(ctx, "submission failed", map[string]interface{}{"error": err.Error()})
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, submission)
}

func (h *SubmissionHandler) get(w http.ResponseWriter, r *http.Request) {
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
	ctx := utils.WithAPIClientID(r.Context(), clientID)
	submission, err := h.submissions.Get(ctx, id, clientID, version)
	if err != nil {
		if utils.KindOf(err) == utils.KindInternal {
			h.logger.Error(ctx, "submission read failed", map[string]interface{}{"error": err.Error()})
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submission)
}
