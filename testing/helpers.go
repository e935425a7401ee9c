package testing

import (
	"context"
	"time"

	"github.com/obsandbox/paygate/models"
)

func MockInitiation() models.JSON {
	return models.JSON{
		"instructionIdentification": "instr-001",
		"endToEndIdentification":    "e2e-001",
		"instructedAmount": map[string]interface{}{
			"amount":   "100.00",
			"currency": "GBP",
		},
		"creditorAccount": map[string]interface{}{
			"schemeName":     "SortCodeAccountNumber",
			"identification": "08080021325698",
			"name":           "ACME Inc",
		},
	}
}

func MockRisk() models.JSON {
	return models.JSON{
		"paymentContextCode":   "EcommerceGoods",
		"merchantCategoryCode": "5967",
	}
}

func MockConsent() *models.Consent {
	return &models.Consent{
		ID:                  "pcon-test123",
		APIClientID:         "client-test123",
		PaymentType:         models.PaymentTypeDomestic,
		Status:              models.ConsentStatusAuthorised,
		Initiation:          MockInitiation(),
		Risk:                MockRisk(),
		AuthorisedAccountID: "acc-test123",
		OBVersion:           "3.1.5",
		CreatedAt:           time.Now(),
		UpdatedAt:           time.Now(),
	}
}

func MockPaymentRequest() models.PaymentRequest {
	return models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  MockInitiation(),
		Risk:        MockRisk(),
	}
}

func MockSubmission() *models.PaymentSubmission {
	req := MockPaymentRequest()
	return &models.PaymentSubmission{
		ID:             "pcon-test123",
		ConsentID:      "pcon-test123",
		APIClientID:    "client-test123",
		PaymentType:    models.PaymentTypeDomestic,
		Payment:        req.Document(),
		IdempotencyKey: "idem-test123",
		Status:         models.SubmissionStatusInitiationPending,
		OBVersion:      "3.1.5",
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}

func MockContext() context.Context {
	return context.Background()
}
