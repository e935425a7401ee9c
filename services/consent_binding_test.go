package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

func testInitiation() models.JSON {
	return models.JSON{
		"instructionIdentification": "instr-001",
		"instructedAmount": map[string]interface{}{
			"amount":   "100.00",
			"currency": "GBP",
		},
		"creditorAccount": map[string]interface{}{
			"schemeName":     "SortCodeAccountNumber",
			"identification": "08080021325698",
		},
	}
}

func testRisk() models.JSON {
	return models.JSON{"paymentContextCode": "EcommerceGoods"}
}

func authorisedConsent() *models.Consent {
	return &models.Consent{
		ID:          "pcon-1",
		PaymentType: models.PaymentTypeDomestic,
		Status:      models.ConsentStatusAuthorised,
		Initiation:  testInitiation(),
		Risk:        testRisk(),
	}
}

func TestValidateConsentBinding_Match(t *testing.T) {
	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  testInitiation(),
		Risk:        testRisk(),
	}
	require.NoError(t, ValidateConsentBinding(payment, authorisedConsent()))
}

func TestValidateConsentBinding_StatusGate(t *testing.T) {
	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  testInitiation(),
		Risk:        testRisk(),
	}

	for _, status := range []models.ConsentStatus{
		models.ConsentStatusAwaitingAuthorisation,
		models.ConsentStatusConsumed,
		models.ConsentStatusRejected,
	} {
		consent := authorisedConsent()
		consent.Status = status

		err := ValidateConsentBinding(payment, consent)
		var notAuthorised *utils.ConsentNotAuthorisedError
		require.True(t, errors.As(err, &notAuthorised), "status %s", status)
		assert.Equal(t, string(status), notAuthorised.Status)
	}
}

func TestValidateConsentBinding_StatusCheckedBeforeFields(t *testing.T) {
	// An exactly matching instruction is still rejected against a consumed
	// consent.
	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  testInitiation(),
		Risk:        testRisk(),
	}
	consent := authorisedConsent()
	consent.Status = models.ConsentStatusConsumed

	err := ValidateConsentBinding(payment, consent)
	var notAuthorised *utils.ConsentNotAuthorisedError
	require.True(t, errors.As(err, &notAuthorised))
	assert.Equal(t, "Consumed", notAuthorised.Status)
}

func TestValidateConsentBinding_InitiationMismatch(t *testing.T) {
	initiation := testInitiation()
	initiation["instructedAmount"].(map[string]interface{})["amount"] = "200.00"
	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  initiation,
		Risk:        testRisk(),
	}

	err := ValidateConsentBinding(payment, authorisedConsent())
	var mismatch *utils.InitiationMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Len(t, mismatch.Diffs, 1)
	assert.Equal(t, "instructedAmount.amount", mismatch.Diffs[0].Path)
	assert.Equal(t, "100.00", mismatch.Diffs[0].Expected)
	assert.Equal(t, "200.00", mismatch.Diffs[0].Actual)
}

func TestValidateConsentBinding_MissingAndExtraFields(t *testing.T) {
	initiation := testInitiation()
	delete(initiation, "instructionIdentification")
	initiation["localInstrument"] = "UK.OBIE.FPS"
	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  initiation,
		Risk:        testRisk(),
	}

	err := ValidateConsentBinding(payment, authorisedConsent())
	var mismatch *utils.InitiationMismatchError
	require.True(t, errors.As(err, &mismatch))

	paths := make([]string, 0, len(mismatch.Diffs))
	for _, d := range mismatch.Diffs {
		paths = append(paths, d.Path)
	}
	assert.Contains(t, paths, "instructionIdentification")
	assert.Contains(t, paths, "localInstrument")
}

func TestValidateConsentBinding_RiskMismatch(t *testing.T) {
	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeDomestic,
		Initiation:  testInitiation(),
		Risk:        models.JSON{"paymentContextCode": "BillPayment"},
	}

	err := ValidateConsentBinding(payment, authorisedConsent())
	var riskMismatch *utils.RiskMismatchError
	require.True(t, errors.As(err, &riskMismatch))
}

func TestValidateConsentBinding_FilePaymentSkipsRisk(t *testing.T) {
	consent := authorisedConsent()
	consent.PaymentType = models.PaymentTypeFile
	consent.Risk = nil

	payment := models.PaymentRequest{
		PaymentType: models.PaymentTypeFile,
		Initiation:  testInitiation(),
		// No risk object at all; file payments carry none.
	}
	require.NoError(t, ValidateConsentBinding(payment, consent))
}
