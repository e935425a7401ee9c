package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsandbox/paygate/models"
	paytest "github.com/obsandbox/paygate/testing"
	"github.com/obsandbox/paygate/utils"
)

func newFundsService(consents ...*models.Consent) *FundsService {
	balances := &fakeBalances{byAccount: map[string]*models.AccountBalance{
		"acc-test123": {AccountID: "acc-test123", Amount: 10000, Currency: "GBP"},
	}}
	return CreateFundsService(CreateConsentService(newFakeConsentStorage(consents...)), balances)
}

func TestIsFundsAvailable(t *testing.T) {
	svc := newFundsService(paytest.MockConsent())

	tests := []struct {
		name   string
		amount int64
		want   bool
	}{
		{"below balance", 5000, true},
		{"exactly the balance", 10000, true},
		{"above balance", 10001, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			available, err := svc.IsFundsAvailable(context.Background(), "pcon-test123", "client-test123", tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want, available)
		})
	}
}

func TestIsFundsAvailableRequiresAuthorisedConsent(t *testing.T) {
	consent := paytest.MockConsent()
	consent.Status = models.ConsentStatusAwaitingAuthorisation
	svc := newFundsService(consent)

	_, err := svc.IsFundsAvailable(context.Background(), "pcon-test123", "client-test123", 100)

	var authErr *utils.ConsentNotAuthorisedError
	require.ErrorAs(t, err, &authErr)
}

func TestAccountFundsAvailableUnknownAccount(t *testing.T) {
	svc := newFundsService()

	_, err := svc.AccountFundsAvailable(context.Background(), "acc-ghost", 100)

	var notFoundErr *utils.NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}
