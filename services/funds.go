package services

import (
	"context"
	"fmt"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// BalanceStorage backs funds confirmation. FindByAccount returns (nil, nil)
// for unknown accounts.
type BalanceStorage interface {
	FindByAccount(ctx context.Context, accountID string) (*models.AccountBalance, error)
}

// FundsService answers funds-confirmation queries against the account an
// authorised consent is bound to. It is separable from the idempotency
// engine: nothing here reads or writes submissions.
type FundsService struct {
	consents *ConsentService
	balances BalanceStorage
	logger   *utils.Logger
}

func CreateFundsService(consents *ConsentService, balances BalanceStorage) *FundsService {
	return &FundsService{
		consents: consents,
		balances: balances,
		logger:   utils.NewLogger("funds"),
	}
}

// IsFundsAvailable reports whether the consented account covers amount (in
// minor units). The consent must be Authorised: before authorisation there is
// no account to check, and a consumed consent has already spent its payment.
func (s *FundsService) IsFundsAvailable(ctx context.Context, consentID, apiClientID string, amount int64) (bool, error) {
	consent, err := s.consents.Get(ctx, consentID, apiClientID)
	if err != nil {
		return false, err
	}
	if consent.Status != models.ConsentStatusAuthorised {
		return false, &utils.ConsentNotAuthorisedError{
			ConsentID: consentID,
			Status:    string(consent.Status),
		}
	}
	return s.AccountFundsAvailable(ctx, consent.AuthorisedAccountID, amount)
}

func (s *FundsService) AccountFundsAvailable(ctx context.Context, accountID string, amount int64) (bool, error) {
	balance, err := s.balances.FindByAccount(ctx, accountID)
	if err != nil {
		return false, fmt.Errorf("failed to load balance: %w", err)
	}
	if balance == nil {
		return false, &utils.NotFoundError{Resource: "account balance", ID: accountID}
	}
	return balance.Amount >= amount, nil
}
