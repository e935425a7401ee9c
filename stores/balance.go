package stores

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/obsandbox/paygate/models"
)

type BalanceStore struct {
	BaseStore
}

func CreateBalanceStore(db *gorm.DB) *BalanceStore {
	return &BalanceStore{BaseStore: BaseStore{db: db}}
}

func (s *BalanceStore) FindByAccount(ctx context.Context, accountID string) (*models.AccountBalance, error) {
	var balance models.AccountBalance
	err := s.GetDB(ctx).First(&balance, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &balance, nil
}

func (s *BalanceStore) Upsert(ctx context.Context, balance *models.AccountBalance) error {
	return s.GetDB(ctx).Save(balance).Error
}
