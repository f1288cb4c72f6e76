package payment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/psd2hub/consent-cms/internal/payment/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/config"
)

// MockPaymentStore is a mock implementation of PaymentStoreInterface
type MockPaymentStore struct {
	mock.Mock
}

func (m *MockPaymentStore) Create(ctx context.Context, payment *model.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *MockPaymentStore) GetByID(ctx context.Context, paymentID, instanceID string) (*model.Payment, error) {
	args := m.Called(ctx, paymentID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentStore) UpdateStatus(ctx context.Context, paymentID, instanceID string, transactionStatus status.TransactionStatus, statusChangeTimestamp int64) error {
	args := m.Called(ctx, paymentID, instanceID, transactionStatus, statusChangeTimestamp)
	return args.Error(0)
}

func (m *MockPaymentStore) UpdatePsuDataList(ctx context.Context, paymentID, instanceID string, psuDataList []psu.PsuData) error {
	args := m.Called(ctx, paymentID, instanceID, psuDataList)
	return args.Error(0)
}

func (m *MockPaymentStore) UpdateMultilevelScaRequired(ctx context.Context, paymentID, instanceID string, multilevelSca bool) error {
	args := m.Called(ctx, paymentID, instanceID, multilevelSca)
	return args.Error(0)
}

// fixedProfileProvider returns the same settings for every instance.
type fixedProfileProvider struct {
	settings config.ProfileSettings
}

func (p *fixedProfileProvider) Get(instanceID string) config.ProfileSettings {
	return p.settings
}
