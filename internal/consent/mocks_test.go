package consent

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/config"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
)

// MockConsentStore is a mock implementation of ConsentStoreInterface
type MockConsentStore struct {
	mock.Mock
}

func (m *MockConsentStore) Create(ctx context.Context, consent *model.Consent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *MockConsentStore) GetByID(ctx context.Context, consentID, instanceID string) (*model.Consent, error) {
	args := m.Called(ctx, consentID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Consent), args.Error(1)
}

func (m *MockConsentStore) UpdateStatus(ctx context.Context, consentID, instanceID string, consentStatus status.ConsentStatus, lastActionDate string, statusChangeTimestamp int64) error {
	args := m.Called(ctx, consentID, instanceID, consentStatus, lastActionDate, statusChangeTimestamp)
	return args.Error(0)
}

func (m *MockConsentStore) UpdateStatusWithTx(tx dbmodel.TxInterface, consentID, instanceID string, consentStatus status.ConsentStatus, lastActionDate string, statusChangeTimestamp int64) error {
	args := m.Called(tx, consentID, instanceID, consentStatus, lastActionDate, statusChangeTimestamp)
	return args.Error(0)
}

func (m *MockConsentStore) ExpireConsent(ctx context.Context, consentID, instanceID string, validUntil, lastActionDate string, statusChangeTimestamp int64) error {
	args := m.Called(ctx, consentID, instanceID, validUntil, lastActionDate, statusChangeTimestamp)
	return args.Error(0)
}

func (m *MockConsentStore) UpdateAccess(ctx context.Context, consent *model.Consent) error {
	args := m.Called(ctx, consent)
	return args.Error(0)
}

func (m *MockConsentStore) UpdatePsuDataList(ctx context.Context, consentID, instanceID string, psuDataList []psu.PsuData) error {
	args := m.Called(ctx, consentID, instanceID, psuDataList)
	return args.Error(0)
}

func (m *MockConsentStore) UpdateMultilevelScaRequired(ctx context.Context, consentID, instanceID string, multilevelSca bool) error {
	args := m.Called(ctx, consentID, instanceID, multilevelSca)
	return args.Error(0)
}

func (m *MockConsentStore) FindOldConsents(ctx context.Context, tppID, instanceID, excludeConsentID string) ([]model.Consent, error) {
	args := m.Called(ctx, tppID, instanceID, excludeConsentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Consent), args.Error(1)
}

func (m *MockConsentStore) FindExpirableConsents(ctx context.Context, today string) ([]model.Consent, error) {
	args := m.Called(ctx, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Consent), args.Error(1)
}

func (m *MockConsentStore) CreateUsage(ctx context.Context, usage *model.Usage) error {
	args := m.Called(ctx, usage)
	return args.Error(0)
}

func (m *MockConsentStore) CountUsagesForDate(ctx context.Context, consentID, instanceID, usageDate string) (int, error) {
	args := m.Called(ctx, consentID, instanceID, usageDate)
	return args.Int(0), args.Error(1)
}

func (m *MockConsentStore) GetUsages(ctx context.Context, consentID, instanceID string) ([]model.Usage, error) {
	args := m.Called(ctx, consentID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Usage), args.Error(1)
}

func (m *MockConsentStore) SaveTransactionSlot(ctx context.Context, slot *model.TransactionSlot) error {
	args := m.Called(ctx, slot)
	return args.Error(0)
}

func (m *MockConsentStore) GetTransactionSlots(ctx context.Context, consentID, instanceID string) ([]model.TransactionSlot, error) {
	args := m.Called(ctx, consentID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.TransactionSlot), args.Error(1)
}

// fakeExecutor runs the transaction queries inline with a nil tx so mock
// stores can record the per-row operations.
type fakeExecutor struct {
	executed int
	err      error
}

func (f *fakeExecutor) ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error {
	if f.err != nil {
		return f.err
	}
	f.executed++
	for _, query := range queries {
		if err := query(nil); err != nil {
			return err
		}
	}
	return nil
}

// fixedProfileProvider returns the same settings for every instance.
type fixedProfileProvider struct {
	settings config.ProfileSettings
}

func (p *fixedProfileProvider) Get(instanceID string) config.ProfileSettings {
	return p.settings
}
