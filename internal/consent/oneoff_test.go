package consent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/system/config"
)

func oneOffConsent(requestType model.RequestType) *model.Consent {
	return &model.Consent{
		ConsentID:          "consent-1",
		RequestType:        requestType,
		RecurringIndicator: false,
		FrequencyPerDay:    1,
		InstanceID:         testInstanceID,
	}
}

func newOneOffService(store *MockConsentStore, bookingStatuses ...string) OneOffExpirationServiceInterface {
	return NewOneOffExpirationService(store, &fixedProfileProvider{
		settings: config.ProfileSettings{AvailableBookingStatuses: bookingStatuses},
	})
}

func TestOneOffRecurringConsentNeverExpires(t *testing.T) {
	store := &MockConsentStore{}
	service := newOneOffService(store)

	consent := oneOffConsent(model.RequestTypeDedicated)
	consent.RecurringIndicator = true

	expired, err := service.IsConsentExpired(context.Background(), consent)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestOneOffBankOfferedNeverExhausts(t *testing.T) {
	store := &MockConsentStore{}
	service := newOneOffService(store)

	expired, err := service.IsConsentExpired(context.Background(), oneOffConsent(model.RequestTypeBankOffered))
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestOneOffAllAvailableIsSpentImmediately(t *testing.T) {
	store := &MockConsentStore{}
	service := newOneOffService(store)

	expired, err := service.IsConsentExpired(context.Background(), oneOffConsent(model.RequestTypeAllAvailable))
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestOneOffGlobalWithoutReconciliationSupport(t *testing.T) {
	store := &MockConsentStore{}
	service := newOneOffService(store, "BOOKED", "PENDING")

	expired, err := service.IsConsentExpired(context.Background(), oneOffConsent(model.RequestTypeGlobal))
	require.NoError(t, err)
	assert.True(t, expired)
}

func TestOneOffGlobalWithReconciliationAndNoResources(t *testing.T) {
	store := &MockConsentStore{}
	service := newOneOffService(store, "ALL")

	consent := oneOffConsent(model.RequestTypeGlobal)
	store.On("GetTransactionSlots", mock.Anything, consent.ConsentID, testInstanceID).
		Return([]model.TransactionSlot{}, nil)

	expired, err := service.IsConsentExpired(context.Background(), consent)
	require.NoError(t, err)
	assert.False(t, expired)
}

func TestOneOffDedicatedReconciliation(t *testing.T) {
	account := model.AccountReference{Iban: "DE02100100109307118603", ResourceID: "res-1"}

	newDedicated := func() *model.Consent {
		consent := oneOffConsent(model.RequestTypeDedicated)
		consent.Access = model.AccountAccess{
			Balances:     []model.AccountReference{account},
			Transactions: []model.AccountReference{account},
		}
		return consent
	}

	t.Run("unused consent is not exhausted", func(t *testing.T) {
		store := &MockConsentStore{}
		service := newOneOffService(store)
		consent := newDedicated()

		store.On("GetTransactionSlots", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.TransactionSlot{}, nil)
		store.On("GetUsages", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.Usage{}, nil)

		expired, err := service.IsConsentExpired(context.Background(), consent)
		require.NoError(t, err)
		assert.False(t, expired)
	})

	t.Run("balance and transaction reads consume the consent", func(t *testing.T) {
		store := &MockConsentStore{}
		service := newOneOffService(store)
		consent := newDedicated()

		store.On("GetTransactionSlots", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.TransactionSlot{}, nil)
		store.On("GetUsages", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.Usage{
				{UsageID: "u1", ConsentID: consent.ConsentID, ResourceID: "res-1"},
				{UsageID: "u2", ConsentID: consent.ConsentID, ResourceID: "res-1"},
			}, nil)

		expired, err := service.IsConsentExpired(context.Background(), consent)
		require.NoError(t, err)
		assert.True(t, expired)
	})

	t.Run("transaction pages raise the required access count", func(t *testing.T) {
		store := &MockConsentStore{}
		service := newOneOffService(store)
		consent := newDedicated()

		store.On("GetTransactionSlots", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.TransactionSlot{
				{ConsentID: consent.ConsentID, ResourceID: "res-1", NumberOfTransactions: 3},
			}, nil)
		store.On("GetUsages", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.Usage{
				{UsageID: "u1", ConsentID: consent.ConsentID, ResourceID: "res-1"},
				{UsageID: "u2", ConsentID: consent.ConsentID, ResourceID: "res-1"},
			}, nil)

		expired, err := service.IsConsentExpired(context.Background(), consent)
		require.NoError(t, err)
		assert.False(t, expired)
	})

	t.Run("resources without ids are skipped", func(t *testing.T) {
		store := &MockConsentStore{}
		service := newOneOffService(store)
		consent := oneOffConsent(model.RequestTypeDedicated)
		consent.Access = model.AccountAccess{
			Accounts: []model.AccountReference{{Iban: "DE02100100109307118603"}},
		}

		store.On("GetTransactionSlots", mock.Anything, consent.ConsentID, testInstanceID).
			Return([]model.TransactionSlot{}, nil)

		expired, err := service.IsConsentExpired(context.Background(), consent)
		require.NoError(t, err)
		assert.False(t, expired)
		store.AssertNotCalled(t, "GetUsages")
	})
}
