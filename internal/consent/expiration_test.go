package consent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/config"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

const testInstanceID = "bank-de"

func receivedConsent(ageMs int64) *model.Consent {
	now := utils.GetCurrentTimeMillis()
	return &model.Consent{
		ConsentID:             "consent-1",
		ConsentStatus:         status.ConsentReceived,
		ValidUntil:            utils.FormatDate(utils.Today().AddDate(0, 0, 30)),
		CreationTimestamp:     now - ageMs,
		StatusChangeTimestamp: now - ageMs,
		InstanceID:            testInstanceID,
	}
}

func newExpirationService(store *MockConsentStore, windowMs int64) ExpirationServiceInterface {
	return NewExpirationService(store, &fixedProfileProvider{
		settings: config.ProfileSettings{NotConfirmedConsentExpirationTimeMs: windowMs},
	})
}

func TestIsConfirmationExpired(t *testing.T) {
	store := &MockConsentStore{}

	t.Run("consent older than the window is expired", func(t *testing.T) {
		service := newExpirationService(store, 1000)
		assert.True(t, service.IsConfirmationExpired(receivedConsent(100_000)))
	})

	t.Run("consent within the window is not expired", func(t *testing.T) {
		service := newExpirationService(store, 86_400_000)
		assert.False(t, service.IsConfirmationExpired(receivedConsent(100_000)))
	})

	t.Run("non positive window disables the check", func(t *testing.T) {
		service := newExpirationService(store, 0)
		assert.False(t, service.IsConfirmationExpired(receivedConsent(100_000)))
	})

	t.Run("confirmed consent is never confirmation expired", func(t *testing.T) {
		service := newExpirationService(store, 1000)
		consent := receivedConsent(100_000)
		consent.ConsentStatus = status.ConsentValid
		assert.False(t, service.IsConfirmationExpired(consent))
	})

	t.Run("partially authorised consent still sits in the window", func(t *testing.T) {
		service := newExpirationService(store, 1000)
		consent := receivedConsent(100_000)
		consent.ConsentStatus = status.ConsentPartiallyAuthorised
		assert.True(t, service.IsConfirmationExpired(consent))
	})
}

func TestIsExpiredByDate(t *testing.T) {
	store := &MockConsentStore{}
	service := newExpirationService(store, 0)

	t.Run("validity date in the past", func(t *testing.T) {
		consent := receivedConsent(0)
		consent.ConsentStatus = status.ConsentValid
		consent.ValidUntil = utils.FormatDate(utils.Today().AddDate(0, 0, -1))
		assert.True(t, service.IsExpiredByDate(consent))
	})

	t.Run("valid through today", func(t *testing.T) {
		consent := receivedConsent(0)
		consent.ConsentStatus = status.ConsentValid
		consent.ValidUntil = utils.FormatDate(utils.Today())
		assert.False(t, service.IsExpiredByDate(consent))
	})

	t.Run("finalised consent is left alone", func(t *testing.T) {
		consent := receivedConsent(0)
		consent.ConsentStatus = status.ConsentRejected
		consent.ValidUntil = utils.FormatDate(utils.Today().AddDate(0, 0, -10))
		assert.False(t, service.IsExpiredByDate(consent))
	})
}

func TestExpireConsent(t *testing.T) {
	store := &MockConsentStore{}
	service := newExpirationService(store, 0)
	consent := receivedConsent(0)
	today := utils.FormatDate(utils.Today())

	store.On("ExpireConsent", mock.Anything, consent.ConsentID, testInstanceID,
		today, today, mock.AnythingOfType("int64")).Return(nil)

	err := service.ExpireConsent(context.Background(), consent, ExpirationCauseValidityDate)
	require.NoError(t, err)

	assert.Equal(t, status.ConsentExpired, consent.ConsentStatus)
	assert.Equal(t, today, consent.ValidUntil)
	assert.Equal(t, today, consent.LastActionDate)
	store.AssertExpectations(t)
}

func TestCheckAndUpdateOnExpiration(t *testing.T) {
	t.Run("stale validity date expires the consent", func(t *testing.T) {
		store := &MockConsentStore{}
		service := newExpirationService(store, 0)
		consent := receivedConsent(0)
		consent.ConsentStatus = status.ConsentValid
		consent.ValidUntil = utils.FormatDate(utils.Today().AddDate(0, 0, -1))

		store.On("ExpireConsent", mock.Anything, consent.ConsentID, testInstanceID,
			mock.Anything, mock.Anything, mock.AnythingOfType("int64")).Return(nil)

		result, err := service.CheckAndUpdateOnExpiration(context.Background(), consent)
		require.NoError(t, err)
		assert.Equal(t, status.ConsentExpired, result.ConsentStatus)
	})

	t.Run("current consent passes through untouched", func(t *testing.T) {
		store := &MockConsentStore{}
		service := newExpirationService(store, 0)
		consent := receivedConsent(0)
		consent.ConsentStatus = status.ConsentValid

		result, err := service.CheckAndUpdateOnExpiration(context.Background(), consent)
		require.NoError(t, err)
		assert.Equal(t, status.ConsentValid, result.ConsentStatus)
		store.AssertNotCalled(t, "ExpireConsent")
	})
}

func TestExpireOverdueConsents(t *testing.T) {
	store := &MockConsentStore{}
	service := newExpirationService(store, 0)

	first := receivedConsent(0)
	second := receivedConsent(0)
	second.ConsentID = "consent-2"

	store.On("FindExpirableConsents", mock.Anything, utils.FormatDate(utils.Today())).
		Return([]model.Consent{*first, *second}, nil)
	store.On("ExpireConsent", mock.Anything, mock.Anything, testInstanceID,
		mock.Anything, mock.Anything, mock.AnythingOfType("int64")).Return(nil)

	expired, err := service.ExpireOverdueConsents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	store.AssertNumberOfCalls(t, "ExpireConsent", 2)
}

func TestExpireNotConfirmedConsents(t *testing.T) {
	store := &MockConsentStore{}
	service := newExpirationService(store, 1000)

	overdue := receivedConsent(100_000)
	fresh := receivedConsent(0)
	fresh.ConsentID = "consent-fresh"

	store.On("GetByID", mock.Anything, overdue.ConsentID, testInstanceID).Return(overdue, nil)
	store.On("GetByID", mock.Anything, fresh.ConsentID, testInstanceID).Return(fresh, nil)
	store.On("GetByID", mock.Anything, "consent-unknown", testInstanceID).Return(nil, nil)
	store.On("ExpireConsent", mock.Anything, overdue.ConsentID, testInstanceID,
		mock.Anything, mock.Anything, mock.AnythingOfType("int64")).Return(nil)

	expired, err := service.ExpireNotConfirmedConsents(context.Background(), testInstanceID,
		[]string{overdue.ConsentID, fresh.ConsentID, "consent-unknown"})
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	store.AssertNumberOfCalls(t, "ExpireConsent", 1)
}

func TestExpireNotConfirmedConsentsStoreFailure(t *testing.T) {
	store := &MockConsentStore{}
	service := newExpirationService(store, 1000)

	store.On("GetByID", mock.Anything, "consent-1", testInstanceID).
		Return(nil, errors.New("connection lost"))

	expired, err := service.ExpireNotConfirmedConsents(context.Background(), testInstanceID, []string{"consent-1"})
	assert.Error(t, err)
	assert.Equal(t, 0, expired)
}
