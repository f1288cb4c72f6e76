package consent

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/log"
	"github.com/psd2hub/consent-cms/internal/system/metrics"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// Expiration causes recorded on the metrics label.
const (
	ExpirationCauseValidityDate       = "validity_date"
	ExpirationCauseConfirmationWindow = "confirmation_window"
	ExpirationCauseUsageExhausted     = "usage_exhausted"
)

// ExpirationServiceInterface handles the confirmation-window and
// validity-date expiration of consents.
type ExpirationServiceInterface interface {
	IsConfirmationExpired(consent *model.Consent) bool
	IsExpiredByDate(consent *model.Consent) bool
	ExpireConsent(ctx context.Context, consent *model.Consent, cause string) error
	CheckAndUpdateOnExpiration(ctx context.Context, consent *model.Consent) (*model.Consent, error)
	ExpireOverdueConsents(ctx context.Context) (int, error)
	ExpireNotConfirmedConsents(ctx context.Context, instanceID string, consentIDs []string) (int, error)
}

type expirationService struct {
	store           ConsentStoreInterface
	profileProvider profile.SettingsProviderInterface
	logger          *log.Logger
}

// NewExpirationService creates a new consent expiration service.
func NewExpirationService(store ConsentStoreInterface, profileProvider profile.SettingsProviderInterface) ExpirationServiceInterface {
	return &expirationService{
		store:           store,
		profileProvider: profileProvider,
		logger:          log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentExpirationService")),
	}
}

// IsConfirmationExpired reports whether a not-yet-confirmed consent has
// outlived its confirmation window. Confirmed and finalised consents are
// never confirmation-expired; a non-positive window disables the check.
func (s *expirationService) IsConfirmationExpired(consent *model.Consent) bool {
	if consent.ConsentStatus != status.ConsentReceived &&
		consent.ConsentStatus != status.ConsentPartiallyAuthorised {
		return false
	}

	window := s.profileProvider.Get(consent.InstanceID).NotConfirmedConsentExpirationTimeMs
	if window <= 0 {
		return false
	}
	return utils.GetCurrentTimeMillis()-consent.CreationTimestamp > window
}

// IsExpiredByDate reports whether the consent's validity date lies in the
// past. Finalised consents are already terminal and report false.
func (s *expirationService) IsExpiredByDate(consent *model.Consent) bool {
	if consent.ConsentStatus.IsFinalised() {
		return false
	}
	validUntil, err := utils.ParseDate(consent.ValidUntil)
	if err != nil {
		return false
	}
	return validUntil.Before(utils.Today())
}

// ExpireConsent moves the consent to EXPIRED, capping validity and the last
// action date at today.
func (s *expirationService) ExpireConsent(ctx context.Context, consent *model.Consent, cause string) error {
	today := utils.FormatDate(utils.Today())
	if err := s.store.ExpireConsent(ctx, consent.ConsentID, consent.InstanceID, today, today, utils.GetCurrentTimeMillis()); err != nil {
		return err
	}

	consent.ConsentStatus = status.ConsentExpired
	consent.ValidUntil = today
	consent.LastActionDate = today
	metrics.Get().IncrementConsentsExpired(cause)
	s.logger.Debug("Consent expired",
		log.String("consent_id", consent.ConsentID),
		log.String("cause", cause))
	return nil
}

// CheckAndUpdateOnExpiration performs the lazy validity-date check run on
// every consent read.
func (s *expirationService) CheckAndUpdateOnExpiration(ctx context.Context, consent *model.Consent) (*model.Consent, error) {
	if !s.IsExpiredByDate(consent) {
		return consent, nil
	}
	if err := s.ExpireConsent(ctx, consent, ExpirationCauseValidityDate); err != nil {
		return nil, err
	}
	return consent, nil
}

// ExpireOverdueConsents sweeps all consents whose validity date has passed.
// Intended for a periodic scheduler; read paths stay correct without it.
func (s *expirationService) ExpireOverdueConsents(ctx context.Context) (int, error) {
	overdue, err := s.store.FindExpirableConsents(ctx, utils.FormatDate(utils.Today()))
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range overdue {
		if err := s.ExpireConsent(ctx, &overdue[i], ExpirationCauseValidityDate); err != nil {
			return expired, err
		}
		expired++
	}
	if expired > 0 {
		s.logger.Info("Expired overdue consents", log.Int("count", expired))
	}
	return expired, nil
}

// ExpireNotConfirmedConsents expires the listed consents whose confirmation
// window has lapsed. Unknown ids and still-confirmable consents are skipped.
func (s *expirationService) ExpireNotConfirmedConsents(ctx context.Context, instanceID string, consentIDs []string) (int, error) {
	expired := 0
	for _, consentID := range consentIDs {
		consent, err := s.store.GetByID(ctx, consentID, instanceID)
		if err != nil {
			return expired, err
		}
		if consent == nil || !s.IsConfirmationExpired(consent) {
			continue
		}
		if err := s.ExpireConsent(ctx, consent, ExpirationCauseConfirmationWindow); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
