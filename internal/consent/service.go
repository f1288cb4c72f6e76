package consent

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/log"
	"github.com/psd2hub/consent-cms/internal/system/metrics"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// TransactionExecutor runs a batch of store operations atomically.
type TransactionExecutor interface {
	ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error
}

// ConsentActionResponse is the outcome of consuming one access on a consent.
type ConsentActionResponse struct {
	Allowed               bool `json:"allowed"`
	RemainingUsagesToday  int  `json:"remainingUsagesToday"`
	ConsentExpiredByUsage bool `json:"consentExpiredByUsage"`
}

// ConsentServiceInterface defines the AIS consent lifecycle operations.
type ConsentServiceInterface interface {
	CreateConsent(ctx context.Context, instanceID string, req *model.CreateConsentRequest) (*model.Consent, *serviceerror.ServiceError)
	GetConsentByID(ctx context.Context, instanceID, consentID string) (*model.Consent, *serviceerror.ServiceError)
	GetConsentStatus(ctx context.Context, instanceID, consentID string) (status.ConsentStatus, *serviceerror.ServiceError)
	UpdateConsentStatus(ctx context.Context, instanceID, consentID string, newStatus status.ConsentStatus) (bool, *serviceerror.ServiceError)
	ConfirmConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError)
	RejectConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError)
	RevokeConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError)
	AuthorisePartiallyConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError)
	FindAndTerminateOldConsents(ctx context.Context, instanceID, newConsentID string) (bool, *serviceerror.ServiceError)
	RecordConsentUsage(ctx context.Context, instanceID, consentID, resourceID string) (*ConsentActionResponse, *serviceerror.ServiceError)
	UpdateAccountAccess(ctx context.Context, instanceID, consentID string, access *model.AccountAccess, frequencyPerDay *int, validUntil string) (*model.Consent, *serviceerror.ServiceError)
	UpdateMultilevelScaRequired(ctx context.Context, instanceID, consentID string, multilevelSca bool) (bool, *serviceerror.ServiceError)
	UpdatePsuData(ctx context.Context, instanceID, consentID string, psuData *psu.PsuData) (bool, *serviceerror.ServiceError)
	SaveNumberOfTransactions(ctx context.Context, instanceID, consentID, resourceID string, numberOfTransactions int) (bool, *serviceerror.ServiceError)
}

type consentService struct {
	store           ConsentStoreInterface
	expiration      ExpirationServiceInterface
	oneOff          OneOffExpirationServiceInterface
	executor        TransactionExecutor
	profileProvider profile.SettingsProviderInterface
	logger          *log.Logger
}

// NewConsentService creates a new consent service.
func NewConsentService(
	store ConsentStoreInterface,
	expiration ExpirationServiceInterface,
	oneOff OneOffExpirationServiceInterface,
	executor TransactionExecutor,
	profileProvider profile.SettingsProviderInterface,
) ConsentServiceInterface {
	return &consentService{
		store:           store,
		expiration:      expiration,
		oneOff:          oneOff,
		executor:        executor,
		profileProvider: profileProvider,
		logger:          log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentService")),
	}
}

// CreateConsent stores a new consent in RECEIVED. The validity date is
// capped by the profile's maximum consent lifetime.
func (s *consentService) CreateConsent(ctx context.Context, instanceID string, req *model.CreateConsentRequest) (*model.Consent, *serviceerror.ServiceError) {
	if req.FrequencyPerDay == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "frequencyPerDay is required")
	}
	if *req.FrequencyPerDay < 1 {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "frequencyPerDay must be at least 1")
	}
	if req.TppID == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "tppId is required")
	}
	if _, err := utils.ParseDate(req.ValidUntil); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "validUntil must be a YYYY-MM-DD date")
	}

	settings := s.profileProvider.Get(instanceID)
	now := utils.GetCurrentTimeMillis()

	consent := &model.Consent{
		ConsentID:                utils.GenerateUUID(),
		ConsentStatus:            status.ConsentReceived,
		RequestType:              req.Access.DeriveRequestType(),
		Access:                   req.Access,
		TppID:                    req.TppID,
		FrequencyPerDay:          *req.FrequencyPerDay,
		RecurringIndicator:       req.RecurringIndicator,
		CombinedServiceIndicator: req.CombinedServiceIndicator,
		ValidUntil:               adjustValidUntil(req.ValidUntil, settings.MaxConsentValidityDays),
		LastActionDate:           utils.FormatDate(utils.Today()),
		CreationTimestamp:        now,
		StatusChangeTimestamp:    now,
		InstanceID:               instanceID,
	}
	if !req.PsuData.IsEmpty() {
		consent.PsuDataList = []psu.PsuData{*req.PsuData}
	}

	if err := s.store.Create(ctx, consent); err != nil {
		s.logger.Error("Failed to create consent", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to create consent")
	}

	metrics.Get().ConsentsCreated.Inc()
	return consent, nil
}

// GetConsentByID loads a consent, applying the lazy expiration checks on
// the way: first the confirmation window, then the validity date.
func (s *consentService) GetConsentByID(ctx context.Context, instanceID, consentID string) (*model.Consent, *serviceerror.ServiceError) {
	consent, svcErr := s.loadConsent(ctx, instanceID, consentID)
	if svcErr != nil {
		return nil, svcErr
	}

	if s.expiration.IsConfirmationExpired(consent) {
		if err := s.expiration.ExpireConsent(ctx, consent, ExpirationCauseConfirmationWindow); err != nil {
			s.logger.Error("Failed to expire consent", log.Error(err))
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire consent")
		}
		return consent, nil
	}

	consent, err := s.expiration.CheckAndUpdateOnExpiration(ctx, consent)
	if err != nil {
		s.logger.Error("Failed to expire consent", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire consent")
	}
	return consent, nil
}

func (s *consentService) GetConsentStatus(ctx context.Context, instanceID, consentID string) (status.ConsentStatus, *serviceerror.ServiceError) {
	consent, svcErr := s.GetConsentByID(ctx, instanceID, consentID)
	if svcErr != nil {
		return "", svcErr
	}
	return consent.ConsentStatus, nil
}

// UpdateConsentStatus applies a status change. A finalised consent is a
// no-op reported with a false payload; an illegal transition is a logical
// error; the same status twice is a successful no-op.
func (s *consentService) UpdateConsentStatus(ctx context.Context, instanceID, consentID string, newStatus status.ConsentStatus) (bool, *serviceerror.ServiceError) {
	if !newStatus.IsValid() {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown consent status")
	}

	consent, svcErr := s.loadConsent(ctx, instanceID, consentID)
	if svcErr != nil {
		return false, svcErr
	}

	if consent.ConsentStatus == newStatus {
		return true, nil
	}
	if consent.ConsentStatus.IsFinalised() {
		return false, nil
	}
	if !consent.ConsentStatus.CanTransition(newStatus) {
		return false, serviceerror.CustomServiceError(serviceerror.LogicalError, "Illegal consent status transition")
	}

	if err := s.store.UpdateStatus(ctx, consentID, instanceID, newStatus, utils.FormatDate(utils.Today()), utils.GetCurrentTimeMillis()); err != nil {
		s.logger.Error("Failed to update consent status", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update consent status")
	}
	return true, nil
}

// ConfirmConsent moves the consent to VALID and terminates the TPP's older
// recurring consents for the same PSUs.
func (s *consentService) ConfirmConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	updated, svcErr := s.UpdateConsentStatus(ctx, instanceID, consentID, status.ConsentValid)
	if svcErr != nil || !updated {
		return updated, svcErr
	}

	if _, svcErr := s.FindAndTerminateOldConsents(ctx, instanceID, consentID); svcErr != nil {
		// The consent itself is confirmed; termination failures must not
		// roll that back.
		if svcErr.Code != serviceerror.InvalidRequestError.Code {
			return true, svcErr
		}
	}
	return true, nil
}

func (s *consentService) RejectConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	return s.UpdateConsentStatus(ctx, instanceID, consentID, status.ConsentRejected)
}

func (s *consentService) RevokeConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	return s.UpdateConsentStatus(ctx, instanceID, consentID, status.ConsentRevokedByPsu)
}

// AuthorisePartiallyConsent marks the consent PARTIALLY_AUTHORISED and
// flags it as requiring multilevel SCA.
func (s *consentService) AuthorisePartiallyConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	updated, svcErr := s.UpdateConsentStatus(ctx, instanceID, consentID, status.ConsentPartiallyAuthorised)
	if svcErr != nil || !updated {
		return updated, svcErr
	}

	if err := s.store.UpdateMultilevelScaRequired(ctx, consentID, instanceID, true); err != nil {
		s.logger.Error("Failed to set multilevel SCA flag", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update consent")
	}
	return true, nil
}

// FindAndTerminateOldConsents closes the TPP's older open consents that
// cover the same PSU set as the given consent. One-off consents never
// displace anything. Old consents that were never confirmed are REJECTED;
// confirmed ones are TERMINATED_BY_TPP.
func (s *consentService) FindAndTerminateOldConsents(ctx context.Context, instanceID, newConsentID string) (bool, *serviceerror.ServiceError) {
	newConsent, svcErr := s.loadConsent(ctx, instanceID, newConsentID)
	if svcErr != nil {
		return false, svcErr
	}

	if newConsent.IsOneOff() {
		return false, nil
	}
	if newConsent.TppID == "" || len(newConsent.PsuDataList) == 0 {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Wrong consent data")
	}

	candidates, err := s.store.FindOldConsents(ctx, newConsent.TppID, instanceID, newConsentID)
	if err != nil {
		s.logger.Error("Failed to find old consents", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to find old consents")
	}

	toTerminate := make([]model.Consent, 0, len(candidates))
	for _, candidate := range candidates {
		if psu.IsPsuDataListEqual(newConsent.PsuDataList, candidate.PsuDataList) {
			toTerminate = append(toTerminate, candidate)
		}
	}
	if len(toTerminate) == 0 {
		return false, nil
	}

	today := utils.FormatDate(utils.Today())
	now := utils.GetCurrentTimeMillis()
	queries := make([]func(tx dbmodel.TxInterface) error, 0, len(toTerminate))
	for _, old := range toTerminate {
		oldID := old.ConsentID
		target := status.ConsentTerminatedByTpp
		if old.ConsentStatus == status.ConsentReceived || old.ConsentStatus == status.ConsentPartiallyAuthorised {
			target = status.ConsentRejected
		}
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return s.store.UpdateStatusWithTx(tx, oldID, instanceID, target, today, now)
		})
	}

	if err := s.executor.ExecuteTransaction(queries); err != nil {
		s.logger.Error("Failed to terminate old consents", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to terminate old consents")
	}

	for range toTerminate {
		metrics.Get().ConsentsTerminated.Inc()
	}
	s.logger.Info("Terminated old consents",
		log.String("new_consent_id", newConsentID),
		log.Int("count", len(toTerminate)))
	return true, nil
}

// RecordConsentUsage consumes one access on a VALID consent: it enforces
// the daily frequency, writes the usage row, refreshes the last action
// date, and expires a spent one-off consent.
func (s *consentService) RecordConsentUsage(ctx context.Context, instanceID, consentID, resourceID string) (*ConsentActionResponse, *serviceerror.ServiceError) {
	consent, svcErr := s.GetConsentByID(ctx, instanceID, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	if consent.ConsentStatus != status.ConsentValid {
		return &ConsentActionResponse{Allowed: false}, nil
	}

	today := utils.FormatDate(utils.Today())
	usedToday, err := s.store.CountUsagesForDate(ctx, consentID, instanceID, today)
	if err != nil {
		s.logger.Error("Failed to count consent usages", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to count consent usages")
	}
	if usedToday >= consent.FrequencyPerDay {
		return &ConsentActionResponse{Allowed: false}, nil
	}

	usage := &model.Usage{
		UsageID:    utils.GenerateUUID(),
		ConsentID:  consentID,
		ResourceID: resourceID,
		UsageDate:  today,
		InstanceID: instanceID,
	}
	if err := s.store.CreateUsage(ctx, usage); err != nil {
		s.logger.Error("Failed to record consent usage", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to record consent usage")
	}
	if err := s.store.UpdateStatus(ctx, consentID, instanceID, consent.ConsentStatus, today, consent.StatusChangeTimestamp); err != nil {
		s.logger.Error("Failed to refresh last action date", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to refresh last action date")
	}

	response := &ConsentActionResponse{
		Allowed:              true,
		RemainingUsagesToday: consent.FrequencyPerDay - usedToday - 1,
	}

	expired, err := s.oneOff.IsConsentExpired(ctx, consent)
	if err != nil {
		s.logger.Error("Failed to check one-off expiration", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to check one-off expiration")
	}
	if expired {
		if err := s.expiration.ExpireConsent(ctx, consent, ExpirationCauseUsageExhausted); err != nil {
			s.logger.Error("Failed to expire spent consent", log.Error(err))
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire spent consent")
		}
		response.ConsentExpiredByUsage = true
	}
	return response, nil
}

// UpdateAccountAccess replaces the consent's access scope, typically when
// the bank narrows a bank-offered consent to concrete accounts.
func (s *consentService) UpdateAccountAccess(ctx context.Context, instanceID, consentID string, access *model.AccountAccess, frequencyPerDay *int, validUntil string) (*model.Consent, *serviceerror.ServiceError) {
	consent, svcErr := s.loadConsent(ctx, instanceID, consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	if consent.ConsentStatus.IsFinalised() {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Consent is already finalised")
	}

	if access != nil {
		consent.Access = *access
		consent.RequestType = access.DeriveRequestType()
	}
	if frequencyPerDay != nil {
		if *frequencyPerDay < 1 {
			return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "frequencyPerDay must be at least 1")
		}
		consent.FrequencyPerDay = *frequencyPerDay
	}
	if validUntil != "" {
		if _, err := utils.ParseDate(validUntil); err != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "validUntil must be a YYYY-MM-DD date")
		}
		settings := s.profileProvider.Get(instanceID)
		consent.ValidUntil = adjustValidUntil(validUntil, settings.MaxConsentValidityDays)
	}

	if err := s.store.UpdateAccess(ctx, consent); err != nil {
		s.logger.Error("Failed to update account access", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update account access")
	}
	return consent, nil
}

func (s *consentService) UpdateMultilevelScaRequired(ctx context.Context, instanceID, consentID string, multilevelSca bool) (bool, *serviceerror.ServiceError) {
	consent, err := s.store.GetByID(ctx, consentID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get consent", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get consent")
	}
	if consent == nil {
		return false, nil
	}

	if err := s.store.UpdateMultilevelScaRequired(ctx, consentID, instanceID, multilevelSca); err != nil {
		s.logger.Error("Failed to update multilevel SCA flag", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update consent")
	}
	return true, nil
}

// UpdatePsuData adds the PSU to the consent's PSU list when not yet present.
func (s *consentService) UpdatePsuData(ctx context.Context, instanceID, consentID string, psuData *psu.PsuData) (bool, *serviceerror.ServiceError) {
	if psuData.IsEmpty() {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "PSU data is required")
	}

	consent, svcErr := s.loadConsent(ctx, instanceID, consentID)
	if svcErr != nil {
		return false, svcErr
	}

	enriched := psu.EnrichPsuData(psuData, consent.PsuDataList)
	if len(enriched) == len(consent.PsuDataList) {
		return true, nil
	}

	if err := s.store.UpdatePsuDataList(ctx, consentID, instanceID, enriched); err != nil {
		s.logger.Error("Failed to update PSU data", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update PSU data")
	}
	return true, nil
}

// SaveNumberOfTransactions records how many transaction pages the bank
// reported for a resource, feeding the one-off usage reconciliation.
func (s *consentService) SaveNumberOfTransactions(ctx context.Context, instanceID, consentID, resourceID string, numberOfTransactions int) (bool, *serviceerror.ServiceError) {
	if numberOfTransactions < 0 {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "numberOfTransactions must not be negative")
	}

	consent, err := s.store.GetByID(ctx, consentID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get consent", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get consent")
	}
	if consent == nil {
		return false, nil
	}

	slot := &model.TransactionSlot{
		ConsentID:            consentID,
		ResourceID:           resourceID,
		NumberOfTransactions: numberOfTransactions,
		InstanceID:           instanceID,
	}
	if err := s.store.SaveTransactionSlot(ctx, slot); err != nil {
		s.logger.Error("Failed to save transaction slot", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to save transaction slot")
	}
	return true, nil
}

// loadConsent fetches a consent without lazy expiration checks.
func (s *consentService) loadConsent(ctx context.Context, instanceID, consentID string) (*model.Consent, *serviceerror.ServiceError) {
	consent, err := s.store.GetByID(ctx, consentID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get consent", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get consent")
	}
	if consent == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Consent not found")
	}
	return consent, nil
}

// adjustValidUntil caps the requested validity at the profile lifetime.
// A lifetime of N days means the consent may live through day N, so the
// cap is today plus N-1.
func adjustValidUntil(requested string, maxValidityDays int) string {
	if maxValidityDays <= 0 {
		return requested
	}
	requestedDate, err := utils.ParseDate(requested)
	if err != nil {
		return requested
	}
	lifetimeCap := utils.Today().AddDate(0, 0, maxValidityDays-1)
	if requestedDate.After(lifetimeCap) {
		return utils.FormatDate(lifetimeCap)
	}
	return requested
}
