package consent

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// encryptedService is the id boundary in front of the consent service:
// external consent ids are decrypted on the way in and fresh external ids
// are minted on the way out.
type encryptedService struct {
	inner  ConsentServiceInterface
	cipher idcipher.IDCipherInterface
}

// NewEncryptedService wraps a consent service with the id boundary.
func NewEncryptedService(inner ConsentServiceInterface, cipher idcipher.IDCipherInterface) ConsentServiceInterface {
	return &encryptedService{inner: inner, cipher: cipher}
}

func (s *encryptedService) CreateConsent(ctx context.Context, instanceID string, req *model.CreateConsentRequest) (*model.Consent, *serviceerror.ServiceError) {
	consent, svcErr := s.inner.CreateConsent(ctx, instanceID, req)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptConsentID(consent)
}

func (s *encryptedService) GetConsentByID(ctx context.Context, instanceID, consentID string) (*model.Consent, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	consent, svcErr := s.inner.GetConsentByID(ctx, instanceID, internalID)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptConsentID(consent)
}

func (s *encryptedService) GetConsentStatus(ctx context.Context, instanceID, consentID string) (status.ConsentStatus, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return "", svcErr
	}
	return s.inner.GetConsentStatus(ctx, instanceID, internalID)
}

func (s *encryptedService) UpdateConsentStatus(ctx context.Context, instanceID, consentID string, newStatus status.ConsentStatus) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.UpdateConsentStatus(ctx, instanceID, internalID, newStatus)
}

func (s *encryptedService) ConfirmConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.ConfirmConsent(ctx, instanceID, internalID)
}

func (s *encryptedService) RejectConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.RejectConsent(ctx, instanceID, internalID)
}

func (s *encryptedService) RevokeConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.RevokeConsent(ctx, instanceID, internalID)
}

func (s *encryptedService) AuthorisePartiallyConsent(ctx context.Context, instanceID, consentID string) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.AuthorisePartiallyConsent(ctx, instanceID, internalID)
}

func (s *encryptedService) FindAndTerminateOldConsents(ctx context.Context, instanceID, newConsentID string) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(newConsentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.FindAndTerminateOldConsents(ctx, instanceID, internalID)
}

func (s *encryptedService) RecordConsentUsage(ctx context.Context, instanceID, consentID, resourceID string) (*ConsentActionResponse, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.inner.RecordConsentUsage(ctx, instanceID, internalID, resourceID)
}

func (s *encryptedService) UpdateAccountAccess(ctx context.Context, instanceID, consentID string, access *model.AccountAccess, frequencyPerDay *int, validUntil string) (*model.Consent, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return nil, svcErr
	}
	consent, svcErr := s.inner.UpdateAccountAccess(ctx, instanceID, internalID, access, frequencyPerDay, validUntil)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptConsentID(consent)
}

func (s *encryptedService) UpdateMultilevelScaRequired(ctx context.Context, instanceID, consentID string, multilevelSca bool) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.UpdateMultilevelScaRequired(ctx, instanceID, internalID, multilevelSca)
}

func (s *encryptedService) UpdatePsuData(ctx context.Context, instanceID, consentID string, psuData *psu.PsuData) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.UpdatePsuData(ctx, instanceID, internalID, psuData)
}

func (s *encryptedService) SaveNumberOfTransactions(ctx context.Context, instanceID, consentID, resourceID string, numberOfTransactions int) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(consentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.SaveNumberOfTransactions(ctx, instanceID, internalID, resourceID, numberOfTransactions)
}

func (s *encryptedService) decrypt(consentID string) (string, *serviceerror.ServiceError) {
	internalID, ok := s.cipher.DecryptID(consentID)
	if !ok {
		return "", serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to decrypt consent id")
	}
	return internalID, nil
}

func (s *encryptedService) encryptConsentID(consent *model.Consent) (*model.Consent, *serviceerror.ServiceError) {
	external, ok := s.cipher.EncryptID(consent.ConsentID)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to encrypt consent id")
	}
	out := *consent
	out.ConsentID = external
	return &out, nil
}
