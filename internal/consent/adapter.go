package consent

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/authorisation"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// parentAdapter exposes consents to the authorisation engine.
type parentAdapter struct {
	store      ConsentStoreInterface
	expiration ExpirationServiceInterface
}

// NewParentAdapter adapts the consent module to the authorisation parent
// contract.
func NewParentAdapter(store ConsentStoreInterface, expiration ExpirationServiceInterface) authorisation.ParentServiceInterface {
	return &parentAdapter{store: store, expiration: expiration}
}

func (a *parentAdapter) GetParent(ctx context.Context, parentID, instanceID string) (*authorisation.ParentInfo, *serviceerror.ServiceError) {
	consent, err := a.store.GetByID(ctx, parentID, instanceID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get consent")
	}
	if consent == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Consent not found")
	}

	return &authorisation.ParentInfo{
		ID:                  consent.ConsentID,
		Finalised:           consent.ConsentStatus.IsFinalised(),
		ConfirmationExpired: a.expiration.IsConfirmationExpired(consent),
		MultilevelSca:       consent.MultilevelScaRequired,
	}, nil
}

func (a *parentAdapter) OnConfirmationExpiration(ctx context.Context, parentID, instanceID string) *serviceerror.ServiceError {
	consent, err := a.store.GetByID(ctx, parentID, instanceID)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get consent")
	}
	if consent == nil {
		return serviceerror.CustomServiceError(serviceerror.LogicalError, "Consent not found")
	}
	if consent.ConsentStatus.IsFinalised() {
		return nil
	}

	if err := a.expiration.ExpireConsent(ctx, consent, ExpirationCauseConfirmationWindow); err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire consent")
	}
	return nil
}
