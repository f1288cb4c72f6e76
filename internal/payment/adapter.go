package payment

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/authorisation"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// parentAdapter exposes payments to the authorisation engine. The same
// adapter backs creation and cancellation authorisations; both hang off the
// payment record.
type parentAdapter struct {
	service *paymentService
}

// NewParentAdapter adapts the payment module to the authorisation parent
// contract.
func NewParentAdapter(store PaymentStoreInterface, profileProvider profile.SettingsProviderInterface) authorisation.ParentServiceInterface {
	return &parentAdapter{
		service: NewPaymentService(store, profileProvider).(*paymentService),
	}
}

func (a *parentAdapter) GetParent(ctx context.Context, parentID, instanceID string) (*authorisation.ParentInfo, *serviceerror.ServiceError) {
	payment, svcErr := a.service.loadPayment(ctx, instanceID, parentID)
	if svcErr != nil {
		return nil, svcErr
	}

	return &authorisation.ParentInfo{
		ID:                  payment.PaymentID,
		Finalised:           payment.TransactionStatus.IsFinalised(),
		ConfirmationExpired: a.service.isConfirmationExpired(payment),
		MultilevelSca:       payment.MultilevelScaRequired,
	}, nil
}

func (a *parentAdapter) OnConfirmationExpiration(ctx context.Context, parentID, instanceID string) *serviceerror.ServiceError {
	payment, svcErr := a.service.loadPayment(ctx, instanceID, parentID)
	if svcErr != nil {
		return svcErr
	}
	if payment.TransactionStatus.IsFinalised() {
		return nil
	}

	if err := a.service.rejectExpired(ctx, payment); err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to reject payment")
	}
	return nil
}
