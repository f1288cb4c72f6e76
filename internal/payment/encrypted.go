package payment

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/payment/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// encryptedService is the id boundary in front of the payment service:
// external payment ids are decrypted on the way in and fresh external ids
// are minted on the way out.
type encryptedService struct {
	inner  PaymentServiceInterface
	cipher idcipher.IDCipherInterface
}

// NewEncryptedService wraps a payment service with the id boundary.
func NewEncryptedService(inner PaymentServiceInterface, cipher idcipher.IDCipherInterface) PaymentServiceInterface {
	return &encryptedService{inner: inner, cipher: cipher}
}

func (s *encryptedService) CreatePayment(ctx context.Context, instanceID string, req *model.CreatePaymentRequest) (*model.Payment, *serviceerror.ServiceError) {
	payment, svcErr := s.inner.CreatePayment(ctx, instanceID, req)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptPaymentID(payment)
}

func (s *encryptedService) GetPaymentByID(ctx context.Context, instanceID, paymentID string) (*model.Payment, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(paymentID)
	if svcErr != nil {
		return nil, svcErr
	}
	payment, svcErr := s.inner.GetPaymentByID(ctx, instanceID, internalID)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptPaymentID(payment)
}

func (s *encryptedService) GetPaymentStatus(ctx context.Context, instanceID, paymentID string) (status.TransactionStatus, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(paymentID)
	if svcErr != nil {
		return "", svcErr
	}
	return s.inner.GetPaymentStatus(ctx, instanceID, internalID)
}

func (s *encryptedService) UpdatePaymentStatus(ctx context.Context, instanceID, paymentID string, newStatus status.TransactionStatus) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(paymentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.UpdatePaymentStatus(ctx, instanceID, internalID, newStatus)
}

func (s *encryptedService) CancelPayment(ctx context.Context, instanceID, paymentID string) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(paymentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.CancelPayment(ctx, instanceID, internalID)
}

func (s *encryptedService) UpdatePsuData(ctx context.Context, instanceID, paymentID string, psuData *psu.PsuData) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(paymentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.UpdatePsuData(ctx, instanceID, internalID, psuData)
}

func (s *encryptedService) UpdateMultilevelScaRequired(ctx context.Context, instanceID, paymentID string, multilevelSca bool) (bool, *serviceerror.ServiceError) {
	internalID, svcErr := s.decrypt(paymentID)
	if svcErr != nil {
		return false, svcErr
	}
	return s.inner.UpdateMultilevelScaRequired(ctx, instanceID, internalID, multilevelSca)
}

func (s *encryptedService) decrypt(externalID string) (string, *serviceerror.ServiceError) {
	internalID, ok := s.cipher.DecryptID(externalID)
	if !ok {
		return "", serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to decrypt payment id")
	}
	return internalID, nil
}

func (s *encryptedService) encryptPaymentID(payment *model.Payment) (*model.Payment, *serviceerror.ServiceError) {
	externalID, ok := s.cipher.EncryptID(payment.PaymentID)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to encrypt payment id")
	}
	payment.PaymentID = externalID
	return payment, nil
}
