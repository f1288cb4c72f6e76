package payment

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/payment/model"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/log"
	"github.com/psd2hub/consent-cms/internal/system/metrics"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// PaymentServiceInterface defines the PIS payment lifecycle operations.
type PaymentServiceInterface interface {
	CreatePayment(ctx context.Context, instanceID string, req *model.CreatePaymentRequest) (*model.Payment, *serviceerror.ServiceError)
	GetPaymentByID(ctx context.Context, instanceID, paymentID string) (*model.Payment, *serviceerror.ServiceError)
	GetPaymentStatus(ctx context.Context, instanceID, paymentID string) (status.TransactionStatus, *serviceerror.ServiceError)
	UpdatePaymentStatus(ctx context.Context, instanceID, paymentID string, newStatus status.TransactionStatus) (bool, *serviceerror.ServiceError)
	CancelPayment(ctx context.Context, instanceID, paymentID string) (bool, *serviceerror.ServiceError)
	UpdatePsuData(ctx context.Context, instanceID, paymentID string, psuData *psu.PsuData) (bool, *serviceerror.ServiceError)
	UpdateMultilevelScaRequired(ctx context.Context, instanceID, paymentID string, multilevelSca bool) (bool, *serviceerror.ServiceError)
}

type paymentService struct {
	store           PaymentStoreInterface
	profileProvider profile.SettingsProviderInterface
	logger          *log.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(store PaymentStoreInterface, profileProvider profile.SettingsProviderInterface) PaymentServiceInterface {
	return &paymentService{
		store:           store,
		profileProvider: profileProvider,
		logger:          log.GetLogger().With(log.String(log.LoggerKeyComponentName, "PaymentService")),
	}
}

// CreatePayment registers a new payment in RCVD.
func (s *paymentService) CreatePayment(ctx context.Context, instanceID string, req *model.CreatePaymentRequest) (*model.Payment, *serviceerror.ServiceError) {
	if !req.PaymentType.IsValid() {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown payment type")
	}
	if req.TppID == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "tppId is required")
	}

	now := utils.GetCurrentTimeMillis()
	payment := &model.Payment{
		PaymentID:             utils.GenerateUUID(),
		PaymentType:           req.PaymentType,
		PaymentProduct:        req.PaymentProduct,
		TransactionStatus:     status.TransactionReceived,
		TppID:                 req.TppID,
		CreationTimestamp:     now,
		StatusChangeTimestamp: now,
		InstanceID:            instanceID,
	}
	if !req.PsuData.IsEmpty() {
		payment.PsuDataList = []psu.PsuData{*req.PsuData}
	}

	if err := s.store.Create(ctx, payment); err != nil {
		s.logger.Error("Failed to create payment", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to create payment")
	}
	return payment, nil
}

// GetPaymentByID loads a payment, rejecting it on the way when its
// confirmation window has lapsed.
func (s *paymentService) GetPaymentByID(ctx context.Context, instanceID, paymentID string) (*model.Payment, *serviceerror.ServiceError) {
	payment, svcErr := s.loadPayment(ctx, instanceID, paymentID)
	if svcErr != nil {
		return nil, svcErr
	}

	if s.isConfirmationExpired(payment) {
		if err := s.rejectExpired(ctx, payment); err != nil {
			s.logger.Error("Failed to reject expired payment", log.Error(err))
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to reject payment")
		}
	}
	return payment, nil
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, instanceID, paymentID string) (status.TransactionStatus, *serviceerror.ServiceError) {
	payment, svcErr := s.GetPaymentByID(ctx, instanceID, paymentID)
	if svcErr != nil {
		return "", svcErr
	}
	return payment.TransactionStatus, nil
}

// UpdatePaymentStatus applies a transaction status change. A finalised
// payment is a no-op reported with a false payload; the same status twice
// is a successful no-op.
func (s *paymentService) UpdatePaymentStatus(ctx context.Context, instanceID, paymentID string, newStatus status.TransactionStatus) (bool, *serviceerror.ServiceError) {
	if !newStatus.IsValid() {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown transaction status")
	}

	payment, svcErr := s.loadPayment(ctx, instanceID, paymentID)
	if svcErr != nil {
		return false, svcErr
	}

	if payment.TransactionStatus == newStatus {
		return true, nil
	}
	if payment.TransactionStatus.IsFinalised() {
		return false, nil
	}

	if err := s.store.UpdateStatus(ctx, paymentID, instanceID, newStatus, utils.GetCurrentTimeMillis()); err != nil {
		s.logger.Error("Failed to update payment status", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update payment status")
	}
	if newStatus == status.TransactionRejected {
		metrics.Get().PaymentsRejected.Inc()
	}
	return true, nil
}

func (s *paymentService) CancelPayment(ctx context.Context, instanceID, paymentID string) (bool, *serviceerror.ServiceError) {
	return s.UpdatePaymentStatus(ctx, instanceID, paymentID, status.TransactionCancelled)
}

// UpdatePsuData adds the PSU to the payment's PSU list when not yet present.
func (s *paymentService) UpdatePsuData(ctx context.Context, instanceID, paymentID string, psuData *psu.PsuData) (bool, *serviceerror.ServiceError) {
	if psuData.IsEmpty() {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "PSU data is required")
	}

	payment, svcErr := s.loadPayment(ctx, instanceID, paymentID)
	if svcErr != nil {
		return false, svcErr
	}

	enriched := psu.EnrichPsuData(psuData, payment.PsuDataList)
	if len(enriched) == len(payment.PsuDataList) {
		return true, nil
	}

	if err := s.store.UpdatePsuDataList(ctx, paymentID, instanceID, enriched); err != nil {
		s.logger.Error("Failed to update PSU data", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update PSU data")
	}
	return true, nil
}

func (s *paymentService) UpdateMultilevelScaRequired(ctx context.Context, instanceID, paymentID string, multilevelSca bool) (bool, *serviceerror.ServiceError) {
	payment, err := s.store.GetByID(ctx, paymentID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get payment", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get payment")
	}
	if payment == nil {
		return false, nil
	}

	if err := s.store.UpdateMultilevelScaRequired(ctx, paymentID, instanceID, multilevelSca); err != nil {
		s.logger.Error("Failed to update multilevel SCA flag", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update payment")
	}
	return true, nil
}

// isConfirmationExpired reports whether an unconfirmed payment has outlived
// its confirmation window. A non-positive window disables the check.
func (s *paymentService) isConfirmationExpired(payment *model.Payment) bool {
	if payment.TransactionStatus != status.TransactionReceived &&
		payment.TransactionStatus != status.TransactionPartiallyAccepted {
		return false
	}

	window := s.profileProvider.Get(payment.InstanceID).NotConfirmedPaymentExpirationTimeMs
	if window <= 0 {
		return false
	}
	return utils.GetCurrentTimeMillis()-payment.CreationTimestamp > window
}

// rejectExpired moves the payment to RJCT, mirroring the change on the
// in-memory record.
func (s *paymentService) rejectExpired(ctx context.Context, payment *model.Payment) error {
	if err := s.store.UpdateStatus(ctx, payment.PaymentID, payment.InstanceID,
		status.TransactionRejected, utils.GetCurrentTimeMillis()); err != nil {
		return err
	}
	payment.TransactionStatus = status.TransactionRejected
	metrics.Get().PaymentsRejected.Inc()
	s.logger.Debug("Payment rejected on confirmation expiry",
		log.String("payment_id", payment.PaymentID))
	return nil
}

// loadPayment fetches a payment without lazy expiration checks.
func (s *paymentService) loadPayment(ctx context.Context, instanceID, paymentID string) (*model.Payment, *serviceerror.ServiceError) {
	payment, err := s.store.GetByID(ctx, paymentID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get payment", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get payment")
	}
	if payment == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Payment not found")
	}
	return payment, nil
}
