package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/psd2hub/consent-cms/internal/payment/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/config"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

const testInstanceID = "bank-de"

func newServiceUnderTest(store *MockPaymentStore, windowMs int64) PaymentServiceInterface {
	return NewPaymentService(store, &fixedProfileProvider{
		settings: config.ProfileSettings{NotConfirmedPaymentExpirationTimeMs: windowMs},
	})
}

func receivedPayment(ageMs int64) *model.Payment {
	now := utils.GetCurrentTimeMillis()
	return &model.Payment{
		PaymentID:             "payment-1",
		PaymentType:           model.PaymentTypeSingle,
		PaymentProduct:        "sepa-credit-transfers",
		TransactionStatus:     status.TransactionReceived,
		TppID:                 "tpp-1",
		PsuDataList:           []psu.PsuData{{PsuID: "anton.brueckner", PsuIDType: "type"}},
		CreationTimestamp:     now - ageMs,
		StatusChangeTimestamp: now - ageMs,
		InstanceID:            testInstanceID,
	}
}

func TestCreatePayment(t *testing.T) {
	t.Run("unknown payment type is rejected", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)

		payment, svcErr := service.CreatePayment(context.Background(), testInstanceID, &model.CreatePaymentRequest{
			PaymentType: "INSTANT", TppID: "tpp-1",
		})
		assert.Nil(t, payment)
		require.NotNil(t, svcErr)
		assert.Equal(t, serviceerror.InvalidRequestError.Code, svcErr.Code)
	})

	t.Run("payment starts in RCVD", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("Create", mock.Anything, mock.AnythingOfType("*model.Payment")).Return(nil)

		payment, svcErr := service.CreatePayment(context.Background(), testInstanceID, &model.CreatePaymentRequest{
			PaymentType:    model.PaymentTypeSingle,
			PaymentProduct: "sepa-credit-transfers",
			PsuData:        &psu.PsuData{PsuID: "anton.brueckner", PsuIDType: "type"},
			TppID:          "tpp-1",
		})
		require.Nil(t, svcErr)
		assert.Equal(t, status.TransactionReceived, payment.TransactionStatus)
		assert.NotEmpty(t, payment.PaymentID)
		require.Len(t, payment.PsuDataList, 1)
	})
}

func TestGetPaymentRejectsOnConfirmationExpiry(t *testing.T) {
	t.Run("payment older than the window is rejected", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 1000)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(100_000), nil)
		store.On("UpdateStatus", mock.Anything, "payment-1", testInstanceID,
			status.TransactionRejected, mock.AnythingOfType("int64")).Return(nil)

		payment, svcErr := service.GetPaymentByID(context.Background(), testInstanceID, "payment-1")
		require.Nil(t, svcErr)
		assert.Equal(t, status.TransactionRejected, payment.TransactionStatus)
		store.AssertExpectations(t)
	})

	t.Run("payment within the window is untouched", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 86_400_000)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(100_000), nil)

		payment, svcErr := service.GetPaymentByID(context.Background(), testInstanceID, "payment-1")
		require.Nil(t, svcErr)
		assert.Equal(t, status.TransactionReceived, payment.TransactionStatus)
		store.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("non positive window disables the check", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(100_000), nil)

		payment, svcErr := service.GetPaymentByID(context.Background(), testInstanceID, "payment-1")
		require.Nil(t, svcErr)
		assert.Equal(t, status.TransactionReceived, payment.TransactionStatus)
	})

	t.Run("missing payment is a logical error", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("GetByID", mock.Anything, "missing", testInstanceID).Return(nil, nil)

		payment, svcErr := service.GetPaymentByID(context.Background(), testInstanceID, "missing")
		assert.Nil(t, payment)
		require.NotNil(t, svcErr)
		assert.Equal(t, serviceerror.LogicalError.Code, svcErr.Code)
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	t.Run("unknown status is rejected", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)

		updated, svcErr := service.UpdatePaymentStatus(context.Background(), testInstanceID, "payment-1", "BOGUS")
		assert.False(t, updated)
		require.NotNil(t, svcErr)
		assert.Equal(t, serviceerror.InvalidRequestError.Code, svcErr.Code)
	})

	t.Run("same status is a successful no-op", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(0), nil)

		updated, svcErr := service.UpdatePaymentStatus(context.Background(), testInstanceID, "payment-1", status.TransactionReceived)
		assert.True(t, updated)
		assert.Nil(t, svcErr)
		store.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("finalised payment reports false without error", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		payment := receivedPayment(0)
		payment.TransactionStatus = status.TransactionRejected
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(payment, nil)

		updated, svcErr := service.UpdatePaymentStatus(context.Background(), testInstanceID, "payment-1", status.TransactionAcceptedCustomer)
		assert.False(t, updated)
		assert.Nil(t, svcErr)
		store.AssertNotCalled(t, "UpdateStatus")
	})

	t.Run("open payment accepts the new status", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(0), nil)
		store.On("UpdateStatus", mock.Anything, "payment-1", testInstanceID,
			status.TransactionAcceptedCustomer, mock.AnythingOfType("int64")).Return(nil)

		updated, svcErr := service.UpdatePaymentStatus(context.Background(), testInstanceID, "payment-1", status.TransactionAcceptedCustomer)
		assert.True(t, updated)
		assert.Nil(t, svcErr)
		store.AssertExpectations(t)
	})
}

func TestCancelPayment(t *testing.T) {
	store := &MockPaymentStore{}
	service := newServiceUnderTest(store, 0)
	store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(0), nil)
	store.On("UpdateStatus", mock.Anything, "payment-1", testInstanceID,
		status.TransactionCancelled, mock.AnythingOfType("int64")).Return(nil)

	updated, svcErr := service.CancelPayment(context.Background(), testInstanceID, "payment-1")
	assert.True(t, updated)
	assert.Nil(t, svcErr)
	store.AssertExpectations(t)
}

func TestPaymentUpdatePsuData(t *testing.T) {
	t.Run("known PSU is a no-op", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(0), nil)

		updated, svcErr := service.UpdatePsuData(context.Background(), testInstanceID, "payment-1",
			&psu.PsuData{PsuID: "anton.brueckner", PsuIDType: "type"})
		assert.True(t, updated)
		assert.Nil(t, svcErr)
		store.AssertNotCalled(t, "UpdatePsuDataList")
	})

	t.Run("new PSU joins the list", func(t *testing.T) {
		store := &MockPaymentStore{}
		service := newServiceUnderTest(store, 0)
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(0), nil)
		store.On("UpdatePsuDataList", mock.Anything, "payment-1", testInstanceID,
			mock.AnythingOfType("[]psu.PsuData")).Return(nil)

		updated, svcErr := service.UpdatePsuData(context.Background(), testInstanceID, "payment-1",
			&psu.PsuData{PsuID: "eva.mueller", PsuIDType: "type"})
		assert.True(t, updated)
		assert.Nil(t, svcErr)
		store.AssertExpectations(t)
	})
}

func TestParentAdapter(t *testing.T) {
	t.Run("reports confirmation expiry and multilevel flag", func(t *testing.T) {
		store := &MockPaymentStore{}
		adapter := NewParentAdapter(store, &fixedProfileProvider{
			settings: config.ProfileSettings{NotConfirmedPaymentExpirationTimeMs: 1000},
		})
		payment := receivedPayment(100_000)
		payment.MultilevelScaRequired = true
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(payment, nil)

		info, svcErr := adapter.GetParent(context.Background(), "payment-1", testInstanceID)
		require.Nil(t, svcErr)
		assert.True(t, info.ConfirmationExpired)
		assert.True(t, info.MultilevelSca)
		assert.False(t, info.Finalised)
	})

	t.Run("expiration callback rejects the payment", func(t *testing.T) {
		store := &MockPaymentStore{}
		adapter := NewParentAdapter(store, &fixedProfileProvider{})
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(receivedPayment(0), nil)
		store.On("UpdateStatus", mock.Anything, "payment-1", testInstanceID,
			status.TransactionRejected, mock.AnythingOfType("int64")).Return(nil)

		svcErr := adapter.OnConfirmationExpiration(context.Background(), "payment-1", testInstanceID)
		assert.Nil(t, svcErr)
		store.AssertExpectations(t)
	})

	t.Run("expiration callback skips finalised payments", func(t *testing.T) {
		store := &MockPaymentStore{}
		adapter := NewParentAdapter(store, &fixedProfileProvider{})
		payment := receivedPayment(0)
		payment.TransactionStatus = status.TransactionAcceptedSettlement
		store.On("GetByID", mock.Anything, "payment-1", testInstanceID).Return(payment, nil)

		svcErr := adapter.OnConfirmationExpiration(context.Background(), "payment-1", testInstanceID)
		assert.Nil(t, svcErr)
		store.AssertNotCalled(t, "UpdateStatus")
	})
}
