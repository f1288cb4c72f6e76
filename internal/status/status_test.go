package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsentStatusFinalised(t *testing.T) {
	finalised := []ConsentStatus{
		ConsentExpired,
		ConsentRejected,
		ConsentRevokedByPsu,
		ConsentTerminatedByTpp,
		ConsentTerminatedByAspsp,
	}
	for _, s := range finalised {
		assert.True(t, s.IsFinalised(), "status %s should be finalised", s)
	}

	open := []ConsentStatus{ConsentReceived, ConsentPartiallyAuthorised, ConsentValid}
	for _, s := range open {
		assert.False(t, s.IsFinalised(), "status %s should not be finalised", s)
	}
}

func TestConsentStatusTransitions(t *testing.T) {
	t.Run("from received", func(t *testing.T) {
		assert.True(t, ConsentReceived.CanTransition(ConsentPartiallyAuthorised))
		assert.True(t, ConsentReceived.CanTransition(ConsentValid))
		assert.True(t, ConsentReceived.CanTransition(ConsentRejected))
		assert.True(t, ConsentReceived.CanTransition(ConsentExpired))
		assert.False(t, ConsentReceived.CanTransition(ConsentRevokedByPsu))
		assert.False(t, ConsentReceived.CanTransition(ConsentTerminatedByTpp))
	})

	t.Run("from partially authorised", func(t *testing.T) {
		assert.True(t, ConsentPartiallyAuthorised.CanTransition(ConsentValid))
		assert.True(t, ConsentPartiallyAuthorised.CanTransition(ConsentRejected))
		assert.True(t, ConsentPartiallyAuthorised.CanTransition(ConsentTerminatedByTpp))
		assert.False(t, ConsentPartiallyAuthorised.CanTransition(ConsentReceived))
		assert.False(t, ConsentPartiallyAuthorised.CanTransition(ConsentRevokedByPsu))
	})

	t.Run("from valid", func(t *testing.T) {
		assert.True(t, ConsentValid.CanTransition(ConsentRevokedByPsu))
		assert.True(t, ConsentValid.CanTransition(ConsentTerminatedByAspsp))
		assert.False(t, ConsentValid.CanTransition(ConsentRejected))
		assert.False(t, ConsentValid.CanTransition(ConsentReceived))
		assert.False(t, ConsentValid.CanTransition(ConsentPartiallyAuthorised))
	})

	t.Run("same status is always allowed", func(t *testing.T) {
		for _, s := range []ConsentStatus{
			ConsentReceived, ConsentValid, ConsentExpired, ConsentRejected,
		} {
			assert.True(t, s.CanTransition(s))
		}
	})

	t.Run("finalised states allow nothing else", func(t *testing.T) {
		assert.False(t, ConsentExpired.CanTransition(ConsentValid))
		assert.False(t, ConsentRejected.CanTransition(ConsentReceived))
		assert.False(t, ConsentRevokedByPsu.CanTransition(ConsentExpired))
	})
}

func TestScaStatusFinalised(t *testing.T) {
	assert.True(t, ScaFinalised.IsFinalised())
	assert.True(t, ScaFailed.IsFinalised())
	assert.True(t, ScaExpired.IsFinalised())

	assert.False(t, ScaReceived.IsFinalised())
	assert.False(t, ScaPsuAuthenticated.IsFinalised())
	assert.False(t, ScaUnconfirmed.IsFinalised())
	assert.False(t, ScaExempted.IsFinalised())
}

func TestTransactionStatusFinalised(t *testing.T) {
	assert.True(t, TransactionAcceptedSettlement.IsFinalised())
	assert.True(t, TransactionRejected.IsFinalised())
	assert.True(t, TransactionCancelled.IsFinalised())

	assert.False(t, TransactionReceived.IsFinalised())
	assert.False(t, TransactionPartiallyAccepted.IsFinalised())
	assert.False(t, TransactionAcceptedCustomer.IsFinalised())
}

func TestStatusValidation(t *testing.T) {
	assert.True(t, ConsentStatus("VALID").IsValid())
	assert.False(t, ConsentStatus("ACTIVE").IsValid())
	assert.True(t, ScaStatus("PSUIDENTIFIED").IsValid())
	assert.False(t, ScaStatus("DONE").IsValid())
	assert.True(t, TransactionStatus("PATC").IsValid())
	assert.False(t, TransactionStatus("OK").IsValid())
}
