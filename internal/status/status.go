// Package status defines the consent, SCA and payment transaction status
// models and their legal transitions.
package status

// ConsentStatus is the lifecycle state of an AIS consent.
type ConsentStatus string

const (
	ConsentReceived            ConsentStatus = "RECEIVED"
	ConsentPartiallyAuthorised ConsentStatus = "PARTIALLY_AUTHORISED"
	ConsentValid               ConsentStatus = "VALID"
	ConsentRejected            ConsentStatus = "REJECTED"
	ConsentRevokedByPsu        ConsentStatus = "REVOKED_BY_PSU"
	ConsentExpired             ConsentStatus = "EXPIRED"
	ConsentTerminatedByTpp     ConsentStatus = "TERMINATED_BY_TPP"
	ConsentTerminatedByAspsp   ConsentStatus = "TERMINATED_BY_ASPSP"
)

// consentTransitions lists the allowed moves out of each non-finalised state.
var consentTransitions = map[ConsentStatus][]ConsentStatus{
	ConsentReceived: {
		ConsentPartiallyAuthorised,
		ConsentValid,
		ConsentRejected,
		ConsentExpired,
	},
	ConsentPartiallyAuthorised: {
		ConsentValid,
		ConsentRejected,
		ConsentExpired,
		ConsentTerminatedByTpp,
	},
	ConsentValid: {
		ConsentExpired,
		ConsentRevokedByPsu,
		ConsentTerminatedByTpp,
		ConsentTerminatedByAspsp,
	},
}

// IsFinalised reports whether the status terminates the consent lifecycle.
func (s ConsentStatus) IsFinalised() bool {
	switch s {
	case ConsentExpired, ConsentRejected, ConsentRevokedByPsu,
		ConsentTerminatedByTpp, ConsentTerminatedByAspsp:
		return true
	}
	return false
}

// IsValid reports whether the value is a known consent status.
func (s ConsentStatus) IsValid() bool {
	switch s {
	case ConsentReceived, ConsentPartiallyAuthorised, ConsentValid,
		ConsentRejected, ConsentRevokedByPsu, ConsentExpired,
		ConsentTerminatedByTpp, ConsentTerminatedByAspsp:
		return true
	}
	return false
}

// CanTransition reports whether moving from s to target is legal.
// A same-status update is always allowed and treated as a no-op by callers.
func (s ConsentStatus) CanTransition(target ConsentStatus) bool {
	if s == target {
		return true
	}
	for _, allowed := range consentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ScaStatus is the state of a single authorisation sub-resource.
type ScaStatus string

const (
	ScaReceived         ScaStatus = "RECEIVED"
	ScaPsuIdentified    ScaStatus = "PSUIDENTIFIED"
	ScaPsuAuthenticated ScaStatus = "PSUAUTHENTICATED"
	ScaMethodSelected   ScaStatus = "SCAMETHODSELECTED"
	ScaStarted          ScaStatus = "STARTED"
	ScaUnconfirmed      ScaStatus = "UNCONFIRMED"
	ScaExempted         ScaStatus = "EXEMPTED"
	ScaFinalised        ScaStatus = "FINALISED"
	ScaFailed           ScaStatus = "FAILED"
	ScaExpired          ScaStatus = "EXPIRED"
)

// IsFinalised reports whether the SCA status accepts no further updates.
func (s ScaStatus) IsFinalised() bool {
	switch s {
	case ScaFinalised, ScaFailed, ScaExpired:
		return true
	}
	return false
}

// IsValid reports whether the value is a known SCA status.
func (s ScaStatus) IsValid() bool {
	switch s {
	case ScaReceived, ScaPsuIdentified, ScaPsuAuthenticated, ScaMethodSelected,
		ScaStarted, ScaUnconfirmed, ScaExempted, ScaFinalised, ScaFailed, ScaExpired:
		return true
	}
	return false
}

// TransactionStatus is the ISO 20022 state of a payment.
type TransactionStatus string

const (
	TransactionReceived           TransactionStatus = "RCVD"
	TransactionPartiallyAccepted  TransactionStatus = "PATC"
	TransactionAcceptedTechnical  TransactionStatus = "ACTC"
	TransactionAcceptedSettlement TransactionStatus = "ACSC"
	TransactionAcceptedCustomer   TransactionStatus = "ACCP"
	TransactionRejected           TransactionStatus = "RJCT"
	TransactionCancelled          TransactionStatus = "CANC"
)

// IsFinalised reports whether the payment reached a terminal state.
func (s TransactionStatus) IsFinalised() bool {
	switch s {
	case TransactionAcceptedSettlement, TransactionRejected, TransactionCancelled:
		return true
	}
	return false
}

// IsValid reports whether the value is a known transaction status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionReceived, TransactionPartiallyAccepted, TransactionAcceptedTechnical,
		TransactionAcceptedSettlement, TransactionAcceptedCustomer,
		TransactionRejected, TransactionCancelled:
		return true
	}
	return false
}
