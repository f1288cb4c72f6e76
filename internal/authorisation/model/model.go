// Package model defines the authorisation data model.
package model

import (
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
)

// ParentType discriminates which resource an authorisation belongs to.
type ParentType string

const (
	ParentTypeConsent         ParentType = "CONSENT"
	ParentTypePisCreation     ParentType = "PIS_CREATION"
	ParentTypePisCancellation ParentType = "PIS_CANCELLATION"
)

// IsValid reports whether the value is a known parent type.
func (t ParentType) IsValid() bool {
	switch t {
	case ParentTypeConsent, ParentTypePisCreation, ParentTypePisCancellation:
		return true
	}
	return false
}

// ScaApproach is the SCA flow negotiated for an authorisation.
type ScaApproach string

const (
	ScaApproachEmbedded  ScaApproach = "EMBEDDED"
	ScaApproachRedirect  ScaApproach = "REDIRECT"
	ScaApproachDecoupled ScaApproach = "DECOUPLED"
	ScaApproachOauth     ScaApproach = "OAUTH"
)

// ScaMethod is one authentication method offered to the PSU.
type ScaMethod struct {
	AuthenticationMethodID string `json:"authenticationMethodId"`
	Decoupled              bool   `json:"decoupled"`
}

// Authorisation is a single SCA sub-resource attached to a consent or
// payment. The redirect expiration timestamp is epoch milliseconds; zero
// means no redirect deadline.
type Authorisation struct {
	AuthorisationID                string           `json:"authorisationId"`
	ParentID                       string           `json:"parentId"`
	ParentType                     ParentType       `json:"parentType"`
	ScaStatus                      status.ScaStatus `json:"scaStatus"`
	ScaApproach                    ScaApproach      `json:"scaApproach,omitempty"`
	PsuData                        *psu.PsuData     `json:"psuData,omitempty"`
	ScaAuthenticationMethods       []ScaMethod      `json:"scaAuthenticationMethods,omitempty"`
	AuthenticationMethodID         string           `json:"authenticationMethodId,omitempty"`
	RedirectURLExpirationTimestamp int64            `json:"redirectUrlExpirationTimestamp,omitempty"`
	TppNokRedirectURI              string           `json:"tppNokRedirectUri,omitempty"`
	CreatedTime                    int64            `json:"createdTime"`
	UpdatedTime                    int64            `json:"updatedTime"`
	InstanceID                     string           `json:"-"`
}

// CreateAuthorisationRequest carries the fields the TPP supplies when
// starting an authorisation.
type CreateAuthorisationRequest struct {
	ParentID          string       `json:"-"`
	ParentType        ParentType   `json:"-"`
	PsuData           *psu.PsuData `json:"psuData,omitempty"`
	ScaApproach       ScaApproach  `json:"scaApproach,omitempty"`
	TppNokRedirectURI string       `json:"tppNokRedirectUri,omitempty"`
}

// UpdateAuthorisationRequest carries the mutable fields of an authorisation.
type UpdateAuthorisationRequest struct {
	ScaStatus              status.ScaStatus `json:"scaStatus,omitempty"`
	PsuData                *psu.PsuData     `json:"psuData,omitempty"`
	AuthenticationMethodID string           `json:"authenticationMethodId,omitempty"`
	ScaApproach            ScaApproach      `json:"scaApproach,omitempty"`
}
