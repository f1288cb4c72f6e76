// Package model defines the PIS payment data structures.
package model

import (
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
)

// PaymentType distinguishes the PIS payment flavours.
type PaymentType string

const (
	PaymentTypeSingle   PaymentType = "SINGLE"
	PaymentTypeBulk     PaymentType = "BULK"
	PaymentTypePeriodic PaymentType = "PERIODIC"
)

// IsValid reports whether the value is a known payment type.
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeSingle, PaymentTypeBulk, PaymentTypePeriodic:
		return true
	}
	return false
}

// Payment is a PIS payment record kept for SCA tracking. Timestamps are
// epoch milliseconds.
type Payment struct {
	PaymentID             string                   `json:"paymentId"`
	PaymentType           PaymentType              `json:"paymentType"`
	PaymentProduct        string                   `json:"paymentProduct"`
	TransactionStatus     status.TransactionStatus `json:"transactionStatus"`
	PsuDataList           []psu.PsuData            `json:"psuDataList,omitempty"`
	TppID                 string                   `json:"tppId"`
	MultilevelScaRequired bool                     `json:"multilevelScaRequired"`
	CreationTimestamp     int64                    `json:"creationTimestamp"`
	StatusChangeTimestamp int64                    `json:"statusChangeTimestamp"`
	InstanceID            string                   `json:"-"`
}

// CreatePaymentRequest carries the fields of a payment registration call.
type CreatePaymentRequest struct {
	PaymentType    PaymentType  `json:"paymentType"`
	PaymentProduct string       `json:"paymentProduct"`
	PsuData        *psu.PsuData `json:"psuData,omitempty"`
	TppID          string       `json:"tppId"`
}
