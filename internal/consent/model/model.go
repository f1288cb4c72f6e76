// Package model defines the AIS consent data model.
package model

import (
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
)

// RequestType classifies the account access a consent asks for.
type RequestType string

const (
	RequestTypeGlobal       RequestType = "GLOBAL"
	RequestTypeAllAvailable RequestType = "ALL_AVAILABLE_ACCOUNTS"
	RequestTypeBankOffered  RequestType = "BANK_OFFERED"
	RequestTypeDedicated    RequestType = "DEDICATED_ACCOUNTS"
)

// Account access type markers used inside AccountAccess.
const (
	AccessAllAccounts             = "ALL_ACCOUNTS"
	AccessAllAccountsWithBalances = "ALL_ACCOUNTS_WITH_BALANCES"
)

// AccountReference points at one account resource.
type AccountReference struct {
	Iban       string `json:"iban,omitempty"`
	Currency   string `json:"currency,omitempty"`
	ResourceID string `json:"resourceId,omitempty"`
}

// AccountAccess is the scope of account data a consent grants.
type AccountAccess struct {
	Accounts     []AccountReference `json:"accounts,omitempty"`
	Balances     []AccountReference `json:"balances,omitempty"`
	Transactions []AccountReference `json:"transactions,omitempty"`

	AvailableAccounts            string `json:"availableAccounts,omitempty"`
	AvailableAccountsWithBalance string `json:"availableAccountsWithBalance,omitempty"`
	AllPsd2                      string `json:"allPsd2,omitempty"`
}

// IsEmpty reports whether no access at all was requested.
func (a *AccountAccess) IsEmpty() bool {
	return len(a.Accounts) == 0 && len(a.Balances) == 0 && len(a.Transactions) == 0 &&
		a.AvailableAccounts == "" && a.AvailableAccountsWithBalance == "" && a.AllPsd2 == ""
}

// DeriveRequestType classifies the access scope. Order matters: a global
// marker wins over available-accounts markers, and an entirely empty access
// object is a bank-offered consent.
func (a *AccountAccess) DeriveRequestType() RequestType {
	if a.AllPsd2 == AccessAllAccounts {
		return RequestTypeGlobal
	}
	if a.AvailableAccounts == AccessAllAccounts ||
		a.AvailableAccounts == AccessAllAccountsWithBalances ||
		a.AvailableAccountsWithBalance == AccessAllAccounts {
		return RequestTypeAllAvailable
	}
	if a.IsEmpty() {
		return RequestTypeBankOffered
	}
	return RequestTypeDedicated
}

// Consent is an AIS consent record. Dates (validUntil, lastActionDate) use
// the YYYY-MM-DD wire format; timestamps are epoch milliseconds.
type Consent struct {
	ConsentID                string               `json:"consentId"`
	ConsentStatus            status.ConsentStatus `json:"consentStatus"`
	RequestType              RequestType          `json:"requestType"`
	Access                   AccountAccess        `json:"access"`
	PsuDataList              []psu.PsuData        `json:"psuDataList,omitempty"`
	TppID                    string               `json:"tppId"`
	FrequencyPerDay          int                  `json:"frequencyPerDay"`
	RecurringIndicator       bool                 `json:"recurringIndicator"`
	CombinedServiceIndicator bool                 `json:"combinedServiceIndicator"`
	MultilevelScaRequired    bool                 `json:"multilevelScaRequired"`
	ValidUntil               string               `json:"validUntil"`
	LastActionDate           string               `json:"lastActionDate,omitempty"`
	CreationTimestamp        int64                `json:"creationTimestamp"`
	StatusChangeTimestamp    int64                `json:"statusChangeTimestamp"`
	InstanceID               string               `json:"-"`
}

// IsOneOff reports whether the consent allows a single use per resource.
func (c *Consent) IsOneOff() bool {
	return !c.RecurringIndicator
}

// CreateConsentRequest carries the fields of a consent creation call.
// FrequencyPerDay is a pointer so a missing value can be told apart from
// an explicit zero.
type CreateConsentRequest struct {
	Access                   AccountAccess `json:"access"`
	PsuData                  *psu.PsuData  `json:"psuData,omitempty"`
	TppID                    string        `json:"tppId"`
	FrequencyPerDay          *int          `json:"frequencyPerDay"`
	RecurringIndicator       bool          `json:"recurringIndicator"`
	CombinedServiceIndicator bool          `json:"combinedServiceIndicator"`
	ValidUntil               string        `json:"validUntil"`
}

// Usage records one consumed access on a given day, optionally tied to a
// specific account resource.
type Usage struct {
	UsageID    string `json:"usageId"`
	ConsentID  string `json:"consentId"`
	ResourceID string `json:"resourceId,omitempty"`
	UsageDate  string `json:"usageDate"`
	InstanceID string `json:"-"`
}

// TransactionSlot records how many transactions the bank reported for one
// account resource, used to reconcile one-off consent usage.
type TransactionSlot struct {
	ConsentID            string `json:"consentId"`
	ResourceID           string `json:"resourceId"`
	NumberOfTransactions int    `json:"numberOfTransactions"`
	InstanceID           string `json:"-"`
}
