package consent

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/profile"
)

// OneOffExpirationServiceInterface decides whether a one-off consent has
// been fully used up.
type OneOffExpirationServiceInterface interface {
	IsConsentExpired(ctx context.Context, consent *model.Consent) (bool, error)
}

type oneOffExpirationService struct {
	store           ConsentStoreInterface
	profileProvider profile.SettingsProviderInterface
}

// NewOneOffExpirationService creates a new one-off usage reconciliation service.
func NewOneOffExpirationService(store ConsentStoreInterface, profileProvider profile.SettingsProviderInterface) OneOffExpirationServiceInterface {
	return &oneOffExpirationService{
		store:           store,
		profileProvider: profileProvider,
	}
}

// IsConsentExpired reports whether a one-off consent has no remaining
// accesses. Recurring consents never expire this way. A bank-offered
// consent has no enumerable scope and never exhausts; an all-available
// consent is spent after its single read. A global consent reconciles
// per-resource usage only when the profile advertises the ALL or BOTH
// booking status.
func (s *oneOffExpirationService) IsConsentExpired(ctx context.Context, consent *model.Consent) (bool, error) {
	if !consent.IsOneOff() {
		return false, nil
	}

	switch consent.RequestType {
	case model.RequestTypeBankOffered:
		return false, nil
	case model.RequestTypeAllAvailable:
		return true, nil
	case model.RequestTypeGlobal:
		if !profile.SupportsGlobalUsageReconciliation(s.profileProvider.Get(consent.InstanceID)) {
			return true, nil
		}
	}

	return s.isUsageExhausted(ctx, consent)
}

// isUsageExhausted compares per-resource usage against the accesses the
// consent still owes the TPP.
func (s *oneOffExpirationService) isUsageExhausted(ctx context.Context, consent *model.Consent) (bool, error) {
	required, err := s.requiredAccesses(ctx, consent)
	if err != nil {
		return false, err
	}
	if len(required) == 0 {
		return false, nil
	}

	usages, err := s.store.GetUsages(ctx, consent.ConsentID, consent.InstanceID)
	if err != nil {
		return false, err
	}

	used := make(map[string]int, len(usages))
	for _, usage := range usages {
		used[usage.ResourceID]++
	}

	for resourceID, requiredCount := range required {
		if used[resourceID] < requiredCount {
			return false, nil
		}
	}
	return true, nil
}

// requiredAccesses computes, per account resource, how many reads the TPP
// is entitled to: one for balances, and for transactions one list call per
// recorded transaction page (at least one).
func (s *oneOffExpirationService) requiredAccesses(ctx context.Context, consent *model.Consent) (map[string]int, error) {
	slots, err := s.store.GetTransactionSlots(ctx, consent.ConsentID, consent.InstanceID)
	if err != nil {
		return nil, err
	}
	slotsByResource := make(map[string]int, len(slots))
	for _, slot := range slots {
		slotsByResource[slot.ResourceID] = slot.NumberOfTransactions
	}

	required := make(map[string]int)
	for _, balance := range consent.Access.Balances {
		if balance.ResourceID == "" {
			continue
		}
		required[balance.ResourceID]++
	}
	for _, transaction := range consent.Access.Transactions {
		if transaction.ResourceID == "" {
			continue
		}
		pages := slotsByResource[transaction.ResourceID]
		if pages < 1 {
			pages = 1
		}
		required[transaction.ResourceID] += pages
	}
	return required, nil
}
