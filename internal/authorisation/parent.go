package authorisation

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// ParentInfo is the authorisation-relevant view of a consent or payment.
type ParentInfo struct {
	ID                  string
	Finalised           bool
	ConfirmationExpired bool
	MultilevelSca       bool
}

// ParentServiceInterface is implemented by the consent and payment modules
// so the authorisation engine can consult and expire its parent without
// importing either package.
type ParentServiceInterface interface {
	// GetParent returns the parent state, or a logical error when the
	// parent does not exist.
	GetParent(ctx context.Context, parentID, instanceID string) (*ParentInfo, *serviceerror.ServiceError)

	// OnConfirmationExpiration moves the parent to its confirmation-expired
	// terminal state. Called lazily from authorisation read paths.
	OnConfirmationExpiration(ctx context.Context, parentID, instanceID string) *serviceerror.ServiceError
}

// ParentResolver maps each parent type to the module owning it.
type ParentResolver map[model.ParentType]ParentServiceInterface

// Resolve returns the parent service for the given type.
func (r ParentResolver) Resolve(parentType model.ParentType) (ParentServiceInterface, bool) {
	svc, ok := r[parentType]
	return svc, ok
}
