package authorisation

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/idcipher"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// encryptedService translates the encrypted parent ids used on the wire to
// internal ids before delegating. Decryption failures surface as technical
// errors without touching the store.
type encryptedService struct {
	inner  AuthorisationServiceInterface
	cipher idcipher.IDCipherInterface
}

// NewEncryptedService wraps an authorisation service with the id boundary.
func NewEncryptedService(inner AuthorisationServiceInterface, cipher idcipher.IDCipherInterface) AuthorisationServiceInterface {
	return &encryptedService{inner: inner, cipher: cipher}
}

func (s *encryptedService) CreateAuthorisation(ctx context.Context, instanceID string, req *model.CreateAuthorisationRequest) (*model.Authorisation, *serviceerror.ServiceError) {
	parentID, ok := s.cipher.DecryptID(req.ParentID)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to decrypt parent id")
	}

	decrypted := *req
	decrypted.ParentID = parentID
	authorisation, svcErr := s.inner.CreateAuthorisation(ctx, instanceID, &decrypted)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptParentID(authorisation)
}

func (s *encryptedService) GetAuthorisationByID(ctx context.Context, instanceID, authorisationID string) (*model.Authorisation, *serviceerror.ServiceError) {
	authorisation, svcErr := s.inner.GetAuthorisationByID(ctx, instanceID, authorisationID)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptParentID(authorisation)
}

func (s *encryptedService) GetAuthorisationsByParentID(ctx context.Context, instanceID string, parentType model.ParentType, parentID string) ([]model.Authorisation, *serviceerror.ServiceError) {
	internalID, ok := s.cipher.DecryptID(parentID)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to decrypt parent id")
	}

	authorisations, svcErr := s.inner.GetAuthorisationsByParentID(ctx, instanceID, parentType, internalID)
	if svcErr != nil {
		return nil, svcErr
	}

	encrypted := make([]model.Authorisation, 0, len(authorisations))
	for _, authorisation := range authorisations {
		withExternal, svcErr := s.encryptParentID(&authorisation)
		if svcErr != nil {
			return nil, svcErr
		}
		encrypted = append(encrypted, *withExternal)
	}
	return encrypted, nil
}

func (s *encryptedService) GetScaStatus(ctx context.Context, instanceID, authorisationID string) (status.ScaStatus, *serviceerror.ServiceError) {
	return s.inner.GetScaStatus(ctx, instanceID, authorisationID)
}

func (s *encryptedService) UpdateAuthorisation(ctx context.Context, instanceID, authorisationID string, req *model.UpdateAuthorisationRequest) (*model.Authorisation, *serviceerror.ServiceError) {
	authorisation, svcErr := s.inner.UpdateAuthorisation(ctx, instanceID, authorisationID, req)
	if svcErr != nil {
		return nil, svcErr
	}
	return s.encryptParentID(authorisation)
}

func (s *encryptedService) UpdateAuthorisationStatus(ctx context.Context, instanceID, authorisationID string, scaStatus status.ScaStatus) (bool, *serviceerror.ServiceError) {
	return s.inner.UpdateAuthorisationStatus(ctx, instanceID, authorisationID, scaStatus)
}

func (s *encryptedService) SaveAuthenticationMethods(ctx context.Context, instanceID, authorisationID string, methods []model.ScaMethod) (bool, *serviceerror.ServiceError) {
	return s.inner.SaveAuthenticationMethods(ctx, instanceID, authorisationID, methods)
}

func (s *encryptedService) UpdateScaApproach(ctx context.Context, instanceID, authorisationID string, scaApproach model.ScaApproach) (bool, *serviceerror.ServiceError) {
	return s.inner.UpdateScaApproach(ctx, instanceID, authorisationID, scaApproach)
}

func (s *encryptedService) GetScaApproach(ctx context.Context, instanceID, authorisationID string) (model.ScaApproach, *serviceerror.ServiceError) {
	return s.inner.GetScaApproach(ctx, instanceID, authorisationID)
}

func (s *encryptedService) IsAuthenticationMethodDecoupled(ctx context.Context, instanceID, authorisationID, authenticationMethodID string) (bool, *serviceerror.ServiceError) {
	return s.inner.IsAuthenticationMethodDecoupled(ctx, instanceID, authorisationID, authenticationMethodID)
}

func (s *encryptedService) encryptParentID(authorisation *model.Authorisation) (*model.Authorisation, *serviceerror.ServiceError) {
	external, ok := s.cipher.EncryptID(authorisation.ParentID)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.TechnicalError, "Failed to encrypt parent id")
	}
	out := *authorisation
	out.ParentID = external
	return &out, nil
}
