package authorisation

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/profile"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
	"github.com/psd2hub/consent-cms/internal/system/log"
	"github.com/psd2hub/consent-cms/internal/system/metrics"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// AuthorisationServiceInterface defines the authorisation lifecycle operations.
type AuthorisationServiceInterface interface {
	CreateAuthorisation(ctx context.Context, instanceID string, req *model.CreateAuthorisationRequest) (*model.Authorisation, *serviceerror.ServiceError)
	GetAuthorisationByID(ctx context.Context, instanceID, authorisationID string) (*model.Authorisation, *serviceerror.ServiceError)
	GetAuthorisationsByParentID(ctx context.Context, instanceID string, parentType model.ParentType, parentID string) ([]model.Authorisation, *serviceerror.ServiceError)
	GetScaStatus(ctx context.Context, instanceID, authorisationID string) (status.ScaStatus, *serviceerror.ServiceError)
	UpdateAuthorisation(ctx context.Context, instanceID, authorisationID string, req *model.UpdateAuthorisationRequest) (*model.Authorisation, *serviceerror.ServiceError)
	UpdateAuthorisationStatus(ctx context.Context, instanceID, authorisationID string, scaStatus status.ScaStatus) (bool, *serviceerror.ServiceError)
	SaveAuthenticationMethods(ctx context.Context, instanceID, authorisationID string, methods []model.ScaMethod) (bool, *serviceerror.ServiceError)
	UpdateScaApproach(ctx context.Context, instanceID, authorisationID string, scaApproach model.ScaApproach) (bool, *serviceerror.ServiceError)
	GetScaApproach(ctx context.Context, instanceID, authorisationID string) (model.ScaApproach, *serviceerror.ServiceError)
	IsAuthenticationMethodDecoupled(ctx context.Context, instanceID, authorisationID, authenticationMethodID string) (bool, *serviceerror.ServiceError)
}

type authorisationService struct {
	store           AuthorisationStoreInterface
	closing         ClosingServiceInterface
	resolver        ParentResolver
	profileProvider profile.SettingsProviderInterface
	logger          *log.Logger
}

// NewAuthorisationService creates a new authorisation service.
func NewAuthorisationService(
	store AuthorisationStoreInterface,
	closing ClosingServiceInterface,
	resolver ParentResolver,
	profileProvider profile.SettingsProviderInterface,
) AuthorisationServiceInterface {
	return &authorisationService{
		store:           store,
		closing:         closing,
		resolver:        resolver,
		profileProvider: profileProvider,
		logger:          log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthorisationService")),
	}
}

// CreateAuthorisation starts a new authorisation on a consent or payment.
// Earlier non-finalised authorisations of the same PSU are failed first, so
// each PSU holds at most one live authorisation per parent.
func (s *authorisationService) CreateAuthorisation(ctx context.Context, instanceID string, req *model.CreateAuthorisationRequest) (*model.Authorisation, *serviceerror.ServiceError) {
	parentService, ok := s.resolver.Resolve(req.ParentType)
	if !ok {
		return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown parent type")
	}

	parent, svcErr := parentService.GetParent(ctx, req.ParentID, instanceID)
	if svcErr != nil {
		return nil, svcErr
	}
	if parent.Finalised {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Parent resource is already finalised")
	}

	if err := s.closing.CloseSiblingAuthorisations(ctx, req.ParentID, req.ParentType, instanceID, "", req.PsuData); err != nil {
		s.logger.Error("Failed to close sibling authorisations", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to close previous authorisations")
	}

	settings := s.profileProvider.Get(instanceID)
	now := utils.GetCurrentTimeMillis()

	authorisation := &model.Authorisation{
		AuthorisationID:                utils.GenerateUUID(),
		ParentID:                       req.ParentID,
		ParentType:                     req.ParentType,
		ScaStatus:                      status.ScaReceived,
		ScaApproach:                    req.ScaApproach,
		PsuData:                        req.PsuData,
		RedirectURLExpirationTimestamp: now + settings.RedirectURLExpirationTimeMs,
		TppNokRedirectURI:              req.TppNokRedirectURI,
		CreatedTime:                    now,
		UpdatedTime:                    now,
		InstanceID:                     instanceID,
	}

	if err := s.store.Create(ctx, authorisation); err != nil {
		s.logger.Error("Failed to create authorisation", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to create authorisation")
	}
	return authorisation, nil
}

func (s *authorisationService) GetAuthorisationByID(ctx context.Context, instanceID, authorisationID string) (*model.Authorisation, *serviceerror.ServiceError) {
	authorisation, err := s.store.GetByID(ctx, authorisationID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get authorisation", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get authorisation")
	}
	if authorisation == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Authorisation not found")
	}
	return authorisation, nil
}

// GetAuthorisationsByParentID lists the authorisations of a parent. The
// parent's confirmation window is checked first; an expired parent takes
// its open authorisations down with it.
func (s *authorisationService) GetAuthorisationsByParentID(ctx context.Context, instanceID string, parentType model.ParentType, parentID string) ([]model.Authorisation, *serviceerror.ServiceError) {
	if svcErr := s.expireParentIfConfirmationOverdue(ctx, instanceID, parentType, parentID); svcErr != nil {
		return nil, svcErr
	}

	authorisations, err := s.store.GetByParentID(ctx, parentID, instanceID)
	if err != nil {
		s.logger.Error("Failed to list authorisations", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to list authorisations")
	}
	return authorisations, nil
}

// GetScaStatus returns the authorisation's SCA status, expiring the parent
// on the way when its confirmation window has lapsed.
func (s *authorisationService) GetScaStatus(ctx context.Context, instanceID, authorisationID string) (status.ScaStatus, *serviceerror.ServiceError) {
	authorisation, svcErr := s.GetAuthorisationByID(ctx, instanceID, authorisationID)
	if svcErr != nil {
		return "", svcErr
	}

	parentService, ok := s.resolver.Resolve(authorisation.ParentType)
	if !ok {
		return "", serviceerror.CustomServiceError(serviceerror.InternalServerError, "Unknown parent type on stored authorisation")
	}

	parent, svcErr := parentService.GetParent(ctx, authorisation.ParentID, instanceID)
	if svcErr != nil {
		return "", svcErr
	}

	if parent.ConfirmationExpired {
		if svcErr := parentService.OnConfirmationExpiration(ctx, authorisation.ParentID, instanceID); svcErr != nil {
			return "", svcErr
		}
		if err := s.failOpenAuthorisations(ctx, instanceID, authorisation.ParentID); err != nil {
			s.logger.Error("Failed to expire authorisations", log.Error(err))
			return "", serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire authorisations")
		}
		return status.ScaFailed, nil
	}

	return authorisation.ScaStatus, nil
}

// UpdateAuthorisation applies PSU data and status changes. The closing
// pass runs before the finalised guard so a stale sibling cannot survive a
// rejected update.
func (s *authorisationService) UpdateAuthorisation(ctx context.Context, instanceID, authorisationID string, req *model.UpdateAuthorisationRequest) (*model.Authorisation, *serviceerror.ServiceError) {
	authorisation, svcErr := s.GetAuthorisationByID(ctx, instanceID, authorisationID)
	if svcErr != nil {
		return nil, svcErr
	}

	if !psu.IsPsuDataRequestCorrect(req.PsuData, authorisation.PsuData) && !req.PsuData.IsEmpty() {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "PSU data does not match the authorisation")
	}

	closingPsu := psu.DefinePsuDataForAuthorisation(authorisation.PsuData, req.PsuData)
	if err := s.closing.CloseSiblingAuthorisations(ctx, authorisation.ParentID, authorisation.ParentType, instanceID, authorisationID, closingPsu); err != nil {
		s.logger.Error("Failed to close sibling authorisations", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to close previous authorisations")
	}

	if authorisation.ScaStatus.IsFinalised() {
		return nil, serviceerror.CustomServiceError(serviceerror.LogicalError, "Authorisation is already finalised")
	}

	if req.ScaStatus != "" {
		if !req.ScaStatus.IsValid() {
			return nil, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown SCA status")
		}
		authorisation.ScaStatus = req.ScaStatus
	}
	authorisation.PsuData = closingPsu
	if req.AuthenticationMethodID != "" {
		authorisation.AuthenticationMethodID = req.AuthenticationMethodID
	}
	if req.ScaApproach != "" {
		authorisation.ScaApproach = req.ScaApproach
	}
	authorisation.UpdatedTime = utils.GetCurrentTimeMillis()

	if err := s.store.Update(ctx, authorisation); err != nil {
		s.logger.Error("Failed to update authorisation", log.Error(err))
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update authorisation")
	}
	return authorisation, nil
}

// UpdateAuthorisationStatus sets the SCA status. A missing or finalised
// authorisation is a no-op reported with a false payload, not an error.
func (s *authorisationService) UpdateAuthorisationStatus(ctx context.Context, instanceID, authorisationID string, scaStatus status.ScaStatus) (bool, *serviceerror.ServiceError) {
	if !scaStatus.IsValid() {
		return false, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown SCA status")
	}

	authorisation, err := s.store.GetByID(ctx, authorisationID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get authorisation", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get authorisation")
	}
	if authorisation == nil || authorisation.ScaStatus.IsFinalised() {
		return false, nil
	}

	if err := s.store.UpdateScaStatus(ctx, authorisationID, instanceID, scaStatus, utils.GetCurrentTimeMillis()); err != nil {
		s.logger.Error("Failed to update SCA status", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update SCA status")
	}
	return true, nil
}

func (s *authorisationService) SaveAuthenticationMethods(ctx context.Context, instanceID, authorisationID string, methods []model.ScaMethod) (bool, *serviceerror.ServiceError) {
	authorisation, err := s.store.GetByID(ctx, authorisationID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get authorisation", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get authorisation")
	}
	if authorisation == nil {
		return false, nil
	}

	if err := s.store.SaveAuthenticationMethods(ctx, authorisationID, instanceID, methods, utils.GetCurrentTimeMillis()); err != nil {
		s.logger.Error("Failed to save authentication methods", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to save authentication methods")
	}
	return true, nil
}

func (s *authorisationService) UpdateScaApproach(ctx context.Context, instanceID, authorisationID string, scaApproach model.ScaApproach) (bool, *serviceerror.ServiceError) {
	authorisation, err := s.store.GetByID(ctx, authorisationID, instanceID)
	if err != nil {
		s.logger.Error("Failed to get authorisation", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to get authorisation")
	}
	if authorisation == nil {
		return false, nil
	}

	if err := s.store.UpdateScaApproach(ctx, authorisationID, instanceID, scaApproach, utils.GetCurrentTimeMillis()); err != nil {
		s.logger.Error("Failed to update SCA approach", log.Error(err))
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to update SCA approach")
	}
	return true, nil
}

func (s *authorisationService) GetScaApproach(ctx context.Context, instanceID, authorisationID string) (model.ScaApproach, *serviceerror.ServiceError) {
	authorisation, svcErr := s.GetAuthorisationByID(ctx, instanceID, authorisationID)
	if svcErr != nil {
		return "", svcErr
	}
	return authorisation.ScaApproach, nil
}

func (s *authorisationService) IsAuthenticationMethodDecoupled(ctx context.Context, instanceID, authorisationID, authenticationMethodID string) (bool, *serviceerror.ServiceError) {
	authorisation, svcErr := s.GetAuthorisationByID(ctx, instanceID, authorisationID)
	if svcErr != nil {
		return false, svcErr
	}
	for _, method := range authorisation.ScaAuthenticationMethods {
		if method.AuthenticationMethodID == authenticationMethodID {
			return method.Decoupled, nil
		}
	}
	return false, nil
}

func (s *authorisationService) expireParentIfConfirmationOverdue(ctx context.Context, instanceID string, parentType model.ParentType, parentID string) *serviceerror.ServiceError {
	parentService, ok := s.resolver.Resolve(parentType)
	if !ok {
		return serviceerror.CustomServiceError(serviceerror.InvalidRequestError, "Unknown parent type")
	}

	parent, svcErr := parentService.GetParent(ctx, parentID, instanceID)
	if svcErr != nil {
		return svcErr
	}
	if !parent.ConfirmationExpired {
		return nil
	}

	if svcErr := parentService.OnConfirmationExpiration(ctx, parentID, instanceID); svcErr != nil {
		return svcErr
	}
	if err := s.failOpenAuthorisations(ctx, instanceID, parentID); err != nil {
		s.logger.Error("Failed to expire authorisations", log.Error(err))
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, "Failed to expire authorisations")
	}
	return nil
}

// failOpenAuthorisations marks every non-finalised authorisation of an
// expired parent FAILED.
func (s *authorisationService) failOpenAuthorisations(ctx context.Context, instanceID, parentID string) error {
	authorisations, err := s.store.GetByParentID(ctx, parentID, instanceID)
	if err != nil {
		return err
	}

	now := utils.GetCurrentTimeMillis()
	for _, authorisation := range authorisations {
		if authorisation.ScaStatus.IsFinalised() {
			continue
		}
		if err := s.store.UpdateScaStatus(ctx, authorisation.AuthorisationID, instanceID, status.ScaFailed, now); err != nil {
			return err
		}
		metrics.Get().AuthorisationsExpired.Inc()
	}
	return nil
}
