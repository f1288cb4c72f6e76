package authorisation

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/config"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/error/serviceerror"
)

// MockAuthorisationStore is a mock implementation of AuthorisationStoreInterface
type MockAuthorisationStore struct {
	mock.Mock
}

func (m *MockAuthorisationStore) Create(ctx context.Context, authorisation *model.Authorisation) error {
	args := m.Called(ctx, authorisation)
	return args.Error(0)
}

func (m *MockAuthorisationStore) GetByID(ctx context.Context, authorisationID, instanceID string) (*model.Authorisation, error) {
	args := m.Called(ctx, authorisationID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Authorisation), args.Error(1)
}

func (m *MockAuthorisationStore) GetByParentID(ctx context.Context, parentID, instanceID string) ([]model.Authorisation, error) {
	args := m.Called(ctx, parentID, instanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Authorisation), args.Error(1)
}

func (m *MockAuthorisationStore) Update(ctx context.Context, authorisation *model.Authorisation) error {
	args := m.Called(ctx, authorisation)
	return args.Error(0)
}

func (m *MockAuthorisationStore) UpdateScaStatus(ctx context.Context, authorisationID, instanceID string, scaStatus status.ScaStatus, updatedTime int64) error {
	args := m.Called(ctx, authorisationID, instanceID, scaStatus, updatedTime)
	return args.Error(0)
}

func (m *MockAuthorisationStore) UpdateScaApproach(ctx context.Context, authorisationID, instanceID string, scaApproach model.ScaApproach, updatedTime int64) error {
	args := m.Called(ctx, authorisationID, instanceID, scaApproach, updatedTime)
	return args.Error(0)
}

func (m *MockAuthorisationStore) SaveAuthenticationMethods(ctx context.Context, authorisationID, instanceID string, methods []model.ScaMethod, updatedTime int64) error {
	args := m.Called(ctx, authorisationID, instanceID, methods, updatedTime)
	return args.Error(0)
}

func (m *MockAuthorisationStore) CloseWithTx(tx dbmodel.TxInterface, authorisationID, instanceID string, redirectExpiration, updatedTime int64) error {
	args := m.Called(tx, authorisationID, instanceID, redirectExpiration, updatedTime)
	return args.Error(0)
}

// MockClosingService is a mock implementation of ClosingServiceInterface
type MockClosingService struct {
	mock.Mock
}

func (m *MockClosingService) CloseSiblingAuthorisations(ctx context.Context, parentID string, parentType model.ParentType, instanceID, excludeAuthorisationID string, psuData *psu.PsuData) error {
	args := m.Called(ctx, parentID, parentType, instanceID, excludeAuthorisationID, psuData)
	return args.Error(0)
}

// MockParentService is a mock implementation of ParentServiceInterface
type MockParentService struct {
	mock.Mock
}

func (m *MockParentService) GetParent(ctx context.Context, parentID, instanceID string) (*ParentInfo, *serviceerror.ServiceError) {
	args := m.Called(ctx, parentID, instanceID)
	var svcErr *serviceerror.ServiceError
	if args.Get(1) != nil {
		svcErr = args.Get(1).(*serviceerror.ServiceError)
	}
	if args.Get(0) == nil {
		return nil, svcErr
	}
	return args.Get(0).(*ParentInfo), svcErr
}

func (m *MockParentService) OnConfirmationExpiration(ctx context.Context, parentID, instanceID string) *serviceerror.ServiceError {
	args := m.Called(ctx, parentID, instanceID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*serviceerror.ServiceError)
}

// fakeExecutor runs the transaction queries inline with a nil tx so mock
// stores can record the per-row operations.
type fakeExecutor struct {
	executed int
	err      error
}

func (f *fakeExecutor) ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error {
	if f.err != nil {
		return f.err
	}
	f.executed++
	for _, query := range queries {
		if err := query(nil); err != nil {
			return err
		}
	}
	return nil
}

// fixedProfileProvider returns the same settings for every instance.
type fixedProfileProvider struct {
	settings config.ProfileSettings
}

func (p *fixedProfileProvider) Get(instanceID string) config.ProfileSettings {
	return p.settings
}
