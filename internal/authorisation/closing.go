package authorisation

import (
	"context"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/log"
	"github.com/psd2hub/consent-cms/internal/system/metrics"
	"github.com/psd2hub/consent-cms/internal/system/utils"
)

// TransactionExecutor runs a batch of store operations atomically.
type TransactionExecutor interface {
	ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error
}

// ClosingServiceInterface closes the still-open sibling authorisations of
// the same PSU when a new authorisation supersedes them.
type ClosingServiceInterface interface {
	CloseSiblingAuthorisations(ctx context.Context, parentID string, parentType model.ParentType, instanceID, excludeAuthorisationID string, psuData *psu.PsuData) error
}

type closingService struct {
	store    AuthorisationStoreInterface
	executor TransactionExecutor
	logger   *log.Logger
}

// NewClosingService creates a new authorisation closing service.
func NewClosingService(store AuthorisationStoreInterface, executor TransactionExecutor) ClosingServiceInterface {
	return &closingService{
		store:    store,
		executor: executor,
		logger:   log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthorisationClosingService")),
	}
}

// CloseSiblingAuthorisations fails every non-finalised authorisation on the
// parent that belongs to the same PSU and carries the same parent type,
// except the one being worked on. A request without PSU identification
// closes nothing: other PSUs' authorisations must survive multilevel SCA.
func (s *closingService) CloseSiblingAuthorisations(ctx context.Context, parentID string, parentType model.ParentType, instanceID, excludeAuthorisationID string, psuData *psu.PsuData) error {
	if psuData.IsEmpty() {
		return nil
	}

	siblings, err := s.store.GetByParentID(ctx, parentID, instanceID)
	if err != nil {
		return err
	}

	toClose := make([]model.Authorisation, 0, len(siblings))
	for _, sibling := range siblings {
		if sibling.AuthorisationID == excludeAuthorisationID {
			continue
		}
		if sibling.ParentType != parentType {
			continue
		}
		if sibling.ScaStatus.IsFinalised() {
			continue
		}
		if !psuData.ContentEquals(sibling.PsuData) {
			continue
		}
		toClose = append(toClose, sibling)
	}

	if len(toClose) == 0 {
		return nil
	}

	now := utils.GetCurrentTimeMillis()
	queries := make([]func(tx dbmodel.TxInterface) error, 0, len(toClose))
	for _, sibling := range toClose {
		authorisationID := sibling.AuthorisationID
		queries = append(queries, func(tx dbmodel.TxInterface) error {
			return s.store.CloseWithTx(tx, authorisationID, instanceID, now, now)
		})
	}

	if err := s.executor.ExecuteTransaction(queries); err != nil {
		return err
	}

	for range toClose {
		metrics.Get().AuthorisationsClosed.Inc()
	}
	s.logger.Debug("Closed sibling authorisations",
		log.String("parent_id", parentID),
		log.Int("closed_count", len(toClose)))
	return nil
}
