// Package stores provides a registry of the persistence stores and a shared
// transaction execution helper.
package stores

import (
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/database/provider"
	"github.com/psd2hub/consent-cms/internal/system/log"
)

// StoreRegistry holds all the initialized stores. The store fields are typed
// as interface{} to avoid import cycles between feature packages; each
// service asserts the store type it needs during wiring.
type StoreRegistry struct {
	dbClient provider.DBClientInterface

	Consent       interface{} // consent.ConsentStoreInterface
	Authorisation interface{} // authorisation.AuthorisationStoreInterface
	Payment       interface{} // payment.PaymentStoreInterface
}

// NewStoreRegistry creates a new store registry with all initialized stores.
func NewStoreRegistry(
	dbClient provider.DBClientInterface,
	consentStore interface{},
	authorisationStore interface{},
	paymentStore interface{},
) *StoreRegistry {
	return &StoreRegistry{
		dbClient:      dbClient,
		Consent:       consentStore,
		Authorisation: authorisationStore,
		Payment:       paymentStore,
	}
}

// ExecuteTransaction executes multiple store operations in a single transaction.
func (r *StoreRegistry) ExecuteTransaction(queries []func(tx dbmodel.TxInterface) error) error {
	logger := log.GetLogger()
	logger.Debug("Starting transaction", log.Int("query_count", len(queries)))

	tx, err := r.dbClient.BeginTx()
	if err != nil {
		logger.Error("Failed to begin transaction", log.Error(err))
		return err
	}

	for i, query := range queries {
		if err := query(tx); err != nil {
			logger.Warn("Transaction query failed, rolling back",
				log.Error(err),
				log.Int("failed_query_index", i),
			)
			tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit transaction", log.Error(err))
		return err
	}

	logger.Debug("Transaction committed successfully", log.Int("query_count", len(queries)))
	return nil
}
