// Package provider provides functionality for managing database connections and clients.
package provider

import (
	"sync"

	"github.com/psd2hub/consent-cms/internal/system/database"
	"github.com/psd2hub/consent-cms/internal/system/log"
)

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetConsentDBClient() (DBClientInterface, error)
}

// DBProviderCloser is a separate interface for closing the provider.
// Only the lifecycle manager should use this interface.
type DBProviderCloser interface {
	Close() error
}

// dbProvider is the implementation of DBProviderInterface.
type dbProvider struct {
	consentClient DBClientInterface
	consentMutex  sync.RWMutex
	db            *database.DB
	dbType        string
}

var (
	instance *dbProvider
	once     sync.Once
)

// InitDBProvider initializes the singleton instance of DBProvider with the database connection.
func InitDBProvider(db *database.DB, dbType string) {
	once.Do(func() {
		instance = &dbProvider{
			db:     db,
			dbType: dbType,
		}
		instance.initializeClient()
	})
}

// GetDBProvider returns the instance of DBProvider.
func GetDBProvider() DBProviderInterface {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetDBProviderCloser returns the DBProvider with closing capability.
// This should only be called from the main lifecycle manager.
func GetDBProviderCloser() DBProviderCloser {
	if instance == nil {
		panic("DBProvider not initialized. Call InitDBProvider first.")
	}
	return instance
}

// GetConsentDBClient returns a database client for the consent datasource.
// Not required to close the returned client manually since it manages its own connection pool.
func (d *dbProvider) GetConsentDBClient() (DBClientInterface, error) {
	d.consentMutex.RLock()
	defer d.consentMutex.RUnlock()
	return d.consentClient, nil
}

// initializeClient initializes the database client.
func (d *dbProvider) initializeClient() {
	d.consentMutex.Lock()
	defer d.consentMutex.Unlock()

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))

	if d.db == nil {
		logger.Fatal("Database connection is nil")
		return
	}

	d.consentClient = NewDBClient(d.db.DB, d.dbType)
	logger.Debug("Consent DB client initialized")
}

// Close closes the database connections. This should only be called by the lifecycle manager during shutdown.
func (d *dbProvider) Close() error {
	d.consentMutex.Lock()
	defer d.consentMutex.Unlock()

	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBProvider"))
	logger.Debug("Closing database connections")

	d.consentClient = nil
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}
