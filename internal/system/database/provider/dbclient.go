package provider

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/log"
)

// DBClientInterface is the query surface handed out to the stores.
type DBClientInterface interface {
	Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error)
	Execute(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error)
	BeginTx() (dbmodel.TxInterface, error)
	DBType() string
}

// dbClient implements DBClientInterface on top of sqlx.
type dbClient struct {
	db     *sqlx.DB
	dbType string
}

// NewDBClient creates a new database client for the given dialect.
func NewDBClient(db *sqlx.DB, dbType string) DBClientInterface {
	return &dbClient{
		db:     db,
		dbType: dbType,
	}
}

// Query runs a named query and returns the result set as generic rows.
func (c *dbClient) Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))
	logger.Debug("Executing query", log.String("query_id", query.GetID()))

	rows, err := c.db.Queryx(query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("query %s failed: %w", query.GetID(), err)
	}
	defer rows.Close()

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("query %s row scan failed: %w", query.GetID(), err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s iteration failed: %w", query.GetID(), err)
	}

	return results, nil
}

// Execute runs a named statement and returns the raw result.
func (c *dbClient) Execute(query dbmodel.DBQueryInterface, args ...interface{}) (sql.Result, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClient"))
	logger.Debug("Executing statement", log.String("query_id", query.GetID()))

	result, err := c.db.Exec(query.GetQuery(c.dbType), args...)
	if err != nil {
		return nil, fmt.Errorf("statement %s failed: %w", query.GetID(), err)
	}
	return result, nil
}

// BeginTx starts a transaction on the underlying connection.
func (c *dbClient) BeginTx() (dbmodel.TxInterface, error) {
	tx, err := c.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return dbmodel.NewTx(tx), nil
}

// DBType returns the configured database dialect.
func (c *dbClient) DBType() string {
	return c.dbType
}
