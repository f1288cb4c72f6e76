package consent

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/status"
	"github.com/psd2hub/consent-cms/internal/system/database/provider"
)

func newStoreWithMock(t *testing.T) (ConsentStoreInterface, sqlmock.Sqlmock) {
	db, mockDB, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	client := provider.NewDBClient(sqlx.NewDb(db, "mysql"), "mysql")
	return NewConsentStore(client), mockDB
}

func consentColumns() []string {
	return []string{
		"CONSENT_ID", "CONSENT_STATUS", "REQUEST_TYPE", "ACCESS_DATA", "PSU_DATA",
		"TPP_ID", "FREQUENCY_PER_DAY", "RECURRING_INDICATOR", "COMBINED_SERVICE_INDICATOR",
		"MULTILEVEL_SCA_REQUIRED", "VALID_UNTIL", "LAST_ACTION_DATE",
		"CREATION_TIMESTAMP", "STATUS_CHANGE_TIMESTAMP", "INSTANCE_ID",
	}
}

func TestStoreGetByID(t *testing.T) {
	store, mockDB := newStoreWithMock(t)

	rows := sqlmock.NewRows(consentColumns()).AddRow(
		[]byte("consent-1"), []byte("VALID"), []byte("DEDICATED_ACCOUNTS"),
		[]byte(`{"accounts":[{"iban":"DE02100100109307118603","resourceId":"res-1"}]}`),
		[]byte(`[{"psuId":"anton.brueckner","psuIdType":"type"}]`),
		[]byte("tpp-1"), int64(4), int64(1), int64(0),
		int64(1), []byte("2026-09-30 00:00:00"), []byte("2026-08-28"),
		int64(1699999000000), int64(1699999500000), []byte("bank-de"),
	)
	mockDB.ExpectQuery(QueryGetConsentByID.Query).
		WithArgs("consent-1", "bank-de").
		WillReturnRows(rows)

	consent, err := store.GetByID(context.Background(), "consent-1", "bank-de")

	require.NoError(t, err)
	require.NotNil(t, consent)
	assert.Equal(t, status.ConsentValid, consent.ConsentStatus)
	assert.Equal(t, model.RequestTypeDedicated, consent.RequestType)
	assert.Equal(t, 4, consent.FrequencyPerDay)
	assert.True(t, consent.RecurringIndicator)
	assert.True(t, consent.MultilevelScaRequired)
	// The DATE column comes back with a time component and must be trimmed.
	assert.Equal(t, "2026-09-30", consent.ValidUntil)
	require.Len(t, consent.PsuDataList, 1)
	assert.Equal(t, "anton.brueckner", consent.PsuDataList[0].PsuID)
	require.Len(t, consent.Access.Accounts, 1)
	assert.Equal(t, "res-1", consent.Access.Accounts[0].ResourceID)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestStoreGetByIDNotFound(t *testing.T) {
	store, mockDB := newStoreWithMock(t)

	mockDB.ExpectQuery(QueryGetConsentByID.Query).
		WithArgs("missing", "bank-de").
		WillReturnRows(sqlmock.NewRows(consentColumns()))

	consent, err := store.GetByID(context.Background(), "missing", "bank-de")

	require.NoError(t, err)
	assert.Nil(t, consent)
}

func TestStoreCreate(t *testing.T) {
	store, mockDB := newStoreWithMock(t)

	mockDB.ExpectExec(QueryCreateConsent.Query).
		WithArgs("consent-1", "RECEIVED", "BANK_OFFERED",
			"{}", "[]", "tpp-1", 4, false, false, false,
			"2026-09-30", "2026-08-28",
			int64(1699999000000), int64(1699999000000), "bank-de").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Create(context.Background(), &model.Consent{
		ConsentID:             "consent-1",
		ConsentStatus:         status.ConsentReceived,
		RequestType:           model.RequestTypeBankOffered,
		TppID:                 "tpp-1",
		FrequencyPerDay:       4,
		ValidUntil:            "2026-09-30",
		LastActionDate:        "2026-08-28",
		CreationTimestamp:     1699999000000,
		StatusChangeTimestamp: 1699999000000,
		InstanceID:            "bank-de",
	})

	require.NoError(t, err)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestStoreExpireConsent(t *testing.T) {
	store, mockDB := newStoreWithMock(t)

	mockDB.ExpectExec(QueryExpireConsent.Query).
		WithArgs("EXPIRED", "2026-08-28", "2026-08-28", int64(1700000000000), "consent-1", "bank-de").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.ExpireConsent(context.Background(), "consent-1", "bank-de", "2026-08-28", "2026-08-28", 1700000000000)

	require.NoError(t, err)
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestStoreCountUsagesForDate(t *testing.T) {
	store, mockDB := newStoreWithMock(t)

	mockDB.ExpectQuery(QueryCountUsagesForDate.Query).
		WithArgs("consent-1", "2026-08-28", "bank-de").
		WillReturnRows(sqlmock.NewRows([]string{"USAGE_COUNT"}).AddRow(int64(3)))

	count, err := store.CountUsagesForDate(context.Background(), "consent-1", "bank-de", "2026-08-28")

	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestStoreUpdateStatusWithTx(t *testing.T) {
	db, mockDB, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	client := provider.NewDBClient(sqlx.NewDb(db, "mysql"), "mysql")
	store := NewConsentStore(client)

	mockDB.ExpectBegin()
	mockDB.ExpectExec(QueryUpdateConsentStatus.Query).
		WithArgs("TERMINATED_BY_TPP", "2026-08-28", int64(1700000000000), "consent-1", "bank-de").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mockDB.ExpectCommit()

	tx, err := client.BeginTx()
	require.NoError(t, err)
	require.NoError(t, store.UpdateStatusWithTx(tx, "consent-1", "bank-de",
		status.ConsentTerminatedByTpp, "2026-08-28", 1700000000000))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mockDB.ExpectationsWereMet())
}

func TestStoreGetTransactionSlots(t *testing.T) {
	store, mockDB := newStoreWithMock(t)

	rows := sqlmock.NewRows([]string{"CONSENT_ID", "RESOURCE_ID", "NUMBER_OF_TRANSACTIONS", "INSTANCE_ID"}).
		AddRow([]byte("consent-1"), []byte("res-1"), int64(3), []byte("bank-de"))
	mockDB.ExpectQuery(QueryGetTransactionSlots.Query).
		WithArgs("consent-1", "bank-de").
		WillReturnRows(rows)

	slots, err := store.GetTransactionSlots(context.Background(), "consent-1", "bank-de")

	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "res-1", slots[0].ResourceID)
	assert.Equal(t, 3, slots[0].NumberOfTransactions)
}
