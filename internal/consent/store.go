package consent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/psd2hub/consent-cms/internal/consent/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/database/provider"
	dbutils "github.com/psd2hub/consent-cms/internal/system/database/utils"
)

var (
	QueryCreateConsent = dbmodel.DBQuery{
		ID:    "CREATE_CONSENT",
		Query: "INSERT INTO CONSENT (CONSENT_ID, CONSENT_STATUS, REQUEST_TYPE, ACCESS_DATA, PSU_DATA, TPP_ID, FREQUENCY_PER_DAY, RECURRING_INDICATOR, COMBINED_SERVICE_INDICATOR, MULTILEVEL_SCA_REQUIRED, VALID_UNTIL, LAST_ACTION_DATE, CREATION_TIMESTAMP, STATUS_CHANGE_TIMESTAMP, INSTANCE_ID) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetConsentByID = dbmodel.DBQuery{
		ID:    "GET_CONSENT_BY_ID",
		Query: "SELECT CONSENT_ID, CONSENT_STATUS, REQUEST_TYPE, ACCESS_DATA, PSU_DATA, TPP_ID, FREQUENCY_PER_DAY, RECURRING_INDICATOR, COMBINED_SERVICE_INDICATOR, MULTILEVEL_SCA_REQUIRED, VALID_UNTIL, LAST_ACTION_DATE, CREATION_TIMESTAMP, STATUS_CHANGE_TIMESTAMP, INSTANCE_ID FROM CONSENT WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdateConsentStatus = dbmodel.DBQuery{
		ID:    "UPDATE_CONSENT_STATUS",
		Query: "UPDATE CONSENT SET CONSENT_STATUS = ?, LAST_ACTION_DATE = ?, STATUS_CHANGE_TIMESTAMP = ? WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryExpireConsent = dbmodel.DBQuery{
		ID:    "EXPIRE_CONSENT",
		Query: "UPDATE CONSENT SET CONSENT_STATUS = ?, VALID_UNTIL = ?, LAST_ACTION_DATE = ?, STATUS_CHANGE_TIMESTAMP = ? WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdateConsentAccess = dbmodel.DBQuery{
		ID:    "UPDATE_CONSENT_ACCESS",
		Query: "UPDATE CONSENT SET ACCESS_DATA = ?, REQUEST_TYPE = ?, FREQUENCY_PER_DAY = ?, VALID_UNTIL = ? WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdateConsentPsuData = dbmodel.DBQuery{
		ID:    "UPDATE_CONSENT_PSU_DATA",
		Query: "UPDATE CONSENT SET PSU_DATA = ? WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdateMultilevelSca = dbmodel.DBQuery{
		ID:    "UPDATE_CONSENT_MULTILEVEL_SCA",
		Query: "UPDATE CONSENT SET MULTILEVEL_SCA_REQUIRED = ? WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryFindOldConsents = dbmodel.DBQuery{
		ID:    "FIND_OLD_CONSENTS",
		Query: "SELECT CONSENT_ID, CONSENT_STATUS, REQUEST_TYPE, ACCESS_DATA, PSU_DATA, TPP_ID, FREQUENCY_PER_DAY, RECURRING_INDICATOR, COMBINED_SERVICE_INDICATOR, MULTILEVEL_SCA_REQUIRED, VALID_UNTIL, LAST_ACTION_DATE, CREATION_TIMESTAMP, STATUS_CHANGE_TIMESTAMP, INSTANCE_ID FROM CONSENT WHERE TPP_ID = ? AND INSTANCE_ID = ? AND CONSENT_ID <> ? AND CONSENT_STATUS IN ('RECEIVED', 'PARTIALLY_AUTHORISED', 'VALID')",
	}

	QueryFindExpirableConsents = dbmodel.DBQuery{
		ID:    "FIND_EXPIRABLE_CONSENTS",
		Query: "SELECT CONSENT_ID, CONSENT_STATUS, REQUEST_TYPE, ACCESS_DATA, PSU_DATA, TPP_ID, FREQUENCY_PER_DAY, RECURRING_INDICATOR, COMBINED_SERVICE_INDICATOR, MULTILEVEL_SCA_REQUIRED, VALID_UNTIL, LAST_ACTION_DATE, CREATION_TIMESTAMP, STATUS_CHANGE_TIMESTAMP, INSTANCE_ID FROM CONSENT WHERE CONSENT_STATUS IN ('RECEIVED', 'PARTIALLY_AUTHORISED', 'VALID') AND VALID_UNTIL < ?",
	}

	QueryCreateUsage = dbmodel.DBQuery{
		ID:    "CREATE_CONSENT_USAGE",
		Query: "INSERT INTO CONSENT_USAGE (USAGE_ID, CONSENT_ID, RESOURCE_ID, USAGE_DATE, INSTANCE_ID) VALUES (?, ?, ?, ?, ?)",
	}

	QueryCountUsagesForDate = dbmodel.DBQuery{
		ID:    "COUNT_CONSENT_USAGES_FOR_DATE",
		Query: "SELECT COUNT(*) AS USAGE_COUNT FROM CONSENT_USAGE WHERE CONSENT_ID = ? AND USAGE_DATE = ? AND INSTANCE_ID = ?",
	}

	QueryGetUsages = dbmodel.DBQuery{
		ID:    "GET_CONSENT_USAGES",
		Query: "SELECT USAGE_ID, CONSENT_ID, RESOURCE_ID, USAGE_DATE, INSTANCE_ID FROM CONSENT_USAGE WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}

	QuerySaveTransactionSlot = dbmodel.DBQuery{
		ID:    "SAVE_TRANSACTION_SLOT",
		Query: "INSERT INTO CONSENT_TRANSACTION_SLOT (CONSENT_ID, RESOURCE_ID, NUMBER_OF_TRANSACTIONS, INSTANCE_ID) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE NUMBER_OF_TRANSACTIONS = VALUES(NUMBER_OF_TRANSACTIONS)",
	}

	QueryGetTransactionSlots = dbmodel.DBQuery{
		ID:    "GET_TRANSACTION_SLOTS",
		Query: "SELECT CONSENT_ID, RESOURCE_ID, NUMBER_OF_TRANSACTIONS, INSTANCE_ID FROM CONSENT_TRANSACTION_SLOT WHERE CONSENT_ID = ? AND INSTANCE_ID = ?",
	}
)

// ConsentStoreInterface defines the consent data operations.
type ConsentStoreInterface interface {
	Create(ctx context.Context, consent *model.Consent) error
	GetByID(ctx context.Context, consentID, instanceID string) (*model.Consent, error)
	UpdateStatus(ctx context.Context, consentID, instanceID string, consentStatus status.ConsentStatus, lastActionDate string, statusChangeTimestamp int64) error
	UpdateStatusWithTx(tx dbmodel.TxInterface, consentID, instanceID string, consentStatus status.ConsentStatus, lastActionDate string, statusChangeTimestamp int64) error
	ExpireConsent(ctx context.Context, consentID, instanceID string, validUntil, lastActionDate string, statusChangeTimestamp int64) error
	UpdateAccess(ctx context.Context, consent *model.Consent) error
	UpdatePsuDataList(ctx context.Context, consentID, instanceID string, psuDataList []psu.PsuData) error
	UpdateMultilevelScaRequired(ctx context.Context, consentID, instanceID string, multilevelSca bool) error
	FindOldConsents(ctx context.Context, tppID, instanceID, excludeConsentID string) ([]model.Consent, error)
	FindExpirableConsents(ctx context.Context, today string) ([]model.Consent, error)
	CreateUsage(ctx context.Context, usage *model.Usage) error
	CountUsagesForDate(ctx context.Context, consentID, instanceID, usageDate string) (int, error)
	GetUsages(ctx context.Context, consentID, instanceID string) ([]model.Usage, error)
	SaveTransactionSlot(ctx context.Context, slot *model.TransactionSlot) error
	GetTransactionSlots(ctx context.Context, consentID, instanceID string) ([]model.TransactionSlot, error)
}

type store struct {
	dbClient provider.DBClientInterface
	dbType   string
}

// NewConsentStore creates a new consent store.
func NewConsentStore(dbClient provider.DBClientInterface) ConsentStoreInterface {
	return &store{
		dbClient: dbClient,
		dbType:   dbClient.DBType(),
	}
}

func (s *store) Create(ctx context.Context, consent *model.Consent) error {
	access, psuData, err := marshalConsentColumns(consent)
	if err != nil {
		return err
	}

	_, err = s.dbClient.Execute(QueryCreateConsent,
		consent.ConsentID, string(consent.ConsentStatus), string(consent.RequestType),
		access, psuData, consent.TppID, consent.FrequencyPerDay,
		consent.RecurringIndicator, consent.CombinedServiceIndicator, consent.MultilevelScaRequired,
		consent.ValidUntil, consent.LastActionDate,
		consent.CreationTimestamp, consent.StatusChangeTimestamp, consent.InstanceID)
	return err
}

func (s *store) GetByID(ctx context.Context, consentID, instanceID string) (*model.Consent, error) {
	rows, err := s.dbClient.Query(QueryGetConsentByID, consentID, instanceID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToConsent(rows[0])
}

func (s *store) UpdateStatus(ctx context.Context, consentID, instanceID string, consentStatus status.ConsentStatus, lastActionDate string, statusChangeTimestamp int64) error {
	_, err := s.dbClient.Execute(QueryUpdateConsentStatus,
		string(consentStatus), lastActionDate, statusChangeTimestamp, consentID, instanceID)
	return err
}

// UpdateStatusWithTx applies a status change inside an open transaction so
// the terminate-old-consents batch commits atomically.
func (s *store) UpdateStatusWithTx(tx dbmodel.TxInterface, consentID, instanceID string, consentStatus status.ConsentStatus, lastActionDate string, statusChangeTimestamp int64) error {
	_, err := tx.Exec(QueryUpdateConsentStatus.GetQuery(s.dbType),
		string(consentStatus), lastActionDate, statusChangeTimestamp, consentID, instanceID)
	return err
}

// ExpireConsent moves a consent to EXPIRED and caps its validity at the
// given date in one statement.
func (s *store) ExpireConsent(ctx context.Context, consentID, instanceID string, validUntil, lastActionDate string, statusChangeTimestamp int64) error {
	_, err := s.dbClient.Execute(QueryExpireConsent,
		string(status.ConsentExpired), validUntil, lastActionDate, statusChangeTimestamp, consentID, instanceID)
	return err
}

func (s *store) UpdateAccess(ctx context.Context, consent *model.Consent) error {
	access, err := json.Marshal(consent.Access)
	if err != nil {
		return err
	}
	_, err = s.dbClient.Execute(QueryUpdateConsentAccess,
		string(access), string(consent.RequestType), consent.FrequencyPerDay, consent.ValidUntil,
		consent.ConsentID, consent.InstanceID)
	return err
}

func (s *store) UpdatePsuDataList(ctx context.Context, consentID, instanceID string, psuDataList []psu.PsuData) error {
	encoded, err := json.Marshal(psuDataList)
	if err != nil {
		return err
	}
	_, err = s.dbClient.Execute(QueryUpdateConsentPsuData, string(encoded), consentID, instanceID)
	return err
}

func (s *store) UpdateMultilevelScaRequired(ctx context.Context, consentID, instanceID string, multilevelSca bool) error {
	_, err := s.dbClient.Execute(QueryUpdateMultilevelSca, multilevelSca, consentID, instanceID)
	return err
}

func (s *store) FindOldConsents(ctx context.Context, tppID, instanceID, excludeConsentID string) ([]model.Consent, error) {
	rows, err := s.dbClient.Query(QueryFindOldConsents, tppID, instanceID, excludeConsentID)
	if err != nil {
		return nil, err
	}
	return mapToConsents(rows)
}

func (s *store) FindExpirableConsents(ctx context.Context, today string) ([]model.Consent, error) {
	rows, err := s.dbClient.Query(QueryFindExpirableConsents, today)
	if err != nil {
		return nil, err
	}
	return mapToConsents(rows)
}

func (s *store) CreateUsage(ctx context.Context, usage *model.Usage) error {
	_, err := s.dbClient.Execute(QueryCreateUsage,
		usage.UsageID, usage.ConsentID, usage.ResourceID, usage.UsageDate, usage.InstanceID)
	return err
}

func (s *store) CountUsagesForDate(ctx context.Context, consentID, instanceID, usageDate string) (int, error) {
	rows, err := s.dbClient.Query(QueryCountUsagesForDate, consentID, usageDate, instanceID)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("count query returned no rows")
	}
	return dbutils.ParseInt(rows[0], "USAGE_COUNT"), nil
}

func (s *store) GetUsages(ctx context.Context, consentID, instanceID string) ([]model.Usage, error) {
	rows, err := s.dbClient.Query(QueryGetUsages, consentID, instanceID)
	if err != nil {
		return nil, err
	}

	usages := make([]model.Usage, 0, len(rows))
	for _, row := range rows {
		usages = append(usages, model.Usage{
			UsageID:    dbutils.ParseString(row, "USAGE_ID"),
			ConsentID:  dbutils.ParseString(row, "CONSENT_ID"),
			ResourceID: dbutils.ParseString(row, "RESOURCE_ID"),
			UsageDate:  dbutils.ParseString(row, "USAGE_DATE"),
			InstanceID: dbutils.ParseString(row, "INSTANCE_ID"),
		})
	}
	return usages, nil
}

func (s *store) SaveTransactionSlot(ctx context.Context, slot *model.TransactionSlot) error {
	_, err := s.dbClient.Execute(QuerySaveTransactionSlot,
		slot.ConsentID, slot.ResourceID, slot.NumberOfTransactions, slot.InstanceID)
	return err
}

func (s *store) GetTransactionSlots(ctx context.Context, consentID, instanceID string) ([]model.TransactionSlot, error) {
	rows, err := s.dbClient.Query(QueryGetTransactionSlots, consentID, instanceID)
	if err != nil {
		return nil, err
	}

	slots := make([]model.TransactionSlot, 0, len(rows))
	for _, row := range rows {
		slots = append(slots, model.TransactionSlot{
			ConsentID:            dbutils.ParseString(row, "CONSENT_ID"),
			ResourceID:           dbutils.ParseString(row, "RESOURCE_ID"),
			NumberOfTransactions: dbutils.ParseInt(row, "NUMBER_OF_TRANSACTIONS"),
			InstanceID:           dbutils.ParseString(row, "INSTANCE_ID"),
		})
	}
	return slots, nil
}

func marshalConsentColumns(consent *model.Consent) (string, string, error) {
	access, err := json.Marshal(consent.Access)
	if err != nil {
		return "", "", err
	}
	psuList := consent.PsuDataList
	if psuList == nil {
		psuList = []psu.PsuData{}
	}
	psuData, err := json.Marshal(psuList)
	if err != nil {
		return "", "", err
	}
	return string(access), string(psuData), nil
}

func mapToConsents(rows []map[string]interface{}) ([]model.Consent, error) {
	consents := make([]model.Consent, 0, len(rows))
	for _, row := range rows {
		consent, err := mapToConsent(row)
		if err != nil {
			return nil, err
		}
		consents = append(consents, *consent)
	}
	return consents, nil
}

func mapToConsent(row map[string]interface{}) (*model.Consent, error) {
	consent := &model.Consent{
		ConsentID:                dbutils.ParseString(row, "CONSENT_ID"),
		ConsentStatus:            status.ConsentStatus(dbutils.ParseString(row, "CONSENT_STATUS")),
		RequestType:              model.RequestType(dbutils.ParseString(row, "REQUEST_TYPE")),
		TppID:                    dbutils.ParseString(row, "TPP_ID"),
		FrequencyPerDay:          dbutils.ParseInt(row, "FREQUENCY_PER_DAY"),
		RecurringIndicator:       dbutils.ParseBool(row, "RECURRING_INDICATOR"),
		CombinedServiceIndicator: dbutils.ParseBool(row, "COMBINED_SERVICE_INDICATOR"),
		MultilevelScaRequired:    dbutils.ParseBool(row, "MULTILEVEL_SCA_REQUIRED"),
		ValidUntil:               normalizeDate(dbutils.ParseString(row, "VALID_UNTIL")),
		LastActionDate:           normalizeDate(dbutils.ParseString(row, "LAST_ACTION_DATE")),
		CreationTimestamp:        dbutils.ParseInt64(row, "CREATION_TIMESTAMP"),
		StatusChangeTimestamp:    dbutils.ParseInt64(row, "STATUS_CHANGE_TIMESTAMP"),
		InstanceID:               dbutils.ParseString(row, "INSTANCE_ID"),
	}

	if encoded := dbutils.ParseString(row, "ACCESS_DATA"); encoded != "" {
		if err := json.Unmarshal([]byte(encoded), &consent.Access); err != nil {
			return nil, err
		}
	}
	if encoded := dbutils.ParseString(row, "PSU_DATA"); encoded != "" && encoded != "[]" {
		if err := json.Unmarshal([]byte(encoded), &consent.PsuDataList); err != nil {
			return nil, err
		}
	}
	return consent, nil
}

// normalizeDate trims a DATE column read back with a time component.
func normalizeDate(value string) string {
	if idx := strings.IndexAny(value, "T "); idx > 0 {
		return value[:idx]
	}
	return value
}
