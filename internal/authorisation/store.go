package authorisation

import (
	"context"
	"encoding/json"

	"github.com/psd2hub/consent-cms/internal/authorisation/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/database/provider"
	dbutils "github.com/psd2hub/consent-cms/internal/system/database/utils"
)

var (
	QueryCreateAuthorisation = dbmodel.DBQuery{
		ID:    "CREATE_AUTHORISATION",
		Query: "INSERT INTO AUTHORISATION (AUTHORISATION_ID, PARENT_ID, PARENT_TYPE, SCA_STATUS, SCA_APPROACH, PSU_ID, PSU_ID_TYPE, PSU_CORPORATE_ID, PSU_CORPORATE_ID_TYPE, SCA_METHODS, AUTHENTICATION_METHOD_ID, REDIRECT_URL_EXPIRATION_TIMESTAMP, TPP_NOK_REDIRECT_URI, CREATED_TIME, UPDATED_TIME, INSTANCE_ID) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetAuthorisationByID = dbmodel.DBQuery{
		ID:    "GET_AUTHORISATION_BY_ID",
		Query: "SELECT AUTHORISATION_ID, PARENT_ID, PARENT_TYPE, SCA_STATUS, SCA_APPROACH, PSU_ID, PSU_ID_TYPE, PSU_CORPORATE_ID, PSU_CORPORATE_ID_TYPE, SCA_METHODS, AUTHENTICATION_METHOD_ID, REDIRECT_URL_EXPIRATION_TIMESTAMP, TPP_NOK_REDIRECT_URI, CREATED_TIME, UPDATED_TIME, INSTANCE_ID FROM AUTHORISATION WHERE AUTHORISATION_ID = ? AND INSTANCE_ID = ?",
	}

	QueryGetAuthorisationsByParentID = dbmodel.DBQuery{
		ID:    "GET_AUTHORISATIONS_BY_PARENT_ID",
		Query: "SELECT AUTHORISATION_ID, PARENT_ID, PARENT_TYPE, SCA_STATUS, SCA_APPROACH, PSU_ID, PSU_ID_TYPE, PSU_CORPORATE_ID, PSU_CORPORATE_ID_TYPE, SCA_METHODS, AUTHENTICATION_METHOD_ID, REDIRECT_URL_EXPIRATION_TIMESTAMP, TPP_NOK_REDIRECT_URI, CREATED_TIME, UPDATED_TIME, INSTANCE_ID FROM AUTHORISATION WHERE PARENT_ID = ? AND INSTANCE_ID = ? ORDER BY CREATED_TIME ASC",
	}

	QueryUpdateAuthorisation = dbmodel.DBQuery{
		ID:    "UPDATE_AUTHORISATION",
		Query: "UPDATE AUTHORISATION SET SCA_STATUS = ?, SCA_APPROACH = ?, PSU_ID = ?, PSU_ID_TYPE = ?, PSU_CORPORATE_ID = ?, PSU_CORPORATE_ID_TYPE = ?, AUTHENTICATION_METHOD_ID = ?, UPDATED_TIME = ? WHERE AUTHORISATION_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdateScaStatus = dbmodel.DBQuery{
		ID:    "UPDATE_AUTHORISATION_SCA_STATUS",
		Query: "UPDATE AUTHORISATION SET SCA_STATUS = ?, UPDATED_TIME = ? WHERE AUTHORISATION_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdateScaApproach = dbmodel.DBQuery{
		ID:    "UPDATE_AUTHORISATION_SCA_APPROACH",
		Query: "UPDATE AUTHORISATION SET SCA_APPROACH = ?, UPDATED_TIME = ? WHERE AUTHORISATION_ID = ? AND INSTANCE_ID = ?",
	}

	QuerySaveAuthenticationMethods = dbmodel.DBQuery{
		ID:    "SAVE_AUTHENTICATION_METHODS",
		Query: "UPDATE AUTHORISATION SET SCA_METHODS = ?, UPDATED_TIME = ? WHERE AUTHORISATION_ID = ? AND INSTANCE_ID = ?",
	}

	QueryCloseAuthorisation = dbmodel.DBQuery{
		ID:    "CLOSE_AUTHORISATION",
		Query: "UPDATE AUTHORISATION SET SCA_STATUS = ?, REDIRECT_URL_EXPIRATION_TIMESTAMP = ?, UPDATED_TIME = ? WHERE AUTHORISATION_ID = ? AND INSTANCE_ID = ?",
	}
)

// AuthorisationStoreInterface defines the authorisation data operations.
type AuthorisationStoreInterface interface {
	Create(ctx context.Context, authorisation *model.Authorisation) error
	GetByID(ctx context.Context, authorisationID, instanceID string) (*model.Authorisation, error)
	GetByParentID(ctx context.Context, parentID, instanceID string) ([]model.Authorisation, error)
	Update(ctx context.Context, authorisation *model.Authorisation) error
	UpdateScaStatus(ctx context.Context, authorisationID, instanceID string, scaStatus status.ScaStatus, updatedTime int64) error
	UpdateScaApproach(ctx context.Context, authorisationID, instanceID string, scaApproach model.ScaApproach, updatedTime int64) error
	SaveAuthenticationMethods(ctx context.Context, authorisationID, instanceID string, methods []model.ScaMethod, updatedTime int64) error
	CloseWithTx(tx dbmodel.TxInterface, authorisationID, instanceID string, redirectExpiration, updatedTime int64) error
}

type store struct {
	dbClient provider.DBClientInterface
	dbType   string
}

// NewAuthorisationStore creates a new authorisation store.
func NewAuthorisationStore(dbClient provider.DBClientInterface) AuthorisationStoreInterface {
	return &store{
		dbClient: dbClient,
		dbType:   dbClient.DBType(),
	}
}

func (s *store) Create(ctx context.Context, authorisation *model.Authorisation) error {
	methods, err := marshalScaMethods(authorisation.ScaAuthenticationMethods)
	if err != nil {
		return err
	}

	psuData := authorisation.PsuData
	if psuData == nil {
		psuData = &psu.PsuData{}
	}

	_, err = s.dbClient.Execute(QueryCreateAuthorisation,
		authorisation.AuthorisationID, authorisation.ParentID, string(authorisation.ParentType),
		string(authorisation.ScaStatus), string(authorisation.ScaApproach),
		psuData.PsuID, psuData.PsuIDType, psuData.PsuCorporateID, psuData.CorporateIDType,
		methods, authorisation.AuthenticationMethodID,
		authorisation.RedirectURLExpirationTimestamp, authorisation.TppNokRedirectURI,
		authorisation.CreatedTime, authorisation.UpdatedTime, authorisation.InstanceID)
	return err
}

func (s *store) GetByID(ctx context.Context, authorisationID, instanceID string) (*model.Authorisation, error) {
	rows, err := s.dbClient.Query(QueryGetAuthorisationByID, authorisationID, instanceID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToAuthorisation(rows[0])
}

func (s *store) GetByParentID(ctx context.Context, parentID, instanceID string) ([]model.Authorisation, error) {
	rows, err := s.dbClient.Query(QueryGetAuthorisationsByParentID, parentID, instanceID)
	if err != nil {
		return nil, err
	}

	authorisations := make([]model.Authorisation, 0, len(rows))
	for _, row := range rows {
		authorisation, err := mapToAuthorisation(row)
		if err != nil {
			return nil, err
		}
		authorisations = append(authorisations, *authorisation)
	}
	return authorisations, nil
}

func (s *store) Update(ctx context.Context, authorisation *model.Authorisation) error {
	psuData := authorisation.PsuData
	if psuData == nil {
		psuData = &psu.PsuData{}
	}

	_, err := s.dbClient.Execute(QueryUpdateAuthorisation,
		string(authorisation.ScaStatus), string(authorisation.ScaApproach),
		psuData.PsuID, psuData.PsuIDType, psuData.PsuCorporateID, psuData.CorporateIDType,
		authorisation.AuthenticationMethodID, authorisation.UpdatedTime,
		authorisation.AuthorisationID, authorisation.InstanceID)
	return err
}

func (s *store) UpdateScaStatus(ctx context.Context, authorisationID, instanceID string, scaStatus status.ScaStatus, updatedTime int64) error {
	_, err := s.dbClient.Execute(QueryUpdateScaStatus,
		string(scaStatus), updatedTime, authorisationID, instanceID)
	return err
}

func (s *store) UpdateScaApproach(ctx context.Context, authorisationID, instanceID string, scaApproach model.ScaApproach, updatedTime int64) error {
	_, err := s.dbClient.Execute(QueryUpdateScaApproach,
		string(scaApproach), updatedTime, authorisationID, instanceID)
	return err
}

func (s *store) SaveAuthenticationMethods(ctx context.Context, authorisationID, instanceID string, methods []model.ScaMethod, updatedTime int64) error {
	encoded, err := marshalScaMethods(methods)
	if err != nil {
		return err
	}
	_, err = s.dbClient.Execute(QuerySaveAuthenticationMethods,
		encoded, updatedTime, authorisationID, instanceID)
	return err
}

// CloseWithTx marks one authorisation FAILED inside an open transaction so
// a whole sibling group closes atomically.
func (s *store) CloseWithTx(tx dbmodel.TxInterface, authorisationID, instanceID string, redirectExpiration, updatedTime int64) error {
	_, err := tx.Exec(QueryCloseAuthorisation.GetQuery(s.dbType),
		string(status.ScaFailed), redirectExpiration, updatedTime, authorisationID, instanceID)
	return err
}

func marshalScaMethods(methods []model.ScaMethod) (string, error) {
	if len(methods) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(methods)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func mapToAuthorisation(row map[string]interface{}) (*model.Authorisation, error) {
	authorisation := &model.Authorisation{
		AuthorisationID:                dbutils.ParseString(row, "AUTHORISATION_ID"),
		ParentID:                       dbutils.ParseString(row, "PARENT_ID"),
		ParentType:                     model.ParentType(dbutils.ParseString(row, "PARENT_TYPE")),
		ScaStatus:                      status.ScaStatus(dbutils.ParseString(row, "SCA_STATUS")),
		ScaApproach:                    model.ScaApproach(dbutils.ParseString(row, "SCA_APPROACH")),
		AuthenticationMethodID:         dbutils.ParseString(row, "AUTHENTICATION_METHOD_ID"),
		RedirectURLExpirationTimestamp: dbutils.ParseInt64(row, "REDIRECT_URL_EXPIRATION_TIMESTAMP"),
		TppNokRedirectURI:              dbutils.ParseString(row, "TPP_NOK_REDIRECT_URI"),
		CreatedTime:                    dbutils.ParseInt64(row, "CREATED_TIME"),
		UpdatedTime:                    dbutils.ParseInt64(row, "UPDATED_TIME"),
		InstanceID:                     dbutils.ParseString(row, "INSTANCE_ID"),
	}

	if psuID := dbutils.ParseString(row, "PSU_ID"); psuID != "" {
		authorisation.PsuData = &psu.PsuData{
			PsuID:           psuID,
			PsuIDType:       dbutils.ParseString(row, "PSU_ID_TYPE"),
			PsuCorporateID:  dbutils.ParseString(row, "PSU_CORPORATE_ID"),
			CorporateIDType: dbutils.ParseString(row, "PSU_CORPORATE_ID_TYPE"),
		}
	}

	if encoded := dbutils.ParseString(row, "SCA_METHODS"); encoded != "" && encoded != "[]" {
		var methods []model.ScaMethod
		if err := json.Unmarshal([]byte(encoded), &methods); err != nil {
			return nil, err
		}
		authorisation.ScaAuthenticationMethods = methods
	}

	return authorisation, nil
}
