package payment

import (
	"context"
	"encoding/json"

	"github.com/psd2hub/consent-cms/internal/payment/model"
	"github.com/psd2hub/consent-cms/internal/psu"
	"github.com/psd2hub/consent-cms/internal/status"
	dbmodel "github.com/psd2hub/consent-cms/internal/system/database/model"
	"github.com/psd2hub/consent-cms/internal/system/database/provider"
	dbutils "github.com/psd2hub/consent-cms/internal/system/database/utils"
)

var (
	QueryCreatePayment = dbmodel.DBQuery{
		ID:    "CREATE_PAYMENT",
		Query: "INSERT INTO PAYMENT (PAYMENT_ID, PAYMENT_TYPE, PAYMENT_PRODUCT, TRANSACTION_STATUS, PSU_DATA, TPP_ID, MULTILEVEL_SCA_REQUIRED, CREATION_TIMESTAMP, STATUS_CHANGE_TIMESTAMP, INSTANCE_ID) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetPaymentByID = dbmodel.DBQuery{
		ID:    "GET_PAYMENT_BY_ID",
		Query: "SELECT PAYMENT_ID, PAYMENT_TYPE, PAYMENT_PRODUCT, TRANSACTION_STATUS, PSU_DATA, TPP_ID, MULTILEVEL_SCA_REQUIRED, CREATION_TIMESTAMP, STATUS_CHANGE_TIMESTAMP, INSTANCE_ID FROM PAYMENT WHERE PAYMENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdatePaymentStatus = dbmodel.DBQuery{
		ID:    "UPDATE_PAYMENT_STATUS",
		Query: "UPDATE PAYMENT SET TRANSACTION_STATUS = ?, STATUS_CHANGE_TIMESTAMP = ? WHERE PAYMENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdatePaymentPsuData = dbmodel.DBQuery{
		ID:    "UPDATE_PAYMENT_PSU_DATA",
		Query: "UPDATE PAYMENT SET PSU_DATA = ? WHERE PAYMENT_ID = ? AND INSTANCE_ID = ?",
	}

	QueryUpdatePaymentMultilevelSca = dbmodel.DBQuery{
		ID:    "UPDATE_PAYMENT_MULTILEVEL_SCA",
		Query: "UPDATE PAYMENT SET MULTILEVEL_SCA_REQUIRED = ? WHERE PAYMENT_ID = ? AND INSTANCE_ID = ?",
	}
)

// PaymentStoreInterface defines the payment data operations.
type PaymentStoreInterface interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, paymentID, instanceID string) (*model.Payment, error)
	UpdateStatus(ctx context.Context, paymentID, instanceID string, transactionStatus status.TransactionStatus, statusChangeTimestamp int64) error
	UpdatePsuDataList(ctx context.Context, paymentID, instanceID string, psuDataList []psu.PsuData) error
	UpdateMultilevelScaRequired(ctx context.Context, paymentID, instanceID string, multilevelSca bool) error
}

type store struct {
	dbClient provider.DBClientInterface
}

// NewPaymentStore creates a new payment store.
func NewPaymentStore(dbClient provider.DBClientInterface) PaymentStoreInterface {
	return &store{dbClient: dbClient}
}

func (s *store) Create(ctx context.Context, payment *model.Payment) error {
	psuList := payment.PsuDataList
	if psuList == nil {
		psuList = []psu.PsuData{}
	}
	psuData, err := json.Marshal(psuList)
	if err != nil {
		return err
	}

	_, err = s.dbClient.Execute(QueryCreatePayment,
		payment.PaymentID, string(payment.PaymentType), payment.PaymentProduct,
		string(payment.TransactionStatus), string(psuData), payment.TppID,
		payment.MultilevelScaRequired,
		payment.CreationTimestamp, payment.StatusChangeTimestamp, payment.InstanceID)
	return err
}

func (s *store) GetByID(ctx context.Context, paymentID, instanceID string) (*model.Payment, error) {
	rows, err := s.dbClient.Query(QueryGetPaymentByID, paymentID, instanceID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToPayment(rows[0])
}

func (s *store) UpdateStatus(ctx context.Context, paymentID, instanceID string, transactionStatus status.TransactionStatus, statusChangeTimestamp int64) error {
	_, err := s.dbClient.Execute(QueryUpdatePaymentStatus,
		string(transactionStatus), statusChangeTimestamp, paymentID, instanceID)
	return err
}

func (s *store) UpdatePsuDataList(ctx context.Context, paymentID, instanceID string, psuDataList []psu.PsuData) error {
	encoded, err := json.Marshal(psuDataList)
	if err != nil {
		return err
	}
	_, err = s.dbClient.Execute(QueryUpdatePaymentPsuData, string(encoded), paymentID, instanceID)
	return err
}

func (s *store) UpdateMultilevelScaRequired(ctx context.Context, paymentID, instanceID string, multilevelSca bool) error {
	_, err := s.dbClient.Execute(QueryUpdatePaymentMultilevelSca, multilevelSca, paymentID, instanceID)
	return err
}

func mapToPayment(row map[string]interface{}) (*model.Payment, error) {
	payment := &model.Payment{
		PaymentID:             dbutils.ParseString(row, "PAYMENT_ID"),
		PaymentType:           model.PaymentType(dbutils.ParseString(row, "PAYMENT_TYPE")),
		PaymentProduct:        dbutils.ParseString(row, "PAYMENT_PRODUCT"),
		TransactionStatus:     status.TransactionStatus(dbutils.ParseString(row, "TRANSACTION_STATUS")),
		TppID:                 dbutils.ParseString(row, "TPP_ID"),
		MultilevelScaRequired: dbutils.ParseBool(row, "MULTILEVEL_SCA_REQUIRED"),
		CreationTimestamp:     dbutils.ParseInt64(row, "CREATION_TIMESTAMP"),
		StatusChangeTimestamp: dbutils.ParseInt64(row, "STATUS_CHANGE_TIMESTAMP"),
		InstanceID:            dbutils.ParseString(row, "INSTANCE_ID"),
	}

	if encoded := dbutils.ParseString(row, "PSU_DATA"); encoded != "" && encoded != "[]" {
		if err := json.Unmarshal([]byte(encoded), &payment.PsuDataList); err != nil {
			return nil, err
		}
	}
	return payment, nil
}
