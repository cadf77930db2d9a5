package repository

import (
	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
)

// TransactionEntity is the ledger row. The line items, debt list and return
// trail are owned subdocuments serialized into JSON columns; they never exist
// as independent rows.
type TransactionEntity struct {
	pg.Model
	InvoiceNumber             string              `db:"invoice_number"               gorm:"column:invoice_number;not null;uniqueIndex"`
	CustomerID                uuid.UUID           `db:"customer_id"                  gorm:"column:customer_id;type:uuid;not null;index"`
	SellerID                  uuid.UUID           `db:"seller_id"                    gorm:"column:seller_id;type:uuid;not null;index"`
	ShopID                    uuid.UUID           `db:"shop_id"                      gorm:"column:shop_id;type:uuid;not null;index"`
	SalesmanID                *uuid.UUID          `db:"salesman_id"                  gorm:"column:salesman_id;type:uuid"`
	ProductsList              []model.ProductLine `db:"products_list"                gorm:"column:products_list;serializer:json"`
	ActualAmount              float64             `db:"actual_amount"                gorm:"column:actual_amount;not null"`
	PaidAmount                float64             `db:"paid_amount"                  gorm:"column:paid_amount;not null;default:0"`
	Tax                       float64             `db:"tax"                          gorm:"column:tax;not null;default:0"`
	FlatDiscount              float64             `db:"flat_discount"                gorm:"column:flat_discount;not null;default:0"`
	TotalDiscount             float64             `db:"total_discount"               gorm:"column:total_discount;not null;default:0"`
	PaidThroughCash           float64             `db:"paid_through_cash"            gorm:"column:paid_through_cash;not null;default:0"`
	PaidThroughAccountBalance float64             `db:"paid_through_account_balance" gorm:"column:paid_through_account_balance;not null;default:0"`
	PaymentType               string              `db:"payment_type"                 gorm:"column:payment_type;not null"`
	PreviousBalance           float64             `db:"previous_balance"             gorm:"column:previous_balance;not null;default:0"`
	CurrentBalance            float64             `db:"current_balance"              gorm:"column:current_balance;not null;default:0"`
	Debt                      []model.DebtEntry   `db:"debt"                         gorm:"column:debt;serializer:json"`
	ReturnTrail               []model.ReturnEntry `db:"return_trail"                 gorm:"column:return_trail;serializer:json"`
	TotalRefund               float64             `db:"total_refund"                 gorm:"column:total_refund;not null;default:0"`
}

func (TransactionEntity) TableName() string {
	return "transactions"
}

func toTransactionEntity(m *model.Transaction) *TransactionEntity {
	if m == nil {
		return nil
	}
	return &TransactionEntity{
		Model: pg.Model{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
			DeletedAt: m.DeletedAt,
		},
		InvoiceNumber:             m.InvoiceNumber,
		CustomerID:                m.CustomerID,
		SellerID:                  m.SellerID,
		ShopID:                    m.ShopID,
		SalesmanID:                m.SalesmanID,
		ProductsList:              m.ProductsList,
		ActualAmount:              m.ActualAmount,
		PaidAmount:                m.PaidAmount,
		Tax:                       m.Tax,
		FlatDiscount:              m.FlatDiscount,
		TotalDiscount:             m.TotalDiscount,
		PaidThroughCash:           m.PaidThroughCash,
		PaidThroughAccountBalance: m.PaidThroughAccountBalance,
		PaymentType:               string(m.PaymentType),
		PreviousBalance:           m.PreviousBalance,
		CurrentBalance:            m.CurrentBalance,
		Debt:                      m.Debt,
		ReturnTrail:               m.ReturnTrail,
		TotalRefund:               m.TotalRefund,
	}
}

func toTransactionModel(e *TransactionEntity) *model.Transaction {
	if e == nil {
		return nil
	}
	return &model.Transaction{
		ID:                        e.ID,
		InvoiceNumber:             e.InvoiceNumber,
		CustomerID:                e.CustomerID,
		SellerID:                  e.SellerID,
		ShopID:                    e.ShopID,
		SalesmanID:                e.SalesmanID,
		ProductsList:              e.ProductsList,
		ActualAmount:              e.ActualAmount,
		PaidAmount:                e.PaidAmount,
		Tax:                       e.Tax,
		FlatDiscount:              e.FlatDiscount,
		TotalDiscount:             e.TotalDiscount,
		PaidThroughCash:           e.PaidThroughCash,
		PaidThroughAccountBalance: e.PaidThroughAccountBalance,
		PaymentType:               model.PaymentType(e.PaymentType),
		PreviousBalance:           e.PreviousBalance,
		CurrentBalance:            e.CurrentBalance,
		Debt:                      e.Debt,
		ReturnTrail:               e.ReturnTrail,
		TotalRefund:               e.TotalRefund,
		CreatedAt:                 e.CreatedAt,
		UpdatedAt:                 e.UpdatedAt,
		DeletedAt:                 e.DeletedAt,
	}
}

func toTransactionModels(entities []*TransactionEntity) []*model.Transaction {
	if entities == nil {
		return nil
	}
	models := make([]*model.Transaction, len(entities))
	for i, e := range entities {
		models[i] = toTransactionModel(e)
	}
	return models
}

// TransactionRecordEntity is the scan target for history queries joined with
// the party display columns.
type TransactionRecordEntity struct {
	TransactionEntity
	CustomerName  string `gorm:"column:customer_name"`
	CustomerPhone string `gorm:"column:customer_phone"`
	SellerName    string `gorm:"column:seller_name"`
	ShopName      string `gorm:"column:shop_name"`
}

func toTransactionRecordModel(e *TransactionRecordEntity) *model.TransactionRecord {
	if e == nil {
		return nil
	}
	return &model.TransactionRecord{
		Transaction:   *toTransactionModel(&e.TransactionEntity),
		CustomerName:  e.CustomerName,
		CustomerPhone: e.CustomerPhone,
		SellerName:    e.SellerName,
		ShopName:      e.ShopName,
	}
}

func toTransactionRecordModels(entities []*TransactionRecordEntity) []*model.TransactionRecord {
	if entities == nil {
		return nil
	}
	models := make([]*model.TransactionRecord, len(entities))
	for i, e := range entities {
		models[i] = toTransactionRecordModel(e)
	}
	return models
}
