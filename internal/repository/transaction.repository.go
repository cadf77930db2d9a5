package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/pkg/pg"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateInvoice    = errors.New("invoice number already taken")
)

type TransactionRepository struct {
	*pg.DB
}

func NewTransactionRepository(db *pg.DB) *TransactionRepository {
	return &TransactionRepository{
		db,
	}
}

// Create inserts the ledger row. A unique-index hit on invoice_number comes
// back as ErrDuplicateInvoice so the sequencer can regenerate and retry.
func (r *TransactionRepository) Create(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(t)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateInvoice
		}
		return nil, err
	}

	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var entity TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Scopes(pg.Active).
		Where("id = ?", id).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionModel(&entity), nil
}

// LatestInvoiceNumber returns the most recently created invoice number, or ""
// when the ledger is empty. Soft-deleted rows count: a retired invoice number
// is never reissued.
func (r *TransactionRepository) LatestInvoiceNumber(ctx context.Context) (string, error) {
	var entity TransactionEntity
	err := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Select("invoice_number").
		Order("created_at DESC").
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return entity.InvoiceNumber, nil
}

// Update persists the whole aggregate, subdocument columns included.
func (r *TransactionRepository) Update(ctx context.Context, t *model.Transaction) (*model.Transaction, error) {
	entity := toTransactionEntity(t)
	if err := r.Write(ctx).WithContext(ctx).Save(entity).Error; err != nil {
		return nil, err
	}
	return toTransactionModel(entity), nil
}

func (r *TransactionRepository) List(ctx context.Context, f model.TransactionFilter) ([]*model.TransactionRecord, int64, error) {
	q := r.baseRecordQuery(ctx)

	if f.SellerID != nil {
		q = q.Where("t.seller_id = ?", *f.SellerID)
	}
	if f.Search != "" {
		// free text matches the joined display names
		like := "%" + f.Search + "%"
		q = q.Where(
			"LOWER(c.name) LIKE LOWER(?) OR LOWER(u.name) LIKE LOWER(?) OR LOWER(s.name) LIKE LOWER(?)",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := pageBounds(f.Page, f.Limit)

	var entities []*TransactionRecordEntity
	err := q.Select(`
            t.*,
            c.name         AS customer_name,
            c.phone_number AS customer_phone,
            u.name         AS seller_name,
            s.name         AS shop_name
        `).
		Order("t.created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, 0, err
	}

	return toTransactionRecordModels(entities), total, nil
}

// ListByCustomer returns the full purchase history for one customer, newest
// first.
func (r *TransactionRepository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]*model.Transaction, error) {
	var entities []*TransactionEntity
	err := r.Read(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Scopes(pg.Active).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&entities).
		Error
	if err != nil {
		return nil, err
	}
	return toTransactionModels(entities), nil
}

// GetRecordByID is the single-row counterpart of List: the transaction plus
// joined display fields.
func (r *TransactionRepository) GetRecordByID(ctx context.Context, id uuid.UUID) (*model.TransactionRecord, error) {
	return r.getRecord(ctx, "t.id = ?", id)
}

func (r *TransactionRepository) GetRecordByInvoice(ctx context.Context, invoiceNumber string) (*model.TransactionRecord, error) {
	return r.getRecord(ctx, "t.invoice_number = ?", invoiceNumber)
}

func (r *TransactionRepository) getRecord(ctx context.Context, cond string, arg interface{}) (*model.TransactionRecord, error) {
	var entity TransactionRecordEntity
	err := r.baseRecordQuery(ctx).
		Select(`
            t.*,
            c.name         AS customer_name,
            c.phone_number AS customer_phone,
            u.name         AS seller_name,
            s.name         AS shop_name
        `).
		Where(cond, arg).
		First(&entity).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return toTransactionRecordModel(&entity), nil
}

func (r *TransactionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.Write(ctx).WithContext(ctx).
		Model(&TransactionEntity{}).
		Scopes(pg.Active).
		Where("id = ?", id).
		Update("deleted_at", time.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

func (r *TransactionRepository) baseRecordQuery(ctx context.Context) *gorm.DB {
	return r.Read(ctx).WithContext(ctx).
		Table("transactions AS t").
		Joins("LEFT JOIN customers AS c ON c.id = t.customer_id").
		Joins("LEFT JOIN users     AS u ON u.id = t.seller_id").
		Joins("LEFT JOIN shops     AS s ON s.id = t.shop_id").
		Where("t.deleted_at IS NULL")
}

// isDuplicateKey recognizes a unique-constraint violation from either the
// postgres driver or sqlite in tests.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
