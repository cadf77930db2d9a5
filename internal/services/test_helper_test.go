package services

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/repository"
	"github.com/retailcore/pos-gateway/pkg/pg"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// ledgerEnv wires the real repositories over an in-memory store so service
// tests exercise genuine commit/rollback behavior.
type ledgerEnv struct {
	db           *pg.DB
	ledger       *LedgerService
	query        *QueryService
	transactions *repository.TransactionRepository
	customers    *repository.CustomerRepository
	products     *repository.ProductRepository
	shops        *repository.ShopRepository
	salesmen     *repository.SalesmanRepository
	users        *repository.UserRepository
}

func newLedgerEnv(t *testing.T) *ledgerEnv {
	t.Helper()

	raw, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = raw.AutoMigrate(
		&repository.CustomerEntity{},
		&repository.ShopEntity{},
		&repository.ProductEntity{},
		&repository.SalesmanEntity{},
		&repository.UserEntity{},
		&repository.TransactionEntity{},
	)
	require.NoError(t, err)

	db := &pg.DB{}
	v := reflect.ValueOf(db).Elem()
	for _, name := range []string{"read", "write"} {
		f := v.FieldByName(name)
		f = reflect.NewAt(f.Type(), f.Addr().UnsafePointer()).Elem()
		f.Set(reflect.ValueOf(raw))
	}

	env := &ledgerEnv{
		db:           db,
		transactions: repository.NewTransactionRepository(db),
		customers:    repository.NewCustomerRepository(db),
		products:     repository.NewProductRepository(db),
		shops:        repository.NewShopRepository(db),
		salesmen:     repository.NewSalesmanRepository(db),
		users:        repository.NewUserRepository(db),
	}
	env.ledger = NewLedgerService(env.transactions, env.customers, env.products, env.shops, env.salesmen, nil)
	env.query = NewQueryService(env.transactions)
	return env
}

func (e *ledgerEnv) seedCustomer(t *testing.T, balance float64) *model.Customer {
	t.Helper()
	c, err := e.customers.Create(context.Background(), &model.Customer{
		Name:        "Test Customer",
		PhoneNumber: "0912345678",
		Balance:     balance,
	})
	require.NoError(t, err)
	return c
}

func (e *ledgerEnv) seedShop(t *testing.T, taxRate float64) *model.Shop {
	t.Helper()
	s, err := e.shops.Create(context.Background(), &model.Shop{
		Name:    "Test Shop",
		TaxRate: taxRate,
	})
	require.NoError(t, err)
	return s
}

func (e *ledgerEnv) seedProduct(t *testing.T, price, discount float64, inStock int) *model.Product {
	t.Helper()
	p, err := e.products.Create(context.Background(), &model.Product{
		Name:     "Test Product",
		Price:    price,
		Retail:   price * 0.8,
		Discount: discount,
		InStock:  inStock,
	})
	require.NoError(t, err)
	return p
}

func (e *ledgerEnv) seedSalesman(t *testing.T) *model.Salesman {
	t.Helper()
	s, err := e.salesmen.Create(context.Background(), &model.Salesman{
		Name:        "Test Salesman",
		PhoneNumber: "0919876543",
	})
	require.NoError(t, err)
	return s
}

func (e *ledgerEnv) customer(t *testing.T, id uuid.UUID) *model.Customer {
	t.Helper()
	c, err := e.customers.GetByID(context.Background(), id)
	require.NoError(t, err)
	return c
}

func (e *ledgerEnv) shop(t *testing.T, id uuid.UUID) *model.Shop {
	t.Helper()
	s, err := e.shops.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (e *ledgerEnv) product(t *testing.T, id uuid.UUID) *model.Product {
	t.Helper()
	p, err := e.products.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}
