package services

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/retailcore/pos-gateway/internal/model"
	"github.com/retailcore/pos-gateway/internal/queue"
	"github.com/retailcore/pos-gateway/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

// 2 units @ 100 with per-unit discount 10, 10% tax, fully paid in cash.
func TestLedgerService_CreateSale_FullPayment(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 100, 10, 10)
	sellerID := uuid.New()

	result, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     sellerID,
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   200,
	})
	require.NoError(t, err)

	calc := result.Calculated
	assert.InDelta(t, 200, calc.Subtotal, tolerance)
	assert.InDelta(t, 20, calc.TotalDiscount, tolerance)
	assert.InDelta(t, 18, calc.Tax, tolerance)
	assert.InDelta(t, 198, calc.ActualAmount, tolerance)
	assert.Equal(t, model.PaymentFull, calc.PaymentType)
	assert.InDelta(t, 200, calc.PaidThroughCash, tolerance)
	assert.InDelta(t, 0, calc.PaidThroughAccountBalance, tolerance)

	trx := result.Transaction
	assert.Equal(t, "INV-00001", trx.InvoiceNumber)
	require.Len(t, trx.ProductsList, 1)
	assert.Equal(t, 2, trx.ProductsList[0].Quantity)
	assert.InDelta(t, 100, trx.ProductsList[0].Price, tolerance)

	// overpayment of 2 becomes store credit
	updatedCustomer := env.customer(t, customer.ID)
	assert.InDelta(t, 2, updatedCustomer.Balance, tolerance)
	assert.InDelta(t, 200, updatedCustomer.TotalSpent, tolerance)
	assert.Equal(t, int64(1), updatedCustomer.TotalOrders)

	updatedShop := env.shop(t, shop.ID)
	assert.Equal(t, int64(1), updatedShop.TotalSales)
	assert.InDelta(t, 198, updatedShop.TotalRevenue, tolerance)

	assert.Equal(t, 8, env.product(t, product.ID).InStock)
}

// Same sale but only 100 paid: shortfall becomes customer debt.
func TestLedgerService_CreateSale_PartialPayment(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 100, 10, 10)

	result, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   100,
	})
	require.NoError(t, err)

	assert.Equal(t, model.PaymentPartial, result.Calculated.PaymentType)
	assert.InDelta(t, -98, env.customer(t, customer.ID).Balance, tolerance)
}

func TestLedgerService_CreateSale_UseBalance(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 50)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 100, 10, 10)

	result, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   150,
		UseBalance:   true,
	})
	require.NoError(t, err)

	calc := result.Calculated
	assert.InDelta(t, 50, calc.PaidThroughAccountBalance, tolerance)
	assert.InDelta(t, 100, calc.PaidThroughCash, tolerance)
	assert.InDelta(t, 50, calc.PreviousBalance, tolerance)
	// the breakdown reports the fully adjusted balance; the stored row keeps
	// the intermediate post-credit value
	assert.InDelta(t, -48, calc.CurrentBalance, tolerance)
	assert.Equal(t, model.PaymentPartial, calc.PaymentType)

	trx, err := env.transactions.GetByID(ctx, result.Transaction.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, trx.CurrentBalance, tolerance)

	// 0 left after spending credit, minus the 48 shortfall
	assert.InDelta(t, -48, env.customer(t, customer.ID).Balance, tolerance)
}

func TestLedgerService_CreateSale_FlatDiscountFloor(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 10, 0, 5)

	// flat discount exceeds the subtotal: taxable clamps to zero
	result, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   0,
		FlatDiscount: 100,
	})
	require.NoError(t, err)

	assert.InDelta(t, 0, result.Calculated.ActualAmount, tolerance)
	assert.Equal(t, model.PaymentFull, result.Calculated.PaymentType)
}

func TestLedgerService_CreateSale_InvoiceSequence(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 100)

	var invoices []string
	for i := 0; i < 3; i++ {
		result, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
			CustomerID:   customer.ID,
			SellerID:     uuid.New(),
			ShopID:       shop.ID,
			ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
			PaidAmount:   10,
		})
		require.NoError(t, err)
		invoices = append(invoices, result.Transaction.InvoiceNumber)
	}

	assert.Equal(t, []string{"INV-00001", "INV-00002", "INV-00003"}, invoices)
}

func TestLedgerService_CreateSale_UnknownProductRollsBack(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 100, 0, 10)

	_, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID: customer.ID,
		SellerID:   uuid.New(),
		ShopID:     shop.ID,
		ProductsList: []model.SaleItem{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: uuid.New(), Quantity: 1},
		},
		PaidAmount: 100,
	})
	assert.ErrorIs(t, err, ErrProductMismatch)

	// nothing committed
	assert.Equal(t, int64(0), env.customer(t, customer.ID).TotalOrders)
	assert.Equal(t, int64(0), env.shop(t, shop.ID).TotalSales)
	assert.Equal(t, 10, env.product(t, product.ID).InStock)
}

func TestLedgerService_CreateSale_SalesmanCredited(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 10)
	salesman := env.seedSalesman(t)

	_, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		SalesmanID:   &salesman.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   10,
	})
	require.NoError(t, err)

	updated, err := env.salesmen.GetByID(ctx, salesman.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.TotalOrders)
}

func TestLedgerService_CreateSale_Validation(t *testing.T) {
	env := newLedgerEnv(t)

	_, err := env.ledger.CreateSale(context.Background(), model.SaleCreateRequest{})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

// Scenario chain: full sale, append a 50 debt, settle it, settle again.
func TestLedgerService_DebtLifecycle(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 100, 10, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   200,
	})
	require.NoError(t, err)

	balanceBefore := env.customer(t, customer.ID).Balance
	revenueBefore := env.shop(t, shop.ID).TotalRevenue
	paidBefore := sale.Transaction.PaidAmount

	// append a 50 shortfall
	appended, err := env.ledger.AppendDebt(ctx, model.DebtAppendRequest{
		TransactionID: sale.Transaction.ID,
		Debt:          []model.DebtItem{{Description: "short on cash", Amount: 50}},
	})
	require.NoError(t, err)

	assert.InDelta(t, 50, appended.AppendedSum, tolerance)
	assert.Equal(t, model.PaymentPartial, appended.Transaction.PaymentType)
	assert.InDelta(t, paidBefore-50, appended.Transaction.PaidAmount, tolerance)
	require.Len(t, appended.Transaction.Debt, 1)
	assert.Equal(t, model.DebtUnpaid, appended.Transaction.Debt[0].Status)
	assert.InDelta(t, balanceBefore-50, env.customer(t, customer.ID).Balance, tolerance)
	assert.InDelta(t, revenueBefore-50, env.shop(t, shop.ID).TotalRevenue, tolerance)

	// settle it
	settled, err := env.ledger.SettleDebt(ctx, model.DebtSettleRequest{
		TransactionID: sale.Transaction.ID,
		DebtID:        appended.Transaction.Debt[0].ID,
	})
	require.NoError(t, err)

	assert.False(t, settled.AlreadyPaid)
	assert.InDelta(t, 50, settled.PaidAmount, tolerance)
	assert.Equal(t, model.PaymentFull, settled.Transaction.PaymentType)
	assert.InDelta(t, paidBefore, settled.Transaction.PaidAmount, tolerance)
	assert.Equal(t, model.DebtPaid, settled.Transaction.Debt[0].Status)
	assert.NotNil(t, settled.Transaction.Debt[0].PaidAt)
	assert.InDelta(t, balanceBefore, env.customer(t, customer.ID).Balance, tolerance)
	assert.InDelta(t, revenueBefore, env.shop(t, shop.ID).TotalRevenue, tolerance)

	// settling again changes nothing
	again, err := env.ledger.SettleDebt(ctx, model.DebtSettleRequest{
		TransactionID: sale.Transaction.ID,
		DebtID:        appended.Transaction.Debt[0].ID,
	})
	require.NoError(t, err)

	assert.True(t, again.AlreadyPaid)
	assert.InDelta(t, balanceBefore, env.customer(t, customer.ID).Balance, tolerance)
	assert.InDelta(t, revenueBefore, env.shop(t, shop.ID).TotalRevenue, tolerance)
}

func TestLedgerService_AppendDebt_EmptyListNoOp(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   10,
	})
	require.NoError(t, err)

	result, err := env.ledger.AppendDebt(ctx, model.DebtAppendRequest{
		TransactionID: sale.Transaction.ID,
	})
	require.NoError(t, err)

	assert.Zero(t, result.AppendedSum)
	assert.Empty(t, result.Transaction.Debt)
	assert.Equal(t, model.PaymentFull, result.Transaction.PaymentType)
}

func TestLedgerService_SettleDebt_UnknownDebt(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   10,
	})
	require.NoError(t, err)

	_, err = env.ledger.SettleDebt(ctx, model.DebtSettleRequest{
		TransactionID: sale.Transaction.ID,
		DebtID:        uuid.New(),
	})
	assert.ErrorIs(t, err, ErrDebtNotFound)
}

// Return 1 of the 2 discounted units: refund 90, restock 1.
func TestLedgerService_ProcessReturn(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 10)
	product := env.seedProduct(t, 100, 10, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   200,
	})
	require.NoError(t, err)

	balanceBefore := env.customer(t, customer.ID).Balance
	revenueBefore := env.shop(t, shop.ID).TotalRevenue
	stockBefore := env.product(t, product.ID).InStock

	result, err := env.ledger.ProcessReturn(ctx, model.ReturnRequest{
		TransactionID: sale.Transaction.ID,
		Products:      []model.ReturnItem{{ProductID: product.ID, Quantity: 1, Reason: "damaged"}},
	}, uuid.New())
	require.NoError(t, err)

	assert.InDelta(t, 90, result.RefundedAmount, tolerance)
	assert.Equal(t, 1, result.Transaction.ProductsList[0].ReturnedQuantity)
	require.Len(t, result.Transaction.ReturnTrail, 1)
	assert.Equal(t, model.ReturnProcessed, result.Transaction.ReturnTrail[0].Status)
	assert.InDelta(t, 90, result.Transaction.TotalRefund, tolerance)

	assert.Equal(t, stockBefore+1, env.product(t, product.ID).InStock)
	assert.InDelta(t, balanceBefore+90, env.customer(t, customer.ID).Balance, tolerance)
	assert.InDelta(t, revenueBefore-90, env.shop(t, shop.ID).TotalRevenue, tolerance)
}

func TestLedgerService_ProcessReturn_OverRequestCapped(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 100, 0, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   200,
	})
	require.NoError(t, err)

	// asking for 5 back only returns the 2 that were sold
	result, err := env.ledger.ProcessReturn(ctx, model.ReturnRequest{
		TransactionID: sale.Transaction.ID,
		Products:      []model.ReturnItem{{ProductID: product.ID, Quantity: 5}},
	}, uuid.New())
	require.NoError(t, err)

	assert.InDelta(t, 200, result.RefundedAmount, tolerance)
	assert.Equal(t, 2, result.Transaction.ProductsList[0].ReturnedQuantity)
	assert.Equal(t, 10, env.product(t, product.ID).InStock)

	// everything is back already: a second return has nothing to do
	_, err = env.ledger.ProcessReturn(ctx, model.ReturnRequest{
		TransactionID: sale.Transaction.ID,
		Products:      []model.ReturnItem{{ProductID: product.ID, Quantity: 1}},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrNothingToReturn)
	assert.Equal(t, 10, env.product(t, product.ID).InStock)
}

func TestLedgerService_ProcessReturn_UnknownLineRollsBack(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 100, 0, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 2}},
		PaidAmount:   200,
	})
	require.NoError(t, err)

	stockBefore := env.product(t, product.ID).InStock

	// the valid line is restocked first, then the unknown line aborts the
	// unit: the restock must not survive
	_, err = env.ledger.ProcessReturn(ctx, model.ReturnRequest{
		TransactionID: sale.Transaction.ID,
		Products: []model.ReturnItem{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: uuid.New(), Quantity: 1},
		},
	}, uuid.New())
	assert.ErrorIs(t, err, ErrLineNotInTransaction)

	assert.Equal(t, stockBefore, env.product(t, product.ID).InStock)
	trx, err := env.transactions.GetByID(ctx, sale.Transaction.ID)
	require.NoError(t, err)
	assert.Empty(t, trx.ReturnTrail)
	assert.Equal(t, 0, trx.ProductsList[0].ReturnedQuantity)
}

// Separate return calls overwrite totalRefund rather than accumulate.
func TestLedgerService_ProcessReturn_TotalRefundOverwritten(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 100, 0, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 3}},
		PaidAmount:   300,
	})
	require.NoError(t, err)

	first, err := env.ledger.ProcessReturn(ctx, model.ReturnRequest{
		TransactionID: sale.Transaction.ID,
		Products:      []model.ReturnItem{{ProductID: product.ID, Quantity: 2}},
	}, uuid.New())
	require.NoError(t, err)
	assert.InDelta(t, 200, first.Transaction.TotalRefund, tolerance)

	second, err := env.ledger.ProcessReturn(ctx, model.ReturnRequest{
		TransactionID: sale.Transaction.ID,
		Products:      []model.ReturnItem{{ProductID: product.ID, Quantity: 1}},
	}, uuid.New())
	require.NoError(t, err)

	// only this call's refund, the trail still has both entries
	assert.InDelta(t, 100, second.Transaction.TotalRefund, tolerance)
	assert.Len(t, second.Transaction.ReturnTrail, 2)
}

func TestLedgerService_Delete(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 10)

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   10,
	})
	require.NoError(t, err)

	stockBefore := env.product(t, product.ID).InStock

	require.NoError(t, env.ledger.Delete(ctx, sale.Transaction.ID))

	// gone from default reads, financial effect untouched
	_, err = env.transactions.GetByID(ctx, sale.Transaction.ID)
	assert.Error(t, err)
	assert.Equal(t, stockBefore, env.product(t, product.ID).InStock)
	assert.Equal(t, int64(1), env.shop(t, shop.ID).TotalSales)
}

func newReceiptQueue(t *testing.T) (*miniredis.Miniredis, *queue.Queue) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)

	q, err := queue.New(adapter, queue.Config{
		Name:          "receipts",
		ConsumerGroup: "receipt-notifier",
		ConsumerName:  "ledger-test",
	})
	require.NoError(t, err)
	return mr, q
}

func TestLedgerService_ReceiptPublishedAfterCommit(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	_, q := newReceiptQueue(t)
	env.ledger = NewLedgerService(env.transactions, env.customers, env.products, env.shops, env.salesmen, q)

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 5)

	_, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   10,
	})
	require.NoError(t, err)

	n, err := q.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// a rolled-back mutation leaves no phantom event behind
	_, err = env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: uuid.New(), Quantity: 1}},
		PaidAmount:   10,
	})
	require.ErrorIs(t, err, ErrProductMismatch)

	n, err = q.Len()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestLedgerService_QueueOutageDoesNotBlockSale(t *testing.T) {
	env := newLedgerEnv(t)
	ctx := context.Background()

	mr, q := newReceiptQueue(t)
	env.ledger = NewLedgerService(env.transactions, env.customers, env.products, env.shops, env.salesmen, q)

	customer := env.seedCustomer(t, 0)
	shop := env.seedShop(t, 0)
	product := env.seedProduct(t, 10, 0, 5)

	// receipt delivery is best-effort: the sale books even with redis gone
	mr.Close()

	sale, err := env.ledger.CreateSale(ctx, model.SaleCreateRequest{
		CustomerID:   customer.ID,
		SellerID:     uuid.New(),
		ShopID:       shop.ID,
		ProductsList: []model.SaleItem{{ProductID: product.ID, Quantity: 1}},
		PaidAmount:   10,
	})
	require.NoError(t, err)

	trx, err := env.transactions.GetByID(ctx, sale.Transaction.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10, trx.PaidAmount, tolerance)
}
