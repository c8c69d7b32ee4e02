package services

import (
	"testing"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ledgerSum(t *testing.T, f *fixture, companyID, productID uuid.UUID) int {
	t.Helper()

	movements, err := f.stock.GetStockMovements(testCtx, companyID, &productID)
	require.NoError(t, err)

	sum := 0
	for _, m := range movements {
		sum += m.Delta()
	}
	return sum
}

func TestAdjustStockSale(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "Bistro")

	product, err := f.products.CreateProduct(testCtx, company.ID, &models.Product{
		Name:     "Espresso",
		Price:    dec("4.50"),
		Stock:    intPtr(50),
		MinStock: 10,
	})
	require.NoError(t, err)

	movement, err := f.stock.AdjustStock(testCtx, company.ID, product.ID, -5, "sale")
	require.NoError(t, err)
	assert.Equal(t, models.MovementOut, movement.Type)
	assert.Equal(t, 5, movement.Quantity)
	assert.Equal(t, "Espresso", movement.ProductName)

	reloaded, err := f.products.GetProduct(testCtx, company.ID, product.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.Stock)
	assert.Equal(t, 45, *reloaded.Stock)

	movements, err := f.stock.GetStockMovements(testCtx, company.ID, &product.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "sale", movements[0].Reason)
	assert.Equal(t, initialStockReason, movements[1].Reason)
}

func TestStockEqualsLedgerSum(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "Bistro")
	product := seedProduct(t, f.products, company.ID, "Water", "2.00", 10)

	for _, delta := range []int{-3, 5, -20, 1} {
		_, err := f.stock.AdjustStock(testCtx, company.ID, product.ID, delta, "count")
		require.NoError(t, err)
	}

	reloaded, err := f.products.GetProduct(testCtx, company.ID, product.ID)
	require.NoError(t, err)
	assert.Equal(t, -7, *reloaded.Stock, "overselling is recorded, not blocked")
	assert.Equal(t, *reloaded.Stock, ledgerSum(t, f, company.ID, product.ID))
}

func TestAdjustStockRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "Bistro")
	product := seedProduct(t, f.products, company.ID, "Water", "2.00", 1)

	_, err := f.stock.AdjustStock(testCtx, company.ID, product.ID, 0, "noop")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.stock.AdjustStock(testCtx, company.ID, product.ID, 1, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.stock.AdjustStock(testCtx, company.ID, uuid.New(), 1, "restock")
	assert.ErrorIs(t, err, ErrNotFound)

	other := seedCompany(t, f.db, "Other")
	_, err = f.stock.AdjustStock(testCtx, other.ID, product.ID, 1, "restock")
	assert.ErrorIs(t, err, ErrNotFound, "products of another company are invisible")

	haircut, err := f.products.CreateProduct(testCtx, company.ID, &models.Product{
		Name:            "Haircut",
		Kind:            models.ProductKindService,
		Price:           dec("30"),
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	assert.Nil(t, haircut.Stock)
	_, err = f.stock.AdjustStock(testCtx, company.ID, haircut.ID, 1, "restock")
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, 1, ledgerSum(t, f, company.ID, product.ID))
}

func TestGetLowStockProducts(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "Bistro")

	_, err := f.products.CreateProduct(testCtx, company.ID, &models.Product{Name: "Coffee", Price: dec("3"), Stock: intPtr(4), MinStock: 5})
	require.NoError(t, err)
	_, err = f.products.CreateProduct(testCtx, company.ID, &models.Product{Name: "Tea", Price: dec("3"), Stock: intPtr(20), MinStock: 5})
	require.NoError(t, err)
	_, err = f.products.CreateProduct(testCtx, company.ID, &models.Product{Name: "Massage", Kind: models.ProductKindService, Price: dec("60"), DurationMinutes: 60})
	require.NoError(t, err)

	low, err := f.stock.GetLowStockProducts(testCtx, company.ID)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "Coffee", low[0].Name)
}

func intPtr(v int) *int {
	return &v
}
