package services

import (
	"context"
	"testing"

	"bizpro-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testCtx = context.Background()

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is its own database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func seedCompany(t *testing.T, db *gorm.DB, name string) models.Company {
	t.Helper()

	company := models.Company{Name: name, ReminderNotifications: true}
	require.NoError(t, db.Create(&company).Error)
	return company
}

func seedEmployee(t *testing.T, db *gorm.DB, companyID uuid.UUID, name string) models.User {
	t.Helper()

	user := models.User{
		Email:     uuid.NewString() + "@example.com",
		Name:      name,
		Password:  "secret123",
		Role:      models.RoleEmployee,
		CompanyID: companyID,
		IsActive:  true,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedProduct(t *testing.T, products *ProductService, companyID uuid.UUID, name, price string, stock int) *models.Product {
	t.Helper()

	product, err := products.CreateProduct(testCtx, companyID, &models.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: &stock,
	})
	require.NoError(t, err)
	return product
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func item(name, price string, qty int) models.OrderItem {
	return models.OrderItem{Name: name, Price: dec(price), Quantity: qty}
}

type fixture struct {
	db           *gorm.DB
	locker       Locker
	stock        *StockService
	products     *ProductService
	orders       *OrderService
	tabs         *TabService
	appointments *AppointmentService
	reports      *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	locker := NewMemoryLocker()
	return &fixture{
		db:           db,
		locker:       locker,
		stock:        NewStockService(db, locker, nil, nil),
		products:     NewProductService(db, locker, nil, nil),
		orders:       NewOrderService(db, locker, nil, nil),
		tabs:         NewTabService(db, locker, nil, nil),
		appointments: NewAppointmentService(db, locker, nil, nil),
		reports:      NewReportService(db, locker, nil),
	}
}
