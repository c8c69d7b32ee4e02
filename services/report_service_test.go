package services

import (
	"testing"
	"time"

	"bizpro-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func finalizeAt(t *testing.T, f *fixture, orderID string, at time.Time) {
	t.Helper()

	require.NoError(t, f.db.Model(&models.Order{}).Where("id = ?", orderID).Updates(map[string]interface{}{
		"status":       models.OrderStatusCompleted,
		"finalized_at": at,
	}).Error)
}

func TestGetDashboardOverview(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")
	f.reports.now = func() time.Time { return slot }

	_, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("1", item("Tea", "3.00", 1)))
	require.NoError(t, err)

	paid, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("2", item("Pasta", "14.00", 2)))
	require.NoError(t, err)
	finalizeAt(t, f, paid.ID, slot.Add(-time.Hour))

	closed, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("3", item("Wine", "20.00", 1)))
	require.NoError(t, err)
	finalizeAt(t, f, closed.ID, slot.Add(-2*time.Hour))
	_, err = f.tabs.CloseTab(testCtx, company.ID, models.TargetTable, "3")
	require.NoError(t, err)

	yesterday, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("4", item("Beer", "6.00", 1)))
	require.NoError(t, err)
	finalizeAt(t, f, yesterday.ID, slot.AddDate(0, 0, -1))
	_, err = f.tabs.CloseTab(testCtx, company.ID, models.TargetTable, "4")
	require.NoError(t, err)

	_, err = f.products.CreateProduct(testCtx, company.ID, &models.Product{
		Name: "Lemons", Price: dec("1.00"), Stock: intPtr(2), MinStock: 5,
	})
	require.NoError(t, err)
	seedProduct(t, f.products, company.ID, "Flour", "4.00", 40)

	require.NoError(t, f.db.Create(&models.Client{CompanyID: company.ID, Name: "Maria", Phone: "+5511999990000"}).Error)

	_, err = f.appointments.CreateAppointment(testCtx, company.ID, booking("Maria",
		BookedService{ServiceName: "Haircut", StartTime: slot.Add(4 * time.Hour), DurationMinutes: 30},
	))
	require.NoError(t, err)
	_, err = f.appointments.CreateAppointment(testCtx, company.ID, booking("Joana",
		BookedService{ServiceName: "Haircut", StartTime: slot.AddDate(0, 0, 1), DurationMinutes: 30},
	))
	require.NoError(t, err)

	overview, err := f.reports.GetDashboardOverview(testCtx, company.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, overview.OpenTabs)
	assert.Equal(t, 1, overview.ReadyToPayTabs)
	assert.Equal(t, "31.00", overview.OpenTabsTotal.StringFixed(2))
	assert.Equal(t, int64(1), overview.PendingOrders)
	assert.Equal(t, "48.00", overview.TodayRevenue.StringFixed(2))
	assert.Equal(t, 2, overview.TodayOrders)
	assert.Equal(t, int64(1), overview.TotalClients)
	require.Len(t, overview.LowStockProducts, 1)
	assert.Equal(t, "Lemons", overview.LowStockProducts[0].Name)
	require.Len(t, overview.TodayAppointments, 1)
	assert.Equal(t, "Maria", overview.TodayAppointments[0].ClientName)
	assert.Equal(t, "14:00", overview.TodayAppointments[0].Time)
}

func TestGetSalesReport(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")
	f.reports.now = func() time.Time { return time.Date(2030, time.March, 15, 12, 0, 0, 0, time.UTC) }

	march := time.Date(2030, time.March, 10, 20, 0, 0, 0, time.UTC)
	february := time.Date(2030, time.February, 20, 20, 0, 0, 0, time.UTC)

	a, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("1", item("Burger", "25.00", 2), item("Soda", "5.00", 1)))
	require.NoError(t, err)
	finalizeAt(t, f, a.ID, march)
	b, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("2", item("Soda", "5.00", 3)))
	require.NoError(t, err)
	finalizeAt(t, f, b.ID, march)
	c, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("3", item("Tea", "50.00", 1)))
	require.NoError(t, err)
	finalizeAt(t, f, c.ID, february)
	_, err = f.orders.CreateOrder(testCtx, company.ID, tableOrder("4", item("Cake", "99.00", 1)))
	require.NoError(t, err)

	report, err := f.reports.GetSalesReport(testCtx, company.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "70.00", report.CurrentMonthRevenue.StringFixed(2))
	assert.Equal(t, "50.00", report.LastMonthRevenue.StringFixed(2))
	assert.Equal(t, 40.0, report.MonthGrowth)
	assert.Equal(t, 2, report.OrdersCount)
	assert.Equal(t, "35.00", report.AvgOrderValue.StringFixed(2))
	require.Len(t, report.TopProducts, 1)
	assert.Equal(t, "Burger", report.TopProducts[0].Name)
	assert.Equal(t, 2, report.TopProducts[0].Count)

	full, err := f.reports.GetSalesReport(testCtx, company.ID, 0)
	require.NoError(t, err)
	require.Len(t, full.TopProducts, 2)
	assert.Equal(t, "Soda", full.TopProducts[1].Name)
	assert.Equal(t, 4, full.TopProducts[1].Count)
	assert.Equal(t, "20.00", full.TopProducts[1].Revenue.StringFixed(2))
}

func TestGrowthPercentage(t *testing.T) {
	assert.Equal(t, 0.0, growthPercentage(dec("0"), dec("0")))
	assert.Equal(t, 100.0, growthPercentage(dec("10"), dec("0")))
	assert.Equal(t, -50.0, growthPercentage(dec("5"), dec("10")))
}
