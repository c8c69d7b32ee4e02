package services

import (
	"sync"
	"testing"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menu struct {
	burger *models.Product
	soda   *models.Product
}

func seedMenu(t *testing.T, f *fixture, companyID uuid.UUID) menu {
	t.Helper()

	burger, err := f.products.CreateProduct(testCtx, companyID, &models.Product{
		Name:                "Burger",
		Price:               dec("25.00"),
		Stock:               intPtr(10),
		RequiresPreparation: true,
	})
	require.NoError(t, err)
	return menu{
		burger: burger,
		soda:   seedProduct(t, f.products, companyID, "Soda", "5.00", 10),
	}
}

func tableOrder(number string, items ...models.OrderItem) *models.Order {
	return &models.Order{
		TargetType:   models.TargetTable,
		TargetNumber: number,
		Items:        items,
	}
}

func TestCreateOrderFoldsIntoTab(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")
	m := seedMenu(t, f, company.ID)

	order, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("12",
		models.OrderItem{ProductID: &m.burger.ID, Quantity: 2},
		models.OrderItem{ProductID: &m.soda.ID, Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.OrderSourcePublic, order.Source)
	assert.True(t, order.Items[0].RequiresPreparation)
	assert.False(t, order.Items[1].RequiresPreparation)
	require.Len(t, order.History, 1)
	assert.Equal(t, historyOrderCreated, order.History[0].Message)

	tabs, err := f.tabs.GetAllTabs(testCtx, company.ID)
	require.NoError(t, err)
	require.Len(t, tabs, 1)
	assert.Equal(t, models.TargetTable, tabs[0].Type)
	assert.Equal(t, "12", tabs[0].Number)
	assert.Equal(t, models.TabStatusOccupied, tabs[0].Status)
	assert.Equal(t, "55.00", tabs[0].Total.StringFixed(2))
	assert.Equal(t, []string{order.ID}, tabs[0].OrderIDs)
	assert.True(t, order.Total().Equal(tabs[0].Total))
}

func TestPublicOrderSnapshotsCatalog(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")
	m := seedMenu(t, f, company.ID)

	order, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("1",
		models.OrderItem{ProductID: &m.burger.ID, Name: "Free burger", Price: dec("0.01"), Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, "Burger", order.Items[0].Name)
	assert.Equal(t, "25.00", order.Items[0].Price.StringFixed(2))

	price := dec("30.00")
	_, err = f.products.UpdateProduct(testCtx, company.ID, m.burger.ID, ProductUpdate{Price: &price})
	require.NoError(t, err)

	stored, err := f.orders.GetOrder(testCtx, company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "25.00", stored.Items[0].Price.StringFixed(2), "catalog edits never reach placed orders")

	internal := tableOrder("2", models.OrderItem{ProductID: &m.burger.ID, Price: dec("20.00"), Quantity: 1})
	internal.Source = models.OrderSourceInternal
	internal, err = f.orders.CreateOrder(testCtx, company.ID, internal)
	require.NoError(t, err)
	assert.Equal(t, "Burger", internal.Items[0].Name)
	assert.Equal(t, "20.00", internal.Items[0].Price.StringFixed(2))
}

func TestCreateOrderRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	tests := []struct {
		name  string
		order *models.Order
		want  error
	}{
		{"no items", tableOrder("1"), ErrInvalidInput},
		{"blank target", tableOrder(" ", item("Tea", "1", 1)), ErrInvalidInput},
		{"unknown target type", &models.Order{TargetType: "bar", TargetNumber: "1", Items: []models.OrderItem{item("Tea", "1", 1)}}, ErrInvalidInput},
		{"zero quantity", tableOrder("1", item("Tea", "1", 0)), ErrInvalidInput},
		{"negative price", tableOrder("1", item("Tea", "-1", 1)), ErrInvalidInput},
		{"unknown product", tableOrder("1", models.OrderItem{ProductID: uuidPtr(uuid.New()), Quantity: 1}), ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(testCtx, company.ID, tt.order)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := f.orders.CreateOrder(testCtx, uuid.New(), tableOrder("1", item("Tea", "1", 1)))
	assert.ErrorIs(t, err, ErrNotFound)

	tabs, err := f.tabs.GetAllTabs(testCtx, company.ID)
	require.NoError(t, err)
	assert.Empty(t, tabs, "rejected orders leave no trace on the tabs")
}

func TestCreateOrderRejectsDuplicateID(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	first := tableOrder("1", item("Tea", "3", 1))
	first.ID = "ord-1"
	_, err := f.orders.CreateOrder(testCtx, company.ID, first)
	require.NoError(t, err)

	again := tableOrder("1", item("Tea", "3", 1))
	again.ID = "ord-1"
	_, err = f.orders.CreateOrder(testCtx, company.ID, again)
	assert.ErrorIs(t, err, ErrDuplicateOrder)

	tab, err := f.tabs.GetTab(testCtx, company.ID, models.TargetTable, "1")
	require.NoError(t, err)
	assert.Equal(t, "3.00", tab.Total.StringFixed(2))
}

func TestAppointmentOrderIDsAreReserved(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	appt, err := f.appointments.CreateAppointment(testCtx, company.ID, booking("Maria",
		BookedService{ServiceName: "Nails", StartTime: slot, DurationMinutes: 30, Price: decPtr("40.00")},
	))
	require.NoError(t, err)

	squatter := tableOrder("1", item("Tea", "3", 1))
	squatter.ID = models.AppointmentOrderID(appt.ID)
	_, err = f.orders.CreateOrder(testCtx, company.ID, squatter)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, order, err := f.appointments.UpdateAppointmentStatus(testCtx, company.ID, appt.ID, models.AppointmentCompleted)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, models.AppointmentOrderID(appt.ID), order.ID)
}

func TestItemStatusDrivesOrderStatus(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")
	m := seedMenu(t, f, company.ID)
	cook := seedEmployee(t, f.db, company.ID, "Ana")

	order, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("12",
		models.OrderItem{ProductID: &m.burger.ID, Quantity: 2},
		models.OrderItem{ProductID: &m.soda.ID, Quantity: 1},
	))
	require.NoError(t, err)

	order, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 0, models.ItemStatusPreparing, &Employee{ID: &cook.ID})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, order.Status)
	assert.Equal(t, "Ana", order.Items[0].AssignedEmployeeName)
	last := order.History[len(order.History)-1]
	assert.Equal(t, "Burger: preparing", last.Message)
	assert.Equal(t, "Ana", last.EmployeeName)

	order, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 0, models.ItemStatusPending, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, order.Status, "status never moves backwards")

	order, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 0, models.ItemStatusReceived, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusAccepted, order.Status)
	assert.Nil(t, order.FinalizedAt)

	order, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 1, models.ItemStatusReceived, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.FinalizedAt)
	finalizedAt := *order.FinalizedAt

	order, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 1, models.ItemStatusDelivered, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.FinalizedAt)
	assert.True(t, finalizedAt.Equal(*order.FinalizedAt), "finalizedAt is stamped once")

	var mirrored []models.TabHistoryItem
	require.NoError(t, f.db.Where("order_id = ?", order.ID).Order("item_index").Find(&mirrored).Error)
	require.Len(t, mirrored, 2)
	assert.Equal(t, models.ItemStatusReceived, mirrored[0].Status)
	assert.Equal(t, models.ItemStatusDelivered, mirrored[1].Status)

	tab, err := f.tabs.GetTab(testCtx, company.ID, models.TargetTable, "12")
	require.NoError(t, err)
	assert.Equal(t, models.TabStatusReadyToPay, tab.Status)
	assert.Equal(t, "55.00", tab.Total.StringFixed(2))
}

func TestUpdateOrderItemStatusErrors(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	order, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("1", item("Tea", "3", 1)))
	require.NoError(t, err)

	_, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 5, models.ItemStatusReady, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, order.ID, 0, "eaten", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.orders.UpdateOrderItemStatus(testCtx, company.ID, "missing", 0, models.ItemStatusReady, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	other := seedCompany(t, f.db, "c2")
	_, err = f.orders.UpdateOrderItemStatus(testCtx, other.ID, order.ID, 0, models.ItemStatusReady, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConfirmOrderReceipt(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	order, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("3", item("Tea", "3", 1), item("Cake", "6", 1)))
	require.NoError(t, err)

	order, err = f.orders.ConfirmOrderReceipt(testCtx, company.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)
	require.NotNil(t, order.FinalizedAt)
	for _, it := range order.Items {
		assert.Equal(t, models.ItemStatusReceived, it.Status)
	}

	stored, err := f.orders.GetOrder(testCtx, company.ID, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 2)
	assert.Equal(t, historyOrderReceived, stored.History[1].Message)
	for _, it := range stored.Items {
		assert.Equal(t, models.ItemStatusReceived, it.Status)
	}
}

func TestArchiveOrdersIsIdempotent(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	a, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("1", item("Tea", "3", 1)))
	require.NoError(t, err)
	b, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("2", item("Tea", "3", 1)))
	require.NoError(t, err)

	n, err := f.orders.ArchiveOrders(testCtx, company.ID, []string{a.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.orders.ArchiveOrders(testCtx, company.ID, []string{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, f.orders.ArchiveOrder(testCtx, company.ID, a.ID))

	_, err = f.orders.ArchiveOrders(testCtx, company.ID, []string{"missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	active, err := f.orders.GetOrders(testCtx, company.ID, OrderFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := f.orders.GetOrders(testCtx, company.ID, OrderFilter{IncludeArchived: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	tabs, err := f.tabs.GetAllTabs(testCtx, company.ID)
	require.NoError(t, err)
	for _, tab := range tabs {
		assert.True(t, tab.Total.IsZero(), "archived orders leave the tab fold")
	}
}

func TestArchiveOrdersAllOrNothing(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	a, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("1", item("Tea", "3", 1)))
	require.NoError(t, err)

	_, err = f.orders.ArchiveOrders(testCtx, company.ID, []string{a.ID, "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := f.orders.GetOrder(testCtx, company.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsArchived)
}

func TestConcurrentOrdersKeepTabConsistent(t *testing.T) {
	f := newFixture(t)
	company := seedCompany(t, f.db, "c1")

	const workers = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.orders.CreateOrder(testCtx, company.ID, tableOrder("7", item("Beer", "6.50", 2)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	tab, err := f.tabs.GetTab(testCtx, company.ID, models.TargetTable, "7")
	require.NoError(t, err)
	assert.Len(t, tab.OrderIDs, workers)
	assert.Equal(t, "130.00", tab.Total.StringFixed(2))

	var lines int64
	require.NoError(t, f.db.Model(&models.TabHistoryItem{}).Count(&lines).Error)
	assert.Equal(t, int64(workers), lines)
}

func uuidPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
