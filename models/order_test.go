package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func itemsWith(statuses ...ItemStatus) []OrderItem {
	items := make([]OrderItem, 0, len(statuses))
	for _, s := range statuses {
		items = append(items, OrderItem{Status: s, Quantity: 1})
	}
	return items
}

func TestDeriveOrderStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []ItemStatus
		want     OrderStatus
		changed  bool
	}{
		{"all pending", []ItemStatus{ItemStatusPending, ItemStatusPending}, "", false},
		{"one preparing", []ItemStatus{ItemStatusPreparing, ItemStatusPending}, OrderStatusAccepted, true},
		{"one ready", []ItemStatus{ItemStatusReady, ItemStatusDelivered}, OrderStatusAccepted, true},
		{"all finished", []ItemStatus{ItemStatusDelivered, ItemStatusReceived}, OrderStatusCompleted, true},
		{"finished and pending", []ItemStatus{ItemStatusReceived, ItemStatusPending}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := DeriveOrderStatus(itemsWith(tt.statuses...))
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
		})
	}

	_, changed := DeriveOrderStatus(nil)
	assert.False(t, changed)
}

func TestApplyDerivedStatusIsMonotonic(t *testing.T) {
	first := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	order := &Order{Status: OrderStatusPending, Items: itemsWith(ItemStatusPreparing, ItemStatusPending)}

	assert.False(t, order.ApplyDerivedStatus(first))
	assert.Equal(t, OrderStatusAccepted, order.Status)

	order.Items[0].Status = ItemStatusPending
	order.ApplyDerivedStatus(first)
	assert.Equal(t, OrderStatusAccepted, order.Status)

	order.Items[0].Status = ItemStatusReceived
	order.Items[1].Status = ItemStatusDelivered
	assert.True(t, order.ApplyDerivedStatus(first))
	require.NotNil(t, order.FinalizedAt)

	order.Items[1].Status = ItemStatusReady
	assert.False(t, order.ApplyDerivedStatus(first.Add(time.Hour)))
	assert.Equal(t, OrderStatusCompleted, order.Status)

	order.Complete(first.Add(2 * time.Hour))
	assert.True(t, first.Equal(*order.FinalizedAt))
	for _, item := range order.Items {
		assert.Equal(t, ItemStatusReceived, item.Status)
	}
}

func TestOrderTotal(t *testing.T) {
	order := &Order{Items: []OrderItem{
		{Price: decimal.RequireFromString("25.00"), Quantity: 2},
		{Price: decimal.RequireFromString("5.50"), Quantity: 1},
	}}
	assert.Equal(t, "55.50", order.Total().StringFixed(2))
	assert.True(t, (&Order{}).Total().IsZero())
}

func TestAppendHistory(t *testing.T) {
	order := &Order{ID: "ord-1"}
	at := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	entry := order.AppendHistory("Burger: ready", "Ana", at)
	assert.Equal(t, "ord-1", entry.OrderID)
	assert.Equal(t, "Ana", entry.EmployeeName)
	require.Len(t, order.History, 1)
	assert.Same(t, &order.History[0], entry)
}

func TestTargetTypeValid(t *testing.T) {
	assert.True(t, TargetTable.Valid())
	assert.True(t, TargetRoom.Valid())
	assert.True(t, TargetAppointment.Valid())
	assert.False(t, TargetType("bar").Valid())
}
