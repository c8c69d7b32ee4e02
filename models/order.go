package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusAccepted  OrderStatus = "accepted"
	OrderStatusCompleted OrderStatus = "completed"
)

// rank orders the statuses along the only direction an order may move.
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusAccepted:
		return 1
	case OrderStatusCompleted:
		return 2
	default:
		return 0
	}
}

type ItemStatus string

const (
	ItemStatusPending   ItemStatus = "pending"
	ItemStatusPreparing ItemStatus = "preparing"
	ItemStatusReady     ItemStatus = "ready"
	ItemStatusDelivered ItemStatus = "delivered"
	ItemStatusReceived  ItemStatus = "received"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusPending, ItemStatusPreparing, ItemStatusReady, ItemStatusDelivered, ItemStatusReceived:
		return true
	}
	return false
}

// Finished reports whether the item has left the kitchen for good.
func (s ItemStatus) Finished() bool {
	return s == ItemStatusDelivered || s == ItemStatusReceived
}

func (s ItemStatus) InProgress() bool {
	return s == ItemStatusPreparing || s == ItemStatusReady
}

type TargetType string

const (
	TargetTable       TargetType = "table"
	TargetRoom        TargetType = "room"
	TargetAppointment TargetType = "appointment"
)

func (t TargetType) Valid() bool {
	switch t {
	case TargetTable, TargetRoom, TargetAppointment:
		return true
	}
	return false
}

type OrderSource string

const (
	OrderSourcePublic   OrderSource = "public"
	OrderSourceInternal OrderSource = "internal"
)

// Order is one request for items or services placed against a service
// point. A nil CompanyID marks an orphaned record. Orders are archived,
// never deleted.
type Order struct {
	ID           string      `gorm:"type:varchar(64);primary_key" json:"id"`
	CompanyID    *uuid.UUID  `gorm:"type:uuid;index" json:"companyId"`
	UserID       *uuid.UUID  `gorm:"type:uuid" json:"userId"`
	TargetType   TargetType  `gorm:"type:varchar(20);not null;index:idx_orders_target,priority:1" json:"targetType"`
	TargetNumber string      `gorm:"type:varchar(64);not null;index:idx_orders_target,priority:2" json:"targetNumber"`
	CustomerName string      `json:"customerName"`
	Status       OrderStatus `gorm:"type:varchar(20);not null" json:"status"`
	Source       OrderSource `gorm:"type:varchar(20);not null" json:"source"`
	FinalizedAt  *time.Time  `json:"finalizedAt"`
	IsArchived   bool        `gorm:"not null;default:false;index" json:"isArchived"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`

	Items   []OrderItem         `gorm:"foreignKey:OrderID" json:"items"`
	History []OrderHistoryEntry `gorm:"foreignKey:OrderID" json:"history"`
}

// OrderItem keeps the name and price the product had when the order was
// placed; later catalog edits never reach it.
type OrderItem struct {
	ID                   uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OrderID              string          `gorm:"type:varchar(64);index;not null" json:"orderId"`
	Position             int             `gorm:"not null" json:"position"`
	ProductID            *uuid.UUID      `gorm:"type:uuid" json:"productId"`
	Name                 string          `gorm:"not null" json:"name"`
	Price                decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity             int             `gorm:"not null" json:"quantity"`
	Status               ItemStatus      `gorm:"type:varchar(20);not null" json:"status"`
	RequiresPreparation  bool            `json:"requiresPreparation"`
	AssignedEmployeeID   *uuid.UUID      `gorm:"type:uuid" json:"assignedEmployeeId"`
	AssignedEmployeeName string          `json:"assignedEmployeeName"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderHistoryEntry struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	OrderID      string    `gorm:"type:varchar(64);index;not null" json:"-"`
	Message      string    `gorm:"not null" json:"message"`
	EmployeeName string    `json:"employeeName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// AppendHistory adds an entry to the order's log and returns it so the
// caller can persist it.
func (o *Order) AppendHistory(message, employeeName string, at time.Time) *OrderHistoryEntry {
	o.History = append(o.History, OrderHistoryEntry{
		OrderID:      o.ID,
		Message:      message,
		EmployeeName: employeeName,
		CreatedAt:    at,
	})
	return &o.History[len(o.History)-1]
}

// DeriveOrderStatus returns the status implied by the items, or false when
// the items imply no change.
func DeriveOrderStatus(items []OrderItem) (OrderStatus, bool) {
	if len(items) == 0 {
		return "", false
	}
	allFinished := true
	anyInProgress := false
	for _, item := range items {
		if !item.Status.Finished() {
			allFinished = false
		}
		if item.Status.InProgress() {
			anyInProgress = true
		}
	}
	switch {
	case allFinished:
		return OrderStatusCompleted, true
	case anyInProgress:
		return OrderStatusAccepted, true
	}
	return "", false
}

// ApplyDerivedStatus moves the order forward to the status implied by its
// items. It never moves backwards, and FinalizedAt is stamped only once.
// It reports whether the order became completed in this call.
func (o *Order) ApplyDerivedStatus(at time.Time) bool {
	next, ok := DeriveOrderStatus(o.Items)
	if !ok || next.rank() <= o.Status.rank() {
		return false
	}
	o.Status = next
	if next == OrderStatusCompleted {
		o.markFinalized(at)
		return true
	}
	return false
}

// Complete forces every item to received and the order to completed.
func (o *Order) Complete(at time.Time) {
	for i := range o.Items {
		o.Items[i].Status = ItemStatusReceived
	}
	o.Status = OrderStatusCompleted
	o.markFinalized(at)
}

func (o *Order) markFinalized(at time.Time) {
	if o.FinalizedAt == nil {
		t := at
		o.FinalizedAt = &t
	}
}
