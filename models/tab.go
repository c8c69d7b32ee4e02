package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TabStatus string

const (
	TabStatusAvailable TabStatus = "available"
	TabStatusOccupied  TabStatus = "occupied"

	// TabStatusReadyToPay only appears in projections, never in storage.
	TabStatusReadyToPay TabStatus = "ready_to_pay"
)

// Tab is the cached bill of one service point.
type Tab struct {
	ID        string     `gorm:"type:varchar(160);primary_key" json:"id"`
	CompanyID *uuid.UUID `gorm:"type:uuid;index" json:"companyId"`
	Type      TargetType `gorm:"type:varchar(20);not null" json:"type"`
	Number    string     `gorm:"type:varchar(64);not null" json:"number"`
	Status    TabStatus  `gorm:"type:varchar(20);not null" json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`

	History []TabHistoryItem `gorm:"foreignKey:TabID" json:"history"`
}

// TabHistoryItem is one line on a tab. Lines copied from an order carry the
// order id and item index; lines without an order are manual charges.
type TabHistoryItem struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	TabID        string          `gorm:"type:varchar(160);index;not null" json:"-"`
	OrderID      *string         `gorm:"type:varchar(64);index" json:"orderId,omitempty"`
	ItemIndex    *int            `json:"itemIndex,omitempty"`
	ProductID    *uuid.UUID      `gorm:"type:uuid" json:"productId,omitempty"`
	Name         string          `gorm:"not null" json:"name"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	Status       ItemStatus      `gorm:"type:varchar(20)" json:"status,omitempty"`
	EmployeeName string          `json:"employeeName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

func (h TabHistoryItem) Subtotal() decimal.Decimal {
	return h.Price.Mul(decimal.NewFromInt(int64(h.Quantity)))
}

func (h TabHistoryItem) IsManual() bool {
	return h.OrderID == nil
}

// TabID builds the composite key of a service point within a company.
func TabID(companyID *uuid.UUID, targetType TargetType, number string) string {
	owner := "none"
	if companyID != nil {
		owner = companyID.String()
	}
	return fmt.Sprintf("%s:%s:%s", owner, targetType, number)
}
