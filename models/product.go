package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductKind string

const (
	ProductKindProduct ProductKind = "product"
	ProductKindService ProductKind = "service"
)

// Product is a catalog entry. Stock is nil for items that do not track
// inventory and is only ever written through the stock ledger.
type Product struct {
	ID                  uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID           uuid.UUID       `gorm:"type:uuid;index;not null" json:"companyId"`
	Name                string          `gorm:"not null" json:"name"`
	Description         string          `json:"description"`
	Category            string          `gorm:"default:'General'" json:"category"`
	Kind                ProductKind     `gorm:"type:varchar(20);not null;default:'product'" json:"kind"`
	Price               decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock               *int            `json:"stock"`
	MinStock            int             `gorm:"default:0" json:"minStock"`
	RequiresPreparation bool            `gorm:"default:false" json:"requiresPreparation"`
	DurationMinutes     int             `json:"durationMinutes"`
	IsActive            bool            `gorm:"default:true" json:"isActive"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

func (p *Product) TracksStock() bool {
	return p.Kind != ProductKindService
}

type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

// StockMovement is an immutable ledger entry. Rows are inserted once per
// adjustment and never updated or deleted.
type StockMovement struct {
	ID          uuid.UUID    `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID   uuid.UUID    `gorm:"type:uuid;index;not null" json:"companyId"`
	ProductID   uuid.UUID    `gorm:"type:uuid;index;not null" json:"productId"`
	ProductName string       `gorm:"not null" json:"productName"`
	Type        MovementType `gorm:"type:varchar(3);not null" json:"type"`
	Quantity    int          `gorm:"not null" json:"quantity"`
	Reason      string       `gorm:"not null" json:"reason"`
	CreatedAt   time.Time    `gorm:"index" json:"createdAt"`
}

func (m *StockMovement) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// Delta returns the signed stock change this movement represents.
func (m StockMovement) Delta() int {
	if m.Type == MovementOut {
		return -m.Quantity
	}
	return m.Quantity
}
