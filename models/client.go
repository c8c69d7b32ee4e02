package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Client struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_company_phone,priority:1" json:"companyId"`
	CreatedByUserID uuid.UUID `gorm:"type:uuid;index" json:"createdByUserId"`

	Name     string `gorm:"not null" json:"name"`
	Phone    string `gorm:"not null;uniqueIndex:idx_company_phone,priority:2" json:"phone"`
	Email    string `json:"email"`
	Notes    string `json:"notes"`
	IsActive bool   `gorm:"default:true" json:"isActive"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
