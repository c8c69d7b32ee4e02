package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReminderLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"companyId"`
	AppointmentID uuid.UUID  `gorm:"type:uuid;index;not null" json:"appointmentId"`
	ClientID      *uuid.UUID `gorm:"type:uuid;index" json:"clientId"`
	Message       string     `gorm:"type:text" json:"message"`
	Status        string     `gorm:"type:varchar(20)" json:"status"` // sent, failed
	ErrorMessage  string     `gorm:"type:text" json:"errorMessage"`
	Channel       string     `gorm:"type:varchar(20)" json:"channel"` // whatsapp, sms
	SentAt        time.Time  `json:"sentAt"`
}

func (r *ReminderLog) BeforeCreate(tx *gorm.DB) (err error) {
	r.ID = uuid.New()
	return
}
