package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AppointmentStatus string

const (
	AppointmentScheduled  AppointmentStatus = "scheduled"
	AppointmentInProgress AppointmentStatus = "inprogress"
	AppointmentCompleted  AppointmentStatus = "completed"
	AppointmentCancelled  AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentInProgress, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

func (s AppointmentStatus) Terminal() bool {
	return s == AppointmentCompleted || s == AppointmentCancelled
}

type Appointment struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID   uuid.UUID         `gorm:"type:uuid;index;not null" json:"companyId"`
	ClientID    *uuid.UUID        `gorm:"type:uuid;index" json:"clientId"`
	ClientName  string            `json:"clientName"`
	ClientPhone string            `json:"clientPhone"`
	Date        time.Time         `gorm:"index" json:"date"`
	TotalValue  decimal.Decimal   `gorm:"type:decimal(12,2);not null" json:"totalValue"`
	Status      AppointmentStatus `gorm:"type:varchar(20);not null" json:"status"`
	IsForcedFit bool              `json:"isForcedFit"`
	Notified    bool              `json:"notified"`
	Notes       string            `json:"notes"`

	Services []ScheduledService `gorm:"foreignKey:AppointmentID" json:"services"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

type ScheduledService struct {
	ID              uint            `gorm:"primaryKey" json:"-"`
	AppointmentID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"-"`
	Position        int             `gorm:"not null" json:"position"`
	ProductID       *uuid.UUID      `gorm:"type:uuid" json:"productId"`
	ServiceName     string          `gorm:"not null" json:"serviceName"`
	EmployeeID      *uuid.UUID      `gorm:"type:uuid;index" json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	StartTime       time.Time       `gorm:"index" json:"startTime"`
	DurationMinutes int             `gorm:"not null" json:"durationMinutes"`
	EndTime         time.Time       `gorm:"index" json:"endTime"`
	Price           decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

func (s ScheduledService) Overlaps(other ScheduledService) bool {
	return s.StartTime.Before(other.EndTime) && other.StartTime.Before(s.EndTime)
}

// Recalculate derives end times, the appointment date and the total value
// from the scheduled services.
func (a *Appointment) Recalculate() {
	total := decimal.Zero
	var first time.Time
	for i := range a.Services {
		s := &a.Services[i]
		s.Position = i
		s.EndTime = s.StartTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
		total = total.Add(s.Price)
		if first.IsZero() || s.StartTime.Before(first) {
			first = s.StartTime
		}
	}
	a.TotalValue = total
	if !first.IsZero() {
		y, m, d := first.Date()
		a.Date = time.Date(y, m, d, 0, 0, 0, 0, first.Location())
	}
}

// StartsAt returns the start of the earliest scheduled service.
func (a *Appointment) StartsAt() time.Time {
	var first time.Time
	for _, s := range a.Services {
		if first.IsZero() || s.StartTime.Before(first) {
			first = s.StartTime
		}
	}
	return first
}

// AppointmentOrderPrefix is reserved for orders bridged from appointments.
const AppointmentOrderPrefix = "app-ord-"

func AppointmentOrderID(appointmentID uuid.UUID) string {
	return AppointmentOrderPrefix + appointmentID.String()
}
