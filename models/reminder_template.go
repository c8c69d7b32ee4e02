package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Placeholders understood by ReminderTemplate.Render.
const (
	PlaceholderClientName  = "[ClientName]"
	PlaceholderCompanyName = "[CompanyName]"
	PlaceholderServices    = "[Services]"
	PlaceholderDate        = "[Date]"
	PlaceholderTime        = "[Time]"
)

const DefaultReminderMessage = "Hi [ClientName], this is a reminder from [CompanyName]: [Services] on [Date] at [Time]."

// ReminderTemplate is the company's appointment reminder text. One per
// company.
type ReminderTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	CompanyID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"companyId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *ReminderTemplate) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return
}

func (t *ReminderTemplate) Render(clientName, companyName, services string, at time.Time) string {
	return strings.NewReplacer(
		PlaceholderClientName, clientName,
		PlaceholderCompanyName, companyName,
		PlaceholderServices, services,
		PlaceholderDate, at.Format("02/01"),
		PlaceholderTime, at.Format("15:04"),
	).Replace(t.Message)
}
