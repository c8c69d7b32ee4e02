package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTabID(t *testing.T) {
	company := uuid.MustParse("7c1e4a52-0c1b-4c34-a6a2-3a0f9d7b2e10")

	assert.Equal(t, "7c1e4a52-0c1b-4c34-a6a2-3a0f9d7b2e10:table:12", TabID(&company, TargetTable, "12"))
	assert.Equal(t, "none:room:3", TabID(nil, TargetRoom, "3"))
}

func TestTabHistoryItem(t *testing.T) {
	orderID := "ord-1"
	line := TabHistoryItem{OrderID: &orderID, Price: decimal.RequireFromString("6.50"), Quantity: 3}

	assert.Equal(t, "19.50", line.Subtotal().StringFixed(2))
	assert.False(t, line.IsManual())
	assert.True(t, TabHistoryItem{}.IsManual())
}

func TestReminderTemplateRender(t *testing.T) {
	at := time.Date(2030, 3, 4, 14, 30, 0, 0, time.UTC)

	tpl := ReminderTemplate{Message: DefaultReminderMessage}
	assert.Equal(t,
		"Hi Maria, this is a reminder from Studio: Haircut, Coloring on 04/03 at 14:30.",
		tpl.Render("Maria", "Studio", "Haircut, Coloring", at),
	)

	custom := ReminderTemplate{Message: "[ClientName] [ClientName] [Unknown]"}
	assert.Equal(t, "Ana Ana [Unknown]", custom.Render("Ana", "", "", at))
}
