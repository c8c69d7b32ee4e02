package models

import "gorm.io/gorm"

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Company{},
		&User{},
		&Client{},
		&Product{},
		&StockMovement{},
		&Order{},
		&OrderItem{},
		&OrderHistoryEntry{},
		&Tab{},
		&TabHistoryItem{},
		&Appointment{},
		&ScheduledService{},
		&ReminderTemplate{},
		&ReminderLog{},
	)
}
