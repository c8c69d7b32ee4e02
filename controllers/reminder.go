// controllers/reminder.go
package controllers

import (
	"net/http"

	"bizpro-backend/services"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReminderController struct {
	reminders *services.ReminderService
	logger    *zap.SugaredLogger
}

func NewReminderController(reminders *services.ReminderService, logger *zap.SugaredLogger) *ReminderController {
	return &ReminderController{reminders: reminders, logger: logger}
}

// GetReminderLogs lists sent and failed reminders, optionally for one
// appointment (?appointmentId=).
func (r *ReminderController) GetReminderLogs(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var appointmentID *uuid.UUID
	if raw := c.Query("appointmentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid appointment ID format")
			return
		}
		appointmentID = &id
	}

	logs, err := r.reminders.GetReminderLogs(c.Request.Context(), companyID, appointmentID)
	if err != nil {
		respondWithServiceError(c, r.logger, err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

// SendReminders runs the reminder job now for the caller's company.
func (r *ReminderController) SendReminders(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	sent, err := r.reminders.SendCompanyReminders(c.Request.Context(), companyID)
	if err != nil {
		respondWithServiceError(c, r.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sent": sent})
}
