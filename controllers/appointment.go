package controllers

import (
	"net/http"
	"time"

	"bizpro-backend/models"
	"bizpro-backend/services"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ScheduledServiceInput struct {
	ProductID       *uuid.UUID       `json:"productId"`
	ServiceName     string           `json:"serviceName"`
	EmployeeID      *uuid.UUID       `json:"employeeId"`
	EmployeeName    string           `json:"employeeName"`
	StartTime       time.Time        `json:"startTime" binding:"required"`
	DurationMinutes int              `json:"durationMinutes" binding:"min=0"`
	Price           *decimal.Decimal `json:"price"`
}

type CreateAppointmentInput struct {
	ClientID    *uuid.UUID               `json:"clientId"`
	ClientName  string                   `json:"clientName"`
	ClientPhone string                   `json:"clientPhone"`
	Status      models.AppointmentStatus `json:"status"`
	IsForcedFit bool                     `json:"isForcedFit"`
	Notes       string                   `json:"notes"`
	Services    []ScheduledServiceInput  `json:"services" binding:"required,min=1,dive"`
}

type UpdateAppointmentStatusInput struct {
	Status models.AppointmentStatus `json:"status" binding:"required"`
}

type AppointmentController struct {
	appointments *services.AppointmentService
	logger       *zap.SugaredLogger
}

func NewAppointmentController(appointments *services.AppointmentService, logger *zap.SugaredLogger) *AppointmentController {
	return &AppointmentController{appointments: appointments, logger: logger}
}

func (a *AppointmentController) CreateAppointment(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var input CreateAppointmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.ClientPhone != "" {
		if !utils.ValidatePhone(input.ClientPhone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		input.ClientPhone = utils.NormalizePhone(input.ClientPhone)
	}

	booking := services.NewAppointment{
		ClientID:    input.ClientID,
		ClientName:  input.ClientName,
		ClientPhone: input.ClientPhone,
		Status:      input.Status,
		IsForcedFit: input.IsForcedFit,
		Notes:       input.Notes,
	}
	for _, svc := range input.Services {
		booking.Services = append(booking.Services, services.BookedService{
			ProductID:       svc.ProductID,
			ServiceName:     svc.ServiceName,
			EmployeeID:      svc.EmployeeID,
			EmployeeName:    svc.EmployeeName,
			StartTime:       svc.StartTime,
			DurationMinutes: svc.DurationMinutes,
			Price:           svc.Price,
		})
	}

	created, err := a.appointments.CreateAppointment(c.Request.Context(), companyID, booking)
	if err != nil {
		respondWithServiceError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetAppointments supports ?from= and ?to= (YYYY-MM-DD), ?status= and
// ?employeeId=.
func (a *AppointmentController) GetAppointments(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var filter services.AppointmentFilter
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid from date, expected YYYY-MM-DD")
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid to date, expected YYYY-MM-DD")
			return
		}
		filter.To = &to
	}
	filter.Status = models.AppointmentStatus(c.Query("status"))
	if raw := c.Query("employeeId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid employee ID format")
			return
		}
		filter.EmployeeID = &id
	}

	appointments, err := a.appointments.GetAppointments(c.Request.Context(), companyID, filter)
	if err != nil {
		respondWithServiceError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusOK, appointments)
}

func (a *AppointmentController) GetAppointment(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(c, "id", "appointment")
	if !ok {
		return
	}

	appt, err := a.appointments.GetAppointment(c.Request.Context(), companyID, appointmentID)
	if err != nil {
		respondWithServiceError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusOK, appt)
}

func (a *AppointmentController) UpdateAppointmentStatus(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(c, "id", "appointment")
	if !ok {
		return
	}

	var input UpdateAppointmentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	appt, order, err := a.appointments.UpdateAppointmentStatus(c.Request.Context(), companyID, appointmentID, input.Status)
	if err != nil {
		respondWithServiceError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointment": appt, "order": order})
}

func (a *AppointmentController) SendAppointmentToPDV(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(c, "id", "appointment")
	if !ok {
		return
	}

	order, err := a.appointments.SendAppointmentToPDV(c.Request.Context(), companyID, appointmentID)
	if err != nil {
		respondWithServiceError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (a *AppointmentController) DeleteAppointment(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	appointmentID, ok := uuidParam(c, "id", "appointment")
	if !ok {
		return
	}

	if err := a.appointments.DeleteAppointment(c.Request.Context(), companyID, appointmentID); err != nil {
		respondWithServiceError(c, a.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Appointment deleted successfully"})
}
