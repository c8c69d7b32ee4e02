package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const historyAppointmentBridged = "created from appointment"

// AppointmentService schedules services for clients and hands completed
// appointments over to the point of sale as orders.
type AppointmentService struct {
	base
}

func NewAppointmentService(db *gorm.DB, locker Locker, events Publisher, logger *zap.SugaredLogger) *AppointmentService {
	return &AppointmentService{base: newBase(db, locker, events, logger)}
}

type AppointmentFilter struct {
	From       *time.Time
	To         *time.Time
	Status     models.AppointmentStatus
	EmployeeID *uuid.UUID
}

// BookedService is one service requested for an appointment. Name and
// duration default to the catalog entry of ProductID; a nil Price takes the
// catalog price, while an explicit zero books the service for free.
type BookedService struct {
	ProductID       *uuid.UUID
	ServiceName     string
	EmployeeID      *uuid.UUID
	EmployeeName    string
	StartTime       time.Time
	DurationMinutes int
	Price           *decimal.Decimal
}

type NewAppointment struct {
	ClientID    *uuid.UUID
	ClientName  string
	ClientPhone string
	Status      models.AppointmentStatus
	IsForcedFit bool
	Notes       string
	Services    []BookedService
}

// CreateAppointment books the appointment. An appointment booked as
// completed is sent to the point of sale in the same transaction.
func (s *AppointmentService) CreateAppointment(ctx context.Context, companyID uuid.UUID, input NewAppointment) (*models.Appointment, error) {
	if len(input.Services) == 0 {
		return nil, invalid("appointment has no services")
	}
	status := input.Status
	if status == "" {
		status = models.AppointmentScheduled
	}
	if !status.Valid() {
		return nil, invalid("unknown appointment status %q", status)
	}
	if status == models.AppointmentCancelled {
		return nil, invalid("an appointment cannot be booked as cancelled")
	}

	appt := &models.Appointment{
		ClientID:    input.ClientID,
		ClientName:  input.ClientName,
		ClientPhone: input.ClientPhone,
		Status:      status,
		IsForcedFit: input.IsForcedFit,
		Notes:       input.Notes,
	}
	var order *models.Order
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		if err := resolveAppointment(tx, companyID, appt, input.Services); err != nil {
			return err
		}
		appt.Recalculate()

		if !appt.IsForcedFit {
			if err := checkScheduleConflicts(tx, companyID, appt); err != nil {
				return err
			}
		}

		appt.CompanyID = companyID
		if err := tx.Create(appt).Error; err != nil {
			return err
		}
		if appt.Status == models.AppointmentCompleted {
			var err error
			order, err = sendAppointmentToPDVTx(tx, companyID, appt, time.Now())
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("appointment created",
		"company_id", companyID,
		"appointment_id", appt.ID,
		"starts_at", appt.StartsAt(),
		"services", len(appt.Services),
		"forced_fit", appt.IsForcedFit,
	)
	if order != nil {
		s.publish(ctx, orderEvents(order, EventOrderCreated)...)
	}
	return appt, nil
}

// resolveAppointment snapshots client, service and employee data from the
// company directories and validates each scheduled service.
func resolveAppointment(tx *gorm.DB, companyID uuid.UUID, appt *models.Appointment, booked []BookedService) error {
	if appt.ClientID != nil {
		var client models.Client
		if err := tx.Where("company_id = ? AND id = ?", companyID, *appt.ClientID).First(&client).Error; err != nil {
			return notFound(err, "client", *appt.ClientID)
		}
		appt.ClientName = client.Name
		appt.ClientPhone = client.Phone
	}
	appt.ClientName = strings.TrimSpace(appt.ClientName)
	if appt.ClientName == "" {
		return invalid("client name is required")
	}

	appt.Services = make([]models.ScheduledService, 0, len(booked))
	for i, b := range booked {
		svc := models.ScheduledService{
			ProductID:       b.ProductID,
			ServiceName:     b.ServiceName,
			EmployeeID:      b.EmployeeID,
			EmployeeName:    b.EmployeeName,
			StartTime:       b.StartTime,
			DurationMinutes: b.DurationMinutes,
		}
		if b.Price != nil {
			svc.Price = *b.Price
		}

		if b.ProductID != nil {
			var product models.Product
			if err := tx.Where("company_id = ? AND id = ?", companyID, *b.ProductID).First(&product).Error; err != nil {
				return notFound(err, "service", *b.ProductID)
			}
			if strings.TrimSpace(svc.ServiceName) == "" {
				svc.ServiceName = product.Name
			}
			if svc.DurationMinutes == 0 {
				svc.DurationMinutes = product.DurationMinutes
			}
			if b.Price == nil {
				svc.Price = product.Price
			}
		}
		if b.EmployeeID != nil {
			var employee models.User
			if err := tx.Where("company_id = ? AND id = ?", companyID, *b.EmployeeID).First(&employee).Error; err != nil {
				return notFound(err, "employee", *b.EmployeeID)
			}
			svc.EmployeeName = employee.Name
		}

		svc.ServiceName = strings.TrimSpace(svc.ServiceName)
		switch {
		case svc.ServiceName == "":
			return invalid("service %d: name is required", i)
		case svc.StartTime.IsZero():
			return invalid("service %d: start time is required", i)
		case svc.DurationMinutes <= 0:
			return invalid("service %d: duration must be positive", i)
		case svc.Price.IsNegative():
			return invalid("service %d: price must not be negative", i)
		}
		appt.Services = append(appt.Services, svc)
	}
	return nil
}

// checkScheduleConflicts rejects a booking when one of its employees is
// already busy, either within the same appointment or in another live one.
func checkScheduleConflicts(tx *gorm.DB, companyID uuid.UUID, appt *models.Appointment) error {
	var employees []uuid.UUID
	for i, svc := range appt.Services {
		if svc.EmployeeID == nil {
			continue
		}
		employees = append(employees, *svc.EmployeeID)
		for _, other := range appt.Services[:i] {
			if other.EmployeeID != nil && *other.EmployeeID == *svc.EmployeeID && svc.Overlaps(other) {
				return fmt.Errorf("%s overlaps %s for %s: %w", svc.ServiceName, other.ServiceName, svc.EmployeeName, ErrScheduleConflict)
			}
		}
	}
	if len(employees) == 0 {
		return nil
	}

	var booked []models.ScheduledService
	err := tx.Model(&models.ScheduledService{}).
		Joins("JOIN appointments ON appointments.id = scheduled_services.appointment_id").
		Where("appointments.company_id = ? AND appointments.status <> ? AND appointments.deleted_at IS NULL", companyID, models.AppointmentCancelled).
		Where("appointments.id <> ?", appt.ID).
		Where("scheduled_services.employee_id IN ?", employees).
		Find(&booked).Error
	if err != nil {
		return err
	}

	for _, svc := range appt.Services {
		if svc.EmployeeID == nil {
			continue
		}
		for _, other := range booked {
			if other.EmployeeID != nil && *other.EmployeeID == *svc.EmployeeID && svc.Overlaps(other) {
				return fmt.Errorf("%s is booked from %s to %s: %w",
					svc.EmployeeName,
					other.StartTime.Format("2006-01-02 15:04"),
					other.EndTime.Format("15:04"),
					ErrScheduleConflict,
				)
			}
		}
	}
	return nil
}

func (s *AppointmentService) GetAppointments(ctx context.Context, companyID uuid.UUID, filter AppointmentFilter) ([]models.Appointment, error) {
	query := s.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("company_id = ?", companyID)
	if filter.From != nil {
		query = query.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("date <= ?", *filter.To)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.EmployeeID != nil {
		query = query.Where("id IN (?)",
			s.db.Model(&models.ScheduledService{}).Select("appointment_id").Where("employee_id = ?", *filter.EmployeeID))
	}

	var appointments []models.Appointment
	if err := query.Order("date").Order("created_at").Find(&appointments).Error; err != nil {
		return nil, err
	}
	return appointments, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, companyID, appointmentID uuid.UUID) (*models.Appointment, error) {
	return loadAppointmentTx(s.db.WithContext(ctx), companyID, appointmentID)
}

func loadAppointmentTx(tx *gorm.DB, companyID, appointmentID uuid.UUID) (*models.Appointment, error) {
	var appt models.Appointment
	err := tx.Preload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("company_id = ? AND id = ?", companyID, appointmentID).
		First(&appt).Error
	if err != nil {
		return nil, notFound(err, "appointment", appointmentID)
	}
	return &appt, nil
}

// UpdateAppointmentStatus moves an appointment along its lifecycle. Reaching
// completed creates the point-of-sale order in the same transaction; that
// order is returned alongside the appointment.
func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, companyID, appointmentID uuid.UUID, status models.AppointmentStatus) (*models.Appointment, *models.Order, error) {
	if !status.Valid() {
		return nil, nil, invalid("unknown appointment status %q", status)
	}

	var (
		appt  *models.Appointment
		order *models.Order
	)
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var err error
		appt, err = loadAppointmentTx(tx, companyID, appointmentID)
		if err != nil {
			return err
		}
		if appt.Status == status {
			return nil
		}
		if appt.Status.Terminal() {
			return invalid("appointment is already %s", appt.Status)
		}

		appt.Status = status
		if err := tx.Model(&models.Appointment{}).Where("id = ?", appt.ID).Update("status", status).Error; err != nil {
			return err
		}
		if status == models.AppointmentCompleted {
			order, err = sendAppointmentToPDVTx(tx, companyID, appt, time.Now())
		}
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Infow("appointment status updated", "company_id", companyID, "appointment_id", appointmentID, "status", appt.Status)
	if order != nil {
		s.publish(ctx, orderEvents(order, EventOrderCreated)...)
	}
	return appt, order, nil
}

// SendAppointmentToPDV bridges a completed appointment into an order. Each
// appointment bridges at most once.
func (s *AppointmentService) SendAppointmentToPDV(ctx context.Context, companyID, appointmentID uuid.UUID) (*models.Order, error) {
	var order *models.Order
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		appt, err := loadAppointmentTx(tx, companyID, appointmentID)
		if err != nil {
			return err
		}
		if appt.Status != models.AppointmentCompleted {
			return invalid("appointment is %s, only completed appointments can be sent", appt.Status)
		}
		order, err = sendAppointmentToPDVTx(tx, companyID, appt, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("appointment sent to point of sale", "company_id", companyID, "appointment_id", appointmentID, "order_id", order.ID)
	s.publish(ctx, orderEvents(order, EventOrderCreated)...)
	return order, nil
}

func sendAppointmentToPDVTx(tx *gorm.DB, companyID uuid.UUID, appt *models.Appointment, now time.Time) (*models.Order, error) {
	order := &models.Order{
		ID:           models.AppointmentOrderID(appt.ID),
		TargetType:   models.TargetAppointment,
		TargetNumber: appt.ID.String(),
		CustomerName: appt.ClientName,
		Status:       models.OrderStatusCompleted,
		Source:       models.OrderSourceInternal,
		FinalizedAt:  &now,
	}
	for _, svc := range appt.Services {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:            svc.ProductID,
			Name:                 svc.ServiceName,
			Price:                svc.Price,
			Quantity:             1,
			Status:               models.ItemStatusDelivered,
			AssignedEmployeeID:   svc.EmployeeID,
			AssignedEmployeeName: svc.EmployeeName,
		})
	}
	order.AppendHistory(historyAppointmentBridged, "", now)

	if err := createOrderTx(tx, companyID, order, now); err != nil {
		return nil, err
	}
	return order, nil
}

// DeleteAppointment soft-deletes the appointment. Orders it produced stay.
func (s *AppointmentService) DeleteAppointment(ctx context.Context, companyID, appointmentID uuid.UUID) error {
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		appt, err := loadAppointmentTx(tx, companyID, appointmentID)
		if err != nil {
			return err
		}
		return tx.Delete(appt).Error
	})
	if err != nil {
		return err
	}

	s.logger.Infow("appointment deleted", "company_id", companyID, "appointment_id", appointmentID)
	return nil
}
