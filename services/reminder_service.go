// services/reminder_service.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizpro-backend/models"
	"bizpro-backend/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	ChannelSMS      = "sms"
	ChannelWhatsApp = "whatsapp"

	reminderSent   = "sent"
	reminderFailed = "failed"
)

// MessageSender delivers a text message and returns the provider's id.
type MessageSender interface {
	Send(ctx context.Context, channel, to, body string) (string, error)
}

type TwilioSender struct {
	client         *twilio.RestClient
	phoneNumber    string
	whatsAppNumber string
}

func NewTwilioSender(accountSID, authToken, phoneNumber, whatsAppNumber string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		phoneNumber:    phoneNumber,
		whatsAppNumber: whatsAppNumber,
	}
}

func (t *TwilioSender) Send(_ context.Context, channel, to, body string) (string, error) {
	params := &twilioApi.CreateMessageParams{}
	params.SetBody(body)
	if channel == ChannelWhatsApp {
		params.SetTo("whatsapp:" + to)
		params.SetFrom("whatsapp:" + t.whatsAppNumber)
	} else {
		params.SetTo(to)
		params.SetFrom(t.phoneNumber)
	}

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// ReminderService texts clients ahead of their scheduled appointments.
type ReminderService struct {
	db     *gorm.DB
	sender MessageSender
	logger *zap.SugaredLogger
	lead   time.Duration
	now    func() time.Time
	cron   *cron.Cron
}

func NewReminderService(db *gorm.DB, sender MessageSender, lead time.Duration, logger *zap.SugaredLogger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ReminderService{
		db:     db,
		sender: sender,
		logger: logger,
		lead:   lead,
		now:    time.Now,
	}
}

// StartScheduler runs SendUpcomingReminders on the given cron schedule until
// Stop is called.
func (s *ReminderService) StartScheduler(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.SendUpcomingReminders(context.Background()); err != nil {
			s.logger.Errorw("reminder run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", schedule, err)
	}

	c.Start()
	s.cron = c
	s.logger.Infow("reminder scheduler started", "schedule", schedule, "lead", s.lead)
	return nil
}

func (s *ReminderService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.logger.Infow("reminder scheduler stopped")
}

// SendUpcomingReminders notifies every client whose scheduled appointment
// starts within the lead window and returns how many messages went out.
// Failed sends are logged and retried on the next run.
func (s *ReminderService) SendUpcomingReminders(ctx context.Context) (int, error) {
	return s.sendReminders(ctx, nil)
}

// SendCompanyReminders is SendUpcomingReminders restricted to one company.
func (s *ReminderService) SendCompanyReminders(ctx context.Context, companyID uuid.UUID) (int, error) {
	return s.sendReminders(ctx, &companyID)
}

func (s *ReminderService) sendReminders(ctx context.Context, companyID *uuid.UUID) (int, error) {
	now := s.now()
	until := now.Add(s.lead)

	query := s.db.WithContext(ctx).
		Preload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("status = ? AND notified = ? AND client_phone <> ''", models.AppointmentScheduled, false).
		Where("date <= ?", until)
	if companyID != nil {
		query = query.Where("company_id = ?", *companyID)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return 0, err
	}

	companies := make(map[uuid.UUID]*models.Company)
	sent := 0
	for i := range appointments {
		appt := &appointments[i]
		startsAt := appt.StartsAt()
		if startsAt.Before(now) || startsAt.After(until) {
			continue
		}

		company, ok := companies[appt.CompanyID]
		if !ok {
			company = &models.Company{}
			if err := s.db.WithContext(ctx).First(company, "id = ?", appt.CompanyID).Error; err != nil {
				s.logger.Errorw("failed to load company for reminder", "company_id", appt.CompanyID, "error", err)
				company = nil
			}
			companies[appt.CompanyID] = company
		}
		if company == nil || !company.ReminderNotifications {
			continue
		}

		if s.remind(ctx, company, appt, startsAt) {
			sent++
		}
	}

	s.logger.Infow("reminder run completed", "candidates", len(appointments), "sent", sent)
	return sent, nil
}

func (s *ReminderService) GetReminderLogs(ctx context.Context, companyID uuid.UUID, appointmentID *uuid.UUID) ([]models.ReminderLog, error) {
	query := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if appointmentID != nil {
		query = query.Where("appointment_id = ?", *appointmentID)
	}

	var logs []models.ReminderLog
	if err := query.Order("sent_at DESC").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *ReminderService) remind(ctx context.Context, company *models.Company, appt *models.Appointment, startsAt time.Time) bool {
	phone := utils.NormalizePhone(appt.ClientPhone)
	channel := ChannelSMS
	if company.WhatsAppNotifications && strings.HasPrefix(phone, "+") {
		channel = ChannelWhatsApp
	}
	message := s.reminderMessage(ctx, company, appt, startsAt)

	status := reminderSent
	errorMsg := ""
	sid, err := s.sender.Send(ctx, channel, phone, message)
	if err != nil {
		status = reminderFailed
		errorMsg = err.Error()
		s.logger.Errorw("failed to send reminder", "appointment_id", appt.ID, "channel", channel, "error", err)
	} else {
		s.logger.Infow("reminder sent", "appointment_id", appt.ID, "channel", channel, "sid", sid)
	}

	reminderLog := models.ReminderLog{
		CompanyID:     company.ID,
		AppointmentID: appt.ID,
		ClientID:      appt.ClientID,
		Message:       message,
		Status:        status,
		ErrorMessage:  errorMsg,
		Channel:       channel,
		SentAt:        s.now(),
	}
	if err := s.db.WithContext(ctx).Create(&reminderLog).Error; err != nil {
		s.logger.Errorw("failed to log reminder", "appointment_id", appt.ID, "error", err)
	}

	if status != reminderSent {
		return false
	}
	if err := s.db.WithContext(ctx).Model(&models.Appointment{}).Where("id = ?", appt.ID).Update("notified", true).Error; err != nil {
		s.logger.Errorw("failed to mark appointment notified", "appointment_id", appt.ID, "error", err)
	}
	return true
}

// reminderMessage renders the company's active template, falling back to
// the default text.
func (s *ReminderService) reminderMessage(ctx context.Context, company *models.Company, appt *models.Appointment, startsAt time.Time) string {
	template := models.ReminderTemplate{Message: models.DefaultReminderMessage}
	var custom models.ReminderTemplate
	err := s.db.WithContext(ctx).Where("company_id = ? AND is_active = ?", company.ID, true).First(&custom).Error
	if err == nil {
		template = custom
	}

	names := make([]string, 0, len(appt.Services))
	for _, svc := range appt.Services {
		names = append(names, svc.ServiceName)
	}
	return template.Render(appt.ClientName, company.Name, strings.Join(names, ", "), startsAt)
}
