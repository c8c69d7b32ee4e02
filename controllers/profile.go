package controllers

import (
	"errors"
	"net/http"
	"strings"

	"bizpro-backend/models"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UpdateProfileInput struct {
	CompanyName    *string `json:"companyName"`
	CompanyAddress *string `json:"companyAddress"`
}

type UpdateWorkingHoursInput struct {
	WorkingHours models.JSONB `json:"workingHours" binding:"required"`
}

type UpdateNotificationsInput struct {
	ReminderNotifications *bool `json:"reminderNotifications"`
	WhatsAppNotifications *bool `json:"whatsAppNotifications"`
}

type UpdateReminderTemplateInput struct {
	Message  *string `json:"message"`
	IsActive *bool   `json:"isActive"`
}

// ProfileController manages the settings of the caller's company.
type ProfileController struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewProfileController(db *gorm.DB, logger *zap.SugaredLogger) *ProfileController {
	return &ProfileController{db: db, logger: logger}
}

func (p *ProfileController) GetProfile(c *gin.Context) {
	company, ok := p.loadCompany(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, company)
}

func (p *ProfileController) UpdateCompanyProfile(c *gin.Context) {
	company, ok := p.loadCompany(c)
	if !ok {
		return
	}

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	updates := map[string]interface{}{}
	if input.CompanyName != nil {
		if *input.CompanyName == "" {
			utils.RespondWithError(c, http.StatusBadRequest, "Company name cannot be empty")
			return
		}
		updates["name"] = *input.CompanyName
	}
	if input.CompanyAddress != nil {
		updates["address"] = *input.CompanyAddress
	}
	p.applyUpdates(c, company, updates, "Profile updated")
}

func (p *ProfileController) UpdateWorkingHours(c *gin.Context) {
	company, ok := p.loadCompany(c)
	if !ok {
		return
	}

	var input UpdateWorkingHoursInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	p.applyUpdates(c, company, map[string]interface{}{"working_hours": input.WorkingHours}, "Working hours updated")
}

func (p *ProfileController) UpdateNotificationSettings(c *gin.Context) {
	company, ok := p.loadCompany(c)
	if !ok {
		return
	}

	var input UpdateNotificationsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	updates := map[string]interface{}{}
	if input.ReminderNotifications != nil {
		updates["reminder_notifications"] = *input.ReminderNotifications
	}
	if input.WhatsAppNotifications != nil {
		updates["whats_app_notifications"] = *input.WhatsAppNotifications
	}
	p.applyUpdates(c, company, updates, "Notification settings updated")
}

func (p *ProfileController) loadCompany(c *gin.Context) (*models.Company, bool) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return nil, false
	}

	var company models.Company
	if err := p.db.First(&company, "id = ?", companyID).Error; err != nil {
		utils.RespondWithError(c, http.StatusNotFound, "Company not found")
		return nil, false
	}
	return &company, true
}

func (p *ProfileController) applyUpdates(c *gin.Context, company *models.Company, updates map[string]interface{}, message string) {
	if len(updates) > 0 {
		if err := p.db.Model(company).Updates(updates).Error; err != nil {
			p.logger.Errorw("failed to update company", "company_id", company.ID, "error", err)
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update profile")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// GetReminderTemplate returns the company's reminder text, or the default
// one when none was saved.
func (p *ProfileController) GetReminderTemplate(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var template models.ReminderTemplate
	err := p.db.Where("company_id = ?", companyID).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, models.ReminderTemplate{CompanyID: companyID, Message: models.DefaultReminderMessage, IsActive: true})
		return
	} else if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to fetch reminder template")
		return
	}

	c.JSON(http.StatusOK, template)
}

func (p *ProfileController) UpdateReminderTemplate(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var input UpdateReminderTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}
	if input.Message != nil && strings.TrimSpace(*input.Message) == "" {
		utils.RespondWithError(c, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	var template models.ReminderTemplate
	err := p.db.Where("company_id = ?", companyID).First(&template).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		template = models.ReminderTemplate{CompanyID: companyID, Message: models.DefaultReminderMessage, IsActive: true}
	} else if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	if input.Message != nil {
		template.Message = *input.Message
	}
	if input.IsActive != nil {
		template.IsActive = *input.IsActive
	}

	if err := p.db.Save(&template).Error; err != nil {
		p.logger.Errorw("failed to save reminder template", "company_id", companyID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update reminder template")
		return
	}

	c.JSON(http.StatusOK, template)
}
