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

type CreateClientInput struct {
	Name  string  `json:"name" binding:"required"`
	Phone string  `json:"phone" binding:"required"`
	Email *string `json:"email"` // Pointer to allow null
	Notes string  `json:"notes"`
}

type UpdateClientInput struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Email    *string `json:"email"`
	Notes    *string `json:"notes"`
	IsActive *bool   `json:"isActive"`
}

// ClientController manages the company's client directory.
type ClientController struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewClientController(db *gorm.DB, logger *zap.SugaredLogger) *ClientController {
	return &ClientController{db: db, logger: logger}
}

func (cc *ClientController) CreateClient(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	phone := utils.NormalizePhone(input.Phone)

	// Check if phone already exists for this company
	if taken, err := cc.phoneTaken(companyID.String(), phone); err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	} else if taken {
		utils.RespondWithError(c, http.StatusConflict, "Client with this phone number already exists")
		return
	}

	client := models.Client{
		CompanyID:       companyID,
		CreatedByUserID: userID,
		Name:            strings.TrimSpace(input.Name),
		Phone:           phone,
		Notes:           input.Notes,
		IsActive:        true,
	}
	if input.Email != nil {
		client.Email = *input.Email
	}

	if err := cc.db.Create(&client).Error; err != nil {
		cc.logger.Errorw("failed to create client", "company_id", companyID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		return
	}

	c.JSON(http.StatusCreated, client)
}

func (cc *ClientController) GetClients(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	query := cc.db.Where("company_id = ?", companyID)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR phone LIKE ?", like, like)
	}

	var clients []models.Client
	if err := query.Order("name").Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

func (cc *ClientController) GetClient(c *gin.Context) {
	client, ok := cc.loadClient(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, client)
}

func (cc *ClientController) UpdateClient(c *gin.Context) {
	client, ok := cc.loadClient(c)
	if !ok {
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		client.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		if !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		phone := utils.NormalizePhone(*input.Phone)
		if client.Phone != phone {
			if taken, err := cc.phoneTaken(client.CompanyID.String(), phone); err != nil {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
				return
			} else if taken {
				utils.RespondWithError(c, http.StatusConflict, "Another client with this phone number already exists")
				return
			}
		}
		client.Phone = phone
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Notes != nil {
		client.Notes = *input.Notes
	}
	if input.IsActive != nil {
		client.IsActive = *input.IsActive
	}

	if err := cc.db.Save(client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient soft deletes a client
func (cc *ClientController) DeleteClient(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := uuidParam(c, "id", "client")
	if !ok {
		return
	}

	result := cc.db.Where("company_id = ? AND id = ?", companyID, clientID).Delete(&models.Client{})
	if result.Error != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Client deleted successfully"})
}

func (cc *ClientController) loadClient(c *gin.Context) (*models.Client, bool) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return nil, false
	}
	clientID, ok := uuidParam(c, "id", "client")
	if !ok {
		return nil, false
	}

	var client models.Client
	if err := cc.db.Where("company_id = ? AND id = ?", companyID, clientID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return nil, false
	}
	return &client, true
}

func (cc *ClientController) phoneTaken(companyID, phone string) (bool, error) {
	var count int64
	err := cc.db.Model(&models.Client{}).Where("company_id = ? AND phone = ?", companyID, phone).Count(&count).Error
	return count > 0, err
}
