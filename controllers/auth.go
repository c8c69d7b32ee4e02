package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"bizpro-backend/models"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type RegisterInput struct {
	Email          string       `json:"email" binding:"required,email"`
	Phone          string       `json:"phone" binding:"required"`
	Name           string       `json:"name" binding:"required"`
	Password       string       `json:"password" binding:"required,min=8"`
	CompanyName    string       `json:"companyName" binding:"required"`
	CompanyAddress string       `json:"companyAddress"`
	WorkingHours   models.JSONB `json:"workingHours"`
}

type LoginInput struct {
	Identifier string `json:"identifier" binding:"required"` // Can be email or phone
	Password   string `json:"password" binding:"required"`
}

type AuthController struct {
	db     *gorm.DB
	secret string
	expiry time.Duration
	logger *zap.SugaredLogger
}

func NewAuthController(db *gorm.DB, secret string, expiry time.Duration, logger *zap.SugaredLogger) *AuthController {
	return &AuthController{db: db, secret: secret, expiry: expiry, logger: logger}
}

// Register creates a company together with its owner account.
func (a *AuthController) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}
	phone := utils.NormalizePhone(input.Phone)

	// Check if email or phone already exists
	var existingUser models.User
	result := a.db.Where("email = ? OR phone = ?", input.Email, phone).First(&existingUser)
	if result.Error == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email or phone already registered")
		return
	} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	company := models.Company{
		Name:                  input.CompanyName,
		Address:               input.CompanyAddress,
		WorkingHours:          input.WorkingHours,
		ReminderNotifications: true,
	}
	if company.WorkingHours == nil {
		company.WorkingHours = models.DefaultWorkingHours()
	}
	user := models.User{
		Email:    input.Email,
		Phone:    phone,
		Name:     input.Name,
		Password: input.Password, // Will be hashed in BeforeCreate hook
		Role:     models.RoleOwner,
		IsActive: true,
	}

	err := a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&company).Error; err != nil {
			return err
		}
		user.CompanyID = company.ID
		return tx.Create(&user).Error
	})
	if err != nil {
		a.logger.Errorw("failed to register company", "email", input.Email, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	token, ok := a.issueToken(c, &user)
	if !ok {
		return
	}

	a.logger.Infow("company registered", "company_id", company.ID, "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"token":   token,
		"user":    userResponse(&user, &company),
	})
}

func (a *AuthController) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input")
		return
	}

	identifier := strings.TrimSpace(input.Identifier)

	var user models.User
	result := a.db.Where("email = ? OR phone = ?", identifier, utils.NormalizePhone(identifier)).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !user.IsActive || !utils.CheckPasswordHash(input.Password, user.Password) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	var company models.Company
	if err := a.db.First(&company, "id = ?", user.CompanyID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	token, ok := a.issueToken(c, &user)
	if !ok {
		return
	}

	now := time.Now()
	a.db.Model(&user).Update("last_login", &now)

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userResponse(&user, &company),
	})
}

func (a *AuthController) Me(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var user models.User
	if err := a.db.First(&user, "id = ?", userID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	var company models.Company
	if err := a.db.First(&company, "id = ?", user.CompanyID).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "Company not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(&user, &company)})
}

func (a *AuthController) issueToken(c *gin.Context, user *models.User) (string, bool) {
	token, err := utils.GenerateToken(user.ID.String(), user.CompanyID.String(), a.secret, a.expiry)
	if err != nil {
		a.logger.Errorw("failed to generate token", "user_id", user.ID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to generate token")
		return "", false
	}

	c.SetCookie("token", token, int(a.expiry.Seconds()), "/", "", true, true)
	return token, true
}

func userResponse(user *models.User, company *models.Company) gin.H {
	return gin.H{
		"id":          user.ID,
		"email":       user.Email,
		"phone":       user.Phone,
		"name":        user.Name,
		"role":        user.Role,
		"companyId":   company.ID,
		"companyName": company.Name,
	}
}
