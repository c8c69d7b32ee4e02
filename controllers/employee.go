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

type AddEmployeeInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// EmployeeController exposes the employee directory. Only owners may add
// employees.
type EmployeeController struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewEmployeeController(db *gorm.DB, logger *zap.SugaredLogger) *EmployeeController {
	return &EmployeeController{db: db, logger: logger}
}

func (e *EmployeeController) GetEmployees(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var employees []models.User
	if err := e.db.Where("company_id = ? AND is_active = ?", companyID, true).Order("name").Find(&employees).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve employees")
		return
	}

	c.JSON(http.StatusOK, employees)
}

func (e *EmployeeController) AddEmployee(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var caller models.User
	if err := e.db.Where("company_id = ? AND id = ?", companyID, userID).First(&caller).Error; err != nil {
		utils.RespondWithError(c, http.StatusUnauthorized, "User not found")
		return
	}
	if caller.Role != models.RoleOwner {
		utils.RespondWithError(c, http.StatusForbidden, "Only owners can add employees")
		return
	}

	var input AddEmployeeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	phone := ""
	if input.Phone != "" {
		if !utils.ValidatePhone(input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		phone = utils.NormalizePhone(input.Phone)
	}

	var existing models.User
	if err := e.db.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		utils.RespondWithError(c, http.StatusConflict, "Email already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	employee := models.User{
		Email:     input.Email,
		Phone:     phone,
		Name:      strings.TrimSpace(input.Name),
		Password:  input.Password,
		Role:      models.RoleEmployee,
		CompanyID: companyID,
		IsActive:  true,
	}
	if err := e.db.Create(&employee).Error; err != nil {
		e.logger.Errorw("failed to add employee", "company_id", companyID, "error", err)
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to add employee")
		return
	}

	e.logger.Infow("employee added", "company_id", companyID, "employee_id", employee.ID)
	c.JSON(http.StatusCreated, employee)
}
