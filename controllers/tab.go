package controllers

import (
	"net/http"

	"bizpro-backend/models"
	"bizpro-backend/services"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type TabEntryInput struct {
	ProductID    *uuid.UUID      `json:"productId"`
	Name         string          `json:"name" binding:"required"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity" binding:"min=1"`
	EmployeeName string          `json:"employeeName"`
}

type AddToTabInput struct {
	Entries []TabEntryInput `json:"entries" binding:"required,min=1,dive"`
}

type TabController struct {
	tabs   *services.TabService
	logger *zap.SugaredLogger
}

func NewTabController(tabs *services.TabService, logger *zap.SugaredLogger) *TabController {
	return &TabController{tabs: tabs, logger: logger}
}

func (t *TabController) GetAllTabs(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	tabs, err := t.tabs.GetAllTabs(c.Request.Context(), companyID)
	if err != nil {
		respondWithServiceError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, tabs)
}

func (t *TabController) GetTab(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	tab, err := t.tabs.GetTab(c.Request.Context(), companyID, models.TargetType(c.Param("type")), c.Param("number"))
	if err != nil {
		respondWithServiceError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, tab)
}

// AddToTabHistory puts manual charges on a tab.
func (t *TabController) AddToTabHistory(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var input AddToTabInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	entries := make([]services.TabEntry, 0, len(input.Entries))
	for _, e := range input.Entries {
		entries = append(entries, services.TabEntry{
			ProductID:    e.ProductID,
			Name:         e.Name,
			Price:        e.Price,
			Quantity:     e.Quantity,
			EmployeeName: e.EmployeeName,
		})
	}

	tab, err := t.tabs.AddToTabHistory(c.Request.Context(), companyID, models.TargetType(c.Param("type")), c.Param("number"), entries)
	if err != nil {
		respondWithServiceError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusCreated, tab)
}

func (t *TabController) ClearTab(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	if err := t.tabs.ClearTab(c.Request.Context(), companyID, models.TargetType(c.Param("type")), c.Param("number")); err != nil {
		respondWithServiceError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tab cleared successfully"})
}

// CloseTab archives the point's orders, clears the tab and returns the bill.
func (t *TabController) CloseTab(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	bill, err := t.tabs.CloseTab(c.Request.Context(), companyID, models.TargetType(c.Param("type")), c.Param("number"))
	if err != nil {
		respondWithServiceError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, bill)
}

func (t *TabController) ClearAllMonitorData(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	result, err := t.tabs.ClearAllMonitorData(c.Request.Context(), companyID)
	if err != nil {
		respondWithServiceError(c, t.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
