package controllers

import (
	"net/http"
	"strconv"

	"bizpro-backend/models"
	"bizpro-backend/services"
	"bizpro-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type OrderItemInput struct {
	ProductID           *uuid.UUID        `json:"productId"`
	Name                string            `json:"name"`
	Price               decimal.Decimal   `json:"price"`
	Quantity            int               `json:"quantity" binding:"min=1"`
	Status              models.ItemStatus `json:"status"`
	RequiresPreparation bool              `json:"requiresPreparation"`
}

type CreateOrderInput struct {
	ID           string             `json:"id"` // optional, generated when empty; ignored on the public route
	TargetType   models.TargetType  `json:"targetType" binding:"required,oneof=table room appointment"`
	TargetNumber string             `json:"targetNumber" binding:"required"`
	CustomerName string             `json:"customerName"`
	Status       models.OrderStatus `json:"status"`
	Items        []OrderItemInput   `json:"items" binding:"required,min=1,dive"`
}

type UpdateItemStatusInput struct {
	Status       models.ItemStatus `json:"status" binding:"required"`
	EmployeeID   *uuid.UUID        `json:"employeeId"`
	EmployeeName string            `json:"employeeName"`
}

type ArchiveOrdersInput struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

type OrderController struct {
	orders *services.OrderService
	logger *zap.SugaredLogger
}

func NewOrderController(orders *services.OrderService, logger *zap.SugaredLogger) *OrderController {
	return &OrderController{orders: orders, logger: logger}
}

func (o *OrderController) CreateOrder(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	userID, ok := userIDFromContext(c)
	if !ok {
		return
	}

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	order := input.toOrder(models.OrderSourceInternal)
	order.UserID = &userID

	created, err := o.orders.CreateOrder(c.Request.Context(), companyID, order)
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetOrders lists active orders. Supports ?status=, ?targetType=,
// ?targetNumber=, ?includeArchived=true and ?limit=.
func (o *OrderController) GetOrders(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	filter := services.OrderFilter{
		Status:          models.OrderStatus(c.Query("status")),
		TargetType:      models.TargetType(c.Query("targetType")),
		TargetNumber:    c.Query("targetNumber"),
		IncludeArchived: c.Query("includeArchived") == "true",
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	orders, err := o.orders.GetOrders(c.Request.Context(), companyID, filter)
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (o *OrderController) GetOrder(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	order, err := o.orders.GetOrder(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (o *OrderController) UpdateOrderItemStatus(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid item index")
		return
	}

	var input UpdateItemStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var employee *services.Employee
	if input.EmployeeID != nil || input.EmployeeName != "" {
		employee = &services.Employee{ID: input.EmployeeID, Name: input.EmployeeName}
	}

	order, err := o.orders.UpdateOrderItemStatus(c.Request.Context(), companyID, c.Param("id"), index, input.Status, employee)
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (o *OrderController) ConfirmOrderReceipt(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	order, err := o.orders.ConfirmOrderReceipt(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (o *OrderController) ArchiveOrder(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	if err := o.orders.ArchiveOrder(c.Request.Context(), companyID, c.Param("id")); err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Order archived successfully"})
}

func (o *OrderController) ArchiveOrders(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var input ArchiveOrdersInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	archived, err := o.orders.ArchiveOrders(c.Request.Context(), companyID, input.IDs)
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

// PublicCreateOrder takes an order placed by a customer from the public
// menu. Names and prices always come from the catalog.
func (o *OrderController) PublicCreateOrder(c *gin.Context) {
	companyID, ok := uuidParam(c, "companyId", "company")
	if !ok {
		return
	}

	var input CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	for _, item := range input.Items {
		if item.ProductID == nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Every item needs a productId")
			return
		}
	}

	order := input.toOrder(models.OrderSourcePublic)
	order.ID = ""
	order.Status = models.OrderStatusPending
	for i := range order.Items {
		order.Items[i].Status = models.ItemStatusPending
	}

	created, err := o.orders.CreateOrder(c.Request.Context(), companyID, order)
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (o *OrderController) PublicGetOrder(c *gin.Context) {
	companyID, ok := uuidParam(c, "companyId", "company")
	if !ok {
		return
	}

	order, err := o.orders.GetOrder(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (o *OrderController) PublicConfirmOrderReceipt(c *gin.Context) {
	companyID, ok := uuidParam(c, "companyId", "company")
	if !ok {
		return
	}

	order, err := o.orders.ConfirmOrderReceipt(c.Request.Context(), companyID, c.Param("id"))
	if err != nil {
		respondWithServiceError(c, o.logger, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

func (in CreateOrderInput) toOrder(source models.OrderSource) *models.Order {
	order := &models.Order{
		ID:           in.ID,
		TargetType:   in.TargetType,
		TargetNumber: in.TargetNumber,
		CustomerName: in.CustomerName,
		Status:       in.Status,
		Source:       source,
	}
	for _, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:           item.ProductID,
			Name:                item.Name,
			Price:               item.Price,
			Quantity:            item.Quantity,
			Status:              item.Status,
			RequiresPreparation: item.RequiresPreparation,
		})
	}
	return order
}
