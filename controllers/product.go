// controllers/product.go
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

// CreateProductInput defines the expected JSON structure for creating a product or service
type CreateProductInput struct {
	Name                string             `json:"name" binding:"required"`
	Description         string             `json:"description"`
	Category            string             `json:"category"`
	Kind                models.ProductKind `json:"kind" binding:"omitempty,oneof=product service"`
	Price               decimal.Decimal    `json:"price"`
	Stock               *int               `json:"stock"` // initial stock, booked as a movement
	MinStock            int                `json:"minStock" binding:"min=0"`
	RequiresPreparation bool               `json:"requiresPreparation"`
	DurationMinutes     int                `json:"durationMinutes" binding:"min=0"` // service items only
}

type UpdateProductInput struct {
	Name                *string          `json:"name"`
	Description         *string          `json:"description"`
	Category            *string          `json:"category"`
	Price               *decimal.Decimal `json:"price"`
	MinStock            *int             `json:"minStock"`
	RequiresPreparation *bool            `json:"requiresPreparation"`
	DurationMinutes     *int             `json:"durationMinutes"`
	IsActive            *bool            `json:"isActive"`
}

type AdjustStockInput struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type ProductController struct {
	products *services.ProductService
	stock    *services.StockService
	logger   *zap.SugaredLogger
}

func NewProductController(products *services.ProductService, stock *services.StockService, logger *zap.SugaredLogger) *ProductController {
	return &ProductController{products: products, stock: stock, logger: logger}
}

func (p *ProductController) CreateProduct(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	product, err := p.products.CreateProduct(c.Request.Context(), companyID, &models.Product{
		Name:                input.Name,
		Description:         input.Description,
		Category:            input.Category,
		Kind:                input.Kind,
		Price:               input.Price,
		Stock:               input.Stock,
		MinStock:            input.MinStock,
		RequiresPreparation: input.RequiresPreparation,
		DurationMinutes:     input.DurationMinutes,
	})
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProducts lists the catalog. ?kind=service narrows to services and
// ?includeInactive=true adds deactivated entries.
func (p *ProductController) GetProducts(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	products, err := p.products.GetProducts(c.Request.Context(), companyID,
		models.ProductKind(c.Query("kind")), c.Query("includeInactive") == "true")
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

func (p *ProductController) GetProduct(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	product, err := p.products.GetProduct(c.Request.Context(), companyID, productID)
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

func (p *ProductController) UpdateProduct(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	product, err := p.products.UpdateProduct(c.Request.Context(), companyID, productID, services.ProductUpdate{
		Name:                input.Name,
		Description:         input.Description,
		Category:            input.Category,
		Price:               input.Price,
		MinStock:            input.MinStock,
		RequiresPreparation: input.RequiresPreparation,
		DurationMinutes:     input.DurationMinutes,
		IsActive:            input.IsActive,
	})
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct deactivates the product; its ledger history stays.
func (p *ProductController) DeleteProduct(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	if err := p.products.DeleteProduct(c.Request.Context(), companyID, productID); err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func (p *ProductController) AdjustStock(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}
	productID, ok := uuidParam(c, "id", "product")
	if !ok {
		return
	}

	var input AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	movement, err := p.stock.AdjustStock(c.Request.Context(), companyID, productID, input.Delta, input.Reason)
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusCreated, movement)
}

func (p *ProductController) GetStockMovements(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	var productID *uuid.UUID
	if raw := c.Query("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
			return
		}
		productID = &id
	}

	movements, err := p.stock.GetStockMovements(c.Request.Context(), companyID, productID)
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusOK, movements)
}

func (p *ProductController) GetLowStockProducts(c *gin.Context) {
	companyID, ok := companyIDFromContext(c)
	if !ok {
		return
	}

	products, err := p.stock.GetLowStockProducts(c.Request.Context(), companyID)
	if err != nil {
		respondWithServiceError(c, p.logger, err)
		return
	}

	c.JSON(http.StatusOK, products)
}
