package services

import (
	"context"
	"strings"
	"time"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const initialStockReason = "initial stock"

type ProductService struct {
	base
}

func NewProductService(db *gorm.DB, locker Locker, events Publisher, logger *zap.SugaredLogger) *ProductService {
	return &ProductService{base: newBase(db, locker, events, logger)}
}

// ProductUpdate lists the catalog fields that may change. Stock is absent on
// purpose: it only moves through AdjustStock.
type ProductUpdate struct {
	Name                *string
	Description         *string
	Category            *string
	Price               *decimal.Decimal
	MinStock            *int
	RequiresPreparation *bool
	DurationMinutes     *int
	IsActive            *bool
}

// CreateProduct stores a catalog entry. A non-zero initial stock is booked as
// the product's first ledger movement.
func (s *ProductService) CreateProduct(ctx context.Context, companyID uuid.UUID, product *models.Product) (*models.Product, error) {
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" {
		return nil, invalid("product name is required")
	}
	if product.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}
	if product.MinStock < 0 {
		return nil, invalid("minimum stock must not be negative")
	}
	if product.Kind == "" {
		product.Kind = models.ProductKindProduct
	}
	if product.Kind != models.ProductKindProduct && product.Kind != models.ProductKindService {
		return nil, invalid("unknown product kind %q", product.Kind)
	}

	initial := 0
	if product.Stock != nil {
		initial = *product.Stock
	}
	if product.Kind == models.ProductKindService {
		if initial != 0 {
			return nil, invalid("service items do not track stock")
		}
		product.Stock = nil
	} else {
		zero := 0
		product.Stock = &zero
	}

	product.ID = uuid.Nil
	product.CompanyID = companyID
	product.IsActive = true

	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}
		if initial != 0 {
			if _, err := adjustStockTx(tx, companyID, product.ID, initial, initialStockReason, time.Now()); err != nil {
				return err
			}
		}
		return tx.First(product, "id = ?", product.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("product created", "company_id", companyID, "product_id", product.ID, "kind", product.Kind)
	return product, nil
}

func (s *ProductService) GetProducts(ctx context.Context, companyID uuid.UUID, kind models.ProductKind, includeInactive bool) ([]models.Product, error) {
	query := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var products []models.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, companyID, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("company_id = ? AND id = ?", companyID, productID).First(&product).Error; err != nil {
		return nil, notFound(err, "product", productID)
	}
	return &product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, companyID, productID uuid.UUID, input ProductUpdate) (*models.Product, error) {
	updates := map[string]interface{}{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, invalid("product name is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, invalid("price must not be negative")
		}
		updates["price"] = *input.Price
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, invalid("minimum stock must not be negative")
		}
		updates["min_stock"] = *input.MinStock
	}
	if input.RequiresPreparation != nil {
		updates["requires_preparation"] = *input.RequiresPreparation
	}
	if input.DurationMinutes != nil {
		updates["duration_minutes"] = *input.DurationMinutes
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	var product models.Product
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ? AND id = ?", companyID, productID).First(&product).Error; err != nil {
			return notFound(err, "product", productID)
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&product).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&product, "id = ?", productID).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deactivates the product. Ledger rows and order snapshots
// keep referring to it, so the row itself stays.
func (s *ProductService) DeleteProduct(ctx context.Context, companyID, productID uuid.UUID) error {
	inactive := false
	_, err := s.UpdateProduct(ctx, companyID, productID, ProductUpdate{IsActive: &inactive})
	return err
}
