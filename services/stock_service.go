package services

import (
	"context"
	"strings"
	"time"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StockService owns the stock ledger. A product's cached stock always equals
// the signed sum of its movements.
type StockService struct {
	base
}

func NewStockService(db *gorm.DB, locker Locker, events Publisher, logger *zap.SugaredLogger) *StockService {
	return &StockService{base: newBase(db, locker, events, logger)}
}

func (s *StockService) AdjustStock(ctx context.Context, companyID, productID uuid.UUID, delta int, reason string) (*models.StockMovement, error) {
	reason = strings.TrimSpace(reason)
	if delta == 0 {
		return nil, invalid("stock delta must be non-zero")
	}
	if reason == "" {
		return nil, invalid("reason is required")
	}

	var movement *models.StockMovement
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var err error
		movement, err = adjustStockTx(tx, companyID, productID, delta, reason, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("stock adjusted",
		"company_id", companyID,
		"product_id", productID,
		"type", movement.Type,
		"quantity", movement.Quantity,
		"reason", reason,
	)
	s.publish(ctx, Event{
		Type:      EventStockAdjusted,
		CompanyID: companyID.String(),
		Key:       productID.String(),
		Payload:   movement,
		Timestamp: movement.CreatedAt,
	})

	return movement, nil
}

// adjustStockTx applies delta to the product and appends the matching
// movement. Both writes share tx.
func adjustStockTx(tx *gorm.DB, companyID, productID uuid.UUID, delta int, reason string, at time.Time) (*models.StockMovement, error) {
	var product models.Product
	if err := tx.Where("company_id = ? AND id = ?", companyID, productID).First(&product).Error; err != nil {
		return nil, notFound(err, "product", productID)
	}
	if !product.TracksStock() {
		return nil, invalid("product %s does not track stock", product.Name)
	}

	if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("stock", gorm.Expr("COALESCE(stock, 0) + ?", delta)).Error; err != nil {
		return nil, err
	}

	movement := models.StockMovement{
		CompanyID:   companyID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Type:        models.MovementIn,
		Quantity:    delta,
		Reason:      reason,
		CreatedAt:   at,
	}
	if delta < 0 {
		movement.Type = models.MovementOut
		movement.Quantity = -delta
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}

	return &movement, nil
}

// GetStockMovements returns the company's movements, most recent first,
// optionally restricted to one product.
func (s *StockService) GetStockMovements(ctx context.Context, companyID uuid.UUID, productID *uuid.UUID) ([]models.StockMovement, error) {
	query := s.db.WithContext(ctx).Where("company_id = ?", companyID)
	if productID != nil {
		query = query.Where("product_id = ?", *productID)
	}

	var movements []models.StockMovement
	if err := query.Order("created_at DESC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *StockService) GetLowStockProducts(ctx context.Context, companyID uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := lowStockQuery(s.db.WithContext(ctx), companyID).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func lowStockQuery(db *gorm.DB, companyID uuid.UUID) *gorm.DB {
	return db.
		Where("company_id = ? AND kind = ? AND is_active = ? AND stock IS NOT NULL AND stock <= min_stock",
			companyID, models.ProductKindProduct, true).
		Order("name")
}
