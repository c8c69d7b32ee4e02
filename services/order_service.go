package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	historyOrderCreated  = "created"
	historyOrderReceived = "order receipt confirmed by customer"
	maxOrderIDLength     = 64
)

// OrderService is the order store and the order state machine.
type OrderService struct {
	base
}

func NewOrderService(db *gorm.DB, locker Locker, events Publisher, logger *zap.SugaredLogger) *OrderService {
	return &OrderService{base: newBase(db, locker, events, logger)}
}

// Employee identifies the staff member acting on an order. When only ID is
// set the name is taken from the employee directory.
type Employee struct {
	ID   *uuid.UUID
	Name string
}

type OrderFilter struct {
	Status          models.OrderStatus
	TargetType      models.TargetType
	TargetNumber    string
	IncludeArchived bool
	Limit           int
}

// CreateOrder stores the order and folds its items into the target tab in
// the same transaction.
func (s *OrderService) CreateOrder(ctx context.Context, companyID uuid.UUID, order *models.Order) (*models.Order, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		return createOrderTx(tx, companyID, order, time.Now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("order created",
		"company_id", companyID,
		"order_id", order.ID,
		"target", fmt.Sprintf("%s/%s", order.TargetType, order.TargetNumber),
		"source", order.Source,
		"items", len(order.Items),
	)
	s.publish(ctx, orderEvents(order, EventOrderCreated)...)

	return order, nil
}

func validateOrder(order *models.Order) error {
	if order == nil {
		return invalid("order is required")
	}
	if len(order.ID) > maxOrderIDLength {
		return invalid("order id is longer than %d characters", maxOrderIDLength)
	}
	if strings.HasPrefix(order.ID, models.AppointmentOrderPrefix) {
		return invalid("order ids starting with %q are reserved for appointments", models.AppointmentOrderPrefix)
	}
	if !order.TargetType.Valid() {
		return invalid("unknown target type %q", order.TargetType)
	}
	order.TargetNumber = strings.TrimSpace(order.TargetNumber)
	if order.TargetNumber == "" {
		return invalid("target number is required")
	}
	if len(order.Items) == 0 {
		return invalid("order has no items")
	}
	for i, item := range order.Items {
		if item.Quantity <= 0 {
			return invalid("item %d: quantity must be positive", i)
		}
		if item.Price.IsNegative() {
			return invalid("item %d: price must not be negative", i)
		}
		if item.Status != "" && !item.Status.Valid() {
			return invalid("item %d: unknown status %q", i, item.Status)
		}
		if item.ProductID == nil && strings.TrimSpace(item.Name) == "" {
			return invalid("item %d: name is required", i)
		}
	}
	switch order.Status {
	case "", models.OrderStatusPending, models.OrderStatusAccepted, models.OrderStatusCompleted:
	default:
		return invalid("unknown order status %q", order.Status)
	}
	switch order.Source {
	case "", models.OrderSourcePublic, models.OrderSourceInternal:
	default:
		return invalid("unknown order source %q", order.Source)
	}
	return nil
}

func createOrderTx(tx *gorm.DB, companyID uuid.UUID, order *models.Order, now time.Time) error {
	var companies int64
	if err := tx.Model(&models.Company{}).Where("id = ?", companyID).Count(&companies).Error; err != nil {
		return err
	}
	if companies == 0 {
		return fmt.Errorf("company %s: %w", companyID, ErrNotFound)
	}

	if order.ID == "" {
		order.ID = uuid.NewString()
	} else {
		var existing int64
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("order %s: %w", order.ID, ErrDuplicateOrder)
		}
	}

	order.CompanyID = &companyID
	order.IsArchived = false
	order.CreatedAt = now
	if order.Status == "" {
		order.Status = models.OrderStatusPending
	}
	if order.Source == "" {
		order.Source = models.OrderSourcePublic
	}
	if order.Status == models.OrderStatusCompleted && order.FinalizedAt == nil {
		order.FinalizedAt = &now
	}

	if err := snapshotItems(tx, companyID, order); err != nil {
		return err
	}
	order.ApplyDerivedStatus(now)

	if len(order.History) == 0 {
		order.AppendHistory(historyOrderCreated, "", now)
	}
	for i := range order.History {
		order.History[i].ID = 0
		order.History[i].OrderID = order.ID
	}

	if err := tx.Create(order).Error; err != nil {
		return err
	}

	return addOrderToTab(tx, order, now)
}

// snapshotItems copies catalog data onto the order lines. Public orders
// always take name, price and preparation flag from the catalog; internal
// orders keep what the caller supplied.
func snapshotItems(tx *gorm.DB, companyID uuid.UUID, order *models.Order) error {
	for i := range order.Items {
		item := &order.Items[i]
		item.ID = uuid.Nil
		item.OrderID = order.ID
		item.Position = i
		if item.Status == "" {
			item.Status = models.ItemStatusPending
		}

		if item.ProductID != nil {
			var product models.Product
			if err := tx.Where("company_id = ? AND id = ?", companyID, *item.ProductID).First(&product).Error; err != nil {
				return notFound(err, "product", *item.ProductID)
			}
			if order.Source == models.OrderSourcePublic {
				if !product.IsActive {
					return invalid("product %s is not available", product.Name)
				}
				item.Name = product.Name
				item.Price = product.Price
				item.RequiresPreparation = product.RequiresPreparation
			} else if strings.TrimSpace(item.Name) == "" {
				item.Name = product.Name
			}
		}

		item.Name = strings.TrimSpace(item.Name)
	}
	return nil
}

func addOrderToTab(tx *gorm.DB, order *models.Order, now time.Time) error {
	entries := make([]models.TabHistoryItem, 0, len(order.Items))
	for i, item := range order.Items {
		orderID := order.ID
		index := i
		entries = append(entries, models.TabHistoryItem{
			OrderID:      &orderID,
			ItemIndex:    &index,
			ProductID:    item.ProductID,
			Name:         item.Name,
			Price:        item.Price,
			Quantity:     item.Quantity,
			Status:       item.Status,
			EmployeeName: item.AssignedEmployeeName,
			CreatedAt:    now,
		})
	}
	return addToTabHistoryTx(tx, order.CompanyID, order.TargetType, order.TargetNumber, entries)
}

func (s *OrderService) GetOrders(ctx context.Context, companyID uuid.UUID, filter OrderFilter) ([]models.Order, error) {
	query := preloadOrder(s.db.WithContext(ctx)).Where("company_id = ?", companyID)
	if !filter.IncludeArchived {
		query = query.Where("is_archived = ?", false)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TargetType != "" {
		query = query.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetNumber != "" {
		query = query.Where("target_number = ?", filter.TargetNumber)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, companyID uuid.UUID, orderID string) (*models.Order, error) {
	return loadOrderTx(s.db.WithContext(ctx), companyID, orderID)
}

func preloadOrder(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id") })
}

func loadOrderTx(tx *gorm.DB, companyID uuid.UUID, orderID string) (*models.Order, error) {
	var order models.Order
	if err := preloadOrder(tx).Where("company_id = ? AND id = ?", companyID, orderID).First(&order).Error; err != nil {
		return nil, notFound(err, "order", orderID)
	}
	return &order, nil
}

// UpdateOrderItemStatus moves one line of the order and re-derives the order
// status from all of its lines.
func (s *OrderService) UpdateOrderItemStatus(ctx context.Context, companyID uuid.UUID, orderID string, itemIndex int, status models.ItemStatus, employee *Employee) (*models.Order, error) {
	if !status.Valid() {
		return nil, invalid("unknown item status %q", status)
	}

	var (
		order     *models.Order
		completed bool
	)
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var err error
		order, err = loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}
		if itemIndex < 0 || itemIndex >= len(order.Items) {
			return invalid("item index %d out of range", itemIndex)
		}

		now := time.Now()
		item := &order.Items[itemIndex]
		item.Status = status

		employeeName := ""
		if employee != nil {
			if err := resolveEmployee(tx, companyID, employee); err != nil {
				return err
			}
			item.AssignedEmployeeID = employee.ID
			item.AssignedEmployeeName = employee.Name
			employeeName = employee.Name
		}

		if err := tx.Model(&models.OrderItem{}).Where("id = ?", item.ID).Updates(map[string]interface{}{
			"status":                 item.Status,
			"assigned_employee_id":   item.AssignedEmployeeID,
			"assigned_employee_name": item.AssignedEmployeeName,
		}).Error; err != nil {
			return err
		}

		entry := order.AppendHistory(fmt.Sprintf("%s: %s", item.Name, status), employeeName, now)
		if err := tx.Create(entry).Error; err != nil {
			return err
		}

		completed = order.ApplyDerivedStatus(now)
		if err := saveOrderStatus(tx, order); err != nil {
			return err
		}

		return tx.Model(&models.TabHistoryItem{}).
			Where("order_id = ? AND item_index = ?", order.ID, itemIndex).
			Updates(map[string]interface{}{"status": status, "employee_name": item.AssignedEmployeeName}).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("order item status updated",
		"company_id", companyID,
		"order_id", orderID,
		"item_index", itemIndex,
		"status", status,
		"order_status", order.Status,
	)
	if completed {
		s.publish(ctx, orderEvent(EventOrderCompleted, order))
	}

	return order, nil
}

// ConfirmOrderReceipt is the customer's confirmation that the whole order
// arrived: every line becomes received and the order completes.
func (s *OrderService) ConfirmOrderReceipt(ctx context.Context, companyID uuid.UUID, orderID string) (*models.Order, error) {
	var (
		order        *models.Order
		wasCompleted bool
	)
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var err error
		order, err = loadOrderTx(tx, companyID, orderID)
		if err != nil {
			return err
		}

		now := time.Now()
		wasCompleted = order.Status == models.OrderStatusCompleted
		order.Complete(now)

		if err := tx.Model(&models.OrderItem{}).Where("order_id = ?", order.ID).
			Update("status", models.ItemStatusReceived).Error; err != nil {
			return err
		}
		if err := tx.Create(order.AppendHistory(historyOrderReceived, "", now)).Error; err != nil {
			return err
		}
		if err := saveOrderStatus(tx, order); err != nil {
			return err
		}
		return tx.Model(&models.TabHistoryItem{}).Where("order_id = ?", order.ID).
			Update("status", models.ItemStatusReceived).Error
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("order receipt confirmed", "company_id", companyID, "order_id", orderID)
	if !wasCompleted {
		s.publish(ctx, orderEvent(EventOrderCompleted, order))
	}

	return order, nil
}

func saveOrderStatus(tx *gorm.DB, order *models.Order) error {
	return tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
		"status":       order.Status,
		"finalized_at": order.FinalizedAt,
	}).Error
}

func resolveEmployee(tx *gorm.DB, companyID uuid.UUID, employee *Employee) error {
	if employee.ID == nil || employee.Name != "" {
		return nil
	}
	var user models.User
	if err := tx.Where("company_id = ? AND id = ?", companyID, *employee.ID).First(&user).Error; err != nil {
		return notFound(err, "employee", *employee.ID)
	}
	employee.Name = user.Name
	return nil
}

// ArchiveOrder hides the order from every active view. Archiving an archived
// order does nothing.
func (s *OrderService) ArchiveOrder(ctx context.Context, companyID uuid.UUID, orderID string) error {
	_, err := s.ArchiveOrders(ctx, companyID, []string{orderID})
	return err
}

// ArchiveOrders archives all given orders or none of them. It returns how
// many orders were newly archived.
func (s *OrderService) ArchiveOrders(ctx context.Context, companyID uuid.UUID, orderIDs []string) (int, error) {
	if len(orderIDs) == 0 {
		return 0, invalid("no orders given")
	}

	var archived []string
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		for _, id := range orderIDs {
			var order models.Order
			if err := tx.Where("company_id = ? AND id = ?", companyID, id).First(&order).Error; err != nil {
				return notFound(err, "order", id)
			}
			if order.IsArchived {
				continue
			}
			if err := tx.Model(&models.Order{}).Where("id = ?", id).Update("is_archived", true).Error; err != nil {
				return err
			}
			archived = append(archived, id)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if len(archived) > 0 {
		s.logger.Infow("orders archived", "company_id", companyID, "count", len(archived))
		events := make([]Event, 0, len(archived))
		for _, id := range archived {
			events = append(events, Event{
				Type:      EventOrderArchived,
				CompanyID: companyID.String(),
				Key:       id,
				Timestamp: time.Now(),
			})
		}
		s.publish(ctx, events...)
	}

	return len(archived), nil
}

func orderEvent(eventType string, order *models.Order) Event {
	companyID := ""
	if order.CompanyID != nil {
		companyID = order.CompanyID.String()
	}
	return Event{
		Type:      eventType,
		CompanyID: companyID,
		Key:       order.ID,
		Payload:   order,
		Timestamp: time.Now(),
	}
}

// orderEvents returns the events for a freshly stored order, including the
// completion event for orders that are born completed.
func orderEvents(order *models.Order, eventType string) []Event {
	events := []Event{orderEvent(eventType, order)}
	if order.Status == models.OrderStatusCompleted {
		events = append(events, orderEvent(EventOrderCompleted, order))
	}
	return events
}
