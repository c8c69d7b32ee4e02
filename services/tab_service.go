package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"bizpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TabService projects the running bill of every service point from the
// company's active orders and the manual entries stored on each tab.
type TabService struct {
	base
}

func NewTabService(db *gorm.DB, locker Locker, events Publisher, logger *zap.SugaredLogger) *TabService {
	return &TabService{base: newBase(db, locker, events, logger)}
}

type TabSummary struct {
	ID        string            `json:"id"`
	CompanyID uuid.UUID         `json:"companyId"`
	Type      models.TargetType `json:"type"`
	Number    string            `json:"number"`
	Status    models.TabStatus  `json:"status"`
	Total     decimal.Decimal   `json:"total"`
	OrderIDs  []string          `json:"orderIds"`
	Lines     []TabLine         `json:"lines"`
}

type TabLine struct {
	OrderID   string            `json:"orderId,omitempty"`
	ProductID *uuid.UUID        `json:"productId,omitempty"`
	Name      string            `json:"name"`
	Price     decimal.Decimal   `json:"price"`
	Quantity  int               `json:"quantity"`
	Status    models.ItemStatus `json:"status,omitempty"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

// TabEntry is a manual charge appended to a tab outside of any order.
type TabEntry struct {
	ProductID    *uuid.UUID
	Name         string
	Price        decimal.Decimal
	Quantity     int
	EmployeeName string
}

type ClearResult struct {
	ArchivedOrders int64 `json:"archivedOrders"`
	ClearedTabs    int64 `json:"clearedTabs"`
}

type tabKey struct {
	Type   models.TargetType
	Number string
}

// addToTabHistoryTx appends entries to the tab of a service point, creating
// the tab when needed, and marks it occupied.
func addToTabHistoryTx(tx *gorm.DB, companyID *uuid.UUID, targetType models.TargetType, number string, entries []models.TabHistoryItem) error {
	tabID := models.TabID(companyID, targetType, number)

	var tab models.Tab
	err := tx.Where("id = ?", tabID).First(&tab).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		tab = models.Tab{
			ID:        tabID,
			CompanyID: companyID,
			Type:      targetType,
			Number:    number,
			Status:    models.TabStatusOccupied,
		}
		if err := tx.Create(&tab).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	case tab.Status != models.TabStatusOccupied:
		if err := tx.Model(&models.Tab{}).Where("id = ?", tabID).Update("status", models.TabStatusOccupied).Error; err != nil {
			return err
		}
	}

	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].ID = 0
		entries[i].TabID = tabID
	}
	return tx.Create(&entries).Error
}

func (s *TabService) AddToTabHistory(ctx context.Context, companyID uuid.UUID, targetType models.TargetType, number string, entries []TabEntry) (*TabSummary, error) {
	number = strings.TrimSpace(number)
	if !targetType.Valid() {
		return nil, invalid("unknown target type %q", targetType)
	}
	if number == "" {
		return nil, invalid("target number is required")
	}
	if len(entries) == 0 {
		return nil, invalid("no entries given")
	}

	now := time.Now()
	items := make([]models.TabHistoryItem, 0, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, invalid("entry %d: name is required", i)
		}
		if entry.Quantity <= 0 {
			return nil, invalid("entry %d: quantity must be positive", i)
		}
		if entry.Price.IsNegative() {
			return nil, invalid("entry %d: price must not be negative", i)
		}
		items = append(items, models.TabHistoryItem{
			ProductID:    entry.ProductID,
			Name:         strings.TrimSpace(entry.Name),
			Price:        entry.Price,
			Quantity:     entry.Quantity,
			EmployeeName: entry.EmployeeName,
			CreatedAt:    now,
		})
	}

	var summary *TabSummary
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		if err := addToTabHistoryTx(tx, &companyID, targetType, number, items); err != nil {
			return err
		}
		summaries, err := projectTabs(tx, companyID, &tabKey{Type: targetType, Number: number})
		if err != nil {
			return err
		}
		if len(summaries) > 0 {
			summary = &summaries[0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("tab entries added", "company_id", companyID, "type", targetType, "number", number, "entries", len(items))
	return summary, nil
}

// GetAllTabs returns every occupied or ready-to-pay tab of the company.
func (s *TabService) GetAllTabs(ctx context.Context, companyID uuid.UUID) ([]TabSummary, error) {
	var summaries []TabSummary
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var err error
		summaries, err = projectTabs(tx, companyID, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetTab returns the projection of one service point; a point with nothing
// on it is reported as available with a zero total.
func (s *TabService) GetTab(ctx context.Context, companyID uuid.UUID, targetType models.TargetType, number string) (*TabSummary, error) {
	if !targetType.Valid() {
		return nil, invalid("unknown target type %q", targetType)
	}

	var summaries []TabSummary
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var err error
		summaries, err = projectTabs(tx, companyID, &tabKey{Type: targetType, Number: number})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		return emptyTab(companyID, targetType, number), nil
	}
	return &summaries[0], nil
}

func emptyTab(companyID uuid.UUID, targetType models.TargetType, number string) *TabSummary {
	return &TabSummary{
		ID:        models.TabID(&companyID, targetType, number),
		CompanyID: companyID,
		Type:      targetType,
		Number:    number,
		Status:    models.TabStatusAvailable,
		Total:     decimal.Zero,
		OrderIDs:  []string{},
		Lines:     []TabLine{},
	}
}

// projectTabs folds the company's non-archived orders and its own tabs into
// summaries. Only tabs whose company_id equals companyID take part; lines
// copied from orders are not counted twice.
func projectTabs(tx *gorm.DB, companyID uuid.UUID, only *tabKey) ([]TabSummary, error) {
	orderQuery := tx.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("company_id = ? AND is_archived = ?", companyID, false)
	tabQuery := tx.
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("company_id = ?", companyID)
	if only != nil {
		orderQuery = orderQuery.Where("target_type = ? AND target_number = ?", only.Type, only.Number)
		tabQuery = tabQuery.Where("type = ? AND number = ?", only.Type, only.Number)
	}

	var orders []models.Order
	if err := orderQuery.Order("created_at").Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	var tabs []models.Tab
	if err := tabQuery.Find(&tabs).Error; err != nil {
		return nil, err
	}

	summaries := make(map[tabKey]*TabSummary)
	get := func(key tabKey) *TabSummary {
		if summary, ok := summaries[key]; ok {
			return summary
		}
		summary := emptyTab(companyID, key.Type, key.Number)
		summary.Status = ""
		summaries[key] = summary
		return summary
	}

	for _, order := range orders {
		summary := get(tabKey{Type: order.TargetType, Number: order.TargetNumber})
		summary.OrderIDs = append(summary.OrderIDs, order.ID)
		for _, item := range order.Items {
			subtotal := item.Subtotal()
			summary.Total = summary.Total.Add(subtotal)
			summary.Lines = append(summary.Lines, TabLine{
				OrderID:   order.ID,
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Quantity:  item.Quantity,
				Status:    item.Status,
				Subtotal:  subtotal,
			})
		}
		if order.Status != models.OrderStatusCompleted {
			summary.Status = models.TabStatusOccupied
		} else if summary.Status == "" {
			summary.Status = models.TabStatusReadyToPay
		}
	}

	for _, tab := range tabs {
		key := tabKey{Type: tab.Type, Number: tab.Number}
		var manual []models.TabHistoryItem
		for _, entry := range tab.History {
			if entry.IsManual() {
				manual = append(manual, entry)
			}
		}

		summary, ok := summaries[key]
		if !ok {
			if tab.Status != models.TabStatusOccupied && len(manual) == 0 {
				continue
			}
			summary = get(key)
			summary.Status = models.TabStatusOccupied
		}
		summary.ID = tab.ID

		for _, entry := range manual {
			subtotal := entry.Subtotal()
			summary.Total = summary.Total.Add(subtotal)
			summary.Lines = append(summary.Lines, TabLine{
				ProductID: entry.ProductID,
				Name:      entry.Name,
				Price:     entry.Price,
				Quantity:  entry.Quantity,
				Status:    entry.Status,
				Subtotal:  subtotal,
			})
		}
	}

	result := make([]TabSummary, 0, len(summaries))
	for _, summary := range summaries {
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Type != result[j].Type {
			return result[i].Type < result[j].Type
		}
		return result[i].Number < result[j].Number
	})
	return result, nil
}

// ClearTab empties the tab's history and makes it available again. Orders
// on the point are left alone; see CloseTab.
func (s *TabService) ClearTab(ctx context.Context, companyID uuid.UUID, targetType models.TargetType, number string) error {
	tabID := models.TabID(&companyID, targetType, number)
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		var tab models.Tab
		if err := tx.Where("id = ? AND company_id = ?", tabID, companyID).First(&tab).Error; err != nil {
			return notFound(err, "tab", tabID)
		}
		return clearTabsTx(tx, []string{tab.ID})
	})
	if err != nil {
		return err
	}

	s.logger.Infow("tab cleared", "company_id", companyID, "tab_id", tabID)
	s.publish(ctx, Event{Type: EventTabCleared, CompanyID: companyID.String(), Key: tabID, Timestamp: time.Now()})
	return nil
}

// CloseTab settles a service point: its orders are archived and its tab is
// cleared in one unit. The returned summary is the bill as it stood.
func (s *TabService) CloseTab(ctx context.Context, companyID uuid.UUID, targetType models.TargetType, number string) (*TabSummary, error) {
	if !targetType.Valid() {
		return nil, invalid("unknown target type %q", targetType)
	}

	tabID := models.TabID(&companyID, targetType, number)
	var bill *TabSummary
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		summaries, err := projectTabs(tx, companyID, &tabKey{Type: targetType, Number: number})
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			return notFound(gorm.ErrRecordNotFound, "tab", tabID)
		}
		bill = &summaries[0]

		if err := tx.Model(&models.Order{}).
			Where("company_id = ? AND target_type = ? AND target_number = ? AND is_archived = ?", companyID, targetType, number, false).
			Update("is_archived", true).Error; err != nil {
			return err
		}
		return clearTabsTx(tx, []string{tabID})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("tab closed", "company_id", companyID, "tab_id", tabID, "total", bill.Total.StringFixed(2))
	s.publish(ctx, Event{Type: EventTabCleared, CompanyID: companyID.String(), Key: tabID, Payload: bill, Timestamp: time.Now()})
	return bill, nil
}

// ClearAllMonitorData archives every order and clears every tab that belongs
// to the company or to no company at all.
func (s *TabService) ClearAllMonitorData(ctx context.Context, companyID uuid.UUID) (ClearResult, error) {
	var result ClearResult
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		archived := tx.Model(&models.Order{}).
			Where("(company_id = ? OR company_id IS NULL) AND is_archived = ?", companyID, false).
			Update("is_archived", true)
		if archived.Error != nil {
			return archived.Error
		}
		result.ArchivedOrders = archived.RowsAffected

		var tabIDs []string
		if err := tx.Model(&models.Tab{}).
			Where("company_id = ? OR company_id IS NULL", companyID).
			Pluck("id", &tabIDs).Error; err != nil {
			return err
		}
		result.ClearedTabs = int64(len(tabIDs))
		return clearTabsTx(tx, tabIDs)
	})
	if err != nil {
		return ClearResult{}, err
	}

	s.logger.Infow("monitor data cleared",
		"company_id", companyID,
		"archived_orders", result.ArchivedOrders,
		"cleared_tabs", result.ClearedTabs,
	)
	s.publish(ctx, Event{Type: EventTabCleared, CompanyID: companyID.String(), Key: "*", Payload: result, Timestamp: time.Now()})
	return result, nil
}

func clearTabsTx(tx *gorm.DB, tabIDs []string) error {
	if len(tabIDs) == 0 {
		return nil
	}
	if err := tx.Where("tab_id IN ?", tabIDs).Delete(&models.TabHistoryItem{}).Error; err != nil {
		return err
	}
	return tx.Model(&models.Tab{}).Where("id IN ?", tabIDs).Update("status", models.TabStatusAvailable).Error
}
