package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"bizpro-backend/models"
	"bizpro-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type DashboardOverview struct {
	OpenTabs          int                   `json:"openTabs"`
	ReadyToPayTabs    int                   `json:"readyToPayTabs"`
	OpenTabsTotal     decimal.Decimal       `json:"openTabsTotal"`
	PendingOrders     int64                 `json:"pendingOrders"`
	TodayRevenue      decimal.Decimal       `json:"todayRevenue"`
	TodayOrders       int                   `json:"todayOrders"`
	TotalClients      int64                 `json:"totalClients"`
	LowStockProducts  []LowStockProduct     `json:"lowStockProducts"`
	TodayAppointments []UpcomingAppointment `json:"todayAppointments"`
}

type LowStockProduct struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Stock    int       `json:"stock"`
	MinStock int       `json:"minStock"`
}

type UpcomingAppointment struct {
	ID         uuid.UUID                `json:"id"`
	ClientName string                   `json:"clientName"`
	Services   string                   `json:"services"`
	Time       string                   `json:"time"` // e.g. "14:30"
	Status     models.AppointmentStatus `json:"status"`
}

type ReportService struct {
	base
	now func() time.Time
}

func NewReportService(db *gorm.DB, locker Locker, logger *zap.SugaredLogger) *ReportService {
	return &ReportService{base: newBase(db, locker, nil, logger), now: time.Now}
}

func (s *ReportService) GetDashboardOverview(ctx context.Context, companyID uuid.UUID) (*DashboardOverview, error) {
	now := s.now()
	dayStart, dayEnd := utils.BeginningOfDay(now), utils.EndOfDay(now)

	overview := &DashboardOverview{
		OpenTabsTotal:     decimal.Zero,
		TodayRevenue:      decimal.Zero,
		LowStockProducts:  []LowStockProduct{},
		TodayAppointments: []UpcomingAppointment{},
	}
	err := s.inCompanyTx(ctx, companyID, func(tx *gorm.DB) error {
		tabs, err := projectTabs(tx, companyID, nil)
		if err != nil {
			return err
		}
		for _, tab := range tabs {
			if tab.Status == models.TabStatusReadyToPay {
				overview.ReadyToPayTabs++
			} else {
				overview.OpenTabs++
			}
			overview.OpenTabsTotal = overview.OpenTabsTotal.Add(tab.Total)
		}

		if err := tx.Model(&models.Order{}).
			Where("company_id = ? AND status <> ? AND is_archived = ?", companyID, models.OrderStatusCompleted, false).
			Count(&overview.PendingOrders).Error; err != nil {
			return err
		}

		var finalized []models.Order
		if err := tx.Preload("Items").
			Where("company_id = ? AND finalized_at >= ? AND finalized_at < ?", companyID, dayStart, dayEnd).
			Find(&finalized).Error; err != nil {
			return err
		}
		for _, order := range finalized {
			overview.TodayRevenue = overview.TodayRevenue.Add(order.Total())
		}
		overview.TodayOrders = len(finalized)

		if err := tx.Model(&models.Client{}).Where("company_id = ?", companyID).Count(&overview.TotalClients).Error; err != nil {
			return err
		}

		var products []models.Product
		if err := lowStockQuery(tx, companyID).Find(&products).Error; err != nil {
			return err
		}
		for _, p := range products {
			overview.LowStockProducts = append(overview.LowStockProducts, LowStockProduct{
				ID:       p.ID,
				Name:     p.Name,
				Stock:    *p.Stock,
				MinStock: p.MinStock,
			})
		}

		var appointments []models.Appointment
		if err := tx.Preload("Services", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
			Where("company_id = ? AND date >= ? AND date < ? AND status <> ?", companyID, dayStart, dayEnd, models.AppointmentCancelled).
			Find(&appointments).Error; err != nil {
			return err
		}
		for _, appt := range appointments {
			overview.TodayAppointments = append(overview.TodayAppointments, upcomingAppointment(&appt))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dashboard overview: %w", err)
	}
	return overview, nil
}

func upcomingAppointment(appt *models.Appointment) UpcomingAppointment {
	names := make([]string, 0, len(appt.Services))
	for _, svc := range appt.Services {
		names = append(names, svc.ServiceName)
	}
	return UpcomingAppointment{
		ID:         appt.ID,
		ClientName: appt.ClientName,
		Services:   strings.Join(names, ", "),
		Time:       appt.StartsAt().Format("15:04"),
		Status:     appt.Status,
	}
}

type SalesReport struct {
	CurrentMonthRevenue decimal.Decimal `json:"currentMonthRevenue"`
	LastMonthRevenue    decimal.Decimal `json:"lastMonthRevenue"`
	MonthGrowth         float64         `json:"monthGrowth"` // percent
	OrdersCount         int             `json:"ordersCount"`
	AvgOrderValue       decimal.Decimal `json:"avgOrderValue"`
	TopProducts         []ProductSales  `json:"topProducts"`
}

type ProductSales struct {
	Name    string          `json:"name"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// GetSalesReport compares this month's finalized orders with last month's
// and ranks the best selling items of this month.
func (s *ReportService) GetSalesReport(ctx context.Context, companyID uuid.UUID, top int) (*SalesReport, error) {
	now := s.now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	firstOfLastMonth := firstOfMonth.AddDate(0, -1, 0)
	firstOfNextMonth := firstOfMonth.AddDate(0, 1, 0)

	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("company_id = ? AND finalized_at >= ? AND finalized_at < ?", companyID, firstOfLastMonth, firstOfNextMonth).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}

	report := &SalesReport{
		CurrentMonthRevenue: decimal.Zero,
		LastMonthRevenue:    decimal.Zero,
		AvgOrderValue:       decimal.Zero,
		TopProducts:         []ProductSales{},
	}
	sales := make(map[string]*ProductSales)
	for _, order := range orders {
		if order.FinalizedAt.Before(firstOfMonth) {
			report.LastMonthRevenue = report.LastMonthRevenue.Add(order.Total())
			continue
		}
		report.OrdersCount++
		report.CurrentMonthRevenue = report.CurrentMonthRevenue.Add(order.Total())
		for _, item := range order.Items {
			ps, ok := sales[item.Name]
			if !ok {
				ps = &ProductSales{Name: item.Name, Revenue: decimal.Zero}
				sales[item.Name] = ps
			}
			ps.Count += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.Subtotal())
		}
	}

	if report.OrdersCount > 0 {
		report.AvgOrderValue = report.CurrentMonthRevenue.Div(decimal.NewFromInt(int64(report.OrdersCount))).Round(2)
	}
	report.MonthGrowth = growthPercentage(report.CurrentMonthRevenue, report.LastMonthRevenue)

	for _, ps := range sales {
		report.TopProducts = append(report.TopProducts, *ps)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		if !report.TopProducts[i].Revenue.Equal(report.TopProducts[j].Revenue) {
			return report.TopProducts[i].Revenue.GreaterThan(report.TopProducts[j].Revenue)
		}
		return report.TopProducts[i].Name < report.TopProducts[j].Name
	})
	if top > 0 && len(report.TopProducts) > top {
		report.TopProducts = report.TopProducts[:top]
	}
	return report, nil
}

func growthPercentage(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return 0
		}
		return 100
	}
	growth, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return growth
}
