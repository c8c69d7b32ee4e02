package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bizpro-backend/config"
	"bizpro-backend/controllers"
	"bizpro-backend/models"
	"bizpro-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type apiClient struct {
	t      *testing.T
	router *gin.Engine
	token  string
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, models.AutoMigrate(db))

	log := zap.NewNop().Sugar()
	cfg := &config.Config{
		Server: config.ServerConfig{AllowOrigins: []string{"http://localhost:3000"}},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
	}
	locker := services.NewMemoryLocker()
	products := services.NewProductService(db, locker, nil, log)
	stock := services.NewStockService(db, locker, nil, log)
	orders := services.NewOrderService(db, locker, nil, log)
	tabs := services.NewTabService(db, locker, nil, log)
	appointments := services.NewAppointmentService(db, locker, nil, log)
	reports := services.NewReportService(db, locker, log)
	reminders := services.NewReminderService(db, nil, time.Hour, log)

	router := SetupRouter(cfg, log, Handlers{
		Auth:         controllers.NewAuthController(db, cfg.JWT.Secret, time.Hour, log),
		Profile:      controllers.NewProfileController(db, log),
		Clients:      controllers.NewClientController(db, log),
		Employees:    controllers.NewEmployeeController(db, log),
		Products:     controllers.NewProductController(products, stock, log),
		Orders:       controllers.NewOrderController(orders, log),
		Tabs:         controllers.NewTabController(tabs, log),
		Appointments: controllers.NewAppointmentController(appointments, log),
		Reminders:    controllers.NewReminderController(reminders, log),
		Reports:      controllers.NewReportController(reports, log),
	})
	return &apiClient{t: t, router: router}
}

func (a *apiClient) do(method, path string, body interface{}, out interface{}) int {
	a.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w.Code
}

func (a *apiClient) register() string {
	a.t.Helper()

	var resp struct {
		Token string `json:"token"`
		User  struct {
			CompanyID string `json:"companyId"`
		} `json:"user"`
	}
	code := a.do(http.MethodPost, "/auth/register", gin.H{
		"email":       "owner@example.com",
		"phone":       "+5511999990000",
		"name":        "Owner",
		"password":    "secret123",
		"companyName": "Bistro",
	}, &resp)
	require.Equal(a.t, http.StatusCreated, code)
	a.token = resp.Token
	return resp.User.CompanyID
}

func TestPublicOrderReachesTab(t *testing.T) {
	api := newAPI(t)
	companyID := api.register()

	var product struct {
		ID string `json:"id"`
	}
	code := api.do(http.MethodPost, "/api/products", gin.H{
		"name": "Burger", "price": "25.00", "stock": 10, "requiresPreparation": true,
	}, &product)
	require.Equal(t, http.StatusCreated, code)

	token := api.token
	api.token = ""
	var order models.Order
	code = api.do(http.MethodPost, "/public/companies/"+companyID+"/orders", gin.H{
		"targetType":   "table",
		"targetNumber": "12",
		"items":        []gin.H{{"productId": product.ID, "quantity": 2, "price": "0.01"}},
	}, &order)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "25.00", order.Items[0].Price.StringFixed(2))

	code = api.do(http.MethodPost, "/public/companies/"+companyID+"/orders", gin.H{
		"targetType": "table", "targetNumber": "12",
		"items": []gin.H{{"name": "Custom", "price": "1.00", "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/tabs", nil, nil))

	api.token = token
	var tabs []struct {
		Type   string          `json:"type"`
		Number string          `json:"number"`
		Status string          `json:"status"`
		Total  decimal.Decimal `json:"total"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/tabs", nil, &tabs))
	require.Len(t, tabs, 1)
	assert.Equal(t, "12", tabs[0].Number)
	assert.Equal(t, "occupied", tabs[0].Status)
	assert.True(t, decimal.RequireFromString("50").Equal(tabs[0].Total))

	code = api.do(http.MethodPost, "/api/orders/"+order.ID+"/confirm", nil, &order)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.OrderStatusCompleted, order.Status)

	var bill struct {
		Total decimal.Decimal `json:"total"`
	}
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/tabs/table/12/close", nil, &bill))
	assert.True(t, decimal.RequireFromString("50").Equal(bill.Total))
}

func TestAppointmentOrderIDsCannotBeClaimed(t *testing.T) {
	api := newAPI(t)
	companyID := api.register()

	var appt models.Appointment
	code := api.do(http.MethodPost, "/api/appointments", gin.H{
		"clientName": "Maria",
		"services":   []gin.H{{"serviceName": "Nails", "startTime": "2030-03-04T10:00:00Z", "durationMinutes": 30, "price": "40.00"}},
	}, &appt)
	require.Equal(t, http.StatusCreated, code)
	reserved := models.AppointmentOrderID(appt.ID)

	var product struct {
		ID string `json:"id"`
	}
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/products", gin.H{"name": "Soda", "price": "5.00"}, &product))

	var public models.Order
	code = api.do(http.MethodPost, "/public/companies/"+companyID+"/orders", gin.H{
		"id":           reserved,
		"targetType":   "table",
		"targetNumber": "3",
		"items":        []gin.H{{"productId": product.ID, "quantity": 1}},
	}, &public)
	require.Equal(t, http.StatusCreated, code)
	assert.NotEqual(t, reserved, public.ID, "public callers never choose the order id")

	code = api.do(http.MethodPost, "/api/orders", gin.H{
		"id":           reserved,
		"targetType":   "table",
		"targetNumber": "3",
		"items":        []gin.H{{"name": "Tea", "price": "3.00", "quantity": 1}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	var bridged struct {
		Order *models.Order `json:"order"`
	}
	code = api.do(http.MethodPut, "/api/appointments/"+appt.ID.String()+"/status", gin.H{"status": "completed"}, &bridged)
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, bridged.Order)
	assert.Equal(t, reserved, bridged.Order.ID)
}

func TestServiceErrorsMapToStatusCodes(t *testing.T) {
	api := newAPI(t)
	companyID := api.register()

	internal := gin.H{
		"id":           "ord-1",
		"targetType":   "room",
		"targetNumber": "201",
		"items":        []gin.H{{"name": "Minibar", "price": "8.00", "quantity": 1}},
	}
	assert.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/orders", internal, nil))
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/api/orders", internal, nil))

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/orders/missing", nil, nil))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/api/tabs/table/404", nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPut, "/api/orders/ord-1/items/9/status", gin.H{"status": "ready"}, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/tabs/bar/1", nil, nil))

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/public/companies/"+companyID+"/orders/missing", nil, nil))
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/public/companies/not-a-uuid/orders/ord-1", nil, nil))

	var cleared services.ClearResult
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/monitor/clear", nil, &cleared))
	assert.Equal(t, int64(1), cleared.ArchivedOrders)
}
