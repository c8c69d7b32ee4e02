package routes

import (
	"bizpro-backend/config"
	"bizpro-backend/controllers"
	"bizpro-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups every controller the router mounts.
type Handlers struct {
	Auth         *controllers.AuthController
	Profile      *controllers.ProfileController
	Clients      *controllers.ClientController
	Employees    *controllers.EmployeeController
	Products     *controllers.ProductController
	Orders       *controllers.OrderController
	Tabs         *controllers.TabController
	Appointments *controllers.AppointmentController
	Reminders    *controllers.ReminderController
	Reports      *controllers.ReportController
}

func SetupRouter(cfg *config.Config, logger *zap.SugaredLogger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	allowed := make(map[string]bool, len(cfg.Server.AllowOrigins))
	for _, origin := range cfg.Server.AllowOrigins {
		allowed[origin] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger(logger, cfg.Server.SlowRequest))

	authMiddleware := utils.AuthMiddleware(cfg.JWT.Secret)

	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)

		auth.GET("/me", authMiddleware, h.Auth.Me)

		// Settings routes
		profile := auth.Group("/profile", authMiddleware)
		{
			profile.GET("", h.Profile.GetProfile)
			profile.PUT("/update-company", h.Profile.UpdateCompanyProfile)
			profile.PUT("/update-hours", h.Profile.UpdateWorkingHours)
			profile.PUT("/update-notifications", h.Profile.UpdateNotificationSettings)
			profile.GET("/reminder-template", h.Profile.GetReminderTemplate)
			profile.PUT("/reminder-template", h.Profile.UpdateReminderTemplate)
		}
	}

	// Customer-facing menu, no login
	public := r.Group("/public/companies/:companyId")
	{
		public.POST("/orders", h.Orders.PublicCreateOrder)
		public.GET("/orders/:id", h.Orders.PublicGetOrder)
		public.POST("/orders/:id/confirm", h.Orders.PublicConfirmOrderReceipt)
	}

	api := r.Group("/api")
	api.Use(authMiddleware)
	{
		clients := api.Group("/clients")
		{
			clients.POST("", h.Clients.CreateClient)
			clients.GET("", h.Clients.GetClients)
			clients.GET("/:id", h.Clients.GetClient)
			clients.PUT("/:id", h.Clients.UpdateClient)
			clients.DELETE("/:id", h.Clients.DeleteClient)
		}

		employees := api.Group("/employees")
		{
			employees.GET("", h.Employees.GetEmployees)
			employees.POST("", h.Employees.AddEmployee)
		}

		products := api.Group("/products")
		{
			products.POST("", h.Products.CreateProduct)
			products.GET("", h.Products.GetProducts)
			products.GET("/low-stock", h.Products.GetLowStockProducts)
			products.GET("/:id", h.Products.GetProduct)
			products.PUT("/:id", h.Products.UpdateProduct)
			products.DELETE("/:id", h.Products.DeleteProduct)
			products.POST("/:id/adjust-stock", h.Products.AdjustStock)
		}
		api.GET("/stock-movements", h.Products.GetStockMovements)

		orders := api.Group("/orders")
		{
			orders.POST("", h.Orders.CreateOrder)
			orders.GET("", h.Orders.GetOrders)
			orders.POST("/archive", h.Orders.ArchiveOrders)
			orders.GET("/:id", h.Orders.GetOrder)
			orders.PUT("/:id/items/:index/status", h.Orders.UpdateOrderItemStatus)
			orders.POST("/:id/confirm", h.Orders.ConfirmOrderReceipt)
			orders.POST("/:id/archive", h.Orders.ArchiveOrder)
		}

		tabs := api.Group("/tabs")
		{
			tabs.GET("", h.Tabs.GetAllTabs)
			tabs.GET("/:type/:number", h.Tabs.GetTab)
			tabs.POST("/:type/:number/history", h.Tabs.AddToTabHistory)
			tabs.POST("/:type/:number/close", h.Tabs.CloseTab)
			tabs.DELETE("/:type/:number", h.Tabs.ClearTab)
		}
		api.POST("/monitor/clear", h.Tabs.ClearAllMonitorData)

		appointments := api.Group("/appointments")
		{
			appointments.POST("", h.Appointments.CreateAppointment)
			appointments.GET("", h.Appointments.GetAppointments)
			appointments.GET("/:id", h.Appointments.GetAppointment)
			appointments.PUT("/:id/status", h.Appointments.UpdateAppointmentStatus)
			appointments.POST("/:id/send-to-pdv", h.Appointments.SendAppointmentToPDV)
			appointments.DELETE("/:id", h.Appointments.DeleteAppointment)
		}

		reminders := api.Group("/reminders")
		{
			reminders.GET("/logs", h.Reminders.GetReminderLogs)
			reminders.POST("/send", h.Reminders.SendReminders)
		}

		api.GET("/dashboard", h.Reports.GetDashboardOverview)
		api.GET("/reports", h.Reports.GetSalesReport)
	}

	return r
}
