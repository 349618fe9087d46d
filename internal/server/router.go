// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "lasyfinance/internal/docs" // Import swagger docs
	"lasyfinance/internal/handlers"
	"lasyfinance/internal/middleware"
	"lasyfinance/internal/models"
	"lasyfinance/internal/services"
)

// Services are the business services the routes delegate to.
type Services struct {
	Users        services.UserServicer
	Categories   services.CategoryServicer
	Transactions services.TransactionServicer
	Bills        services.BillServicer
	Reminders    services.ReminderServicer
	Goals        services.GoalServicer
	Reports      services.ReportServicer
	Messages     services.MessageLogServicer
	Provisioning services.ProvisioningServicer
	Chat         services.ChatServicer
}

// Options configures the router.
type Options struct {
	Tokens              *middleware.TokenIssuer
	WhatsAppVerifyToken string
	WhatsAppAppSecret   string
	RequestTimeout      time.Duration
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(svc Services, opts Options) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, opts.Tokens)
	categoryHandler := handlers.NewCategoryHandler(svc.Categories)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions)
	payableHandler := handlers.NewBillHandler(svc.Bills, models.BillKindPayable)
	receivableHandler := handlers.NewBillHandler(svc.Bills, models.BillKindReceivable)
	reminderHandler := handlers.NewReminderHandler(svc.Reminders)
	goalHandler := handlers.NewGoalHandler(svc.Goals)
	reportHandler := handlers.NewReportHandler(svc.Reports)
	messageHandler := handlers.NewMessageHandler(svc.Messages)
	provisionHandler := handlers.NewProvisionHandler(svc.Provisioning)
	whatsappHandler := handlers.NewWhatsAppHandler(svc.Chat, opts.WhatsAppVerifyToken)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.RequestTimeout(opts.RequestTimeout))
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// WhatsApp webhook
	webhook := v1.Group("/whatsapp/webhook")
	webhook.GET("", whatsappHandler.Verify)
	webhook.POST("", middleware.WebhookSignature(opts.WhatsAppAppSecret), whatsappHandler.Receive)

	// Number provisioning
	provision := v1.Group("/provision")
	provision.POST("", provisionHandler.RequestCode)
	provision.POST("/verify", provisionHandler.VerifyCode)

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(opts.Tokens))

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/profile/whatsapp", provisionHandler.RequestLinkCode)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetUserCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Payables and receivables
	mountBills(protected.Group("/payables"), payableHandler)
	mountBills(protected.Group("/receivables"), receivableHandler)

	// Reminder routes
	reminders := protected.Group("/reminders")
	reminders.POST("", reminderHandler.CreateReminder)
	reminders.GET("", reminderHandler.GetUserReminders)
	reminders.GET("/:id", reminderHandler.GetReminderByID)
	reminders.PUT("/:id", reminderHandler.UpdateReminder)
	reminders.DELETE("/:id", reminderHandler.DeleteReminder)
	reminders.POST("/:id/complete", reminderHandler.CompleteReminder)

	// Goal routes
	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.GetUserGoals)
	goals.GET("/:id", goalHandler.GetGoalByID)
	goals.PUT("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.POST("/:id/contributions", goalHandler.Contribute)
	goals.GET("/:id/contributions", goalHandler.GetContributions)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/summary", reportHandler.GetSummary)
	reports.GET("/monthly", reportHandler.GetMonthly)
	reports.GET("/categories", reportHandler.GetByCategory)

	// Chat history
	protected.GET("/messages", messageHandler.GetUserMessages)

	return router
}

func mountBills(g *gin.RouterGroup, h *handlers.BillHandler) {
	g.POST("", h.CreateBill)
	g.GET("", h.GetUserBills)
	g.GET("/:id", h.GetBillByID)
	g.PUT("/:id", h.UpdateBill)
	g.DELETE("/:id", h.DeleteBill)
	g.POST("/:id/pay", h.PayBill)
}

// cors allows browser clients from any origin.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
