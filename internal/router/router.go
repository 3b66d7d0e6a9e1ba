package router

import (
	"time"

	"stayhub/internal/database"
	"stayhub/internal/handlers"
	"stayhub/internal/middleware"
	"stayhub/internal/models"
	"stayhub/internal/services"
	"stayhub/pkg/payment"
	"stayhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// SetupRouter 设置路由
func SetupRouter() *gin.Engine {
	router := gin.New()

	// 中间件
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.SetupCORS())

	// 注册路由
	registerRoutes(router)
	return router
}

// 注册所有路由
func registerRoutes(router *gin.Engine) {
	db := database.GetDB()

	userService := services.NewUserService(db)
	hostelService := services.NewHostelService(db)
	canteenService := services.NewCanteenService(db)
	notifyService := services.NewNotifyService(db, database.GetRedisQueue())

	verifier := payment.NewVerifierFromConfig()
	bookingService := services.NewBookingService(db, verifier, notifyService)
	contractService := services.NewContractService(db, notifyService)
	subscriptionService := services.NewSubscriptionService(db, verifier, notifyService)

	auth := middleware.NewAuthMiddleware(userService)

	// API路由组
	api := router.Group("/api/v1")
	{
		// 健康检查接口
		api.GET("/health", healthCheck)
		api.GET("/ping", ping)

		// 认证路由（无需登录）
		authHandler := handlers.NewAuthHandler(userService)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register) // 注册
			authGroup.POST("/login", authHandler.Login)       // 登录
			authGroup.GET("/me", auth.RequireLogin(), authHandler.Me)
		}

		// 宿舍与房间路由
		hostelHandler := handlers.NewHostelHandler(hostelService)
		hostels := api.Group("/hostels")
		{
			// 公开查询
			hostels.GET("", hostelHandler.GetAll)
			hostels.GET("/:id", hostelHandler.GetByID)
			hostels.GET("/:id/rooms", hostelHandler.GetRooms)

			// 房东管理
			hostels.POST("", auth.RequireLogin(), auth.RequireRole(models.RoleOwner), hostelHandler.Create)
			hostels.PUT("/:id", auth.RequireLogin(), auth.RequireRole(models.RoleOwner), hostelHandler.Update)
			hostels.POST("/:id/rooms", auth.RequireLogin(), auth.RequireRole(models.RoleOwner), hostelHandler.CreateRoom)
		}

		// 租客预订路由
		bookingHandler := handlers.NewBookingHandler(bookingService, contractService)
		tenant := api.Group("/tenant", auth.RequireLogin(), auth.RequireRole(models.RoleTenant))
		{
			tenant.POST("/create-booking-order", bookingHandler.CreateBookingOrder) // 创建支付订单
			tenant.POST("/book-room", bookingHandler.BookRoom)                      // 支付确认并生成合同
			tenant.GET("/contracts", bookingHandler.GetContracts)
			tenant.GET("/contracts/:id", bookingHandler.GetContract)
			tenant.POST("/contracts/:id/sign", bookingHandler.SignContract)
		}

		// 房东合同管理路由
		ownerHandler := handlers.NewOwnerHandler(bookingService, contractService)
		owner := api.Group("/owner", auth.RequireLogin(), auth.RequireRole(models.RoleOwner))
		{
			owner.GET("/hostels", hostelHandler.GetMine)
			owner.DELETE("/rooms/:id", hostelHandler.DeleteRoom)
			owner.GET("/tenants", ownerHandler.GetTenants) // 我名下的合同
			owner.POST("/tenants/:contractId/approve", ownerHandler.Approve)
			owner.POST("/tenants/:contractId/terminate", ownerHandler.Terminate)
			owner.POST("/contracts", ownerHandler.CreateDraft)
			owner.POST("/contracts/:id/submit", ownerHandler.SubmitForSignatures)
			owner.POST("/contracts/:id/sign", bookingHandler.SignContract)
		}

		// 食堂与订阅路由
		canteenHandler := handlers.NewCanteenHandler(canteenService, subscriptionService)
		canteen := api.Group("/canteen")
		{
			// 公开查询
			canteen.GET("", canteenHandler.GetAll)
			canteen.GET("/:id", canteenHandler.GetByID)

			// 商家管理
			canteen.POST("", auth.RequireLogin(), auth.RequireRole(models.RoleProvider), canteenHandler.Create)
			canteen.POST("/:id/plans", auth.RequireLogin(), auth.RequireRole(models.RoleProvider), canteenHandler.SetPlan)
		}

		// 租客订阅路由
		subscriptions := api.Group("/subscriptions", auth.RequireLogin(), auth.RequireRole(models.RoleTenant))
		{
			subscriptions.GET("", canteenHandler.GetSubscriptions)
			subscriptions.POST("/create-order", canteenHandler.CreateSubscriptionOrder)
			subscriptions.POST("/verify-payment", canteenHandler.VerifySubscriptionPayment)
			subscriptions.PUT("/:id/cancel", canteenHandler.CancelSubscription)
			subscriptions.PUT("/:id/pause", canteenHandler.PauseSubscription)
			subscriptions.PUT("/:id/resume", canteenHandler.ResumeSubscription)
		}

		// 通知路由
		notificationHandler := handlers.NewNotificationHandler(notifyService)
		notifications := api.Group("/notifications", auth.RequireLogin())
		{
			notifications.GET("", notificationHandler.GetAll)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}
	}

	// WebSocket通知推送（token通过查询参数传递）
	wsHandler := handlers.NewWebSocketHandler(userService)
	router.GET("/ws/notifications", wsHandler.Notifications)
}

func healthCheck(c *gin.Context) {
	data := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"service":   "StayHub",
		"version":   "1.0.0",
	}
	response.Success(c, data)
}

func ping(c *gin.Context) {
	response.SuccessWithMessage(c, "pong", nil)
}
