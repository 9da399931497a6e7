package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/config"
	"github.com/yeremiapane/snooker-cafe/controllers"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/metrics"
	"github.com/yeremiapane/snooker-cafe/middlewares"
	"github.com/yeremiapane/snooker-cafe/services"
	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Services *services.Services
	Hub      *live.Hub
	Config   config.Config
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.Config.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(d.Config.RateLimitPerSecond, 0).RateLimit())

	// controllers
	tableCtrl := controllers.NewTableController(d.DB, d.Hub)
	sessionCtrl := controllers.NewSessionController(d.Services.Sessions)
	billCtrl := controllers.NewBillController(d.Services.Bills, d.Config.CurrencySymbol, d.Config.UPIPayeeID, d.Config.UPIPayeeName)
	queueCtrl := controllers.NewQueueController(d.Services.Queue)
	reservationCtrl := controllers.NewReservationController(d.Services.Reservations)
	menuCtrl := controllers.NewMenuController(d.DB)
	customerCtrl := controllers.NewCustomerController(d.DB, d.Services.Wallets, d.Config.CurrencySymbol)
	liveCtrl := controllers.NewLiveController(d.Hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())
	r.GET("/ws", middlewares.WebSocketMiddleware(), liveCtrl.LiveHandler)

	// GAMES & TABLES
	r.GET("/games", tableCtrl.GetAllGames)
	r.POST("/games", tableCtrl.CreateGame)
	r.GET("/tables", tableCtrl.GetAllTables)
	r.POST("/tables", tableCtrl.CreateTable)
	r.PATCH("/tables/:id", tableCtrl.UpdateTable)

	// SESSIONS
	active := r.Group("/activetables")
	{
		active.GET("", sessionCtrl.GetActiveTables)
		active.POST("/start", sessionCtrl.StartSession)
		active.POST("/stop", sessionCtrl.StopSession)
		active.GET("/:id", sessionCtrl.GetActiveTable)
		active.PUT("/:id", sessionCtrl.UpdateActiveTable)
		active.GET("/:id/estimate", sessionCtrl.GetEstimate)
		active.GET("/:id/early-exit", sessionCtrl.GetEarlyExit)
	}

	// BILLS
	r.POST("/bills/create", billCtrl.CreateBill)
	r.GET("/bills", billCtrl.GetBills)
	r.GET("/bills/:id", billCtrl.GetBillByID)
	r.GET("/bills/:id/upi-qr", billCtrl.GetUPIQR)

	// QUEUE
	r.GET("/queue", queueCtrl.GetQueue)
	r.POST("/queue", queueCtrl.AddToQueue)
	r.DELETE("/queue/:id", queueCtrl.CancelQueue)

	// RESERVATIONS
	r.GET("/reservations", reservationCtrl.GetReservations)
	r.POST("/reservations", reservationCtrl.CreateReservation)
	r.POST("/reservations/check-conflict", reservationCtrl.CheckConflict)
	r.POST("/reservations/:id/cancel", reservationCtrl.CancelReservation)

	// MENU
	r.GET("/menu", menuCtrl.GetAllMenus)
	r.POST("/menu", menuCtrl.CreateMenu)
	r.PATCH("/menu/:id", menuCtrl.UpdateMenu)

	// CUSTOMERS & WALLETS
	r.GET("/customers", customerCtrl.GetAllCustomers)
	r.POST("/customers", customerCtrl.CreateCustomer)
	r.GET("/customers/:id", customerCtrl.GetCustomerByID)
	r.GET("/customers/:id/wallet", customerCtrl.GetWallet)
	r.POST("/customers/:id/wallet/topup", customerCtrl.TopUpWallet)

	return r
}
