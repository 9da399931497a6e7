package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/snooker-cafe/billing"
	"github.com/yeremiapane/snooker-cafe/config"
	"github.com/yeremiapane/snooker-cafe/database"
	"github.com/yeremiapane/snooker-cafe/live"
	"github.com/yeremiapane/snooker-cafe/router"
	"github.com/yeremiapane/snooker-cafe/services"
	"github.com/yeremiapane/snooker-cafe/utils"
)

func main() {
	cfg := config.Load()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize DB
	db, err := database.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}
	if err := database.Seed(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed: %v", err)
	}

	est := billing.NewEstimator(billing.RealClock{}, cfg.Billing)
	svc := services.New(db, est)
	hub := live.NewHub()

	changeMonitor := services.NewChangeMonitor(db, hub, cfg.ChangePollInterval)
	changeMonitor.Start()
	defer changeMonitor.Stop()

	autoBill := services.NewAutoBillMonitor(svc.Sessions, cfg.AutoBillInterval)
	autoBill.Start()
	defer autoBill.Stop()

	reservationMonitor := services.NewReservationMonitor(svc.Reservations, svc.Sessions, cfg.ReservationInterval)
	reservationMonitor.Start()
	defer reservationMonitor.Stop()

	r := router.SetupRouter(router.Deps{DB: db, Services: svc, Hub: hub, Config: cfg})
	r.SetTrustedProxies([]string{"127.0.0.1"})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}
	go func() {
		utils.InfoLogger.Printf("Listening on port %s (db=%s)", cfg.Port, cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.ErrorLogger.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.InfoLogger.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.ErrorLogger.Printf("Server shutdown: %v", err)
	}
}
