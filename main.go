// File: bikebooker/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bikebooker/config"
	"bikebooker/database"
	bookingRepoPkg "bikebooker/database/repository/booking"
	"bikebooker/handlers"
	"bikebooker/middleware"
	"bikebooker/routes"
	"bikebooker/services/booking"
	"bikebooker/services/geocode"
	"bikebooker/services/notification"
	"bikebooker/services/rental"
	"bikebooker/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitEventsClient()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()

	// external collaborators.
	rentalClient := rental.NewHTTPClient(config.AppConfig.RentalAPIBaseURL, config.AppConfig.RentalAPIToken)
	resolver := geocode.NewGoogleResolver(config.AppConfig.GoogleAPIKey)
	mailer := notification.NewHTTPMailer(config.AppConfig.MailAPIURL, config.AppConfig.MailAPIKey, config.AppConfig.MailSender)

	// services.
	dispatcher := notification.NewDefaultDispatcher(utils.GetEventsClient(), mailer, logger)

	engine := &booking.FulfillmentEngine{
		Repo:       bookingRepo,
		Rental:     rentalClient,
		Dispatcher: dispatcher,
		Config: booking.EngineConfig{
			MaxAttempts: config.AppConfig.MaxAttempts,
			Backoff:     time.Duration(config.AppConfig.BackoffSeconds) * time.Second,
			Selection: booking.SelectionCriteria{
				MinBatteryPercent: config.AppConfig.MinBatteryPercent,
				MaxDistanceMeters: config.AppConfig.MaxDistanceMeters,
			},
		},
		Logger: logger,
	}
	booking.InitFulfillmentWorker(engine)

	bookingService := &booking.DefaultBookingService{
		Repo:     bookingRepo,
		Resolver: resolver,
		Rental:   rentalClient,
		Queue:    booking.NewAsynqQueue(),
		Logger:   logger,
	}

	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	eventsHandler := handlers.NewEventsHandler(utils.GetEventsClient(), logger)

	routes.RegisterRoutes(router, bookingHandler, eventsHandler)

	utils.StartHealthMonitor(utils.GetEventsClient(), database.MongoClient)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on port %s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: forced shutdown: %v", err)
	}
	logger.Info("main: server exited")
}
