package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"bjjvisits-backend/internal/config"
	"bjjvisits-backend/internal/container"
	"bjjvisits-backend/internal/handler"
	"bjjvisits-backend/internal/middleware"
	"bjjvisits-backend/pkg/database"
	"bjjvisits-backend/pkg/logger"
	"bjjvisits-backend/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	db          *database.PostgresDB
	redisClient *redis.Client
	server      *http.Server
	log         *logger.Logger
	mu          sync.Mutex
	closed      bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errs = append(errs, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed")
		}
	}

	if r.db != nil {
		r.db.Close()
		r.log.Info("Database connection pool closed")
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting bjjvisits-backend server")

	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(cfg.RedisURL, cfg.Environment, log.Logger)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
	}

	app, err := container.New(cfg, log, db, redisClient)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	router := setupRouter(app)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		db:          db,
		redisClient: redisClient,
		server:      server,
		log:         log,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(app *container.Container) *chi.Mux {
	cfg := app.GetConfig()
	log := app.GetLogger()
	authService := app.GetAuthService()

	r := chi.NewRouter()

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(app)
	visitHandler := handler.NewVisitHandler(app)
	voucherHandler := handler.NewVoucherHandler(app)
	adminHandler := handler.NewAdminHandler(app)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// Salesperson routes (require authentication)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(authService, log))

			r.Get("/auth/profile", authHandler.GetProfile)

			r.Route("/visits", func(r chi.Router) {
				r.Get("/can-start", visitHandler.CanStart)
				r.Get("/session", visitHandler.OpenSession)
				r.Post("/start", visitHandler.Start)
				r.Put("/draft", visitHandler.UpdateDraft)
				r.Delete("/draft", visitHandler.DiscardDraft)
				r.Post("/vouchers", visitHandler.AdjustVouchers)
				r.Post("/vouchers/confirm", visitHandler.ConfirmVouchers)
				r.Post("/vouchers/back", visitHandler.BackToActive)
				r.Post("/finish", visitHandler.Finish)
				r.Post("/complete", visitHandler.Complete)

				r.Get("/{visitID}", visitHandler.Get)
				r.Put("/{visitID}", visitHandler.Edit)
				r.Get("/{visitID}/vouchers", voucherHandler.ListByVisit)
				r.Get("/{visitID}/redemption", voucherHandler.Redemption)
				r.Get("/{visitID}/redemption/qr", voucherHandler.RedemptionQR)
			})

			r.Route("/events/{eventID}", func(r chi.Router) {
				r.Get("/visits", visitHandler.ListByEvent)
				r.Get("/vouchers", voucherHandler.ListByEvent)
			})
		})

		// Back-office routes (require administrator role)
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.Auth(authService, log))
			r.Use(middleware.AdminOnly(log))

			r.Get("/academies", adminHandler.ListAcademies)
			r.Post("/academies", adminHandler.CreateAcademy)
			r.Put("/academies/{academyID}", adminHandler.UpdateAcademy)
			r.Delete("/academies/{academyID}", adminHandler.DeleteAcademy)

			r.Get("/events", adminHandler.ListEvents)
			r.Post("/events", adminHandler.CreateEvent)
			r.Put("/events/{eventID}", adminHandler.UpdateEvent)
			r.Delete("/events/{eventID}", adminHandler.DeleteEvent)

			r.Get("/finance", adminHandler.ListFinanceRecords)
			r.Post("/finance", adminHandler.CreateFinanceRecord)
			r.Put("/finance/{recordID}", adminHandler.UpdateFinanceRecord)
			r.Delete("/finance/{recordID}", adminHandler.DeleteFinanceRecord)

			r.Get("/users", adminHandler.ListUsers)
			r.Post("/users", adminHandler.CreateUser)
			r.Put("/users/{userID}", adminHandler.UpdateUser)
			r.Delete("/users/{userID}", adminHandler.DeleteUser)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"Route not found"}}`))
	})

	return r
}
