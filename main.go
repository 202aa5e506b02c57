package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trainingCoachAPI/handlers"
	"trainingCoachAPI/internal/config"
	"trainingCoachAPI/internal/logger"
	"trainingCoachAPI/internal/notification"
	"trainingCoachAPI/middleware"
	"trainingCoachAPI/services"
)

func main() {
	cfg, foundDotEnv, err := config.Load()
	if err != nil {
		// No logger yet: config decides the log mode.
		panic(err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if !foundDotEnv {
		log.Info("No .env file found, using process environment")
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Info("Clerk initialized")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := connectDB(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to connect to database", "error", err)
	}
	defer func() {
		log.Info("Closing database connection pool")
		dbPool.Close()
	}()
	log.Info("Connected to database")

	streakStore := services.NewPostgresStreakStore(dbPool)
	if err := streakStore.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare streak schema", "error", err)
	}

	streakService := services.NewStreakService(streakStore, streakStore, log)
	streakService.SetMaxRetries(cfg.StreakMaxRetries)

	fcmService, err := notification.NewFCMService(ctx, cfg.FCMCredentialsFile, log)
	if err != nil {
		log.Warn("Could not initialize FCM, streak pushes disabled", "error", err)
	} else {
		push := services.NewPushStreakNotifier(services.NewPostgresDeviceTokens(dbPool), fcmService, log)
		dispatcher := services.NewNotificationDispatcher(push, cfg.NotifyWorkers, cfg.NotifyQueueSize, log)
		defer dispatcher.Stop()
		streakService.SetNotifier(dispatcher)
		log.Info("FCM push provider initialized", "workers", cfg.NotifyWorkers)
	}

	middleware.InitPrometheus(prometheus.DefaultRegisterer)
	services.InitStreakMetrics(prometheus.DefaultRegisterer)

	activitySource := services.NewPostgresActivitySource(dbPool)
	if err := activitySource.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to prepare activity log schema", "error", err)
	}

	streakHandler := handlers.NewStreakHandler(streakService, activitySource, log)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.CleanupVisitors(ctx)

	r := mux.NewRouter()
	r.Use(rateLimiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := dbPool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "training-coach-api"}`))
	}).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user/streak", streakHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/user/streak/activity", streakHandler.RecordActivity).Methods("POST")
	protected.HandleFunc("/user/streak/rest-checkin", streakHandler.RecordRestCheckIn).Methods("POST")
	protected.HandleFunc("/user/streak/resync", streakHandler.ResyncHistory).Methods("POST")

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)

	server := http.Server{
		Addr:         cfg.Addr(),
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", "error", err)
	}

	log.Info("Server shutdown complete")
}

func connectDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MinConns = cfg.DBMinConns
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
