package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/yutoapp/yuto/docs"
	"github.com/yutoapp/yuto/internal/config"
	"github.com/yutoapp/yuto/internal/database"
	"github.com/yutoapp/yuto/internal/group"
	"github.com/yutoapp/yuto/internal/notification"
	"github.com/yutoapp/yuto/internal/payment"
	"github.com/yutoapp/yuto/internal/plan"
	"github.com/yutoapp/yuto/internal/realtime"
	"github.com/yutoapp/yuto/internal/user"
	"github.com/yutoapp/yuto/internal/waitlist"
	"github.com/yutoapp/yuto/pkg/logging"
	mw "github.com/yutoapp/yuto/pkg/middleware"
)

// @title        Yuto API
// @version      1.0
// @description  Split rides and plans with friends, settle via M-PESA.
// @BasePath     /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("connected to database")

	// In-process change bus; Postgres NOTIFY feeds it, SSE clients drain it
	bus := realtime.NewBus()

	listener, err := realtime.NewListener(cfg.DatabaseURL, cfg.RealtimeChannel, bus)
	if err != nil {
		slog.Error("failed to start change listener", "error", err)
		os.Exit(1)
	}
	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()
	go func() {
		if err := listener.Run(listenerCtx); err != nil && listenerCtx.Err() == nil {
			slog.Error("change listener stopped", "error", err)
		}
	}()

	// Notification feature
	notificationRepo := notification.NewRepository(db)
	sender := notification.NewHTTPSender(cfg.PushEndpoint, cfg.PushServerKey)
	notificationService := notification.NewService(notificationRepo, sender)
	notificationHandler := notification.NewHandler(notificationService)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo)
	userHandler := user.NewHandler(userService)

	// Group feature
	groupRepo := group.NewRepository(db)
	groupService := group.NewService(groupRepo, bus, notificationService)
	groupHandler := group.NewHandler(groupService)

	// Plan feature (promotes into groups)
	planRepo := plan.NewRepository(db)
	planService := plan.NewService(planRepo, groupService)
	planHandler := plan.NewHandler(planService)

	// Payment feature
	gateway := payment.NewClient(cfg.FlwBaseURL, cfg.FlwSecretKey)
	paymentService := payment.NewService(groupRepo, gateway, bus, notificationService, cfg.FlwVerifHash)
	paymentHandler := payment.NewHandler(paymentService)

	// Realtime feature
	realtimeHandler := realtime.NewHandler(bus)

	// Waitlist feature
	waitlistRepo := waitlist.NewRepository(db)
	waitlistService := waitlist.NewService(waitlistRepo)
	waitlistHandler := waitlist.NewHandler(waitlistService)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Gateway-facing endpoints keep their flat response shapes and live
	// outside the authenticated API: the webhook authenticates with the
	// verif-hash header, not a bearer token.
	r.Post("/charge", paymentHandler.Charge)
	r.Post("/webhook", paymentHandler.Webhook)
	r.Post("/notify", notificationHandler.Notify)

	// Public waitlist signup
	r.Mount("/waitlist", waitlistHandler.Routes())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.Auth(cfg.JWTSecret))

		groupRoutes := groupHandler.Routes()
		groupRoutes.Get("/{id}/events", realtimeHandler.GroupEvents)

		r.Mount("/users", userHandler.Routes())
		r.Mount("/groups", groupRoutes)
		r.Mount("/plans", planHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	slog.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
