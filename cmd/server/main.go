package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rudigital/backend/docs"
	"github.com/rudigital/backend/internal/audit"
	"github.com/rudigital/backend/internal/config"
	"github.com/rudigital/backend/internal/database"
	"github.com/rudigital/backend/internal/events/kafka"
	"github.com/rudigital/backend/internal/handlers"
	"github.com/rudigital/backend/internal/ledger"
	mW "github.com/rudigital/backend/internal/middleware"
	"github.com/rudigital/backend/internal/services"
	"github.com/rudigital/backend/internal/storage/postgres"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title RU Digital API
// @version 1.0
// @description Carteira digital e cardápio do Restaurante Universitário
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	config.Init(".env")

	serverCfg := config.LoadServerConfig()
	walletCfg := config.LoadWalletConfig()
	ratingCfg := config.LoadRatingConfig()
	authCfg := config.LoadAuthConfig()
	kafkaCfg := config.LoadKafkaConfig()
	telemetryCfg := config.LoadTelemetryConfig()

	if err := walletCfg.Validate(); err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}
	if authCfg.JWTSecret == "" {
		log.Fatal("[CONFIG] AUTH_JWT_SECRET (or JWT_SECRET) must be set")
	}

	docs.SwaggerInfo.Host = "localhost:" + serverCfg.Port
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	ctx := context.Background()

	shutdownTelemetry, err := initTelemetry(ctx, telemetryCfg)
	if err != nil {
		log.Fatalf("[OTEL] Failed to initialize telemetry: %v", err)
	}

	db, err := database.Open(ctx, database.GetConfig())
	if err != nil {
		log.Fatalf("[DB] %v", err)
	}
	defer db.Close()

	if serverCfg.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("[DB] Migration failed: %v", err)
		}
	}

	redisClient := database.InitRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	engineOpts := []ledger.Option{
		ledger.WithAuditLogger(audit.NewLogger(os.Stdout)),
		ledger.WithMaxAmount(walletCfg.MaxTransaction),
		ledger.WithTimeout(walletCfg.LockTimeout),
	}
	if len(kafkaCfg.Brokers) > 0 {
		publisher := kafka.NewPublisher(kafkaCfg.Brokers, kafkaCfg.Topic)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Printf("[KAFKA] Failed to close publisher: %v", err)
			}
		}()
		engineOpts = append(engineOpts, ledger.WithPublisher(publisher))
		log.Printf("[KAFKA] Publishing ledger events to %q", kafkaCfg.Topic)
	}

	store := postgres.NewLedgerStore(db, walletCfg.LockTimeout)
	engine := ledger.NewEngine(store, engineOpts...)

	walletService := services.NewWalletService(store, engine, redisClient, walletCfg)
	ticketService := services.NewTicketService(redisClient, walletService, walletCfg)
	authService := services.NewAuthService(db, redisClient, authCfg)
	menuService := services.NewMenuService(db)
	ratingService := services.NewRatingService(db, ratingCfg)
	userService := services.NewUserService(db, authCfg.BcryptCost)

	walletHandler := handlers.NewWalletHandler(walletService)
	ticketHandler := handlers.NewTicketHandler(ticketService)
	authHandler := handlers.NewAuthHandler(authService)
	menuHandler := handlers.NewMenuHandler(menuService)
	ratingHandler := handlers.NewRatingHandler(ratingService)
	userHandler := handlers.NewUserHandler(userService)

	handlers.ExposeInternalErrors(serverCfg.IsDevelopment())

	r := chi.NewRouter()

	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(serverCfg.RequestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   serverCfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		code := http.StatusOK
		if err := db.PingContext(r.Context()); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status": status,
			"redis":  redisClient != nil,
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.NotFound(handlers.NotFound)
		r.MethodNotAllowed(handlers.MethodNotAllowed)

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/recuperar", authHandler.Recover)
		r.Post("/auth/redefinir", authHandler.Reset)

		r.Group(func(r chi.Router) {
			r.Use(mW.Auth(authService))

			r.Post("/auth/logout", authHandler.Logout)

			r.Get("/saldo", walletHandler.GetBalance)
			r.Post("/recarga", walletHandler.Recharge)
			r.Get("/extrato", walletHandler.GetHistory)

			r.Post("/ticket", ticketHandler.IssueTicket)

			r.Get("/cardapio", menuHandler.GetMenu)

			r.Get("/avaliacao", ratingHandler.GetRating)
			r.Post("/avaliacao", ratingHandler.SubmitRating)

			r.Route("/admin", func(r chi.Router) {
				r.Use(mW.Admin)

				r.Get("/cardapio", menuHandler.ListMenus)
				r.Post("/cardapio", menuHandler.CreateMenu)
				r.Put("/cardapio/{id}", menuHandler.UpdateMenu)
				r.Delete("/cardapio/{id}", menuHandler.DeactivateMenu)

				r.Get("/usuarios", userHandler.ListUsers)
				r.Put("/usuarios/{id}", userHandler.UpdateUser)

				r.Get("/avaliacoes", ratingHandler.Report)
				r.Get("/avaliacoes/export", ratingHandler.ExportReport)

				r.Post("/ticket/validar", ticketHandler.RedeemTicket)
			})
		})
	})

	r.Handle("/*", mW.StaticFileServer(serverCfg.StaticDir))

	server := &http.Server{
		Addr:         ":" + serverCfg.Port,
		Handler:      r,
		ReadTimeout:  serverCfg.ReadTimeout,
		WriteTimeout: serverCfg.WriteTimeout,
		IdleTimeout:  serverCfg.IdleTimeout,
	}

	go func() {
		log.Printf("Server starting on :%s (%s)", serverCfg.Port, serverCfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Printf("[OTEL] Shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
