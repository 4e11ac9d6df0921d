package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/joaofarinelli/we-crm-sub002/internal/auth"
	authhandler "github.com/joaofarinelli/we-crm-sub002/internal/auth/handler"
	"github.com/joaofarinelli/we-crm-sub002/internal/auth/jwt"
	authrepo "github.com/joaofarinelli/we-crm-sub002/internal/auth/repository"
	authservice "github.com/joaofarinelli/we-crm-sub002/internal/auth/service"
	"github.com/joaofarinelli/we-crm-sub002/internal/company"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/events"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/handler"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/repository"
	"github.com/joaofarinelli/we-crm-sub002/internal/crm/service"
	"github.com/joaofarinelli/we-crm-sub002/internal/permissions"
	"github.com/joaofarinelli/we-crm-sub002/internal/realtime"
	"github.com/joaofarinelli/we-crm-sub002/pkg/config"
	"github.com/joaofarinelli/we-crm-sub002/pkg/database"
	"github.com/joaofarinelli/we-crm-sub002/pkg/httputil"
	"github.com/joaofarinelli/we-crm-sub002/pkg/i18n"
	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("crm-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("crm-server", cfg.Server.Environment)
	log.Info().Msg("starting CRM server")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Change event publisher
	publisher, err := events.NewChangePublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create change publisher")
	}

	// Identity stack
	jwtManager := jwt.NewManager(&cfg.JWT)
	accountRepo := authrepo.NewAccountRepository(db)
	sessionRepo := authrepo.NewSessionRepository(db)
	companyRepo := company.NewRepository(db)
	resolver := company.NewResolver(companyRepo, log.Logger)
	permsRepo := permissions.NewRepository(db)
	evaluator := permissions.NewEvaluator(permsRepo, log.Logger)
	authService := authservice.NewAuthService(accountRepo, sessionRepo, resolver, evaluator, jwtManager, log)

	// CRM repositories
	leadRepo := repository.NewLeadRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	pipelineRepo := repository.NewPipelineRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)
	scriptRepo := repository.NewScriptRepository(db)
	productRepo := repository.NewProductRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Realtime hub fed by the crm.events exchange
	hub := realtime.NewHub(log)

	// CRM services
	auditService := service.NewAuditService(auditRepo, log)
	leadService := service.NewLeadService(leadRepo, followUpRepo, publisher, auditService, log)
	pipelineService := service.NewPipelineService(pipelineRepo, leadRepo, publisher, auditService, log)
	apptService := service.NewAppointmentService(apptRepo, publisher, auditService, log)
	meetingService := service.NewMeetingService(meetingRepo, apptRepo, publisher, auditService, log)
	partnerService := service.NewPartnerService(partnerRepo, publisher, auditService, log)
	scriptService := service.NewScriptService(scriptRepo, publisher, auditService, log)
	productService := service.NewProductService(productRepo, publisher, auditService, log)
	teamService := service.NewTeamService(profileRepo, roleRepo, permsRepo, evaluator, resolver, publisher, auditService, log)
	dashboardService := service.NewDashboardService(leadRepo, apptRepo, followUpRepo, hub, log)
	defer dashboardService.Close()
	exportService := service.NewExportService(leadRepo, apptRepo, auditService, log)

	// Handlers
	authHandler := authhandler.NewAuthHandler(authService, log)
	leadHandler := handler.NewLeadHandler(leadService, log)
	pipelineHandler := handler.NewPipelineHandler(pipelineService, log)
	apptHandler := handler.NewAppointmentHandler(apptService, log)
	meetingHandler := handler.NewMeetingHandler(meetingService, log)
	partnerHandler := handler.NewPartnerHandler(partnerService, log)
	scriptHandler := handler.NewScriptHandler(scriptService, log)
	productHandler := handler.NewProductHandler(productService, log)
	teamHandler := handler.NewTeamHandler(teamService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, auditService, log)
	exportHandler := handler.NewExportHandler(exportService, log)
	feed := realtime.NewFeed(hub, &cfg.Realtime, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Wire the hub to the bus; delivery runs on the consumer's goroutine
	if err := hub.Start(ctx, rmq); err != nil {
		log.Fatal().Err(err).Msg("failed to start realtime hub")
	}

	// Router
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(i18n.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Accept-Language"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "crm-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Route("/auth", authHandler.Routes)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtManager))

			// Available before company onboarding completes
			r.Get("/auth/me", authHandler.Me)

			// Everything below requires an active membership
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireCompany)

				r.Route("/leads", leadHandler.Routes)
				r.Route("/pipeline/columns", pipelineHandler.Routes)
				r.Route("/appointments", apptHandler.Routes)
				r.Route("/meetings", meetingHandler.Routes)
				r.Route("/partners", partnerHandler.Routes)
				r.Route("/scripts", scriptHandler.Routes)
				r.Route("/products", productHandler.Routes)
				r.Route("/team", teamHandler.Routes)
				r.Route("/dashboard", dashboardHandler.Routes)
				r.Route("/export", exportHandler.Routes)

				r.Method(http.MethodGet, "/realtime/feed", feed)
			})
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the hub consumer and live collections first
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
