package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/soinechankit/Soinech-CRM/docs"
	"github.com/soinechankit/Soinech-CRM/internal/config"
	"github.com/soinechankit/Soinech-CRM/internal/handlers"
	"github.com/soinechankit/Soinech-CRM/internal/logger"
	"github.com/soinechankit/Soinech-CRM/internal/middleware"
	"github.com/soinechankit/Soinech-CRM/internal/pdf"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
	"github.com/soinechankit/Soinech-CRM/internal/routes"
	"github.com/soinechankit/Soinech-CRM/internal/scheduler"
	"github.com/soinechankit/Soinech-CRM/internal/services"
)

func init() {
	// money travels as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// Services is everything the HTTP surface, the scheduler and the CLI share.
type Services struct {
	Leads         *services.LeadService
	Deals         *services.DealService
	FollowUps     *services.FollowUpService
	Tasks         services.TaskService
	Catalog       *services.CatalogService
	Proposals     *services.ProposalService
	Reports       *services.ReportService
	Notifications *services.NotificationService
	Profiles      *services.ProfileService
	TelegramLinks *services.TelegramLinkService
	Telegram      *services.TelegramService
}

// Build wires repositories and services on db. Telegram and email are only
// attached when enabled in cfg.
func Build(db *sql.DB, cfg *config.Config, log *logger.Logger) (*Services, error) {
	leadRepo := repositories.NewLeadRepository(db)
	dealRepo := repositories.NewDealRepository(db)
	noteRepo := repositories.NewLeadNoteRepository(db)
	followUpRepo := repositories.NewFollowUpRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	serviceRepo := repositories.NewServiceRepository(db)
	proposalRepo := repositories.NewProposalRepository(db)
	profileRepo := repositories.NewProfileRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	linkRepo := repositories.NewTelegramLinkRepository(db)

	var channels []services.Channel
	if cfg.Email.Enabled {
		mail := services.NewEmailService(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPassword,
			cfg.Email.FromEmail,
		)
		channels = append(channels, services.EmailChannel{Mail: mail})
	}

	var tg *services.TelegramService
	if cfg.Telegram.Enabled {
		var err error
		tg, err = services.NewTelegramService(cfg.Telegram.BotToken, log)
		if err != nil {
			return nil, err
		}
		channels = append(channels, services.TelegramChannel{TG: tg})
	}

	notifications := services.NewNotificationService(notificationRepo, profileRepo, log, channels...)
	followUps := services.NewFollowUpService(followUpRepo, notifications, log)

	fontPath := cfg.PDF.FontPath
	if fontPath != "" {
		if _, err := os.Stat(fontPath); err != nil {
			log.Warnf("[pdf] font %s not usable (%v), falling back to Helvetica", fontPath, err)
			fontPath = ""
		}
	}
	gen := pdf.NewProposalGenerator(fontPath, cfg.PDF.CompanyName)

	s := &Services{
		Leads:         services.NewLeadService(leadRepo, dealRepo, noteRepo, notifications, log),
		Deals:         services.NewDealService(dealRepo, log),
		FollowUps:     followUps,
		Tasks:         services.NewTaskService(taskRepo, notifications, log),
		Catalog:       services.NewCatalogService(serviceRepo),
		Proposals:     services.NewProposalService(proposalRepo, serviceRepo, leadRepo, dealRepo, gen, log),
		Reports:       services.NewReportService(leadRepo, dealRepo, followUpRepo),
		Notifications: notifications,
		Profiles:      services.NewProfileService(profileRepo),
		Telegram:      tg,
	}
	if tg != nil {
		s.TelegramLinks = services.NewTelegramLinkService(tg, linkRepo, profileRepo, followUps, log)
	}
	return s, nil
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg *config.Config, s *Services, health gin.HandlerFunc, log *logger.Logger) (*gin.Engine, error) {
	gin.SetMode(cfg.Server.Mode)
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(log))
	router.Use(corsMiddleware())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	profiles := handlers.NewProfileHandler(s.Profiles, log)
	routes.SetupRoutes(router, routes.Handlers{
		Lead:         handlers.NewLeadHandler(s.Leads, log),
		Deal:         handlers.NewDealHandler(s.Deals, log),
		FollowUp:     handlers.NewFollowUpHandler(s.FollowUps, log),
		Task:         handlers.NewTaskHandler(s.Tasks, log),
		Catalog:      handlers.NewCatalogHandler(s.Catalog, log),
		Proposal:     handlers.NewProposalHandler(s.Proposals, log),
		Report:       handlers.NewReportHandler(s.Reports, log),
		Notification: handlers.NewNotificationHandler(s.Notifications, log),
		Profile:      profiles,
		Integrations: handlers.NewIntegrationsHandler(s.TelegramLinks, log),
		Health:       health,
		Identity:     profiles.EnsureProfile,
	}, routes.Limits{
		Import:    middleware.NewRateLimiter(cfg.Import.PerSecond, cfg.Import.Burst),
		Broadcast: middleware.NewRateLimiter(cfg.Broadcast.PerSecond, cfg.Broadcast.Burst),
	}, []byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer)
	return router, nil
}

// Run serves HTTP and runs the reminder job until ctx is cancelled or the
// process receives SIGINT/SIGTERM.
func Run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, err := OpenDB(ctx, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Errorf("[db] close: %v", err)
		}
	}()
	if err := Migrate(ctx, db, "up", log); err != nil {
		return err
	}

	s, err := Build(db, cfg, log)
	if err != nil {
		return err
	}
	if s.Telegram != nil && cfg.Telegram.WebhookURL != "" {
		if err := s.Telegram.SetWebhook(cfg.Telegram.WebhookURL); err != nil {
			log.WithError(err).Warnf("[tg] webhook not registered")
		}
	}

	router, err := NewRouter(cfg, s, handlers.Health(db), log)
	if err != nil {
		return err
	}

	sched := scheduler.New(log)
	if cfg.Reminders.Enabled {
		if err := sched.AddJob(&scheduler.ReminderJob{Sender: s.FollowUps, Spec: cfg.Reminders.Spec, Log: log}); err != nil {
			return err
		}
	}
	sched.Start()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.Addr(), Handler: router}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("server listening on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		sched.Stop(context.Background())
		return err
	case <-ctx.Done():
	}

	log.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	sched.Stop(shutdownCtx)
	return srv.Shutdown(shutdownCtx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
