package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Builder-Lawyers/mail-relay/internal/application"
	"github.com/Builder-Lawyers/mail-relay/internal/application/commands"
	"github.com/Builder-Lawyers/mail-relay/internal/application/interfaces"
	"github.com/Builder-Lawyers/mail-relay/internal/application/query"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/auth"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/config"
	migrations "github.com/Builder-Lawyers/mail-relay/internal/infra/db"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/db/repo"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/dns"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/identity"
	"github.com/Builder-Lawyers/mail-relay/internal/infra/metrics"
	"github.com/Builder-Lawyers/mail-relay/internal/presentation/rest"
	"github.com/Builder-Lawyers/mail-relay/internal/presentation/scheduler"
	"github.com/Builder-Lawyers/mail-relay/pkg/db"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func Init() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel()})))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Configs
	provisionConfig := config.NewProvisionConfig()
	registrarConfig := config.NewRegistrarConfig()
	authConfig := config.NewAuthConfig()
	httpConfig := config.NewHTTPConfig()

	// DB
	dbConfig := db.NewConfig()
	if err := migrations.Migrate(dbConfig.GetDSN()); err != nil {
		log.Panicf("failed to migrate db: %v", err)
	}
	pool, err := db.NewPool(ctx, dbConfig)
	if err != nil {
		log.Panic(err)
	}
	uowFactory := db.NewUoWFactory(pool)
	domainRepo := repo.NewDomainRepo(pool)

	// AWS
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(provisionConfig.Region))
	if err != nil {
		log.Panic("can't load aws config", err)
	}
	sesIdentity := identity.NewSESIdentity(cfg)
	registrar := newRegistrar(registrarConfig, cfg)
	slog.Info("dns registrar selected", "registrar", registrar.Name(), "enabled", registrar.Enabled())

	verifier, err := auth.NewVerifier(ctx, authConfig)
	if err != nil {
		log.Panicf("failed to set up auth: %v", err)
	}

	m := metrics.New()
	reconciler := commands.NewReconciler(registrar, provisionConfig.CallTimeout, provisionConfig.PreDelay, m)
	handlers := &application.Handlers{
		ProvisionDomain:   commands.NewProvisionDomain(provisionConfig, domainRepo, sesIdentity, reconciler, m),
		SyncDNS:           commands.NewSyncDNS(provisionConfig, domainRepo, reconciler),
		CheckVerification: commands.NewCheckVerification(provisionConfig, domainRepo, sesIdentity, m),
		DeleteDomain:      commands.NewDeleteDomain(uowFactory),
		GetDomain:         query.NewGetDomain(domainRepo),
		ListDomains:       query.NewListDomains(domainRepo),
	}

	app := fiber.New(fiber.Config{
		IdleTimeout: 5 * time.Second,
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: httpConfig.CORSOrigins,
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	rest.RegisterHandlers(app, rest.NewServer(handlers), verifier.Middleware(), auth.RequireRole(authConfig.MaintenanceRole), m)

	poller := scheduler.NewVerificationPoller(handlers.CheckVerification, provisionConfig.VerifyInterval)
	go poller.Start()

	go func() {
		if err := app.Listen(httpConfig.Addr); err != nil {
			log.Panic(err)
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c
	slog.Info("Gracefully shutting down...")
	_ = app.ShutdownWithTimeout(10 * time.Second)
	poller.Stop()

	slog.Info("Running cleanup tasks...")
	cancel()
	uowFactory.Pool.Close()
	slog.Info("Fiber was successfully shutdown.")
}

func newRegistrar(cfg *config.RegistrarConfig, awsCfg aws.Config) interfaces.Registrar {
	retry := dns.RetryPolicy{
		MaxRetries: uint64(max(cfg.Retries, 0)),
		BaseDelay:  cfg.BaseDelay,
		MaxJitter:  cfg.MaxJitter,
	}
	switch cfg.Kind {
	case config.RegistrarDigitalOcean:
		return dns.NewDigitalOcean(cfg.DigitalOceanToken, retry)
	case config.RegistrarRoute53:
		return dns.NewRoute53(awsCfg, retry)
	default:
		return dns.Disabled{}
	}
}
