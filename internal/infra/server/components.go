package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/gzip"
	ginlogger "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.elastic.co/apm/module/apmgin"

	recordController "github.com/ghxstship/recordguard/internal/api/controllers/record"
	"github.com/ghxstship/recordguard/internal/config"
	"github.com/ghxstship/recordguard/internal/domain/flag"
	"github.com/ghxstship/recordguard/internal/domain/realtime"
	apmtracing "github.com/ghxstship/recordguard/internal/infra/apm/tracing"
	cronAudit "github.com/ghxstship/recordguard/internal/infra/cron/audit"
	esAudit "github.com/ghxstship/recordguard/internal/infra/elasticsearch/audit"
	"github.com/ghxstship/recordguard/internal/infra/elasticsearch/common"
	esRecord "github.com/ghxstship/recordguard/internal/infra/elasticsearch/record"
	"github.com/ghxstship/recordguard/internal/infra/server/binding/validation"
	"github.com/ghxstship/recordguard/internal/infra/server/routing"
	"github.com/ghxstship/recordguard/internal/infra/server/routing/changes"
	"github.com/ghxstship/recordguard/internal/infra/server/routing/flags"
	"github.com/ghxstship/recordguard/internal/infra/server/routing/records"
)

// Components holds the server's wired-up dependency graph
type Components struct {
	conf *config.App

	ginEngine *gin.Engine

	sweeper cronAudit.Sweeper
}

// NewComponents builds the full dependency graph based on the given config,
// checking that the Elasticsearch environment has been set up along the way
func NewComponents(conf *config.App) (*Components, error) {
	esClient, err := common.NewClient(conf.Elasticsearch)
	if err != nil {
		return nil, err
	}

	if err := NewSetup(esClient).Check(context.Background()); err != nil {
		return nil, err
	}

	recordsService := esRecord.NewService(esClient, conf.Records.Defaults)
	auditRecorder := esAudit.NewRecorder(esClient, conf.AuditRetention)
	changesHub := realtime.NewHub(conf.Changes.Buffer)
	flagsRegistry := flag.NewRegistry(domainFlags(conf.Flags))
	tracer := apmtracing.NewTracer()

	controller := recordController.New(recordsService, auditRecorder, changesHub, flagsRegistry)
	sweeper := cronAudit.NewSweeper(auditRecorder, conf.AuditRetention, tracer)

	validation.SetUpValidators()

	gin.SetMode(gin.ReleaseMode)
	ginEngine := gin.New()
	ginEngine.Use(
		ginlogger.SetLogger(),
		gin.Recovery(),
		gzip.Gzip(gzip.DefaultCompression),
		apmgin.Middleware(ginEngine),
	)

	topLevelGroup := routing.NewTopLevelRoutesGroup(conf.Auth, ginEngine)

	recordsRoutesHandler := records.RoutesHandler{Controller: controller}
	recordsRoutesHandler.RegisterRoutes(topLevelGroup)

	flagsRoutesHandler := flags.RoutesHandler{Flags: flagsRegistry}
	flagsRoutesHandler.RegisterRoutes(topLevelGroup)

	changesRoutesHandler := changes.RoutesHandler{Hub: changesHub, Flags: flagsRegistry}
	changesRoutesHandler.RegisterRoutes(topLevelGroup)

	ginEngine.NoRoute(routing.NoRoute)
	ginEngine.NoMethod(routing.NoMethod)

	return &Components{
		conf:      conf,
		ginEngine: ginEngine,
		sweeper:   sweeper,
	}, nil
}

// Run starts the audit sweeper and the HTTP server, blocking until a
// SIGINT or SIGTERM arrives, then shuts both down gracefully
func (c *Components) Run() {
	if err := c.sweeper.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start the audit retention sweeper")
	}

	httpServer := &http.Server{
		Addr:    c.conf.BindAddress,
		Handler: c.ginEngine,
	}

	go func() {
		log.Info().Str("address", c.conf.BindAddress).Msg("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutdown signal received")

	c.sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), c.conf.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server failed to shut down within the timeout")
	}
	log.Info().Msg("Server exited")
}

func domainFlags(confFlags []config.Flag) []flag.Flag {
	domain := make([]flag.Flag, 0, len(confFlags))
	for _, f := range confFlags {
		domain = append(domain, flag.Flag{
			Name:              flag.Name(f.Name),
			Enabled:           f.Enabled,
			RolloutPercentage: f.RolloutPercentage,
		})
	}
	return domain
}
