package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "overcooked-admin/admin-svc/internal/api/http"
	"overcooked-admin/admin-svc/internal/auth"
	"overcooked-admin/admin-svc/internal/cache"
	"overcooked-admin/admin-svc/internal/client"
	"overcooked-admin/admin-svc/internal/domain"
	"overcooked-admin/admin-svc/internal/events"
	"overcooked-admin/admin-svc/internal/form"
	"overcooked-admin/admin-svc/internal/service"
	"overcooked-admin/admin-svc/internal/storage"
	"overcooked-admin/config"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const mutationsTopic = "admin.mutations"

func main() {
	config.Load()
	logger := config.NewLogger(config.GetString("ENV", "development"))
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatalw("admin-svc stopped", "error", err)
	}
}

func run(logger *zap.SugaredLogger) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	instance := config.InstanceName()
	origin := instance + "-" + uuid.NewString()[:8]
	httpClient := &http.Client{Timeout: config.GetDuration("API_TIMEOUT", 30*time.Second)}
	api := client.New(config.GetString("API_BASE_URL", "http://localhost:4000"), httpClient)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cacheMetrics := cache.NewMetrics(reg)

	cacheTTL := config.GetDuration("CACHE_TTL", 10*time.Minute)
	var listCache cache.Cache = cache.NewMemory(cacheMetrics, cacheTTL)
	if config.GetString("CACHE_BACKEND", "memory") == "redis" {
		rdb := config.MustInitRedis(logger)
		defer rdb.Close()
		listCache = cache.NewRedis(rdb, cacheTTL, cacheMetrics, logger)
	}

	var audit *storage.AuditRepository
	if config.GetBool("AUDIT_ENABLED", false) {
		db := config.MustInitPostgres(logger)
		defer db.Close()
		audit = storage.NewAuditRepository(db)
		if err := audit.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	var consumer *events.Consumer
	coordinator := cache.NewCoordinator(listCache, nil, nil, cacheMetrics, logger, origin)
	if audit != nil {
		coordinator.Audit = audit
	}
	if config.GetBool("KAFKA_ENABLED", false) {
		writer := config.NewKafkaWriter(mutationsTopic)
		defer writer.Close()
		coordinator.Publisher = events.NewKafkaPublisher(writer)

		// every instance has its own group so each one sees every event
		reader := config.NewKafkaReader(mutationsTopic, consumerGroup(instance))
		defer reader.Close()
		consumer = events.NewConsumer(reader, coordinator, logger)
	}

	var uploader client.Uploader = api
	if config.GetString("UPLOAD_BACKEND", "api") == "s3" {
		s3cfg := storage.S3Config{
			Region:          config.GetString("S3_REGION", "us-east-1"),
			Bucket:          config.GetString("S3_BUCKET", ""),
			Endpoint:        config.GetString("S3_ENDPOINT", ""),
			AccessKeyID:     config.GetString("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: config.GetString("S3_SECRET_ACCESS_KEY", ""),
			PathStyle:       config.GetBool("S3_PATH_STYLE", false),
			PublicBaseURL:   config.GetString("S3_PUBLIC_URL", ""),
			Prefix:          config.GetString("S3_PREFIX", "dashboard"),
		}
		s3Client, err := storage.NewS3Client(ctx, s3cfg)
		if err != nil {
			return err
		}
		uploader = storage.NewS3Uploader(s3Client, s3cfg.Bucket, s3cfg.PublicBaseURL, s3cfg.Prefix)
	}

	forms := form.NewRegistry()
	qr := service.DefaultQRGenerator{BaseURL: config.GetString("STOREFRONT_URL", "http://localhost:3000")}
	catalog := service.NewCatalogService(api, listCache, coordinator, qr, logger)
	editor := service.NewEditorService(api, coordinator, uploader, catalog, forms, logger)

	var auditLog service.AuditLister = emptyAudit{}
	if audit != nil {
		auditLog = audit
	}

	firebase := auth.FirebaseConfig{
		APIKey:    config.GetString("FIREBASE_API_KEY", ""),
		ProjectID: config.GetString("FIREBASE_PROJECT_ID", ""),
	}
	verifier := auth.NewVerifier(firebase.ProjectID, auth.NewGoogleCertSource(httpClient))
	newProvider := func() auth.Provider {
		return auth.NewFirebaseProvider(firebase, httpClient, verifier)
	}
	sessions := auth.NewManager(ctx, newProvider, forms, config.GetDuration("SESSION_IDLE_TIMEOUT", 12*time.Hour), logger)
	sessions.Secure = config.GetBool("COOKIE_SECURE", false)
	go sessions.Run(ctx, time.Minute)

	if consumer != nil {
		go consumer.Start(ctx)
	}

	handler := httpapi.NewHandler(catalog, editor, service.NewAuditService(auditLog), sessions, logger)
	router := httpapi.NewRouter(handler, httpapi.RouterConfig{
		AllowedOrigins: config.GetList("CORS_ALLOWED_ORIGINS", nil),
		Metrics:        httpapi.NewRequestMetrics(reg),
		Gatherer:       reg,
	})
	srv := httpapi.NewServer(":"+config.GetString("PORT", "8080"), router)

	shutdown := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		logger.Infow("signal caught", "signal", s.String())
		stop()
		sessions.Close()
		shutdown <- srv.Shutdown(shutdownCtx)
	}()

	logger.Infow("admin-svc started", "addr", srv.Addr, "origin", origin)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdown; err != nil {
		return err
	}
	logger.Infow("admin-svc stopped", "addr", srv.Addr)
	return nil
}

// emptyAudit serves the audit endpoint when no audit database is configured.
type emptyAudit struct{}

func (emptyAudit) List(context.Context, string, int) ([]domain.AuditEntry, error) {
	return nil, nil
}

// consumerGroup is stable across restarts so the broker keeps one group per
// instance.
func consumerGroup(instance string) string {
	return "admin-svc-" + instance
}
