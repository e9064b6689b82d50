package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	alertapp "farmpulse/internal/alerts/application"
	alerts "farmpulse/internal/alerts/domain"
	alertmemory "farmpulse/internal/alerts/infrastructure/memory"
	alertpostgres "farmpulse/internal/alerts/infrastructure/postgres"
	alerthttp "farmpulse/internal/alerts/interfaces/http"
	alertnotify "farmpulse/internal/alerts/notify"
	"farmpulse/internal/audit"
	"farmpulse/internal/auth"
	catalog "farmpulse/internal/catalog/domain"
	catalogimporter "farmpulse/internal/catalog/importer"
	catalogmemory "farmpulse/internal/catalog/infrastructure/memory"
	cataloghttp "farmpulse/internal/catalog/interfaces/http"
	cropapp "farmpulse/internal/cropstage/application"
	cropstage "farmpulse/internal/cropstage/domain"
	cropmemory "farmpulse/internal/cropstage/infrastructure/memory"
	croppostgres "farmpulse/internal/cropstage/infrastructure/postgres"
	crophttp "farmpulse/internal/cropstage/interfaces/http"
	evalapp "farmpulse/internal/evaluation/application"
	evalhttp "farmpulse/internal/evaluation/interfaces/http"
	"farmpulse/internal/eventbus"
	mdimporter "farmpulse/internal/masterdata/importer"
	mdmemory "farmpulse/internal/masterdata/infrastructure/memory"
	"farmpulse/internal/observability/metrics"
	readings "farmpulse/internal/readings/domain"
	readingmemory "farmpulse/internal/readings/infrastructure/memory"
	readingpostgres "farmpulse/internal/readings/infrastructure/postgres"
	"farmpulse/internal/readings/interfaces/ingest"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Masterdata is read-model only; it always lives in memory, seeded
	// from YAML.
	store := mdmemory.NewStore()
	farmIDs := loadMasterdata(store, cfg.MasterdataPath, logger)

	cropRepo := catalogmemory.NewCropRepository()
	loadCatalog(cropRepo, cfg, logger)

	var (
		zoneCropRepo cropstage.ZoneCropRepository
		readingRepo  readings.ReadingRepository
		alertRepo    alerts.AlertRepository
		auditRepo    *audit.Repository
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		zoneCropRepo = croppostgres.NewZoneCropRepository(db)
		readingRepo = readingpostgres.NewReadingRepository(db)
		alertRepo = alertpostgres.NewAlertRepository(db)
		auditRepo = audit.NewRepository(db)
		logger.Printf("storage: postgres")
	} else {
		zoneCropRepo = cropmemory.NewZoneCropRepository()
		readingRepo = readingmemory.NewReadingRepository()
		alertRepo = alertmemory.NewAlertRepository()
		logger.Printf("storage: in-memory (DATABASE_URL empty)")
	}

	evalCfg, err := evalapp.LoadConfig()
	if err != nil {
		logger.Fatalf("evaluation config error: %v", err)
	}
	if len(evalCfg.Farms) == 0 {
		evalCfg.Farms = farmIDs
	}

	var notifiers []alertapp.Notifier
	if evalCfg.WebhookURL != "" {
		channel, err := alertnotify.NewWebhookChannel(evalCfg.WebhookURL)
		if err != nil {
			logger.Fatalf("alert webhook error: %v", err)
		}
		tpl, err := alertnotify.NewTemplate(cfg.NotifyTemplate)
		if err != nil {
			logger.Fatalf("alert template error: %v", err)
		}
		notifier, err := alertnotify.NewNotifier(store, channel, tpl,
			alertnotify.WithCooldown(cfg.NotifyCooldown),
			alertnotify.WithDedupeWindow(cfg.NotifyDedupeWindow),
		)
		if err != nil {
			logger.Fatalf("alert notifier error: %v", err)
		}
		notifiers = append(notifiers, notifier)
	}

	ledger, err := alertapp.NewLedger(alertRepo,
		alertapp.WithNotifier(alertnotify.NewMultiNotifier(notifiers...)))
	if err != nil {
		logger.Fatalf("alert ledger error: %v", err)
	}

	progressService, err := cropapp.NewProgressService(zoneCropRepo, cropRepo, nil)
	if err != nil {
		logger.Fatalf("progress service error: %v", err)
	}

	engine, err := evalapp.NewEngine(store, store.Equipment(), store.ReadingTypes(),
		cropRepo, zoneCropRepo, readingRepo, ledger, evalCfg.Farms,
		evalapp.WithMaxReadingAge(evalCfg.MaxReadingAge),
		evalapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("evaluation engine error: %v", err)
	}
	scheduler, err := evalapp.NewScheduler(engine, evalCfg.Interval, logger)
	if err != nil {
		logger.Fatalf("evaluation scheduler error: %v", err)
	}
	go scheduler.Start(ctx)

	bus := eventbus.NewInMemoryBus()
	consumer, err := evalapp.NewConsumer(engine, logger)
	if err != nil {
		logger.Fatalf("evaluation consumer error: %v", err)
	}
	consumer.Register(bus)

	ingestHandler, err := ingest.NewHandler(readingRepo, store.Equipment(), store, bus, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}
	var auditLogger audit.Logger
	if auditRepo != nil {
		auditLogger = auditRepo
	}
	alertHandler, err := alerthttp.NewHandler(ledger, auditLogger)
	if err != nil {
		logger.Fatalf("alert handler error: %v", err)
	}
	evalHandler, err := evalhttp.NewHandler(scheduler)
	if err != nil {
		logger.Fatalf("evaluation handler error: %v", err)
	}
	cropstageHandler, err := crophttp.NewHandler(progressService, auth.NewZoneChecker(store))
	if err != nil {
		logger.Fatalf("cropstage handler error: %v", err)
	}
	catalogHandler, err := cataloghttp.NewHandler(cropRepo)
	if err != nil {
		logger.Fatalf("catalog handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/ingest/readings", ingestHandler)
	mux.Handle("/api/v1/alerts", alertHandler)
	mux.Handle("/api/v1/alerts/", alertHandler)
	mux.Handle("/api/v1/evaluation/run", evalHandler)
	mux.Handle("/api/v1/zones/", cropstageHandler)
	mux.Handle("/api/v1/zone-crops/", cropstageHandler)
	mux.Handle("/api/v1/crops", catalogHandler)
	mux.Handle("/api/v1/crops/", catalogHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("http server error: %v", err)
	}
}

type config struct {
	DatabaseURL        string
	HTTPAddr           string
	JWTSecret          string
	MasterdataPath     string
	CatalogYAMLPath    string
	CatalogXLSXPath    string
	CatalogXLSXSheet   string
	NotifyTemplate     string
	NotifyCooldown     time.Duration
	NotifyDedupeWindow time.Duration
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:        getenvDefault("DATABASE_URL", ""),
		HTTPAddr:           getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:          getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		MasterdataPath:     getenvDefault("MASTERDATA_PATH", ""),
		CatalogYAMLPath:    getenvDefault("CATALOG_YAML_PATH", ""),
		CatalogXLSXPath:    getenvDefault("CATALOG_XLSX_PATH", ""),
		CatalogXLSXSheet:   getenvDefault("CATALOG_XLSX_SHEET", "Stages"),
		NotifyTemplate:     getenvDefault("ALERT_NOTIFY_TEMPLATE", ""),
		NotifyCooldown:     getenvDuration("ALERT_NOTIFY_COOLDOWN", 0),
		NotifyDedupeWindow: getenvDuration("ALERT_NOTIFY_DEDUP_WINDOW", 0),
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	if cfg.MasterdataPath == "" {
		log.Fatal("MASTERDATA_PATH is required")
	}
	return cfg
}

func loadMasterdata(store *mdmemory.Store, path string, logger *log.Logger) []string {
	seed, problems, err := mdimporter.LoadMasterdataYAML(path)
	if err != nil {
		logger.Fatalf("masterdata load error: %v", err)
	}
	for _, problem := range problems {
		logger.Printf("masterdata: %v", problem)
	}
	farms := make(map[string]struct{})
	for _, farm := range seed.Farms {
		farms[farm.ID] = struct{}{}
	}
	for _, zone := range seed.Zones {
		if err := store.PutZone(zone); err != nil {
			logger.Printf("masterdata: zone %s: %v", zone.ID, err)
			continue
		}
		farms[zone.FarmID] = struct{}{}
	}
	for _, unit := range seed.Equipment {
		if err := store.PutEquipment(unit); err != nil {
			logger.Printf("masterdata: equipment %s: %v", unit.ID, err)
		}
	}
	for _, rt := range seed.ReadingTypes {
		if err := store.PutReadingType(rt); err != nil {
			logger.Printf("masterdata: reading type %s: %v", rt.Code, err)
		}
	}
	farmIDs := make([]string, 0, len(farms))
	for id := range farms {
		farmIDs = append(farmIDs, id)
	}
	return farmIDs
}

func loadCatalog(repo *catalogmemory.CropRepository, cfg config, logger *log.Logger) {
	put := func(crops []catalog.Crop, problems []error, source string) {
		for _, problem := range problems {
			logger.Printf("catalog %s: %v", source, problem)
		}
		for _, crop := range crops {
			if err := repo.Put(crop); err != nil {
				logger.Printf("catalog %s: crop %s: %v", source, crop.ID, err)
			}
		}
	}
	if cfg.CatalogYAMLPath != "" {
		crops, problems, err := catalogimporter.LoadCatalogYAML(cfg.CatalogYAMLPath)
		if err != nil {
			logger.Fatalf("catalog yaml load error: %v", err)
		}
		put(crops, problems, "yaml")
	}
	if cfg.CatalogXLSXPath != "" {
		crops, problems, err := catalogimporter.ImportStagesXLSX(cfg.CatalogXLSXPath, cfg.CatalogXLSXSheet)
		if err != nil {
			logger.Fatalf("catalog xlsx load error: %v", err)
		}
		put(crops, problems, "xlsx")
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}
