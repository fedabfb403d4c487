// cmd/onboarding-server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"onboarding-orchestrator/internal/common/auth"
	"onboarding-orchestrator/internal/common/aws"
	"onboarding-orchestrator/internal/common/camunda"
	"onboarding-orchestrator/internal/common/config"
	"onboarding-orchestrator/internal/common/database"
	"onboarding-orchestrator/internal/common/logger"
	"onboarding-orchestrator/internal/common/observability"
	"onboarding-orchestrator/internal/common/zoho"
	"onboarding-orchestrator/internal/onboarding/finalize"
	"onboarding-orchestrator/internal/onboarding/flow"
	"onboarding-orchestrator/internal/onboarding/ledger"
	"onboarding-orchestrator/internal/onboarding/session"
	"onboarding-orchestrator/internal/onboarding/snapshot"
	"onboarding-orchestrator/internal/onboarding/stepgraph"
	httptransport "onboarding-orchestrator/internal/transport/http"

	indexprofile "onboarding-orchestrator/internal/workers/onboarding/index-profile"
	sendwelcome "onboarding-orchestrator/internal/workers/onboarding/send-welcome"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting onboarding server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("store", cfg.Onboarding.Store),
		zap.Strings("finalizers", cfg.Finalization.Chain),
	)

	obs := observability.New(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Snapshot persistence ---
	store, closeStore, err := openStore(ctx, cfg, zapLog)
	if err != nil {
		zapLog.Fatal("snapshot store failed", zap.Error(err))
	}
	defer closeStore()

	adapter := snapshot.NewAdapter(store, log,
		snapshot.WithSchemaVersion(cfg.Onboarding.SchemaVersion),
		snapshot.WithKeyPrefix(cfg.Onboarding.KeyPrefix),
		snapshot.WithMaxInlineAssetBytes(cfg.Onboarding.MaxInlineAssetBytes),
	)
	var persister snapshot.Persister = adapter
	if cfg.Onboarding.SaveDebounce > 0 {
		coalescer := snapshot.NewCoalescer(adapter, config.GetDuration(cfg.Onboarding.SaveDebounce), log)
		defer coalescer.Close()
		persister = coalescer
	}

	// --- Zeebe, only when the process finalizer or a job worker needs it ---
	var camundaClient *camunda.Client
	if cfg.Camunda.BrokerAddress != "" {
		err = retryWithBackoff(ctx, func() error {
			var err error
			camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer camundaClient.Close()
		zapLog.Info("Zeebe client connected successfully")
	}

	chain, err := buildChain(cfg, camundaClient, log)
	if err != nil {
		zapLog.Fatal("finalization chain failed", zap.Error(err))
	}

	// --- Sessions ---
	graph := stepgraph.Default()
	strict := cfg.Onboarding.Strict || cfg.App.IsDevelopment()

	factory := func(sessionID string, cel ledger.Celebrator) *flow.Controller {
		opts := []flow.Option{
			flow.WithPersister(persister),
			flow.WithFinalizer(chain),
			flow.WithCelebrator(cel),
			flow.WithLogger(log),
			flow.WithObservability(obs),
			flow.WithStrict(strict),
			flow.WithCompletionTimeout(config.GetDuration(cfg.Onboarding.CompletionTimeout)),
			flow.WithTerminalHook(func(_ context.Context, c *flow.Controller) {
				log.Info("Onboarding review reached", map[string]interface{}{
					"sessionId": c.SessionID(),
					"points":    c.Points(),
				})
			}),
		}
		if cfg.Onboarding.AdvanceGuard {
			opts = append(opts, flow.WithAdvanceGuard(flow.SchemaGuard{}))
		}
		return flow.New(sessionID, graph, opts...)
	}

	manager := session.NewManager(factory, log, time.Duration(cfg.Onboarding.SessionIdleTTL)*time.Second)
	go manager.Run(ctx, time.Duration(cfg.Onboarding.SweepInterval)*time.Second)

	// --- Finalization process job workers ---
	workers := startWorkers(ctx, cfg, camundaClient, zapLog, log)

	// --- HTTP ---
	handler := httptransport.NewHandler(manager, log, config.GetDuration(cfg.Server.WriteTimeout))
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      httptransport.NewRouter(handler),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop()
	}

	zapLog.Info("Onboarding server stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) (snapshot.Store, func(), error) {
	noop := func() {}

	switch cfg.Onboarding.Store {
	case "redis":
		var rdb *database.RedisClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			rdb, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			return nil, noop, err
		}
		zapLog.Info("Redis connected successfully")
		ttl := time.Duration(cfg.Onboarding.SnapshotTTL) * time.Second
		return snapshot.NewRedisStore(rdb.GetClient(), ttl), func() { _ = rdb.Close() }, nil

	case "postgres":
		var pg *database.PostgresClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, noop, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, noop, err
		}
		zapLog.Info("PostgreSQL connected successfully")
		return snapshot.NewPostgresStore(pg.GetDB()), func() { _ = pg.Close() }, nil

	case "file":
		fs, err := snapshot.NewFileStore(cfg.Onboarding.FileDir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	}

	zapLog.Warn("Using in-memory snapshot store; sessions do not survive a restart")
	return snapshot.NewMemoryStore(), noop, nil
}

// buildChain assembles the configured finalizers in order.
func buildChain(cfg *config.Config, camundaClient *camunda.Client, log logger.Logger) (*finalize.Chain, error) {
	chain := finalize.NewChain(log)

	for _, name := range cfg.Finalization.Chain {
		switch name {
		case "keycloak":
			kc := auth.NewKeycloakClient(
				cfg.Auth.Keycloak.URL,
				cfg.Auth.Keycloak.Realm,
				cfg.Auth.Keycloak.ClientID,
				cfg.Auth.Keycloak.ClientSecret,
			)
			chain.Add(name, finalize.NewKeycloakFinalizer(kc, cfg.Finalization.RedirectURL))
		case "crm":
			chain.Add(name, finalize.NewCRMFinalizer(zoho.NewCRMClient(cfg.Integrations.Zoho.BaseURL, cfg.Integrations.Zoho.AuthToken)))
		case "process":
			if camundaClient == nil {
				return nil, fmt.Errorf("process finalizer requires camunda.broker_address")
			}
			chain.Add(name, finalize.NewProcessFinalizer(camundaClient, cfg.Finalization.ProcessID))
		case "webhook":
			chain.Add(name, finalize.NewHTTPFinalizer(cfg.Finalization.WebhookURL, config.GetDuration(cfg.Onboarding.CompletionTimeout)))
		default:
			return nil, fmt.Errorf("unknown finalizer %q", name)
		}
	}
	return chain, nil
}

// startWorkers opens the onboarding-finalization job workers that are enabled
// in config. Without a broker nothing is started.
func startWorkers(ctx context.Context, cfg *config.Config, camundaClient *camunda.Client, zapLog *zap.Logger, log logger.Logger) []*camunda.JobWorker {
	if camundaClient == nil {
		return nil
	}
	var workers []*camunda.JobWorker

	if config.IsWorkerEnabled(cfg, indexprofile.WorkerName) && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = retryWithBackoff(ctx, func() error { return esClient.Ping(ctx) }, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		}
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}

		wcfg := indexprofile.ConfigFromApp(cfg)
		handler, err := indexprofile.NewHandler(indexprofile.HandlerOptions{Config: wcfg, Indexer: esClient, Logger: log})
		if err != nil {
			zapLog.Fatal("failed to create index-profile handler", zap.Error(err))
		}
		workers = append(workers, startWorker(camundaClient, handler.TaskType(), wcfg.MaxJobsActive, wcfg.Timeout, handler, zapLog, log))
	}

	if config.IsWorkerEnabled(cfg, sendwelcome.WorkerName) {
		wcfg := sendwelcome.ConfigFromApp(cfg)
		opts := sendwelcome.HandlerOptions{Config: wcfg, Logger: log}

		if wcfg.EmailEnabled {
			ses, err := aws.NewSESClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SES.FromEmail)
			if err != nil {
				zapLog.Fatal("failed to create SES client", zap.Error(err))
			}
			opts.Email = ses
		}
		if wcfg.SMSEnabled {
			sns, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region, cfg.Integrations.AWS.SNS.DefaultSMSSenderID)
			if err != nil {
				zapLog.Fatal("failed to create SNS client", zap.Error(err))
			}
			opts.SMS = sns
		}

		handler, err := sendwelcome.NewHandler(opts)
		if err != nil {
			zapLog.Fatal("failed to create send-welcome handler", zap.Error(err))
		}
		workers = append(workers, startWorker(camundaClient, handler.TaskType(), wcfg.MaxJobsActive, wcfg.Timeout, handler, zapLog, log))
	}

	return workers
}

func startWorker(client *camunda.Client, taskType string, maxJobsActive int, timeout time.Duration, handler camunda.JobHandler, zapLog *zap.Logger, log logger.Logger) *camunda.JobWorker {
	w := camunda.NewJobWorker(client.GetClient(), taskType, maxJobsActive, timeout, handler, zapLog, log)
	zapLog.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", maxJobsActive),
		zap.Duration("timeout", timeout),
	)
	return w
}
