// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"news-trust-workers/internal/analysis/bias"
	"news-trust-workers/internal/analysis/cache"
	"news-trust-workers/internal/analysis/clustering"
	"news-trust-workers/internal/analysis/factcheck"
	"news-trust-workers/internal/analysis/pipeline"
	"news-trust-workers/internal/analysis/trust"
	"news-trust-workers/internal/clients/inference"
	"news-trust-workers/internal/clients/search"
	"news-trust-workers/internal/common/aws"
	"news-trust-workers/internal/common/camunda"
	"news-trust-workers/internal/common/config"
	"news-trust-workers/internal/common/database"
	"news-trust-workers/internal/common/logger"
	"news-trust-workers/internal/common/observability"
	"news-trust-workers/internal/storage/articles"
	"news-trust-workers/pkg/registry"

	aa "news-trust-workers/internal/workers/analysis/analyze-article"
	anb "news-trust-workers/internal/workers/analysis/analyze-news-batch"
	ca "news-trust-workers/internal/workers/analysis/cluster-articles"
	gaa "news-trust-workers/internal/workers/analysis/get-article-analysis"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
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
			time.Sleep(delay)
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

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("environment", cfg.App.Environment),
		zap.String("inferenceProvider", cfg.Pipeline.InferenceProvider),
	)

	obs := observability.New(cfg.Observability.ServiceName)
	defer obs.Shutdown()
	if cfg.Observability.JaegerEndpoint != "" {
		if err := obs.EnableTracing(cfg.Observability.ServiceName, cfg.Observability.JaegerEndpoint); err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		}
	}

	ctx := context.Background()

	// --- Zeebe ---
	zeebe, err := camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.EnsureSchema(ctx); err != nil {
		zapLog.Fatal("schema setup failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis (optional read-through layer) ---
	var redisLayer *cache.RedisLayer
	if cfg.Database.Redis.Enabled {
		var rc *database.RedisClient
		err = retryWithBackoff(func() error {
			var err error
			rc, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return rc.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Warn("redis unavailable, caching in postgres only", zap.Error(err))
		} else {
			defer rc.Close()
			redisLayer = cache.NewRedisLayer(rc.Client, config.GetDuration(cfg.Pipeline.CacheTTL), log)
			zapLog.Info("Redis connected successfully")
		}
	}

	// --- Collaborators ---
	inferencer, err := inference.New(cfg)
	if err != nil {
		zapLog.Fatal("inference client setup failed", zap.Error(err))
	}
	searcher := buildSearcher(ctx, cfg, zapLog)
	publisher := buildPublisher(ctx, cfg, zapLog)

	// --- Pipeline ---
	store := articles.NewStore(pg.DB)
	analysisCache := cache.New(cache.NewPostgresStore(pg.DB), redisLayer, log)
	pl := pipeline.New(pipeline.Deps{
		Cache: analysisCache,
		Bias:  bias.NewAnalyzer(inferencer, cfg.Pipeline.MaxContentChars, log),
		FactCheck: factcheck.NewChecker(inferencer, searcher, factcheck.Config{
			MaxClaims:       cfg.Pipeline.MaxClaims,
			MaxContentChars: cfg.Pipeline.MaxContentChars,
		}, log),
		Combiner:      trust.NewCombiner(trust.DefaultWeights),
		Articles:      store,
		Publisher:     publisher,
		Logger:        log,
		Observability: obs,
	}, pipeline.Config{
		ArticleTimeout:   config.GetDuration(cfg.Pipeline.ArticleTimeout),
		BatchConcurrency: cfg.Pipeline.BatchConcurrency,
		DisableCache:     cfg.Pipeline.DisableCache,
	})
	if cfg.Pipeline.DisableCache {
		zapLog.Warn("analysis cache disabled by configuration")
	}

	clusterer := clustering.NewService(store, &clustering.ProcessJob{
		Command: cfg.Clustering.Command,
		Args:    cfg.Clustering.Args,
		Params: clustering.Params{
			MinClusterSize:   cfg.Clustering.MinClusterSize,
			MinSamples:       cfg.Clustering.MinSamples,
			Metric:           cfg.Clustering.Metric,
			SelectionEpsilon: cfg.Clustering.SelectionEpsilon,
			UsePCA:           cfg.Clustering.UsePCA,
		},
		Timeout: config.GetDuration(cfg.Clustering.Timeout),
		Logger:  log,
	}, log)

	// --- Workers ---
	catalog := registry.Default()
	if err := catalog.Validate(); err != nil {
		zapLog.Fatal("activity catalog invalid", zap.Error(err))
	}
	for taskType := range cfg.Workers {
		if _, ok := catalog.Find(taskType); !ok {
			zapLog.Warn("worker configured for unknown task type", zap.String("taskType", taskType))
		}
	}

	client := zeebe.GetClient()
	var workers []worker.JobWorker
	register := func(taskType string, handler camunda.HandlerFunc) {
		if _, ok := catalog.Find(taskType); !ok {
			zapLog.Warn("task type missing from activity catalog", zap.String("taskType", taskType))
		}
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	register(aa.TaskType, aa.NewHandler(aa.NewConfig(config.GetWorkerConfig(cfg, aa.TaskType)), pl, log).Handle)
	register(gaa.TaskType, gaa.NewHandler(gaa.NewConfig(config.GetWorkerConfig(cfg, gaa.TaskType)), pl, log).Handle)
	register(anb.TaskType, anb.NewHandler(anb.NewConfig(config.GetWorkerConfig(cfg, anb.TaskType), cfg.Pipeline), pl, log).Handle)
	if cfg.Clustering.Command != "" {
		register(ca.TaskType, ca.NewHandler(ca.NewConfig(config.GetWorkerConfig(cfg, ca.TaskType)), clusterer, log).Handle)
	} else {
		zapLog.Info("clustering command not configured, cluster-articles worker not started")
	}
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		checkCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := pg.Ping(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		if err := zeebe.HealthCheck(checkCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready", err)
			return
		}
		writeStatus(w, http.StatusOK, "ready", nil)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Observability.MetricsAddress, Handler: mux}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// buildSearcher combines the web search API and the local article corpus.
// Either may be absent; with neither, fact-checks degrade to unverified.
func buildSearcher(ctx context.Context, cfg *config.Config, log *zap.Logger) search.Searcher {
	var backends search.MultiSearcher

	if cfg.APIs.WebSearch.BaseURL != "" {
		backends = append(backends, search.NewWebSearcher(search.WebConfig{
			BaseURL:      cfg.APIs.WebSearch.BaseURL,
			APIKey:       cfg.APIs.WebSearch.APIKey,
			EngineID:     cfg.APIs.WebSearch.EngineID,
			Timeout:      config.GetDuration(cfg.APIs.WebSearch.Timeout),
			MaxResults:   cfg.APIs.WebSearch.MaxResults,
			MinRelevance: cfg.APIs.WebSearch.MinRelevance,
		}))
	}

	if cfg.Database.Elasticsearch.Enabled {
		var es *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 5, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			log.Warn("elasticsearch unavailable, corpus search disabled", zap.Error(err))
		} else {
			backends = append(backends, search.NewCorpusSearcher(es.Client, es.Index, cfg.APIs.WebSearch.MaxResults))
			log.Info("Elasticsearch connected successfully")
		}
	}

	if len(backends) == 0 {
		log.Warn("no search backend configured, fact-checks will be unverified")
	}
	return backends
}

func buildPublisher(ctx context.Context, cfg *config.Config, log *zap.Logger) pipeline.ReportPublisher {
	n := cfg.Notifications
	var publishers aws.MultiPublisher

	if n.SNS.Enabled && n.SNS.TopicARN != "" {
		client, err := aws.NewSNSClient(ctx, n.AWS.Region)
		if err != nil {
			log.Warn("sns client setup failed, batch reports will not be published", zap.Error(err))
		} else {
			publishers = append(publishers, aws.NewSNSReportPublisher(client, n.SNS.TopicARN))
		}
	}
	if n.Email.Enabled && len(n.Email.Recipients) > 0 {
		client, err := aws.NewSESClient(ctx, n.AWS.Region)
		if err != nil {
			log.Warn("ses client setup failed, batch reports will not be emailed", zap.Error(err))
		} else {
			publishers = append(publishers, aws.NewSESReportPublisher(client, n.Email.FromEmail, n.Email.Recipients))
		}
	}

	if len(publishers) == 0 {
		return nil
	}
	return publishers
}

func writeStatus(w http.ResponseWriter, code int, status string, err error) {
	body := map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	}
	if err != nil {
		body["error"] = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
