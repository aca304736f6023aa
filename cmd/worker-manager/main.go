// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"lms-assistant/internal/audit"
	"lms-assistant/internal/common/aws"
	"lms-assistant/internal/common/camunda"
	"lms-assistant/internal/common/config"
	"lms-assistant/internal/common/database"
	"lms-assistant/internal/common/logger"
	"lms-assistant/internal/common/observability"
	"lms-assistant/internal/jobs"
	"lms-assistant/internal/lms"
	"lms-assistant/internal/nlu"

	ai "lms-assistant/internal/workers/assistant/analyze-intent"
	be "lms-assistant/internal/workers/assistant/bulk-enrollment"
	br "lms-assistant/internal/workers/assistant/build-response"
	ec "lms-assistant/internal/workers/assistant/execute-command"
	na "lms-assistant/internal/workers/assistant/notify-admin"
	sc "lms-assistant/internal/workers/assistant/search-catalog"
)

// retryWithBackoff attempts an operation with exponential backoff.
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

	zapLog.Info("starting worker manager",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Zeebe gateway ---
	zeebe, err := camunda.NewClientWithConfig(&camunda.ClientConfig{
		GatewayAddress:         cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
		RetryConfig: &camunda.RetryConfig{
			MaxRetries: 10,
			BaseDelay:  2 * time.Second,
			MaxDelay:   30 * time.Second,
		},
	})
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("zeebe client connected")

	// --- PostgreSQL (command audit trail) ---
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
	zapLog.Info("postgres connected")

	// --- Elasticsearch (catalog search) ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("elasticsearch connected")

	// --- Redis (bulk-job state) ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("redis connected")

	// --- Shared domain services ---
	lmsClient := lms.NewHTTPClient(cfg.LMS)
	jobStore := jobs.NewStore(rdb.Client, time.Duration(cfg.Jobs.TTL)*time.Second, log)
	auditStore := audit.NewStore(pg.DB, log)
	analyzer := nlu.NewAnalyzer(nlu.WithShortCircuit(cfg.NLU.ShortCircuitThreshold))

	var sesClient *aws.SESClient
	var snsClient *aws.SNSClient
	if cfg.Notifications.AWSRegion != "" {
		if sesClient, err = aws.NewSESClient(ctx, cfg.Notifications.AWSRegion); err != nil {
			zapLog.Warn("ses client unavailable, email notifications disabled", zap.Error(err))
			sesClient = nil
		}
		if snsClient, err = aws.NewSNSClient(ctx, cfg.Notifications.AWSRegion); err != nil {
			zapLog.Warn("sns client unavailable, topic notifications disabled", zap.Error(err))
			snsClient = nil
		}
	}

	// --- Register workers ---
	var workers []*camunda.Worker
	register := func(taskType string, handler camunda.JobHandler) {
		wcfg := workerSettings(cfg, taskType)
		if !wcfg.Enabled {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		workers = append(workers, camunda.NewWorker(zeebe.Raw(), taskType, wcfg.MaxJobsActive, handler, zapLog))
	}

	register(ai.TaskType, ai.NewHandler(
		&ai.Config{
			MaxMessageLength: cfg.NLU.MaxMessageLength,
			ShortCircuit:     cfg.NLU.ShortCircuitThreshold,
			ConfidenceFloor:  cfg.NLU.ConfidenceFloor,
			GenAIEnabled:     cfg.GenAI.Enabled,
			GenAIBaseURL:     cfg.GenAI.BaseURL,
			Timeout:          time.Duration(cfg.GenAI.Timeout) * time.Millisecond,
			MaxRetries:       cfg.GenAI.MaxRetries,
		},
		analyzer, log,
	))

	register(ec.TaskType, ec.NewHandler(ec.LoadConfig(), lmsClient, jobStore, auditStore, log))

	register(sc.TaskType, sc.NewHandler(
		&sc.Config{
			Timeout:      30 * time.Second,
			CatalogIndex: cfg.Database.Elasticsearch.CourseIndex,
			UserIndex:    cfg.Database.Elasticsearch.UserIndex,
			PageSize:     20,
		},
		esClient.Client, log,
	))

	register(be.TaskType, be.NewHandler(
		&be.Config{
			Timeout:       5 * time.Minute,
			ProgressEvery: cfg.Jobs.ProgressEvery,
			MaxBatchSize:  cfg.Jobs.MaxBatchSize,
		},
		lmsClient, jobStore, log,
	))

	register(na.TaskType, na.NewHandler(
		&na.Config{
			Timeout:     30 * time.Second,
			SenderEmail: cfg.Notifications.SenderEmail,
			AdminEmail:  cfg.Notifications.AdminEmail,
			SNSTopicARN: cfg.Notifications.SNSTopicARN,
		},
		emailSender(sesClient), topicPublisher(snsClient), log,
	))

	register(br.TaskType, br.NewHandler(
		&br.Config{
			Timeout:      10 * time.Second,
			AppVersion:   cfg.App.Version,
			MaxListItems: 10,
		},
		log,
	))

	zapLog.Info("all workers registered", zap.Int("count", len(workers)))

	// --- Health & metrics server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			status := "ready"
			code := http.StatusOK
			if err := rdb.Ping(r.Context()); err != nil {
				status, code = "redis unavailable", http.StatusServiceUnavailable
			}
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]string{
				"status": status,
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("health/metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("health/metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("shutdown signal received, stopping workers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("error closing zeebe client", zap.Error(err))
	}

	zapLog.Info("worker manager stopped")
}

// workerSettings resolves per-worker configuration, defaulting to enabled
// with the gateway-wide limits when a worker has no explicit section.
func workerSettings(cfg *config.Config, taskType string) config.WorkerConfig {
	if wcfg, ok := cfg.Workers[taskType]; ok {
		if wcfg.MaxJobsActive == 0 {
			wcfg.MaxJobsActive = cfg.Camunda.MaxJobsActive
		}
		return wcfg
	}
	return config.WorkerConfig{
		Enabled:       true,
		MaxJobsActive: cfg.Camunda.MaxJobsActive,
		Timeout:       cfg.Camunda.Timeout,
	}
}

// emailSender converts a possibly-nil concrete client into the handler
// interface without producing a non-nil interface around a nil pointer.
func emailSender(c *aws.SESClient) na.EmailSender {
	if c == nil {
		return nil
	}
	return c
}

func topicPublisher(c *aws.SNSClient) na.TopicPublisher {
	if c == nil {
		return nil
	}
	return c
}
