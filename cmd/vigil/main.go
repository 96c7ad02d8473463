// Package main is the entry point for the Vigil alerting service.
// It initializes all components and starts the HTTP server, the
// periodic evaluation loop, and the transition exporter.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"vigil-go/internal/api"
	"vigil-go/internal/banner"
	"vigil-go/internal/config"
	"vigil-go/internal/domain"
	"vigil-go/internal/evaluator"
	"vigil-go/internal/export"
	"vigil-go/internal/notification"
	"vigil-go/internal/probe"
	"vigil-go/internal/queue"
	kafkaqueue "vigil-go/internal/queue/kafka"
	memoryqueue "vigil-go/internal/queue/memory"
	"vigil-go/internal/store"
	memorystor "vigil-go/internal/store/memory"
	postgresstor "vigil-go/internal/store/postgres"
	redisstor "vigil-go/internal/store/redis"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	banner.Print()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err, "path", *configPath)
		os.Exit(1)
	}

	// Initialize logger from config
	logger := initLogger(&cfg.Logger)

	logger.Info("configuration loaded",
		"path", *configPath,
		"storage_mode", cfg.Storage.Mode,
	)

	// Initialize dependencies based on storage mode
	deps, cleanup, err := initDependencies(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	// Create context that listens for shutdown signals
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Seed the built-in rules into an empty registry
	if cfg.Evaluation.SeedDefaultRules {
		if err := seedDefaultRules(ctx, deps.ruleRepo, logger); err != nil {
			logger.Error("failed to seed default rules", "error", err)
			os.Exit(1)
		}
	}

	// Start transition exporter in background
	go func() {
		if err := deps.exporter.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("exporter error", "error", err)
			cancel()
		}
	}()

	// Start the periodic evaluation loop if a probe endpoint is configured
	if deps.runner != nil {
		deps.runner.Start(ctx)
	} else {
		logger.Info("no probe_url configured, periodic evaluation disabled")
	}

	// Start HTTP server
	go func() {
		if err := deps.server.Start(); err != nil {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	logger.Info("Vigil started",
		"address", cfg.Server.Address(),
		"storage_mode", cfg.Storage.Mode,
		"evaluation_interval", cfg.Evaluation.Interval.String(),
	)

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("shutdown signal received")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer shutdownCancel()

	if err := deps.server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if deps.runner != nil {
		deps.runner.Stop()
	}

	logger.Info("Vigil stopped")
}

// dependencies holds all initialized service dependencies.
type dependencies struct {
	server   *api.Server
	runner   *evaluator.Runner
	exporter *export.Exporter
	ruleRepo store.RuleRepository
}

// initDependencies creates and wires all service dependencies based on config.
// Returns the dependencies and a cleanup function.
func initDependencies(cfg *config.Config, logger *slog.Logger) (*dependencies, func(), error) {
	var (
		ruleRepo            store.RuleRepository
		alertRepo           store.AlertRepository
		activeStore         store.ActiveStore
		transitionsProducer queue.Producer
		transitionsConsumer queue.Consumer
		deliveriesProducer  queue.Producer
		cleanupFuncs        []func()
	)

	if cfg.Storage.UseMemory() {
		// Initialize in-memory implementations
		logger.Info("initializing in-memory storage")

		ruleRepo = memorystor.NewRuleRepository()
		alertRepo = memorystor.NewAlertRepositoryWithCapacity(cfg.Evaluation.HistoryLimit)

		memActive := memorystor.NewActiveStore()
		activeStore = memActive
		cleanupFuncs = append(cleanupFuncs, func() { _ = memActive.Close() })

		memQueue := memoryqueue.NewQueue(10000)
		transitionsProducer = memQueue
		transitionsConsumer = memQueue
		cleanupFuncs = append(cleanupFuncs, func() { _ = memQueue.Close() })
	} else {
		// Initialize real storage implementations
		logger.Info("initializing production storage (Kafka, Redis, PostgreSQL)")

		// Initialize PostgreSQL
		ctx := context.Background()
		db, err := postgresstor.NewDB(ctx, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cleanupFuncs = append(cleanupFuncs, db.Close)

		// Run migrations
		if err := db.RunMigrations(ctx); err != nil {
			return nil, nil, err
		}
		logger.Info("database migrations completed")

		ruleRepo = postgresstor.NewRuleRepository(db)
		alertRepo = postgresstor.NewAlertRepository(db)

		// Initialize Redis
		redisActive, err := redisstor.NewActiveStore(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		activeStore = redisActive
		cleanupFuncs = append(cleanupFuncs, func() { _ = redisActive.Close() })

		// Initialize Kafka
		kafkaTransitions := kafkaqueue.NewProducer(&cfg.Kafka, cfg.Kafka.TransitionsTopic)
		transitionsProducer = kafkaTransitions
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaTransitions.Close() })

		kafkaDeliveries := kafkaqueue.NewProducer(&cfg.Kafka, cfg.Kafka.DeliveriesTopic)
		deliveriesProducer = kafkaDeliveries
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaDeliveries.Close() })

		kafkaConsumer := kafkaqueue.NewConsumer(&cfg.Kafka, cfg.Kafka.TransitionsTopic, logger)
		transitionsConsumer = kafkaConsumer
		cleanupFuncs = append(cleanupFuncs, func() { _ = kafkaConsumer.Close() })
	}

	// Initialize notification dispatcher
	notifier := notification.NewDispatcher(
		buildSenders(cfg, deliveriesProducer, logger),
		cfg.Notifications.ChannelTimeout,
		logger,
	)

	// Initialize evaluation engine
	evalService := evaluator.NewService(
		ruleRepo,
		alertRepo,
		activeStore,
		notifier,
		transitionsProducer,
		logger,
	)

	// Initialize periodic driver when a probe endpoint is configured
	var runner *evaluator.Runner
	if cfg.Evaluation.ProbeURL != "" {
		source := probe.NewSource(cfg.Evaluation.ProbeURL, cfg.Evaluation.ProbeTimeout, logger)
		runner = evaluator.NewRunner(evalService, source, cfg.Evaluation.Interval, logger)
	}

	// Initialize transition exporter
	exporter := export.NewExporter(transitionsConsumer, logger)

	// Initialize API handlers
	ruleHandler := api.NewRuleHandler(ruleRepo, logger)
	alertHandler := api.NewAlertHandler(alertRepo, logger)
	evaluateHandler := api.NewEvaluateHandler(evalService, logger)

	// Initialize HTTP server
	server := api.NewServer(api.ServerDeps{
		Config:          &cfg.Server,
		Logger:          logger,
		RuleHandler:     ruleHandler,
		AlertHandler:    alertHandler,
		EvaluateHandler: evaluateHandler,
	})

	// Build cleanup function
	cleanup := func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}

	return &dependencies{
		server:   server,
		runner:   runner,
		exporter: exporter,
		ruleRepo: ruleRepo,
	}, cleanup, nil
}

// buildSenders wires one sender per channel. Channels without a usable
// endpoint fall back to the logging stub so a rule never points at a
// hole.
func buildSenders(cfg *config.Config, deliveries queue.Producer, logger *slog.Logger) map[domain.Channel]notification.ChannelSender {
	senders := make(map[domain.Channel]notification.ChannelSender)

	if cfg.Notifications.ChatWebhookURL != "" {
		senders[domain.ChannelChat] = notification.NewChatSender(cfg.Notifications.ChatWebhookURL)
	} else {
		senders[domain.ChannelChat] = notification.NewLogSender("chat", logger)
	}

	if cfg.Notifications.WebhookURL != "" {
		senders[domain.ChannelWebhook] = notification.NewWebhookSender(cfg.Notifications.WebhookURL)
	} else {
		senders[domain.ChannelWebhook] = notification.NewLogSender("webhook", logger)
	}

	// Email and SMS go through the delivery worker; without a queue
	// (memory mode) they log instead.
	if deliveries != nil {
		senders[domain.ChannelEmail] = notification.NewQueueSender("email", deliveries)
		senders[domain.ChannelSMS] = notification.NewQueueSender("sms", deliveries)
	} else {
		senders[domain.ChannelEmail] = notification.NewLogSender("email", logger)
		senders[domain.ChannelSMS] = notification.NewLogSender("sms", logger)
	}

	return senders
}

// seedDefaultRules registers the built-in rules when the registry is empty.
func seedDefaultRules(ctx context.Context, repo store.RuleRepository, logger *slog.Logger) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("rule registry not empty, skipping default rules", "count", len(existing))
		return nil
	}

	for _, rule := range domain.DefaultRules() {
		if err := repo.Save(ctx, rule); err != nil {
			return err
		}
	}
	logger.Info("seeded default rules", "count", len(domain.DefaultRules()))
	return nil
}

// initLogger creates and configures the application logger.
func initLogger(cfg *config.LoggerConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return logger
}
