package bootstrap

import (
	"context"
	"fmt"

	"swift-ai-market/internal/config"
	"swift-ai-market/internal/controller"
	"swift-ai-market/internal/metrics"
	"swift-ai-market/internal/pkg/logger"
	"swift-ai-market/internal/pkg/serverutils"
	"swift-ai-market/internal/repository/memory"
	"swift-ai-market/internal/repository/unitofwork"
	"swift-ai-market/internal/service"
	"swift-ai-market/internal/websocket"
	"swift-ai-market/pkg/llm/factory"
	pktNats "swift-ai-market/pkg/nats"
	"swift-ai-market/pkg/popularity"
	"swift-ai-market/pkg/reaper"
	"swift-ai-market/pkg/retrieval"
	"swift-ai-market/pkg/session"
	"swift-ai-market/pkg/vectorindex"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	bootstrapModule = "BOOTSTRAP"

	// EmbeddingTopic carries product embedding jobs.
	EmbeddingTopic = "embed_product"
)

type Container struct {
	Logger  logger.ILogger
	Metrics *metrics.Metrics

	// Controllers
	DiscoveryController controller.IDiscoveryController
	ProductController   controller.IProductController
	AdminController     controller.IAdminController

	// Background workers, run by main.
	Hub             *websocket.Hub
	Reaper          *reaper.Reaper
	ConsumerService service.IConsumerService
	IndexService    service.IIndexService
	RealtimeService service.IRealtimeService

	// Subscriber is nil when no event bus is configured.
	Subscriber *pktNats.Subscriber

	closers []func()
}

// NewContainer wires the application. A nil db selects the in-memory store.
func NewContainer(db *gorm.DB, cfg *config.Config, sysLogger logger.ILogger) (*Container, error) {
	c := &Container{Logger: sysLogger, Metrics: metrics.New()}

	// 1. Store
	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn(bootstrapModule, "No database configured, using in-memory store", nil)
		uowFactory = memory.NewStore()
	}

	// 2. AI providers
	embeddingProvider, err := factory.NewEmbeddingProvider(EmbeddingSettings(cfg))
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	llmProvider, err := factory.NewLLMProvider(factory.Settings{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		OllamaBaseURL:  cfg.Ai.OllamaBaseURL,
		OpenAIKey:      cfg.Keys.OpenAI,
		OpenAIBaseURL:  cfg.Ai.OpenAIBaseURL,
		HuggingFaceKey: cfg.Keys.HuggingFace,
		GeminiKey:      cfg.Keys.GoogleGemini,
	})
	if err != nil {
		return nil, fmt.Errorf("llm provider: %w", err)
	}
	sysLogger.Info(bootstrapModule, "AI providers ready", map[string]interface{}{
		"embedding": cfg.Ai.EmbeddingProvider,
		"llm":       cfg.Ai.LLMProvider,
		"model":     cfg.Ai.LLMModel,
	})

	// 3. Retrieval
	index := vectorindex.New()
	if cfg.Ai.EmbeddingDimension > 0 {
		if index, err = vectorindex.NewWithDimension(cfg.Ai.EmbeddingDimension); err != nil {
			return nil, err
		}
	}
	assembler, err := retrieval.NewAssembler(retrieval.Thresholds{
		Context:         cfg.Discovery.ContextThreshold,
		Suggestion:      cfg.Discovery.SuggestionThreshold,
		ContextLimit:    cfg.Discovery.ContextLimit,
		SuggestionLimit: cfg.Discovery.SuggestionLimit,
	})
	if err != nil {
		return nil, err
	}
	retriever := retrieval.NewRetriever(embeddingProvider, index, assembler, cfg.Ai.CallTimeout, sysLogger)

	// 4. Infrastructure
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(bootstrapModule, "Failed to connect NATS publisher, events stay local", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			c.closers = append(c.closers, natsPub.Close)
			if c.Subscriber, err = pktNats.NewSubscriber(cfg.App.NatsURL, sysLogger); err != nil {
				return nil, fmt.Errorf("nats subscriber: %w", err)
			}
			c.closers = append(c.closers, c.Subscriber.Close)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			sysLogger.Warn(bootstrapModule, "Failed to connect to Redis", map[string]interface{}{
				"error": err.Error(),
			})
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}
	c.Hub = websocket.NewHub(rdb, sysLogger)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 5. Engagement
	aggregator := popularity.NewAggregator(uowFactory, sysLogger,
		popularity.WithWindow(cfg.Session.PopularityWindow),
	)
	c.RealtimeService = service.NewRealtimeService(aggregator, c.Hub, c.Metrics, cfg.Session.TrackingTimeout, sysLogger)

	// With a bus, every instance refreshes its dashboards from the bus
	// subscription instead of its own writes.
	var bus service.EventBus
	sessionOpts := []session.Option{session.WithPublisher(c.Metrics)}
	if natsPub != nil {
		bus = natsPub
		sessionOpts = append(sessionOpts, session.WithPublisher(
			service.NewSessionEventPublisher(natsPub, cfg.Session.TrackingTimeout, sysLogger),
		))
	} else {
		sessionOpts = append(sessionOpts, session.WithPublisher(c.RealtimeService))
	}
	manager := session.NewManager(uowFactory, sysLogger, sessionOpts...)

	c.Reaper = reaper.New(uowFactory, manager, sysLogger,
		reaper.WithTimeout(cfg.Session.InactivityTimeout),
		reaper.WithInterval(cfg.Session.ReaperInterval),
		reaper.WithSweepHook(c.Metrics.ObserveSweep),
	)

	// 6. Services
	publisherService := service.NewPublisherService(EmbeddingTopic, pubSub)
	c.ConsumerService = service.NewConsumerService(pubSub, EmbeddingTopic, uowFactory, retriever, index, c.Metrics, sysLogger)
	c.IndexService = service.NewIndexService(uowFactory, retriever, index, c.Metrics, sysLogger)

	discoveryService := service.NewDiscoveryService(
		uowFactory,
		retriever,
		manager,
		aggregator,
		llmProvider,
		c.Metrics,
		sysLogger,
		cfg.Ai.CallTimeout,
		cfg.Session.TrackingTimeout,
	)
	productService := service.NewProductService(uowFactory, publisherService, index, bus, sysLogger)
	adminService := service.NewAdminService(uowFactory, aggregator, c.Reaper, sysLogger)

	// 7. Controllers
	admin := serverutils.AdminMiddleware(cfg.App.JWTSecret)
	if cfg.App.JWTSecret == "" {
		sysLogger.Warn(bootstrapModule, "JWT_SECRET is empty, admin routes are open", nil)
	}
	c.DiscoveryController = controller.NewDiscoveryController(discoveryService)
	c.ProductController = controller.NewProductController(productService, admin)
	c.AdminController = controller.NewAdminController(adminService, discoveryService, c.RealtimeService, c.Hub, admin, sysLogger)

	return c, nil
}

// EmbeddingSettings selects the embedding model for the configured provider.
func EmbeddingSettings(cfg *config.Config) factory.EmbeddingSettings {
	var model string
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		model = cfg.Ai.OllamaEmbeddingModel
	case "openai":
		model = cfg.Ai.EmbeddingModel
	}
	return factory.EmbeddingSettings{
		Provider:      cfg.Ai.EmbeddingProvider,
		Model:         model,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OpenAIKey:     cfg.Keys.OpenAI,
		GeminiKey:     cfg.Keys.GoogleGemini,
		JinaKey:       cfg.Keys.Jina,
		Dimensions:    cfg.Ai.EmbeddingDimension,
	}
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
