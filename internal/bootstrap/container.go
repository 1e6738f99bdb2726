package bootstrap

import (
	"context"
	"log"

	"medibot-be/internal/config"
	"medibot-be/internal/controller"
	"medibot-be/internal/pkg/logger"
	"medibot-be/internal/repository/memory"
	"medibot-be/internal/service"
	"medibot-be/internal/websocket"

	pktNats "medibot-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const chatEventsTopic = "chat_events"

type Container struct {
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	WebSocketHub *websocket.Hub
	Logger       logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. External clients. Under the eager strategy every client is built and
	// the vector index verified before the server accepts traffic; under the
	// lazy strategy the first question pays that cost instead.
	clients := NewClients(cfg, sysLogger)

	var pipeline service.Answerer
	if cfg.App.InitStrategy == "lazy" {
		pipeline = NewLazyAnswerer(clients)
		log.Printf("[INFO] Client init strategy: LAZY (clients built on first question)")
	} else {
		p, err := clients.Pipeline(context.Background())
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize answer pipeline: %v", err)
		}
		pipeline = p
		log.Printf("[INFO] Client init strategy: EAGER (index %s ready)", cfg.Vector.IndexName)
	}

	// In-memory per-session conversation stores
	sessionRepo := memory.NewSessionRepository()

	// 3.5 Infrastructure (optional, warn-and-continue)
	// NATS
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// Redis
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/chat_push.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	publisherService := service.NewPublisherService(chatEventsTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		chatEventsTopic,
		wsHub,
	)

	chatService := service.NewChatService(
		sessionRepo,
		pipeline,
		publisherService,
		natsPub,
		sysLogger,
	)

	return &Container{
		ChatController:  controller.NewChatController(chatService),
		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
		Logger:          sysLogger,
	}
}
