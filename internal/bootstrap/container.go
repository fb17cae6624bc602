package bootstrap

import (
	"context"
	"fmt"
	"log"

	"vr-scene-sync/internal/config"
	"vr-scene-sync/internal/controller"
	"vr-scene-sync/internal/gesture"
	"vr-scene-sync/internal/handler"
	"vr-scene-sync/internal/interaction"
	"vr-scene-sync/internal/loop"
	"vr-scene-sync/internal/pkg/logger"
	"vr-scene-sync/internal/pkg/serverutils"
	"vr-scene-sync/internal/repository/memory"
	"vr-scene-sync/internal/scene"
	"vr-scene-sync/internal/service"
	"vr-scene-sync/internal/session"
	"vr-scene-sync/internal/store"
	"vr-scene-sync/internal/transport"
	"vr-scene-sync/internal/websocket"
	"vr-scene-sync/pkg/importer"
	"vr-scene-sync/pkg/resource"

	pktNats "vr-scene-sync/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// ChangeTopic is the in-process topic carrying store outcomes.
const ChangeTopic = "scene.changes"

type Container struct {
	InstanceID string

	// Controllers
	SceneController controller.ISceneController
	LogController   controller.ILogController

	// Runtime (exposed for main.go to run)
	Loop             *loop.Loop
	SyncService      service.IContentSyncService
	ConsumerService  service.IConsumerService
	ReconcileService service.IReconcileService // nil without MANIFEST_URL
	SocketClient     *transport.SocketClient
	NatsSource       *transport.NatsSource // nil without NATS

	// WebSockets
	SceneSocketHandler *handler.SceneSocketHandler
	WebSocketHub       *websocket.Hub

	Logger logger.ILogger

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	rdb     *redis.Client
}

func NewContainer(cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.SocketLogFilePath)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)

	// 3. Infrastructure, all optional
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		if natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
		if natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL); err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v (observer relay disabled)", err)
			rdb.Close()
			rdb = nil
		}
	}

	// 4. Observer Hub
	wsHub := websocket.NewHub(rdb, cfg.App.InstanceID, wsLogger)

	// 5. Immersive runtime
	haptics := gesture.NewHaptics(cfg.Features.HapticFeedback, cfg.Interaction.HapticDuration, wsHub)

	sessionManager := session.NewManager(session.Options{
		EyeTracking:   cfg.Features.EyeTracking,
		SpatialAudio:  cfg.Features.SpatialAudio,
		GazeLookahead: cfg.Interaction.GazeLookahead,
		SpawnDistance: cfg.Sync.SpawnDistance,
	})

	registry := interaction.NewRegistry(interaction.Config{
		GrabRange:               cfg.Interaction.GrabRange,
		ProximityHapticDistance: cfg.Interaction.ProximityHapticDistance,
		EyeGazeDistance:         cfg.Interaction.EyeGazeDistance,
		GrabHapticIntensity:     cfg.Interaction.GrabHapticIntensity,
		ReleaseHapticIntensity:  cfg.Interaction.ReleaseHapticIntensity,
		ProximityHapticScale:    interaction.DefaultConfig().ProximityHapticScale,
		EyeTracking:             cfg.Features.EyeTracking,
		ProximityDetection:      cfg.Features.ProximityDetection,
		ImmersivePhysics:        cfg.Features.ImmersivePhysics,
	}, haptics, sysLogger)

	gestures, err := gesture.NewEngine(gesture.Config{
		GrabThreshold:    cfg.Interaction.GrabThreshold,
		ReleaseThreshold: cfg.Interaction.ReleaseThreshold,
		HapticIntensity:  cfg.Interaction.HapticIntensity,
		ReleaseScale:     gesture.DefaultConfig().ReleaseScale,
		Enabled:          cfg.Features.GestureRecognition,
	}, haptics, registry)
	if err != nil {
		return nil, fmt.Errorf("gesture engine: %w", err)
	}

	graph := scene.NewGraph("SceneRoot")
	entityStore := store.NewEntityStore(graph, sessionManager, registry)

	runtime := loop.New(loop.Config{TickRate: cfg.App.TickRate}, sessionManager, registry, gestures, haptics, sysLogger)

	// 6. Content pipeline
	resourceRepo := memory.NewResourceRepository(cfg.Sync.ResourceCacheTTL, int64(cfg.Sync.ResourceCacheMaxBytes))
	fetcher := resource.NewHTTPFetcher(cfg.Sync.FetchTimeout, resourceRepo)

	models, err := resource.NewModelCache(cfg.Sync.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("model cache: %w", err)
	}

	publisherService := service.NewPublisherService(ChangeTopic, pubSub)
	syncService := service.NewContentSyncService(
		entityStore,
		runtime,
		fetcher,
		resource.NewBitmapDecoder(),
		models,
		importer.NewGLTFImporter(),
		publisherService,
		sysLogger,
	)

	var eventPublisher service.EventPublisher
	if natsPub != nil {
		eventPublisher = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, ChangeTopic, wsHub, eventPublisher, sysLogger)

	// 7. Transports
	eventHandler := handler.NewSceneEventHandler(runtime, syncService, sysLogger)
	socketClient := transport.NewSocketClient(cfg.Sync.SocketURL, nil, eventHandler)

	var natsSource *transport.NatsSource
	if natsSub != nil {
		natsSource = transport.NewNatsSource(natsSub, pktNats.EventSubjectAll, cfg.App.NatsDurable, eventHandler)
	}

	var reconcileService service.IReconcileService
	if cfg.Sync.ManifestURL != "" {
		reconcileService = service.NewReconcileService(
			cfg.Sync.ManifestURL,
			cfg.Sync.ReconcileInterval,
			resource.NewHTTPFetcher(cfg.Sync.FetchTimeout, nil),
			runtime,
			syncService,
			sysLogger,
		)
	}

	// 8. Observer surface
	auth := serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	queryService := service.NewSceneQueryService(runtime, entityStore, registry, gestures, haptics, syncService)
	socketHandler := handler.NewSceneSocketHandler(wsHub, runtime, cfg.App.JwtSecret, wsLogger)

	return &Container{
		InstanceID:         cfg.App.InstanceID,
		SceneController:    controller.NewSceneController(queryService, auth),
		LogController:      controller.NewLogController(service.NewLogService(sysLogger), auth),
		Loop:               runtime,
		SyncService:        syncService,
		ConsumerService:    consumerService,
		ReconcileService:   reconcileService,
		SocketClient:       socketClient,
		NatsSource:         natsSource,
		SceneSocketHandler: socketHandler,
		WebSocketHub:       wsHub,
		Logger:             sysLogger,
		natsPub:            natsPub,
		natsSub:            natsSub,
		rdb:                rdb,
	}, nil
}

// Close releases infrastructure after the loop has stopped.
func (c *Container) Close() {
	c.SyncService.Close()
	if c.natsSub != nil {
		c.natsSub.Close()
	}
	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		c.rdb.Close()
	}
	c.Logger.Sync()
}
