package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GoldenTiger720/chroma-money-link-44/internal/activity"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/config"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/connector"
	idcmd "github.com/GoldenTiger720/chroma-money-link-44/internal/identity/command"
	identityhandler "github.com/GoldenTiger720/chroma-money-link-44/internal/identity/handler"
	idqry "github.com/GoldenTiger720/chroma-money-link-44/internal/identity/query"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/latency"
	ledgercmd "github.com/GoldenTiger720/chroma-money-link-44/internal/ledger/command"
	ledgerhandler "github.com/GoldenTiger720/chroma-money-link-44/internal/ledger/handler"
	ledgerqry "github.com/GoldenTiger720/chroma-money-link-44/internal/ledger/query"
	"github.com/GoldenTiger720/chroma-money-link-44/internal/repository"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/events"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/middleware"
	redisClient "github.com/GoldenTiger720/chroma-money-link-44/shared/redis"
	"github.com/GoldenTiger720/chroma-money-link-44/shared/session"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repository
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StorageDriver, err)
	}
	defer closeStore()

	// Sessions, events and activity feed: Redis when configured, in-process otherwise
	var (
		sessions session.Store
		emitter  events.Emitter
		feed     activity.Feed
		bus      *events.LocalBus
		redis    *redisClient.Client
	)
	if cfg.RedisAddr != "" {
		redis, err = redisClient.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redis.Close()

		sessions = session.NewRedisStore(redis.Client, cfg.SessionTTL)
		emitter = events.NewPublisher(redis.Client)
		feed = activity.NewRedisFeed(redis.Client, cfg.ActivityFeedSize)
	} else {
		log.Println("REDIS_ADDR not set, using in-process sessions and events")
		bus = events.NewLocalBus()
		sessions = session.NewMemoryStore()
		emitter = bus
		feed = activity.NewMemoryFeed(cfg.ActivityFeedSize)
	}

	recorder := activity.NewRecorder(feed)
	if bus != nil {
		bus.Subscribe(events.IdentityEventsStream, recorder.HandleEvent)
		bus.Subscribe(events.LedgerEventsStream, recorder.HandleEvent)
	} else {
		startSubscribers(ctx, redis, recorder)
	}

	delay := latency.New(cfg.SimulatedLatency)
	tokens := middleware.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	var ethereum connector.AccountRequester
	if cfg.EthereumRPCURL != "" {
		ethereum = connector.NewRPCAccountRequester(cfg.EthereumRPCURL)
	}
	var solana connector.KeyConnector
	if cfg.SolanaRPCURL != "" {
		solana = connector.NewRPCKeyConnector(cfg.SolanaRPCURL)
	}
	wallets := connector.NewLinker(connector.New(ethereum, solana, delay), sessions)

	// CQRS: command + query services per domain
	identityCommands := idcmd.NewIdentityCommandService(store, sessions, delay, emitter)
	identityQueries := idqry.NewIdentityQueryService(store)
	ledgerCommands := ledgercmd.NewLedgerCommandService(store, sessions, delay, emitter)
	ledgerQueries := ledgerqry.NewLedgerQueryService(store)

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(routerDeps{
		tokens:   tokens,
		sessions: sessions,
		identity: identityhandler.NewIdentityHandler(identityCommands, identityQueries, tokens),
		wallet:   ledgerhandler.NewWalletHandler(ledgerCommands, ledgerQueries, wallets),
		admin:    ledgerhandler.NewAdminHandler(ledgerQueries, recorder),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("ChromaPay starting on port %s (storage=%s, latency=%s)", cfg.Port, cfg.StorageDriver, cfg.SimulatedLatency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		store, err := repository.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if cfg.SeedDemoData {
			if err := store.SeedDemoData(ctx); err != nil {
				store.Close()
				return nil, nil, err
			}
		}
		return store, func() { store.Close() }, nil
	case config.StorageMemory:
		if cfg.SeedDemoData {
			return repository.NewDemoMemoryStore(), func() {}, nil
		}
		return repository.NewMemoryStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func startSubscribers(ctx context.Context, redis *redisClient.Client, recorder *activity.Recorder) {
	consumer, err := os.Hostname()
	if err != nil || consumer == "" {
		consumer = "chromapay"
	}
	for _, stream := range []string{events.IdentityEventsStream, events.LedgerEventsStream} {
		subscriber := events.NewSubscriber(redis.Client, events.SubscriberConfig{
			Group:    "activity-feed",
			Consumer: consumer,
			Stream:   stream,
			Handler:  recorder.HandleEvent,
		})
		go func(stream string) {
			if err := subscriber.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Subscriber for %s stopped: %v", stream, err)
			}
		}(stream)
	}
}
