// Command notifier listens for ledger events on Postgres LISTEN/NOTIFY and
// relays each one to the involved owners' Redis pub/sub channels.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitcash/internal/config"
	"bitcash/internal/logging"
	"bitcash/internal/repositories/cache"
	"bitcash/internal/services/notification"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := cache.Connect(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	cacheService := cache.NewCacheService(redisClient, 0)
	defer func() { _ = cacheService.Close() }()

	listener := pq.NewListener(cfg.Database.DSN(), 10*time.Second, time.Minute,
		func(ev pq.ListenerEventType, err error) {
			switch ev {
			case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
				logger.Warn("listener connection problem", zap.Error(err))
			case pq.ListenerEventReconnected:
				logger.Info("listener reconnected")
			}
		})
	defer func() { _ = listener.Close() }()

	if err := listener.Listen(notification.Channel); err != nil {
		logger.Fatal("failed to listen", zap.String("channel", notification.Channel), zap.Error(err))
	}
	logger.Info("listening for ledger events", zap.String("channel", notification.Channel))

	relay := notification.NewRelay(cacheService, logger)
	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("notifier stopped")
			return
		case n := <-listener.Notify:
			// nil after a reconnect; events sent while disconnected are lost.
			if n == nil {
				continue
			}
			relayCtx, cancel := context.WithTimeout(ctx, cfg.Ledger.NotifyTimeout)
			if err := relay.Handle(relayCtx, n.Extra); err != nil {
				logger.Warn("failed to relay ledger event", zap.Error(err))
			}
			cancel()
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				logger.Warn("listener ping failed", zap.Error(err))
			}
		}
	}
}
