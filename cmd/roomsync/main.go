package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/wes-io-live/roomsync-service/internal/cache"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/config"
	roomsyncgrpc "github.com/weiawesome/wes-io-live/roomsync-service/internal/grpc"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/handler"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/hub"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/identity"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/idgen"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/kafka"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/repository"
	"github.com/weiawesome/wes-io-live/roomsync-service/internal/service"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/database"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/jwt"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/log"
	"github.com/weiawesome/wes-io-live/roomsync-service/pkg/middleware"
)

const serviceName = "roomsync-service"

func main() {
	flags := pflag.NewFlagSet(serviceName, pflag.ExitOnError)
	configDir := flags.String("config-dir", "./config", "directory containing config.yaml")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(*configDir, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.ToLog(serviceName))
	l := log.L()

	if err := run(cfg); err != nil {
		l.Fatal().Err(err).Msg("service exited with error")
	}
	l.Info().Msg("service stopped")
}

func run(cfg *config.Config) error {
	l := log.L()

	// Database
	db, err := database.New(cfg.Database.ToDatabase())
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db, repository.Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	l.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	ids, err := idgen.New(idgen.Config{
		Kind:           cfg.ID.Kind,
		NanoIDSize:     cfg.ID.NanoIDSize,
		CUID2Length:    cfg.ID.CUID2Length,
		SnowflakeNode:  cfg.ID.SnowflakeNode,
		SnowflakeEpoch: cfg.ID.SnowflakeEpoch,
	})
	if err != nil {
		return err
	}
	store := repository.NewGormStore(db, ids)

	// History cache
	var historyCache cache.HistoryCache = cache.NewNoopHistoryCache()
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisHistoryCache(cfg.Redis)
		if err != nil {
			return err
		}
		historyCache = rc
		l.Info().Str("addr", cfg.Redis.Address).Msg("connected to redis")
	}
	defer historyCache.Close()

	// Relayed message stream
	var producer kafka.MessageProducer = kafka.NoopProducer{}
	if cfg.Kafka.Enabled {
		cp, err := kafka.NewConfluentProducer(cfg.Kafka)
		if err != nil {
			return err
		}
		producer = cp
		l.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("connected to kafka")
	}
	defer producer.Close()

	// Identity
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	if err != nil {
		return fmt.Errorf("failed to create token manager: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		l.Warn().Msg("auth.jwt_secret is empty; tokens will not survive a restart")
	}
	provider := identity.NewJWTProvider(tokens)

	// Services
	syncSvc := service.NewSyncService(provider, store, producer, service.SyncConfig{
		TypingWindow:   cfg.Sync.TypingWindow,
		PersistTimeout: cfg.Sync.PersistTimeout,
		MaxBodyLength:  cfg.Sync.MaxBodyLength,
	})
	defer syncSvc.Close()

	authSvc := service.NewAuthService(store, provider)
	roomSvc := service.NewRoomService(store)
	historySvc := service.NewHistoryService(store, historyCache, ids, cfg.Redis.CacheTTL)

	// HTTP
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(log.GinMiddleware(log.L()))

	wsHub := hub.NewHub()
	handler.NewHandler(authSvc, roomSvc, historySvc, syncSvc, middleware.NewAuthMiddleware(tokens)).RegisterRoutes(router)
	handler.NewWSHandler(wsHub, syncSvc, cfg.WebSocket).RegisterRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// gRPC health
	grpcLis, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen for grpc: %w", err)
	}
	grpcServer := roomsyncgrpc.NewServer()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return grpcServer.Serve(grpcLis)
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Closing the sockets lets each connection run its disconnect path.
		wsHub.Shutdown()
		if err := server.Shutdown(shutdownCtx); err != nil {
			l.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}
		grpcServer.Stop()
		return nil
	})

	return g.Wait()
}
