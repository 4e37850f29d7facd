package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"roomchat/infrastructure/broker"
	"roomchat/infrastructure/cache"
	"roomchat/infrastructure/db"
	"roomchat/infrastructure/ws"
	"roomchat/internal/config"
	httpHandler "roomchat/internal/delivery/http"
	"roomchat/internal/delivery/websocket"
	"roomchat/internal/presence"
	"roomchat/internal/repository"
	"roomchat/internal/usecase"
	"roomchat/pkg/jwt"
	"roomchat/pkg/logger"
	"roomchat/pkg/origin"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.Init(cfg.Logger())
	mainLog := logger.New("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoDb, err := db.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoDb.Close(context.Background()); err != nil {
			mainLog.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := mongoDb.EnsureIndexes(ctx); err != nil {
		return err
	}
	mainLog.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")

	userRepo := repository.NewUserRepository(mongoDb.DB)

	secret, isDev := cfg.Secret()
	if isDev {
		mainLog.Warn().Msg("using development JWT secret, set JWT_SECRET in production")
	}
	jwtManager := jwt.NewJWTManager(secret, cfg.AccessTokenTTL)

	loginAttempts := cache.NewMemCache(time.Minute)
	defer loginAttempts.Close()

	authUc := usecase.NewAuthUsecase(userRepo, jwtManager, loginAttempts, usecase.AuthOptions{
		BcryptCost:  cfg.BcryptCost,
		MaxFailures: cfg.LoginMaxFailures,
		Lockout:     cfg.LoginLockout,
	})

	hubOpts := []ws.Option{ws.WithLogger(logger.New("hub"))}

	var cluster *ws.RedisPresence
	if cfg.RedisAddr != "" {
		rdb, err := ws.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return err
		}
		defer rdb.Close()

		cluster = ws.NewRedisPresence(rdb, cfg.RedisPrefix, cfg.ServerID, cfg.PresenceTTL, logger.New("presence"))
		hubOpts = append(hubOpts, ws.WithTap("redis-presence", cluster, 64))
		go cluster.KeepAlive(ctx)
		mainLog.Info().Str("addr", cfg.RedisAddr).Str("server_id", cfg.ServerID).Msg("presence mirror enabled")
	}

	if cfg.NatsURL != "" {
		nc, err := broker.Connect(cfg.NatsURL, "roomchat-"+cfg.ServerID, logger.New("nats"))
		if err != nil {
			return err
		}
		defer nc.Drain()

		hubOpts = append(hubOpts, ws.WithTap("nats", broker.NewEventTap(nc, cfg.NatsSubject), 256))
		mainLog.Info().Str("url", cfg.NatsURL).Str("subject", cfg.NatsSubject).Msg("event tap enabled")
	}

	hub := ws.NewHub(presence.NewRegistry(), hubOpts...)
	go hub.Run(ctx)

	origins, invalid := origin.NewPolicy(cfg.AllowedOrigins)
	for _, o := range invalid {
		mainLog.Warn().Str("origin", o).Msg("ignoring invalid origin in configuration")
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(httpHandler.RequestLogger(logger.New("http")))
	router.Use(middleware.Recoverer)
	router.Use(httpHandler.CORS(origins))

	websocketH := websocket.NewWebsocketHandler(hub, authUc, websocket.Options{
		RequireJoinToken: cfg.RequireJoinToken,
		Origins:          origins,
		Client: ws.ClientOptions{
			SendBuffer:     cfg.SendBuffer,
			MaxMessageSize: cfg.MaxMessageSize,
		},
	}, logger.New("ws"))

	var clusterPresence httpHandler.ClusterPresence
	if cluster != nil {
		clusterPresence = cluster
	}
	httpH := httpHandler.NewHttpHandler(hub, clusterPresence, logger.New("http"))
	authH := httpHandler.NewAuthHandler(authUc, logger.New("auth"))
	authMiddleware := httpHandler.NewAuthMiddleware(authUc)

	httpHandler.MapHttpRoutes(router, httpH, http.HandlerFunc(websocketH.HandleWebSocket), authH, authMiddleware)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		mainLog.Info().Str("addr", srv.Addr).Msg("HTTP server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		mainLog.Info().Msg("shutting down")
	}

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		mainLog.Warn().Err(err).Msg("http shutdown")
	}

	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		mainLog.Warn().Msg("hub did not stop before shutdown timeout")
	}

	if cluster != nil {
		if err := cluster.Clear(shutdownCtx); err != nil {
			mainLog.Warn().Err(err).Msg("clear presence mirror")
		}
	}
	return nil
}
