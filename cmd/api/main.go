package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olatoyosi/prolink/internal/auth"
	"github.com/olatoyosi/prolink/internal/config"
	"github.com/olatoyosi/prolink/internal/data"
	"github.com/olatoyosi/prolink/internal/db"
	"github.com/olatoyosi/prolink/internal/middleware"
	"github.com/olatoyosi/prolink/internal/notify"
	"github.com/olatoyosi/prolink/internal/presence"
	"github.com/olatoyosi/prolink/internal/realtime"
)

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	ctx := context.Background()

	// Initialize database
	dbClient, err := db.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatalf("failed to connect to DB: %v", err)
	}
	defer func() {
		_ = dbClient.Close(ctx)
	}()

	// Ensure indexes exist
	if err := dbClient.CreateIndexes(ctx); err != nil {
		log.Fatalf("failed to create indexes: %v", err)
	}

	// Create stores
	usersStore := data.NewUsersStore(dbClient.UsersCollection())
	msgsStore := data.NewMessagesStore(dbClient.ConversationsCollection(), dbClient.MessagesCollection())
	notifsStore := data.NewNotificationsStore(dbClient.NotificationsCollection())
	postsStore := data.NewPostsStore(dbClient.PostsCollection())

	// Initialize auth manager. If JWT_KEYS is supplied we parse keys so token
	// rotation is possible; otherwise fall back to the single JWT_SECRET.
	var jwtMgr *auth.JWTManager
	if cfg.Auth.Keys != "" {
		keyMap := map[string]string{}
		for _, p := range strings.Split(cfg.Auth.Keys, ",") {
			if p == "" {
				continue
			}
			parts := strings.SplitN(p, ":", 2)
			if len(parts) != 2 {
				log.Fatalf("invalid JWT_KEYS entry: %s", p)
			}
			keyMap[parts[0]] = parts[1]
		}
		jwtMgr = auth.NewJWTManagerFromKeys(keyMap, cfg.Auth.ActiveKid, cfg.Auth.TokenTTL)
	} else {
		jwtMgr = auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	}

	// Rate limiter for the register/login endpoints (small burst to allow a
	// couple of quick retries).
	limiterStore := middleware.NewLimiterStore(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, 1*time.Minute)
	defer limiterStore.Stop()

	// Presence + real-time delivery
	registry := presence.NewMemory()
	gateway := realtime.NewGateway(registry, logger, cfg.Realtime.SendBuffer)

	// Notification fan-out
	notifier := notify.NewService(notifsStore, usersStore, gateway, logger)

	srv := newServer(usersStore, msgsStore, notifsStore, postsStore, notifier, gateway, jwtMgr, logger)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.Router(limiterStore, gateway.HandleWS),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Address())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server exit: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
