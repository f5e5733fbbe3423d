// Command kokoro runs the LINE counseling relay bot: webhook in, Gemini
// generated reply out.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/torigami/kokoro/internal/chat"
	"github.com/torigami/kokoro/internal/config"
	"github.com/torigami/kokoro/internal/conversation"
	"github.com/torigami/kokoro/internal/dispatch"
	"github.com/torigami/kokoro/internal/gemini"
	"github.com/torigami/kokoro/internal/handlers"
	"github.com/torigami/kokoro/internal/line"
	"github.com/torigami/kokoro/internal/logger"
	"github.com/torigami/kokoro/internal/search"
	"github.com/torigami/kokoro/internal/server"
	"github.com/torigami/kokoro/internal/version"
)

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideStore(log *slog.Logger, cfg config.Config) *conversation.Store {
	return conversation.NewStore(log, cfg.Chat.MaxHistory)
}

func provideSearch(log *slog.Logger, cfg config.Config) *search.Client {
	return search.NewClient(log, cfg.Search)
}

func provideGemini(log *slog.Logger, cfg config.Config) (*gemini.Client, error) {
	return gemini.NewClient(context.Background(), log, cfg.Gemini)
}

func provideMessenger(log *slog.Logger, cfg config.Config) (*line.Messenger, error) {
	return line.NewMessenger(log, cfg.Line.ChannelAccessToken)
}

func provideChatService(log *slog.Logger, store *conversation.Store, gen *gemini.Client, messenger *line.Messenger, searcher *search.Client) *chat.Service {
	return chat.NewService(log, store, gen, messenger, searcher)
}

func providePool(log *slog.Logger, cfg config.Config, svc *chat.Service) *dispatch.Pool {
	return dispatch.NewPool(log, cfg.Chat.Workers, cfg.Chat.QueueSize, svc.Process)
}

func provideDispatcher(log *slog.Logger, cfg config.Config, messenger *line.Messenger, pool *dispatch.Pool) *dispatch.Dispatcher {
	ttl := time.Duration(cfg.Chat.DedupTTLMinutes) * time.Minute
	return dispatch.NewDispatcher(log, messenger, pool, ttl)
}

func provideServer(log *slog.Logger, cfg config.Config, callback *handlers.CallbackHandler, health *handlers.HealthHandler) *server.Server {
	return server.NewServer(log, cfg.Server.Addr, callback, health)
}

func provideCallbackHandler(log *slog.Logger, cfg config.Config, dispatcher *dispatch.Dispatcher) *handlers.CallbackHandler {
	return handlers.NewCallbackHandler(log, cfg.Line.ChannelSecret, dispatcher)
}

func startPool(lc fx.Lifecycle, pool *dispatch.Pool) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return pool.Stop(ctx)
		},
	})
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, cfg config.Config, shutdowner fx.Shutdowner, searcher *search.Client, gen *gemini.Client) {
	fmt.Printf("Starting kokoro %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("config loaded",
				slog.String("addr", cfg.Server.Addr),
				slog.String("model", gen.Model()),
				slog.Bool("search_enabled", searcher.Enabled()),
				slog.Int("max_history", cfg.Chat.MaxHistory),
			)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Stop(ctx)
		},
	})
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,

			provideStore,
			provideSearch,
			provideGemini,
			provideMessenger,
			provideChatService,
			providePool,
			provideDispatcher,

			provideCallbackHandler,
			handlers.NewHealthHandler,
			provideServer,
		),
		fx.Invoke(
			startPool,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}
