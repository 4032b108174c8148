package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/memohai/docchat/internal/chat"
	"github.com/memohai/docchat/internal/config"
	"github.com/memohai/docchat/internal/convert"
	"github.com/memohai/docchat/internal/handlers"
	"github.com/memohai/docchat/internal/logger"
	"github.com/memohai/docchat/internal/metrics"
	"github.com/memohai/docchat/internal/server"
	"github.com/memohai/docchat/internal/version"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP chat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				fx.Provide(
					provideConfig,
					provideLogger,
					metrics.New,
					provideExtractor,
					providePipeline,
					provideAttachmentConverter,
					provideChatProvider,
					provideChatResolver,
					provideServerHandler(handlers.NewPingHandler),
					provideServerHandler(handlers.NewChatHandler),
					provideServerHandler(handlers.NewConvertHandler),
					provideServer,
				),
				fx.Invoke(startServer),
				fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
					return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
				}),
			)
			if err := app.Err(); err != nil {
				return err
			}
			app.Run()
			return nil
		},
	}
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	return loadConfig()
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideExtractor(cfg config.Config) convert.TextExtractor {
	return convert.NewPDFExtractor(cfg.Conversion.MaxDocumentBytes)
}

func providePipeline(log *slog.Logger, extractor convert.TextExtractor, m *metrics.Metrics, cfg config.Config) *convert.Pipeline {
	return convert.NewPipeline(log, extractor, m, cfg.Conversion.Timeout())
}

func provideAttachmentConverter(pipeline *convert.Pipeline, cfg config.Config) *chat.AttachmentConverter {
	return chat.NewAttachmentConverter(pipeline, cfg.Conversion.MaxConcurrency)
}

func provideChatProvider(cfg config.Config) (chat.Provider, error) {
	provider, err := chat.NewProvider(context.Background(), cfg.Chat)
	if err != nil {
		return nil, fmt.Errorf("chat provider: %w", err)
	}
	return provider, nil
}

func provideChatResolver(log *slog.Logger, provider chat.Provider, converter *chat.AttachmentConverter, m *metrics.Metrics, cfg config.Config) *chat.Resolver {
	return chat.NewResolver(log, provider, converter, m, cfg.Chat.Model, cfg.Chat.SystemPrompt)
}

type serverParams struct {
	fx.In
	Logger         *slog.Logger
	Config         config.Config
	Metrics        *metrics.Metrics
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, server.Options{
		Addr:        params.Config.Server.Addr,
		BodyLimit:   params.Config.Server.BodyLimit,
		CORSOrigins: params.Config.Server.CORSOrigins,
	}, params.Metrics, params.ServerHandlers...)
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting docchat",
				slog.String("version", version.GetInfo()),
				slog.String("addr", cfg.Server.Addr),
				slog.String("provider", cfg.Chat.Provider),
				slog.String("model", cfg.Chat.Model),
			)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
