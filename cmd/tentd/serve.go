package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/totegamma/tentd/client"
	"github.com/totegamma/tentd/internal/infra/database"
	"github.com/totegamma/tentd/internal/infra/repository"
	"github.com/totegamma/tentd/internal/infra/tracing"
	"github.com/totegamma/tentd/internal/present/rest"
	"github.com/totegamma/tentd/internal/service"
	"github.com/totegamma/tentd/internal/usecase"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "start the http server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	conf, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if conf.Server.EnableTrace {
		shutdown, err := tracing.Setup(ctx, conf.Server.TraceEndpoint)
		if err != nil {
			return err
		}
		defer func() {
			_ = shutdown(context.Background())
		}()
	}

	timeout := conf.Federation.RequestTimeout
	domainConf := conf.Domain()

	var (
		events   usecase.EventPublisher
		realtime rest.RealtimeSource
	)
	if conf.Server.RedisAddr != "" {
		rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB, timeout)
		defer rdb.Close()
		signalService := service.NewSignalService(rdb, logger)
		events = signalService
		realtime = signalService
	} else {
		logger.Info("redis is not configured; events and realtime are disabled")
	}

	profileRepo := repository.NewProfileRepository(db, profileCache(conf))
	entityRepo := repository.NewEntityRepository(db)
	followerRepo := repository.NewFollowerRepository(db)
	postRepo := repository.NewPostRepository(db)

	cl := client.New(timeout)
	entityUC := usecase.NewEntityUsecase(entityRepo, profileRepo, logger)
	discoveryUC := usecase.NewDiscoveryUsecase(cl, domainConf.FollowCanonical, logger)
	followUC := usecase.NewFollowUsecase(followerRepo, discoveryUC, cl, logger)
	dispatcher := usecase.NewFanoutDispatcher(cl, domainConf.FanoutWorkers, logger)
	postUC := usecase.NewPostUsecase(postRepo, followerRepo, dispatcher, events, logger)
	notificationUC := usecase.NewNotificationUsecase(events, logger)

	handler := rest.NewHandler(domainConf, entityUC, followUC, postUC, notificationUC, realtime, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if conf.Server.EnableTrace {
		e.Use(otelecho.Middleware("tentd"))
	}
	handler.RegisterRoutes(e)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("tentd started", zap.String("listen", conf.Server.Listen))
		errCh <- e.Start(conf.Server.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}

	// let background fan-outs finish their deliveries
	postUC.Drain()
	return nil
}
