package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Gopher0727/StarterPacks/internal/handlers"
	"github.com/Gopher0727/StarterPacks/internal/routers"
	"github.com/Gopher0727/StarterPacks/utils/ratelimit"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and static UI server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(parent context.Context) error {
	cfg, log, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())

	deps := routers.Deps{Store: a.store, Log: log}
	if cfg.RateLimit.Enabled {
		deps.Limiter = ratelimit.NewFixedWindowLimiter(a.redis, log, cfg.RateLimit.FailOpen)
	}
	routers.SetupRoutes(r, cfg, &routers.Handlers{
		Search: handlers.NewSearchHandler(a.search, log),
		Pack:   handlers.NewPackHandler(a.pack, log),
		User:   handlers.NewUserHandler(a.user, log),
		Stats:  handlers.NewStatsHandler(a.stats, log),
	}, deps)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("正在启动服务器", zap.String("addr", srv.Addr), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.Close(context.Background())
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	a.Close(shutdownCtx)
	return nil
}
