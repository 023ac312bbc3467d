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

	"github.com/YashLoriya02/storage-management/app"
	"github.com/YashLoriya02/storage-management/config"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)
	app.MakeLogger("info")

	if err := config.Setup(); err != nil {
		if errors.Is(err, config.ErrNoSecret) {
			os.Exit(1)
		}
		panic(err)
	}

	app.MakeLogger(viper.GetString("app.log_level"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := app.Setup(ctx)
	if err != nil {
		zap.L().Fatal("Failed to initialize", zap.Error(err))
	}
	defer s.Close()

	if err := s.Start(); err != nil {
		zap.L().Fatal("Failed to start background services", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", viper.GetInt("host.port")),
		Handler:           app.NewRouter(s.Deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zap.L().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("Failed to shut down cleanly", zap.Error(err))
	}
}
