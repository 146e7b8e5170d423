package main

import (
	"context"
	"fmt"
	"os"
	"taskManager/internal/app"
	"taskManager/internal/config"
	"taskManager/internal/logger"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "конфигурация: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	application, err := app.New(cfg).Init(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "запуск приложения: %v\n", err)
		os.Exit(1)
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Run()
	}()

	wait := gfshutdown.GracefulShutdown(
		ctx,
		cfg.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				return application.Shutdown(ctx)
			},
		},
	)

	select {
	case exitCode := <-wait:
		logger.Info("Приложение завершено", zap.Int("exit_code", exitCode))
		os.Exit(exitCode)
	case err := <-serverErr:
		if err == nil {
			// сервер остановлен сигналом, дожидаемся завершения остальных операций
			os.Exit(<-wait)
		}
		logger.Error("Сервер упал", err)

		shutdownAfterFailure(ctx, cfg.Server.ShutdownTimeout, application.Shutdown)
		os.Exit(1)
	}
}

// shutdownAfterFailure освобождает ресурсы, когда сервер упал сам, без сигнала
func shutdownAfterFailure(ctx context.Context, timeout time.Duration, shutdown func(context.Context) error) {
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки после падения сервера", err)
	}
}
