package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskManager/internal/config"
	"taskManager/internal/handlers"
	"taskManager/internal/logger"
	"taskManager/internal/mapper"
	"taskManager/internal/middleware"
	"taskManager/internal/repository"
	"taskManager/internal/repository/task/inmemory"
	"taskManager/internal/repository/task/postgres"
	"taskManager/internal/repository/task/sqlite"
	"taskManager/internal/service"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type App struct {
	config    *config.Config
	server    *http.Server
	router    *chi.Mux
	store     repository.Store // интерфейс!
	service   *service.TaskService
	shutdowns []func() // функции для graceful shutdown, выполняются в обратном порядке
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) (*App, error) {
	if err := logger.Init(a.config.Logging.Development, a.config.Logging.Level); err != nil {
		return nil, fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	store, err := a.initStore(ctx)
	if err != nil {
		a.runShutdowns()
		return nil, fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.store = store
	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Закрытие хранилища...")
		a.store.Close()
	})

	a.service = service.NewTaskService(a.store, mapper.NewTaskMapper())
	a.router = a.initRouter(handlers.NewTaskHandler(a.service))

	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return a, nil
}

func (a *App) initStore(ctx context.Context) (repository.Store, error) {
	switch a.config.Repository.Type {
	case config.RepoPostgres:
		storage, err := postgres.New(ctx, a.config.Database.URL, postgres.PoolConfig{
			MaxConns:        a.config.Database.MaxConnections,
			MinConns:        a.config.Database.MinConnections,
			MaxConnIdleTime: a.config.Database.IdleTimeout,
		})
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx); err != nil {
			storage.Close()
			return nil, err
		}
		return storage, nil
	case config.RepoSQLite:
		storage, err := sqlite.New(a.config.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		return storage, nil
	case config.RepoInMemory:
		return inmemory.NewTaskStorage(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", a.config.Repository.Type)
	}
}

func (a *App) initRouter(taskHandler *handlers.TaskHandler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: a.config.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		MaxAge:         300,
	}))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	r.Use(chimw.Timeout(a.config.Server.RequestTimeout))

	r.Handle("/metrics", promhttp.Handler())
	taskHandler.Register(r)

	return r
}

func (a *App) Router() http.Handler {
	return a.router
}

// Run блокируется до остановки сервера, штатная остановка - не ошибка
func (a *App) Run() error {
	logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ошибка сервера: %w", err)
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	logger.Info("Остановка сервера...")

	var err error
	if a.server != nil {
		if shutdownErr := a.server.Shutdown(ctx); shutdownErr != nil {
			logger.Error("Сервер остановлен с ошибкой", shutdownErr)
			err = fmt.Errorf("остановка сервера: %w", shutdownErr)
		}
	}

	a.runShutdowns()
	return err
}

func (a *App) runShutdowns() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
