package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage - хранилище задач в SQLite через gorm.
// Подходит для локального запуска без PostgreSQL.
type Storage struct {
	db *gorm.DB
}

var _ repo.Store = (*Storage)(nil)

// New открывает базу по пути dsn (или ":memory:") и создаёт таблицу
func New(dsn string) (*Storage, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("Repository: Не удалось открыть SQLite", err, zap.String("dsn", dsn))
		return nil, fmt.Errorf("открытие sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("получение sql.DB: %w", err)
	}
	// SQLite пишет в один поток, а :memory: живёт в рамках одного соединения
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&task.Task{}); err != nil {
		logger.Error("Repository: Ошибка миграции SQLite", err)
		return nil, fmt.Errorf("миграция sqlite: %w", err)
	}

	logger.Info("Repository: Успешное подключение к SQLite", zap.String("dsn", dsn))
	return &Storage{db: db}, nil
}

func (s *Storage) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		logger.Error("Repository: Не удалось получить sql.DB", err)
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("Repository: Ошибка закрытия SQLite", err)
		return
	}
	logger.Info("Repository: Закрытие SQLite")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("получение sql.DB: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	return nil
}

func (s *Storage) InTx(ctx context.Context, mode repo.TxMode, fn func(repo.TaskRepository) error) error {
	opts := &sql.TxOptions{ReadOnly: mode == repo.ReadOnly}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Storage{db: tx})
	}, opts)
}

func (s *Storage) Save(ctx context.Context, taskToSave *task.Task) (*task.Task, error) {
	if taskToSave == nil {
		return nil, repo.ErrNilTask
	}
	start := time.Now()
	saved := *taskToSave

	if saved.ID == 0 {
		if err := s.db.WithContext(ctx).Create(&saved).Error; err != nil {
			logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
			return nil, fmt.Errorf("добавление задачи: %w", err)
		}
		return &saved, nil
	}

	// map, чтобы nil-поля тоже записались как NULL
	result := s.db.WithContext(ctx).Model(&saved).Updates(map[string]any{
		"title":       saved.Title,
		"description": saved.Description,
		"due_date":    saved.DueDate,
		"completed":   saved.Completed,
	})
	if err := result.Error; err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}
	if result.RowsAffected == 0 {
		logger.Warn("Repository: Обновление несуществующей задачи", zap.Int64("task_id", saved.ID))
		return nil, repo.ErrNotFound
	}
	return &saved, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (*task.Task, bool, error) {
	var found task.Task
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&found).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		logger.Error("Repository: Не удалось получить задачу", err)
		return nil, false, fmt.Errorf("получение задачи: %w", err)
	}
	return &found, true, nil
}

func (s *Storage) FindPage(ctx context.Context, pageIndex, pageSize int) ([]*task.Task, error) {
	tasks := []*task.Task{}
	// gorm молча отбрасывает Offset <= 0, поэтому переполнение проверяем сами
	if pageIndex < 0 || pageSize <= 0 || pageIndex > math.MaxInt/pageSize {
		return tasks, nil
	}
	err := s.db.WithContext(ctx).
		Order("id").
		Limit(pageSize).
		Offset(pageIndex * pageSize).
		Find(&tasks).Error
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err)
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	return tasks, nil
}

func (s *Storage) DeleteByID(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&task.Task{}, id).Error; err != nil {
		logger.Error("Repository: Удаление задачи", err)
		return fmt.Errorf("удаление задачи: %w", err)
	}
	return nil
}
