package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// dbtx - общее у пула и транзакции
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

type Storage struct {
	pool       *pgxpool.Pool
	db         dbtx
	connString string
}

var _ repo.Store = (*Storage)(nil)

const slowQuery = 100 * time.Millisecond

func New(ctx context.Context, connString string, poolCfg PoolConfig) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	if poolCfg.MaxConns > 0 {
		config.MaxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		config.MinConns = poolCfg.MinConns
	}
	if poolCfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = poolCfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL",
		zap.Int32("max_conns", config.MaxConns),
		zap.Int32("min_conns", config.MinConns))
	return &Storage{pool: pool, db: pool, connString: connString}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

// InTx выполняет fn в одной транзакции; на ошибке откат, иначе commit
func (s *Storage) InTx(ctx context.Context, mode repo.TxMode, fn func(repo.TaskRepository) error) error {
	opts := pgx.TxOptions{AccessMode: pgx.ReadWrite}
	if mode == repo.ReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}

	return pgx.BeginTxFunc(ctx, s.pool, opts, func(tx pgx.Tx) error {
		return fn(&Storage{pool: s.pool, db: tx, connString: s.connString})
	})
}

func (s *Storage) Save(ctx context.Context, taskToSave *task.Task) (*task.Task, error) {
	if taskToSave == nil {
		return nil, repo.ErrNilTask
	}
	if taskToSave.ID == 0 {
		return s.insert(ctx, taskToSave)
	}
	return s.update(ctx, taskToSave)
}

func (s *Storage) insert(ctx context.Context, taskToCreate *task.Task) (*task.Task, error) {
	start := time.Now()

	query := `INSERT INTO tasks
				(title, description, due_date, completed)
				VALUES ($1, $2, $3, $4)
				RETURNING id`

	saved := *taskToCreate
	err := s.db.QueryRow(ctx, query,
		taskToCreate.Title,
		taskToCreate.Description,
		taskToCreate.DueDate,
		taskToCreate.Completed,
	).Scan(&saved.ID)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("добавление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return &saved, nil
}

func (s *Storage) update(ctx context.Context, taskToUpdate *task.Task) (*task.Task, error) {
	start := time.Now()

	query := `UPDATE tasks
			SET title = $1,
				description = $2,
				due_date = $3,
				completed = $4
			WHERE id = $5`

	tag, err := s.db.Exec(ctx, query,
		taskToUpdate.Title,
		taskToUpdate.Description,
		taskToUpdate.DueDate,
		taskToUpdate.Completed,
		taskToUpdate.ID,
	)
	if err != nil {
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	if tag.RowsAffected() == 0 {
		logger.Warn("Repository: Обновление несуществующей задачи", zap.Int64("task_id", taskToUpdate.ID))
		return nil, repo.ErrNotFound
	}

	warnIfSlow(start, slowQuery)
	saved := *taskToUpdate
	return &saved, nil
}

func (s *Storage) FindByID(ctx context.Context, id int64) (*task.Task, bool, error) {
	start := time.Now()

	query := `SELECT
				id,
				title,
				description,
				due_date,
				completed
				FROM tasks
				WHERE id = $1`

	rows, err := s.db.Query(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, false, fmt.Errorf("получение задачи: %w", err)
	}

	found, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		logger.Error("Repository: Ошибка сканирования задачи", err)
		return nil, false, fmt.Errorf("сканирование задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return found, true, nil
}

// страница задач по возрастанию id
func (s *Storage) FindPage(ctx context.Context, pageIndex, pageSize int) ([]*task.Task, error) {
	start := time.Now()
	// отрицательный OFFSET postgres отвергает с ошибкой
	if pageIndex < 0 || pageSize <= 0 || pageIndex > math.MaxInt/pageSize {
		return []*task.Task{}, nil
	}
	offset := pageIndex * pageSize

	query := `SELECT
				id,
				title,
				description,
				due_date,
				completed
				FROM tasks
				ORDER BY id
				LIMIT $1 OFFSET $2`

	rows, err := s.db.Query(ctx, query, pageSize, offset)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[task.Task])
	if err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}
	if tasks == nil {
		tasks = []*task.Task{}
	}

	warnIfSlow(start, time.Millisecond*50+time.Millisecond*10*time.Duration(pageSize))
	return tasks, nil
}

func (s *Storage) DeleteByID(ctx context.Context, id int64) error {
	start := time.Now()

	query := `DELETE FROM tasks
				WHERE id = $1`

	_, err := s.db.Exec(ctx, query, id)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	warnIfSlow(start, slowQuery)
	return nil
}

func warnIfSlow(start time.Time, threshold time.Duration) {
	if time.Since(start) > threshold {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
