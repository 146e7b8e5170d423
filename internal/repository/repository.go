package repository

import (
	"context"
	"taskManager/internal/models/task"
)

// TaskRepository - операции над таблицей задач по числовому id.
// FindByID сообщает об отсутствии через found=false, а не ошибкой.
type TaskRepository interface {
	Save(ctx context.Context, t *task.Task) (*task.Task, error)
	FindByID(ctx context.Context, id int64) (*task.Task, bool, error)
	FindPage(ctx context.Context, pageIndex, pageSize int) ([]*task.Task, error)
	DeleteByID(ctx context.Context, id int64) error
}

type TxMode int

const (
	ReadWrite TxMode = iota
	ReadOnly
)

func (m TxMode) String() string {
	if m == ReadOnly {
		return "read_only"
	}
	return "read_write"
}

// Store - хранилище целиком: репозиторий плюс границы транзакций.
// Внутри fn нужно работать только с переданным репозиторием.
type Store interface {
	TaskRepository
	InTx(ctx context.Context, mode TxMode, fn func(TaskRepository) error) error
	HealthCheck(ctx context.Context) error
	Close()
}
