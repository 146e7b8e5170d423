package service

import (
	"context"
	"taskManager/internal/repository"
)

// TaskStore - то, что сервису нужно от хранилища: репозиторий и транзакции
type TaskStore interface {
	InTx(ctx context.Context, mode repository.TxMode, fn func(repository.TaskRepository) error) error
	HealthCheck(ctx context.Context) error
}

var _ TaskStore = (repository.Store)(nil)
