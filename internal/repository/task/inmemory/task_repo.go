package inmemory

import (
	"context"
	"sync"
	"taskManager/internal/logger"
	"taskManager/internal/models/task"
	repo "taskManager/internal/repository"

	"go.uber.org/zap"
)

// TaskStorage хранит копии задач, чтобы изменения снаружи
// попадали в хранилище только через Save, как в настоящей базе.
type TaskStorage struct {
	storage map[int64]*task.Task
	mtx     *sync.RWMutex
	ids     []int64 // по возрастанию, отсюда порядок страниц
	lastID  int64

	// транзакции: запись эксклюзивно, чтение параллельно
	txMtx *sync.RWMutex
}

var _ repo.Store = (*TaskStorage)(nil)

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[int64]*task.Task),
		mtx:     &sync.RWMutex{},
		ids:     []int64{},
		txMtx:   &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: Соединение стабильно")
	return nil
}

func (s *TaskStorage) Close() {
	logger.Info("Repository: Хранилище в памяти закрыто")
}

func (s *TaskStorage) InTx(ctx context.Context, mode repo.TxMode, fn func(repo.TaskRepository) error) error {
	if mode == repo.ReadOnly {
		s.txMtx.RLock()
		defer s.txMtx.RUnlock()
	} else {
		s.txMtx.Lock()
		defer s.txMtx.Unlock()
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s)
}

func (s *TaskStorage) Save(ctx context.Context, taskToSave *task.Task) (*task.Task, error) {
	if taskToSave == nil {
		return nil, repo.ErrNilTask
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	stored := copyTask(taskToSave)
	if stored.ID == 0 {
		s.lastID++
		stored.ID = s.lastID
		s.ids = append(s.ids, stored.ID)
	} else if _, ok := s.storage[stored.ID]; !ok {
		logger.Warn("Repository: Обновление несуществующей задачи", zap.Int64("task_id", stored.ID))
		return nil, repo.ErrNotFound
	}

	s.storage[stored.ID] = stored
	return copyTask(stored), nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id int64) (*task.Task, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	taskToGet, ok := s.storage[id]
	if !ok {
		return nil, false, nil
	}
	return copyTask(taskToGet), true, nil
}

func (s *TaskStorage) FindPage(ctx context.Context, pageIndex, pageSize int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	// после проверки offset не превышает len(s.ids)-1 и не переполняется
	if pageIndex < 0 || pageSize <= 0 || len(s.ids) == 0 || pageIndex > (len(s.ids)-1)/pageSize {
		return res, nil
	}

	offset := pageIndex * pageSize
	end := offset + min(pageSize, len(s.ids)-offset)
	for _, id := range s.ids[offset:end] {
		res = append(res, copyTask(s.storage[id]))
	}

	return res, nil
}

// удаление отсутствующего id не ошибка
func (s *TaskStorage) DeleteByID(ctx context.Context, id int64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return nil
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}

func copyTask(t *task.Task) *task.Task {
	c := *t
	if t.Title != nil {
		title := *t.Title
		c.Title = &title
	}
	if t.Description != nil {
		description := *t.Description
		c.Description = &description
	}
	if t.DueDate != nil {
		dueDate := *t.DueDate
		c.DueDate = &dueDate
	}
	if t.Completed != nil {
		completed := *t.Completed
		c.Completed = &completed
	}
	return &c
}
