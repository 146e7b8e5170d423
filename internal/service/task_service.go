package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"taskManager/internal/dto"
	"taskManager/internal/logger"
	"taskManager/internal/mapper"
	"taskManager/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики

// MaxPageSize - предел размера страницы, больше не отдаём
const MaxPageSize = 50

type TaskService struct {
	store  TaskStore
	mapper mapper.TaskMapper
}

func NewTaskService(store TaskStore, m mapper.TaskMapper) *TaskService {
	return &TaskService{
		store:  store,
		mapper: m,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, req dto.CreateOrUpdateTaskRequest) (dto.TaskResponse, error) {
	logger.Debug("Service: Создание задачи")

	var resp dto.TaskResponse
	err := s.store.InTx(ctx, repository.ReadWrite, func(repo repository.TaskRepository) error {
		saved, err := repo.Save(ctx, s.mapper.ToTask(req))
		if err != nil {
			return fmt.Errorf("сохранение задачи: %w", err)
		}
		resp = s.mapper.ToResponse(saved)
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось создать задачу", err)
		return dto.TaskResponse{}, err
	}

	logger.Info("Service: Задача создана", zap.Int64("task_id", resp.ID))
	return resp, nil
}

func (s *TaskService) FindTaskByID(ctx context.Context, id int64) (dto.TaskResponse, error) {
	var resp dto.TaskResponse
	err := s.store.InTx(ctx, repository.ReadOnly, func(repo repository.TaskRepository) error {
		t, found, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("получение задачи: %w", err)
		}
		if !found {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return NewNotFound(id)
		}
		resp = s.mapper.ToResponse(t)
		return nil
	})
	if err != nil {
		return dto.TaskResponse{}, err
	}
	return resp, nil
}

// FindAllTasks принимает номер страницы с единицы.
// pageSize вне (0, MaxPageSize] приводится к MaxPageSize.
func (s *TaskService) FindAllTasks(ctx context.Context, pageNumber, pageSize int) ([]dto.TaskResponse, error) {
	if pageSize > MaxPageSize || pageSize <= 0 {
		pageSize = MaxPageSize
	}
	pageIndex := pageNumber - 1
	if pageIndex > math.MaxInt/pageSize {
		// смещение не помещается в int, такой страницы заведомо нет
		return []dto.TaskResponse{}, nil
	}

	var resp []dto.TaskResponse
	err := s.store.InTx(ctx, repository.ReadOnly, func(repo repository.TaskRepository) error {
		tasks, err := repo.FindPage(ctx, pageIndex, pageSize)
		if err != nil {
			return fmt.Errorf("получение страницы задач: %w", err)
		}
		resp = s.mapper.ToResponseList(tasks)
		return nil
	})
	if err != nil {
		logger.Error("Service: Не удалось получить задачи", err,
			zap.Int("page_number", pageNumber), zap.Int("page_size", pageSize))
		return nil, err
	}
	return resp, nil
}

// UpdateTask перезаписывает все четыре поля, отсутствующие в запросе становятся null
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req dto.CreateOrUpdateTaskRequest) (dto.TaskResponse, error) {
	var resp dto.TaskResponse
	err := s.store.InTx(ctx, repository.ReadWrite, func(repo repository.TaskRepository) error {
		t, found, err := repo.FindByID(ctx, id)
		if err != nil {
			return fmt.Errorf("получение задачи: %w", err)
		}
		if !found {
			logger.Info("Service: Задача не найдена", zap.Int64("target_id", id))
			return NewNotFound(id)
		}

		s.mapper.ApplyUpdate(req, t)
		saved, err := repo.Save(ctx, t)
		if errors.Is(err, repository.ErrNotFound) {
			// удалили между чтением и записью
			return NewNotFound(id)
		}
		if err != nil {
			return fmt.Errorf("обновление задачи: %w", err)
		}
		resp = s.mapper.ToResponse(saved)
		return nil
	})
	if err != nil {
		return dto.TaskResponse{}, err
	}

	logger.Info("Service: Задача обновлена", zap.Int64("task_id", id))
	return resp, nil
}

// DeleteTaskByID не считает ошибкой отсутствие задачи
func (s *TaskService) DeleteTaskByID(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, repository.ReadWrite, func(repo repository.TaskRepository) error {
		return repo.DeleteByID(ctx, id)
	})
	if err != nil {
		logger.Error("Service: Не удалось удалить задачу", err, zap.Int64("task_id", id))
		return fmt.Errorf("удаление задачи: %w", err)
	}

	logger.Info("Service: Задача удалена", zap.Int64("task_id", id))
	return nil
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.store.HealthCheck(ctx); err != nil {
		return fmt.Errorf("проверка здоровья сервиса: %w", err)
	}
	return nil
}
