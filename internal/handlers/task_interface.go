package handlers

import (
	"context"
	"taskManager/internal/dto"
)

type Service interface {
	CreateTask(context.Context, dto.CreateOrUpdateTaskRequest) (dto.TaskResponse, error)
	FindTaskByID(context.Context, int64) (dto.TaskResponse, error)
	FindAllTasks(ctx context.Context, pageNumber, pageSize int) ([]dto.TaskResponse, error)
	UpdateTask(context.Context, int64, dto.CreateOrUpdateTaskRequest) (dto.TaskResponse, error)
	DeleteTaskByID(context.Context, int64) error
	HealthCheck(context.Context) error
}
