package mapper

import (
	"taskManager/internal/dto"
	"taskManager/internal/models/task"
)

// TaskMapper переводит задачу между сущностью и DTO.
// Состояния нет, входные данные считаются уже провалидированными.
type TaskMapper struct{}

func NewTaskMapper() TaskMapper {
	return TaskMapper{}
}

func (TaskMapper) ToResponse(t *task.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     dto.FromTime(t.DueDate),
		Completed:   t.Completed,
	}
}

// ToTask собирает новую задачу без ID, его назначит хранилище
func (TaskMapper) ToTask(req dto.CreateOrUpdateTaskRequest) *task.Task {
	return &task.Task{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate.ToTime(),
		Completed:   req.Completed,
	}
}

func (TaskMapper) ApplyUpdate(req dto.CreateOrUpdateTaskRequest, t *task.Task) {
	t.Apply(
		task.WithTitle(req.Title),
		task.WithDescription(req.Description),
		task.WithDueDate(req.DueDate.ToTime()),
		task.WithCompleted(req.Completed),
	)
}

func (m TaskMapper) ToResponseList(tasks []*task.Task) []dto.TaskResponse {
	result := make([]dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = m.ToResponse(t)
	}
	return result
}
