package dto

import (
	"taskManager/internal/models/task"
)

// CreateOrUpdateTaskRequest - тело POST /tasks и PUT /tasks/{id}.
// Проверка dueDate на прошлое делается в handlers, здесь только размеры и enum.
type CreateOrUpdateTaskRequest struct {
	Title       *string         `json:"title" validate:"omitempty,max=64"`
	Description *string         `json:"description" validate:"omitempty,max=255"`
	DueDate     *DateTime       `json:"dueDate"`
	Completed   *task.Completed `json:"completed" validate:"omitempty,oneof=NOT_STARTED IN_PROCESS DONE"`
}

type TaskResponse struct {
	ID          int64           `json:"id"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	DueDate     *DateTime       `json:"dueDate"`
	Completed   *task.Completed `json:"completed"`
}
