package task

import (
	"time"
)

// TaskOption перезаписывает одно поле задачи.
// nil-значение тоже записывается: обновление полностью заменяет поля.
type TaskOption func(*Task)

func WithTitle(title *string) TaskOption {
	return func(task *Task) {
		task.Title = title
	}
}

func WithDescription(description *string) TaskOption {
	return func(task *Task) {
		task.Description = description
	}
}

func WithCompleted(completed *Completed) TaskOption {
	return func(task *Task) {
		task.Completed = completed
	}
}

func WithDueDate(dueDate *time.Time) TaskOption {
	return func(task *Task) {
		task.DueDate = dueDate
	}
}

// Apply применяет опции по порядку, ID не трогает
func (t *Task) Apply(options ...TaskOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(t)
	}
}
