package task

import (
	"time"
)

// Task - единственная сущность сервиса. Все поля кроме ID необязательны,
// поэтому хранятся указателями: nil соответствует NULL в базе и null в JSON.
type Task struct {
	ID          int64      `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	Title       *string    `json:"title" db:"title" gorm:"size:64"`
	Description *string    `json:"description" db:"description" gorm:"size:255"`
	DueDate     *time.Time `json:"due_date" db:"due_date" gorm:"column:due_date"`
	Completed   *Completed `json:"completed" db:"completed" gorm:"size:32"`
}

func (Task) TableName() string {
	return "tasks"
}

// Completed - открытое перечисление статусов выполнения
type Completed string

const CompletedNotStarted Completed = "NOT_STARTED"
const CompletedInProcess Completed = "IN_PROCESS"
const CompletedDone Completed = "DONE"

func (c Completed) IsValid() bool {
	switch c {
	case CompletedNotStarted, CompletedInProcess, CompletedDone:
		return true
	}
	return false
}
