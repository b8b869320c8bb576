package models

import "time"

// TaskStatus — состояние задачи.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
)

// Valid сообщает, является ли значение допустимым статусом задачи.
func (s TaskStatus) Valid() bool {
	return s == TaskTodo || s == TaskInProgress || s == TaskDone
}

// Task — задача пользователя. CreatedAt выставляется хранилищем один раз.
type Task struct {
	ID          string     `json:"id"`
	UserUID     string     `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     string     `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// DummyTask используется для приёма задачи из JSON-запроса.
type DummyTask struct {
	Title       string     `json:"title" validate:"required,max=300"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority" validate:"required,oneof=high medium low"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in-progress done"`
	DueDate     string     `json:"due_date,omitempty"` // формат 2006-01-02
}

// GroupedTasks разделяет задачи на общие (без срока) и запланированные.
type GroupedTasks struct {
	General   []*Task `json:"general"`
	Scheduled []*Task `json:"scheduled"`
}
