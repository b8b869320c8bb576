package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

const taskColumns = `id, user_uid, title, description, priority, status, due_date, created_at`

func scanTask(row rowScanner) (*models.Task, error) {
	var (
		t   models.Task
		due sql.NullTime
	)
	if err := row.Scan(&t.ID, &t.UserUID, &t.Title, &t.Description, &t.Priority, &t.Status,
		&due, &t.CreatedAt); err != nil {
		return nil, err
	}
	if due.Valid {
		t.DueDate = recurrence.FormatDate(due.Time)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return &t, nil
}

func dueDateArg(d string) any {
	if d == "" {
		return nil
	}
	return d
}

// CreateTask сохраняет задачу. CreatedAt выставляется базой данных.
func (s *Storage) CreateTask(ctx context.Context, t models.Task) (*models.Task, error) {
	const op = "storage.CreateTask"

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	row := s.DB.QueryRowContext(ctx, `
		INSERT INTO tasks (id, user_uid, title, description, priority, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+taskColumns,
		t.ID, t.UserUID, t.Title, t.Description, t.Priority, t.Status, dueDateArg(t.DueDate))
	created, err := scanTask(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return created, nil
}

// GetTask возвращает задачу идентичности по ID.
func (s *Storage) GetTask(ctx context.Context, uid, id string) (*models.Task, error) {
	const op = "storage.GetTask"

	row := s.DB.QueryRowContext(ctx, `SELECT `+taskColumns+`
		FROM tasks WHERE user_uid = $1 AND id = $2`, uid, id)
	t, err := scanTask(row)
	if err != nil {
		return nil, wrap(op, err)
	}
	return t, nil
}

// ListTasks возвращает задачи идентичности, новые первыми.
func (s *Storage) ListTasks(ctx context.Context, uid string) ([]*models.Task, error) {
	const op = "storage.ListTasks"

	rows, err := s.DB.QueryContext(ctx, `SELECT `+taskColumns+`
		FROM tasks WHERE user_uid = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// UpdateTask перезаписывает изменяемые поля задачи. CreatedAt не меняется.
func (s *Storage) UpdateTask(ctx context.Context, t models.Task) error {
	const op = "storage.UpdateTask"

	res, err := s.DB.ExecContext(ctx, `
		UPDATE tasks SET title = $1, description = $2, priority = $3, status = $4, due_date = $5
		WHERE user_uid = $6 AND id = $7`,
		t.Title, t.Description, t.Priority, t.Status, dueDateArg(t.DueDate), t.UserUID, t.ID)
	if err != nil {
		return wrap(op, err)
	}
	if err := expectOne(res); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteTask удаляет задачу.
func (s *Storage) DeleteTask(ctx context.Context, uid, id string) error {
	const op = "storage.DeleteTask"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM tasks WHERE user_uid = $1 AND id = $2`, uid, id)
	if err != nil {
		return wrap(op, err)
	}
	if err := expectOne(res); err != nil {
		return wrap(op, err)
	}
	return nil
}
