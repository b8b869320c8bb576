// Package task содержит бизнес-логику задач пользователя.
package task

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/magabrotheeeer/autopay-alert/internal/lib/recurrence"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
	"github.com/magabrotheeeer/autopay-alert/internal/services/events"
)

// Repository определяет методы работы с задачами в хранилище.
type Repository interface {
	CreateTask(ctx context.Context, t models.Task) (*models.Task, error)
	GetTask(ctx context.Context, uid, id string) (*models.Task, error)
	ListTasks(ctx context.Context, uid string) ([]*models.Task, error)
	UpdateTask(ctx context.Context, t models.Task) error
	DeleteTask(ctx context.Context, uid, id string) error
}

// Publisher рассылает уведомления об изменениях.
type Publisher interface {
	Publish(uid string, change events.Change)
}

// Service реализует работу с задачами.
type Service struct {
	repo   Repository
	events Publisher
	log    *slog.Logger
}

// New создаёт Service.
func New(log *slog.Logger, repo Repository, pub Publisher) *Service {
	return &Service{repo: repo, events: pub, log: log}
}

// Create сохраняет новую задачу со статусом todo, если статус не задан.
func (s *Service) Create(ctx context.Context, uid string, req models.DummyTask) (*models.Task, error) {
	const op = "task.Create"

	t, err := fromDummy(uid, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t.Status == "" {
		t.Status = models.TaskTodo
	}
	created, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("created new task", slog.String("id", created.ID), slog.String("user_uid", uid))
	s.events.Publish(uid, events.Change{Kind: events.KindTasks, ID: created.ID, Action: "created"})
	return created, nil
}

// List возвращает все задачи, новые первыми.
func (s *Service) List(ctx context.Context, uid string) ([]*models.Task, error) {
	const op = "task.List"
	tasks, err := s.repo.ListTasks(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return tasks, nil
}

// Grouped возвращает задачи, разделённые на общие и запланированные.
func (s *Service) Grouped(ctx context.Context, uid string) (models.GroupedTasks, error) {
	tasks, err := s.List(ctx, uid)
	if err != nil {
		return models.GroupedTasks{}, err
	}
	return Group(tasks), nil
}

// Pending возвращает незавершённые задачи.
func (s *Service) Pending(ctx context.Context, uid string) ([]*models.Task, error) {
	tasks, err := s.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	pending := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != models.TaskDone {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

// Get возвращает задачу по ID.
func (s *Service) Get(ctx context.Context, uid, id string) (*models.Task, error) {
	const op = "task.Get"
	t, err := s.repo.GetTask(ctx, uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Update перезаписывает задачу. Пустой статус сохраняет текущий, CreatedAt
// не изменяется.
func (s *Service) Update(ctx context.Context, uid, id string, req models.DummyTask) (*models.Task, error) {
	const op = "task.Update"

	current, err := s.repo.GetTask(ctx, uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t, err := fromDummy(uid, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t.ID = id
	t.CreatedAt = current.CreatedAt
	if t.Status == "" {
		t.Status = current.Status
	}
	if err := s.repo.UpdateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.events.Publish(uid, events.Change{Kind: events.KindTasks, ID: id, Action: "updated"})
	return &t, nil
}

// Toggle переключает задачу между done и todo.
func (s *Service) Toggle(ctx context.Context, uid, id string) (*models.Task, error) {
	const op = "task.Toggle"

	t, err := s.repo.GetTask(ctx, uid, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if t.Status == models.TaskDone {
		t.Status = models.TaskTodo
	} else {
		t.Status = models.TaskDone
	}
	if err := s.repo.UpdateTask(ctx, *t); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("task toggled", slog.String("id", id), slog.String("status", string(t.Status)))
	s.events.Publish(uid, events.Change{Kind: events.KindTasks, ID: id, Action: "toggled"})
	return t, nil
}

// Delete удаляет задачу.
func (s *Service) Delete(ctx context.Context, uid, id string) error {
	const op = "task.Delete"
	if err := s.repo.DeleteTask(ctx, uid, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.events.Publish(uid, events.Change{Kind: events.KindTasks, ID: id, Action: "deleted"})
	return nil
}

// Group делит задачи на общие (без срока, порядок сохраняется) и
// запланированные (по возрастанию срока).
func Group(tasks []*models.Task) models.GroupedTasks {
	g := models.GroupedTasks{General: make([]*models.Task, 0), Scheduled: make([]*models.Task, 0)}
	for _, t := range tasks {
		if t.DueDate == "" {
			g.General = append(g.General, t)
		} else {
			g.Scheduled = append(g.Scheduled, t)
		}
	}
	sort.SliceStable(g.Scheduled, func(i, j int) bool {
		return g.Scheduled[i].DueDate < g.Scheduled[j].DueDate
	})
	return g
}

func fromDummy(uid string, req models.DummyTask) (models.Task, error) {
	if req.DueDate != "" {
		if _, err := recurrence.ParseDate(req.DueDate); err != nil {
			return models.Task{}, err
		}
	}
	if !req.Priority.Valid() {
		return models.Task{}, fmt.Errorf("%w: unknown priority %q", models.ErrInvalidInput, req.Priority)
	}
	if req.Status != "" && !req.Status.Valid() {
		return models.Task{}, fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, req.Status)
	}
	return models.Task{
		UserUID:     uid,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		DueDate:     req.DueDate,
	}, nil
}
