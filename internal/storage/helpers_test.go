package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/autopay-alert/internal/migrations"
	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

// TestDataFactory создаёт тестовые данные через публичные методы Storage.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создаёт новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateIdentity создаёт идентичность и возвращает её uid.
func (f *TestDataFactory) CreateIdentity(t *testing.T) string {
	t.Helper()
	uid := uuid.NewString()
	require.NoError(t, f.storage.CreateIdentity(context.Background(), uid, "hash"))
	return uid
}

// CreateSubscription создаёт подписку с разумными значениями по умолчанию.
func (f *TestDataFactory) CreateSubscription(t *testing.T, uid, name string, cycle models.Cycle, next string) *models.Subscription {
	t.Helper()
	sub, err := f.storage.CreateSubscription(context.Background(), models.Subscription{
		UserUID:         uid,
		Name:            name,
		Cost:            decimal.RequireFromString("9.99"),
		Currency:        "$",
		Cycle:           cycle,
		NextBillingDate: next,
		Category:        "Entertainment",
		Priority:        models.PriorityHigh,
	})
	require.NoError(t, err)
	return sub
}

// CreateTask создаёт задачу.
func (f *TestDataFactory) CreateTask(t *testing.T, uid, title, due string) *models.Task {
	t.Helper()
	task, err := f.storage.CreateTask(context.Background(), models.Task{
		UserUID:  uid,
		Title:    title,
		Priority: models.PriorityMedium,
		DueDate:  due,
	})
	require.NoError(t, err)
	return task
}

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err, "failed to create storage")
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, storage.CheckDatabaseReady(ctx))

	return storage
}
