package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/autopay-alert/internal/models"
)

type taskList []*models.Task

func (l taskList) List(context.Context, string) ([]*models.Task, error) { return l, nil }

type subList struct {
	subs []*models.Subscription
	err  error
}

func (l subList) List(context.Context, string) ([]*models.Subscription, error) { return l.subs, l.err }

type utc struct{}

func (utc) Location(context.Context, string) (*time.Location, error) { return time.UTC, nil }

func TestBuild(t *testing.T) {
	first := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)

	m := Build(first, today,
		[]*models.Task{{ID: "t1", DueDate: "2024-02-29"}, {ID: "t2"}, {ID: "t3", DueDate: "2024-03-01"}},
		[]*models.Subscription{{ID: "s1", NextBillingDate: "2024-02-10"}},
	)

	assert.Equal(t, "2024-02", m.Month)
	assert.Equal(t, 4, m.Leading) // 1 февраля 2024 — четверг
	require.Len(t, m.Days, 29)
	assert.True(t, m.Days[9].Today)
	require.Len(t, m.Days[9].Subscriptions, 1)
	require.Len(t, m.Days[28].Tasks, 1)
	assert.Equal(t, "t1", m.Days[28].Tasks[0].ID)
}

func TestParseMonth(t *testing.T) {
	now := time.Date(2024, 1, 31, 20, 0, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)

	got, err := ParseMonth("", now, tokyo)
	require.NoError(t, err)
	assert.Equal(t, time.February, got.Month())

	got, err = ParseMonth("2023-12", now, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2023, got.Year())

	_, err = ParseMonth("12/2023", now, time.UTC)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestService_Month(t *testing.T) {
	s := New(taskList{{ID: "t1", DueDate: "2024-05-05"}}, subList{}, utc{})
	m, err := s.Month(context.Background(), "u1", "2024-05")
	require.NoError(t, err)
	assert.Len(t, m.Days, 31)
	assert.Len(t, m.Days[4].Tasks, 1)

	s = New(taskList{}, subList{err: models.ErrUnavailable}, utc{})
	_, err = s.Month(context.Background(), "u1", "2024-05")
	assert.True(t, errors.Is(err, models.ErrUnavailable))
}
