package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSender struct {
	calls int
	err   error
}

func (c *countingSender) SendReminders(context.Context) (int, error) {
	c.calls++
	return c.calls, c.err
}

func TestAddJobAndRunNow(t *testing.T) {
	s := New(nil)
	sender := &countingSender{}
	job := &ReminderJob{Sender: sender, Spec: "*/5 * * * *"}

	require.NoError(t, s.AddJob(job))
	assert.Error(t, s.AddJob(job), "duplicate name")

	require.NoError(t, s.RunNow(job.Name()))
	assert.Equal(t, 1, sender.calls)
	_, ok := s.LastRun(job.Name())
	assert.True(t, ok)

	assert.Error(t, s.RunNow("nope"))
}

func TestRunNow_Failure(t *testing.T) {
	s := New(nil)
	sender := &countingSender{err: errors.New("db down")}
	job := &ReminderJob{Sender: sender, Spec: "@every 1h"}
	require.NoError(t, s.AddJob(job))

	assert.Error(t, s.RunNow(job.Name()))
	_, ok := s.LastRun(job.Name())
	assert.False(t, ok)
}

func TestAddJob_BadSpec(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.AddJob(&ReminderJob{Sender: &countingSender{}, Spec: "every now and then"}))
}

func TestStartStop(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.AddJob(&ReminderJob{Sender: &countingSender{}, Spec: "@every 1h"}))
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
