package scheduler

import (
	"context"

	"github.com/soinechankit/Soinech-CRM/internal/logger"
)

// ReminderSender is the follow-up service's reminder sweep.
type ReminderSender interface {
	SendReminders(ctx context.Context) (int, error)
}

// ReminderJob notifies owners of follow-ups whose reminder date has passed.
type ReminderJob struct {
	Sender ReminderSender
	Spec   string
	Log    *logger.Logger
}

func (j *ReminderJob) Name() string     { return "follow-up-reminders" }
func (j *ReminderJob) Schedule() string { return j.Spec }

func (j *ReminderJob) Run(ctx context.Context) error {
	n, err := j.Sender.SendReminders(ctx)
	if err != nil {
		return err
	}
	if n > 0 && j.Log != nil {
		j.Log.Infof("[follow-up][remind] sent %d reminders", n)
	}
	return nil
}
