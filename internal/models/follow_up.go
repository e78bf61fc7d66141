package models

import "time"

type FollowUpType string

const (
	FollowUpCall    FollowUpType = "call"
	FollowUpEmail   FollowUpType = "email"
	FollowUpMeeting FollowUpType = "meeting"
	FollowUpTask    FollowUpType = "task"
	FollowUpOther   FollowUpType = "other"
)

type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpCompleted FollowUpStatus = "completed"
	FollowUpCancelled FollowUpStatus = "cancelled"
)

type FollowUp struct {
	ID               string         `json:"id"`
	LeadID           *string        `json:"lead_id"`
	DealID           *string        `json:"deal_id"`
	Title            string         `json:"title"`
	Description      *string        `json:"description"`
	DueDate          time.Time      `json:"due_date"`
	ReminderDate     *time.Time     `json:"reminder_date"`
	Type             FollowUpType   `json:"follow_up_type"`
	Status           FollowUpStatus `json:"status"`
	Priority         Priority       `json:"priority"`
	AssignedTo       *string        `json:"assigned_to"`
	CreatedBy        *string        `json:"created_by"`
	CompletedAt      *time.Time     `json:"completed_at"`
	RemindedAt       *time.Time     `json:"reminded_at"`
	ReminderAttempts int            `json:"reminder_attempts"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// IsOverdue is derived: still pending and due before now.
func (f *FollowUp) IsOverdue(now time.Time) bool {
	return f.Status == FollowUpPending && f.DueDate.Before(now)
}

type FollowUpFilter struct {
	Status     *FollowUpStatus
	AssignedTo *string
	LeadID     *string
	DealID     *string
	DueFrom    *time.Time
	DueTo      *time.Time
	Limit      int
	Offset     int
}
