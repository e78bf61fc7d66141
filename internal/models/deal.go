package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DealStage is a column of the sales pipeline.
type DealStage string

const (
	StageQualification DealStage = "qualification"
	StageProposal      DealStage = "proposal"
	StageNegotiation   DealStage = "negotiation"
	StageClosedWon     DealStage = "closed_won"
	StageClosedLost    DealStage = "closed_lost"
)

type Deal struct {
	ID                string          `json:"id"`
	LeadID            *string         `json:"lead_id"`
	Title             string          `json:"title"`
	Value             decimal.Decimal `json:"value"`
	Stage             DealStage       `json:"stage"`
	Probability       int             `json:"probability"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
	ActualCloseDate   *time.Time      `json:"actual_close_date"`
	LossReason        *string         `json:"loss_reason"`
	AssignedTo        *string         `json:"assigned_to"`
	CreatedBy         *string         `json:"created_by"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`

	// joined on read, never written
	LeadCompany *string `json:"lead_company,omitempty"`
}

// Clone returns a copy that shares no pointers with d.
func (d *Deal) Clone() *Deal {
	if d == nil {
		return nil
	}
	c := *d
	c.LeadID = cloneString(d.LeadID)
	c.LossReason = cloneString(d.LossReason)
	c.AssignedTo = cloneString(d.AssignedTo)
	c.CreatedBy = cloneString(d.CreatedBy)
	c.LeadCompany = cloneString(d.LeadCompany)
	c.ExpectedCloseDate = cloneTime(d.ExpectedCloseDate)
	c.ActualCloseDate = cloneTime(d.ActualCloseDate)
	return &c
}

// DealFilter selects deals; nil fields are not applied.
type DealFilter struct {
	Stages     []DealStage
	AssignedTo *string
	LeadID     *string
	From       *time.Time
	To         *time.Time
	SortBy     string
	Order      string
	Limit      int
	Offset     int
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
