package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type LeadSource string

const (
	SourceWebsite       LeadSource = "website"
	SourceReferral      LeadSource = "referral"
	SourceColdCall      LeadSource = "cold_call"
	SourceSocialMedia   LeadSource = "social_media"
	SourceTradeShow     LeadSource = "trade_show"
	SourceEmailCampaign LeadSource = "email_campaign"
	SourceOther         LeadSource = "other"
)

var LeadSources = []LeadSource{
	SourceWebsite, SourceReferral, SourceColdCall, SourceSocialMedia,
	SourceTradeShow, SourceEmailCampaign, SourceOther,
}

type LeadStatus string

const (
	LeadNew          LeadStatus = "new"
	LeadContacted    LeadStatus = "contacted"
	LeadQualified    LeadStatus = "qualified"
	LeadProposalSent LeadStatus = "proposal_sent"
	LeadNegotiation  LeadStatus = "negotiation"
	LeadWon          LeadStatus = "won"
	LeadLost         LeadStatus = "lost"
)

var LeadStatuses = []LeadStatus{
	LeadNew, LeadContacted, LeadQualified, LeadProposalSent, LeadNegotiation, LeadWon, LeadLost,
}

// IsClosed reports whether the lead has reached won or lost.
func (s LeadStatus) IsClosed() bool {
	return s == LeadWon || s == LeadLost
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

type Lead struct {
	ID             string              `json:"id"`
	CompanyName    string              `json:"company_name"`
	ContactName    string              `json:"contact_name"`
	Email          string              `json:"email"`
	Phone          *string             `json:"phone"`
	Source         LeadSource          `json:"source"`
	Status         LeadStatus          `json:"status"`
	Priority       Priority            `json:"priority"`
	EstimatedValue decimal.NullDecimal `json:"estimated_value"`
	Industry       *string             `json:"industry"`
	CompanySize    *string             `json:"company_size"`
	Website        *string             `json:"website"`
	Address        *string             `json:"address"`
	City           *string             `json:"city"`
	Country        *string             `json:"country"`
	Notes          *string             `json:"notes"`
	AssignedTo     *string             `json:"assigned_to"`
	CreatedBy      *string             `json:"created_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

type LeadFilter struct {
	Status     *LeadStatus
	Source     *LeadSource
	Priority   *Priority
	AssignedTo *string
	Search     string
	SortBy     string
	Order      string
	Limit      int
	Offset     int
}

type NoteType string

const (
	NoteGeneral  NoteType = "general"
	NoteCall     NoteType = "call"
	NoteEmail    NoteType = "email"
	NoteMeeting  NoteType = "meeting"
	NoteFollowUp NoteType = "followup"
)

type LeadNote struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	Content   string    `json:"content"`
	NoteType  NoteType  `json:"note_type"`
	CreatedBy *string   `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
