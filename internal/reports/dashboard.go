package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
)

// DashboardStats is the headline card row on the dashboard.
type DashboardStats struct {
	TotalLeads       int             `json:"total_leads"`
	NewLeads         int             `json:"new_leads"`
	QualifiedLeads   int             `json:"qualified_leads"`
	TotalDeals       int             `json:"total_deals"`
	OpenDeals        int             `json:"open_deals"`
	WonDeals         int             `json:"won_deals"`
	LostDeals        int             `json:"lost_deals"`
	OpenValue        decimal.Decimal `json:"open_value"`
	WonValue         decimal.Decimal `json:"won_value"`
	PendingFollowUps int             `json:"pending_follow_ups"`
	OverdueFollowUps int             `json:"overdue_follow_ups"`
	ConversionRate   float64         `json:"conversion_rate"`
}

// Dashboard computes DashboardStats. Overdue is judged against now.
func Dashboard(leads []*models.Lead, deals []*models.Deal, followUps []*models.FollowUp, now time.Time) DashboardStats {
	st := DashboardStats{
		TotalLeads: len(leads),
		OpenValue:  decimal.Zero,
		WonValue:   decimal.Zero,
	}
	for _, l := range leads {
		switch l.Status {
		case models.LeadNew:
			st.NewLeads++
		case models.LeadQualified:
			st.QualifiedLeads++
		}
	}
	for _, d := range deals {
		if d == nil {
			continue
		}
		st.TotalDeals++
		switch {
		case d.Stage == models.StageClosedWon:
			st.WonDeals++
			st.WonValue = st.WonValue.Add(d.Value)
		case d.Stage == models.StageClosedLost:
			st.LostDeals++
		case pipeline.IsKnown(d.Stage):
			st.OpenDeals++
			st.OpenValue = st.OpenValue.Add(d.Value)
		}
	}
	for _, f := range followUps {
		if f.Status != models.FollowUpPending {
			continue
		}
		st.PendingFollowUps++
		if f.IsOverdue(now) {
			st.OverdueFollowUps++
		}
	}
	st.ConversionRate = ConversionRate(leads, deals)
	return st
}

// Summary backs the reports page.
type Summary struct {
	TotalLeads        int             `json:"total_leads"`
	NewLeadsThisMonth int             `json:"new_leads_this_month"`
	TotalDeals        int             `json:"total_deals"`
	WonDeals          int             `json:"won_deals"`
	LostDeals         int             `json:"lost_deals"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageDealSize   decimal.Decimal `json:"average_deal_size"`
	ConversionRate    float64         `json:"conversion_rate"`
	WinRate           float64         `json:"win_rate"`
	LeadsBySource     []Count         `json:"leads_by_source"`
	LeadsByStatus     []Count         `json:"leads_by_status"`
	DealsByStage      []Bucket        `json:"deals_by_stage"`
}

// Summarize builds the Summary. "This month" is the calendar month of now in
// now's location.
func Summarize(leads []*models.Lead, deals []*models.Deal, now time.Time) Summary {
	y, m, _ := now.Date()
	monthStart := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())

	newThisMonth := 0
	for _, l := range leads {
		if !l.CreatedAt.Before(monthStart) {
			newThisMonth++
		}
	}

	live := make([]*models.Deal, 0, len(deals))
	for _, d := range deals {
		if d != nil {
			live = append(live, d)
		}
	}

	order := make([]string, 0, len(pipeline.AllStages()))
	for _, s := range pipeline.AllStages() {
		order = append(order, string(s))
	}

	return Summary{
		TotalLeads:        len(leads),
		NewLeadsThisMonth: newThisMonth,
		TotalDeals:        len(live),
		WonDeals:          CountStage(live, models.StageClosedWon),
		LostDeals:         CountStage(live, models.StageClosedLost),
		TotalRevenue:      TotalRevenue(live),
		AverageDealSize:   AverageDealSize(live),
		ConversionRate:    ConversionRate(leads, live),
		WinRate:           WinRate(live),
		LeadsBySource:     SortedCounts(GroupCount(leads, LeadSourceKey)),
		LeadsByStatus:     SortedCounts(GroupCount(leads, LeadStatusKey)),
		DealsByStage:      SortedBuckets(GroupSum(live, DealStageKey, DealValue), order),
	}
}
