package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProposalStatus string

const (
	ProposalDraft    ProposalStatus = "draft"
	ProposalSent     ProposalStatus = "sent"
	ProposalViewed   ProposalStatus = "viewed"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

type ProposalItem struct {
	ServiceID *string         `json:"service_id"`
	Name      string          `json:"name" binding:"required_without=ServiceID"`
	Quantity  int             `json:"quantity" binding:"gte=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Total is quantity times unit price.
func (i ProposalItem) Total() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Proposal struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	LeadID      *string         `json:"lead_id"`
	DealID      *string         `json:"deal_id"`
	Status      ProposalStatus  `json:"status"`
	TotalValue  decimal.Decimal `json:"total_value"`
	ValidUntil  *time.Time      `json:"valid_until"`
	Items       []ProposalItem  `json:"items"`
	CreatedBy   *string         `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// RecalculateTotal sets TotalValue from the line items when there are any.
func (p *Proposal) RecalculateTotal() {
	if len(p.Items) == 0 {
		return
	}
	total := decimal.Zero
	for _, it := range p.Items {
		total = total.Add(it.Total())
	}
	p.TotalValue = total
}

type ProposalFilter struct {
	Status    *ProposalStatus
	LeadID    *string
	DealID    *string
	CreatedBy *string
}
