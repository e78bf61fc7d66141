package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PriceType string

const (
	PriceFixed      PriceType = "fixed"
	PriceHourly     PriceType = "hourly"
	PriceMonthly    PriceType = "monthly"
	PricePerProject PriceType = "per_project"
)

// Service is a catalog offering that proposals are built from.
type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description *string         `json:"description"`
	BasePrice   decimal.Decimal `json:"base_price"`
	PriceType   PriceType       `json:"price_type"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
