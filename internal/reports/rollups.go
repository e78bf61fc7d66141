// Package reports derives dashboard and analytics figures from raw lead, deal
// and follow-up collections. Everything here is pure.
package reports

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// UnknownKey buckets records whose grouping field is unset.
const UnknownKey = "unknown"

// GroupCount counts items per key. An empty key is counted under UnknownKey.
func GroupCount[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		out[keyOrUnknown(key(it))]++
	}
	return out
}

// Bucket is a group with a count and a summed value.
type Bucket struct {
	Key   string          `json:"key"`
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// GroupSum counts items per key and sums value per key.
func GroupSum[T any](items []T, key func(T) string, value func(T) decimal.Decimal) map[string]Bucket {
	out := make(map[string]Bucket)
	for _, it := range items {
		k := keyOrUnknown(key(it))
		b, ok := out[k]
		if !ok {
			b = Bucket{Key: k, Value: decimal.Zero}
		}
		b.Count++
		b.Value = b.Value.Add(value(it))
		out[k] = b
	}
	return out
}

// Count is one row of a distribution.
type Count struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// SortedCounts flattens a GroupCount result, largest first, then by key.
func SortedCounts(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// SortedBuckets flattens a GroupSum result in the given key order; keys not in
// order follow alphabetically.
func SortedBuckets(m map[string]Bucket, order []string) []Bucket {
	out := make([]Bucket, 0, len(m))
	seen := make(map[string]bool, len(order))
	for _, k := range order {
		if b, ok := m[k]; ok {
			out = append(out, b)
			seen[k] = true
		}
	}
	rest := make([]string, 0)
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		out = append(out, m[k])
	}
	return out
}

func keyOrUnknown(k string) string {
	if k == "" {
		return UnknownKey
	}
	return k
}

// CountStage counts deals in stage.
func CountStage(deals []*models.Deal, stage models.DealStage) int {
	n := 0
	for _, d := range deals {
		if d != nil && d.Stage == stage {
			n++
		}
	}
	return n
}

// TotalRevenue sums the value of closed_won deals.
func TotalRevenue(deals []*models.Deal) decimal.Decimal {
	total := decimal.Zero
	for _, d := range deals {
		if d != nil && d.Stage == models.StageClosedWon {
			total = total.Add(d.Value)
		}
	}
	return total
}

// ConversionRate is won deals per lead, in percent. Zero without leads.
func ConversionRate(leads []*models.Lead, deals []*models.Deal) float64 {
	return percent(CountStage(deals, models.StageClosedWon), len(leads))
}

// AverageDealSize is revenue per won deal. Zero without won deals.
func AverageDealSize(deals []*models.Deal) decimal.Decimal {
	won := CountStage(deals, models.StageClosedWon)
	if won == 0 {
		return decimal.Zero
	}
	return TotalRevenue(deals).Div(decimal.NewFromInt(int64(won)))
}

// WinRate is won / (won + lost), in percent. Zero when nothing is closed.
func WinRate(deals []*models.Deal) float64 {
	won := CountStage(deals, models.StageClosedWon)
	lost := CountStage(deals, models.StageClosedLost)
	return percent(won, won+lost)
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}

func LeadSourceKey(l *models.Lead) string { return string(l.Source) }
func LeadStatusKey(l *models.Lead) string { return string(l.Status) }
func DealStageKey(d *models.Deal) string { return string(d.Stage) }
func DealValue(d *models.Deal) decimal.Decimal {
	return d.Value
}
