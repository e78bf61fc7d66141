package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// Column order shared by export and import.
var leadCSVHeader = []string{
	"Company Name", "Contact Name", "Email", "Phone", "Source", "Status",
	"Priority", "Estimated Value", "Industry", "Company Size", "Website",
	"Address", "City", "Country", "Notes", "Created At",
}

// ImportResult reports what an import did, row by row.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ImportCSV creates one lead per data row. The first non-blank line is a
// header and is skipped. Rows without company, contact and email are
// skipped; rows that fail validation are reported and the import carries on.
// Imported leads are owned by and assigned to ownerID.
func (s *LeadService) ImportCSV(ctx context.Context, r io.Reader, ownerID string) (*ImportResult, error) {
	res := &ImportResult{Errors: []RowError{}}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line, rows, header := 0, 0, false
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !header {
			header = true
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}
		rows++

		lead, ok := leadFromRow(splitCSVLine(text))
		if !ok {
			res.Skipped++
			continue
		}
		if ownerID != "" {
			lead.CreatedBy = &ownerID
			lead.AssignedTo = &ownerID
		}
		if err := s.Create(ctx, lead); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				res.Errors = append(res.Errors, RowError{Line: line, Message: ve.Error()})
				continue
			}
			return res, err
		}
		res.Imported++
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("read csv: %w", err)
	}
	if rows == 0 {
		return res, &ValidationError{Field: "file", Message: "csv must have a header row and at least one data row"}
	}

	s.Log.Infof("[lead][import] imported=%d skipped=%d errors=%d", res.Imported, res.Skipped, len(res.Errors))
	return res, nil
}

// splitCSVLine splits on commas outside double quotes and trims each value.
// Quotes are dropped; escaped quotes and multi-line fields are not handled.
func splitCSVLine(line string) []string {
	var (
		values   []string
		current  strings.Builder
		inQuotes bool
	)
	for _, ch := range line {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
	}
	return append(values, strings.TrimSpace(current.String()))
}

func leadFromRow(v []string) (*models.Lead, bool) {
	col := func(i int) string {
		if i < len(v) {
			return v[i]
		}
		return ""
	}
	opt := func(i int) *string {
		if s := col(i); s != "" {
			return &s
		}
		return nil
	}
	if col(0) == "" || col(1) == "" || col(2) == "" {
		return nil, false
	}

	lead := &models.Lead{
		CompanyName: col(0),
		ContactName: col(1),
		Email:       col(2),
		Phone:       opt(3),
		Source:      models.SourceOther,
		Status:      models.LeadNew,
		Priority:    models.PriorityMedium,
		Industry:    opt(8),
		CompanySize: opt(9),
		Website:     opt(10),
		Address:     opt(11),
		City:        opt(12),
		Country:     opt(13),
		Notes:       opt(14),
	}
	for _, src := range models.LeadSources {
		if string(src) == col(4) {
			lead.Source = src
		}
	}
	for _, p := range models.Priorities {
		if string(p) == col(6) {
			lead.Priority = p
		}
	}
	if d, err := decimal.NewFromString(col(7)); err == nil {
		lead.EstimatedValue = decimal.NewNullDecimal(d)
	}
	return lead, true
}

// ExportCSV writes every lead matching filter, newest first.
func (s *LeadService) ExportCSV(ctx context.Context, w io.Writer, filter models.LeadFilter) (int, error) {
	filter.SortBy, filter.Order, filter.Limit, filter.Offset = "created_at", "desc", 0, 0
	leads, err := s.Repo.List(ctx, filter)
	if err != nil {
		return 0, storeErr("list leads", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(leadCSVHeader); err != nil {
		return 0, err
	}
	for _, l := range leads {
		value := ""
		if l.EstimatedValue.Valid {
			value = l.EstimatedValue.Decimal.String()
		}
		row := []string{
			l.CompanyName, l.ContactName, l.Email, deref(l.Phone), string(l.Source), string(l.Status),
			string(l.Priority), value, deref(l.Industry), deref(l.CompanySize), deref(l.Website),
			deref(l.Address), deref(l.City), deref(l.Country), deref(l.Notes), l.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(leads), cw.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
