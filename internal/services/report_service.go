package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/reports"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

// ReportService loads the raw collections and hands them to the reports
// package. scope, when set, limits every collection to one assignee.
type ReportService struct {
	Leads     repositories.LeadRepository
	Deals     repositories.DealRepository
	FollowUps repositories.FollowUpRepository
	now       func() time.Time
}

func NewReportService(leads repositories.LeadRepository, deals repositories.DealRepository, followUps repositories.FollowUpRepository) *ReportService {
	return &ReportService{Leads: leads, Deals: deals, FollowUps: followUps, now: time.Now}
}

func (s *ReportService) load(ctx context.Context, scope *string) ([]*models.Lead, []*models.Deal, error) {
	leads, err := s.Leads.List(ctx, models.LeadFilter{AssignedTo: scope})
	if err != nil {
		return nil, nil, storeErr("list leads", err)
	}
	deals, err := s.Deals.List(ctx, models.DealFilter{AssignedTo: scope})
	if err != nil {
		return nil, nil, storeErr("list deals", err)
	}
	return leads, deals, nil
}

func (s *ReportService) Dashboard(ctx context.Context, scope *string) (reports.DashboardStats, error) {
	leads, deals, err := s.load(ctx, scope)
	if err != nil {
		return reports.DashboardStats{}, err
	}
	pending := models.FollowUpPending
	fus, err := s.FollowUps.List(ctx, models.FollowUpFilter{Status: &pending, AssignedTo: scope})
	if err != nil {
		return reports.DashboardStats{}, storeErr("list follow-ups", err)
	}
	return reports.Dashboard(leads, deals, fus, s.now()), nil
}

func (s *ReportService) Summary(ctx context.Context, scope *string) (reports.Summary, error) {
	leads, deals, err := s.load(ctx, scope)
	if err != nil {
		return reports.Summary{}, err
	}
	return reports.Summarize(leads, deals, s.now()), nil
}

const (
	sheetSummary = "Summary"
	sheetStages  = "Deals by stage"
	sheetSources = "Leads by source"
)

// ExportXLSX writes the summary as a workbook with one sheet per table.
func (s *ReportService) ExportXLSX(ctx context.Context, w io.Writer, scope *string) error {
	sum, err := s.Summary(ctx, scope)
	if err != nil {
		return err
	}
	f, err := summaryWorkbook(sum)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func summaryWorkbook(sum reports.Summary) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total leads", sum.TotalLeads},
		{"New leads this month", sum.NewLeadsThisMonth},
		{"Total deals", sum.TotalDeals},
		{"Won deals", sum.WonDeals},
		{"Lost deals", sum.LostDeals},
		{"Total revenue", sum.TotalRevenue.InexactFloat64()},
		{"Average deal size", sum.AverageDealSize.InexactFloat64()},
		{"Conversion rate %", sum.ConversionRate},
		{"Win rate %", sum.WinRate},
	}
	if err := writeRows(f, sheetSummary, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetStages); err != nil {
		return nil, err
	}
	rows = [][]interface{}{{"Stage", "Deals", "Value"}}
	for _, b := range sum.DealsByStage {
		rows = append(rows, []interface{}{b.Key, b.Count, b.Value.InexactFloat64()})
	}
	if err := writeRows(f, sheetStages, rows); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(sheetSources); err != nil {
		return nil, err
	}
	rows = [][]interface{}{{"Source", "Leads"}}
	for _, c := range sum.LeadsBySource {
		rows = append(rows, []interface{}{c.Key, c.Count})
	}
	if err := writeRows(f, sheetSources, rows); err != nil {
		return nil, err
	}
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	return nil
}
