package services

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pdf"
)

type capturePDF struct{ last pdf.ProposalData }

func (c *capturePDF) RenderProposal(w io.Writer, data pdf.ProposalData) error {
	c.last = data
	_, err := w.Write([]byte("%PDF-fake"))
	return err
}

func newProposalSvc(gen pdf.Generator) (*ProposalService, *fakeServiceRepo) {
	catalog := &fakeServiceRepo{}
	_ = catalog.Create(context.Background(), &models.Service{
		ID: "svc-seo", Name: "SEO audit", BasePrice: decimal.NewFromInt(800), PriceType: models.PriceFixed, IsActive: true,
	})
	svc := NewProposalService(&fakeProposalRepo{}, catalog, newFakeLeadRepo(acmeLead()), newFakeDealRepo(), gen, nil)
	return svc, catalog
}

func TestProposalCreate_PricesFromCatalog(t *testing.T) {
	svc, _ := newProposalSvc(nil)
	p := &models.Proposal{
		Title:  "Growth package",
		Status: models.ProposalAccepted,
		Items: []models.ProposalItem{
			{ServiceID: strPtr("svc-seo"), Quantity: 2},
			{Name: "Workshop", Quantity: 1, UnitPrice: decimal.NewFromInt(300)},
		},
	}
	require.NoError(t, svc.Create(context.Background(), p))
	assert.Equal(t, models.ProposalDraft, p.Status)
	assert.Equal(t, "SEO audit", p.Items[0].Name)
	assert.True(t, p.TotalValue.Equal(decimal.NewFromInt(1900)), p.TotalValue.String())
}

func TestProposalCreate_Rejects(t *testing.T) {
	svc, _ := newProposalSvc(nil)
	ctx := context.Background()
	var ve *ValidationError

	require.ErrorAs(t, svc.Create(ctx, &models.Proposal{}), &ve)
	assert.Equal(t, "title", ve.Field)

	require.ErrorAs(t, svc.Create(ctx, &models.Proposal{Title: "x",
		Items: []models.ProposalItem{{ServiceID: strPtr("gone"), Quantity: 1}}}), &ve)
	assert.Equal(t, "items", ve.Field)

	require.ErrorAs(t, svc.Create(ctx, &models.Proposal{Title: "x",
		Items: []models.ProposalItem{{Name: "a", Quantity: 0}}}), &ve)
}

func TestProposalStatusFlow(t *testing.T) {
	ctx := context.Background()
	svc, _ := newProposalSvc(nil)
	p := &models.Proposal{Title: "x", TotalValue: decimal.NewFromInt(10)}
	require.NoError(t, svc.Create(ctx, p))

	_, err := svc.UpdateStatus(ctx, p.ID, models.ProposalAccepted)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, st := range []models.ProposalStatus{models.ProposalSent, models.ProposalViewed, models.ProposalAccepted} {
		got, err := svc.UpdateStatus(ctx, p.ID, st)
		require.NoError(t, err)
		assert.Equal(t, st, got.Status)
	}
	_, err = svc.UpdateStatus(ctx, p.ID, models.ProposalDraft)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestProposalRenderPDF_UsesLeadCompany(t *testing.T) {
	gen := &capturePDF{}
	svc, _ := newProposalSvc(gen)
	p := &models.Proposal{Title: "x", LeadID: strPtr("lead-acme")}

	var buf bytes.Buffer
	require.NoError(t, svc.RenderPDF(context.Background(), p, &buf))
	assert.Equal(t, "Acme", gen.last.ClientName)
	assert.Equal(t, "%PDF-fake", buf.String())
}
