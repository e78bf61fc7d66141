package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

func acmeLead() *models.Lead {
	return &models.Lead{
		ID:             "lead-acme",
		CompanyName:    "Acme",
		ContactName:    "Wile E.",
		Email:          "wile@acme.test",
		Source:         models.SourceWebsite,
		Status:         models.LeadContacted,
		Priority:       models.PriorityHigh,
		EstimatedValue: decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		AssignedTo:     strPtr("u1"),
	}
}

func newLeadSvc(leads *fakeLeadRepo, deals *fakeDealRepo, n Notifier) *LeadService {
	return NewLeadService(leads, deals, &fakeNoteRepo{}, n, nil)
}

func TestConvertLeadToDeal_Acme(t *testing.T) {
	leads := newFakeLeadRepo(acmeLead())
	deals := newFakeDealRepo()
	svc := newLeadSvc(leads, deals, nil)

	deal, err := svc.ConvertLeadToDeal(context.Background(), "lead-acme", "actor")
	require.NoError(t, err)

	assert.Equal(t, "Acme - Deal", deal.Title)
	assert.True(t, deal.Value.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, models.StageQualification, deal.Stage)
	assert.Equal(t, 20, deal.Probability)
	require.NotNil(t, deal.AssignedTo)
	assert.Equal(t, "u1", *deal.AssignedTo)
	require.NotNil(t, deal.CreatedBy)
	assert.Equal(t, "actor", *deal.CreatedBy)
	require.NotNil(t, deal.LeadID)
	assert.Equal(t, "lead-acme", *deal.LeadID)

	stored, err := leads.GetByID(context.Background(), "lead-acme")
	require.NoError(t, err)
	assert.Equal(t, models.LeadQualified, stored.Status)
	assert.Equal(t, 1, deals.count())
}

func TestConvertLeadToDeal_NoEstimatedValue(t *testing.T) {
	l := acmeLead()
	l.EstimatedValue = decimal.NullDecimal{}
	svc := newLeadSvc(newFakeLeadRepo(l), newFakeDealRepo(), nil)

	deal, err := svc.ConvertLeadToDeal(context.Background(), l.ID, "actor")
	require.NoError(t, err)
	assert.True(t, deal.Value.IsZero())
}

func TestConvertLeadToDeal_DealWriteFailsLeavesLeadUntouched(t *testing.T) {
	leads := newFakeLeadRepo(acmeLead())
	deals := newFakeDealRepo()
	deals.failCreate = errDown
	svc := newLeadSvc(leads, deals, nil)

	_, err := svc.ConvertLeadToDeal(context.Background(), "lead-acme", "actor")

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "create deal", se.Op)
	assert.ErrorIs(t, err, errDown)

	stored, _ := leads.GetByID(context.Background(), "lead-acme")
	assert.Equal(t, models.LeadContacted, stored.Status)
	assert.Zero(t, leads.statusCalls)
}

func TestConvertLeadToDeal_LeadUpdateFailsRollsBackDeal(t *testing.T) {
	leads := newFakeLeadRepo(acmeLead())
	leads.failUpdateStatus = errDown
	deals := newFakeDealRepo()
	svc := newLeadSvc(leads, deals, nil)

	_, err := svc.ConvertLeadToDeal(context.Background(), "lead-acme", "actor")

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "update lead status", se.Op)
	assert.Len(t, deals.deleted, 1)
	assert.Zero(t, deals.count())
}

func TestConvertLeadToDeal_RollbackFailureStillReportsStoreError(t *testing.T) {
	leads := newFakeLeadRepo(acmeLead())
	leads.failUpdateStatus = errDown
	deals := newFakeDealRepo()
	deals.failDelete = errors.New("also down")
	svc := newLeadSvc(leads, deals, nil)

	_, err := svc.ConvertLeadToDeal(context.Background(), "lead-acme", "actor")
	assert.ErrorIs(t, err, errDown)
}

func TestConvertLeadToDeal_Ineligible(t *testing.T) {
	ctx := context.Background()

	t.Run("closed lead", func(t *testing.T) {
		for _, st := range []models.LeadStatus{models.LeadWon, models.LeadLost} {
			l := acmeLead()
			l.Status = st
			deals := newFakeDealRepo()
			_, err := newLeadSvc(newFakeLeadRepo(l), deals, nil).ConvertLeadToDeal(ctx, l.ID, "actor")

			var inel *IneligibleLeadError
			require.ErrorAs(t, err, &inel, st)
			assert.Equal(t, l.ID, inel.LeadID)
			assert.Zero(t, deals.count())
		}
	})

	t.Run("already converted", func(t *testing.T) {
		leads := newFakeLeadRepo(acmeLead())
		deals := newFakeDealRepo()
		svc := newLeadSvc(leads, deals, nil)

		_, err := svc.ConvertLeadToDeal(ctx, "lead-acme", "actor")
		require.NoError(t, err)

		// status qualified is still convertible by status alone; the existing deal blocks it
		_, err = svc.ConvertLeadToDeal(ctx, "lead-acme", "actor")
		var inel *IneligibleLeadError
		require.ErrorAs(t, err, &inel)
		assert.Equal(t, 1, deals.count())
	})

	t.Run("missing lead", func(t *testing.T) {
		_, err := newLeadSvc(newFakeLeadRepo(), newFakeDealRepo(), nil).ConvertLeadToDeal(ctx, "nope", "actor")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestLeadCreate_DefaultsAndPhone(t *testing.T) {
	leads := newFakeLeadRepo()
	svc := newLeadSvc(leads, newFakeDealRepo(), nil)

	l := &models.Lead{CompanyName: " Globex ", ContactName: "Hank", Email: "hank@globex.test", Phone: strPtr("(201) 555-0123")}
	require.NoError(t, svc.Create(context.Background(), l))
	assert.Equal(t, "Globex", l.CompanyName)
	assert.Equal(t, models.LeadNew, l.Status)
	assert.Equal(t, models.SourceOther, l.Source)
	assert.Equal(t, models.PriorityMedium, l.Priority)
	require.NotNil(t, l.Phone)
	assert.Equal(t, "+12015550123", *l.Phone)

	bad := &models.Lead{CompanyName: "X", ContactName: "Y", Email: "z@x.test", Phone: strPtr("12")}
	var ve *ValidationError
	require.ErrorAs(t, svc.Create(context.Background(), bad), &ve)
	assert.Equal(t, "phone", ve.Field)

	neg := &models.Lead{CompanyName: "X", ContactName: "Y", Email: "z@x.test",
		EstimatedValue: decimal.NewNullDecimal(decimal.NewFromInt(-1))}
	require.ErrorAs(t, svc.Create(context.Background(), neg), &ve)
	assert.Equal(t, "estimated_value", ve.Field)
}

func TestLeadUpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	l := acmeLead()
	l.Status = models.LeadNew
	svc := newLeadSvc(newFakeLeadRepo(l), newFakeDealRepo(), nil)

	got, err := svc.UpdateStatus(ctx, l.ID, models.LeadContacted)
	require.NoError(t, err)
	assert.Equal(t, models.LeadContacted, got.Status)

	_, err = svc.UpdateStatus(ctx, l.ID, models.LeadWon)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, l.ID, models.LeadContacted)
	assert.NoError(t, err)
}

func TestLeadUpdate_RejectedStatusWritesNothing(t *testing.T) {
	ctx := context.Background()
	l := acmeLead()
	l.Status = models.LeadWon
	leads := newFakeLeadRepo(l)
	svc := newLeadSvc(leads, newFakeDealRepo(), nil)

	edit := *l
	edit.CompanyName = "Renamed Corp"
	edit.Status = models.LeadNew
	assert.ErrorIs(t, svc.Update(ctx, &edit), ErrInvalidTransition)

	stored, err := leads.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", stored.CompanyName)
	assert.Equal(t, models.LeadWon, stored.Status)
	assert.Zero(t, leads.statusCalls)
}

func TestLeadUpdate_FieldsAndStatusTogether(t *testing.T) {
	ctx := context.Background()
	leads := newFakeLeadRepo(acmeLead())
	svc := newLeadSvc(leads, newFakeDealRepo(), nil)

	edit := *acmeLead()
	edit.CompanyName = "Acme Holdings"
	edit.Status = models.LeadQualified
	require.NoError(t, svc.Update(ctx, &edit))

	stored, err := leads.GetByID(ctx, "lead-acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", stored.CompanyName)
	assert.Equal(t, models.LeadQualified, stored.Status)
}

func TestLeadAssign_NotifiesNewOwner(t *testing.T) {
	n := &recordingNotifier{}
	svc := newLeadSvc(newFakeLeadRepo(acmeLead()), newFakeDealRepo(), n)

	_, err := svc.Assign(context.Background(), "lead-acme", strPtr("u2"), "u1")
	require.NoError(t, err)
	require.Len(t, n.sent, 1)
	assert.Equal(t, "u2", n.sent[0].UserID)

	// self-assignment is silent
	_, err = svc.Assign(context.Background(), "lead-acme", strPtr("u1"), "u1")
	require.NoError(t, err)
	assert.Len(t, n.sent, 1)
}

func TestLeadNotes(t *testing.T) {
	ctx := context.Background()
	svc := newLeadSvc(newFakeLeadRepo(acmeLead()), newFakeDealRepo(), nil)

	var ve *ValidationError
	require.ErrorAs(t, svc.AddNote(ctx, &models.LeadNote{LeadID: "lead-acme", Content: "  "}), &ve)

	require.NoError(t, svc.AddNote(ctx, &models.LeadNote{LeadID: "lead-acme", Content: "called"}))
	assert.ErrorIs(t, svc.AddNote(ctx, &models.LeadNote{LeadID: "ghost", Content: "x"}), ErrNotFound)

	notes, err := svc.ListNotes(ctx, "lead-acme")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, models.NoteGeneral, notes[0].NoteType)
}

func TestStoreErrPassesNotFound(t *testing.T) {
	assert.Nil(t, storeErr("x", nil))
	assert.Equal(t, ErrNotFound, storeErr("x", repositories.ErrNotFound))

	err := storeErr("list deals", errDown)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "list deals: connection refused", err.Error())
}
