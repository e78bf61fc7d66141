package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
	"github.com/soinechankit/Soinech-CRM/internal/repositories"
)

var fixedNow = time.Date(2026, 5, 20, 16, 30, 0, 0, time.UTC)

func newDealSvc(repo *fakeDealRepo) *DealService {
	s := NewDealService(repo, nil)
	s.now = func() time.Time { return fixedNow }
	return s
}

func openDeal(id string, stage models.DealStage) *models.Deal {
	return &models.Deal{
		ID:          id,
		Title:       "Deal " + id,
		Value:       decimal.NewFromInt(1000),
		Stage:       stage,
		Probability: pipeline.DefaultProbabilityOf(stage),
	}
}

func TestDealCreate_Defaults(t *testing.T) {
	repo := newFakeDealRepo()
	svc := newDealSvc(repo)

	d := &models.Deal{Title: "Hooli", Value: decimal.NewFromInt(10)}
	require.NoError(t, svc.Create(context.Background(), d, nil))
	assert.Equal(t, models.StageQualification, d.Stage)
	assert.Equal(t, 20, d.Probability)
	assert.Nil(t, d.ActualCloseDate)

	manual := 35
	d2 := &models.Deal{Title: "Initech", Stage: models.StageProposal}
	require.NoError(t, svc.Create(context.Background(), d2, &manual))
	assert.Equal(t, 35, d2.Probability)

	won := &models.Deal{Title: "Won", Stage: models.StageClosedWon}
	require.NoError(t, svc.Create(context.Background(), won, nil))
	require.NotNil(t, won.ActualCloseDate)
	assert.Equal(t, time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), *won.ActualCloseDate)
}

func TestDealCreate_Rejects(t *testing.T) {
	svc := newDealSvc(newFakeDealRepo())
	ctx := context.Background()

	var invalid *pipeline.InvalidStageError
	require.ErrorAs(t, svc.Create(ctx, &models.Deal{Title: "x", Stage: "won"}, nil), &invalid)

	var ve *ValidationError
	require.ErrorAs(t, svc.Create(ctx, &models.Deal{Title: ""}, nil), &ve)
	assert.Equal(t, "title", ve.Field)

	require.ErrorAs(t, svc.Create(ctx, &models.Deal{Title: "x", Value: decimal.NewFromInt(-5)}, nil), &ve)
	assert.Equal(t, "value", ve.Field)

	tooHigh := 101
	require.ErrorAs(t, svc.Create(ctx, &models.Deal{Title: "x"}, &tooHigh), &ve)
	assert.Equal(t, "probability", ve.Field)
}

func TestDealCreate_SecondDealForLead(t *testing.T) {
	repo := newFakeDealRepo(&models.Deal{ID: "d1", Title: "a", LeadID: strPtr("L1"), Stage: models.StageQualification})
	svc := newDealSvc(repo)

	var ve *ValidationError
	require.ErrorAs(t, svc.Create(context.Background(), &models.Deal{Title: "b", LeadID: strPtr("L1")}, nil), &ve)
	assert.Equal(t, "lead_id", ve.Field)
}

func TestDealUpdate_LeadAlreadyHasDeal(t *testing.T) {
	repo := newFakeDealRepo(
		&models.Deal{ID: "d1", Title: "a", LeadID: strPtr("L1"), Stage: models.StageQualification},
		&models.Deal{ID: "d2", Title: "b", Stage: models.StageProposal, Probability: 50},
	)
	svc := newDealSvc(repo)

	_, err := svc.Update(context.Background(), "d2", DealUpdate{LeadID: strPtr("L1"), Title: strPtr("renamed")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "lead_id", ve.Field)

	stored, _ := repo.GetByID(context.Background(), "d2")
	assert.Nil(t, stored.LeadID)
	assert.Equal(t, "b", stored.Title)
}

func TestTransitionStage_ClosedLostKeepsReason(t *testing.T) {
	repo := newFakeDealRepo(openDeal("d1", models.StageNegotiation))
	svc := newDealSvc(repo)

	got, err := svc.TransitionStage(context.Background(), "d1", models.StageClosedLost, strPtr("budget"))
	require.NoError(t, err)
	assert.Equal(t, 0, got.Probability)
	require.NotNil(t, got.LossReason)
	assert.Equal(t, "budget", *got.LossReason)
	require.NotNil(t, got.ActualCloseDate)

	stored, _ := repo.GetByID(context.Background(), "d1")
	assert.Equal(t, models.StageClosedLost, stored.Stage)
}

func TestTransitionStage_ReasonIgnoredOutsideClosedLost(t *testing.T) {
	repo := newFakeDealRepo(openDeal("d1", models.StageNegotiation))
	got, err := newDealSvc(repo).TransitionStage(context.Background(), "d1", models.StageClosedWon, strPtr("why"))
	require.NoError(t, err)
	assert.Nil(t, got.LossReason)
	assert.Equal(t, 100, got.Probability)
}

func TestTransitionStage_StoreFailure(t *testing.T) {
	repo := newFakeDealRepo(openDeal("d1", models.StageProposal))
	repo.failUpdate = errDown
	svc := newDealSvc(repo)

	_, err := svc.TransitionStage(context.Background(), "d1", models.StageClosedWon, nil)
	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "update deal stage", se.Op)

	repo.failUpdate = nil
	stored, _ := repo.GetByID(context.Background(), "d1")
	assert.Equal(t, models.StageProposal, stored.Stage)
	assert.Equal(t, 50, stored.Probability)
	assert.Nil(t, stored.ActualCloseDate)
}

func TestTransitionStage_InvalidAndMissing(t *testing.T) {
	svc := newDealSvc(newFakeDealRepo(openDeal("d1", models.StageProposal)))

	var invalid *pipeline.InvalidStageError
	_, err := svc.TransitionStage(context.Background(), "d1", "done", nil)
	require.ErrorAs(t, err, &invalid)

	_, err = svc.TransitionStage(context.Background(), "nope", models.StageProposal, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAdvanceAndRetreat(t *testing.T) {
	ctx := context.Background()
	repo := newFakeDealRepo(openDeal("d1", models.StageQualification))
	svc := newDealSvc(repo)

	_, err := svc.Retreat(ctx, "d1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, want := range []models.DealStage{models.StageProposal, models.StageNegotiation, models.StageClosedWon} {
		got, err := svc.Advance(ctx, "d1")
		require.NoError(t, err)
		assert.Equal(t, want, got.Stage)
	}
	_, err = svc.Advance(ctx, "d1")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	got, err := svc.Retreat(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.StageNegotiation, got.Stage)
	assert.Nil(t, got.ActualCloseDate)
	assert.Equal(t, 75, got.Probability)
}

func TestDealUpdate_StageThenProbability(t *testing.T) {
	repo := newFakeDealRepo(openDeal("d1", models.StageQualification))
	svc := newDealSvc(repo)

	stage := models.StageNegotiation
	p := 90
	got, err := svc.Update(context.Background(), "d1", DealUpdate{Stage: &stage, Probability: &p})
	require.NoError(t, err)
	assert.Equal(t, models.StageNegotiation, got.Stage)
	assert.Equal(t, 90, got.Probability)

	title := "Renamed"
	got, err = svc.Update(context.Background(), "d1", DealUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, 90, got.Probability)
}

func TestPipelineView(t *testing.T) {
	repo := newFakeDealRepo(
		&models.Deal{ID: "a", Title: "a", Stage: models.StageQualification, Value: decimal.NewFromInt(1000), Probability: 20},
		&models.Deal{ID: "b", Title: "b", Stage: models.StageNegotiation, Value: decimal.NewFromInt(2000), Probability: 75},
		&models.Deal{ID: "c", Title: "c", Stage: models.StageClosedWon, Value: decimal.NewFromInt(9000), Probability: 100},
	)
	view, err := newDealSvc(repo).Pipeline(context.Background(), models.DealFilter{})
	require.NoError(t, err)
	assert.True(t, view.TotalPipelineValue.Equal(decimal.NewFromInt(3000)))
	assert.True(t, view.TotalWeightedValue.Equal(decimal.NewFromInt(1700)))
	require.Len(t, view.Columns, 5)
	assert.Len(t, view.Columns[3].Deals, 1)
}

func TestDealDelete(t *testing.T) {
	svc := newDealSvc(newFakeDealRepo(openDeal("d1", models.StageProposal)))
	require.NoError(t, svc.Delete(context.Background(), "d1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "d1"), repositories.ErrNotFound)
}
