package pipeline

import (
	"time"

	"github.com/soinechankit/Soinech-CRM/internal/models"
)

// Transition moves deal to stage and applies the side effects:
//   - probability is reset to the stage default, overwriting any manual value;
//   - entering closed_won or closed_lost stamps ActualCloseDate with now's date;
//   - entering an open stage clears ActualCloseDate, so a reopened deal never
//     keeps the date of an earlier close;
//   - leaving closed_lost clears LossReason.
//
// The deal is mutated in place and returned. Persisting it is up to the caller;
// callers that must not observe a half-applied change pass a copy.
func Transition(deal *models.Deal, stage models.DealStage, now time.Time) (*models.Deal, error) {
	info, ok := Lookup(stage)
	if !ok {
		return nil, &InvalidStageError{Stage: string(stage)}
	}

	deal.Stage = info.Key
	deal.Probability = info.Probability

	if info.Terminal {
		d := dateOf(now)
		deal.ActualCloseDate = &d
	} else {
		deal.ActualCloseDate = nil
	}
	if info.Key != models.StageClosedLost {
		deal.LossReason = nil
	}
	return deal, nil
}

// dateOf truncates t to midnight in its own location.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
