package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/soinechankit/Soinech-CRM/internal/models"
	"github.com/soinechankit/Soinech-CRM/internal/pipeline"
)

func oneOf[T ~string](allowed []T) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[string(a)] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

// RegisterValidators adds the CRM enum tags to gin's binding validator:
// deal_stage, lead_source, lead_status, priority, task_status,
// proposal_status and follow_up_type. Empty values are left to omitempty.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	rules := map[string]validator.Func{
		"deal_stage":  oneOf(pipeline.AllStages()),
		"lead_source": oneOf(models.LeadSources),
		"lead_status": oneOf(models.LeadStatuses),
		"priority":    oneOf(models.Priorities),
		"task_status": oneOf([]models.TaskStatus{
			models.TaskPending, models.TaskInProgress, models.TaskCompleted, models.TaskCancelled,
		}),
		"proposal_status": oneOf([]models.ProposalStatus{
			models.ProposalDraft, models.ProposalSent, models.ProposalViewed, models.ProposalAccepted, models.ProposalRejected,
		}),
		"follow_up_type": oneOf([]models.FollowUpType{
			models.FollowUpCall, models.FollowUpEmail, models.FollowUpMeeting, models.FollowUpTask, models.FollowUpOther,
		}),
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}
