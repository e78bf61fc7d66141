package services

import "github.com/soinechankit/Soinech-CRM/internal/models"

// Allowed lead status moves. Conversion sets qualified on its own and does not
// consult this table.
var LeadTransitions = map[string]map[string]bool{
	string(models.LeadNew):          {"contacted": true, "qualified": true, "lost": true},
	string(models.LeadContacted):    {"new": true, "qualified": true, "proposal_sent": true, "lost": true},
	string(models.LeadQualified):    {"contacted": true, "proposal_sent": true, "negotiation": true, "lost": true},
	string(models.LeadProposalSent): {"qualified": true, "negotiation": true, "won": true, "lost": true},
	string(models.LeadNegotiation):  {"proposal_sent": true, "won": true, "lost": true},
	string(models.LeadWon):          {},
	string(models.LeadLost):         {"new": true}, // recycle
}

var TaskTransitions = map[string]map[string]bool{
	string(models.TaskPending):    {"in_progress": true, "completed": true, "cancelled": true},
	string(models.TaskInProgress): {"pending": true, "completed": true, "cancelled": true},
	string(models.TaskCompleted):  {},
	string(models.TaskCancelled):  {"pending": true},
}

var ProposalTransitions = map[string]map[string]bool{
	string(models.ProposalDraft):    {"sent": true},
	string(models.ProposalSent):     {"viewed": true, "accepted": true, "rejected": true, "draft": true},
	string(models.ProposalViewed):   {"accepted": true, "rejected": true},
	string(models.ProposalAccepted): {},
	string(models.ProposalRejected): {"draft": true},
}

// canTransition allows staying put and any move listed in table.
func canTransition(current, to string, table map[string]map[string]bool) bool {
	if current == "" || current == to {
		return true
	}
	nexts, ok := table[current]
	if !ok {
		return false
	}
	return nexts[to]
}
