// Package workflow validates project status changes against the fixed
// transition graph and drives a single status update through an external
// persistence callback.
package workflow

import "dashboard/lib/models"

// Transitions is the directed graph of legal project status changes.
// Cancelled is terminal.
var Transitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectStatusPlanning:  {models.ProjectStatusActive, models.ProjectStatusCancelled},
	models.ProjectStatusActive:    {models.ProjectStatusOnHold, models.ProjectStatusCompleted, models.ProjectStatusCancelled},
	models.ProjectStatusOnHold:    {models.ProjectStatusActive, models.ProjectStatusCancelled},
	models.ProjectStatusCompleted: {models.ProjectStatusActive},
	models.ProjectStatusCancelled: {},
}

// AllowedTransitions returns the statuses reachable from the given status.
// The returned slice is a copy.
func AllowedTransitions(from models.ProjectStatus) []models.ProjectStatus {
	next := Transitions[from]
	out := make([]models.ProjectStatus, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether the edge from -> to exists
func CanTransition(from, to models.ProjectStatus) bool {
	for _, next := range Transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status
func IsTerminal(status models.ProjectStatus) bool {
	return len(Transitions[status]) == 0
}
