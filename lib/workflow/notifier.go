package workflow

import (
	"dashboard/lib/models"

	"github.com/sirupsen/logrus"
)

// LogNotifier reports transition outcomes through logrus
type LogNotifier struct {
	Logger    *logrus.Logger
	ProjectID string
	UserID    string
}

// StatusUpdated logs a successful transition
func (n *LogNotifier) StatusUpdated(from, to models.ProjectStatus) {
	n.Logger.WithFields(logrus.Fields{
		"operation":  "StatusUpdated",
		"project_id": n.ProjectID,
		"user_id":    n.UserID,
		"from":       from,
		"to":         to,
	}).Info("Project status updated")
}

// StatusUpdateFailed logs a rejected or failed transition
func (n *LogNotifier) StatusUpdateFailed(from, to models.ProjectStatus, err error) {
	n.Logger.WithFields(logrus.Fields{
		"operation":  "StatusUpdateFailed",
		"project_id": n.ProjectID,
		"user_id":    n.UserID,
		"from":       from,
		"to":         to,
		"error":      err.Error(),
	}).Warn("Project status update failed")
}
