package data

import "errors"

var (
	ErrProjectNotFound     = errors.New("project not found")
	ErrChangeOrderNotFound = errors.New("change order not found")
	ErrChangeOrderDecided  = errors.New("change order already decided")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrDivisionNotFound    = errors.New("division not found")
	ErrDocumentNotFound    = errors.New("document not found")
	// ErrStatusConflict means the row no longer holds the status the update was based on
	ErrStatusConflict = errors.New("project status changed concurrently")
)
