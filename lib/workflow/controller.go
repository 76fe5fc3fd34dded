package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"dashboard/lib/models"
)

var (
	// ErrInvalidTransition is returned when the target is not reachable from the current status
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTransitionInFlight is returned when a second update is requested before the first finished
	ErrTransitionInFlight = errors.New("status update already in progress")
	// ErrReloadFailed means the update was persisted but the status could not be re-read
	ErrReloadFailed = errors.New("status updated but reload failed")
)

// StatusUpdater persists a status change. The controller never writes status itself.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, from, to models.ProjectStatus, reason string) error
}

// StatusLoader re-reads the persisted status after a successful update
type StatusLoader interface {
	LoadStatus(ctx context.Context) (models.ProjectStatus, error)
}

// Notifier reports the outcome of a status update to the user
type Notifier interface {
	StatusUpdated(from, to models.ProjectStatus)
	StatusUpdateFailed(from, to models.ProjectStatus, err error)
}

// UpdaterFunc adapts a function to StatusUpdater
type UpdaterFunc func(ctx context.Context, from, to models.ProjectStatus, reason string) error

// UpdateStatus implements StatusUpdater
func (f UpdaterFunc) UpdateStatus(ctx context.Context, from, to models.ProjectStatus, reason string) error {
	return f(ctx, from, to, reason)
}

// LoaderFunc adapts a function to StatusLoader
type LoaderFunc func(ctx context.Context) (models.ProjectStatus, error)

// LoadStatus implements StatusLoader
func (f LoaderFunc) LoadStatus(ctx context.Context) (models.ProjectStatus, error) {
	return f(ctx)
}

type noopNotifier struct{}

func (noopNotifier) StatusUpdated(models.ProjectStatus, models.ProjectStatus)             {}
func (noopNotifier) StatusUpdateFailed(models.ProjectStatus, models.ProjectStatus, error) {}

// Controller holds the displayed status of one project and moves it along the
// transition graph. At most one update runs at a time.
type Controller struct {
	updater  StatusUpdater
	loader   StatusLoader
	notifier Notifier

	mu       sync.Mutex
	current  models.ProjectStatus
	inFlight bool
}

// NewController creates a controller starting from the given status.
// loader and notifier may be nil.
func NewController(current models.ProjectStatus, updater StatusUpdater, loader StatusLoader, notifier Notifier) *Controller {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Controller{
		updater:  updater,
		loader:   loader,
		notifier: notifier,
		current:  current,
	}
}

// Current returns the status the controller currently shows
func (c *Controller) Current() models.ProjectStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Options returns the statuses the current status may move to
func (c *Controller) Options() []models.ProjectStatus {
	return AllowedTransitions(c.Current())
}

// InFlight reports whether an update is waiting on the updater
func (c *Controller) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Transition validates the move to next and hands it to the updater once.
// On failure the displayed status is left unchanged and the failure is notified.
// On success the status is re-read through the loader when one is configured,
// otherwise next is assumed.
func (c *Controller) Transition(ctx context.Context, next models.ProjectStatus, reason string) (models.ProjectStatus, error) {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return "", ErrTransitionInFlight
	}
	from := c.current
	if !CanTransition(from, next) {
		c.mu.Unlock()
		err := fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
		c.notifier.StatusUpdateFailed(from, next, err)
		return from, err
	}
	c.inFlight = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	if err := c.updater.UpdateStatus(ctx, from, next, reason); err != nil {
		c.notifier.StatusUpdateFailed(from, next, err)
		return from, fmt.Errorf("status update rejected: %w", err)
	}

	confirmed := next
	if c.loader != nil {
		loaded, err := c.loader.LoadStatus(ctx)
		if err != nil {
			// The write succeeded; report it but keep the requested status
			c.setCurrent(next)
			c.notifier.StatusUpdated(from, next)
			return next, fmt.Errorf("%w: %v", ErrReloadFailed, err)
		}
		confirmed = loaded
	}

	c.setCurrent(confirmed)
	c.notifier.StatusUpdated(from, confirmed)
	return confirmed, nil
}

func (c *Controller) setCurrent(status models.ProjectStatus) {
	c.mu.Lock()
	c.current = status
	c.mu.Unlock()
}
