package workflow

import (
	"context"
	"errors"
	"testing"

	"dashboard/lib/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	successes []models.ProjectStatus
	failures  []error
}

func (r *recordingNotifier) StatusUpdated(_, to models.ProjectStatus) {
	r.successes = append(r.successes, to)
}

func (r *recordingNotifier) StatusUpdateFailed(_, _ models.ProjectStatus, err error) {
	r.failures = append(r.failures, err)
}

type countingUpdater struct {
	calls int
	err   error
	last  [2]models.ProjectStatus
}

func (u *countingUpdater) UpdateStatus(_ context.Context, from, to models.ProjectStatus, _ string) error {
	u.calls++
	u.last = [2]models.ProjectStatus{from, to}
	return u.err
}

func TestTransitionTable(t *testing.T) {
	tests := []struct {
		from  models.ProjectStatus
		allow []models.ProjectStatus
	}{
		{models.ProjectStatusPlanning, []models.ProjectStatus{models.ProjectStatusActive, models.ProjectStatusCancelled}},
		{models.ProjectStatusActive, []models.ProjectStatus{models.ProjectStatusOnHold, models.ProjectStatusCompleted, models.ProjectStatusCancelled}},
		{models.ProjectStatusOnHold, []models.ProjectStatus{models.ProjectStatusActive, models.ProjectStatusCancelled}},
		{models.ProjectStatusCompleted, []models.ProjectStatus{models.ProjectStatusActive}},
		{models.ProjectStatusCancelled, []models.ProjectStatus{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			assert.ElementsMatch(t, tt.allow, AllowedTransitions(tt.from))
			for _, to := range models.ProjectStatuses {
				want := false
				for _, a := range tt.allow {
					if a == to {
						want = true
					}
				}
				assert.Equal(t, want, CanTransition(tt.from, to), "%s -> %s", tt.from, to)
			}
		})
	}
}

func TestCancelledIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(models.ProjectStatusCancelled))
	assert.False(t, IsTerminal(models.ProjectStatusCompleted))
	assert.Empty(t, AllowedTransitions(models.ProjectStatusCancelled))
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	next := AllowedTransitions(models.ProjectStatusPlanning)
	next[0] = models.ProjectStatusCompleted
	assert.True(t, CanTransition(models.ProjectStatusPlanning, models.ProjectStatusActive))
	assert.False(t, CanTransition(models.ProjectStatusPlanning, models.ProjectStatusCompleted))
}

func TestController_SuccessfulTransitionReloads(t *testing.T) {
	updater := &countingUpdater{}
	notifier := &recordingNotifier{}
	loader := LoaderFunc(func(context.Context) (models.ProjectStatus, error) {
		return models.ProjectStatusActive, nil
	})
	c := NewController(models.ProjectStatusPlanning, updater, loader, notifier)

	status, err := c.Transition(context.Background(), models.ProjectStatusActive, "kickoff")

	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusActive, status)
	assert.Equal(t, models.ProjectStatusActive, c.Current())
	assert.Equal(t, 1, updater.calls)
	assert.Equal(t, [2]models.ProjectStatus{models.ProjectStatusPlanning, models.ProjectStatusActive}, updater.last)
	assert.Equal(t, []models.ProjectStatus{models.ProjectStatusActive}, notifier.successes)
	assert.Empty(t, notifier.failures)
	assert.False(t, c.InFlight())
}

func TestController_ReloadedStatusWins(t *testing.T) {
	// another writer moved the project on after our update
	loader := LoaderFunc(func(context.Context) (models.ProjectStatus, error) {
		return models.ProjectStatusOnHold, nil
	})
	c := NewController(models.ProjectStatusPlanning, &countingUpdater{}, loader, nil)

	status, err := c.Transition(context.Background(), models.ProjectStatusActive, "")

	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusOnHold, status)
	assert.Equal(t, models.ProjectStatusOnHold, c.Current())
}

func TestController_InvalidTransitionNeverCallsUpdater(t *testing.T) {
	updater := &countingUpdater{}
	notifier := &recordingNotifier{}
	c := NewController(models.ProjectStatusCancelled, updater, nil, notifier)

	for _, to := range models.ProjectStatuses {
		_, err := c.Transition(context.Background(), to, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
	}

	assert.Equal(t, 0, updater.calls)
	assert.Equal(t, models.ProjectStatusCancelled, c.Current())
	assert.Len(t, notifier.failures, len(models.ProjectStatuses))
}

func TestController_UpdaterFailureLeavesStatus(t *testing.T) {
	updater := &countingUpdater{err: errors.New("connection reset")}
	notifier := &recordingNotifier{}
	c := NewController(models.ProjectStatusActive, updater, nil, notifier)

	status, err := c.Transition(context.Background(), models.ProjectStatusCompleted, "")

	require.Error(t, err)
	assert.ErrorIs(t, err, updater.err)
	assert.Equal(t, models.ProjectStatusActive, status)
	assert.Equal(t, models.ProjectStatusActive, c.Current())
	assert.Equal(t, 1, updater.calls)
	assert.Len(t, notifier.failures, 1)
	assert.Empty(t, notifier.successes)
	assert.False(t, c.InFlight())
}

func TestController_SecondRequestWhileInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	updater := UpdaterFunc(func(context.Context, models.ProjectStatus, models.ProjectStatus, string) error {
		calls++
		close(entered)
		<-release
		return nil
	})
	c := NewController(models.ProjectStatusActive, updater, nil, nil)

	done := make(chan error, 1)
	go func() {
		_, err := c.Transition(context.Background(), models.ProjectStatusOnHold, "")
		done <- err
	}()

	<-entered
	assert.True(t, c.InFlight())
	_, err := c.Transition(context.Background(), models.ProjectStatusCompleted, "")
	assert.ErrorIs(t, err, ErrTransitionInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, calls)
	assert.Equal(t, models.ProjectStatusOnHold, c.Current())
}

func TestController_ReloadFailureKeepsRequestedStatus(t *testing.T) {
	loader := LoaderFunc(func(context.Context) (models.ProjectStatus, error) {
		return "", errors.New("timeout")
	})
	notifier := &recordingNotifier{}
	c := NewController(models.ProjectStatusOnHold, &countingUpdater{}, loader, notifier)

	status, err := c.Transition(context.Background(), models.ProjectStatusActive, "")

	assert.ErrorIs(t, err, ErrReloadFailed)
	assert.Equal(t, models.ProjectStatusActive, status)
	assert.Equal(t, models.ProjectStatusActive, c.Current())
	assert.Len(t, notifier.successes, 1)
}

func TestController_Options(t *testing.T) {
	c := NewController(models.ProjectStatusCompleted, &countingUpdater{}, nil, nil)
	assert.Equal(t, []models.ProjectStatus{models.ProjectStatusActive}, c.Options())
}

func TestLogNotifier(t *testing.T) {
	logger, hook := test.NewNullLogger()
	n := &LogNotifier{Logger: logger, ProjectID: "p-1", UserID: "u-1"}

	n.StatusUpdated(models.ProjectStatusPlanning, models.ProjectStatusActive)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, "p-1", hook.LastEntry().Data["project_id"])

	n.StatusUpdateFailed(models.ProjectStatusPlanning, models.ProjectStatusCompleted, ErrInvalidTransition)
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, ErrInvalidTransition.Error(), hook.LastEntry().Data["error"])
}
