package health

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/checks"
	"github.com/forceweaver/orghealth/internal/core"
)

type stubRunner struct {
	name   string
	weight float64
	run    func(ctx context.Context) *core.CheckResult
}

func (s *stubRunner) Name() string        { return s.name }
func (s *stubRunner) Description() string { return s.name }
func (s *stubRunner) Weight() float64     { return s.weight }

func (s *stubRunner) Run(ctx context.Context, session core.Session, version string) *core.CheckResult {
	return s.run(ctx)
}

func statusRunner(name string, status core.CheckStatus) *stubRunner {
	return &stubRunner{name: name, weight: 1, run: func(context.Context) *core.CheckResult {
		return &core.CheckResult{Name: name, Status: status, Weight: 1}
	}}
}

type memorySink struct {
	mu      sync.Mutex
	updates []ProgressUpdate
}

func (s *memorySink) Publish(ctx context.Context, sessionID string, update ProgressUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, update)
	return nil
}

func newOrchestrator(concurrency int, runners ...checks.Runner) *Orchestrator {
	return NewOrchestrator(checks.NewRegistry(runners...), zap.NewNop(), nil, nil, concurrency)
}

func TestRunAllOK(t *testing.T) {
	o := newOrchestrator(2,
		statusRunner("alpha", core.StatusOK),
		statusRunner("beta", core.StatusOK),
	)

	report, err := o.Run(context.Background(), core.Session{}, "v64.0", nil, "")
	require.NoError(t, err)

	require.NotNil(t, report.Score)
	assert.Equal(t, 100.0, *report.Score)
	assert.Equal(t, "A", report.Grade)
	assert.Equal(t, core.StateCompleted, report.State)
	assert.Equal(t, 2, report.ChecksExecuted)
	assert.Equal(t, "v64.0", report.APIVersionUsed)
	// results keep registration order regardless of completion order
	assert.Equal(t, "alpha", report.Results[0].Name)
	assert.Equal(t, "beta", report.Results[1].Name)
}

func TestRunOneFailureDoesNotCancelSiblings(t *testing.T) {
	o := newOrchestrator(2,
		statusRunner("good", core.StatusOK),
		statusRunner("bad", core.StatusError),
	)

	report, err := o.Run(context.Background(), core.Session{}, "v64.0", nil, "")
	require.NoError(t, err)

	assert.Equal(t, core.StatePartiallyCompleted, report.State)
	assert.Equal(t, 1, report.Summary.OK)
	assert.Equal(t, 1, report.Summary.Errors)
	require.NotNil(t, report.Score)
	assert.Equal(t, 50.0, *report.Score)
	assert.Equal(t, "F", report.Grade)
}

func TestRunUnknownNameExecutesNothing(t *testing.T) {
	executed := false
	tracked := &stubRunner{name: "tracked", weight: 1, run: func(context.Context) *core.CheckResult {
		executed = true
		return &core.CheckResult{Name: "tracked", Status: core.StatusOK, Weight: 1}
	}}
	o := newOrchestrator(2, tracked)

	_, err := o.Run(context.Background(), core.Session{}, "v64.0", []string{"tracked", "no-such-check"}, "")
	assert.True(t, errors.Is(err, core.ErrUnknownCheckType))
	assert.False(t, executed, "a bad name must fail before anything runs")
}

func TestRunSubsetByName(t *testing.T) {
	o := newOrchestrator(2,
		statusRunner("alpha", core.StatusOK),
		statusRunner("beta", core.StatusError),
	)

	report, err := o.Run(context.Background(), core.Session{}, "v64.0", []string{"alpha"}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, report.ChecksRequested)
	assert.Len(t, report.Results, 1)
	assert.Equal(t, "alpha", report.Results[0].Name)
}

func TestRunAllSkippedIsInsufficientData(t *testing.T) {
	o := newOrchestrator(2,
		statusRunner("one", core.StatusSkipped),
		statusRunner("two", core.StatusSkipped),
	)

	report, err := o.Run(context.Background(), core.Session{}, "v64.0", nil, "")
	require.NoError(t, err)

	assert.Nil(t, report.Score)
	assert.True(t, report.InsufficientData)
	assert.Equal(t, 0, report.ChecksExecuted)
	assert.Equal(t, core.StatePartiallyCompleted, report.State)
}

func TestRunPanicContained(t *testing.T) {
	panicking := &stubRunner{name: "boom", weight: 1, run: func(context.Context) *core.CheckResult {
		panic("check exploded")
	}}
	o := newOrchestrator(2, panicking, statusRunner("calm", core.StatusOK))

	report, err := o.Run(context.Background(), core.Session{}, "v64.0", nil, "")
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, report.Results[0].Status)
	assert.Equal(t, core.StatusOK, report.Results[1].Status)
}

func TestRunNilResultDegradesToError(t *testing.T) {
	empty := &stubRunner{name: "empty", weight: 1, run: func(context.Context) *core.CheckResult {
		return nil
	}}
	o := newOrchestrator(1, empty)

	report, err := o.Run(context.Background(), core.Session{}, "v64.0", nil, "")
	require.NoError(t, err)

	assert.Equal(t, core.StatusError, report.Results[0].Status)
}

func TestRunCancelledContextNoPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newOrchestrator(1, statusRunner("alpha", core.StatusOK))
	report, err := o.Run(ctx, core.Session{}, "v64.0", nil, "")

	assert.Nil(t, report)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPublishesProgress(t *testing.T) {
	sink := &memorySink{}
	o := NewOrchestrator(
		checks.NewRegistry(statusRunner("alpha", core.StatusOK)),
		zap.NewNop(), nil, sink, 1)

	_, err := o.Run(context.Background(), core.Session{}, "v64.0", nil, "session-1")
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.NotEmpty(t, sink.updates)
	first := sink.updates[0]
	last := sink.updates[len(sink.updates)-1]
	assert.Equal(t, "running", first.Status)
	assert.Equal(t, "completed", last.Status)
	assert.Equal(t, last.Total, last.Completed)
}
