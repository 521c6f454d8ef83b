package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/checks"
	"github.com/forceweaver/orghealth/internal/core"
)

// ProgressUpdate is a best-effort snapshot of a running invocation.
type ProgressUpdate struct {
	Status    string `json:"status"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Current   string `json:"current,omitempty"`
}

// ProgressSink receives progress snapshots. Publish failures never affect
// the report.
type ProgressSink interface {
	Publish(ctx context.Context, sessionID string, update ProgressUpdate) error
}

// MetricsRecorder receives per-check observations.
type MetricsRecorder interface {
	RecordCheck(name string, status core.CheckStatus, seconds float64)
}

// Orchestrator runs check units against a live session and negotiated
// version, isolating per-unit failure, then aggregates one report.
type Orchestrator struct {
	registry    *checks.Registry
	logger      *zap.Logger
	metrics     MetricsRecorder
	progress    ProgressSink
	concurrency int
}

func NewOrchestrator(registry *checks.Registry, logger *zap.Logger, metrics MetricsRecorder, progress ProgressSink, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Orchestrator{
		registry:    registry,
		logger:      logger,
		metrics:     metrics,
		progress:    progress,
		concurrency: concurrency,
	}
}

// CheckNames lists the registered check types in display order.
func (o *Orchestrator) CheckNames() []string {
	return o.registry.Names()
}

// Runners lists the registered check units in display order.
func (o *Orchestrator) Runners() []checks.Runner {
	return o.registry.Runners()
}

// Run executes the requested subset (or, with no names, the full set).
// All names are validated before any check executes. Units fan out up to the
// concurrency budget and fan back in before aggregation; one unit's failure
// never cancels its siblings.
func (o *Orchestrator) Run(ctx context.Context, session core.Session, version string, requested []string, sessionID string) (*core.HealthReport, error) {
	runners, err := o.resolve(requested)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, sessionID, ProgressUpdate{Status: "running", Total: len(runners)})

	results := make([]core.CheckResult, len(runners))
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0
	sem := make(chan struct{}, o.concurrency)

	for i, runner := range runners {
		wg.Add(1)
		go func(idx int, runner checks.Runner) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = o.runOne(ctx, runner, session, version)

			mu.Lock()
			completed++
			done := completed
			mu.Unlock()
			o.publish(ctx, sessionID, ProgressUpdate{
				Status:    "running",
				Completed: done,
				Total:     len(runners),
				Current:   runner.Name(),
			})
		}(i, runner)
	}
	wg.Wait()

	// A cancelled caller gets no partial report.
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	score, grade, insufficient, summary := Aggregate(results)

	report := &core.HealthReport{
		Results:          results,
		Score:            score,
		Grade:            grade,
		InsufficientData: insufficient,
		State:            stateFor(summary),
		Summary:          summary,
		APIVersionUsed:   version,
		ChecksRequested:  len(runners),
		ChecksExecuted:   summary.TotalChecks - summary.Skipped,
		GeneratedAt:      time.Now().UTC(),
	}

	o.publish(ctx, sessionID, ProgressUpdate{
		Status:    "completed",
		Completed: len(runners),
		Total:     len(runners),
	})

	return report, nil
}

// resolve validates every requested name before anything runs, so a typo can
// never cause partial execution.
func (o *Orchestrator) resolve(requested []string) ([]checks.Runner, error) {
	if len(requested) == 0 {
		return o.registry.Runners(), nil
	}

	runners := make([]checks.Runner, 0, len(requested))
	for _, name := range requested {
		runner, ok := o.registry.Get(name)
		if !ok {
			return nil, core.NewError(core.KindUnknownCheckType,
				fmt.Sprintf("unknown check type %q", name),
				core.ErrUnknownCheckType.Hint)
		}
		runners = append(runners, runner)
	}
	return runners, nil
}

// runOne executes a single unit, containing panics and nil results so a
// broken check degrades to one error entry.
func (o *Orchestrator) runOne(ctx context.Context, runner checks.Runner, session core.Session, version string) (result core.CheckResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("check unit panicked",
				zap.String("check", runner.Name()),
				zap.Any("panic", r),
			)
			result = core.CheckResult{
				Name:    runner.Name(),
				Status:  core.StatusError,
				Message: "check failed unexpectedly",
				Weight:  runner.Weight(),
			}
		}
		result.Duration = float64(time.Since(start).Milliseconds())
		result.CheckedAt = start.UTC()
		if o.metrics != nil {
			o.metrics.RecordCheck(result.Name, result.Status, time.Since(start).Seconds())
		}
	}()

	r := runner.Run(ctx, session, version)
	if r == nil {
		return core.CheckResult{
			Name:    runner.Name(),
			Status:  core.StatusError,
			Message: "check produced no result",
			Weight:  runner.Weight(),
		}
	}
	return *r
}

func (o *Orchestrator) publish(ctx context.Context, sessionID string, update ProgressUpdate) {
	if o.progress == nil || sessionID == "" {
		return
	}
	if err := o.progress.Publish(ctx, sessionID, update); err != nil {
		o.logger.Debug("progress publish failed",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
