package checks

import (
	"context"

	"github.com/forceweaver/orghealth/internal/core"
	"github.com/forceweaver/orghealth/pkg/salesforce"
)

// OrgClient is the slice of the Salesforce client a check unit needs. Every
// check is a read-only function of (session, version).
type OrgClient interface {
	Query(ctx context.Context, session core.Session, version, soql string) (*salesforce.QueryResult, error)
	QueryAll(ctx context.Context, session core.Session, version, soql string) (*salesforce.QueryResult, error)
	SObjectExists(ctx context.Context, session core.Session, version, name string) (bool, error)
}

type Runner interface {
	Name() string
	Description() string
	Weight() float64
	Run(ctx context.Context, session core.Session, version string) *core.CheckResult
}

// Registry holds the closed set of check units in display order.
type Registry struct {
	order   []string
	runners map[string]Runner
}

func NewRegistry(runners ...Runner) *Registry {
	r := &Registry{runners: make(map[string]Runner, len(runners))}
	for _, runner := range runners {
		r.order = append(r.order, runner.Name())
		r.runners[runner.Name()] = runner
	}
	return r
}

// DefaultRegistry wires the full diagnostic set against one org client.
func DefaultRegistry(client OrgClient) *Registry {
	return NewRegistry(
		NewBasicOrgInfoCheck(client),
		NewOWDSharingCheck(client),
		NewBundleAnalysisCheck(client),
		NewAttributeOverrideCheck(client),
		NewAttributePicklistCheck(client),
	)
}

func (r *Registry) Get(name string) (Runner, bool) {
	runner, ok := r.runners[name]
	return runner, ok
}

// Names returns check names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

func (r *Registry) Runners() []Runner {
	out := make([]Runner, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.runners[name])
	}
	return out
}

func okResult(name, message string, details []string, weight float64) *core.CheckResult {
	return &core.CheckResult{Name: name, Status: core.StatusOK, Message: message, Details: details, Weight: weight}
}

func warningResult(name, message string, details []string, weight float64) *core.CheckResult {
	return &core.CheckResult{Name: name, Status: core.StatusWarning, Message: message, Details: details, Weight: weight}
}

func errorResult(name, message string, weight float64) *core.CheckResult {
	return &core.CheckResult{Name: name, Status: core.StatusError, Message: message, Weight: weight}
}

func skippedResult(name, message string, weight float64) *core.CheckResult {
	return &core.CheckResult{Name: name, Status: core.StatusSkipped, Message: message, Weight: weight}
}
