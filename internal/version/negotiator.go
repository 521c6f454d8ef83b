package version

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forceweaver/orghealth/internal/core"
)

// Supported is the bounded candidate set, newest first. Salesforce rolls
// versions out per org, so reachability has to be probed, not assumed.
var Supported = []string{"v64.0", "v63.0", "v62.0", "v61.0", "v60.0"}

func IsSupported(tag string) bool {
	for _, v := range Supported {
		if v == tag {
			return true
		}
	}
	return false
}

// Prober issues one lightweight existence probe for a version.
type Prober interface {
	VersionReachable(ctx context.Context, session core.Session, version string) (bool, error)
}

// Store persists the accepted version back onto the connection.
type Store interface {
	UpdateNegotiatedVersion(id uuid.UUID, version string) error
}

type Negotiator struct {
	prober    Prober
	store     Store
	logger    *zap.Logger
	supported []string
	timeout   time.Duration
}

func NewNegotiator(prober Prober, store Store, logger *zap.Logger) *Negotiator {
	return &Negotiator{
		prober:    prober,
		store:     store,
		logger:    logger,
		supported: Supported,
		timeout:   10 * time.Second,
	}
}

// Negotiate finds the version the org actually serves. Candidate order:
// last-successful, caller-preferred, then newest to oldest. The first 2xx
// probe wins and is persisted so future invocations start there. Probe
// failures advance to the next candidate; they are not retried.
func (n *Negotiator) Negotiate(ctx context.Context, conn *core.OrgConnection, session core.Session, preferred string) (string, error) {
	candidates := n.candidates(conn, preferred)

	for _, candidate := range candidates {
		probeCtx, cancel := context.WithTimeout(ctx, n.timeout)
		reachable, err := n.prober.VersionReachable(probeCtx, session, candidate)
		cancel()

		if err != nil {
			n.logger.Warn("version probe failed",
				zap.String("connection_id", conn.ID.String()),
				zap.String("version", candidate),
				zap.Error(err),
			)
			continue
		}
		if !reachable {
			continue
		}

		if conn.LastAPIVersion == nil || *conn.LastAPIVersion != candidate {
			if err := n.store.UpdateNegotiatedVersion(conn.ID, candidate); err != nil {
				n.logger.Warn("failed to persist negotiated version",
					zap.String("connection_id", conn.ID.String()),
					zap.String("version", candidate),
					zap.Error(err),
				)
			}
			conn.LastAPIVersion = &candidate
		}
		return candidate, nil
	}

	return "", core.NewError(core.KindNoCompatibleVersion,
		core.ErrNoCompatibleVersion.Message, core.ErrNoCompatibleVersion.Hint)
}

func (n *Negotiator) candidates(conn *core.OrgConnection, preferred string) []string {
	ordered := make([]string, 0, len(n.supported)+2)
	seen := make(map[string]bool, len(n.supported)+2)

	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			ordered = append(ordered, v)
		}
	}

	if conn.LastAPIVersion != nil {
		add(*conn.LastAPIVersion)
	}
	add(preferred)
	for _, v := range n.supported {
		add(v)
	}
	return ordered
}
