package health

import "context"

const progressKeyPrefix = "progress:"

// JSONCache is the slice of the cache the progress sink needs.
type JSONCache interface {
	SetJSON(ctx context.Context, key string, value interface{}) error
	GetJSON(ctx context.Context, key string, out interface{}) error
}

// CacheProgress publishes progress snapshots to a shared cache so the status
// API can observe a running invocation.
type CacheProgress struct {
	cache JSONCache
}

func NewCacheProgress(cache JSONCache) *CacheProgress {
	return &CacheProgress{cache: cache}
}

func (p *CacheProgress) Publish(ctx context.Context, sessionID string, update ProgressUpdate) error {
	return p.cache.SetJSON(ctx, progressKeyPrefix+sessionID, update)
}

// Snapshot returns the latest published update for a session, or nil when
// none exists (expired or never started).
func (p *CacheProgress) Snapshot(ctx context.Context, sessionID string) (*ProgressUpdate, error) {
	var update ProgressUpdate
	if err := p.cache.GetJSON(ctx, progressKeyPrefix+sessionID, &update); err != nil {
		return nil, err
	}
	if update.Status == "" {
		return nil, nil
	}
	return &update, nil
}
