package cache

import (
	"context"
	"sync"
	"time"

	financeapp "github.com/buildledger/backend/internal/application/finance"
)

// InMemoryReportCache implements ReportCache with a process-local map.
// Suitable for single-instance deployments and testing.
// WARNING: cached summaries are not shared across process instances.
type InMemoryReportCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type inMemoryEntry struct {
	summary   financeapp.SpendSummary
	expiresAt time.Time
}

// NewInMemoryReportCache creates a new in-memory report cache
func NewInMemoryReportCache(ttl time.Duration) *InMemoryReportCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &InMemoryReportCache{
		entries: make(map[string]inMemoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// GetSummary returns a cached spend summary, or nil on a miss or expiry
func (c *InMemoryReportCache) GetSummary(ctx context.Context, key string) (*financeapp.SpendSummary, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().After(entry.expiresAt) {
		return nil, nil
	}
	summary := entry.summary
	return &summary, nil
}

// SetSummary caches a spend summary with the configured TTL
func (c *InMemoryReportCache) SetSummary(ctx context.Context, key string, summary *financeapp.SpendSummary) error {
	if summary == nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = inMemoryEntry{
		summary:   *summary,
		expiresAt: c.now().Add(c.ttl),
	}
	return nil
}

// Invalidate removes every cached summary
func (c *InMemoryReportCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]inMemoryEntry)
	return nil
}

// Len returns the number of cached entries, including expired ones
// that have not been overwritten (for testing/monitoring)
func (c *InMemoryReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure InMemoryReportCache implements ReportCache
var _ financeapp.ReportCache = (*InMemoryReportCache)(nil)
