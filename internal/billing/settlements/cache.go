package settlements

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// Summary is the cached collection report for one company and range.
type Summary struct {
	TotalCollected decimal.Decimal `json:"total_collected"`
	ByMethod       []MethodTotal   `json:"by_method"`
}

// SummaryCache keeps recent collection summaries in redis. Entries
// expire on a short TTL rather than being invalidated per payment, so a
// summary can lag by at most the TTL.
type SummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache builds SummaryCache.
func NewSummaryCache(client *redis.Client, ttl time.Duration) *SummaryCache {
	return &SummaryCache{client: client, ttl: ttl}
}

func summaryKey(companyID int64, from, to *time.Time) string {
	f, t := "", ""
	if from != nil {
		f = from.Format("2006-01-02")
	}
	if to != nil {
		t = to.Format("2006-01-02")
	}
	return fmt.Sprintf("settlements:summary:%d:%s:%s", companyID, f, t)
}

// Get returns the cached summary, or nil on miss or error.
func (c *SummaryCache) Get(ctx context.Context, companyID int64, from, to *time.Time) *Summary {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, summaryKey(companyID, from, to)).Bytes()
	if err != nil {
		return nil
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	return &s
}

// Set stores a summary. Failures are ignored; the cache is advisory.
func (c *SummaryCache) Set(ctx context.Context, companyID int64, from, to *time.Time, s *Summary) {
	if c == nil || c.client == nil || s == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	c.client.Set(ctx, summaryKey(companyID, from, to), data, c.ttl)
}
