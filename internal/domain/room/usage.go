package room

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/store"
)

// DailyUsage is one entry in a usage report.
type DailyUsage struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// UsageReport is the GET /usage response body.
type UsageReport struct {
	ProjectID     string       `json:"projectId"`
	TotalRequests int64        `json:"totalRequests"`
	DailyRequests []DailyUsage `json:"dailyRequests"`
}

// usageCounter increments `usage:project:<id>:total` and
// `usage:project:<id>:day:<date>` via the KV store's atomic Incr (spec §4.8).
type usageCounter struct {
	kv  store.Store
	log zerolog.Logger
}

func newUsageCounter(kv store.Store, log zerolog.Logger) *usageCounter {
	return &usageCounter{kv: kv, log: log.With().Str("component", "usage-counter").Logger()}
}

// ReadUsageReport answers GET /usage directly against the durable store,
// without requiring the project's Room to be live — usage counters persist
// independently of the Room's in-memory state (spec §9 hibernation
// equivalence), so this never needs to wake one up.
func ReadUsageReport(ctx context.Context, kv store.Store, projectID string, log zerolog.Logger) UsageReport {
	return newUsageCounter(kv, log).report(ctx, projectID)
}

func totalKey(projectID string) string {
	return fmt.Sprintf("usage:project:%s:total", projectID)
}

func dayKey(projectID, date string) string {
	return fmt.Sprintf("usage:project:%s:day:%s", projectID, date)
}

// recordMessage increments both counters for an inbound application message.
// Best-effort: a storage failure is logged, never surfaced to the client.
func (u *usageCounter) recordMessage(ctx context.Context, projectID string) {
	if _, err := u.kv.Incr(ctx, totalKey(projectID)); err != nil {
		u.log.Warn().Err(err).Str("project_id", projectID).Msg("failed to increment total usage")
	}
	today := time.Now().UTC().Format("2006-01-02")
	dk := dayKey(projectID, today)
	if _, err := u.kv.Incr(ctx, dk); err != nil {
		u.log.Warn().Err(err).Str("project_id", projectID).Msg("failed to increment daily usage")
		return
	}
	// Daily counters carry a generous TTL so the 30-entry report window
	// never needs an unbounded key scan to stay accurate.
	if err := u.kv.Expire(ctx, dk, 45*24*time.Hour); err != nil {
		u.log.Warn().Err(err).Str("key", dk).Msg("failed to set daily usage ttl")
	}
}

// report scans the last 30 daily keys newest-first for projectID.
func (u *usageCounter) report(ctx context.Context, projectID string) UsageReport {
	total := u.readInt(ctx, totalKey(projectID))

	daily := make([]DailyUsage, 0, 30)
	now := time.Now().UTC()
	for i := 0; i < 30; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		count := u.readInt(ctx, dayKey(projectID, date))
		if count == 0 {
			continue
		}
		daily = append(daily, DailyUsage{Date: date, Count: count})
	}

	return UsageReport{ProjectID: projectID, TotalRequests: total, DailyRequests: daily}
}

func (u *usageCounter) readInt(ctx context.Context, key string) int64 {
	raw, err := u.kv.Get(ctx, key)
	if err != nil {
		return 0
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
