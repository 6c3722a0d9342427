package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/roombus/internal/infrastructure/metrics"
	"github.com/janhq/roombus/internal/infrastructure/store"
	"github.com/janhq/roombus/internal/utils/idgen"
)

// Direction marks whether a StoredLog was received from or sent to a client.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// StoredLog is one archived frame.
type StoredLog struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	MessageType  string    `json:"messageType"`
	Direction    Direction `json:"direction"`
	Envelope     Envelope  `json:"envelope"`
	ClientID     string    `json:"clientId,omitempty"`
	ClientRole   string    `json:"clientRole,omitempty"`
	ProjectID    string    `json:"projectId"`
	FromClientID string    `json:"fromClientId,omitempty"`
}

// LogBucket is an hour-keyed, newest-first ring of StoredLog records.
type LogBucket struct {
	HourKey   string      `json:"hourKey"`
	Logs      []StoredLog `json:"logs"`
	CreatedAt time.Time   `json:"createdAt"`
}

// logStore persists LogBuckets under `logs:<projectId>:<YYYY-MM-DD-HH>` keys in the
// Room's durable KV store (spec §4.5), grounded on the pack's
// RedisCache.Set/Get JSON-marshal pattern.
type logStore struct {
	kv             store.Store
	log            zerolog.Logger
	maxPerBucket   int
	retentionHours int
}

func newLogStore(kv store.Store, maxPerBucket, retentionHours int, log zerolog.Logger) *logStore {
	return &logStore{
		kv:             kv,
		log:            log.With().Str("component", "log-store").Logger(),
		maxPerBucket:   maxPerBucket,
		retentionHours: retentionHours,
	}
}

func hourKey(t time.Time) string {
	return t.UTC().Format("2006-01-02-15")
}

func logBucketKey(projectID, hour string) string {
	return fmt.Sprintf("logs:%s:%s", projectID, hour)
}

// append inserts log at the head of its hour bucket, trimming to
// maxPerBucket newest-first. Writes are fire-and-forget — failures are
// logged, never propagated to the message-routing path (spec §7.5).
func (s *logStore) append(ctx context.Context, projectID string, log StoredLog) {
	hour := hourKey(log.Timestamp)
	key := logBucketKey(projectID, hour)

	bucket, err := s.load(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to load log bucket, starting fresh")
	}
	if bucket == nil {
		bucket = &LogBucket{HourKey: hour, CreatedAt: time.Now().UTC()}
	}

	bucket.Logs = append([]StoredLog{log}, bucket.Logs...)
	if len(bucket.Logs) > s.maxPerBucket {
		bucket.Logs = bucket.Logs[:s.maxPerBucket]
		metrics.LogBucketTrims.Inc()
	}

	if err := s.save(ctx, key, bucket); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("failed to persist log bucket")
	}
}

func (s *logStore) load(ctx context.Context, key string) (*LogBucket, error) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var bucket LogBucket
	if err := json.Unmarshal(raw, &bucket); err != nil {
		return nil, fmt.Errorf("unmarshal log bucket %s: %w", key, err)
	}
	return &bucket, nil
}

func (s *logStore) save(ctx context.Context, key string, bucket *LogBucket) error {
	raw, err := json.Marshal(bucket)
	if err != nil {
		return fmt.Errorf("marshal log bucket %s: %w", key, err)
	}
	ttl := time.Duration(s.retentionHours+1) * time.Hour
	return s.kv.Set(ctx, key, raw, ttl)
}

// replay enumerates the last 24 hourly keys for projectID, concatenates,
// drops entries older than retention, sorts newest-first, and caps at limit.
func (s *logStore) replay(ctx context.Context, projectID string, limit int) []StoredLog {
	now := time.Now().UTC()
	cutoff := now.Add(-time.Duration(s.retentionHours) * time.Hour)

	var all []StoredLog
	for i := 0; i < 24; i++ {
		hour := now.Add(-time.Duration(i) * time.Hour)
		key := logBucketKey(projectID, hourKey(hour))
		bucket, err := s.load(ctx, key)
		if err != nil {
			continue
		}
		for _, l := range bucket.Logs {
			if l.Timestamp.Before(cutoff) {
				continue
			}
			all = append(all, l)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Timestamp.After(all[j].Timestamp) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

// compact deletes buckets whose createdAt precedes the retention cutoff —
// the alarm-fired retention pass from spec §4.5.
func (s *logStore) compact(ctx context.Context, projectID string) {
	cutoff := time.Now().UTC().Add(-time.Duration(s.retentionHours) * time.Hour)
	keys, err := s.kv.Keys(ctx, fmt.Sprintf("logs:%s:*", projectID))
	if err != nil {
		s.log.Warn().Err(err).Str("project_id", projectID).Msg("failed to enumerate log buckets for compaction")
		return
	}
	for _, key := range keys {
		bucket, err := s.load(ctx, key)
		if err != nil {
			continue
		}
		if bucket.CreatedAt.Before(cutoff) {
			if err := s.kv.Delete(ctx, key); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("failed to delete expired log bucket")
			}
		}
	}
}

// newStoredLogID mints an id for a StoredLog via the shared secure-id
// generator, adapted from its original api-key-secret role to log ids.
func newStoredLogID() string {
	id, err := idgen.GenerateSecureID("log", 12)
	if err != nil {
		return fmt.Sprintf("log_%d", time.Now().UnixNano())
	}
	return id
}
