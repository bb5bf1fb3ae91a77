package window

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "caregate/pkg/domain"
)

var recordDenialDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "caregate_denial_window_record_duration_ms",
	Help:    "Latency of denial window updates in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const denialKeyPrefix = "dw:user:"

// RedisStore is a Redis-backed implementation of the denial window, for
// deployments where multiple instances share escalation state. Each denial
// is a sorted-set member scored by its timestamp; trimming the set to the
// window and counting it are atomic within a pipeline.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) RecordDenial(ctx context.Context, userID id.UserID, at time.Time, window time.Duration) (int, error) {
	start := time.Now()
	defer func() {
		recordDenialDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := denialKeyPrefix + userID.String()
	cutoff := at.Add(-window).UnixNano()

	pipe := s.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10))
	// Member carries a UUID so two denials in the same instant stay distinct.
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: strconv.FormatInt(at.UnixNano(), 10) + ":" + uuid.NewString(),
	})
	count := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window+time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("record denial: %w", err)
	}
	return int(count.Val()), nil
}
