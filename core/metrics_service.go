package core

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrWorkerNotFound is returned when no live heartbeat exists for an id.
var ErrWorkerNotFound = errors.New("worker not found")

// QueueMetrics is a point-in-time view of the indexing queue.
type QueueMetrics struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	// Expired counts reserved jobs already past their visibility deadline.
	Expired int64 `json:"expired"`
}

// MetricsService reads queue depth and indexer heartbeats from redis.
type MetricsService struct {
	redis RedisClientRaw
	keys  QueueKeys
}

func NewMetricsService(redis RedisClientRaw, keys QueueKeys) *MetricsService {
	return &MetricsService{redis: redis, keys: keys}
}

func (s *MetricsService) Overview(ctx context.Context) (QueueMetrics, []IndexerHeartbeat, error) {
	queue, err := s.Queue(ctx)
	if err != nil {
		return QueueMetrics{}, nil, err
	}
	workers, err := s.Workers(ctx)
	if err != nil {
		return queue, nil, err
	}
	return queue, workers, nil
}

func (s *MetricsService) Queue(ctx context.Context) (QueueMetrics, error) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	pending, err := s.redis.LLen(ctx, s.keys.Pending).Result()
	if err != nil {
		return QueueMetrics{}, err
	}
	processing, err := s.redis.ZCard(ctx, s.keys.Processing).Result()
	if err != nil {
		return QueueMetrics{}, err
	}
	expired, err := s.redis.ZCount(ctx, s.keys.Processing, "-inf", now).Result()
	if err != nil {
		return QueueMetrics{}, err
	}
	return QueueMetrics{Pending: pending, Processing: processing, Expired: expired}, nil
}

// Workers returns every live heartbeat ordered by worker id.
// Entries that vanish or fail to decode mid-scan are skipped.
func (s *MetricsService) Workers(ctx context.Context) ([]IndexerHeartbeat, error) {
	iter := s.redis.Scan(ctx, 0, IndexerHeartbeatPrefix+"*", 100).Iterator()
	res := []IndexerHeartbeat{}
	for iter.Next(ctx) {
		val, err := s.redis.Get(ctx, iter.Val()).Result()
		if err != nil {
			continue
		}
		var hb IndexerHeartbeat
		if err := json.Unmarshal([]byte(val), &hb); err != nil {
			continue
		}
		res = append(res, hb)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Slice(res, func(i, j int) bool { return res[i].WorkerID < res[j].WorkerID })
	return res, nil
}

func (s *MetricsService) WorkerByID(ctx context.Context, id string) (*IndexerHeartbeat, error) {
	val, err := s.redis.Get(ctx, IndexerHeartbeatKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrWorkerNotFound
	}
	if err != nil {
		return nil, err
	}
	var hb IndexerHeartbeat
	if err := json.Unmarshal([]byte(val), &hb); err != nil {
		return nil, err
	}
	return &hb, nil
}
