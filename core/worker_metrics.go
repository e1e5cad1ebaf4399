package core

import (
	"context"
	"encoding/json"
	"runtime"
	"time"
)

const (
	IndexerHeartbeatPrefix = "cms:indexer:heartbeat:"
	IndexerHeartbeatTTL    = 45 * time.Second
)

// Indexer worker states.
const (
	IndexerStarting = "starting"
	IndexerIdle     = "idle"
	IndexerBusy     = "busy"
)

func IndexerHeartbeatKey(id string) string {
	return IndexerHeartbeatPrefix + id
}

// IndexerHeartbeat is the liveness record an indexer process keeps in redis.
type IndexerHeartbeat struct {
	WorkerID      string    `json:"worker_id"`
	Hostname      string    `json:"hostname"`
	PID           int       `json:"pid"`
	Concurrency   int       `json:"concurrency"`
	UptimeSeconds int64     `json:"uptime_seconds"`
	Status        string    `json:"status"`
	RunningCount  int       `json:"running_count"`
	RunningPosts  []string  `json:"running_posts,omitempty"`
	IndexedTotal  int64     `json:"indexed_total"`
	FailedTotal   int64     `json:"failed_total"`
	WordsTotal    int64     `json:"words_total"`
	LastError     string    `json:"last_error,omitempty"`
	MemoryBytes   uint64    `json:"memory_bytes"`
	NumGoroutine  int       `json:"num_goroutine"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SaveHeartbeat stores hb as JSON with a TTL so dead workers drop out.
func SaveHeartbeat(ctx context.Context, client RedisClientRaw, hb IndexerHeartbeat) error {
	hb.UpdatedAt = time.Now()
	data, err := json.Marshal(hb)
	if err != nil {
		return err
	}
	return client.Set(ctx, IndexerHeartbeatKey(hb.WorkerID), data, IndexerHeartbeatTTL).Err()
}

func (h *IndexerHeartbeat) refreshRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	h.MemoryBytes = ms.Sys
	h.NumGoroutine = runtime.NumGoroutine()
}
