package core

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"
	"time"
)

const maxRunningPostsShown = 3

// HeartbeatState aggregates the counters of one indexer process.
type HeartbeatState struct {
	mu       sync.Mutex
	hb       IndexerHeartbeat
	running  map[string]time.Time
	interval time.Duration
}

func NewHeartbeatState(workerID, hostname string, concurrency int) *HeartbeatState {
	now := time.Now()
	return &HeartbeatState{
		hb: IndexerHeartbeat{
			WorkerID:     workerID,
			Hostname:     hostname,
			PID:          os.Getpid(),
			Concurrency:  concurrency,
			Status:       IndexerStarting,
			StartedAt:    now,
			UpdatedAt:    now,
			RunningPosts: []string{},
		},
		running:  make(map[string]time.Time),
		interval: 5 * time.Second,
	}
}

// Start flushes the heartbeat immediately and then on every tick until ctx ends.
func (s *HeartbeatState) Start(ctx context.Context, client RedisClientRaw) {
	s.flush(ctx, client)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush(ctx, client)
		}
	}
}

// Ready marks the worker idle once its loops are running.
func (s *HeartbeatState) Ready() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hb.Status == IndexerStarting {
		s.hb.Status = IndexerIdle
	}
}

func (s *HeartbeatState) JobStarted(job string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running[job] = time.Now()
	s.refreshRunningLocked()
}

// JobFinished records the outcome of an index job. words is ignored on error.
func (s *HeartbeatState) JobFinished(job string, words int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, job)
	if err != nil {
		s.hb.FailedTotal++
		s.hb.LastError = err.Error()
	} else {
		s.hb.IndexedTotal++
		s.hb.WordsTotal += int64(words)
	}
	s.refreshRunningLocked()
}

// Snapshot returns a copy of the current heartbeat.
func (s *HeartbeatState) Snapshot() IndexerHeartbeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	hb := s.hb
	hb.RunningPosts = append([]string(nil), s.hb.RunningPosts...)
	return hb
}

func (s *HeartbeatState) refreshRunningLocked() {
	s.hb.RunningCount = len(s.running)
	if s.hb.RunningCount == 0 {
		s.hb.Status = IndexerIdle
	} else {
		s.hb.Status = IndexerBusy
	}
	jobs := make([]string, 0, len(s.running))
	for job := range s.running {
		jobs = append(jobs, job)
	}
	sort.Strings(jobs)
	if len(jobs) > maxRunningPostsShown {
		jobs = jobs[:maxRunningPostsShown]
	}
	s.hb.RunningPosts = jobs
}

func (s *HeartbeatState) flush(ctx context.Context, client RedisClientRaw) {
	s.mu.Lock()
	s.hb.UptimeSeconds = int64(time.Since(s.hb.StartedAt).Seconds())
	s.hb.refreshRuntime()
	hb := s.hb
	s.mu.Unlock()
	if err := SaveHeartbeat(ctx, client, hb); err != nil && ctx.Err() == nil {
		log.Printf("[heartbeat] save failed: %v", err)
	}
}
