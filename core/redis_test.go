package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisQueueReserveAck(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	q := NewRedisQueue(client, PublicationQueueKeys)

	_, err := q.Reserve(ctx, time.Second)
	assert.True(t, errors.Is(err, redis.Nil), "empty queue reports redis.Nil, got %v", err)

	require.NoError(t, q.Enqueue(ctx, "1"))
	require.NoError(t, q.Enqueue(ctx, "2"))

	job, err := q.Reserve(ctx, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "1", job, "jobs are reserved in FIFO order")

	m := NewMetricsService(client, PublicationQueueKeys)
	qm, err := m.Queue(ctx)
	require.NoError(t, err)
	assert.Equal(t, QueueMetrics{Pending: 1, Processing: 1, Expired: 0}, qm)

	require.NoError(t, q.Ack(ctx, job))
	qm, err = m.Queue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), qm.Processing)
}

func TestRedisQueueRequeueExpired(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	q := NewRedisQueue(client, PublicationQueueKeys)

	require.NoError(t, q.Enqueue(ctx, "7"))
	job, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)

	moved, err := q.RequeueExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, moved, "deadline not reached yet")

	moved, err = q.RequeueExpired(ctx, time.Now().Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, []string{job}, moved)

	again, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, job, again)
}

func TestRedisQueueAttemptsAndRetry(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	q := NewRedisQueue(client, PublicationQueueKeys)

	require.NoError(t, q.Enqueue(ctx, "3"))
	job, err := q.Reserve(ctx, time.Minute)
	require.NoError(t, err)

	n, err := q.Attempt(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, q.Retry(ctx, job))

	job, err = q.Reserve(ctx, time.Minute)
	require.NoError(t, err)
	n, err = q.Attempt(ctx, job)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, q.Ack(ctx, job))
	exists, err := client.HExists(ctx, AttemptsKey, job).Result()
	require.NoError(t, err)
	assert.False(t, exists, "ack clears the attempt counter")
}

func TestHeartbeatAndWorkerMetrics(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()

	state := NewHeartbeatState("host:1:abcd", "host", 2)
	state.Ready()
	state.JobStarted("10")
	snap := state.Snapshot()
	assert.Equal(t, IndexerBusy, snap.Status)
	assert.Equal(t, []string{"10"}, snap.RunningPosts)

	state.JobFinished("10", 120, nil)
	state.JobStarted("11")
	state.JobFinished("11", 0, errors.New("boom"))
	snap = state.Snapshot()
	assert.Equal(t, IndexerIdle, snap.Status)
	assert.Equal(t, int64(1), snap.IndexedTotal)
	assert.Equal(t, int64(1), snap.FailedTotal)
	assert.Equal(t, int64(120), snap.WordsTotal)
	assert.Equal(t, "boom", snap.LastError)

	state.flush(ctx, client)
	assert.True(t, mr.Exists(IndexerHeartbeatKey("host:1:abcd")))

	m := NewMetricsService(client, PublicationQueueKeys)
	workers, err := m.Workers(ctx)
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "host:1:abcd", workers[0].WorkerID)

	hb, err := m.WorkerByID(ctx, "host:1:abcd")
	require.NoError(t, err)
	assert.Equal(t, int64(1), hb.IndexedTotal)

	_, err = m.WorkerByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrWorkerNotFound)

	st := CollectSystemStatus(ctx, m, time.Now().Add(-time.Minute))
	assert.Equal(t, 1, st.Indexers.Total)
	assert.Equal(t, 1, st.Indexers.Active)
	assert.GreaterOrEqual(t, st.UptimeSeconds, int64(59))

	mr.FastForward(IndexerHeartbeatTTL + time.Second)
	workers, err = m.Workers(ctx)
	require.NoError(t, err)
	assert.Empty(t, workers, "heartbeats expire")
}

func TestReadMemInfoMissingFile(t *testing.T) {
	used, total := readMemInfo("/nonexistent/meminfo")
	assert.Zero(t, used)
	assert.Zero(t, total)
}
