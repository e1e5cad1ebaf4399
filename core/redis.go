package core

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JobQueue is a reliable list queue: reserved jobs sit in a processing set
// with a visibility deadline until they are acked or reclaimed.
type JobQueue interface {
	Enqueue(ctx context.Context, job string) error
	Reserve(ctx context.Context, visibility time.Duration) (string, error)
	Ack(ctx context.Context, job string) error
	RequeueExpired(ctx context.Context, now time.Time) ([]string, error)
	Attempt(ctx context.Context, job string) (int64, error)
	Retry(ctx context.Context, job string) error
}

// RedisClientRaw exposes the subset used for metrics and heartbeat.
type RedisClientRaw interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Scan(ctx context.Context, cursor uint64, match string, count int64) *redis.ScanCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	ZCard(ctx context.Context, key string) *redis.IntCmd
	ZCount(ctx context.Context, key, min, max string) *redis.IntCmd
}

// QueueKeys names the redis structures backing one queue.
type QueueKeys struct {
	Pending    string
	Processing string
	Attempts   string
}

// PublicationQueueKeys are the keys of the indexer queue.
var PublicationQueueKeys = QueueKeys{
	Pending:    PendingQueueKey,
	Processing: ProcessingQueueKey,
	Attempts:   AttemptsKey,
}

// RedisQueue implements JobQueue with go-redis.
type RedisQueue struct {
	client *redis.Client
	keys   QueueKeys
}

// NewRedisClient returns a go-redis client from a URL such as redis://localhost:6379/0.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, errors.New("empty redis url")
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return client, nil
}

func NewRedisQueue(client *redis.Client, keys QueueKeys) *RedisQueue {
	return &RedisQueue{client: client, keys: keys}
}

// RPOP from pending and ZADD into processing, scored by the visibility deadline.
var reserveScript = redis.NewScript(`
local v = redis.call('RPOP', KEYS[1])
if v then
  redis.call('ZADD', KEYS[2], ARGV[1], v)
end
return v
`)

// Move every processing entry whose deadline passed back to pending.
var requeueScript = redis.NewScript(`
local vals = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if #vals > 0 then
  redis.call('ZREM', KEYS[1], unpack(vals))
  redis.call('LPUSH', KEYS[2], unpack(vals))
end
return vals
`)

// Enqueue pushes a job to the head of the pending list.
func (q *RedisQueue) Enqueue(ctx context.Context, job string) error {
	return q.client.LPush(ctx, q.keys.Pending, job).Err()
}

// Reserve takes the oldest pending job. It returns redis.Nil when the queue is empty.
func (q *RedisQueue) Reserve(ctx context.Context, visibility time.Duration) (string, error) {
	deadline := float64(time.Now().Add(visibility).UnixMilli())
	res, err := reserveScript.Run(ctx, q.client, []string{q.keys.Pending, q.keys.Processing}, deadline).Result()
	if err != nil {
		return "", err
	}
	s, ok := res.(string)
	if !ok {
		return "", errors.New("unexpected reserve response type")
	}
	return s, nil
}

// Ack drops a finished job and forgets its attempt counter.
func (q *RedisQueue) Ack(ctx context.Context, job string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.keys.Processing, job)
	pipe.HDel(ctx, q.keys.Attempts, job)
	_, err := pipe.Exec(ctx)
	return err
}

// RequeueExpired returns the jobs it moved back to pending.
func (q *RedisQueue) RequeueExpired(ctx context.Context, now time.Time) ([]string, error) {
	res, err := requeueScript.Run(ctx, q.client, []string{q.keys.Processing, q.keys.Pending}, float64(now.UnixMilli())).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rawVals, ok := res.([]interface{})
	if !ok {
		return nil, errors.New("unexpected requeue response type")
	}
	out := make([]string, 0, len(rawVals))
	for _, v := range rawVals {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Attempt records one more failed attempt for job and returns the running total.
func (q *RedisQueue) Attempt(ctx context.Context, job string) (int64, error) {
	return q.client.HIncrBy(ctx, q.keys.Attempts, job, 1).Result()
}

// Retry moves a reserved job back to pending, keeping its attempt counter.
func (q *RedisQueue) Retry(ctx context.Context, job string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.keys.Processing, job)
	pipe.LPush(ctx, q.keys.Pending, job)
	_, err := pipe.Exec(ctx)
	return err
}
