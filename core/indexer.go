package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"cms-platform/content"
)

// ErrSkipJob marks a job that should be acked without retry.
var ErrSkipJob = errors.New("skip job")

// IndexStore is the slice of PostRepository the indexer needs.
type IndexStore interface {
	Get(ctx context.Context, id int64) (*Post, error)
	SaveMetrics(ctx context.Context, id int64, words, minutes int) error
}

// Indexer computes word count and reading time for published posts.
type Indexer struct {
	posts       IndexStore
	queue       JobQueue
	state       *HeartbeatState
	maxAttempts int64
	visibility  time.Duration
}

func NewIndexer(posts IndexStore, queue JobQueue, state *HeartbeatState) *Indexer {
	return &Indexer{
		posts:       posts,
		queue:       queue,
		state:       state,
		maxAttempts: MaxIndexAttempts,
		visibility:  DefaultVisibilityTimeout,
	}
}

// EnqueuePost schedules a post for indexing.
func EnqueuePost(ctx context.Context, q JobQueue, postID int64) error {
	return q.Enqueue(ctx, strconv.FormatInt(postID, 10))
}

// Process indexes the post named by job and returns its word count.
// Deleted and unpublished posts yield ErrSkipJob.
func (ix *Indexer) Process(ctx context.Context, job string) (int, error) {
	id, err := strconv.ParseInt(job, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed job %q", ErrSkipJob, job)
	}
	post, err := ix.posts.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("%w: post %d deleted", ErrSkipJob, id)
	}
	if err != nil {
		return 0, err
	}
	if post.Status != content.StatusPublished {
		return 0, fmt.Errorf("%w: post %d is %s", ErrSkipJob, id, post.Status)
	}
	words := content.WordCount(post.Content)
	if err := ix.posts.SaveMetrics(ctx, id, words, content.ReadingMinutes(post.Content)); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("%w: post %d deleted", ErrSkipJob, id)
		}
		return 0, err
	}
	return words, nil
}

// Handle processes job and settles it on the queue: ack on success or skip,
// retry while attempts remain, ack and drop otherwise.
func (ix *Indexer) Handle(ctx context.Context, job string) error {
	if ix.state != nil {
		ix.state.JobStarted(job)
	}
	words, procErr := ix.Process(ctx, job)
	if ix.state != nil {
		ix.state.JobFinished(job, words, procErr)
	}

	switch {
	case procErr == nil:
		return ix.queue.Ack(ctx, job)
	case errors.Is(procErr, ErrSkipJob):
		log.Printf("[indexer] skip job %s: %v", job, procErr)
		return ix.queue.Ack(ctx, job)
	}

	attempts, err := ix.queue.Attempt(ctx, job)
	if err != nil {
		// An uncounted failure counts as the last attempt.
		log.Printf("[indexer] count attempt for job %s: %v", job, err)
		attempts = ix.maxAttempts
	}
	if attempts < ix.maxAttempts {
		log.Printf("[indexer] job %s failed (attempt %d): %v", job, attempts, procErr)
		return ix.queue.Retry(ctx, job)
	}
	log.Printf("[indexer] job %s dropped after %d attempts: %v", job, attempts, procErr)
	return ix.queue.Ack(ctx, job)
}

// Run reserves and handles jobs until ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context, slot int) {
	for {
		job, err := ix.queue.Reserve(ctx, ix.visibility)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			wait := time.Second
			if errors.Is(err, redis.Nil) {
				wait = 100 * time.Millisecond
			} else {
				log.Printf("[indexer %d] reserve error: %v", slot, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
				continue
			}
		}
		if err := ix.Handle(ctx, job); err != nil {
			log.Printf("[indexer %d] settle job %s: %v", slot, job, err)
		}
	}
}

// Reclaim periodically returns expired reservations to the pending list.
func (ix *Indexer) Reclaim(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			jobs, err := ix.queue.RequeueExpired(ctx, time.Now())
			if err != nil {
				log.Printf("[reclaimer] requeue expired: %v", err)
				continue
			}
			if len(jobs) > 0 {
				log.Printf("[reclaimer] requeued %d expired jobs", len(jobs))
			}
		}
	}
}
