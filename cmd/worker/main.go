package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cms-platform/core"
)

func main() {
	cfg := core.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logCloser, err := core.SetupLogging(cfg, "worker")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	workerID := core.NewWorkerID()
	hostname, _ := os.Hostname()

	queue := core.NewRedisQueue(redisClient, core.PublicationQueueKeys)
	state := core.NewHeartbeatState(workerID, hostname, concurrency)
	indexer := core.NewIndexer(core.NewPgPostRepository(db), queue, state)
	log.Printf("indexer started. id=%s concurrency=%d queue=%s", workerID, concurrency, core.PendingQueueKey)

	go state.Start(ctx, redisClient)
	go indexer.Reclaim(ctx, 15*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			indexer.Run(ctx, slot)
		}(i + 1)
	}
	state.Ready()

	wg.Wait()
	log.Printf("indexer %s stopped", workerID)
}
