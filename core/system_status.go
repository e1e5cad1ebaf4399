package core

import (
	"bufio"
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

// SystemStatus is the admin dashboard summary.
type SystemStatus struct {
	Queue struct {
		Pending    int64 `json:"pending"`
		Processing int64 `json:"processing"`
	} `json:"queue"`
	Indexers struct {
		Active int `json:"active"`
		Total  int `json:"total"`
	} `json:"indexers"`
	Memory struct {
		UsedBytes  uint64 `json:"used_bytes"`
		TotalBytes uint64 `json:"total_bytes"`
	} `json:"memory"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// CollectSystemStatus is best-effort: redis failures leave the queue and
// indexer sections zeroed.
func CollectSystemStatus(ctx context.Context, metrics *MetricsService, startedAt time.Time) SystemStatus {
	var st SystemStatus
	if metrics != nil {
		if qm, err := metrics.Queue(ctx); err == nil {
			st.Queue.Pending = qm.Pending
			st.Queue.Processing = qm.Processing
		}
		if workers, err := metrics.Workers(ctx); err == nil {
			st.Indexers.Total = len(workers)
			for _, w := range workers {
				if w.Status != IndexerStarting {
					st.Indexers.Active++
				}
			}
		}
	}

	st.Memory.UsedBytes, st.Memory.TotalBytes = readMemInfo("/proc/meminfo")
	if !startedAt.IsZero() {
		st.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}
	return st
}

// readMemInfo returns used and total bytes, or zeros when path is unreadable.
func readMemInfo(path string) (used, total uint64) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0
	}
	defer f.Close()
	var memTotal, memAvailable uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "MemTotal:"):
			memTotal = parseKiBLine(line)
		case strings.HasPrefix(line, "MemAvailable:"):
			memAvailable = parseKiBLine(line)
		}
	}
	if memTotal == 0 {
		return 0, 0
	}
	if memAvailable <= memTotal {
		used = memTotal - memAvailable
	}
	return used * 1024, memTotal * 1024
}

func parseKiBLine(line string) uint64 {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0
	}
	v, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0
	}
	return v
}
