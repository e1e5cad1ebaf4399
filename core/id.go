package core

import (
	"fmt"
	"os"

	"github.com/google/uuid"
)

// NewWorkerID builds a unique identifier based on hostname, pid, and a random suffix.
func NewWorkerID() string {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()[:8])
}

// NewRequestID returns an identifier attached to every API request.
func NewRequestID() string {
	return uuid.NewString()
}
