package config

import "time"

// Worker intervals
const (
	// PersistenceWorkerInterval defines how often finished imports are flushed to PostgreSQL
	PersistenceWorkerInterval = 30 * time.Second

	// DefaultCacheTTL defines how long import results stay cached in Redis
	DefaultCacheTTL = 24 * time.Hour
)
