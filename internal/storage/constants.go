package db

import "time"

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 10
	defaultMinConns          int32         = 2
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// Advisory lock ids
const (
	migrationLockID = 1000
	// SchedulerTickLockID guards a scheduler tick so only one instance fires due digests.
	SchedulerTickLockID = 1001
)

// Error format strings
const (
	errFmtBeginTx  = "begin %s: %w"
	errFmtCommitTx = "commit %s: %w"
)
