package postgres

import "time"

// Config holds PostgreSQL connection settings for the driver.
type Config struct {
	ConnString     string
	MaxConns       int32
	ConnectTimeout time.Duration
	PingTimeout    time.Duration
	// Migrate applies the embedded migrations before the pool is returned.
	Migrate bool
}
