package sshutils

import "time"

var (
	SSHDialTimeout   = 10 * time.Second
	SSHRetryAttempts = 3
	SSHRetryDelay    = 2 * time.Second

	DefaultPort           = 22
	DefaultCommandTimeout = 30 * time.Second
	DefaultIdleTimeout    = 30 * time.Minute
	DefaultMaxSessions    = 10
	ReclaimInterval       = time.Minute
)
