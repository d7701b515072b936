package registry

import (
	"sync"
	"time"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

// Session is a registry-tracked authenticated connection plus its
// file-subsystem handle. The sftp handle is non-nil exactly while the
// session is connected.
type Session struct {
	ID   string
	Host string
	Port int
	User string

	mu           sync.Mutex
	client       sshutils.SSHClienter
	sftp         sshutils.SFTPClienter
	connected    bool
	createdAt    time.Time
	lastActivity time.Time
	commandCount int
}

func newSession(
	id string,
	creds *sshutils.Credentials,
	client sshutils.SSHClienter,
	sftp sshutils.SFTPClienter,
) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Host:         creds.Host,
		Port:         creds.NormalizedPort(),
		User:         creds.User,
		client:       client,
		sftp:         sftp,
		connected:    true,
		createdAt:    now,
		lastActivity: now,
	}
}

func (s *Session) matches(host string, port int, user string) bool {
	return s.Host == host && s.Port == port && s.User == user
}

// Touch refreshes the last-activity timestamp, extending the idle
// window.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// RecordCommand bumps the command counter and refreshes activity.
func (s *Session) RecordCommand() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commandCount++
	s.lastActivity = time.Now()
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Session) Client() sshutils.SSHClienter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

// SFTP returns the file-subsystem handle, or nil once disconnected.
func (s *Session) SFTP() sshutils.SFTPClienter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sftp
}

func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) Summary() models.SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.SessionSummary{
		ID:           s.ID,
		Host:         s.Host,
		Port:         s.Port,
		User:         s.User,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		CommandCount: s.commandCount,
		Uptime:       models.FormatUptime(time.Since(s.createdAt)),
	}
}

// release closes both handles exactly once and marks the session
// disconnected. Close failures are logged, never propagated.
func (s *Session) release(l *logger.Logger) {
	s.mu.Lock()
	client, sftp := s.client, s.sftp
	s.client, s.sftp = nil, nil
	s.connected = false
	s.mu.Unlock()

	if sftp != nil {
		if err := sftp.Close(); err != nil {
			l.Warnf("Failed to close SFTP handle for session %s: %v", s.ID, err)
		}
	}
	if client != nil {
		if err := client.Close(); err != nil {
			l.Warnf("Failed to close connection for session %s: %v", s.ID, err)
		}
	}
}
