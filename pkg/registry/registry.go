// Package registry owns the mapping from session identifiers to live
// SSH connections and enforces the concurrency ceiling and idle
// reclamation.
package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/errgroup"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

// Options configures a Registry. Zero values fall back to the package
// defaults in sshutils.
type Options struct {
	MaxSessions int
	IdleTimeout time.Duration
	Dialer      sshutils.SSHDialer
}

type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	// pending counts dials in flight so concurrent creators cannot
	// slip past the ceiling while a connection is being established.
	pending int

	maxSessions int
	idleTimeout time.Duration
	dialer      sshutils.SSHDialer
	log         *logger.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func New(opts Options) *Registry {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = sshutils.DefaultMaxSessions
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = sshutils.DefaultIdleTimeout
	}
	if opts.Dialer == nil {
		opts.Dialer = sshutils.NewDefaultSSHDialer()
	}
	return &Registry{
		sessions:    make(map[string]*Session),
		maxSessions: opts.MaxSessions,
		idleTimeout: opts.IdleTimeout,
		dialer:      opts.Dialer,
		log:         logger.Get(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// StartReclaimer launches the background idle sweep. The interval is
// fixed and independent of operation traffic.
func (r *Registry) StartReclaimer(interval time.Duration) {
	if interval <= 0 {
		interval = sshutils.ReclaimInterval
	}
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-ticker.C:
				r.reclaimIdle()
			}
		}
	}()
}

// CreateOrReuse returns the id of a connected session matching the
// credential's (host, port, user) triple, or establishes a new one.
// The ceiling check and slot reservation happen under a single lock
// hold; no session is registered on any failure path.
func (r *Registry) CreateOrReuse(
	ctx context.Context,
	creds *sshutils.Credentials,
) (string, error) {
	clientConfig, err := creds.ClientConfig()
	if err != nil {
		return "", err
	}

	host, port, user := creds.Host, creds.NormalizedPort(), creds.User

	if s := r.findMatch(host, port, user); s != nil {
		// Probe outside the registry lock; a dead TCP link is only
		// discovered here.
		if client := s.Client(); client != nil && client.IsConnected() {
			s.Touch()
			r.log.Debugf("Reusing session %s for %s", s.ID, creds.Target())
			return s.ID, nil
		}
		r.log.Infof("Session %s for %s failed liveness probe, closing",
			s.ID, creds.Target())
		_ = r.Close(s.ID)
	}

	r.mu.Lock()
	if len(r.sessions)+r.pending >= r.maxSessions {
		limit := r.maxSessions
		r.mu.Unlock()
		return "", &models.ResourceExhaustedError{Limit: limit}
	}
	r.pending++
	r.mu.Unlock()

	id, err := r.establish(ctx, creds, clientConfig)

	r.mu.Lock()
	r.pending--
	r.mu.Unlock()

	return id, err
}

func (r *Registry) findMatch(host string, port int, user string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.matches(host, port, user) && s.Connected() {
			return s
		}
	}
	return nil
}

// establish dials and opens the file subsystem. Any partially
// acquired handle is released before the failure propagates.
func (r *Registry) establish(
	ctx context.Context,
	creds *sshutils.Credentials,
	clientConfig *ssh.ClientConfig,
) (string, error) {
	r.log.Infof("Connecting to %s", creds.Target())

	client, err := sshutils.DialContext(ctx, r.dialer, "tcp", creds.Addr(), clientConfig)
	if err != nil {
		return "", err
	}

	sftpClient, err := client.OpenSFTP()
	if err != nil {
		if closeErr := client.Close(); closeErr != nil {
			r.log.Warnf("Failed to close connection to %s after SFTP init failure: %v",
				creds.Target(), closeErr)
		}
		return "", &models.TransportError{
			Op:  fmt.Sprintf("open file subsystem on %s", creds.Target()),
			Err: err,
		}
	}

	s := newSession(uuid.NewString(), creds, client, sftpClient)

	r.mu.Lock()
	for _, existing := range r.sessions {
		if existing.matches(s.Host, s.Port, s.User) && existing.Connected() {
			// A concurrent creator for the same triple won the race;
			// keep its session and drop ours.
			existing.Touch()
			r.mu.Unlock()
			s.release(r.log)
			return existing.ID, nil
		}
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.log.Infof("Session %s established for %s", s.ID, creds.Target())
	return s.ID, nil
}

// Get returns the session for id, refreshing its activity timestamp.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()

	if !ok {
		return nil, &models.NotFoundError{Kind: "session", ID: id}
	}
	if !s.Connected() {
		return nil, &models.NotConnectedError{SessionID: id}
	}
	s.Touch()
	return s, nil
}

// List returns summaries of all connected sessions.
func (r *Registry) List() []models.SessionSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	summaries := make([]models.SessionSummary, 0, len(r.sessions))
	for _, s := range r.sessions {
		if !s.Connected() {
			continue
		}
		summaries = append(summaries, s.Summary())
	}
	return summaries
}

// Close releases the session's handles and removes it from the
// registry. Handle-release failures are logged, not propagated.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if !ok {
		return &models.NotFoundError{Kind: "session", ID: id}
	}
	s.release(r.log)
	r.log.Infof("Closed session %s (%s@%s:%d)", s.ID, s.User, s.Host, s.Port)
	return nil
}

// CloseAll closes every registered session; used at process shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	var g errgroup.Group
	for _, s := range all {
		s := s
		g.Go(func() error {
			s.release(r.log)
			return nil
		})
	}
	return g.Wait()
}

// Shutdown stops the reclamation sweep and closes all sessions.
func (r *Registry) Shutdown() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
	_ = r.CloseAll()
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) reclaimIdle() {
	now := time.Now()

	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		if now.Sub(s.LastActivity()) > r.idleTimeout {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		r.log.Infof("Reclaiming idle session %s (%s@%s:%d), inactive since %s",
			s.ID, s.User, s.Host, s.Port, s.LastActivity().Format(time.RFC3339))
		s.release(r.log)
	}
}
