package sshutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/crypto/ssh"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/models"
)

// DefaultSSHDialer dials over TCP with retry; authentication
// rejections are not retried.
type DefaultSSHDialer struct{}

func NewDefaultSSHDialer() SSHDialer {
	return &DefaultSSHDialer{}
}

func (d *DefaultSSHDialer) Dial(
	network, addr string,
	config *ssh.ClientConfig,
) (SSHClienter, error) {
	l := logger.Get()

	var client *ssh.Client
	operation := func() error {
		var err error
		client, err = ssh.Dial(network, addr, config)
		if err == nil {
			return nil
		}
		if isAuthError(err) {
			return backoff.Permanent(err)
		}
		l.Debugf("SSH dial to %s failed, will retry: %v", addr, err)
		return err
	}

	policy := backoff.WithMaxRetries(
		backoff.NewConstantBackOff(SSHRetryDelay),
		uint64(SSHRetryAttempts),
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if isAuthError(err) {
			return nil, &models.AuthenticationError{Target: addr, Err: err}
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	return &SSHClientWrapper{Client: client}, nil
}

// DialContext runs Dial in a goroutine so the caller can give up on a
// context deadline. The dial itself is not interruptible mid-handshake.
func DialContext(
	ctx context.Context,
	dialer SSHDialer,
	network, addr string,
	config *ssh.ClientConfig,
) (SSHClienter, error) {
	type dialResult struct {
		client SSHClienter
		err    error
	}

	result := make(chan dialResult, 1)
	go func() {
		client, err := dialer.Dial(network, addr, config)
		result <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			// Reap the late connection so it does not leak.
			if res := <-result; res.client != nil {
				_ = res.client.Close()
			}
		}()
		return nil, ctx.Err()
	case res := <-result:
		return res.client, res.err
	}
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "unable to authenticate") ||
		strings.Contains(msg, "no supported methods remain")
}
