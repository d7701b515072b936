// Package command runs remote commands over an established session,
// enforcing timeout discipline and encoding-aware output capture.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/registry"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

const readChunkSize = 4096

// Options controls a single execution.
type Options struct {
	Timeout  time.Duration
	Encoding string
}

// SequenceOptions controls ExecuteSequence.
type SequenceOptions struct {
	Options
	// StopOnError halts the sequence after the first command whose
	// exit code is non-zero or whose execution itself fails.
	StopOnError bool
}

type Engine struct {
	log *logger.Logger
}

func NewEngine() *Engine {
	return &Engine{log: logger.Get()}
}

// runSpec is the shared shape behind the public execute variants.
type runSpec struct {
	command      string
	pty          bool
	input        string
	hasInput     bool
	sudoPassword string
	timeout      time.Duration
	encoding     string
}

// Execute runs a command to completion or fails cleanly on timeout.
// On timeout the underlying stream is force-closed so the remote side
// sees the channel go away.
func (e *Engine) Execute(
	ctx context.Context,
	s *registry.Session,
	cmd string,
	opts Options,
) (*models.CommandResult, error) {
	return e.run(ctx, s, runSpec{
		command:  cmd,
		timeout:  opts.Timeout,
		encoding: opts.Encoding,
	})
}

// ExecuteWithInput writes input to the command's stdin, signals EOF,
// then behaves identically to Execute.
func (e *Engine) ExecuteWithInput(
	ctx context.Context,
	s *registry.Session,
	cmd, input string,
	opts Options,
) (*models.CommandResult, error) {
	return e.run(ctx, s, runSpec{
		command:  cmd,
		input:    input,
		hasInput: true,
		timeout:  opts.Timeout,
		encoding: opts.Encoding,
	})
}

// ExecuteSudo runs a privilege-escalated command. With a password the
// command is wrapped so the password is piped to sudo's prompt under a
// pseudo-terminal; without one, escalation relies on passwordless
// sudo on the remote end. The password never appears in the returned
// result or in logs.
func (e *Engine) ExecuteSudo(
	ctx context.Context,
	s *registry.Session,
	cmd, sudoPassword string,
	opts Options,
) (*models.CommandResult, error) {
	spec := runSpec{
		timeout:  opts.Timeout,
		encoding: opts.Encoding,
	}
	if sudoPassword != "" {
		spec.command = "sudo -S " + cmd
		spec.pty = true
		spec.sudoPassword = sudoPassword
	} else {
		spec.command = "sudo " + cmd
	}

	result, err := e.run(ctx, s, spec)
	if err != nil {
		return nil, err
	}

	result.Stderr = stripSudoPrompts(result.Stderr)
	if sudoPassword != "" {
		result.Stdout = strings.ReplaceAll(result.Stdout, sudoPassword, "")
		result.Stderr = strings.ReplaceAll(result.Stderr, sudoPassword, "")
	}
	return result, nil
}

// ExecuteSequence runs commands one at a time in order. A failed
// execution is recorded as a synthetic result with exit code -1 and
// the failure message as stderr, not re-raised.
func (e *Engine) ExecuteSequence(
	ctx context.Context,
	s *registry.Session,
	commands []string,
	opts SequenceOptions,
) ([]*models.CommandResult, error) {
	results := make([]*models.CommandResult, 0, len(commands))
	for _, cmd := range commands {
		result, err := e.Execute(ctx, s, cmd, opts.Options)
		if err != nil {
			result = &models.CommandResult{
				Stderr:   err.Error(),
				ExitCode: models.IntPtr(-1),
			}
		}
		results = append(results, result)

		failed := result.ExitCode == nil || *result.ExitCode != 0
		if opts.StopOnError && failed {
			break
		}
	}
	return results, nil
}

func (e *Engine) run(
	ctx context.Context,
	s *registry.Session,
	spec runSpec,
) (*models.CommandResult, error) {
	if spec.timeout <= 0 {
		spec.timeout = sshutils.DefaultCommandTimeout
	}

	client := s.Client()
	if client == nil {
		return nil, &models.NotConnectedError{SessionID: s.ID}
	}

	stream, err := client.NewSession()
	if err != nil {
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("open exec stream on session %s", s.ID),
			Err: err,
		}
	}

	if spec.pty {
		modes := ssh.TerminalModes{
			ssh.ECHO:          0,
			ssh.TTY_OP_ISPEED: 14400,
			ssh.TTY_OP_OSPEED: 14400,
		}
		if err := stream.RequestPty("xterm", 80, 40, modes); err != nil {
			_ = stream.Close()
			return nil, &models.TransportError{Op: "request pty", Err: err}
		}
	}

	var stdin io.WriteCloser
	if spec.hasInput || spec.sudoPassword != "" {
		stdin, err = stream.StdinPipe()
		if err != nil {
			_ = stream.Close()
			return nil, &models.TransportError{Op: "open stdin", Err: err}
		}
	}

	stdout, err := stream.StdoutPipe()
	if err != nil {
		_ = stream.Close()
		return nil, &models.TransportError{Op: "open stdout", Err: err}
	}
	stderr, err := stream.StderrPipe()
	if err != nil {
		_ = stream.Close()
		return nil, &models.TransportError{Op: "open stderr", Err: err}
	}

	e.log.Debugf("Executing on session %s: %s", s.ID, spec.command)
	if err := stream.Start(spec.command); err != nil {
		_ = stream.Close()
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("start command on session %s", s.ID),
			Err: err,
		}
	}

	if spec.hasInput {
		if _, err := io.WriteString(stdin, spec.input); err != nil {
			_ = stream.Close()
			return nil, &models.TransportError{Op: "write input", Err: err}
		}
		if err := stdin.Close(); err != nil {
			_ = stream.Close()
			return nil, &models.TransportError{Op: "close input", Err: err}
		}
	}

	var outBuf, errBuf bytes.Buffer
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		e.captureStdout(stdout, stdin, &outBuf, spec.sudoPassword)
	}()
	go func() {
		defer wg.Done()
		copyChunks(stderr, &errBuf)
	}()

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- stream.Wait()
	}()

	timer := time.NewTimer(spec.timeout)
	defer timer.Stop()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-ctx.Done():
		_ = stream.Close()
		return nil, ctx.Err()
	case <-timer.C:
		// Force-close so the channel is torn down rather than left
		// dangling with the remote command still attached.
		_ = stream.Close()
		return nil, &models.TimeoutError{
			Op:      fmt.Sprintf("command on session %s", s.ID),
			Elapsed: spec.timeout,
		}
	}

	wg.Wait()
	_ = stream.Close()

	result, err := e.buildResult(s, spec, outBuf.Bytes(), errBuf.Bytes(), waitErr)
	if err != nil {
		return nil, err
	}

	s.RecordCommand()
	return result, nil
}

func (e *Engine) buildResult(
	s *registry.Session,
	spec runSpec,
	rawOut, rawErr []byte,
	waitErr error,
) (*models.CommandResult, error) {
	stdout, err := DecodeBytes(spec.encoding, rawOut)
	if err != nil {
		return nil, err
	}
	stderr, err := DecodeBytes(spec.encoding, rawErr)
	if err != nil {
		return nil, err
	}

	result := &models.CommandResult{
		Stdout: strings.TrimSpace(stdout),
		Stderr: strings.TrimSpace(stderr),
	}

	switch {
	case waitErr == nil:
		result.ExitCode = models.IntPtr(0)
	default:
		var exitErr *ssh.ExitError
		var missingErr *ssh.ExitMissingError
		if errors.As(waitErr, &exitErr) {
			if sig := exitErr.Signal(); sig != "" {
				result.Signal = models.StrPtr(sig)
			} else {
				result.ExitCode = models.IntPtr(exitErr.ExitStatus())
			}
		} else if errors.As(waitErr, &missingErr) {
			// Remote closed without reporting status; both stay nil.
		} else {
			return nil, &models.TransportError{
				Op:  fmt.Sprintf("command on session %s", s.ID),
				Err: waitErr,
			}
		}
	}

	return result, nil
}

// captureStdout accumulates output chunks. When a sudo password is
// pending, the first chunk containing a case-insensitive "password"
// match triggers the password write and is suppressed from capture so
// the prompt echo never reaches the caller.
func (e *Engine) captureStdout(
	r io.Reader,
	stdin io.WriteCloser,
	buf *bytes.Buffer,
	sudoPassword string,
) {
	passwordSent := sudoPassword == ""
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			data := chunk[:n]
			if !passwordSent &&
				strings.Contains(strings.ToLower(string(data)), "password") {
				passwordSent = true
				if stdin != nil {
					if _, werr := io.WriteString(stdin, sudoPassword+"\n"); werr != nil {
						e.log.Warnf("Failed to answer privilege prompt: %v", werr)
					}
				}
			} else {
				buf.Write(data)
			}
		}
		if err != nil {
			return
		}
	}
}

func copyChunks(r io.Reader, buf *bytes.Buffer) {
	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
		}
		if err != nil {
			return
		}
	}
}

var sudoPromptPatterns = []string{
	"[sudo] password for",
	"password:",
	"password for",
}

// stripSudoPrompts removes known password-prompt lines from captured
// stderr after completion.
func stripSudoPrompts(stderr string) string {
	if stderr == "" {
		return stderr
	}
	var kept []string
	for _, line := range strings.Split(stderr, "\n") {
		lower := strings.ToLower(strings.TrimSpace(line))
		prompt := false
		for _, pattern := range sudoPromptPatterns {
			if strings.HasPrefix(lower, pattern) {
				prompt = true
				break
			}
		}
		if !prompt {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
