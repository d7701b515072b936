package command

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/registry"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

// chunkReader yields one configured chunk per Read call, then EOF.
type chunkReader struct {
	chunks []string
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	r.chunks = r.chunks[1:]
	n := copy(p, chunk)
	return n, nil
}

func newTestSession(t *testing.T, client *sshutils.MockSSHClient) *registry.Session {
	t.Helper()

	// The handles are released in cleanup, after any in-test
	// AssertExpectations, so the Close expectations stay optional.
	sftpClient := &sshutils.MockSFTPClient{}
	sftpClient.On("Close").Return(nil).Maybe()
	client.On("OpenSFTP").Return(sftpClient, nil)
	client.On("Close").Return(nil).Maybe()

	dialer := &sshutils.MockSSHDialer{}
	dialer.On("Dial", "tcp", "example.com:22", mock.Anything).Return(client, nil)

	reg := registry.New(registry.Options{Dialer: dialer})
	t.Cleanup(reg.Shutdown)

	id, err := reg.CreateOrReuse(context.Background(), &sshutils.Credentials{
		Host:     "example.com",
		Port:     22,
		User:     "testuser",
		Password: "testpass",
	})
	require.NoError(t, err)

	s, err := reg.Get(id)
	require.NoError(t, err)
	return s
}

func expectStream(
	client *sshutils.MockSSHClient,
	cmd string,
	stdout, stderr io.Reader,
	waitErr error,
) *sshutils.MockSSHSession {
	stream := &sshutils.MockSSHSession{}
	stream.On("StdoutPipe").Return(stdout, nil)
	stream.On("StderrPipe").Return(stderr, nil)
	stream.On("Start", cmd).Return(nil)
	stream.On("Wait").Return(waitErr)
	stream.On("Close").Return(nil)
	client.On("NewSession").Return(stream, nil).Once()
	return stream
}

func TestExecuteCapturesTrimmedOutput(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)
	expectStream(client, "echo hi",
		strings.NewReader("hi\n"), strings.NewReader(""), nil)

	result, err := NewEngine().Execute(context.Background(), s, "echo hi", Options{})
	require.NoError(t, err)

	assert.Equal(t, "hi", result.Stdout)
	assert.Empty(t, result.Stderr)
	require.NotNil(t, result.ExitCode)
	assert.Equal(t, 0, *result.ExitCode)
	assert.Nil(t, result.Signal)
	client.AssertExpectations(t)
}

func TestExecuteIncrementsCommandCounter(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)
	expectStream(client, "true", strings.NewReader(""), strings.NewReader(""), nil)

	_, err := NewEngine().Execute(context.Background(), s, "true", Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Summary().CommandCount)
}

func TestExecuteSeparatesStderr(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)
	expectStream(client, "noisy",
		strings.NewReader("out\n"), strings.NewReader("warning: noise\n"), nil)

	result, err := NewEngine().Execute(context.Background(), s, "noisy", Options{})
	require.NoError(t, err)
	assert.Equal(t, "out", result.Stdout)
	assert.Equal(t, "warning: noise", result.Stderr)
}

func TestExecuteTimeoutClosesStream(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)

	stream := &sshutils.MockSSHSession{}
	stream.On("StdoutPipe").Return(strings.NewReader(""), nil)
	stream.On("StderrPipe").Return(strings.NewReader(""), nil)
	stream.On("Start", "sleep 60").Return(nil)
	stream.On("Wait").Run(func(mock.Arguments) {
		time.Sleep(200 * time.Millisecond)
	}).Return(nil)
	stream.On("Close").Return(nil)
	client.On("NewSession").Return(stream, nil).Once()

	_, err := NewEngine().Execute(context.Background(), s, "sleep 60", Options{
		Timeout: 20 * time.Millisecond,
	})
	require.Error(t, err)

	var timeout *models.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 20*time.Millisecond, timeout.Elapsed)
	stream.AssertCalled(t, "Close")
}

func TestExecuteTransportErrorSupersedes(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)
	expectStream(client, "broken",
		strings.NewReader(""), strings.NewReader(""), errors.New("connection lost"))

	_, err := NewEngine().Execute(context.Background(), s, "broken", Options{})
	require.Error(t, err)

	var transport *models.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Contains(t, err.Error(), "connection lost")
}

func TestExecuteWithInputWritesAndClosesStdin(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)

	stdin := &sshutils.MockWriteCloser{}
	stdin.On("Write", []byte("line one\n")).Return(9, nil)
	stdin.On("Close").Return(nil)

	stream := expectStream(client, "cat",
		strings.NewReader("line one\n"), strings.NewReader(""), nil)
	stream.On("StdinPipe").Return(stdin, nil)

	result, err := NewEngine().ExecuteWithInput(
		context.Background(), s, "cat", "line one\n", Options{})
	require.NoError(t, err)

	assert.Equal(t, "line one", result.Stdout)
	stdin.AssertExpectations(t)
}

func TestExecuteSudoAnswersPromptAndRedacts(t *testing.T) {
	const password = "s3cret-pw"

	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)

	stdin := &sshutils.MockWriteCloser{}
	stdin.On("Write", []byte(password+"\n")).Return(len(password)+1, nil)

	stream := &sshutils.MockSSHSession{}
	stream.On("RequestPty", "xterm", 80, 40, mock.Anything).Return(nil)
	stream.On("StdinPipe").Return(stdin, nil)
	stream.On("StdoutPipe").Return(&chunkReader{
		chunks: []string{"Password:", "root\n"},
	}, nil)
	stream.On("StderrPipe").Return(strings.NewReader("[sudo] password for testuser:\n"), nil)
	stream.On("Start", "sudo -S whoami").Return(nil)
	stream.On("Wait").Return(nil)
	stream.On("Close").Return(nil)
	client.On("NewSession").Return(stream, nil).Once()

	result, err := NewEngine().ExecuteSudo(
		context.Background(), s, "whoami", password, Options{})
	require.NoError(t, err)

	assert.Equal(t, "root", result.Stdout)
	assert.Empty(t, result.Stderr)
	assert.NotContains(t, result.Stdout, password)
	assert.NotContains(t, result.Stderr, password)
	stdin.AssertExpectations(t)
	stream.AssertExpectations(t)
}

func TestExecuteSudoWithoutPasswordSkipsPty(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)
	expectStream(client, "sudo systemctl restart nginx",
		strings.NewReader(""), strings.NewReader(""), nil)

	_, err := NewEngine().ExecuteSudo(
		context.Background(), s, "systemctl restart nginx", "", Options{})
	require.NoError(t, err)
	client.AssertExpectations(t)
}

func TestExecuteSequenceRecordsSyntheticFailure(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)

	expectStream(client, "first", strings.NewReader("ok\n"), strings.NewReader(""), nil)
	expectStream(client, "second",
		strings.NewReader(""), strings.NewReader(""), errors.New("stream torn down"))
	expectStream(client, "third", strings.NewReader("done\n"), strings.NewReader(""), nil)

	results, err := NewEngine().ExecuteSequence(
		context.Background(), s, []string{"first", "second", "third"}, SequenceOptions{})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "ok", results[0].Stdout)
	require.NotNil(t, results[1].ExitCode)
	assert.Equal(t, -1, *results[1].ExitCode)
	assert.Contains(t, results[1].Stderr, "stream torn down")
	assert.Equal(t, "done", results[2].Stdout)
}

func TestExecuteSequenceStopOnError(t *testing.T) {
	client := &sshutils.MockSSHClient{}
	s := newTestSession(t, client)

	expectStream(client, "first",
		strings.NewReader(""), strings.NewReader(""), errors.New("boom"))

	results, err := NewEngine().ExecuteSequence(
		context.Background(), s, []string{"first", "second"}, SequenceOptions{
			StopOnError: true,
		})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].ExitCode)
	assert.Equal(t, -1, *results[0].ExitCode)
}

func TestStripSudoPrompts(t *testing.T) {
	cases := []struct {
		name   string
		stderr string
		want   string
	}{
		{"prompt only", "[sudo] password for alice:", ""},
		{"bare prompt", "Password:", ""},
		{"prompt with real error", "[sudo] password for alice:\npermission denied", "permission denied"},
		{"no prompt", "command not found", "command not found"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, stripSudoPrompts(tc.stderr))
		})
	}
}
