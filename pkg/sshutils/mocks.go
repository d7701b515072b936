package sshutils

import (
	"io"
	"os"

	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/ssh"
)

// Testify mocks for the transport interfaces. Kept alongside the
// interfaces so every consumer package can share them in tests.

type MockSSHDialer struct {
	mock.Mock
}

func (m *MockSSHDialer) Dial(
	network, addr string,
	config *ssh.ClientConfig,
) (SSHClienter, error) {
	args := m.Called(network, addr, config)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SSHClienter), args.Error(1)
}

type MockSSHClient struct {
	mock.Mock
}

func (m *MockSSHClient) NewSession() (SSHSessioner, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SSHSessioner), args.Error(1)
}

func (m *MockSSHClient) OpenSFTP() (SFTPClienter, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(SFTPClienter), args.Error(1)
}

func (m *MockSSHClient) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSSHClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSSHSession struct {
	mock.Mock
}

func (m *MockSSHSession) RequestPty(term string, h, w int, modes ssh.TerminalModes) error {
	args := m.Called(term, h, w, modes)
	return args.Error(0)
}

func (m *MockSSHSession) StdinPipe() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSSHSession) StdoutPipe() (io.Reader, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.Reader), args.Error(1)
}

func (m *MockSSHSession) StderrPipe() (io.Reader, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.Reader), args.Error(1)
}

func (m *MockSSHSession) Start(cmd string) error {
	args := m.Called(cmd)
	return args.Error(0)
}

func (m *MockSSHSession) Wait() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSSHSession) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockSFTPClient struct {
	mock.Mock
}

func (m *MockSFTPClient) Stat(path string) (os.FileInfo, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(os.FileInfo), args.Error(1)
}

func (m *MockSFTPClient) ReadDir(path string) ([]os.FileInfo, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]os.FileInfo), args.Error(1)
}

func (m *MockSFTPClient) Mkdir(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockSFTPClient) RemoveDirectory(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockSFTPClient) Remove(path string) error {
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockSFTPClient) Rename(oldPath, newPath string) error {
	args := m.Called(oldPath, newPath)
	return args.Error(0)
}

func (m *MockSFTPClient) Create(path string) (io.WriteCloser, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSFTPClient) Open(path string) (io.ReadCloser, error) {
	args := m.Called(path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockSFTPClient) Chmod(path string, mode os.FileMode) error {
	args := m.Called(path, mode)
	return args.Error(0)
}

func (m *MockSFTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockWriteCloser struct {
	mock.Mock
}

func (m *MockWriteCloser) Write(p []byte) (int, error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockWriteCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}

var (
	_ SSHDialer    = (*MockSSHDialer)(nil)
	_ SSHClienter  = (*MockSSHClient)(nil)
	_ SSHSessioner = (*MockSSHSession)(nil)
	_ SFTPClienter = (*MockSFTPClient)(nil)
)
