package sshutils

import (
	"io"
	"os"

	"golang.org/x/crypto/ssh"
)

// SSHClienter is the connection handle the rest of the system works
// against. Exactly one session owns a given handle.
type SSHClienter interface {
	NewSession() (SSHSessioner, error)
	OpenSFTP() (SFTPClienter, error)
	IsConnected() bool
	Close() error
}

// SSHSessioner is a single execution stream on a connection.
type SSHSessioner interface {
	RequestPty(term string, h, w int, modes ssh.TerminalModes) error
	StdinPipe() (io.WriteCloser, error)
	StdoutPipe() (io.Reader, error)
	StderrPipe() (io.Reader, error)
	Start(cmd string) error
	Wait() error
	Close() error
}

// SFTPClienter is the per-connection file-subsystem handle.
type SFTPClienter interface {
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.FileInfo, error)
	Mkdir(path string) error
	RemoveDirectory(path string) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Create(path string) (io.WriteCloser, error)
	Open(path string) (io.ReadCloser, error)
	Chmod(path string, mode os.FileMode) error
	Close() error
}

// SSHDialer opens authenticated connections. Swapped for a mock in
// tests.
type SSHDialer interface {
	Dial(network, addr string, config *ssh.ClientConfig) (SSHClienter, error)
}
