package sshutils

import (
	"io"
	"os"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// SSHClientWrapper adapts *ssh.Client to SSHClienter.
type SSHClientWrapper struct {
	Client *ssh.Client
}

func (w *SSHClientWrapper) NewSession() (SSHSessioner, error) {
	session, err := w.Client.NewSession()
	if err != nil {
		return nil, err
	}
	return &SSHSessionWrapper{Session: session}, nil
}

func (w *SSHClientWrapper) OpenSFTP() (SFTPClienter, error) {
	client, err := SFTPClientCreator(w.Client)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// IsConnected probes the connection with a keepalive request. A dead
// TCP link fails here without opening a session.
func (w *SSHClientWrapper) IsConnected() bool {
	if w.Client == nil {
		return false
	}
	_, _, err := w.Client.SendRequest("keepalive@openssh.com", true, nil)
	return err == nil
}

func (w *SSHClientWrapper) Close() error {
	if w.Client == nil {
		return nil
	}
	return w.Client.Close()
}

// SFTPClientCreator opens the file subsystem on an established
// connection. Overridable for tests.
var SFTPClientCreator = func(client *ssh.Client) (SFTPClienter, error) {
	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		return nil, err
	}
	return &SFTPClientWrapper{Client: sftpClient}, nil
}

// SSHSessionWrapper adapts *ssh.Session to SSHSessioner.
type SSHSessionWrapper struct {
	Session *ssh.Session
}

func (s *SSHSessionWrapper) RequestPty(term string, h, w int, modes ssh.TerminalModes) error {
	return s.Session.RequestPty(term, h, w, modes)
}

func (s *SSHSessionWrapper) StdinPipe() (io.WriteCloser, error) {
	return s.Session.StdinPipe()
}

func (s *SSHSessionWrapper) StdoutPipe() (io.Reader, error) {
	return s.Session.StdoutPipe()
}

func (s *SSHSessionWrapper) StderrPipe() (io.Reader, error) {
	return s.Session.StderrPipe()
}

func (s *SSHSessionWrapper) Start(cmd string) error {
	return s.Session.Start(cmd)
}

func (s *SSHSessionWrapper) Wait() error {
	return s.Session.Wait()
}

func (s *SSHSessionWrapper) Close() error {
	return s.Session.Close()
}

// SFTPClientWrapper adapts *sftp.Client to SFTPClienter.
type SFTPClientWrapper struct {
	Client *sftp.Client
}

func (w *SFTPClientWrapper) Stat(path string) (os.FileInfo, error) {
	return w.Client.Stat(path)
}

func (w *SFTPClientWrapper) ReadDir(path string) ([]os.FileInfo, error) {
	return w.Client.ReadDir(path)
}

func (w *SFTPClientWrapper) Mkdir(path string) error {
	return w.Client.Mkdir(path)
}

func (w *SFTPClientWrapper) RemoveDirectory(path string) error {
	return w.Client.RemoveDirectory(path)
}

func (w *SFTPClientWrapper) Remove(path string) error {
	return w.Client.Remove(path)
}

func (w *SFTPClientWrapper) Rename(oldPath, newPath string) error {
	return w.Client.Rename(oldPath, newPath)
}

func (w *SFTPClientWrapper) Create(path string) (io.WriteCloser, error) {
	return w.Client.Create(path)
}

func (w *SFTPClientWrapper) Open(path string) (io.ReadCloser, error) {
	return w.Client.Open(path)
}

func (w *SFTPClientWrapper) Chmod(path string, mode os.FileMode) error {
	return w.Client.Chmod(path, mode)
}

func (w *SFTPClientWrapper) Close() error {
	return w.Client.Close()
}
