// Package fileops provides uniform file and directory operations over
// a session's SFTP handle, including client-orchestrated recursion on
// top of the transport's single-level primitives.
package fileops

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/registry"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

type Engine struct {
	log *logger.Logger
}

func NewEngine() *Engine {
	return &Engine{log: logger.Get()}
}

// MkdirOptions controls Mkdir behavior.
type MkdirOptions struct {
	Recursive bool
	Mode      os.FileMode
}

func (e *Engine) sftpFor(s *registry.Session) (sshutils.SFTPClienter, error) {
	client := s.SFTP()
	if client == nil {
		return nil, &models.NotConnectedError{SessionID: s.ID}
	}
	return client, nil
}

// Stat returns normalized metadata for a remote path.
func (e *Engine) Stat(s *registry.Session, remotePath string) (*models.FileInfo, error) {
	client, err := e.sftpFor(s)
	if err != nil {
		return nil, err
	}

	fi, err := client.Stat(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &models.NotFoundError{Kind: "path", ID: remotePath}
		}
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("stat %s", remotePath),
			Err: err,
		}
	}

	info := normalizeFileInfo(fi)
	s.Touch()
	return &info, nil
}

// Exists reports whether a remote path exists. Any stat failure is
// treated as non-existence, never re-raised.
func (e *Engine) Exists(s *registry.Session, remotePath string) bool {
	_, err := e.Stat(s, remotePath)
	return err == nil
}

// Mkdir creates a remote directory. With Recursive set, every
// cumulative path prefix is attempted and an already-existing
// directory is tolerated, so repeated calls are idempotent.
func (e *Engine) Mkdir(s *registry.Session, remotePath string, opts MkdirOptions) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}

	if !opts.Recursive {
		if err := client.Mkdir(remotePath); err != nil {
			return &models.TransportError{
				Op:  fmt.Sprintf("mkdir %s", remotePath),
				Err: err,
			}
		}
	} else {
		if err := e.mkdirAll(client, remotePath); err != nil {
			return err
		}
	}

	if opts.Mode != 0 {
		if err := client.Chmod(remotePath, opts.Mode); err != nil {
			return &models.TransportError{
				Op:  fmt.Sprintf("chmod %s", remotePath),
				Err: err,
			}
		}
	}

	s.Touch()
	return nil
}

func (e *Engine) mkdirAll(client sshutils.SFTPClienter, remotePath string) error {
	prefix := ""
	if strings.HasPrefix(remotePath, "/") {
		prefix = "/"
	}
	segments := strings.Split(strings.Trim(remotePath, "/"), "/")

	current := prefix
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		current = path.Join(current, segment)
		if err := client.Mkdir(current); err != nil {
			// The transport reports creation of an existing directory
			// as a failure; only that case is tolerated.
			if fi, statErr := client.Stat(current); statErr == nil {
				if isDir, _, _ := classifyMode(rawMode(fi)); isDir {
					continue
				}
			}
			return &models.TransportError{
				Op:  fmt.Sprintf("mkdir %s", current),
				Err: err,
			}
		}
	}
	return nil
}

// Unlink removes a remote file.
func (e *Engine) Unlink(s *registry.Session, remotePath string) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}
	if err := client.Remove(remotePath); err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("unlink %s", remotePath),
			Err: err,
		}
	}
	s.Touch()
	return nil
}

// Rmdir removes an empty remote directory.
func (e *Engine) Rmdir(s *registry.Session, remotePath string) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}
	if err := client.RemoveDirectory(remotePath); err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("rmdir %s", remotePath),
			Err: err,
		}
	}
	s.Touch()
	return nil
}

// Rename moves a remote path.
func (e *Engine) Rename(s *registry.Session, oldPath, newPath string) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}
	if err := client.Rename(oldPath, newPath); err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("rename %s to %s", oldPath, newPath),
			Err: err,
		}
	}
	s.Touch()
	return nil
}

// Remove deletes a remote path. Directories require recursive unless
// already empty; recursion empties depth-first, subdirectories before
// files at each level are handled child by child.
func (e *Engine) Remove(s *registry.Session, remotePath string, recursive bool) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}

	fi, err := client.Stat(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.NotFoundError{Kind: "path", ID: remotePath}
		}
		return &models.TransportError{
			Op:  fmt.Sprintf("stat %s", remotePath),
			Err: err,
		}
	}

	isDir, _, _ := classifyMode(rawMode(fi))
	switch {
	case isDir && recursive:
		if err := e.removeTree(client, remotePath); err != nil {
			return err
		}
	case isDir:
		if err := client.RemoveDirectory(remotePath); err != nil {
			return &models.TransportError{
				Op:  fmt.Sprintf("rmdir %s", remotePath),
				Err: err,
			}
		}
	default:
		if err := client.Remove(remotePath); err != nil {
			return &models.TransportError{
				Op:  fmt.Sprintf("unlink %s", remotePath),
				Err: err,
			}
		}
	}

	s.Touch()
	return nil
}

func (e *Engine) removeTree(client sshutils.SFTPClienter, dir string) error {
	entries, err := client.ReadDir(dir)
	if err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("list %s", dir),
			Err: err,
		}
	}

	for _, entry := range entries {
		child := path.Join(dir, entry.Name())
		if isDir, _, _ := classifyMode(rawMode(entry)); isDir {
			if err := e.removeTree(client, child); err != nil {
				return err
			}
			continue
		}
		if err := client.Remove(child); err != nil {
			return &models.TransportError{
				Op:  fmt.Sprintf("unlink %s", child),
				Err: err,
			}
		}
	}

	if err := client.RemoveDirectory(dir); err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("rmdir %s", dir),
			Err: err,
		}
	}
	return nil
}

// ListDirectory lists one level of a remote directory with normalized
// entries.
func (e *Engine) ListDirectory(s *registry.Session, remotePath string) (*models.DirectoryListing, error) {
	client, err := e.sftpFor(s)
	if err != nil {
		return nil, err
	}

	entries, err := client.ReadDir(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &models.NotFoundError{Kind: "path", ID: remotePath}
		}
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("list %s", remotePath),
			Err: err,
		}
	}

	listing := &models.DirectoryListing{
		Path:    remotePath,
		Entries: make([]models.FileInfo, 0, len(entries)),
	}
	for _, entry := range entries {
		listing.Entries = append(listing.Entries, normalizeFileInfo(entry))
	}
	listing.Count = len(listing.Entries)

	s.Touch()
	return listing, nil
}

// ReadFile returns the full contents of a remote file.
func (e *Engine) ReadFile(s *registry.Session, remotePath string) ([]byte, error) {
	client, err := e.sftpFor(s)
	if err != nil {
		return nil, err
	}

	f, err := client.Open(remotePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &models.NotFoundError{Kind: "path", ID: remotePath}
		}
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("open %s", remotePath),
			Err: err,
		}
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("read %s", remotePath),
			Err: err,
		}
	}

	s.Touch()
	return content, nil
}

// WriteFile writes content to a remote file, creating or truncating
// it.
func (e *Engine) WriteFile(s *registry.Session, remotePath string, content []byte, mode os.FileMode) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}

	f, err := client.Create(remotePath)
	if err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("create %s", remotePath),
			Err: err,
		}
	}

	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return &models.TransportError{
			Op:  fmt.Sprintf("write %s", remotePath),
			Err: err,
		}
	}
	if err := f.Close(); err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("close %s", remotePath),
			Err: err,
		}
	}

	if mode != 0 {
		if err := client.Chmod(remotePath, mode); err != nil {
			return &models.TransportError{
				Op:  fmt.Sprintf("chmod %s", remotePath),
				Err: err,
			}
		}
	}

	s.Touch()
	return nil
}
