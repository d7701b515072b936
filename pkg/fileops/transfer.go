package fileops

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/registry"
)

// TransferOptions controls single-file transfers.
type TransferOptions struct {
	Overwrite bool
}

// UploadFile copies a local file to the remote host. The source must
// exist and, unless Overwrite is set, the destination must not.
func (e *Engine) UploadFile(
	s *registry.Session,
	localPath, remotePath string,
	opts TransferOptions,
) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}

	local, err := os.Open(localPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.NotFoundError{Kind: "path", ID: localPath}
		}
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer local.Close()

	if !opts.Overwrite && e.Exists(s, remotePath) {
		return &models.ConflictError{
			Path:   remotePath,
			Reason: "destination already exists and overwrite is not set",
		}
	}

	remote, err := client.Create(remotePath)
	if err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("create %s", remotePath),
			Err: err,
		}
	}

	if _, err := io.Copy(remote, local); err != nil {
		_ = remote.Close()
		return &models.TransportError{
			Op:  fmt.Sprintf("upload %s to %s", localPath, remotePath),
			Err: err,
		}
	}
	if err := remote.Close(); err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("close %s", remotePath),
			Err: err,
		}
	}

	e.log.Debugf("Uploaded %s to %s", localPath, remotePath)
	s.Touch()
	return nil
}

// DownloadFile copies a remote file to the local filesystem, creating
// the local destination directory first.
func (e *Engine) DownloadFile(
	s *registry.Session,
	remotePath, localPath string,
	opts TransferOptions,
) error {
	client, err := e.sftpFor(s)
	if err != nil {
		return err
	}

	if !e.Exists(s, remotePath) {
		return &models.NotFoundError{Kind: "path", ID: remotePath}
	}
	if !opts.Overwrite {
		if _, err := os.Stat(localPath); err == nil {
			return &models.ConflictError{
				Path:   localPath,
				Reason: "destination already exists and overwrite is not set",
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return fmt.Errorf("failed to create local directory for %s: %w", localPath, err)
	}

	remote, err := client.Open(remotePath)
	if err != nil {
		return &models.TransportError{
			Op:  fmt.Sprintf("open %s", remotePath),
			Err: err,
		}
	}
	defer remote.Close()

	local, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file %s: %w", localPath, err)
	}

	if _, err := io.Copy(local, remote); err != nil {
		_ = local.Close()
		return &models.TransportError{
			Op:  fmt.Sprintf("download %s to %s", remotePath, localPath),
			Err: err,
		}
	}
	if err := local.Close(); err != nil {
		return fmt.Errorf("failed to close local file %s: %w", localPath, err)
	}

	e.log.Debugf("Downloaded %s to %s", remotePath, localPath)
	s.Touch()
	return nil
}

// UploadDirectory recursively mirrors a local directory tree to the
// remote host. A single entry's failure is recorded in the result and
// does not abort its siblings.
func (e *Engine) UploadDirectory(
	s *registry.Session,
	localDir, remoteDir string,
) (*models.TransferResult, error) {
	if fi, err := os.Stat(localDir); err != nil || !fi.IsDir() {
		return nil, &models.NotFoundError{Kind: "path", ID: localDir}
	}

	if err := e.Mkdir(s, remoteDir, MkdirOptions{Recursive: true}); err != nil {
		return nil, err
	}

	result := models.NewTransferResult()
	entries, err := os.ReadDir(localDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read local directory %s: %w", localDir, err)
	}

	for _, entry := range entries {
		localChild := filepath.Join(localDir, entry.Name())
		remoteChild := path.Join(remoteDir, entry.Name())

		if entry.IsDir() {
			child, err := e.UploadDirectory(s, localChild, remoteChild)
			if err != nil {
				result.RecordFailure(localChild, err)
				continue
			}
			result.Merge(child)
			continue
		}

		if err := e.UploadFile(s, localChild, remoteChild, TransferOptions{Overwrite: true}); err != nil {
			result.RecordFailure(localChild, err)
			continue
		}
		result.RecordTransferred(localChild)
	}

	s.Touch()
	return result, nil
}

// DownloadDirectory recursively mirrors a remote directory tree to
// the local filesystem with the same per-leaf failure isolation as
// UploadDirectory.
func (e *Engine) DownloadDirectory(
	s *registry.Session,
	remoteDir, localDir string,
) (*models.TransferResult, error) {
	client, err := e.sftpFor(s)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local directory %s: %w", localDir, err)
	}

	entries, err := client.ReadDir(remoteDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &models.NotFoundError{Kind: "path", ID: remoteDir}
		}
		return nil, &models.TransportError{
			Op:  fmt.Sprintf("list %s", remoteDir),
			Err: err,
		}
	}

	result := models.NewTransferResult()
	for _, entry := range entries {
		remoteChild := path.Join(remoteDir, entry.Name())
		localChild := filepath.Join(localDir, entry.Name())

		if isDir, _, _ := classifyMode(rawMode(entry)); isDir {
			child, err := e.DownloadDirectory(s, remoteChild, localChild)
			if err != nil {
				result.RecordFailure(remoteChild, err)
				continue
			}
			result.Merge(child)
			continue
		}

		if err := e.DownloadFile(s, remoteChild, localChild, TransferOptions{Overwrite: true}); err != nil {
			result.RecordFailure(remoteChild, err)
			continue
		}
		result.RecordTransferred(remoteChild)
	}

	s.Touch()
	return result, nil
}
