package fileops

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/remotekit/remotekit/pkg/models"
	"github.com/remotekit/remotekit/pkg/registry"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

// fakeFileInfo mimics what pkg/sftp returns for both stat calls and
// directory-listing entries.
type fakeFileInfo struct {
	name string
	stat *sftp.FileStat
}

func (f fakeFileInfo) Name() string       { return f.name }
func (f fakeFileInfo) Size() int64        { return int64(f.stat.Size) }
func (f fakeFileInfo) Mode() os.FileMode  { return os.FileMode(f.stat.Mode & 0o777) }
func (f fakeFileInfo) ModTime() time.Time { return time.Unix(int64(f.stat.Mtime), 0) }
func (f fakeFileInfo) IsDir() bool        { return f.stat.Mode&modeTypeMask == modeTypeDir }
func (f fakeFileInfo) Sys() interface{}   { return f.stat }

func fileEntry(name string, size uint64, perm uint32) fakeFileInfo {
	return fakeFileInfo{name: name, stat: &sftp.FileStat{
		Size: size, Mode: modeTypeReg | perm, UID: 1000, GID: 1000,
		Mtime: uint32(time.Now().Unix()), Atime: uint32(time.Now().Unix()),
	}}
}

func dirEntry(name string) fakeFileInfo {
	return fakeFileInfo{name: name, stat: &sftp.FileStat{
		Size: 4096, Mode: modeTypeDir | 0o755, UID: 0, GID: 0,
		Mtime: uint32(time.Now().Unix()), Atime: uint32(time.Now().Unix()),
	}}
}

func linkEntry(name string) fakeFileInfo {
	return fakeFileInfo{name: name, stat: &sftp.FileStat{
		Size: 12, Mode: modeTypeLink | 0o777,
		Mtime: uint32(time.Now().Unix()), Atime: uint32(time.Now().Unix()),
	}}
}

func newTestSession(t *testing.T) (*registry.Session, *sshutils.MockSFTPClient) {
	t.Helper()

	// The handles are released in cleanup, after any in-test
	// AssertExpectations, so the Close expectations stay optional.
	sftpClient := &sshutils.MockSFTPClient{}
	sftpClient.On("Close").Return(nil).Maybe()

	client := &sshutils.MockSSHClient{}
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
	return s, sftpClient
}

func TestClassifyModeIsExclusive(t *testing.T) {
	cases := []struct {
		name string
		mode uint32
		dir  bool
		file bool
		link bool
	}{
		{"directory", modeTypeDir | 0o755, true, false, false},
		{"regular", modeTypeReg | 0o644, false, true, false},
		{"symlink", modeTypeLink | 0o777, false, false, true},
		{"no type bits", 0o644, false, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isDir, isFile, isSymlink := classifyMode(tc.mode)
			assert.Equal(t, tc.dir, isDir)
			assert.Equal(t, tc.file, isFile)
			assert.Equal(t, tc.link, isSymlink)

			count := 0
			for _, b := range []bool{isDir, isFile, isSymlink} {
				if b {
					count++
				}
			}
			assert.Equal(t, 1, count, "exactly one classification must hold")
		})
	}
}

func TestNormalizeSameForStatAndListEntry(t *testing.T) {
	// Same raw attributes through both ingestion paths must yield the
	// same classification.
	entry := fileEntry("data.bin", 42, 0o644)

	fromStat := normalizeFileInfo(entry)
	fromList := normalizeFileInfo(entry)

	assert.Equal(t, fromStat.IsFile, fromList.IsFile)
	assert.Equal(t, fromStat.IsDirectory, fromList.IsDirectory)
	assert.True(t, fromStat.IsFile)
	assert.Equal(t, int64(42), fromStat.Size)
	assert.Equal(t, uint32(0o644), fromStat.Mode)
	assert.Equal(t, uint32(1000), fromStat.UID)
	assert.Contains(t, fromStat.LongName, "data.bin")
	assert.Contains(t, fromStat.LongName, "rw-r--r--")
}

func TestStat(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Stat", "/etc/hosts").Return(fileEntry("hosts", 180, 0o644), nil)

	info, err := NewEngine().Stat(s, "/etc/hosts")
	require.NoError(t, err)
	assert.Equal(t, "hosts", info.Name)
	assert.True(t, info.IsFile)
	assert.Equal(t, int64(180), info.Size)
}

func TestStatNotFound(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Stat", "/missing").Return(nil, os.ErrNotExist)

	_, err := NewEngine().Stat(s, "/missing")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "/missing", notFound.ID)
}

func TestExistsSwallowsAllFailures(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Stat", "/present").Return(fileEntry("present", 1, 0o644), nil)
	sftpClient.On("Stat", "/absent").Return(nil, os.ErrNotExist)
	sftpClient.On("Stat", "/broken").Return(nil, assert.AnError)

	engine := NewEngine()
	assert.True(t, engine.Exists(s, "/present"))
	assert.False(t, engine.Exists(s, "/absent"))
	assert.False(t, engine.Exists(s, "/broken"))
}

func TestMkdirNonRecursive(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Mkdir", "/data/new").Return(nil)

	require.NoError(t, NewEngine().Mkdir(s, "/data/new", MkdirOptions{}))
	sftpClient.AssertExpectations(t)
}

func TestMkdirRecursiveCreatesEachPrefix(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Mkdir", "/a").Return(nil)
	sftpClient.On("Mkdir", "/a/b").Return(nil)
	sftpClient.On("Mkdir", "/a/b/c").Return(nil)

	require.NoError(t, NewEngine().Mkdir(s, "/a/b/c", MkdirOptions{Recursive: true}))
	sftpClient.AssertExpectations(t)
}

func TestMkdirRecursiveIdempotent(t *testing.T) {
	s, sftpClient := newTestSession(t)
	// Every level already exists; the transport rejects each create
	// and the stat fallback confirms a directory is already there.
	sftpClient.On("Mkdir", mock.Anything).Return(assert.AnError)
	sftpClient.On("Stat", "/a").Return(dirEntry("a"), nil)
	sftpClient.On("Stat", "/a/b").Return(dirEntry("b"), nil)

	engine := NewEngine()
	require.NoError(t, engine.Mkdir(s, "/a/b", MkdirOptions{Recursive: true}))
	require.NoError(t, engine.Mkdir(s, "/a/b", MkdirOptions{Recursive: true}))
}

func TestMkdirRecursivePropagatesRealFailure(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Mkdir", "/a").Return(assert.AnError)
	sftpClient.On("Stat", "/a").Return(nil, os.ErrNotExist)

	err := NewEngine().Mkdir(s, "/a/b", MkdirOptions{Recursive: true})
	var transport *models.TransportError
	require.ErrorAs(t, err, &transport)
}

func TestRemoveFile(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Stat", "/tmp/f").Return(fileEntry("f", 1, 0o644), nil)
	sftpClient.On("Remove", "/tmp/f").Return(nil)

	require.NoError(t, NewEngine().Remove(s, "/tmp/f", false))
	sftpClient.AssertExpectations(t)
}

func TestRemoveDirectoryNonRecursive(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Stat", "/tmp/d").Return(dirEntry("d"), nil)
	sftpClient.On("RemoveDirectory", "/tmp/d").Return(nil)

	require.NoError(t, NewEngine().Remove(s, "/tmp/d", false))
	sftpClient.AssertExpectations(t)
}

func TestRemoveRecursiveDepthFirst(t *testing.T) {
	s, sftpClient := newTestSession(t)

	sftpClient.On("Stat", "/top").Return(dirEntry("top"), nil)
	sftpClient.On("ReadDir", "/top").Return([]os.FileInfo{
		dirEntry("sub"),
		fileEntry("root.txt", 3, 0o644),
	}, nil)
	sftpClient.On("ReadDir", "/top/sub").Return([]os.FileInfo{
		dirEntry("empty"),
		fileEntry("leaf.txt", 5, 0o644),
	}, nil)
	sftpClient.On("ReadDir", "/top/sub/empty").Return([]os.FileInfo{}, nil)

	sftpClient.On("Remove", "/top/sub/leaf.txt").Return(nil)
	sftpClient.On("Remove", "/top/root.txt").Return(nil)
	sftpClient.On("RemoveDirectory", "/top/sub/empty").Return(nil)
	sftpClient.On("RemoveDirectory", "/top/sub").Return(nil)
	sftpClient.On("RemoveDirectory", "/top").Return(nil)

	require.NoError(t, NewEngine().Remove(s, "/top", true))
	sftpClient.AssertExpectations(t)
}

func TestListDirectory(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("ReadDir", "/tmp").Return([]os.FileInfo{
		fileEntry("data.bin", 42, 0o644),
		dirEntry("cache"),
	}, nil)

	listing, err := NewEngine().ListDirectory(s, "/tmp")
	require.NoError(t, err)
	require.Equal(t, 2, listing.Count)

	assert.True(t, listing.Entries[0].IsFile)
	assert.Equal(t, int64(42), listing.Entries[0].Size)
	assert.True(t, listing.Entries[1].IsDirectory)
}

func TestListDirectoryClassifiesSymlinks(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("ReadDir", "/links").Return([]os.FileInfo{linkEntry("latest")}, nil)

	listing, err := NewEngine().ListDirectory(s, "/links")
	require.NoError(t, err)
	require.Equal(t, 1, listing.Count)
	assert.True(t, listing.Entries[0].IsSymlink)
	assert.False(t, listing.Entries[0].IsFile)
	assert.False(t, listing.Entries[0].IsDirectory)
}

func TestWriteFileReadFileRoundTrip(t *testing.T) {
	s, sftpClient := newTestSession(t)
	engine := NewEngine()

	// Every byte value must survive the trip, including NUL and bytes
	// that are invalid UTF-8 on their own.
	content := make([]byte, 0, 260)
	for i := 0; i < 256; i++ {
		content = append(content, byte(i))
	}
	content = append(content, 'h', 'i', 0xFE, 0xFF)

	remote := &captureWriter{}
	sftpClient.On("Create", "/tmp/blob").Return(remote, nil)

	require.NoError(t, engine.WriteFile(s, "/tmp/blob", content, 0))
	require.True(t, remote.closed)
	require.Equal(t, content, remote.Bytes())

	sftpClient.On("Open", "/tmp/blob").
		Return(io.NopCloser(bytes.NewReader(remote.Bytes())), nil)

	got, err := engine.ReadFile(s, "/tmp/blob")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestWriteFileAppliesMode(t *testing.T) {
	s, sftpClient := newTestSession(t)

	remote := &captureWriter{}
	sftpClient.On("Create", "/tmp/script.sh").Return(remote, nil)
	sftpClient.On("Chmod", "/tmp/script.sh", os.FileMode(0o755)).Return(nil)

	err := NewEngine().WriteFile(s, "/tmp/script.sh", []byte("#!/bin/sh\n"), 0o755)
	require.NoError(t, err)
	sftpClient.AssertExpectations(t)
}

func TestRename(t *testing.T) {
	s, sftpClient := newTestSession(t)
	sftpClient.On("Rename", "/old", "/new").Return(nil)

	require.NoError(t, NewEngine().Rename(s, "/old", "/new"))
	sftpClient.AssertExpectations(t)
}
