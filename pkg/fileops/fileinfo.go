package fileops

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/sftp"

	"github.com/remotekit/remotekit/pkg/models"
)

// POSIX file-type bits carried in the high bits of the permission
// word on the SFTP wire.
const (
	modeTypeMask uint32 = 0o170000
	modeTypeDir  uint32 = 0o040000
	modeTypeReg  uint32 = 0o100000
	modeTypeLink uint32 = 0o120000
)

// classifyMode derives the mutually exclusive type classification
// from a raw mode word. Both the stat path and the directory-listing
// path feed through here so the two encodings can never diverge.
func classifyMode(mode uint32) (isDir, isFile, isSymlink bool) {
	switch mode & modeTypeMask {
	case modeTypeDir:
		isDir = true
	case modeTypeLink:
		isSymlink = true
	default:
		isFile = true
	}
	return
}

// rawMode recovers the canonical POSIX mode word for an entry,
// preferring the transport's own attributes.
func rawMode(fi os.FileInfo) uint32 {
	if st, ok := fi.Sys().(*sftp.FileStat); ok {
		return st.Mode
	}
	mode := uint32(fi.Mode().Perm())
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		mode |= modeTypeLink
	case fi.IsDir():
		mode |= modeTypeDir
	default:
		mode |= modeTypeReg
	}
	return mode
}

// normalizeFileInfo converts a transport entry into the uniform
// FileInfo shape.
func normalizeFileInfo(fi os.FileInfo) models.FileInfo {
	mode := rawMode(fi)
	isDir, isFile, isSymlink := classifyMode(mode)

	info := models.FileInfo{
		Name:        fi.Name(),
		IsDirectory: isDir,
		IsFile:      isFile,
		IsSymlink:   isSymlink,
		Size:        fi.Size(),
		Mode:        mode & 0o7777,
		ModTime:     fi.ModTime(),
		AccessTime:  fi.ModTime(),
	}

	if st, ok := fi.Sys().(*sftp.FileStat); ok {
		info.UID = st.UID
		info.GID = st.GID
		info.Size = int64(st.Size)
		info.AccessTime = time.Unix(int64(st.Atime), 0)
		info.ModTime = time.Unix(int64(st.Mtime), 0)
	}

	info.LongName = longName(info)
	return info
}

// longName renders a synthetic ls -l style line for the entry.
func longName(info models.FileInfo) string {
	typeChar := "-"
	switch {
	case info.IsDirectory:
		typeChar = "d"
	case info.IsSymlink:
		typeChar = "l"
	}
	return fmt.Sprintf("%s%s %d %d %d %s %s",
		typeChar,
		permString(info.Mode),
		info.UID,
		info.GID,
		info.Size,
		info.ModTime.Format("Jan _2 15:04"),
		info.Name,
	)
}

func permString(mode uint32) string {
	const rwx = "rwxrwxrwx"
	out := make([]byte, 9)
	for i := 0; i < 9; i++ {
		if mode&(1<<uint(8-i)) != 0 {
			out[i] = rwx[i]
		} else {
			out[i] = '-'
		}
	}
	return string(out)
}
