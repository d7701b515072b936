package models

import (
	"fmt"
	"time"
)

// CommandResult holds the outcome of a single remote command.
//
// ExitCode is nil when the remote process was killed by a signal rather
// than exiting normally; Signal is nil in the opposite case.
type CommandResult struct {
	Stdout   string  `json:"stdout"`
	Stderr   string  `json:"stderr"`
	ExitCode *int    `json:"exitCode"`
	Signal   *string `json:"signal"`
}

// SessionSummary is the read-only view of a live session returned by
// the registry's List operation.
type SessionSummary struct {
	ID           string    `json:"sessionId"`
	Host         string    `json:"host"`
	Port         int       `json:"port"`
	User         string    `json:"username"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	CommandCount int       `json:"commandCount"`
	Uptime       string    `json:"uptime"`
}

// FileInfo is the uniform metadata shape for a remote file or
// directory entry, normalized from the transport's raw attributes.
type FileInfo struct {
	Name        string    `json:"name"`
	LongName    string    `json:"longName"`
	IsDirectory bool      `json:"isDirectory"`
	IsFile      bool      `json:"isFile"`
	IsSymlink   bool      `json:"isSymlink"`
	Size        int64     `json:"size"`
	Mode        uint32    `json:"mode"`
	UID         uint32    `json:"uid"`
	GID         uint32    `json:"gid"`
	AccessTime  time.Time `json:"accessTime"`
	ModTime     time.Time `json:"modifyTime"`
}

// DirectoryListing is one level of a remote directory.
type DirectoryListing struct {
	Path    string     `json:"path"`
	Entries []FileInfo `json:"entries"`
	Count   int        `json:"count"`
}

// TransferResult aggregates the outcome of a recursive transfer.
// Success is false as soon as any single entry failed; failures never
// abort sibling transfers.
type TransferResult struct {
	Success     bool              `json:"success"`
	Transferred []string          `json:"transferred"`
	Failed      []string          `json:"failed"`
	Errors      map[string]string `json:"errors"`
}

// NewTransferResult returns an empty, successful result.
func NewTransferResult() *TransferResult {
	return &TransferResult{
		Success: true,
		Errors:  map[string]string{},
	}
}

// RecordTransferred appends a successfully transferred path.
func (r *TransferResult) RecordTransferred(path string) {
	r.Transferred = append(r.Transferred, path)
}

// RecordFailure records a failed path and flips the aggregate flag.
func (r *TransferResult) RecordFailure(path string, err error) {
	r.Success = false
	r.Failed = append(r.Failed, path)
	r.Errors[path] = err.Error()
}

// Merge folds a child result into the parent.
func (r *TransferResult) Merge(child *TransferResult) {
	if child == nil {
		return
	}
	r.Transferred = append(r.Transferred, child.Transferred...)
	r.Failed = append(r.Failed, child.Failed...)
	for path, msg := range child.Errors {
		r.Errors[path] = msg
	}
	if !child.Success {
		r.Success = false
	}
}

// IntPtr and StrPtr are small helpers for the nullable result fields.
func IntPtr(v int) *int       { return &v }
func StrPtr(v string) *string { return &v }

// FormatUptime renders a duration the way session listings display it.
func FormatUptime(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	s := d - m*time.Minute
	return fmt.Sprintf("%dh%dm%ds", h, m, int(s.Seconds()))
}
