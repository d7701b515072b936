// Package tools adapts the core engines to a named-operation calling
// convention: typed argument structs in, structured JSON payloads out.
// Response framing beyond that belongs to the hosting protocol layer.
package tools

// ConnectArgs establishes or reuses a session.
type ConnectArgs struct {
	Host           string `json:"host"`
	Port           int    `json:"port,omitempty"`
	Username       string `json:"username"`
	Password       string `json:"password,omitempty"`
	PrivateKeyPath string `json:"privateKeyPath,omitempty"`
	PrivateKey     string `json:"privateKey,omitempty"`
	Passphrase     string `json:"passphrase,omitempty"`
}

// DisconnectArgs closes a session.
type DisconnectArgs struct {
	SessionID string `json:"sessionId"`
}

// ExecArgs runs a single command.
type ExecArgs struct {
	SessionID string `json:"sessionId"`
	Command   string `json:"command"`
	TimeoutMS int    `json:"timeoutMs,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
}

// ExecSudoArgs runs a privilege-escalated command.
type ExecSudoArgs struct {
	SessionID    string `json:"sessionId"`
	Command      string `json:"command"`
	SudoPassword string `json:"sudoPassword,omitempty"`
	TimeoutMS    int    `json:"timeoutMs,omitempty"`
	Encoding     string `json:"encoding,omitempty"`
}

// ExecSequenceArgs runs commands strictly in order.
type ExecSequenceArgs struct {
	SessionID   string   `json:"sessionId"`
	Commands    []string `json:"commands"`
	StopOnError bool     `json:"stopOnError,omitempty"`
	TimeoutMS   int      `json:"timeoutMs,omitempty"`
	Encoding    string   `json:"encoding,omitempty"`
}

// ExecWithInputArgs runs a command with stdin supplied up front.
type ExecWithInputArgs struct {
	SessionID string `json:"sessionId"`
	Command   string `json:"command"`
	Input     string `json:"input"`
	TimeoutMS int    `json:"timeoutMs,omitempty"`
	Encoding  string `json:"encoding,omitempty"`
}

// PathArgs covers single-path operations (stat, exists, list, read,
// unlink, rmdir).
type PathArgs struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
}

// MkdirArgs creates a directory.
type MkdirArgs struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
	Mode      uint32 `json:"mode,omitempty"`
}

// RemoveArgs deletes a path.
type RemoveArgs struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
}

// RenameArgs moves a path.
type RenameArgs struct {
	SessionID string `json:"sessionId"`
	OldPath   string `json:"oldPath"`
	NewPath   string `json:"newPath"`
}

// WriteFileArgs writes text content to a remote file.
type WriteFileArgs struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
	Encoding  string `json:"encoding,omitempty"`
	Mode      uint32 `json:"mode,omitempty"`
}

// ReadFileArgs reads a remote file as text.
type ReadFileArgs struct {
	SessionID string `json:"sessionId"`
	Path      string `json:"path"`
	Encoding  string `json:"encoding,omitempty"`
}

// TransferArgs covers single-file upload and download.
type TransferArgs struct {
	SessionID  string `json:"sessionId"`
	LocalPath  string `json:"localPath"`
	RemotePath string `json:"remotePath"`
	Overwrite  bool   `json:"overwrite,omitempty"`
}

// DirTransferArgs covers recursive directory upload and download.
type DirTransferArgs struct {
	SessionID  string `json:"sessionId"`
	LocalPath  string `json:"localPath"`
	RemotePath string `json:"remotePath"`
}
