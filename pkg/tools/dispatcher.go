package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/remotekit/remotekit/pkg/command"
	"github.com/remotekit/remotekit/pkg/fileops"
	"github.com/remotekit/remotekit/pkg/registry"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

// Dispatcher routes named operations to the core engines and wraps
// every outcome in a uniform success/error payload.
type Dispatcher struct {
	reg   *registry.Registry
	cmds  *command.Engine
	files *fileops.Engine
}

func NewDispatcher(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{
		reg:   reg,
		cmds:  command.NewEngine(),
		files: fileops.NewEngine(),
	}
}

// Payload is the serialized result of one operation.
type Payload struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type handler func(ctx context.Context, raw json.RawMessage) (interface{}, error)

// Dispatch invokes the named operation with raw JSON arguments.
func (d *Dispatcher) Dispatch(
	ctx context.Context,
	name string,
	raw json.RawMessage,
) ([]byte, error) {
	h, ok := d.handlers()[name]
	if !ok {
		return nil, fmt.Errorf("unknown operation: %s", name)
	}

	data, err := h(ctx, raw)
	payload := Payload{Success: err == nil, Data: data}
	if err != nil {
		payload.Error = err.Error()
	}
	return json.Marshal(payload)
}

// Operations returns the names Dispatch accepts.
func (d *Dispatcher) Operations() []string {
	names := make([]string, 0)
	for name := range d.handlers() {
		names = append(names, name)
	}
	return names
}

func (d *Dispatcher) handlers() map[string]handler {
	return map[string]handler{
		"ssh_connect":            d.connect,
		"ssh_disconnect":         d.disconnect,
		"ssh_list_sessions":      d.listSessions,
		"ssh_exec":               d.exec,
		"ssh_exec_sudo":          d.execSudo,
		"ssh_exec_sequence":      d.execSequence,
		"ssh_exec_with_input":    d.execWithInput,
		"ssh_stat":               d.stat,
		"ssh_exists":             d.exists,
		"ssh_list_directory":     d.listDirectory,
		"ssh_mkdir":              d.mkdir,
		"ssh_unlink":             d.unlink,
		"ssh_rmdir":              d.rmdir,
		"ssh_remove":             d.remove,
		"ssh_rename":             d.rename,
		"ssh_read_file":          d.readFile,
		"ssh_write_file":         d.writeFile,
		"ssh_upload_file":        d.uploadFile,
		"ssh_download_file":      d.downloadFile,
		"ssh_upload_directory":   d.uploadDirectory,
		"ssh_download_directory": d.downloadDirectory,
	}
}

func decode[T any](raw json.RawMessage) (T, error) {
	var args T
	if err := json.Unmarshal(raw, &args); err != nil {
		return args, fmt.Errorf("invalid arguments: %w", err)
	}
	return args, nil
}

func timeoutOf(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

func (d *Dispatcher) connect(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[ConnectArgs](raw)
	if err != nil {
		return nil, err
	}
	creds := &sshutils.Credentials{
		Host:           args.Host,
		Port:           args.Port,
		User:           args.Username,
		Password:       args.Password,
		PrivateKeyPath: args.PrivateKeyPath,
		PrivateKey:     []byte(args.PrivateKey),
		Passphrase:     args.Passphrase,
	}
	id, err := d.reg.CreateOrReuse(ctx, creds)
	if err != nil {
		return nil, err
	}
	return map[string]string{"sessionId": id}, nil
}

func (d *Dispatcher) disconnect(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[DisconnectArgs](raw)
	if err != nil {
		return nil, err
	}
	if err := d.reg.Close(args.SessionID); err != nil {
		return nil, err
	}
	return map[string]string{"sessionId": args.SessionID}, nil
}

func (d *Dispatcher) listSessions(_ context.Context, _ json.RawMessage) (interface{}, error) {
	return d.reg.List(), nil
}

func (d *Dispatcher) exec(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[ExecArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.cmds.Execute(ctx, s, args.Command, command.Options{
		Timeout:  timeoutOf(args.TimeoutMS),
		Encoding: args.Encoding,
	})
}

func (d *Dispatcher) execSudo(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[ExecSudoArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.cmds.ExecuteSudo(ctx, s, args.Command, args.SudoPassword, command.Options{
		Timeout:  timeoutOf(args.TimeoutMS),
		Encoding: args.Encoding,
	})
}

func (d *Dispatcher) execSequence(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[ExecSequenceArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.cmds.ExecuteSequence(ctx, s, args.Commands, command.SequenceOptions{
		Options: command.Options{
			Timeout:  timeoutOf(args.TimeoutMS),
			Encoding: args.Encoding,
		},
		StopOnError: args.StopOnError,
	})
}

func (d *Dispatcher) execWithInput(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[ExecWithInputArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.cmds.ExecuteWithInput(ctx, s, args.Command, args.Input, command.Options{
		Timeout:  timeoutOf(args.TimeoutMS),
		Encoding: args.Encoding,
	})
}

func (d *Dispatcher) stat(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[PathArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.files.Stat(s, args.Path)
}

func (d *Dispatcher) exists(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[PathArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"exists": d.files.Exists(s, args.Path)}, nil
}

func (d *Dispatcher) listDirectory(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[PathArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.files.ListDirectory(s, args.Path)
}

func (d *Dispatcher) mkdir(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[MkdirArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	err = d.files.Mkdir(s, args.Path, fileops.MkdirOptions{
		Recursive: args.Recursive,
		Mode:      os.FileMode(args.Mode),
	})
	if err != nil {
		return nil, err
	}
	return map[string]string{"path": args.Path}, nil
}

func (d *Dispatcher) unlink(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[PathArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	if err := d.files.Unlink(s, args.Path); err != nil {
		return nil, err
	}
	return map[string]string{"path": args.Path}, nil
}

func (d *Dispatcher) rmdir(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[PathArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	if err := d.files.Rmdir(s, args.Path); err != nil {
		return nil, err
	}
	return map[string]string{"path": args.Path}, nil
}

func (d *Dispatcher) remove(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[RemoveArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	if err := d.files.Remove(s, args.Path, args.Recursive); err != nil {
		return nil, err
	}
	return map[string]string{"path": args.Path}, nil
}

func (d *Dispatcher) rename(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[RenameArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	if err := d.files.Rename(s, args.OldPath, args.NewPath); err != nil {
		return nil, err
	}
	return map[string]string{"oldPath": args.OldPath, "newPath": args.NewPath}, nil
}

func (d *Dispatcher) readFile(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[ReadFileArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	content, err := d.files.ReadFile(s, args.Path)
	if err != nil {
		return nil, err
	}
	text, err := command.DecodeBytes(args.Encoding, content)
	if err != nil {
		return nil, err
	}
	return map[string]string{"path": args.Path, "content": text}, nil
}

func (d *Dispatcher) writeFile(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[WriteFileArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	content, err := command.EncodeString(args.Encoding, args.Content)
	if err != nil {
		return nil, err
	}
	if err := d.files.WriteFile(s, args.Path, content, os.FileMode(args.Mode)); err != nil {
		return nil, err
	}
	return map[string]string{"path": args.Path}, nil
}

func (d *Dispatcher) uploadFile(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[TransferArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	opts := fileops.TransferOptions{Overwrite: args.Overwrite}
	if err := d.files.UploadFile(s, args.LocalPath, args.RemotePath, opts); err != nil {
		return nil, err
	}
	return map[string]string{"localPath": args.LocalPath, "remotePath": args.RemotePath}, nil
}

func (d *Dispatcher) downloadFile(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[TransferArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	opts := fileops.TransferOptions{Overwrite: args.Overwrite}
	if err := d.files.DownloadFile(s, args.RemotePath, args.LocalPath, opts); err != nil {
		return nil, err
	}
	return map[string]string{"remotePath": args.RemotePath, "localPath": args.LocalPath}, nil
}

func (d *Dispatcher) uploadDirectory(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[DirTransferArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.files.UploadDirectory(s, args.LocalPath, args.RemotePath)
}

func (d *Dispatcher) downloadDirectory(_ context.Context, raw json.RawMessage) (interface{}, error) {
	args, err := decode[DirTransferArgs](raw)
	if err != nil {
		return nil, err
	}
	s, err := d.reg.Get(args.SessionID)
	if err != nil {
		return nil, err
	}
	return d.files.DownloadDirectory(s, args.RemotePath, args.LocalPath)
}
