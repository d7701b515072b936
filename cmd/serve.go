package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/sshutils"
	"github.com/remotekit/remotekit/pkg/tools"
)

// request is one line of input on stdin.
type request struct {
	Op   string          `json:"op"`
	Args json.RawMessage `json:"args"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve operations as newline-delimited JSON over stdio",
	Long: `Reads {"op": "...", "args": {...}} requests from stdin, one per line,
and writes one JSON payload per request to stdout. Sessions persist
across requests until closed or reclaimed as idle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		l := logger.Get()
		reg := newRegistry()
		defer reg.Shutdown()

		interval := sshutils.ReclaimInterval
		if viper.IsSet("ssh.reclaim_interval") {
			interval = viper.GetDuration("ssh.reclaim_interval")
		}
		reg.StartReclaimer(interval)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			l.Info("Shutting down on signal")
			cancel()
		}()

		dispatcher := tools.NewDispatcher(reg)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		out := bufio.NewWriter(os.Stdout)
		defer out.Flush()

		for scanner.Scan() {
			select {
			case <-ctx.Done():
				return nil
			default:
			}

			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var req request
			if err := json.Unmarshal(line, &req); err != nil {
				writeLine(out, errorPayload(fmt.Errorf("invalid request: %w", err)))
				continue
			}

			payload, err := dispatcher.Dispatch(ctx, req.Op, req.Args)
			if err != nil {
				writeLine(out, errorPayload(err))
				continue
			}
			writeLine(out, payload)
		}
		return scanner.Err()
	},
}

func errorPayload(err error) []byte {
	payload, _ := json.Marshal(tools.Payload{Success: false, Error: err.Error()})
	return payload
}

func writeLine(out *bufio.Writer, payload []byte) {
	_, _ = out.Write(payload)
	_ = out.WriteByte('\n')
	_ = out.Flush()
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
