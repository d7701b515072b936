package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/remotekit/remotekit/pkg/command"
)

var (
	execSudo         bool
	execSudoPassword string
	execInput        string
	execEncoding     string
	execTimeout      int
)

var execCmd = &cobra.Command{
	Use:   "exec [command...]",
	Short: "Execute a command on the remote host",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		defer reg.Shutdown()

		ctx := context.Background()
		id, err := reg.CreateOrReuse(ctx, credsFromFlags())
		if err != nil {
			return err
		}
		s, err := reg.Get(id)
		if err != nil {
			return err
		}

		engine := command.NewEngine()
		remote := strings.Join(args, " ")
		opts := command.Options{
			Timeout:  commandTimeout(),
			Encoding: execEncoding,
		}
		if execTimeout > 0 {
			opts.Timeout = time.Duration(execTimeout) * time.Second
		}

		switch {
		case execSudo:
			res, err := engine.ExecuteSudo(ctx, s, remote, execSudoPassword, opts)
			if err != nil {
				return err
			}
			return printResult(res.Stdout, res.Stderr, res.ExitCode)
		case execInput != "":
			res, err := engine.ExecuteWithInput(ctx, s, remote, execInput, opts)
			if err != nil {
				return err
			}
			return printResult(res.Stdout, res.Stderr, res.ExitCode)
		default:
			res, err := engine.Execute(ctx, s, remote, opts)
			if err != nil {
				return err
			}
			return printResult(res.Stdout, res.Stderr, res.ExitCode)
		}
	},
}

func printResult(stdout, stderr string, exitCode *int) error {
	if stdout != "" {
		fmt.Println(stdout)
	}
	if stderr != "" {
		fmt.Fprintln(os.Stderr, stderr)
	}
	if exitCode != nil && *exitCode != 0 {
		return fmt.Errorf("command exited with code %d", *exitCode)
	}
	return nil
}

func init() {
	execCmd.Flags().BoolVar(&execSudo, "sudo", false, "run the command with privilege escalation")
	execCmd.Flags().StringVar(&execSudoPassword, "sudo-password", "", "password for the sudo prompt")
	execCmd.Flags().StringVar(&execInput, "input", "", "text to write to the command's stdin")
	execCmd.Flags().StringVar(&execEncoding, "encoding", "", "output character encoding (IANA name)")
	execCmd.Flags().IntVar(&execTimeout, "timeout", 0, "command timeout in seconds")
	rootCmd.AddCommand(execCmd)
}
