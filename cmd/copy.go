package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/remotekit/remotekit/pkg/fileops"
	"github.com/remotekit/remotekit/pkg/models"
)

var (
	copyOverwrite bool
	copyRecursive bool
)

var putCmd = &cobra.Command{
	Use:   "put <local> <remote>",
	Short: "Upload a file or directory to the remote host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		defer reg.Shutdown()

		id, err := reg.CreateOrReuse(context.Background(), credsFromFlags())
		if err != nil {
			return err
		}
		s, err := reg.Get(id)
		if err != nil {
			return err
		}

		engine := fileops.NewEngine()
		if copyRecursive {
			result, err := engine.UploadDirectory(s, args[0], args[1])
			if err != nil {
				return err
			}
			return printTransferResult(result)
		}
		return engine.UploadFile(s, args[0], args[1], fileops.TransferOptions{
			Overwrite: copyOverwrite,
		})
	},
}

var getCmd = &cobra.Command{
	Use:   "get <remote> <local>",
	Short: "Download a file or directory from the remote host",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := newRegistry()
		defer reg.Shutdown()

		id, err := reg.CreateOrReuse(context.Background(), credsFromFlags())
		if err != nil {
			return err
		}
		s, err := reg.Get(id)
		if err != nil {
			return err
		}

		engine := fileops.NewEngine()
		if copyRecursive {
			result, err := engine.DownloadDirectory(s, args[0], args[1])
			if err != nil {
				return err
			}
			return printTransferResult(result)
		}
		return engine.DownloadFile(s, args[0], args[1], fileops.TransferOptions{
			Overwrite: copyOverwrite,
		})
	},
}

func printTransferResult(result *models.TransferResult) error {
	fmt.Printf("Transferred %d entries\n", len(result.Transferred))
	if result.Success {
		return nil
	}
	for _, failed := range result.Failed {
		fmt.Printf("FAILED %s: %s\n", failed, result.Errors[failed])
	}
	return fmt.Errorf("%d entries failed to transfer", len(result.Failed))
}

func init() {
	for _, c := range []*cobra.Command{putCmd, getCmd} {
		c.Flags().BoolVar(&copyOverwrite, "overwrite", false, "overwrite an existing destination")
		c.Flags().BoolVarP(&copyRecursive, "recursive", "r", false, "transfer a directory tree")
	}
	rootCmd.AddCommand(putCmd)
	rootCmd.AddCommand(getCmd)
}
