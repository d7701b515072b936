package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/remotekit/remotekit/pkg/fileops"
)

var lsCmd = &cobra.Command{
	Use:   "ls <remote-path>",
	Short: "List a remote directory",
	Args:  cobra.ExactArgs(1),
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

		listing, err := fileops.NewEngine().ListDirectory(s, args[0])
		if err != nil {
			return err
		}

		table := tablewriter.NewWriter(os.Stdout)
		table.SetHeader([]string{"Type", "Name", "Size", "Mode", "Modified"})
		for _, entry := range listing.Entries {
			entryType := "file"
			switch {
			case entry.IsDirectory:
				entryType = "dir"
			case entry.IsSymlink:
				entryType = "link"
			}
			table.Append([]string{
				entryType,
				entry.Name,
				fmt.Sprintf("%d", entry.Size),
				fmt.Sprintf("%04o", entry.Mode),
				entry.ModTime.Format("2006-01-02 15:04"),
			})
		}
		table.Render()
		fmt.Printf("%d entries\n", listing.Count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
