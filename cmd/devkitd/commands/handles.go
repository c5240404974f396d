package commands

import (
	"os"

	"github.com/devkit-go/devkit/internal/cli/output"
	"github.com/spf13/cobra"
)

var handlesCmd = &cobra.Command{
	Use:   "handles",
	Short: "List open device handles",
	Long: `List the handles currently open on the connected daemon, ordered by
open time.

Examples:
  devkitd handles
  devkitd handles -o json`,
	RunE: runHandles,
}

func runHandles(cmd *cobra.Command, args []string) error {
	client, _, err := apiClientFromSession()
	if err != nil {
		return err
	}

	handles, err := client.ListHandles()
	if err != nil {
		return err
	}

	format, err := getOutputFormat()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, handles)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, handles)
	default:
		table := output.NewTableData("ID", "Node", "Driver", "Age")
		for _, h := range handles {
			table.AddRow(h.ID, h.Node, h.Driver, output.FormatAge(h.OpenedAt))
		}
		return output.PrintTable(os.Stdout, table)
	}
}
