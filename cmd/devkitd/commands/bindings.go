package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/devkit-go/devkit/internal/cli/output"
	"github.com/devkit-go/devkit/pkg/apiclient"
	"github.com/spf13/cobra"
)

var bindTargetMajor uint32

var bindingsCmd = &cobra.Command{
	Use:   "bindings",
	Short: "Manage device node bindings",
}

var bindingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List device node bindings",
	RunE:  runBindingsList,
}

var bindingsCreateCmd = &cobra.Command{
	Use:   "create <kind> <major> <minor>",
	Short: "Bind a device node to a driver major",
	Long: `Bind a device node to a driver major number.

The node's own major is used as the target unless --target-major is given.
The target major does not have to be registered yet; opens on the node
fail until a driver claims it.

Examples:
  # Bind character node 10:3 to the driver on major 10
  devkitd bindings create c 10 3

  # Bind block node 1:0 to the driver on major 42
  devkitd bindings create b 1 0 --target-major 42`,
	Args: cobra.ExactArgs(3),
	RunE: runBindingsCreate,
}

var bindingsDeleteCmd = &cobra.Command{
	Use:   "delete <kind> <major> <minor>",
	Short: "Remove a device node binding",
	Args:  cobra.ExactArgs(3),
	RunE:  runBindingsDelete,
}

func init() {
	bindingsCreateCmd.Flags().Uint32Var(&bindTargetMajor, "target-major", 0, "Driver major to bind to (default: the node's major)")

	bindingsCmd.AddCommand(bindingsListCmd)
	bindingsCmd.AddCommand(bindingsCreateCmd)
	bindingsCmd.AddCommand(bindingsDeleteCmd)
}

func runBindingsList(cmd *cobra.Command, args []string) error {
	client, _, err := apiClientFromSession()
	if err != nil {
		return err
	}

	bindings, err := client.ListBindings()
	if err != nil {
		return err
	}

	format, err := getOutputFormat()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, bindings)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, bindings)
	default:
		table := output.NewTableData("Node", "Target", "Driver", "Bound")
		for _, b := range bindings {
			driver := b.Driver
			if driver == "" {
				driver = "-"
			}
			table.AddRow(
				b.Node,
				strconv.FormatUint(uint64(b.Target), 10),
				driver,
				output.FormatAge(b.BoundAt),
			)
		}
		return output.PrintTable(os.Stdout, table)
	}
}

// parseNodeArgs parses the <kind> <major> <minor> positional arguments.
func parseNodeArgs(args []string) (kind string, major, minor uint32, err error) {
	kind = args[0]
	if kind != "c" && kind != "b" {
		return "", 0, 0, fmt.Errorf("invalid node kind %q (valid: c, b)", kind)
	}

	maj, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid major number %q", args[1])
	}
	min, err := strconv.ParseUint(args[2], 10, 32)
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid minor number %q", args[2])
	}

	return kind, uint32(maj), uint32(min), nil
}

func runBindingsCreate(cmd *cobra.Command, args []string) error {
	kind, major, minor, err := parseNodeArgs(args)
	if err != nil {
		return err
	}

	client, _, err := apiClientFromSession()
	if err != nil {
		return err
	}

	req := apiclient.CreateBindingRequest{Kind: kind, Major: major, Minor: minor}
	if cmd.Flags().Changed("target-major") {
		req.TargetMajor = &bindTargetMajor
	}

	binding, err := client.CreateBinding(req)
	if err != nil {
		return err
	}

	fmt.Printf("Bound %s to major %d\n", binding.Node, binding.Target)
	return nil
}

func runBindingsDelete(cmd *cobra.Command, args []string) error {
	kind, major, minor, err := parseNodeArgs(args)
	if err != nil {
		return err
	}

	client, _, err := apiClientFromSession()
	if err != nil {
		return err
	}

	if err := client.DeleteBinding(kind, major, minor); err != nil {
		return err
	}

	fmt.Printf("Unbound %s %d:%d\n", kind, major, minor)
	return nil
}
