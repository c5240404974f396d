package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/devkit-go/devkit/internal/cli/output"
	"github.com/spf13/cobra"
)

var driversCmd = &cobra.Command{
	Use:   "drivers",
	Short: "Manage registered drivers",
}

var driversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered drivers",
	Long: `List the drivers registered on the connected daemon, ordered by
major number.

Examples:
  devkitd drivers list
  devkitd drivers list -o json`,
	RunE: runDriversList,
}

var driversGetCmd = &cobra.Command{
	Use:   "get <major>",
	Short: "Show a driver by major number",
	Args:  cobra.ExactArgs(1),
	RunE:  runDriversGet,
}

func init() {
	driversCmd.AddCommand(driversListCmd)
	driversCmd.AddCommand(driversGetCmd)
}

func runDriversList(cmd *cobra.Command, args []string) error {
	client, _, err := apiClientFromSession()
	if err != nil {
		return err
	}

	drivers, err := client.ListDrivers()
	if err != nil {
		return err
	}

	format, err := getOutputFormat()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, drivers)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, drivers)
	default:
		table := output.NewTableData("Major", "Name", "Handles", "Commands", "Registered")
		for _, d := range drivers {
			table.AddRow(
				strconv.FormatUint(uint64(d.Major), 10),
				d.Name,
				strconv.FormatInt(d.OpenHandles, 10),
				strconv.Itoa(len(d.Commands)),
				output.FormatAge(d.RegisteredAt),
			)
		}
		return output.PrintTable(os.Stdout, table)
	}
}

func runDriversGet(cmd *cobra.Command, args []string) error {
	major, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return fmt.Errorf("invalid major number %q", args[0])
	}

	client, _, err := apiClientFromSession()
	if err != nil {
		return err
	}

	driver, err := client.GetDriver(uint32(major))
	if err != nil {
		return err
	}

	format, err := getOutputFormat()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, driver)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, driver)
	default:
		pairs := [][2]string{
			{"Major", strconv.FormatUint(uint64(driver.Major), 10)},
			{"Name", driver.Name},
			{"Open handles", strconv.FormatInt(driver.OpenHandles, 10)},
			{"Registered", driver.RegisteredAt.Local().Format(output.LocalTimeFormat)},
		}
		if len(driver.Commands) > 0 {
			pairs = append(pairs, [2]string{"Commands", strings.Join(driver.Commands, ", ")})
		}
		return output.SimpleTable(os.Stdout, pairs)
	}
}
