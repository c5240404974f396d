package commands

import (
	"fmt"
	"os"

	"github.com/devkit-go/devkit/internal/cli/output"
	"github.com/devkit-go/devkit/internal/cli/session"
	"github.com/devkit-go/devkit/pkg/apiclient"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Display the status of the connected devkit daemon.

This command checks the daemon health endpoints and displays liveness,
readiness, and driver/binding/handle counts.

Examples:
  # Check status of connected daemon
  devkitd status

  # Output as JSON
  devkitd status -o json`,
	RunE: runStatus,
}

// daemonStatus represents the daemon status for display.
type daemonStatus struct {
	Server   string `json:"server" yaml:"server"`
	Status   string `json:"status" yaml:"status"`
	Healthy  bool   `json:"healthy" yaml:"healthy"`
	Ready    bool   `json:"ready" yaml:"ready"`
	Drivers  int    `json:"drivers" yaml:"drivers"`
	Bindings int    `json:"bindings" yaml:"bindings"`
	Handles  int    `json:"handles" yaml:"handles"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return err
	}
	sess, err := store.Load()
	if err != nil {
		return err
	}

	client := apiclient.New(sess.ServerURL)

	status := daemonStatus{
		Server: sess.ServerURL,
		Status: "unreachable",
	}

	if health, err := client.GetHealth(); err != nil {
		status.Error = err.Error()
	} else {
		status.Status = health.Status
		status.Healthy = health.Status == "healthy"
	}

	if ready, err := client.GetReadiness(); err == nil {
		status.Ready = ready.Status == "healthy"
		status.Drivers = intField(ready.Data, "drivers")
		status.Bindings = intField(ready.Data, "bindings")
		status.Handles = intField(ready.Data, "handles")
	}

	format, err := getOutputFormat()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, status)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, status)
	default:
		printStatusTable(status)
	}

	return nil
}

func printStatusTable(status daemonStatus) {
	pairs := [][2]string{
		{"Server", status.Server},
		{"Status", status.Status},
	}
	if status.Ready {
		pairs = append(pairs,
			[2]string{"Drivers", fmt.Sprintf("%d", status.Drivers)},
			[2]string{"Bindings", fmt.Sprintf("%d", status.Bindings)},
			[2]string{"Handles", fmt.Sprintf("%d", status.Handles)},
		)
	}
	if status.Error != "" {
		pairs = append(pairs, [2]string{"Error", status.Error})
	}

	fmt.Println()
	_ = output.SimpleTable(os.Stdout, pairs)
	fmt.Println()
}

// intField reads an integer from a decoded JSON map. JSON numbers decode
// as float64.
func intField(data map[string]any, key string) int {
	if v, ok := data[key].(float64); ok {
		return int(v)
	}
	return 0
}
