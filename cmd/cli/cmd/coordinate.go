package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"workplane/pkg/api"
)

var coordinateCmd = &cobra.Command{
	Use:   "coordinate",
	Short: "Trigger a task coordinator pass",
	Long: `Trigger one full task coordinator pass over every workspace.

The pass halts stale tasks, dispatches the highest priority ready task
per workspace, and promotes at most one pending recommendation. The
trigger is idempotent, so it is safe to run while a cron schedule is
also active.`,
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := clientFromConfig(cmd)
		if !ok {
			return
		}

		resp, err := client.TriggerTaskCoordinator()
		if err != nil {
			cmd.Printf("Trigger failed: %v\n", err)
			return
		}

		if resp.Message != "" {
			cmd.Println(resp.Message)
			return
		}

		cmd.Printf("Coordinator pass complete\n")
		cmd.Printf("  Workspaces processed: %d\n", resp.WorkspacesProcessed)
		cmd.Printf("  Tasks halted:         %d\n", resp.TasksHalted)
		cmd.Printf("  Tasks dispatched:     %d\n", resp.TasksDispatched)
		cmd.Printf("  Tasks created:        %d\n", resp.TasksCreated)
		printErrors(cmd, resp.ErrorCount, resp.Errors)
	},
}

func clientFromConfig(cmd *cobra.Command) (*CronClient, bool) {
	url := viper.GetString("api_url")
	secret := viper.GetString("cron_secret")

	if secret == "" {
		cmd.Println("Cron secret not found. Please set it using the --cron-secret flag or the WORKPLANE_CRON_SECRET environment variable")
		return nil, false
	}

	return NewCronClient(url, secret), true
}

func printErrors(cmd *cobra.Command, count int, errs []api.WorkspaceError) {
	if count == 0 {
		return
	}
	cmd.Printf("  Errors:               %d\n", count)
	for _, e := range errs {
		cmd.Printf("    %s: %s\n", e.WorkspaceID, e.Error)
	}
}

func init() {
	rootCmd.AddCommand(coordinateCmd)
}
