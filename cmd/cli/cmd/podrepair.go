package cmd

import (
	"github.com/spf13/cobra"
)

var podRepairCmd = &cobra.Command{
	Use:   "pod-repair",
	Short: "Trigger a pod repair pass",
	Long: `Trigger one pod health pass over every workspace with pool
credentials.

Each workspace gets exactly one outcome: a repair workflow, a staklink
reconnect, a steady-state validation, or a labeled skip. Workspaces
past their repair attempt budget or with a repair still in flight are
skipped.`,
	Run: func(cmd *cobra.Command, args []string) {
		client, ok := clientFromConfig(cmd)
		if !ok {
			return
		}

		resp, err := client.TriggerPodRepair()
		if err != nil {
			cmd.Printf("Trigger failed: %v\n", err)
			return
		}

		if resp.Message != "" {
			cmd.Println(resp.Message)
			return
		}

		cmd.Printf("Pod repair pass complete\n")
		cmd.Printf("  Workspaces processed: %d\n", resp.WorkspacesProcessed)
		cmd.Printf("  Pools healthy:        %d\n", resp.WorkspacesWithRunningPods)
		cmd.Printf("  Repairs triggered:    %d\n", resp.RepairsTriggered)
		cmd.Printf("  Validations:          %d\n", resp.ValidationsTriggered)
		cmd.Printf("  Staklink restarts:    %d\n", resp.StaklinkRestarts)
		cmd.Printf("  Skipped:              %d attempts, %d in flight, %d no candidate\n",
			resp.Skipped.MaxAttemptsReached, resp.Skipped.WorkflowInProgress, resp.Skipped.NoFailedProcesses)
		printErrors(cmd, resp.ErrorCount, resp.Errors)
	},
}

func init() {
	rootCmd.AddCommand(podRepairCmd)
}
