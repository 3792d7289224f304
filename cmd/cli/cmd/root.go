package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "workctl",
	Short: "Workctl is a command line tool for operating the workplane schedulers",
	Long: `workctl is the command-line interface for the WorkPlane orchestration engine.

WorkPlane runs two periodic schedulers over every workspace:

  - Task Coordinator: halts stale tasks, dispatches the highest
    priority ready task, and promotes one pending recommendation
  - Pod Repair: checks pod pool health and triggers repair,
    reconnect, or validation workflows

In production both are triggered by an external cron scheduler. workctl
fires the same endpoints by hand, which is useful for incident response
and local testing. Triggers are idempotent: running one twice in a row
does no extra work.

Common workflows:

  Trigger a coordinator pass:
    workctl coordinate

  Trigger a pod repair pass:
    workctl pod-repair

Configuration:
  Set the API endpoint and credentials via environment variables or a config file:
    WORKPLANE_API_URL        API endpoint (default: http://localhost:6171)
    WORKPLANE_CRON_SECRET    Shared secret for the cron endpoints`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".workctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".workctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "WORKPLANE_VARNAME"
	viper.SetEnvPrefix("WORKPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.workctl.yaml)")

	rootCmd.PersistentFlags().String("api-url", "http://localhost:6171", "WorkPlane Controller URL")
	viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.PersistentFlags().StringP("cron-secret", "s", "", "Shared secret for the cron endpoints")
	viper.BindPFlag("cron_secret", rootCmd.PersistentFlags().Lookup("cron-secret"))
}
