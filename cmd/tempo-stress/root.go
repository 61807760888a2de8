package main

import (
	"fmt"

	"github.com/plus3/tempo/config"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "tempo-stress",
		Short: "Stress test the coroutine and state machine systems",
		Long: `tempo-stress spawns agents driven by state machines, emitters running
holder tasks and short-lived sparks whose coroutines remove themselves,
then ticks the world and reports how long each tick took.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")

	load := func() (config.Config, error) {
		return config.Load(configPath)
	}
	root.AddCommand(newRunCommand(load))
	root.AddCommand(newConfigCommand(load))
	return root
}

func newConfigCommand(load func() (config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			data, err := cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}
