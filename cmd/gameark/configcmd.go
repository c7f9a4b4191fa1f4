package main

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/gameark/config"
)

func newConfigCmd(load loadConfigFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return config.Dump(cmd.OutOrStdout(), cfg)
		},
	}
}
