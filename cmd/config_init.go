package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	configInitPath  string
	configInitForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file populated with the defaults",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !configInitForce {
			if _, err := os.Stat(configInitPath); err == nil {
				return eris.Errorf("%s already exists (use --force to overwrite)", configInitPath)
			}
		}

		// cfg holds the effective defaults at this point: PersistentPreRunE
		// ran config.Load before us.
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		if err := os.WriteFile(configInitPath, out, 0o644); err != nil {
			return eris.Wrap(err, "write config file")
		}

		zap.L().Info("config written", zap.String("path", configInitPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "config.yaml", "where to write the config file")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
