package cmd

import (
	"github.com/spf13/cobra"
)

var writeConfig bool

func init() {
	configCmd.Flags().BoolVar(&writeConfig, "write", false, "also write the effective config back to the file")
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Prints the effective config",
	Long:  `Prints the effective config as TOML: defaults overlaid with the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := cfg.Encode()
		if err != nil {
			return err
		}
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return err
		}
		if writeConfig {
			return cfg.SaveTo(path)
		}
		return nil
	},
}
