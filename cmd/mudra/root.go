package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/config"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	rootCmd := &cobra.Command{
		Use:           "mudra",
		Short:         "Sign language concept recognition daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(&configFlag))
	rootCmd.AddCommand(newRegistryCommand(&configFlag))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}

// defaultConfigPath is where `config init` writes and where commands
// look when --config is not given.
func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, ".mudra", "config.toml"), nil
}

// loadConfig resolves the effective configuration: an explicit
// --config path must exist, the default path is used when present,
// and built-in defaults cover everything else.
func loadConfig(configFlag string) (config.Config, error) {
	if configFlag != "" {
		return config.Load(configFlag)
	}

	path, err := defaultConfigPath()
	if err != nil {
		return config.Config{}, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return config.Default(), nil
		}
		return config.Config{}, fmt.Errorf("check config path: %w", err)
	}
	return config.Load(path)
}
