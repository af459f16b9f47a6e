package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/nikolayk812/cartsession/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) configCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the cartctl config file",
		// the file may not exist or validate yet
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	configCmd.AddCommand(a.configInitCmd())

	return configCmd
}

func (a *app) configInitCmd() *cobra.Command {
	var (
		force   bool
		baseURL string
		backend string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				if _, err := os.Stat(a.configPath); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", a.configPath)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("os.Stat: %w", err)
				}
			}

			cfg := config.DefaultConfig()
			if baseURL != "" {
				cfg.Remote.BaseURL = baseURL
			}
			if backend != "" {
				cfg.Cache.Backend = backend
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			if err := cfg.Save(a.configPath); err != nil {
				return fmt.Errorf("cfg.Save: %w", err)
			}

			fmt.Fprintf(a.out, "Wrote %s\n", a.configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "storefront backend URL")
	cmd.Flags().StringVar(&backend, "cache", "", "cache backend: none, postgres, redis")

	return cmd
}
