package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altafino/folder-import/internal/config"
	"github.com/altafino/folder-import/internal/types"
	"github.com/altafino/folder-import/internal/validation"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			configs := config.ListConfigs()
			if id := viper.GetString("config_id"); id != "" {
				cfg, err := config.GetConfig(id)
				if err != nil {
					return err
				}
				configs = []*types.Config{cfg}
			}

			var errs []error
			for _, cfg := range configs {
				if err := validation.ValidateConfig(cfg); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", cfg.Meta.ID, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", cfg.Meta.ID)
			}
			return errors.Join(errs...)
		},
	}
}
