package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altafino/folder-import/internal/app"
	"github.com/altafino/folder-import/internal/config"
	"github.com/altafino/folder-import/internal/types"
	"github.com/altafino/folder-import/internal/validation"
)

func newScheduleCmd() *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Import pending processes on the schedule of each enabled profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := viper.GetString("config_id")

			configs := config.GetEnabledConfigs()
			if id != "" {
				cfg, err := config.GetConfig(id)
				if err != nil {
					return err
				}
				configs = []*types.Config{cfg}

				closer, err := setupLogger(cfg)
				if err != nil {
					return err
				}
				defer closer.Close()
			}
			if err := validation.ValidateConfigs(configs); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			if once {
				return app.RunOnce(cmd.Context(), configs, log)
			}

			application, err := app.New(log, viper.GetString("config_dir"), id)
			if err != nil {
				return fmt.Errorf("failed to create application: %w", err)
			}
			defer application.Stop()

			if err := application.Start(); err != nil {
				return fmt.Errorf("failed to start application: %w", err)
			}

			// Wait for shutdown signal
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop

			log.Info("shutting down application")
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "sweep pending processes a single time and exit")
	return cmd
}
