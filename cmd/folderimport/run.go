package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altafino/folder-import/internal/config"
	"github.com/altafino/folder-import/internal/importer"
	"github.com/altafino/folder-import/internal/step"
	"github.com/altafino/folder-import/internal/validation"
)

func newRunCmd() *cobra.Command {
	var processID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import the folder of a single process",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Select(viper.GetString("config_id"))
			if err != nil {
				return err
			}
			if err := validation.ValidateConfig(cfg); err != nil {
				return fmt.Errorf("invalid config %s: %w", cfg.Meta.ID, err)
			}

			closer, err := setupLogger(cfg)
			if err != nil {
				return err
			}
			defer closer.Close()

			svc, err := importer.NewService(cfg, log)
			if err != nil {
				return fmt.Errorf("failed to create import service: %w", err)
			}
			defer svc.Close()

			result, err := svc.ImportProcess(cmd.Context(), processID)
			if result == nil {
				return err
			}
			if result.Status != step.StatusFinish {
				log.Error("import failed", "process_id", processID, "error", err)
				svc.Close()
				closer.Close()
				fmt.Fprintln(os.Stderr, result.Message)
				os.Exit(1)
			}

			log.Info("import finished",
				"process_id", processID,
				"folder", result.Folder,
				"summary", result.Report.Summary(),
			)
			for _, u := range result.Report.Failures() {
				fmt.Fprintf(os.Stderr, "%s %s/%s: %v\n", u.Kind, u.Folder, u.File, u.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&processID, "process", "", "process ID under the metadata root")
	cmd.Flags().String("image-folder", "", "override the image root of the profile")
	cmd.MarkFlagRequired("process")
	viper.BindPFlag("import.image_folder", cmd.Flags().Lookup("image-folder"))

	return cmd
}
