package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/altafino/folder-import/internal/config"
	"github.com/altafino/folder-import/internal/logger"
	"github.com/altafino/folder-import/internal/types"
)

var (
	configDir string
	configID  string
	logLevel  string
	logFormat string
	log       *slog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "folderimport",
	Short: "Folder import workflow step",
	Long: `Imports the image folder belonging to a digitization process: finds the folder
by the main title, creates one structure element per subfolder, adds a page per image
and copies the images into the master directory.`,
	SilenceUsage:      true,
	PersistentPreRunE: initConfig,
}

func init() {
	// Setup default logger until we load config
	log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(log)

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default is ./config)")
	rootCmd.PersistentFlags().StringVar(&configID, "config-id", "", "specific config ID to use")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging format (text, json, dev)")

	// Flags and FOLDERIMPORT_* variables override the YAML profiles
	viper.SetEnvPrefix("FOLDERIMPORT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlag("config_dir", rootCmd.PersistentFlags().Lookup("config-dir"))
	viper.BindPFlag("config_id", rootCmd.PersistentFlags().Lookup("config-id"))
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.SetDefault("config_dir", "./config")

	rootCmd.AddCommand(newRunCmd(), newScheduleCmd(), newValidateCmd())
}

func initConfig(cmd *cobra.Command, args []string) error {
	dir := viper.GetString("config_dir")

	// flags and env apply to every profile, also after watcher reloads
	config.SetOverrides(applyOverrides)

	if lvl, format := viper.GetString("logging.level"), viper.GetString("logging.format"); lvl != "" || format != "" {
		log = logger.New(os.Stdout, lvl, format, false)
		slog.SetDefault(log)
	}

	config.InitLogger(log)
	if err := config.LoadConfigs(dir); err != nil {
		return fmt.Errorf("failed to load configs: %w", err)
	}

	configs := config.ListConfigs()
	if len(configs) == 0 {
		return fmt.Errorf("no configurations found in %s", dir)
	}
	log.Debug("loaded configurations",
		"count", len(configs),
		"enabled", len(config.GetEnabledConfigs()),
	)
	return nil
}

func applyOverrides(cfg *types.Config) {
	if v := viper.GetString("import.image_folder"); v != "" {
		cfg.Import.ImageFolder = v
	}
	if v := viper.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		cfg.Logging.Format = v
	}
}

// setupLogger replaces the bootstrap logger with the one configured by cfg
func setupLogger(cfg *types.Config) (io.Closer, error) {
	l, closer, err := logger.Setup(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}
	log = l.With("config_id", cfg.Meta.ID)
	slog.SetDefault(log)
	config.InitLogger(log)
	return closer, nil
}
