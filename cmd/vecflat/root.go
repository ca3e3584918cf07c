package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/vecflat"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vecflat",
	Short: "Exact vector index toolkit",
	Long: `vecflat builds, benchmarks and inspects exact vector indexes.

Index and store settings are read from a YAML file given with --config.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.AddCommand(benchCmd, snapshotCmd, searchCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the config file and applies the --dim and --metric
// overrides of cmd.
func loadConfig(cmd *cobra.Command) (Config, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("dim") {
		cfg.Dimension, _ = cmd.Flags().GetInt("dim")
	}
	if cmd.Flags().Changed("metric") {
		cfg.Metric, _ = cmd.Flags().GetString("metric")
	}
	return cfg, cfg.Validate()
}

// newIndex creates an empty index from cfg.
func newIndex(cfg Config) (*vecflat.Index, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.IndexOptions(logger)
	if err != nil {
		return nil, err
	}
	return vecflat.New(cfg.Dimension, opts...)
}

// loadIndex restores the snapshot name from the configured store.
func loadIndex(cmd *cobra.Command, cfg Config, name string) (*vecflat.Index, error) {
	store, err := cfg.OpenStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.IndexOptions(logger)
	if err != nil {
		return nil, err
	}
	return vecflat.LoadSnapshot(cmd.Context(), store, name, opts...)
}
