package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowplan/internal/cli"
	"github.com/aretw0/flowplan/internal/config"
	"github.com/aretw0/flowplan/pkg/options"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowplan",
	Short: "flowplan composes flows of capabilities by classical planning",
	Long: `flowplan validates flow documents, compiles them to PDDL and asks a planner
for the cheapest sequence of operators that reaches the flow's goals.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to flowplan.yaml (or .json)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("planner-url", "", "URL of an HTTP planner service")
	rootCmd.PersistentFlags().String("catalog", "", "Directory of agent documents merged into every flow")
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("planner-url"); v != "" {
		cfg.Planner.Kind = config.PlannerHTTP
		cfg.Planner.URL = v
	}
	if v, _ := cmd.Flags().GetString("catalog"); v != "" {
		cfg.Catalog = v
	}
	return cfg, nil
}

// runtimeFor builds the service stack for a command.
func runtimeFor(cmd *cobra.Command) (*cli.Runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger, err := cli.NewLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	return cli.Build(cmd.Context(), cfg, logger)
}

func addOptionFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("slot", nil, "Slot options, e.g. eventual,last_resort,ordered")
	cmd.Flags().StringSlice("mapping", nil, "Mapping options, e.g. relaxed")
	cmd.Flags().StringSlice("confirm", nil, "Confirmation options, e.g. on_slot,on_mapping")
	cmd.Flags().StringSlice("lifecycle", nil, "Value lifecycle options, e.g. forget_on_use")
	cmd.Flags().String("goal", "", "Goal combination: and-and, or-and or and-or")
	cmd.Flags().Int("lookahead", -1, "Placeholder objects per type (default from config)")
}

// compileOptions merges option flags over the configured tags.
func compileOptions(cmd *cobra.Command, cfg config.Config) (options.Set, int, error) {
	tags := cfg.Options
	override := func(name string, dst *[]string) {
		if cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetStringSlice(name)
		}
	}
	override("slot", &tags.Slot)
	override("mapping", &tags.Mapping)
	override("confirm", &tags.Confirm)
	override("lifecycle", &tags.LifeCycle)
	if cmd.Flags().Changed("goal") {
		tags.Goal, _ = cmd.Flags().GetString("goal")
	}

	set, err := tags.Parse()
	if err != nil {
		return options.Set{}, 0, err
	}

	lookahead := cfg.Lookahead
	if cmd.Flags().Changed("lookahead") {
		lookahead, _ = cmd.Flags().GetInt("lookahead")
	}
	return set, lookahead, nil
}
