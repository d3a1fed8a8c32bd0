// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/observability"
)

type contextKey string

const configKey contextKey = "config"

const (
	envPrefix      = "UIPILOT"
	configName     = "uipilot.yaml"
	homeConfigName = ".uipilot.yaml"
)

// NewRootCommand builds a fresh command tree. Each call gets its own viper
// instance so flags and config never leak between executions.
func NewRootCommand() *cobra.Command {
	v := viper.New()
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "uipilot",
		Short:         "uipilot drives a web UI with an autonomous testing agent.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.SetDefaults(v)
			if err := initializeConfig(v, cfgFile); err != nil {
				return err
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				// Fall back to a default logger so the failure is still reported.
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return err
			}
			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting uipilot", zap.String("version", Version))

			cmd.SetContext(context.WithValue(cmd.Context(), configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./uipilot.yaml or $HOME/.uipilot.yaml)")
	rootCmd.PersistentFlags().String("policy", "", "decision policy: deterministic, model or hybrid")
	rootCmd.PersistentFlags().String("trace", "", "path of the JSONL step trace")
	rootCmd.PersistentFlags().Int("max-iterations", 0, "maximum observe/decide/execute iterations")
	rootCmd.PersistentFlags().String("assert", "", "YAML or JSON file of assertions checked against the final page")
	_ = v.BindPFlag("agent.policy", rootCmd.PersistentFlags().Lookup("policy"))
	_ = v.BindPFlag("agent.max_iterations", rootCmd.PersistentFlags().Lookup("max-iterations"))
	_ = v.BindPFlag("trace.path", rootCmd.PersistentFlags().Lookup("trace"))

	rootCmd.SetVersionTemplate("uipilot version {{.Version}}\n")

	rootCmd.AddCommand(
		newRunCmd(v),
		newReplayCmd(),
		newDiffCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command with a context that is canceled on shutdown signals.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		observability.GetLogger().Info("Command interrupted")
	} else {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		observability.GetLogger().Debug("Command execution failed", zap.Error(err))
	}
	observability.Sync()
	return err
}

// initializeConfig reads the config file, if any, and environment variables.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile == "" {
		cfgFile = findConfigFile()
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		// No config file; defaults, env vars and flags apply.
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", cfgFile, err)
	}
	return nil
}

// findConfigFile returns the first existing default config location.
func findConfigFile() string {
	candidates := []string{configName}
	if home, err := homedir.Dir(); err == nil {
		candidates = append(candidates, filepath.Join(home, homeConfigName))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// configFromContext returns the configuration loaded by the root command.
func configFromContext(ctx context.Context) (*config.Config, error) {
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not loaded")
	}
	return cfg, nil
}
