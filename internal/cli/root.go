// Package cli implements the cobra command tree matching spec §6's
// CLI surface: update, install, remove, upgrade/dist-upgrade, remove,
// list/info/files/search, the reverse-dependency query verbs,
// download, flag, compare-versions, print-architecture and clean.
// This is the external collaborator spec §1 scopes the CLI front-end
// out of the core's responsibility for; it only ever calls into
// internal/app.
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"opkg/internal/app"
	"opkg/internal/config"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "OPKG"

type rootOptions struct {
	ConfigFile string
	LogLevel   string
	OfflineRoot string
	Interactive bool
}

// Execute runs the root command under a context cancelled on SIGINT,
// mapping a returned error to a process exit code (spec §7). Outside
// the apply phase, cancellation is immediate; during it, the executor
// defers until the current step boundary (spec §5).
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	opts := rootOptions{}
	cmd := &cobra.Command{
		Use:     "opkg",
		Short:   "Embedded-system package manager",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(opts.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "Config file path")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.OfflineRoot, "offline-root", "", "Alternate root directory (overrides offline_root)")
	cmd.PersistentFlags().BoolVarP(&opts.Interactive, "interactive", "i", false, "Prompt for confirmation and problem resolution instead of running in batch mode")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("offline_root", cmd.PersistentFlags().Lookup("offline-root"))
	_ = viper.BindPFlag("interactive", cmd.PersistentFlags().Lookup("interactive"))

	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newRemoveCommand())
	cmd.AddCommand(newUpgradeCommand())
	cmd.AddCommand(newDistUpgradeCommand())
	cmd.AddCommand(newDownloadCommand())
	cmd.AddCommand(newFlagCommand())
	cmd.AddCommand(newListCommand())
	cmd.AddCommand(newListInstalledCommand())
	cmd.AddCommand(newListUpgradableCommand())
	cmd.AddCommand(newInfoCommand())
	cmd.AddCommand(newFilesCommand())
	cmd.AddCommand(newSearchCommand())
	cmd.AddCommand(newDependsCommand())
	cmd.AddCommand(newReverseDependsCommands()...)
	cmd.AddCommand(newCompareVersionsCommand())
	cmd.AddCommand(newPrintArchitectureCommand())
	cmd.AddCommand(newCleanCommand())
	return cmd
}

func initConfig(configFile string) error {
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("opkg")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/opkg")
	if err := viper.ReadInConfig(); err != nil {
		return nil // no config file found: rely on env/flags/defaults
	}
	return nil
}

func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// loadConfig decodes the bound viper state into a config.Config, the
// plain value the core treats as an external collaborator (spec §1).
func loadConfig() (config.Config, error) {
	var raw config.Raw
	if err := viper.Unmarshal(&raw); err != nil {
		return config.Config{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to decode configuration").
			WithCause(err)
	}
	return config.FromRaw(raw)
}

// newContext loads configuration and builds an app.Context, the
// shared entry point for every mutating or query command.
func newContext(interactive bool) (*app.Context, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.NewContext(cfg, interactive)
}

func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	code := errbuilder.CodeOf(err)
	switch code {
	case errbuilder.CodeInvalidArgument:
		return 1
	case errbuilder.CodeAlreadyExists:
		return 1
	case errbuilder.CodeFailedPrecondition:
		return 4 // DependencyError: resolver found unresolved problems
	case errbuilder.CodeUnavailable:
		return 5 // NetworkError / VerificationError
	case errbuilder.CodeNotFound:
		return 5
	case errbuilder.CodeAborted:
		return 130 // Interrupted: 128 + SIGINT(2)
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeInternal:
		return 5 // FilesystemError / ScriptError
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
