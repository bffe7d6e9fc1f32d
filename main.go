// Package main provides the entry point for the speakflow CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/speakflow/tts"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile        string
	defaultConfigFile string
	logLevel          string
	logCloser         io.Closer

	rootCmd = &cobra.Command{
		Use:   "speakflow",
		Short: "Stream text into prioritized, interruptible speech",
		Long: paragraph(
			fmt.Sprintf("\nStream text into %s speech.", keyword("prioritized, interruptible")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return setup()
		},
	}
)

// setup reads an explicit config file and initializes logging.
func setup() error {
	if configFile != "" {
		path, err := homedir.Expand(configFile)
		if err != nil {
			return fmt.Errorf("unable to expand config path: %w", err)
		}
		configFile = path
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	level := viper.GetString("log.level")
	closer, err := tts.InitializeLogging(level, viper.GetString("log.file"))
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

// loadConfig returns the validated effective configuration.
func loadConfig() (tts.Config, error) {
	return tts.LoadConfigFromViper(viper.GetViper())
}

// watchConfig applies log level edits to the running process.
func watchConfig() {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level, err := log.ParseLevel(viper.GetString("log.level"))
		if err != nil {
			log.Warn("Ignoring invalid log level", "path", e.Name, "error", err)
			return
		}
		log.SetLevel(level)
		log.Info("Configuration reloaded", "path", e.Name, "level", level)
	})
	viper.WatchConfig()
}

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	tts.SetDefaults(viper.GetViper())

	rootCmd.AddCommand(speakCmd, chunkCmd, checkCmd, configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "speakflow")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "speakflow")}, dirs...)
	}

	if c := os.Getenv("SPEAKFLOW_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("speakflow")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("speakflow")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	if len(dirs) > 0 {
		defaultConfigFile = filepath.Join(dirs[0], "speakflow.yml")
	}
}
