package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# Playback admission
voices:
  # concurrent voices across all owners
  max_voices: 1
  # concurrent voices per owner (0 = unlimited)
  max_voices_per_owner: 0
  # queue, reject, steal-oldest or steal-lowest-priority
  overflow_policy: "queue"
  # reject or steal-oldest
  owner_overflow_policy: "steal-oldest"

# Text segmentation
chunker:
  # chunks emitted eagerly before minimum_words applies
  boost: 2
  minimum_words: 4
  maximum_words: 12

# Scores of the symbolic priority levels
priorities:
  critical: 300
  high: 200
  normal: 100
  low: 0

log:
  # debug, info, warn or error
  level: "info"
  # file: "~/.cache/speakflow/speakflow.log"

# Speech synthesizer
synth:
  # mock or piper
  engine: "mock"
  # piper_binary: "/usr/local/bin/piper"
  # piper_model: "~/.local/share/piper/en_US-lessac-medium.onnx"
  # consecutive piper failures before falling back to mock
  fallback_after: 3
  # requests per second (0 = unlimited)
  rate_limit: 0
  burst: 1
  latency: "50ms"
  words_per_minute: 150

player:
  # simulated or oto
  backend: "simulated"
  sample_rate: 22050
  channels: 1
  speed: 1.0

# Synthesized audio cache (0 disables a tier)
cache:
  memory_bytes: 33554432
  disk_bytes: 0
  # dir: "~/.cache/speakflow/audio"
  compression_level: 3
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the speakflow config file",
	Long:    paragraph(fmt.Sprintf("\n%s the speakflow config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("speakflow config\nspeakflow config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		path, err := ensureConfigFile()
		if err != nil {
			return err
		}

		c, err := editor.Cmd("speakflow", path)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		out, err := yaml.Marshal(viper.AllSettings())
		if err != nil {
			return fmt.Errorf("unable to marshal config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(out)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configPathCmd)
}

// configPath returns the explicit, loaded or default config file path.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return defaultConfigFile
}

func ensureConfigFile() (string, error) {
	configFile := configPath()
	if configFile == "" {
		return "", errors.New("no configuration directory available")
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return "", fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return "", fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return "", fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return "", fmt.Errorf("unable to stat config file: %w", err)
	}
	return configFile, nil
}
