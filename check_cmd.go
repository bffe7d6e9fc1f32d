package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/engines/mock"
	"github.com/dgnsrekt/speakflow/tts/engines/piper"
)

const checkTimeout = 10 * time.Second

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	hintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).PaddingLeft(4)
)

const piperGuidance = `Install piper from https://github.com/rhasspy/piper/releases and put it on PATH,
or set synth.piper_binary. Voices are listed at
https://github.com/rhasspy/piper/blob/master/VOICES.md; point synth.piper_model at the .onnx file.
To diagnose a model by hand:
  echo "Hello world" | piper --model /path/to/model.onnx --output-raw > /dev/null`

var checkCmd = &cobra.Command{
	Use:          "check",
	Short:        "Verify the configured synthesizer and audio device",
	Long:         paragraph(fmt.Sprintf("\n%s the configuration, run a test synthesis with the configured engine and open the audio device when the oto backend is selected.", keyword("Validate"))),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		cfg, err := loadConfig()
		if err != nil {
			report(out, "configuration", err, "Run 'speakflow config' to fix the file.")
			return err
		}
		report(out, "configuration", nil, "")

		synth, err := checkSynthesizer(cfg)
		if err == nil {
			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()
			_, err = synth.Synthesize(ctx, tts.SynthesisRequest{Text: "Testing one two three."})
			if err != nil {
				err = fmt.Errorf("test synthesis failed: %w", err)
			}
		}
		hint := ""
		if cfg.Synth.Engine == "piper" {
			hint = piperGuidance
		}
		report(out, "synthesizer ("+cfg.Synth.Engine+")", err, hint)
		if err != nil {
			return err
		}

		if cfg.Player.Backend == "oto" {
			_, err := newPlayer(cfg.Player, false)
			report(out, "audio device", err, "Use player.backend: simulated or pass --dry-run to speak.")
			return err
		}
		report(out, "audio device (simulated)", nil, "")
		return nil
	},
}

// checkSynthesizer builds the configured engine without fallback or cache so
// failures surface directly.
func checkSynthesizer(cfg tts.Config) (tts.Synthesizer, error) {
	if cfg.Synth.Engine != "piper" {
		return mock.NewFromConfig(cfg.Synth, cfg.Player), nil
	}
	pc := piper.ConfigFrom(cfg.Synth, cfg.Player)
	model, err := homedir.Expand(pc.ModelPath)
	if err != nil {
		return nil, err
	}
	pc.ModelPath = model
	return piper.New(pc)
}

func report(w io.Writer, what string, err error, hint string) {
	if err == nil {
		fmt.Fprintf(w, "%s %s\n", okStyle.Render("✓"), what)
		return
	}
	fmt.Fprintf(w, "%s %s: %v\n", failStyle.Render("✗"), what, err)
	if hint != "" {
		fmt.Fprintln(w, hintStyle.Render(hint))
	}
}
