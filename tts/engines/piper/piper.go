// Package piper synthesizes speech with the Piper command line tool. Each
// request runs a fresh process that reads text on stdin and writes raw 16-bit
// mono PCM on stdout.
package piper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
)

// Config locates the Piper binary and voice model.
type Config struct {
	// BinaryPath is the piper executable. Empty searches common install locations.
	BinaryPath string
	// ModelPath is the .onnx voice model.
	ModelPath string
	// SampleRate must match the model's output rate.
	SampleRate int
	// LengthScale slows speech down above 1 and speeds it up below. Zero keeps the model default.
	LengthScale float64
}

// ConfigFrom builds a piper Config from application settings.
func ConfigFrom(synth tts.SynthConfig, player tts.PlayerConfig) Config {
	return Config{
		BinaryPath: synth.PiperBinary,
		ModelPath:  synth.PiperModel,
		SampleRate: player.SampleRate,
	}
}

// waitDelay bounds how long a killed process may hold its output pipes open.
const waitDelay = 500 * time.Millisecond

// Engine runs piper once per request.
type Engine struct {
	binary string
	config Config
}

// New resolves the binary and checks the model exists.
func New(config Config) (*Engine, error) {
	if config.ModelPath == "" {
		return nil, errors.New("piper: model path is required")
	}
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("piper: model: %w", err)
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 22050
	}

	binary := config.BinaryPath
	if binary == "" {
		binary = findBinary()
		if binary == "" {
			return nil, errors.New("piper: binary not found")
		}
	} else {
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("piper: %w", err)
		}
		binary = path
	}
	return &Engine{binary: binary, config: config}, nil
}

// Synthesize pipes req.Text through piper. Blank text yields no audio.
func (e *Engine) Synthesize(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, e.binary, e.args()...)
	cmd.Stdin = strings.NewReader(text + "\n")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	out, err := cmd.Output()
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		return nil, fmt.Errorf("%w: piper: %w: %s", tts.ErrSynthesisFailed, err, msg)
	}
	// whole samples only
	out = out[:len(out)&^1]
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: piper produced no audio", tts.ErrSynthesisFailed)
	}

	samples := len(out) / 2
	return &tts.Audio{
		Data:       out,
		Format:     tts.FormatPCM16,
		SampleRate: e.config.SampleRate,
		Channels:   1,
		Duration:   time.Duration(samples) * time.Second / time.Duration(e.config.SampleRate),
	}, nil
}

func (e *Engine) args() []string {
	args := []string{"--model", e.config.ModelPath, "--output-raw"}
	if e.config.LengthScale > 0 && e.config.LengthScale != 1 {
		args = append(args, "--length_scale", strconv.FormatFloat(e.config.LengthScale, 'f', -1, 64))
	}
	return args
}

// findBinary tries to find the piper binary in common locations.
func findBinary() string {
	locations := []string{"piper", "/usr/local/bin/piper", "/usr/bin/piper"}
	if home, err := os.UserHomeDir(); err == nil {
		locations = append(locations,
			filepath.Join(home, ".local", "bin", "piper"),
			filepath.Join(home, "bin", "piper"),
		)
	}
	for _, loc := range locations {
		if path, err := exec.LookPath(loc); err == nil {
			return path
		}
	}
	return ""
}
