package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/term"

	"github.com/dgnsrekt/speakflow/internal/cache"
	"github.com/dgnsrekt/speakflow/internal/markdown"
	reportpkg "github.com/dgnsrekt/speakflow/internal/report"
	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/audio"
	"github.com/dgnsrekt/speakflow/tts/engines"
	"github.com/dgnsrekt/speakflow/tts/engines/mock"
	"github.com/dgnsrekt/speakflow/tts/engines/piper"
	"github.com/dgnsrekt/speakflow/tts/pipeline"
	"github.com/dgnsrekt/speakflow/ui"
)

var (
	speakMarkdown  bool
	speakDryRun    bool
	speakPriority  string
	speakOwner     string
	speakBehavior  string
	speakEvents    bool
	speakTUI       bool
	speakQuiet     bool
	speakWordDelay time.Duration
)

var speakCmd = &cobra.Command{
	Use:          "speak [FILE|-]",
	Short:        "Speak a text or markdown document",
	Long:         paragraph(fmt.Sprintf("\n%s text as a live token stream. The document is fed word by word into a speech intent, chunked into segments, synthesized and played.", keyword("Speak"))),
	Example:      paragraph("speakflow speak README.md\necho 'Hello there. How are you?' | speakflow speak --events\nspeakflow speak notes.txt --tui --word-delay 80ms"),
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runSpeak,
}

func init() {
	f := speakCmd.Flags()
	f.BoolVarP(&speakMarkdown, "markdown", "m", false, "treat the input as markdown (implied for .md files)")
	f.BoolVar(&speakDryRun, "dry-run", false, "simulate playback instead of opening the audio device")
	f.StringVarP(&speakPriority, "priority", "p", "normal", "intent priority: critical, high, normal, low or an integer")
	f.StringVar(&speakOwner, "owner", "", "owner id used for per-owner voice limits")
	f.StringVarP(&speakBehavior, "behavior", "b", string(tts.BehaviorQueue), "preemption behavior: queue, interrupt or replace")
	f.BoolVarP(&speakEvents, "events", "e", false, "print engine events as they happen")
	f.BoolVarP(&speakTUI, "tui", "t", false, "show the interactive monitor")
	f.BoolVarP(&speakQuiet, "quiet", "q", false, "do not print the summary report")
	f.DurationVar(&speakWordDelay, "word-delay", 0, "delay between words, to mimic a live text stream")
}

func runSpeak(cmd *cobra.Command, args []string) error {
	name, src, err := readSource(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	priority, err := tts.ParsePriority(speakPriority)
	if err != nil {
		return err
	}
	behavior := tts.Behavior(strings.ToLower(speakBehavior))
	if !behavior.Valid() {
		return fmt.Errorf("invalid behavior %q: want queue, interrupt or replace", speakBehavior)
	}

	player, err := newPlayer(cfg.Player, speakDryRun)
	if err != nil {
		return err
	}
	synth, closeSynth, err := newSynthesizer(cfg)
	if err != nil {
		return err
	}
	defer closeSynth()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	if speakTUI && cfg.Log.File == "" {
		// keep log lines from tearing the monitor
		log.SetOutput(io.Discard)
	}

	p := pipeline.New(pipeline.ConfigFrom(cfg), synth, player,
		pipeline.WithLogger(tts.NewLogger("pipeline")),
		pipeline.WithMeter(provider.Meter(tts.MeterName)),
	)
	watchConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if speakEvents && !speakTUI {
		p.OnAny(func(ev tts.Event) {
			if line := ui.Describe(tts.ToMsg(ev)); line != "" {
				fmt.Fprintln(out, line)
			}
		})
	}

	parts := []markdown.Part{{Text: string(src)}}
	if speakMarkdown || isMarkdownFile(name) {
		parts = markdown.New().Parts(src)
	}

	var feed *tts.EventFeed
	if speakTUI {
		feed = tts.NewEventFeed(p.Bus())
	}

	h := p.Open(pipeline.IntentOptions{
		Priority: priority,
		OwnerID:  speakOwner,
		Behavior: behavior,
	})
	log.Debug("Speaking", "source", name, "intent", h.ID(), "parts", len(parts))

	feedCtx, cancelFeed := context.WithCancel(ctx)
	defer cancelFeed()
	go writeParts(feedCtx, h, parts, speakWordDelay)

	if speakTUI {
		uiCfg, err := env.ParseAs[ui.Config]()
		if err != nil {
			return fmt.Errorf("parse ui environment: %w", err)
		}
		go func() {
			_ = p.Wait(ctx)
			feed.Close()
		}()
		if _, err := ui.NewProgram(uiCfg, feed, p).Run(); err != nil {
			p.Close()
			return fmt.Errorf("unable to run monitor: %w", err)
		}
		cancelFeed()
	}

	if err := p.Wait(ctx); err != nil {
		p.StopAll("signal")
	}
	p.Close()

	if speakQuiet {
		return nil
	}
	r, err := reportpkg.Collect(context.Background(), reader)
	if err != nil {
		return err
	}
	return reportpkg.Render(out, r)
}

// newPlayer builds the configured playback backend.
func newPlayer(cfg tts.PlayerConfig, dryRun bool) (tts.Player, error) {
	if dryRun || cfg.Backend == "simulated" {
		return audio.NewSimulatedPlayer(cfg.Speed), nil
	}
	player, err := audio.NewOtoPlayer(audio.PlayerConfig{
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
		BufferSize: audio.DefaultPlayerConfig().BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to open audio device (try --dry-run): %w", err)
	}
	return player, nil
}

// newSynthesizer builds the configured engine behind its rate limit and audio
// cache. The returned func releases the disk cache.
func newSynthesizer(cfg tts.Config) (tts.Synthesizer, func(), error) {
	logger := tts.NewLogger("synth")
	fallback := mock.NewFromConfig(cfg.Synth, cfg.Player)

	var synth tts.Synthesizer = fallback
	if cfg.Synth.Engine == "piper" {
		pc := piper.ConfigFrom(cfg.Synth, cfg.Player)
		model, err := homedir.Expand(pc.ModelPath)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to expand model path: %w", err)
		}
		pc.ModelPath = model
		engine, err := piper.New(pc)
		if err != nil {
			return nil, nil, err
		}
		synth = engines.NewFallbackEngine(engine, fallback, cfg.Synth.FallbackAfter)
	}
	synth = engines.RateLimited(synth, engines.NewLimiter(cfg.Synth))

	var stores cache.Tiered
	closer := func() {}
	if cfg.Cache.MemoryBytes > 0 {
		stores = append(stores, cache.NewMemory(cfg.Cache.MemoryBytes))
	}
	if cfg.Cache.DiskBytes > 0 {
		disk, err := openDiskCache(cfg.Cache)
		if err != nil {
			logger.Warn("Disk cache disabled", "error", err)
		} else {
			stores = append(stores, disk)
			closer = func() { _ = disk.Close() }
		}
	}
	if len(stores) > 0 {
		synth = engines.Cached(synth, stores, engines.Fingerprint(cfg.Synth, cfg.Player), logger)
	}
	return engines.Logged(synth, logger), closer, nil
}

func openDiskCache(cfg tts.CacheConfig) (*cache.Disk, error) {
	dir := cfg.Dir
	if dir == "" {
		base, err := gap.NewScope(gap.User, "speakflow").CacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(base, "audio")
	}
	dir, err := homedir.Expand(dir)
	if err != nil {
		return nil, err
	}
	return cache.OpenDisk(dir, cfg.DiskBytes, cfg.CompressionLevel)
}

// writeParts feeds parts into the intent one word at a time and ends it.
func writeParts(ctx context.Context, h *pipeline.IntentHandle, parts []markdown.Part, delay time.Duration) {
	defer h.End()
	for _, part := range parts {
		if part.IsSpecial() {
			h.WriteSpecial(part.Special)
			continue
		}
		for _, word := range strings.SplitAfter(part.Text, " ") {
			if word == "" {
				continue
			}
			if delay > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(delay):
				}
			} else if ctx.Err() != nil {
				return
			}
			h.WriteLiteral(word)
		}
	}
}

// readSource returns the input name and contents. No argument or "-" reads
// stdin, which must not be a terminal.
func readSource(args []string) (string, []byte, error) {
	if len(args) == 0 || args[0] == "-" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return "", nil, errors.New("no input: pass a file or pipe text on stdin")
		}
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", nil, fmt.Errorf("unable to read stdin: %w", err)
		}
		return "stdin", b, nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", nil, fmt.Errorf("unable to read %s: %w", args[0], err)
	}
	return args[0], b, nil
}

func isMarkdownFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".mdown", ".mkdn", ".mkd", ".markdown":
		return true
	}
	return false
}
