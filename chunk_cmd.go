package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/speakflow/internal/markdown"
	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/sentence"
)

var (
	chunkMarkdown bool
	chunkBoost    int
	chunkMin      int
	chunkMax      int
)

var reasonStyles = map[tts.Reason]lipgloss.Style{
	tts.ReasonBoost:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAFF")),
	tts.ReasonLimit:   lipgloss.NewStyle().Foreground(lipgloss.Color("#FF8800")),
	tts.ReasonHard:    lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
	tts.ReasonFlush:   lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	tts.ReasonSpecial: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5FD2")),
}

var chunkCmd = &cobra.Command{
	Use:          "chunk [FILE|-]",
	Short:        "Show how text would be split into segments",
	Long:         paragraph(fmt.Sprintf("\n%s text with the configured chunker and print each chunk with the reason it was cut.", keyword("Split"))),
	Example:      paragraph("speakflow chunk README.md\necho 'One. Two three four five six.' | speakflow chunk --boost 0"),
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, src, err := readSource(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		f := cmd.Flags()
		if f.Changed("boost") {
			cfg.Chunker.Boost = chunkBoost
		}
		if f.Changed("min") {
			cfg.Chunker.MinimumWords = chunkMin
		}
		if f.Changed("max") {
			cfg.Chunker.MaximumWords = chunkMax
		}
		if err := cfg.Chunker.Validate(); err != nil {
			return err
		}

		text := string(src)
		if chunkMarkdown || isMarkdownFile(name) {
			text = markdown.New().Text(src)
		}

		out := cmd.OutOrStdout()
		for i, ch := range sentence.ChunkText(text, sentence.OptionsFromConfig(cfg.Chunker)) {
			reason := reasonStyles[ch.Reason].Render(fmt.Sprintf("%-7s", ch.Reason))
			fmt.Fprintf(out, "%3d %s %2d  %s\n", i+1, reason, ch.Words, strings.TrimSpace(ch.Text))
		}
		return nil
	},
}

func init() {
	f := chunkCmd.Flags()
	f.BoolVarP(&chunkMarkdown, "markdown", "m", false, "treat the input as markdown (implied for .md files)")
	f.IntVar(&chunkBoost, "boost", 0, "override chunker.boost")
	f.IntVar(&chunkMin, "min", 0, "override chunker.minimum_words")
	f.IntVar(&chunkMax, "max", 0, "override chunker.maximum_words")
}
