// Package sentence splits a live text stream into speakable chunks.
package sentence

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/stream"
)

// Options bounds chunk sizes.
type Options struct {
	// Boost is the number of leading chunks emitted at the first boundary
	// regardless of MinimumWords.
	Boost int
	// MinimumWords is the word count a chunk must exceed before a limit cut is considered.
	MinimumWords int
	// MaximumWords is the word count above which a chunk is cut.
	MaximumWords int
	// Logger receives source termination warnings. Defaults to the package logger.
	Logger tts.Logger
}

// DefaultOptions returns boost 2, minimum 4 and maximum 12 words.
func DefaultOptions() Options {
	return Options{Boost: 2, MinimumWords: 4, MaximumWords: 12}
}

// OptionsFromConfig converts chunker configuration into Options.
func OptionsFromConfig(cfg tts.ChunkerConfig) Options {
	return Options{
		Boost:        cfg.Boost,
		MinimumWords: cfg.MinimumWords,
		MaximumWords: cfg.MaximumWords,
	}
}

// Chunk is one emitted piece of text.
type Chunk struct {
	Text   string
	Words  int
	Reason tts.Reason
}

// Chunker lazily produces chunks from a TextSource. Each call to Next does
// only the work needed to produce one chunk.
type Chunker struct {
	opts   Options
	reader *clusterReader

	buffer     strings.Builder
	chunk      strings.Builder
	chunkWords int
	yields     int
	previous   string

	out  []Chunk
	done bool
}

// NewChunker returns a chunker reading from src.
func NewChunker(src TextSource, opts Options) *Chunker {
	if opts.Logger == nil {
		opts.Logger = log.Default().WithPrefix("chunker")
	}
	return &Chunker{
		opts:   opts,
		reader: &clusterReader{src: src, logger: opts.Logger},
	}
}

// Next returns the next chunk, io.EOF once input is exhausted, or ctx.Err()
// if ctx ends first. A source that fails is logged and treated as ended.
func (c *Chunker) Next(ctx context.Context) (Chunk, error) {
	for len(c.out) == 0 {
		if c.done {
			return Chunk{}, io.EOF
		}
		if err := c.step(ctx); err != nil {
			return Chunk{}, err
		}
	}
	ch := c.out[0]
	c.out = c.out[1:]
	return ch, nil
}

// step consumes one cluster and queues whatever it emits.
func (c *Chunker) step(ctx context.Context) error {
	value, ok, err := c.reader.next(ctx)
	if err != nil {
		return err
	}
	if !ok {
		c.finish()
		return nil
	}

	cls := classify(value)

	if value == "." || value == "," {
		after, err := c.reader.peek(ctx, 0)
		if err != nil {
			return err
		}
		if isDigit(c.previous) && isDigit(after) {
			cls = classText
		} else if value == "." && after == "." {
			third, err := c.reader.peek(ctx, 1)
			if err != nil {
				return err
			}
			if third == "." {
				c.reader.skip(2)
				value = "…"
			}
		}
	}
	c.previous = value

	if cls == classText {
		c.buffer.WriteString(value)
		return nil
	}

	if strings.TrimSpace(c.buffer.String()) == "" {
		if cls == classSpecial {
			// The chunk keeps growing; the buffered whitespace still separates it
			// from what follows.
			c.out = append(c.out, Chunk{Reason: tts.ReasonSpecial})
			c.yields++
			return nil
		}
		if strings.TrimSpace(c.chunk.String()) == "" {
			c.buffer.Reset()
			return nil
		}
	}

	words := CountWords(c.buffer.String())
	if c.chunkWords > c.opts.MinimumWords && c.chunkWords+words > c.opts.MaximumWords {
		c.emit(tts.ReasonLimit)
	}

	c.chunk.WriteString(c.buffer.String())
	c.chunk.WriteString(visible(value))
	c.chunkWords += words
	c.buffer.Reset()

	switch {
	case cls == classSpecial:
		c.emit(tts.ReasonSpecial)
	case cls == classFlush:
		c.emit(tts.ReasonFlush)
	case cls == classHard:
		c.emit(tts.ReasonHard)
	case c.chunkWords > c.opts.MaximumWords:
		c.emit(tts.ReasonLimit)
	case c.yields < c.opts.Boost:
		c.emit(tts.ReasonBoost)
	}
	return nil
}

// emit queues the current chunk and resets it. Empty non-special chunks are discarded.
func (c *Chunker) emit(reason tts.Reason) {
	text := strings.TrimSpace(c.chunk.String())
	words := c.chunkWords
	c.chunk.Reset()
	c.chunkWords = 0
	if text == "" && reason != tts.ReasonSpecial {
		return
	}
	c.out = append(c.out, Chunk{Text: text, Words: words, Reason: reason})
	c.yields++
}

func (c *Chunker) finish() {
	c.done = true
	c.chunk.WriteString(c.buffer.String())
	c.chunkWords += CountWords(c.buffer.String())
	c.buffer.Reset()
	c.emit(tts.ReasonFlush)
}

// ChunkText splits a complete string.
func ChunkText(text string, opts Options) []Chunk {
	ctx := context.Background()
	chunker := NewChunker(stream.FromSlice(text), opts)
	var chunks []Chunk
	for {
		ch, err := chunker.Next(ctx)
		if err != nil {
			return chunks
		}
		chunks = append(chunks, ch)
	}
}
