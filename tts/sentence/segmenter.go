package sentence

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
	"github.com/dgnsrekt/speakflow/tts/stream"
)

// Meta identifies the stream being segmented.
type Meta struct {
	StreamID string
	IntentID string
}

// Segmenter converts a token stream into a segment stream. The returned
// channel is closed when the tokens end and errored with ctx.Err() on cancellation.
type Segmenter func(ctx context.Context, tokens *stream.Channel[tts.Token], meta Meta) *stream.Channel[tts.Segment]

// NewSegmenter returns the default Segmenter bound to opts.
func NewSegmenter(opts Options) Segmenter {
	return func(ctx context.Context, tokens *stream.Channel[tts.Token], meta Meta) *stream.Channel[tts.Segment] {
		return Segment(ctx, tokens, meta, opts)
	}
}

var stripMarkers = strings.NewReplacer(FlushMarker, "", SpecialMarker, "")

// tokenSource renders tokens as text, replacing special and flush tokens with
// their markers and queueing special payloads in arrival order.
type tokenSource struct {
	tokens   *stream.Channel[tts.Token]
	specials []string
}

func (s *tokenSource) Next(ctx context.Context) (string, error) {
	tok, err := s.tokens.Next(ctx)
	if err != nil {
		return "", err
	}
	switch tok.Type {
	case tts.TokenSpecial:
		s.specials = append(s.specials, tok.Value)
		return SpecialMarker, nil
	case tts.TokenFlush:
		return FlushMarker, nil
	default:
		return stripMarkers.Replace(tok.Value), nil
	}
}

func (s *tokenSource) popSpecial() (string, bool) {
	if len(s.specials) == 0 {
		return "", false
	}
	v := s.specials[0]
	s.specials = s.specials[1:]
	return v, true
}

// Segment runs the chunker over tokens on its own goroutine and writes one
// Segment per chunk. Special chunks are paired with special payloads first in,
// first out.
func Segment(ctx context.Context, tokens *stream.Channel[tts.Token], meta Meta, opts Options) *stream.Channel[tts.Segment] {
	out := stream.New[tts.Segment]()
	src := &tokenSource{tokens: tokens}
	chunker := NewChunker(src, opts)

	go func() {
		seq := 0
		for {
			ch, err := chunker.Next(ctx)
			if errors.Is(err, io.EOF) {
				out.Close()
				return
			}
			if err != nil {
				out.Error(err)
				return
			}

			seg := tts.Segment{
				StreamID:  meta.StreamID,
				IntentID:  meta.IntentID,
				SegmentID: tts.NewID(),
				Sequence:  seq,
				Text:      ch.Text,
				Reason:    ch.Reason,
				Words:     ch.Words,
				CreatedAt: time.Now(),
			}
			if ch.Reason == tts.ReasonSpecial {
				seg.Special, seg.HasSpecial = src.popSpecial()
			}
			seq++
			out.Write(seg)
		}
	}()
	return out
}
