package sentence

import (
	"context"
	"errors"
	"io"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"

	"github.com/dgnsrekt/speakflow/tts"
)

// Reserved control characters carried inside the text stream.
const (
	// FlushMarker forces a chunk boundary.
	FlushMarker = "\u200b"
	// SpecialMarker marks the position of an out-of-band special token.
	SpecialMarker = "\u2063"
)

// TextSource yields pieces of text. Next returns io.EOF after the last piece.
// *stream.Channel[string] satisfies it.
type TextSource interface {
	Next(ctx context.Context) (string, error)
}

type class int

const (
	classText class = iota
	classFlush
	classSpecial
	classHard
	classSoft
)

var (
	// Boundary characters stay in the chunk text, so ? and ! keep their tone.
	hardPunctuation = set(".", "。", "?", "？", "!", "！", "…", "⋯", "～", "~")
	lineBreaks      = set("\n", "\r", "\r\n", "\t")
	softPunctuation = set(",", "，", "、", "–", "—", ":", "：", ";", "；", "《", "》", "「", "」", "(", ")", "（", "）")
)

func set(vals ...string) map[string]bool {
	m := make(map[string]bool, len(vals))
	for _, v := range vals {
		m[v] = true
	}
	return m
}

func classify(c string) class {
	switch {
	case c == FlushMarker:
		return classFlush
	case c == SpecialMarker:
		return classSpecial
	case hardPunctuation[c], lineBreaks[c]:
		return classHard
	case softPunctuation[c]:
		return classSoft
	}
	return classText
}

// visible returns the text a boundary cluster contributes to a chunk.
func visible(c string) string {
	switch {
	case c == FlushMarker, c == SpecialMarker:
		return ""
	case lineBreaks[c]:
		return " "
	}
	return c
}

func isDigit(c string) bool {
	if c == "" {
		return false
	}
	for _, r := range c {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func isMarker(c string) bool {
	return c == FlushMarker || c == SpecialMarker
}

// clusterReader turns text pieces into NFC-normalised grapheme clusters.
// The last cluster of each piece is held back until the next piece arrives,
// since a combining mark in that piece may extend it.
type clusterReader struct {
	src    TextSource
	logger tts.Logger
	ready  []string
	carry  string
	ended  bool
}

// fill pulls pieces until at least n clusters are ready or the source ends.
func (r *clusterReader) fill(ctx context.Context, n int) error {
	for len(r.ready) < n && !r.ended {
		piece, err := r.src.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !errors.Is(err, io.EOF) {
				r.logger.Warn("Text source terminated uncleanly", "error", err)
			}
			r.ended = true
			if r.carry != "" {
				r.ready = append(r.ready, r.carry)
				r.carry = ""
			}
			return nil
		}
		r.split(piece)
	}
	return nil
}

func (r *clusterReader) split(piece string) {
	if piece == "" {
		return
	}
	text := norm.NFC.String(r.carry + piece)
	r.carry = ""

	state := -1
	var cluster string
	for len(text) > 0 {
		cluster, text, _, state = uniseg.FirstGraphemeClusterInString(text, state)
		if len(text) == 0 && !isMarker(cluster) {
			r.carry = cluster
			break
		}
		r.ready = append(r.ready, cluster)
	}
}

// next returns the next cluster, or ok=false at end of input.
func (r *clusterReader) next(ctx context.Context) (string, bool, error) {
	if err := r.fill(ctx, 1); err != nil {
		return "", false, err
	}
	if len(r.ready) == 0 {
		return "", false, nil
	}
	c := r.ready[0]
	r.ready = r.ready[1:]
	return c, true, nil
}

// peek returns the cluster i positions ahead without consuming it.
func (r *clusterReader) peek(ctx context.Context, i int) (string, error) {
	if err := r.fill(ctx, i+1); err != nil {
		return "", err
	}
	if i < len(r.ready) {
		return r.ready[i], nil
	}
	return "", nil
}

func (r *clusterReader) skip(n int) {
	if n > len(r.ready) {
		n = len(r.ready)
	}
	r.ready = r.ready[n:]
}

// CountWords returns the number of word-like segments in s. A segment is
// word-like when it contains a letter or a digit.
func CountWords(s string) int {
	n := 0
	state := -1
	var word string
	for len(s) > 0 {
		word, s, state = uniseg.FirstWordInString(s, state)
		if strings.IndexFunc(word, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsNumber(r)
		}) >= 0 {
			n++
		}
	}
	return n
}
