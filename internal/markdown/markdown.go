// Package markdown turns markdown documents into speakable parts.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	east "github.com/yuin/goldmark-emoji/ast"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// Part is either prose or a special marker, never both.
type Part struct {
	Text    string
	Special string
}

// IsSpecial reports whether the part is a marker.
func (p Part) IsSpecial() bool { return p.Special != "" }

// Renderer extracts speakable text from markdown.
type Renderer struct {
	md             goldmark.Markdown
	skipCodeBlocks bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCodeBlocks keeps code block contents instead of skipping them.
func WithCodeBlocks() Option {
	return func(r *Renderer) { r.skipCodeBlocks = false }
}

// New creates a renderer with GitHub flavored markdown and emoji shortcodes.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		md:             goldmark.New(goldmark.WithExtensions(extension.GFM, emoji.Emoji)),
		skipCodeBlocks: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Parts returns the document as prose and markers in reading order. Emoji
// shortcodes become markers named after the shortcode. Block boundaries end
// with a line break so each block is spoken as its own sentence.
func (r *Renderer) Parts(source []byte) []Part {
	doc := r.md.Parser().Parse(text.NewReader(source))
	w := &partWriter{}

	_ = ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := node.(type) {
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if entering && !r.skipCodeBlocks {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					w.text(string(seg.Value(source)))
				}
				w.newline()
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		case *east.Emoji:
			if entering {
				w.special(string(n.ShortName))
			}
			return ast.WalkSkipChildren, nil
		case *ast.AutoLink:
			if entering {
				w.text(string(n.Label(source)))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if entering {
				w.text(string(n.Segment.Value(source)))
				switch {
				case n.HardLineBreak():
					w.newline()
				case n.SoftLineBreak():
					w.text(" ")
				}
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				w.text(string(n.Value))
			}
			return ast.WalkContinue, nil
		}

		if !entering && node.Type() == ast.TypeBlock {
			w.newline()
		}
		return ast.WalkContinue, nil
	})
	return w.parts()
}

// Text returns the prose of the document with markers dropped.
func (r *Renderer) Text(source []byte) string {
	var b strings.Builder
	for _, p := range r.Parts(source) {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String())
}

type partWriter struct {
	out []Part
	buf strings.Builder
}

func (w *partWriter) text(s string) {
	w.buf.WriteString(s)
}

func (w *partWriter) newline() {
	s := w.buf.String()
	if s == "" || strings.HasSuffix(s, "\n") {
		return
	}
	w.buf.WriteString("\n")
}

func (w *partWriter) special(name string) {
	w.flush()
	w.out = append(w.out, Part{Special: name})
}

func (w *partWriter) flush() {
	if w.buf.Len() == 0 {
		return
	}
	w.out = append(w.out, Part{Text: w.buf.String()})
	w.buf.Reset()
}

func (w *partWriter) parts() []Part {
	w.flush()
	return w.out
}
