package pipeline

import (
	"sync"
	"time"

	"github.com/dgnsrekt/speakflow/tts"
)

// IntentHandle writes tokens into one intent. Writes after End or Cancel are dropped.
type IntentHandle struct {
	p  *Pipeline
	in *intent

	mu  sync.Mutex
	seq int
}

// ID returns the intent id.
func (h *IntentHandle) ID() string { return h.in.info.IntentID }

// StreamID returns the stream id.
func (h *IntentHandle) StreamID() string { return h.in.info.StreamID }

// Priority returns the resolved priority score.
func (h *IntentHandle) Priority() int { return h.in.info.Priority }

// WriteLiteral appends prose to be spoken.
func (h *IntentHandle) WriteLiteral(text string) {
	if text == "" {
		return
	}
	h.write(tts.TokenLiteral, text)
}

// WriteSpecial appends an out-of-band marker that is emitted without spoken text.
func (h *IntentHandle) WriteSpecial(marker string) {
	h.write(tts.TokenSpecial, marker)
}

// WriteFlush forces a segment boundary.
func (h *IntentHandle) WriteFlush() {
	h.write(tts.TokenFlush, "")
}

// End closes the token stream. Already written tokens are still spoken.
func (h *IntentHandle) End() {
	h.in.tokens.Close()
}

// Cancel cancels the intent. It is safe to call more than once.
func (h *IntentHandle) Cancel(reason string) {
	if reason == "" {
		reason = tts.ReasonCanceled
	}
	h.p.mu.Lock()
	defer h.p.mu.Unlock()
	h.p.cancelLocked(h.in, reason)
}

func (h *IntentHandle) write(typ tts.TokenType, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.in.tokens.Write(tts.Token{
		Type:      typ,
		Value:     value,
		StreamID:  h.in.info.StreamID,
		IntentID:  h.in.info.IntentID,
		Sequence:  h.seq,
		CreatedAt: time.Now(),
	})
	h.seq++
}
