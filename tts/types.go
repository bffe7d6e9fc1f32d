package tts

import (
	"time"
)

// TokenType identifies what a Token carries.
type TokenType string

const (
	// TokenLiteral carries prose to be spoken.
	TokenLiteral TokenType = "literal"
	// TokenSpecial carries an out-of-band marker (an emote id, a cue) with no spoken text.
	TokenSpecial TokenType = "special"
	// TokenFlush forces a chunk boundary without consuming input.
	TokenFlush TokenType = "flush"
)

// Token is one unit written into an intent's token stream.
type Token struct {
	Type      TokenType
	Value     string
	StreamID  string
	IntentID  string
	Sequence  int
	CreatedAt time.Time
}

// Reason records why the chunker cut a segment where it did.
type Reason string

const (
	// ReasonBoost marks a chunk emitted eagerly while the boost budget lasts.
	ReasonBoost Reason = "boost"
	// ReasonLimit marks a chunk cut because it reached the word limit.
	ReasonLimit Reason = "limit"
	// ReasonHard marks a chunk cut at sentence-ending punctuation or a line break.
	ReasonHard Reason = "hard"
	// ReasonFlush marks a chunk cut by an explicit flush or end of input.
	ReasonFlush Reason = "flush"
	// ReasonSpecial marks a chunk cut by a special marker.
	ReasonSpecial Reason = "special"
)

// Segment is a speakable chunk of text produced from a token stream.
type Segment struct {
	StreamID  string
	IntentID  string
	SegmentID string
	Sequence  int

	// Text is the speakable text. It may be empty for special segments.
	Text string

	// Special holds the marker payload paired with this segment, if HasSpecial.
	Special    string
	HasSpecial bool

	Reason    Reason
	Words     int
	CreatedAt time.Time
}

// SynthesisRequest is sent to the Synthesizer for one Segment.
type SynthesisRequest struct {
	StreamID   string
	IntentID   string
	SegmentID  string
	Sequence   int
	OwnerID    string
	Text       string
	Special    string
	HasSpecial bool
	Priority   int
	CreatedAt  time.Time
}

// SynthesisResult pairs a request with the audio the synthesizer produced.
// The result owns Audio until it is handed to a PlaybackItem.
type SynthesisResult struct {
	SynthesisRequest
	Audio *Audio
}

// PlaybackItem is the unit scheduled by the admission controller.
type PlaybackItem struct {
	// ID is fresh per item and never reused after the item leaves the active set.
	ID        string
	StreamID  string
	IntentID  string
	SegmentID string
	Sequence  int
	OwnerID   string
	Priority  int
	Text      string
	Special   string
	Audio     *Audio
	CreatedAt time.Time
}

// NewPlaybackItem wraps a synthesis result into a schedulable item.
func NewPlaybackItem(res SynthesisResult) PlaybackItem {
	return PlaybackItem{
		ID:        NewID(),
		StreamID:  res.StreamID,
		IntentID:  res.IntentID,
		SegmentID: res.SegmentID,
		Sequence:  res.Sequence,
		OwnerID:   res.OwnerID,
		Priority:  res.Priority,
		Text:      res.Text,
		Special:   res.Special,
		Audio:     res.Audio,
		CreatedAt: time.Now(),
	}
}

// Audio represents generated audio data.
type Audio struct {
	Data       []byte        // Raw audio data
	Format     AudioFormat   // Audio format (PCM16, Float32, etc.)
	SampleRate int           // Sample rate in Hz
	Channels   int           // Number of audio channels
	Duration   time.Duration // Duration of the audio
}

// AudioFormat represents the format of audio data.
type AudioFormat int

const (
	// FormatPCM16 represents 16-bit PCM audio.
	FormatPCM16 AudioFormat = iota
	// FormatFloat32 represents 32-bit float audio.
	FormatFloat32
)

// Behavior is the preemption rule an intent applies when another intent is active.
type Behavior string

const (
	// BehaviorQueue waits for the active intent to finish.
	BehaviorQueue Behavior = "queue"
	// BehaviorInterrupt cancels the active intent when its own priority is at least as high.
	BehaviorInterrupt Behavior = "interrupt"
	// BehaviorReplace cancels the active intent unconditionally.
	BehaviorReplace Behavior = "replace"
)

// Valid reports whether b is a known behavior.
func (b Behavior) Valid() bool {
	switch b {
	case BehaviorQueue, BehaviorInterrupt, BehaviorReplace:
		return true
	}
	return false
}

// OverflowPolicy is applied when admitting an item would exceed the global voice cap.
type OverflowPolicy string

const (
	OverflowQueue               OverflowPolicy = "queue"
	OverflowReject              OverflowPolicy = "reject"
	OverflowStealOldest         OverflowPolicy = "steal-oldest"
	OverflowStealLowestPriority OverflowPolicy = "steal-lowest-priority"
)

// Valid reports whether p is a known overflow policy.
func (p OverflowPolicy) Valid() bool {
	switch p {
	case OverflowQueue, OverflowReject, OverflowStealOldest, OverflowStealLowestPriority:
		return true
	}
	return false
}

// OwnerOverflowPolicy is applied when admitting an item would exceed its owner's quota.
type OwnerOverflowPolicy string

const (
	OwnerOverflowReject      OwnerOverflowPolicy = "reject"
	OwnerOverflowStealOldest OwnerOverflowPolicy = "steal-oldest"
)

// Valid reports whether p is a known owner overflow policy.
func (p OwnerOverflowPolicy) Valid() bool {
	return p == OwnerOverflowReject || p == OwnerOverflowStealOldest
}

// IntentInfo is the public snapshot of an intent carried by lifecycle events.
type IntentInfo struct {
	IntentID  string
	StreamID  string
	OwnerID   string
	Priority  int
	Behavior  Behavior
	CreatedAt time.Time
}
