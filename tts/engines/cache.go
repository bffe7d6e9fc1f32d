package engines

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"

	"github.com/dgnsrekt/speakflow/internal/cache"
	"github.com/dgnsrekt/speakflow/tts"
)

// Fingerprint identifies the settings that shape synthesized audio. Cached
// entries from a different fingerprint are never reused.
func Fingerprint(synth tts.SynthConfig, player tts.PlayerConfig) string {
	return fmt.Sprintf("%s|%s|%d|%d|%d", synth.Engine, synth.PiperModel, synth.WordsPerMinute, player.SampleRate, player.Channels)
}

// Cached answers repeated text from store. Misses go to synth and successful
// results are stored; errors and empty results are not.
func Cached(synth tts.Synthesizer, store cache.Store, fingerprint string, logger tts.Logger) tts.Synthesizer {
	return tts.SynthesizerFunc(func(ctx context.Context, req tts.SynthesisRequest) (*tts.Audio, error) {
		key := cacheKey(fingerprint, req.Text)
		if data, ok := store.Get(key); ok {
			audio, err := decodeAudio(data)
			if err == nil {
				return audio, nil
			}
			logger.Warn("Dropping unreadable cache entry", "segment", req.SegmentID, "error", err)
		}

		audio, err := synth.Synthesize(ctx, req)
		if err != nil || audio == nil {
			return audio, err
		}
		data, err := encodeAudio(audio)
		if err == nil {
			err = store.Put(key, data)
		}
		if err != nil {
			logger.Debug("Audio not cached", "segment", req.SegmentID, "error", err)
		}
		return audio, nil
	})
}

func cacheKey(fingerprint, text string) string {
	sum := sha256.Sum256([]byte(fingerprint + "\x00" + text))
	return hex.EncodeToString(sum[:])
}

func encodeAudio(a *tts.Audio) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAudio(data []byte) (*tts.Audio, error) {
	var a tts.Audio
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %w", cache.ErrCorrupted, err)
	}
	return &a, nil
}
