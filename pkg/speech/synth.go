package speech

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/omnihome/omnihome/internal/log"
	"github.com/omnihome/omnihome/pkg/tts"
)

// Sink plays raw PCM16 audio. Implementations block until playback of
// the given buffer completes.
type Sink interface {
	Play(pcm []byte, format tts.AudioFormat) error
	Close() error
}

const synthesisTimeout = 30 * time.Second

// SynthSpeaker speaks by synthesizing text through a tts.Provider and
// playing the result on a Sink. Playback is serialized so overlapping
// Speak calls never mix audio; each call returns immediately.
type SynthSpeaker struct {
	provider tts.Provider
	sink     Sink
	onAudio  func(pcm []byte, format tts.AudioFormat)
	logger   *slog.Logger

	playMu sync.Mutex
	wg     sync.WaitGroup
}

var _ Speaker = (*SynthSpeaker)(nil)

// SynthOption configures a SynthSpeaker.
type SynthOption func(*SynthSpeaker)

// WithSink sets the playback sink. Without one, synthesized audio is
// only forwarded to the OnAudio callback.
func WithSink(s Sink) SynthOption {
	return func(sp *SynthSpeaker) { sp.sink = s }
}

// WithOnAudio sets a callback invoked with each synthesized buffer,
// used to mirror playback to connected dashboards.
func WithOnAudio(fn func(pcm []byte, format tts.AudioFormat)) SynthOption {
	return func(sp *SynthSpeaker) { sp.onAudio = fn }
}

// WithSpeakerLogger sets the logger.
func WithSpeakerLogger(l *slog.Logger) SynthOption {
	return func(sp *SynthSpeaker) { sp.logger = l }
}

// NewSynthSpeaker creates a speaker backed by the given TTS provider.
func NewSynthSpeaker(provider tts.Provider, opts ...SynthOption) *SynthSpeaker {
	sp := &SynthSpeaker{
		provider: provider,
		logger:   log.L(),
	}
	for _, opt := range opts {
		opt(sp)
	}
	return sp
}

// Speak implements Speaker. Synthesis and playback run in the
// background; failures are logged and the text is dropped.
func (sp *SynthSpeaker) Speak(text string) {
	if text == "" {
		return
	}
	sp.wg.Add(1)
	go func() {
		defer sp.wg.Done()
		sp.speak(text)
	}()
}

func (sp *SynthSpeaker) speak(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), synthesisTimeout)
	defer cancel()

	result, err := sp.provider.Synthesize(ctx, text)
	if err != nil {
		sp.logger.Warn("speech: synthesis failed", "error", err, "chars", len(text))
		return
	}

	sp.playMu.Lock()
	defer sp.playMu.Unlock()

	if sp.onAudio != nil {
		sp.onAudio(result.Audio, result.Format)
	}
	if sp.sink == nil {
		return
	}
	if err := sp.sink.Play(result.Audio, result.Format); err != nil {
		sp.logger.Warn("speech: playback failed", "error", err)
	}
}

// Wait blocks until all in-flight Speak calls finish. Intended for
// shutdown and tests.
func (sp *SynthSpeaker) Wait() {
	sp.wg.Wait()
}
