package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/omnihome/omnihome/pkg/tts"
)

// ErrPlayerClosed is returned when playing on a closed player.
var ErrPlayerClosed = errors.New("audio: player closed")

const framesPerBuffer = 1024

// Player plays raw PCM16 audio on the default output device via
// PortAudio. It satisfies the playback sink expected by the speech
// layer. Play blocks until the buffer has been written to the device.
type Player struct {
	mu     sync.Mutex
	closed bool
}

// NewPlayer initializes PortAudio and returns a player.
func NewPlayer() (*Player, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("audio: initialize portaudio: %w", err)
	}
	return &Player{}, nil
}

// Play writes the PCM buffer to the default output stream.
func (p *Player) Play(pcm []byte, format tts.AudioFormat) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrPlayerClosed
	}
	if len(pcm) == 0 {
		return nil
	}

	channels := format.Channels
	if channels == 0 {
		channels = 1
	}
	sampleRate := format.SampleRate
	if sampleRate == 0 {
		sampleRate = tts.SampleRateFromEncoding(format.Encoding)
	}

	samples := DecodePCM16(pcm)
	buf := make([]int16, framesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), framesPerBuffer, &buf)
	if err != nil {
		return fmt.Errorf("audio: open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("audio: start output stream: %w", err)
	}
	defer stream.Stop()

	for offset := 0; offset < len(samples); offset += len(buf) {
		n := copy(buf, samples[offset:])
		// Pad the final chunk with silence so the stream write stays
		// aligned to the buffer size.
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
		if err := stream.Write(); err != nil {
			return fmt.Errorf("audio: write output stream: %w", err)
		}
	}
	return nil
}

// Close terminates PortAudio. The player cannot be reused.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return portaudio.Terminate()
}
