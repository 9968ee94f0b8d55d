package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/omnihome/omnihome/pkg/tts"
)

// DumpWAV writes a PCM16 buffer to path as a WAV file. Used to capture
// synthesized speech for offline inspection.
func DumpWAV(path string, pcm []byte, format tts.AudioFormat) error {
	channels := format.Channels
	if channels == 0 {
		channels = 1
	}
	sampleRate := format.SampleRate
	if sampleRate == 0 {
		sampleRate = tts.SampleRateFromEncoding(format.Encoding)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: create wav file: %w", err)
	}

	samples := DecodePCM16(pcm)
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	buf := &gaudio.IntBuffer{
		Format: &gaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		f.Close()
		return fmt.Errorf("audio: write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("audio: finalize wav file: %w", err)
	}
	return f.Close()
}

// Dumper writes each buffer it receives to a timestamped WAV file in a
// directory. It plugs into the speaker's audio callback.
type Dumper struct {
	dir string
}

// NewDumper creates the dump directory if needed.
func NewDumper(dir string) (*Dumper, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audio: create dump dir: %w", err)
	}
	return &Dumper{dir: dir}, nil
}

// Dump writes one buffer and returns the file path.
func (d *Dumper) Dump(pcm []byte, format tts.AudioFormat) (string, error) {
	name := fmt.Sprintf("speech-%s.wav", time.Now().Format("20060102-150405.000"))
	path := filepath.Join(d.dir, name)
	if err := DumpWAV(path, pcm, format); err != nil {
		return "", err
	}
	return path, nil
}
