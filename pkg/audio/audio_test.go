package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"

	"github.com/omnihome/omnihome/pkg/tts"
)

func TestPCM16RoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	data := EncodePCM16(samples)
	if len(data) != len(samples)*2 {
		t.Fatalf("encoded %d bytes, want %d", len(data), len(samples)*2)
	}
	got := DecodePCM16(data)
	if len(got) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(got), len(samples))
	}
	for i := range samples {
		if got[i] != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got[i], samples[i])
		}
	}
}

func TestDecodePCM16OddByteIgnored(t *testing.T) {
	got := DecodePCM16([]byte{0x01, 0x00, 0xff})
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("DecodePCM16 = %v, want [1]", got)
	}
}

func TestDumpWAV(t *testing.T) {
	samples := make([]int16, 2400)
	for i := range samples {
		samples[i] = int16(i % 256)
	}
	pcm := EncodePCM16(samples)
	path := filepath.Join(t.TempDir(), "out.wav")

	format := tts.AudioFormat{
		Encoding:   tts.EncodingPCM24,
		SampleRate: 24000,
		Channels:   1,
		BitDepth:   16,
	}
	if err := DumpWAV(path, pcm, format); err != nil {
		t.Fatalf("DumpWAV() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open dumped file: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode dumped file: %v", err)
	}
	if dec.SampleRate != 24000 {
		t.Errorf("sample rate = %d, want 24000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Errorf("channels = %d, want 1", dec.NumChans)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i := 0; i < 10; i++ {
		if buf.Data[i] != int(samples[i]) {
			t.Errorf("sample %d = %d, want %d", i, buf.Data[i], samples[i])
		}
	}
}

func TestDumperWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dumps")
	d, err := NewDumper(dir)
	if err != nil {
		t.Fatalf("NewDumper() error = %v", err)
	}

	pcm := EncodePCM16(make([]int16, 480))
	path, err := d.Dump(pcm, tts.AudioFormat{SampleRate: 24000, Channels: 1, BitDepth: 16})
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("dumped file missing: %v", err)
	}
}
