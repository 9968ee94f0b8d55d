// Package audio handles local audio output: PCM16 playback through
// PortAudio and WAV capture of synthesized speech for debugging.
package audio

import "encoding/binary"

// DecodePCM16 converts little-endian PCM16 bytes to samples. A trailing
// odd byte is ignored.
func DecodePCM16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// EncodePCM16 converts samples to little-endian PCM16 bytes.
func EncodePCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
