// OmniHome - voice-driven smart home assistant.
// Captured or typed utterances drive Gemini function calls that mutate
// the in-memory home state, with spoken and dashboard replies.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/omnihome/omnihome/pkg/omni"
)

func main() {
	cfg := parseFlags()

	app, err := omni.New(cfg)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer app.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("runtime error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Environment overrides are applied by omni.New.
func parseFlags() omni.Config {
	cfg := omni.DefaultConfig()

	addr := flag.String("addr", cfg.Addr, "Dashboard listen address")
	staticDir := flag.String("static", cfg.StaticDir, "Dashboard asset directory (empty disables)")
	model := flag.String("model", "", "Inference model override")
	ttsVoice := flag.String("tts-voice", "", "ElevenLabs voice ID (default: auto-select)")
	gateway := flag.String("speech-gateway", "", "Speech gateway websocket URL (overrides SPEECH_GATEWAY_URL)")
	localAudio := flag.Bool("local-audio", false, "Play spoken replies on the local output device")
	dumpDir := flag.String("audio-dump", "", "Write spoken replies as WAV files to this directory")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")

	flag.Parse()

	cfg.Addr = *addr
	cfg.StaticDir = *staticDir
	cfg.Model = *model
	cfg.TTSVoice = *ttsVoice
	cfg.SpeechGatewayURL = *gateway
	cfg.LocalAudio = *localAudio
	cfg.AudioDumpDir = *dumpDir
	cfg.Debug = *debug

	return cfg
}
