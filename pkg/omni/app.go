package omni

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/omnihome/omnihome/internal/log"
	"github.com/omnihome/omnihome/pkg/assistant"
	"github.com/omnihome/omnihome/pkg/audio"
	"github.com/omnihome/omnihome/pkg/command"
	"github.com/omnihome/omnihome/pkg/home"
	"github.com/omnihome/omnihome/pkg/inference"
	"github.com/omnihome/omnihome/pkg/speech"
	"github.com/omnihome/omnihome/pkg/transcript"
	"github.com/omnihome/omnihome/pkg/tts"
	"github.com/omnihome/omnihome/pkg/web"
)

// utteranceQueueSize bounds the pending utterance queue. Utterances are
// processed one at a time; the queue absorbs card-click bursts.
const utteranceQueueSize = 16

// App is the OmniHome application.
type App struct {
	config Config

	state      *home.State
	dispatcher *command.Dispatcher
	transcript *transcript.Log
	responder  *assistant.Responder

	provider    inference.Provider
	ttsProvider tts.Provider
	speaker     speech.Speaker
	capture     speech.Capture
	player      *audio.Player

	webServer *web.Server

	utterances chan string
	workerWg   sync.WaitGroup
	logger     *slog.Logger
}

// New creates the application with the given configuration.
func New(cfg Config) (*App, error) {
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level)

	return &App{
		config:     cfg,
		utterances: make(chan string, utteranceQueueSize),
		logger:     log.L().With("component", "omni"),
	}, nil
}

// Init builds all components. Call after New and before Run.
func (a *App) Init() error {
	a.state = home.NewState()
	a.dispatcher = command.NewDispatcher(a.state)
	a.transcript = transcript.NewLog()

	provider, err := inference.NewGemini(geminiOptions(a.config)...)
	if err != nil {
		return fmt.Errorf("inference init: %w", err)
	}
	a.provider = provider

	var responderOpts []assistant.ResponderOption
	if a.config.Model != "" {
		responderOpts = append(responderOpts, assistant.WithModel(a.config.Model))
	}
	a.responder = assistant.NewResponder(a.provider, a.state, a.dispatcher, responderOpts...)

	var webOpts []web.Option
	if a.config.StaticDir != "" {
		webOpts = append(webOpts, web.WithStaticDir(a.config.StaticDir))
	}
	a.webServer = web.NewServer(a.config.Addr, a.state, a.transcript, webOpts...)
	a.webServer.OnUtterance = a.Enqueue
	a.webServer.OnMicToggle = a.toggleMic

	if err := a.initSpeaker(); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	a.initCapture()

	return nil
}

func geminiOptions(cfg Config) []inference.Option {
	opts := []inference.Option{inference.WithAPIKey(cfg.GeminiKey)}
	if cfg.Model != "" {
		opts = append(opts, inference.WithModel(cfg.Model))
	}
	return opts
}

// initSpeaker sets up spoken replies. Without an ElevenLabs key the
// assistant stays silent and replies appear on the dashboard only.
func (a *App) initSpeaker() error {
	if a.config.ElevenLabsKey == "" {
		a.logger.Info("no ELEVENLABS_API_KEY, spoken replies disabled")
		a.speaker = speech.NoopSpeaker{}
		return nil
	}

	opts := []tts.Option{tts.WithAPIKey(a.config.ElevenLabsKey)}
	if a.config.TTSVoice != "" {
		opts = append(opts, tts.WithVoice(a.config.TTSVoice))
	}
	provider, err := tts.NewElevenLabs(opts...)
	if err != nil {
		return err
	}
	a.ttsProvider = provider

	if a.config.TTSVoice == "" {
		a.selectVoice(provider)
	}

	synthOpts := []speech.SynthOption{speech.WithOnAudio(a.onAudio())}
	if a.config.LocalAudio {
		player, err := audio.NewPlayer()
		if err != nil {
			a.logger.Warn("local audio unavailable", "error", err)
		} else {
			a.player = player
			synthOpts = append(synthOpts, speech.WithSink(player))
		}
	}
	a.speaker = speech.NewSynthSpeaker(provider, synthOpts...)
	return nil
}

// selectVoice picks a voice from the provider catalog when none was
// configured.
func (a *App) selectVoice(provider *tts.ElevenLabs) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	voices, err := provider.Voices(ctx)
	if err != nil {
		a.logger.Warn("list voices", "error", err)
		return
	}
	if v, ok := speech.ChooseVoice(voices); ok {
		provider.SetVoice(v.ID)
		a.logger.Info("selected voice", "voice", v.Name, "language", v.Language)
	}
}

// onAudio mirrors spoken replies to the dashboard audio feed and the
// optional WAV dump.
func (a *App) onAudio() func(pcm []byte, format tts.AudioFormat) {
	var dumper *audio.Dumper
	if a.config.AudioDumpDir != "" {
		d, err := audio.NewDumper(a.config.AudioDumpDir)
		if err != nil {
			a.logger.Warn("audio dump disabled", "error", err)
		} else {
			dumper = d
		}
	}

	return func(pcm []byte, format tts.AudioFormat) {
		a.webServer.BroadcastAudio(pcm)
		if dumper == nil {
			return
		}
		if path, err := dumper.Dump(pcm, format); err != nil {
			a.logger.Warn("dump audio", "error", err)
		} else {
			a.logger.Debug("dumped audio", "path", path)
		}
	}
}

// initCapture connects the speech gateway when configured; otherwise
// the microphone toggle reports an idle capture that never listens.
func (a *App) initCapture() {
	if a.config.SpeechGatewayURL == "" {
		a.logger.Info("no speech gateway, microphone capture disabled")
		a.capture = speech.NoopCapture{}
		return
	}

	capture, err := speech.NewGatewayCapture(a.config.SpeechGatewayURL)
	if err != nil {
		a.logger.Warn("speech gateway unavailable", "error", err)
		a.capture = speech.NoopCapture{}
		return
	}
	a.capture = capture
}

// Run starts the dashboard and the utterance pipeline, blocking until
// the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.webServer.Start(); err != nil {
			errCh <- err
		}
	}()

	a.workerWg.Add(2)
	go a.utteranceWorker(ctx)
	go a.captureLoop(ctx)

	a.logger.Info("OmniHome ready", "addr", a.config.Addr)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("dashboard server: %w", err)
	}
}

// Shutdown releases all components.
func (a *App) Shutdown() {
	if a.capture != nil {
		a.capture.Close()
	}
	if a.webServer != nil {
		a.webServer.Shutdown()
	}
	if sp, ok := a.speaker.(*speech.SynthSpeaker); ok {
		sp.Wait()
	}
	if a.player != nil {
		a.player.Close()
	}
	if a.ttsProvider != nil {
		a.ttsProvider.Close()
	}
	if a.provider != nil {
		a.provider.Close()
	}
	a.workerWg.Wait()
}

// Enqueue feeds an utterance into the pipeline. Utterances are
// processed strictly one at a time; the call never blocks.
func (a *App) Enqueue(text string) {
	select {
	case a.utterances <- text:
	default:
		a.logger.Warn("utterance queue full, dropping", "chars", len(text))
	}
}

// utteranceWorker serializes the voice pipeline. Cancellation stops the
// loop between utterances; an exchange in flight runs to completion.
func (a *App) utteranceWorker(ctx context.Context) {
	defer a.workerWg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-a.utterances:
			a.handleUtterance(text)
		}
	}
}

// handleUtterance runs one full exchange: transcript, model round-trip,
// spoken reply, dashboard updates. Nothing here is fatal; every failure
// degrades to a displayed string.
func (a *App) handleUtterance(text string) {
	userMsg := a.transcript.Append(transcript.RoleUser, text)
	a.webServer.BroadcastTranscript(userMsg)
	a.webServer.SetProcessing(true)

	reply := a.responder.Respond(context.Background(), text)

	modelMsg := a.transcript.Append(transcript.RoleModel, reply)
	a.webServer.BroadcastTranscript(modelMsg)
	a.speaker.Speak(reply)

	// SetProcessing broadcasts the post-dispatch home snapshot along
	// with the flag change.
	a.webServer.SetProcessing(false)
}

// captureLoop forwards recognized utterances into the pipeline.
func (a *App) captureLoop(ctx context.Context) {
	defer a.workerWg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case text, ok := <-a.capture.Transcripts():
			if !ok {
				return
			}
			a.webServer.SetListening(false)
			a.Enqueue(text)
		}
	}
}

// toggleMic flips capture between Idle and Listening for the dashboard
// microphone button.
func (a *App) toggleMic() (bool, error) {
	if a.capture.State() == speech.Listening {
		a.capture.Stop()
		a.webServer.SetListening(false)
		return false, nil
	}
	if err := a.capture.Start(); err != nil {
		return false, err
	}
	a.webServer.SetListening(true)
	return true, nil
}

// Web exposes the dashboard server for tests.
func (a *App) Web() *web.Server {
	return a.webServer
}
