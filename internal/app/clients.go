package app

import (
	"context"
	"fmt"
	"io"

	"github.com/yungbote/medsim-backend/internal/platform/elevenlabs"
	"github.com/yungbote/medsim-backend/internal/platform/gcp"
	"github.com/yungbote/medsim-backend/internal/platform/llm"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
	"github.com/yungbote/medsim-backend/internal/platform/openai"
	"github.com/yungbote/medsim-backend/internal/platform/vertex"
	"github.com/yungbote/medsim-backend/internal/services"
)

const (
	LLMProviderVertex = "vertex"
	LLMProviderOpenAI = "openai"
	LLMProviderNone   = "none"
)

// Clients holds the upstream adapters. Any field may be nil; services fall back or
// report "not configured" accordingly.
type Clients struct {
	LLM        llm.Client
	TTS        services.TextToSpeech
	STT        services.SpeechToText
	AudioCache services.AudioCache
	Identity   services.IdentityVerifier

	closers []io.Closer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	model, err := newLLMClient(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}
	c.LLM = model

	if cfg.ElevenLabsAPIKey != "" {
		tts, err := elevenlabs.New(log, elevenlabs.Config{
			APIKey:  cfg.ElevenLabsAPIKey,
			VoiceID: cfg.ElevenLabsVoiceID,
			ModelID: cfg.ElevenLabsModelID,
			Timeout: cfg.TTSTimeout,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init elevenlabs client: %w", err)
		}
		c.TTS = tts
	} else {
		log.Warn("ELEVENLABS_API_KEY not set; patient speech disabled")
	}

	cache, err := resolveAudioCache(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}
	if cache != nil {
		c.AudioCache = cache
		c.closers = append(c.closers, cache)
	}

	if cfg.SpeechToText {
		stt, err := gcp.NewSpeech(ctx, log, gcp.SpeechConfig{
			LanguageCode: cfg.SpeechLanguage,
			Timeout:      cfg.SpeechTimeout,
		})
		if err != nil {
			c.Close()
			return Clients{}, fmt.Errorf("init speech client: %w", err)
		}
		c.STT = stt
		c.closers = append(c.closers, stt)
	}

	verifier, err := gcp.NewGoogleTokenVerifier(ctx, log, cfg.GoogleClientID)
	if err != nil {
		log.Warn("Google sign-in disabled", "error", err)
	} else {
		c.Identity = verifier
	}

	return c, nil
}

func newLLMClient(ctx context.Context, log *logger.Logger, cfg Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case LLMProviderVertex:
		model := cfg.TunedModel
		if model == "" {
			model = vertex.DefaultModel
		}
		client, err := vertex.New(ctx, log, vertex.Config{
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			Model:     model,
			Timeout:   cfg.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init vertex client: %w", err)
		}
		log.Info("Generative model configured", "provider", client.Provider(), "model", model)
		return client, nil
	case LLMProviderOpenAI:
		client, err := openai.New(log, openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai client: %w", err)
		}
		log.Info("Generative model configured", "provider", client.Provider())
		return client, nil
	default:
		log.Warn("No generative model configured; using canned patient replies and keyword feedback")
		return nil, nil
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
