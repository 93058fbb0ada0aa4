package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/medsim-backend/internal/data/db"
	"github.com/yungbote/medsim-backend/internal/platform/envutil"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Env         string
	Port        string
	ServiceName string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	DevLoginEnabled bool
	GoogleClientID  string
	FrontendOrigin  string

	DB db.Config

	LLMProvider   string
	GCPProjectID  string
	GCPLocation   string
	TunedModel    string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	ElevenLabsAPIKey  string
	ElevenLabsVoiceID string
	ElevenLabsModelID string
	TTSTimeout        time.Duration

	AudioCacheMode string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	AudioCacheTTL  time.Duration
	GCSAudioBucket string
	GCSAudioPrefix string

	SpeechToText   bool
	SpeechLanguage string
	SpeechTimeout  time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	env := strings.ToLower(envutil.String("APP_ENV", "development"))
	cfg := Config{
		Env:         env,
		Port:        envutil.String("PORT", "8080"),
		ServiceName: envutil.String("OTEL_SERVICE_NAME", "medsim-api"),

		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL:  envutil.Seconds("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		DevLoginEnabled: envutil.Bool("DEV_LOGIN_ENABLED", env != "production"),
		GoogleClientID:  envutil.String("GOOGLE_CLIENT_ID", ""),
		FrontendOrigin:  envutil.String("FRONTEND_ORIGIN", ""),

		DB: db.Config{
			Driver:           envutil.String("DB_DRIVER", db.DriverPostgres),
			PostgresHost:     envutil.String("POSTGRES_HOST", "localhost"),
			PostgresPort:     envutil.String("POSTGRES_PORT", "5432"),
			PostgresUser:     envutil.String("POSTGRES_USER", "postgres"),
			PostgresPassword: envutil.String("POSTGRES_PASSWORD", ""),
			PostgresName:     envutil.String("POSTGRES_NAME", "medsim"),
			PostgresSSLMode:  envutil.String("POSTGRES_SSLMODE", "disable"),
			SQLitePath:       envutil.String("SQLITE_PATH", "medsim.db"),
			MaxOpenConns:     envutil.Int("DB_MAX_OPEN_CONNS", 0),
		},

		LLMProvider:   strings.ToLower(envutil.String("LLM_PROVIDER", "")),
		GCPProjectID:  envutil.String("GCP_PROJECT_ID", ""),
		GCPLocation:   envutil.String("GCP_LOCATION", "us-central1"),
		TunedModel:    envutil.String("TUNED_MODEL", ""),
		OpenAIAPIKey:  envutil.String("OPENAI_API_KEY", ""),
		OpenAIModel:   envutil.String("OPENAI_MODEL", ""),
		OpenAIBaseURL: envutil.String("OPENAI_BASE_URL", ""),
		LLMTimeout:    envutil.Seconds("LLM_TIMEOUT_SECONDS", 60*time.Second),

		ElevenLabsAPIKey:  envutil.String("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoiceID: envutil.String("ELEVENLABS_VOICE_ID", ""),
		ElevenLabsModelID: envutil.String("ELEVENLABS_MODEL_ID", ""),
		TTSTimeout:        envutil.Seconds("TTS_TIMEOUT_SECONDS", 60*time.Second),

		AudioCacheMode: strings.ToLower(envutil.String("AUDIO_CACHE_MODE", string(AudioCacheNone))),
		RedisAddr:      envutil.String("REDIS_ADDR", ""),
		RedisPassword:  envutil.String("REDIS_PASSWORD", ""),
		RedisDB:        envutil.Int("REDIS_DB", 0),
		AudioCacheTTL:  envutil.Seconds("AUDIO_CACHE_TTL_SECONDS", 7*24*time.Hour),
		GCSAudioBucket: envutil.String("GCS_AUDIO_BUCKET", ""),
		GCSAudioPrefix: envutil.String("GCS_AUDIO_PREFIX", "speech"),

		SpeechToText:   envutil.Bool("SPEECH_TO_TEXT_ENABLED", false),
		SpeechLanguage: envutil.String("SPEECH_LANGUAGE_CODE", "en-US"),
		SpeechTimeout:  envutil.Seconds("SPEECH_TIMEOUT_SECONDS", 60*time.Second),
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = inferLLMProvider(cfg)
	}
	if log != nil {
		log.Info("Config loaded",
			"env", cfg.Env,
			"db_driver", cfg.DB.Driver,
			"llm_provider", cfg.LLMProvider,
			"audio_cache_mode", cfg.AudioCacheMode,
			"dev_login", cfg.DevLoginEnabled,
			"speech_to_text", cfg.SpeechToText,
		)
	}
	return cfg
}

// inferLLMProvider keeps the original deployment shape working: a GCP project enables
// Vertex, an OpenAI key enables OpenAI, otherwise the canned/keyword paths run.
func inferLLMProvider(cfg Config) string {
	switch {
	case cfg.GCPProjectID != "":
		return LLMProviderVertex
	case cfg.OpenAIAPIKey != "":
		return LLMProviderOpenAI
	default:
		return LLMProviderNone
	}
}

func (c Config) Validate() error {
	if c.Env == "production" && (c.JWTSecretKey == "" || c.JWTSecretKey == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET_KEY must be set in production")
	}
	switch c.LLMProvider {
	case LLMProviderVertex, LLMProviderOpenAI, LLMProviderNone:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLMProvider)
	}
	if !isSupportedAudioCacheMode(AudioCacheMode(c.AudioCacheMode)) {
		return fmt.Errorf("unsupported AUDIO_CACHE_MODE %q", c.AudioCacheMode)
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
