package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/medsim-backend/internal/platform/gcp"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
	"github.com/yungbote/medsim-backend/internal/platform/redis"
	"github.com/yungbote/medsim-backend/internal/services"
)

type AudioCacheMode string

const (
	AudioCacheNone  AudioCacheMode = "none"
	AudioCacheRedis AudioCacheMode = "redis"
	AudioCacheGCS   AudioCacheMode = "gcs"
)

func isSupportedAudioCacheMode(m AudioCacheMode) bool {
	switch m {
	case AudioCacheNone, AudioCacheRedis, AudioCacheGCS:
		return true
	}
	return false
}

var (
	newRedisAudioCache = func(ctx context.Context, log *logger.Logger, cfg redis.Config) (audioCacheBackend, error) {
		return redis.NewAudioCache(ctx, log, cfg)
	}
	newGCSAudioCache = func(ctx context.Context, log *logger.Logger, bucket, prefix string) (audioCacheBackend, error) {
		return gcp.NewAudioBucket(ctx, log, bucket, prefix)
	}
)

type audioCacheBackend interface {
	services.AudioCache
	io.Closer
}

type AudioCacheBootstrapErrorCode string

const (
	AudioCacheBootstrapErrorInvalidMode   AudioCacheBootstrapErrorCode = "invalid_mode"
	AudioCacheBootstrapErrorMissingConfig AudioCacheBootstrapErrorCode = "missing_config"
	AudioCacheBootstrapErrorConnectFailed AudioCacheBootstrapErrorCode = "connect_failed"
)

type AudioCacheBootstrapError struct {
	Code  AudioCacheBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *AudioCacheBootstrapError) Error() string {
	if e == nil {
		return "audio cache bootstrap failed"
	}
	return fmt.Sprintf("audio cache bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *AudioCacheBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveAudioCache builds the speech cache selected by AUDIO_CACHE_MODE.
// Mode "none" yields a nil cache and no error.
func resolveAudioCache(ctx context.Context, log *logger.Logger, cfg Config) (audioCacheBackend, error) {
	mode := AudioCacheMode(strings.ToLower(strings.TrimSpace(cfg.AudioCacheMode)))
	if mode == "" {
		mode = AudioCacheNone
	}
	fail := func(code AudioCacheBootstrapErrorCode, cause error) error {
		err := &AudioCacheBootstrapError{Code: code, Mode: string(mode), Cause: cause}
		log.Error("Audio cache bootstrap failed", "mode", mode, "error_code", code, "error", cause)
		return err
	}

	switch mode {
	case AudioCacheNone:
		log.Info("Audio cache disabled")
		return nil, nil
	case AudioCacheRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fail(AudioCacheBootstrapErrorMissingConfig, errors.New("REDIS_ADDR is required"))
		}
		log.Info("Selecting audio cache", "mode", mode, "addr", cfg.RedisAddr, "ttl", cfg.AudioCacheTTL)
		c, err := newRedisAudioCache(ctx, log, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.AudioCacheTTL,
		})
		if err != nil {
			return nil, fail(AudioCacheBootstrapErrorConnectFailed, err)
		}
		return c, nil
	case AudioCacheGCS:
		if strings.TrimSpace(cfg.GCSAudioBucket) == "" {
			return nil, fail(AudioCacheBootstrapErrorMissingConfig, errors.New("GCS_AUDIO_BUCKET is required"))
		}
		log.Info("Selecting audio cache", "mode", mode, "bucket", cfg.GCSAudioBucket, "prefix", cfg.GCSAudioPrefix)
		c, err := newGCSAudioCache(ctx, log, cfg.GCSAudioBucket, cfg.GCSAudioPrefix)
		if err != nil {
			return nil, fail(AudioCacheBootstrapErrorConnectFailed, err)
		}
		return c, nil
	default:
		return nil, fail(AudioCacheBootstrapErrorInvalidMode, fmt.Errorf("unsupported audio cache mode %q", mode))
	}
}

func audioCacheBootstrapErrorCode(err error) AudioCacheBootstrapErrorCode {
	var bootstrapErr *AudioCacheBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return AudioCacheBootstrapErrorConnectFailed
}
