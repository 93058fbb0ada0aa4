package app

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/medsim-backend/internal/platform/logger"
	"github.com/yungbote/medsim-backend/internal/platform/redis"
)

type nopAudioCache struct{}

func (nopAudioCache) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }
func (nopAudioCache) Put(ctx context.Context, key string, data []byte) error { return nil }
func (nopAudioCache) Close() error { return nil }

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	return log
}

func TestResolveAudioCache(t *testing.T) {
	log := newTestLogger(t)
	origRedis, origGCS := newRedisAudioCache, newGCSAudioCache
	t.Cleanup(func() { newRedisAudioCache, newGCSAudioCache = origRedis, origGCS })

	var gotRedis redis.Config
	newRedisAudioCache = func(ctx context.Context, log *logger.Logger, cfg redis.Config) (audioCacheBackend, error) {
		gotRedis = cfg
		return nopAudioCache{}, nil
	}
	newGCSAudioCache = func(ctx context.Context, log *logger.Logger, bucket, prefix string) (audioCacheBackend, error) {
		return nil, errors.New("dial gcs: refused")
	}

	tests := []struct {
		name     string
		cfg      Config
		wantNil  bool
		wantCode AudioCacheBootstrapErrorCode
	}{
		{"none", Config{AudioCacheMode: "none"}, true, ""},
		{"empty is none", Config{}, true, ""},
		{"redis", Config{AudioCacheMode: "redis", RedisAddr: "localhost:6379", RedisDB: 2}, false, ""},
		{"redis missing addr", Config{AudioCacheMode: "redis"}, true, AudioCacheBootstrapErrorMissingConfig},
		{"gcs missing bucket", Config{AudioCacheMode: "gcs"}, true, AudioCacheBootstrapErrorMissingConfig},
		{"gcs connect failure", Config{AudioCacheMode: "gcs", GCSAudioBucket: "b"}, true, AudioCacheBootstrapErrorConnectFailed},
		{"invalid", Config{AudioCacheMode: "memcached"}, true, AudioCacheBootstrapErrorInvalidMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, err := resolveAudioCache(context.Background(), log, tt.cfg)
			if tt.wantCode == "" && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantCode != "" {
				var be *AudioCacheBootstrapError
				if !errors.As(err, &be) {
					t.Fatalf("expected AudioCacheBootstrapError, got=%T", err)
				}
				if got := audioCacheBootstrapErrorCode(err); got != tt.wantCode {
					t.Fatalf("code: got=%q want=%q", got, tt.wantCode)
				}
			}
			if (cache == nil) != tt.wantNil {
				t.Fatalf("cache nil: got=%v want=%v", cache == nil, tt.wantNil)
			}
		})
	}
	if gotRedis.Addr != "localhost:6379" || gotRedis.DB != 2 {
		t.Fatalf("redis config: got=%+v", gotRedis)
	}
}

func TestAudioCacheBootstrapErrorCodeDefault(t *testing.T) {
	if got := audioCacheBootstrapErrorCode(errors.New("x")); got != AudioCacheBootstrapErrorConnectFailed {
		t.Fatalf("code: got=%q want=%q", got, AudioCacheBootstrapErrorConnectFailed)
	}
}
