package redis

import (
	"context"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

func TestAudioCacheDefaults(t *testing.T) {
	log, _ := logger.New("test")
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	defer rdb.Close()

	c := NewAudioCacheWithClient(log, rdb, Config{})
	if got, want := c.key("m1"), "medsim:speech:m1"; got != want {
		t.Fatalf("key: got=%q want=%q", got, want)
	}
	if c.ttl != 24*time.Hour {
		t.Fatalf("ttl: got=%v want=24h", c.ttl)
	}
}

func TestNewAudioCacheRequiresAddr(t *testing.T) {
	log, _ := logger.New("test")
	if _, err := NewAudioCache(context.Background(), log, Config{}); err == nil {
		t.Fatalf("expected error without address")
	}
}
