package gcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

// AudioBucket stores synthesized patient audio as GCS objects under prefix.
type AudioBucket struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
	prefix string
}

func NewAudioBucket(ctx context.Context, log *logger.Logger, bucket, prefix string) (*AudioBucket, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, fmt.Errorf("GCS_AUDIO_BUCKET is required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")) != "" {
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
	}
	c, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &AudioBucket{
		log:    log.With("client", "AudioBucket"),
		client: c,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (b *AudioBucket) objectKey(key string) string {
	if b.prefix == "" {
		return key + ".mp3"
	}
	return b.prefix + "/" + key + ".mp3"
}

// Get returns (nil, false, nil) when the object does not exist.
func (b *AudioBucket) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	r, err := b.client.Bucket(b.bucket).Object(b.objectKey(key)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, true, nil
}

func (b *AudioBucket) Put(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	w := b.client.Bucket(b.bucket).Object(b.objectKey(key)).NewWriter(ctx)
	w.ContentType = "audio/mpeg"
	w.CacheControl = "private, max-age=86400"
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (b *AudioBucket) Close() error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Close()
}
