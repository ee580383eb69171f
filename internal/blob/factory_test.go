package blob

import (
	"context"
	"path/filepath"
	"testing"

	"folio/internal/config"
)

func TestNewBlobStoreFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := NewBlobStoreFromConfig(ctx, config.BlobConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewBlobStoreFromConfig() error: %v", err)
		}
		if _, ok := s.(*MemoryStore); !ok {
			t.Errorf("got %T, want *MemoryStore", s)
		}
	})

	t.Run("filesystem", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "blobs")
		s, err := NewBlobStoreFromConfig(ctx, config.BlobConfig{Type: "filesystem", Root: root})
		if err != nil {
			t.Fatalf("NewBlobStoreFromConfig() error: %v", err)
		}
		if err := s.ValidateSetup(ctx); err != nil {
			t.Errorf("ValidateSetup() = %v", err)
		}
	})

	t.Run("s3 with static credentials", func(t *testing.T) {
		s, err := NewBlobStoreFromConfig(ctx, config.BlobConfig{
			Type:        "s3",
			S3Bucket:    "folio",
			S3Prefix:    "test",
			S3Region:    "us-east-1",
			S3Endpoint:  "http://127.0.0.1:9000",
			S3AccessKey: "key",
			S3SecretKey: "secret",
		})
		if err != nil {
			t.Fatalf("NewBlobStoreFromConfig() error: %v", err)
		}
		s3s, ok := s.(*S3Store)
		if !ok {
			t.Fatalf("got %T, want *S3Store", s)
		}
		if s3s.bucket != "folio" || s3s.prefix != "test" {
			t.Errorf("bucket/prefix = %q/%q, want folio/test", s3s.bucket, s3s.prefix)
		}
	})

	errorCases := []struct {
		name string
		cfg  config.BlobConfig
	}{
		{"filesystem without root", config.BlobConfig{Type: "filesystem"}},
		{"s3 without bucket", config.BlobConfig{Type: "s3"}},
		{"unknown type", config.BlobConfig{Type: "ftp"}},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewBlobStoreFromConfig(ctx, tt.cfg); err == nil {
				t.Error("NewBlobStoreFromConfig() expected error, got nil")
			}
		})
	}
}
