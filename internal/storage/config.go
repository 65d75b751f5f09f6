package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/dunamismax/pixelconvert/internal/config"
)

// FromConfig builds the configured output backend: "local" (default) or "minio".
func FromConfig(ctx context.Context, out config.OutputConfig, s3 config.StorageConfig) (OutputStore, error) {
	switch strings.ToLower(strings.TrimSpace(out.Backend)) {
	case "", "local":
		return NewLocalOutputStore(out.LocalDir)
	case "minio", "s3":
		st, err := NewMinioOutputStore(MinioConfig{
			Endpoint: s3.Endpoint,
			Access:   s3.AccessKey,
			Secret:   s3.SecretKey,
			Bucket:   s3.Bucket,
			UseSSL:   s3.UseSSL,
			Prefix:   out.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := st.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unsupported output backend %q", out.Backend)
	}
}
