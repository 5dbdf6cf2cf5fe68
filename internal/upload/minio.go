package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/zinc-sig/grader/internal/layers"
)

// MinioProvider stores artifacts in a MinIO or S3 bucket.
type MinioProvider struct {
	client *minio.Client
	bucket string
	prefix string
}

func NewMinioProvider() *MinioProvider {
	return &MinioProvider{}
}

func (m *MinioProvider) Name() string {
	return "minio"
}

// Configure reads endpoint, access_key, secret_key and bucket (required) and
// secure, region and prefix (optional). An http:// or https:// scheme on the
// endpoint decides secure regardless of the secure key.
func (m *MinioProvider) Configure(ctx context.Context, config map[string]any) error {
	var required [4]string
	for i, key := range []string{"endpoint", "access_key", "secret_key", "bucket"} {
		v, ok := layers.String(config, key)
		if !ok || v == "" {
			return fmt.Errorf("minio: %s is required", key)
		}
		required[i] = v
	}
	endpoint, accessKey, secretKey, bucket := required[0], required[1], required[2], required[3]

	secure := layers.Bool(config, "secure", true)
	if host, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = host, true
	} else if host, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, secure = host, false
	}
	endpoint = strings.TrimSuffix(endpoint, "/")
	if endpoint == "" {
		return fmt.Errorf("minio: invalid endpoint URL %q", config["endpoint"])
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
		Region: layers.StringOr(config, "region", "us-east-1"),
	})
	if err != nil {
		return fmt.Errorf("minio: failed to create client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("minio: failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		return fmt.Errorf("minio: bucket %s does not exist", bucket)
	}

	m.client = client
	m.bucket = bucket
	m.prefix = layers.StringOr(config, "prefix", "")
	return nil
}

// ObjectName joins the configured prefix and key with forward slashes.
func (m *MinioProvider) ObjectName(key string) string {
	if m.prefix == "" {
		return key
	}
	return path.Join(m.prefix, key)
}

func (m *MinioProvider) Upload(ctx context.Context, r io.Reader, key string) error {
	if m.client == nil {
		return fmt.Errorf("minio: provider not configured")
	}

	object := m.ObjectName(key)
	// size -1 streams with multipart upload
	if _, err := m.client.PutObject(ctx, m.bucket, object, r, -1, minio.PutObjectOptions{}); err != nil {
		return fmt.Errorf("minio: failed to upload %s: %w", object, err)
	}
	return nil
}
