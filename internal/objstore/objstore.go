// Package objstore wraps S3-compatible object storage for question
// attachments.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/bdia-labs/gaia-bench/internal/config"
	"github.com/bdia-labs/gaia-bench/internal/gaia"
)

// DefaultPresignExpiry matches the dashboard's one-hour download links.
const DefaultPresignExpiry = time.Hour

// Client is a bucket-scoped view of an S3-compatible endpoint.
type Client struct {
	mc       *minio.Client
	endpoint string
	secure   bool
	bucket   string
	prefix   string
}

// New connects to the configured endpoint. The endpoint is host[:port]
// without a scheme; the bucket must already exist.
func New(cfg config.ObjectStoreConfig) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("objstore: missing endpoint")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, errors.New("objstore: missing bucket")
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: !cfg.DisableSSL,
		Region: strings.TrimSpace(cfg.Region),
	})
	if err != nil {
		return nil, fmt.Errorf("objstore: connect %q: %w", endpoint, err)
	}

	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = "gaia_files"
	}

	return &Client{
		mc:       mc,
		endpoint: endpoint,
		secure:   !cfg.DisableSSL,
		bucket:   bucket,
		prefix:   prefix,
	}, nil
}

// ParseURL splits a virtual-hosted object URL into bucket and key: the
// bucket is the first label of the hostname and the key is the unescaped
// path without its leading slash.
func ParseURL(raw string) (bucket, key string, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", errors.New("objstore: empty object url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("objstore: parse object url: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return "", "", fmt.Errorf("objstore: object url %q has no host", raw)
	}
	bucket = strings.Split(host, ".")[0]
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("objstore: object url %q has no key", raw)
	}
	return bucket, key, nil
}

// ObjectKey returns the bucket key for an attachment name.
func (c *Client) ObjectKey(name string) string {
	if c == nil {
		return strings.TrimSpace(name)
	}
	return path.Join(c.prefix, strings.TrimSpace(name))
}

// ObjectURL returns the virtual-hosted URL stored on question rows.
func (c *Client) ObjectURL(key string) string {
	if c == nil {
		return ""
	}
	scheme := "https"
	if !c.secure {
		scheme = "http"
	}
	return fmt.Sprintf("%s://%s.%s/%s", scheme, c.bucket, c.endpoint, key)
}

// PresignedGetURL issues a temporary GET link for a stored object URL.
func (c *Client) PresignedGetURL(ctx context.Context, objectURL string, expiry time.Duration) (string, error) {
	if c == nil || c.mc == nil {
		return "", errors.New("objstore: nil client")
	}
	if ctx == nil {
		return "", errors.New("objstore: nil context")
	}
	bucket, key, err := ParseURL(objectURL)
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = DefaultPresignExpiry
	}

	u, err := c.mc.PresignedGetObject(ctx, bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("objstore: presign %q: %w", key, err)
	}
	return u.String(), nil
}

// DownloadToTemp fetches an object into a temp file that keeps the object's
// extension, so downstream transports can classify it. The caller removes
// the file when done.
func (c *Client) DownloadToTemp(ctx context.Context, objectURL string) (string, error) {
	if c == nil || c.mc == nil {
		return "", errors.New("objstore: nil client")
	}
	if ctx == nil {
		return "", errors.New("objstore: nil context")
	}
	bucket, key, err := ParseURL(objectURL)
	if err != nil {
		return "", err
	}

	obj, err := c.mc.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("objstore: get %q: %w", key, err)
	}
	defer obj.Close()

	ext := gaia.ExtensionOf(path.Base(key))
	tmp, err := os.CreateTemp("", "gaia-*"+ext)
	if err != nil {
		return "", fmt.Errorf("objstore: create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, obj); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("objstore: download %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("objstore: close temp file: %w", err)
	}
	return tmp.Name(), nil
}

// Upload stores an attachment under the configured prefix and returns the
// object URL to persist on the question row. Pass size -1 when unknown.
func (c *Client) Upload(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	if c == nil || c.mc == nil {
		return "", errors.New("objstore: nil client")
	}
	if ctx == nil {
		return "", errors.New("objstore: nil context")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("objstore: empty object name")
	}

	key := c.ObjectKey(name)
	if _, err := c.mc.PutObject(ctx, c.bucket, key, r, size, minio.PutObjectOptions{}); err != nil {
		return "", fmt.Errorf("objstore: upload %q: %w", key, err)
	}
	return c.ObjectURL(key), nil
}

// Exists reports whether an attachment is already stored.
func (c *Client) Exists(ctx context.Context, name string) (bool, error) {
	if c == nil || c.mc == nil {
		return false, errors.New("objstore: nil client")
	}
	if ctx == nil {
		return false, errors.New("objstore: nil context")
	}

	key := c.ObjectKey(name)
	_, err := c.mc.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	return false, fmt.Errorf("objstore: stat %q: %w", key, err)
}
