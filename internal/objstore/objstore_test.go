package objstore

import (
	"testing"

	"github.com/bdia-labs/gaia-bench/internal/config"
)

func TestParseURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		in         string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{
			name:       "virtual hosted",
			in:         "https://my-bucket.s3.amazonaws.com/gaia_files/data.xlsx",
			wantBucket: "my-bucket",
			wantKey:    "gaia_files/data.xlsx",
		},
		{
			name:       "escaped key",
			in:         "https://my-bucket.s3.amazonaws.com/gaia_files/with%20space.pdf",
			wantBucket: "my-bucket",
			wantKey:    "gaia_files/with space.pdf",
		},
		{
			name:       "custom endpoint with port",
			in:         "http://files.minio.local:9000/gaia_files/a.png",
			wantBucket: "files",
			wantKey:    "gaia_files/a.png",
		},
		{name: "empty", in: "  ", wantErr: true},
		{name: "no host", in: "/gaia_files/a.png", wantErr: true},
		{name: "no key", in: "https://my-bucket.s3.amazonaws.com/", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			bucket, key, err := ParseURL(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseURL(%q): expected error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURL(%q): %v", tc.in, err)
			}
			if bucket != tc.wantBucket || key != tc.wantKey {
				t.Fatalf("ParseURL(%q): got (%q, %q) want (%q, %q)", tc.in, bucket, key, tc.wantBucket, tc.wantKey)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(config.ObjectStoreConfig{Bucket: "b"}); err == nil {
		t.Fatalf("missing endpoint: expected error")
	}
	if _, err := New(config.ObjectStoreConfig{Endpoint: "s3.amazonaws.com"}); err == nil {
		t.Fatalf("missing bucket: expected error")
	}
}

func TestObjectKeyAndURL(t *testing.T) {
	t.Parallel()

	c, err := New(config.ObjectStoreConfig{
		Endpoint:  "s3.amazonaws.com",
		Bucket:    "bench-bucket",
		AccessKey: "ak",
		SecretKey: "sk",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	key := c.ObjectKey(" data.xlsx ")
	if key != "gaia_files/data.xlsx" {
		t.Fatalf("ObjectKey: got %q", key)
	}

	u := c.ObjectURL(key)
	want := "https://bench-bucket.s3.amazonaws.com/gaia_files/data.xlsx"
	if u != want {
		t.Fatalf("ObjectURL: got %q want %q", u, want)
	}

	// Round trip through ParseURL recovers the stored identity.
	bucket, parsedKey, err := ParseURL(u)
	if err != nil {
		t.Fatalf("ParseURL: %v", err)
	}
	if bucket != "bench-bucket" || parsedKey != key {
		t.Fatalf("round trip: got (%q, %q)", bucket, parsedKey)
	}
}

func TestObjectURLInsecure(t *testing.T) {
	t.Parallel()

	c, err := New(config.ObjectStoreConfig{
		Endpoint:   "minio.local:9000",
		Bucket:     "bench",
		Prefix:     "files",
		DisableSSL: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	u := c.ObjectURL(c.ObjectKey("a.png"))
	if u != "http://bench.minio.local:9000/files/a.png" {
		t.Fatalf("ObjectURL: got %q", u)
	}
}

func TestNilClientGuards(t *testing.T) {
	t.Parallel()

	var c *Client
	if _, err := c.PresignedGetURL(nil, "", 0); err == nil { //nolint:staticcheck
		t.Fatalf("PresignedGetURL(nil): expected error")
	}
	if _, err := c.DownloadToTemp(nil, ""); err == nil { //nolint:staticcheck
		t.Fatalf("DownloadToTemp(nil): expected error")
	}
	if _, err := c.Upload(nil, "", nil, 0); err == nil { //nolint:staticcheck
		t.Fatalf("Upload(nil): expected error")
	}
	if _, err := c.Exists(nil, ""); err == nil { //nolint:staticcheck
		t.Fatalf("Exists(nil): expected error")
	}
}
