package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Config holds the object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// BanksDir is the key prefix bank files live under.
	BanksDir string
	// PointerKey is the object holding the current-bank pointer document.
	PointerKey string
}

// Client accesses the bank bucket: spreadsheet files under a banks prefix and
// a single pointer object naming the current bank per category.
type Client struct {
	api        *minio.Client
	bucket     string
	banksDir   string
	pointerKey string
}

// New connects to the object store and verifies the bucket exists.
func New(ctx context.Context, cfg Config) (*Client, error) {
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect object store: %w", err)
	}

	ok, err := api.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !ok {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	return &Client{
		api:        api,
		bucket:     cfg.Bucket,
		banksDir:   strings.Trim(cfg.BanksDir, "/"),
		pointerKey: cfg.PointerKey,
	}, nil
}

// Download fetches an object by its full key.
func (c *Client) Download(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.api.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// UploadBank stores a spreadsheet under the banks prefix and returns its key.
func (c *Client) UploadBank(ctx context.Context, name string, data []byte) (string, error) {
	key := c.bankKey(name)
	_, err := c.api.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: xlsxContentType,
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}
	return key, nil
}

// ListBanks returns the keys of the spreadsheet files under the banks prefix.
func (c *Client) ListBanks(ctx context.Context) ([]string, error) {
	prefix := c.banksDir
	if prefix != "" {
		prefix += "/"
	}

	var keys []string
	for obj := range c.api.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list banks: %w", obj.Err)
		}
		if strings.HasSuffix(strings.ToLower(obj.Key), ".xlsx") {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

// ReadPointer loads the pointer document. A missing pointer object is not an
// error; it reads as an empty pointer.
func (c *Client) ReadPointer(ctx context.Context) (Pointer, error) {
	data, err := c.Download(ctx, c.pointerKey)
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return Pointer{}, nil
		}
		return Pointer{}, err
	}
	return DecodePointer(data)
}

// WritePointer stores the pointer document.
func (c *Client) WritePointer(ctx context.Context, p Pointer) error {
	data, err := p.Encode()
	if err != nil {
		return err
	}
	_, err = c.api.PutObject(ctx, c.bucket, c.pointerKey, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", c.pointerKey, err)
	}
	return nil
}

// ResolveCurrent returns the key of the current bank for a category, falling
// back when the pointer is missing or unreadable.
func (c *Client) ResolveCurrent(ctx context.Context, category, fallback string) string {
	p, err := c.ReadPointer(ctx)
	if err != nil {
		slog.Warn("bank pointer unreadable, using fallback", "error", err, "fallback", fallback)
		return fallback
	}
	return p.Resolve(category, fallback)
}

// SetCurrent points a category at a bank file. Bare names are resolved under
// the banks prefix; keys already carrying a path are used as-is.
func (c *Client) SetCurrent(ctx context.Context, category, name string) error {
	key := name
	if !strings.Contains(name, "/") {
		key = c.bankKey(name)
	}

	p, err := c.ReadPointer(ctx)
	if err != nil {
		return err
	}
	p.SetCurrent(category, key)
	return c.WritePointer(ctx, p)
}

func (c *Client) bankKey(name string) string {
	return path.Join(c.banksDir, path.Base(name))
}
