package minioutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/kjk/flatstore/atomicfile"
	"github.com/kjk/flatstore/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type Config struct {
	Access   string
	Secret   string
	Bucket   string
	Endpoint string
	Region   string
	// use http instead of https, e.g. for a local minio server
	Insecure     bool
	RequestTrace io.Writer
}

// Validate returns an error if a required field is missing
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("must provide config")
	}
	var missing []string
	for _, f := range []struct{ name, v string }{
		{"Access", c.Access},
		{"Secret", c.Secret},
		{"Bucket", c.Bucket},
		{"Endpoint", c.Endpoint},
	} {
		if f.v == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing config fields: %s", strings.Join(missing, ", "))
	}
	return nil
}

type Client struct {
	Client *minio.Client
	config *Config
	Bucket string
}

// New creates a client and checks that the bucket exists
func New(ctx context.Context, config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	c := config
	mc, err := minio.New(c.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(c.Access, c.Secret, ""),
		Region: c.Region,
		Secure: !c.Insecure,
	})
	if err != nil {
		return nil, err
	}
	if c.RequestTrace != nil {
		mc.TraceOn(c.RequestTrace)
	}
	found, err := mc.BucketExists(ctx, c.Bucket)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("bucket '%s' doesn't exist", c.Bucket)
	}
	return &Client{
		Client: mc,
		config: c,
		Bucket: c.Bucket,
	}, nil
}

func (c *Client) URLBase() string {
	url := c.Client.EndpointURL()
	return fmt.Sprintf("%s://%s.%s/", url.Scheme, c.Bucket, url.Host)
}

func (c *Client) URLForPath(remotePath string) string {
	return c.URLBase() + strings.TrimPrefix(remotePath, "/")
}

func (c *Client) Exists(ctx context.Context, remotePath string) bool {
	_, err := c.Client.StatObject(ctx, c.Bucket, remotePath, minio.StatObjectOptions{})
	return err == nil
}

// contentTypeFor returns content type for a snapshot file name.
// Compressed snapshots are served as-is, not with Content-Encoding.
func contentTypeFor(remotePath string) string {
	ext := strings.ToLower(filepath.Ext(remotePath))
	switch ext {
	case ".gz":
		return "application/gzip"
	case ".zstd":
		return "application/zstd"
	case ".br":
		return "application/x-brotli"
	case ".mcufs", ".txt":
		return "text/plain; charset=utf-8"
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (c *Client) UploadFile(ctx context.Context, remotePath string, path string) (minio.UploadInfo, error) {
	opts := minio.PutObjectOptions{
		ContentType: contentTypeFor(remotePath),
	}
	return c.Client.FPutObject(ctx, c.Bucket, remotePath, path, opts)
}

// Upload uploads localPath as remotePath
func (c *Client) Upload(ctx context.Context, localPath string, remotePath string) error {
	info, err := c.UploadFile(ctx, remotePath, localPath)
	if err != nil {
		return fmt.Errorf("minioutil: uploading '%s' as '%s' failed with '%w'", localPath, remotePath, err)
	}
	log.Verbosef("minioutil: uploaded '%s' as '%s', %d bytes\n", localPath, remotePath, info.Size)
	return nil
}

// Download downloads remotePath as localPath
func (c *Client) Download(ctx context.Context, remotePath string, localPath string) error {
	return c.DownloadFileAtomically(ctx, localPath, remotePath)
}

func (c *Client) DownloadFileAtomically(ctx context.Context, dstPath string, remotePath string) error {
	obj, err := c.Client.GetObject(ctx, c.Bucket, remotePath, minio.GetObjectOptions{})
	if err != nil {
		return err
	}
	defer obj.Close()

	// ensure there's a dir for destination file
	dir := filepath.Dir(dstPath)
	if err = os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	_, err = atomicfile.WriteFrom(dstPath, obj)
	return err
}

// List returns objects whose name starts with prefix
func (c *Client) List(ctx context.Context, prefix string) iter.Seq2[minio.ObjectInfo, error] {
	return func(yield func(minio.ObjectInfo, error) bool) {
		opts := minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: true,
		}
		ctx, cancel := context.WithCancel(ctx)
		// stops the listing goroutine if we return early
		defer cancel()
		for oi := range c.Client.ListObjects(ctx, c.Bucket, opts) {
			if oi.Err != nil {
				yield(oi, oi.Err)
				return
			}
			if !yield(oi, nil) {
				return
			}
		}
	}
}

func (c *Client) Remove(ctx context.Context, remotePath string) error {
	return c.Client.RemoveObject(ctx, c.Bucket, remotePath, minio.RemoveObjectOptions{})
}
