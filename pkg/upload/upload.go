package upload

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

type Provider string

const (
	Local Provider = "local"
	S3    Provider = "s3"

	DefaultThumbnailWidthInPx  = 400
	DefaultThumbnailHeightInPx = 400
)

type Client interface {
	// Upload stores files under subPath. The result is in input order.
	Upload(ctx context.Context, files []*File, subPath string) ([]*UploadedFileInfo, error)
	Remove(ctx context.Context, fileInfos []*UploadedFileInfo) error
	GenerateGetPresignURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
	Provider() Provider
}

type Config struct {
	LocalDir string

	S3AccessKey   string
	S3SecretKey   string
	S3EndpointURL string
	S3BucketName  string
	S3PathPrefix  string
	S3Region      string
}

func New(provider Provider, options *Config) (Client, error) {
	switch provider {
	case Local:
		return NewLocalUploader(options)
	case S3:
		return NewS3Provider(options)
	default:
		return nil, fmt.Errorf("unsupported upload provider: %s", provider)
	}
}

// uploadAll runs store for every file on a bounded worker pool and cancels
// the remaining work on the first failure.
func uploadAll(ctx context.Context, files []*File, store func(ctx context.Context, file *File) (*UploadedFileInfo, error)) ([]*UploadedFileInfo, error) {
	fileInfos := make([]*UploadedFileInfo, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for idx, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			info, err := store(gctx, file)
			if err != nil {
				return err
			}
			fileInfos[idx] = info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fileInfos, nil
}
