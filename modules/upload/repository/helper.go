package repository

import (
	"context"
	"time"

	"auction-market/common"
	"auction-market/domain"
	"auction-market/pkg/upload"
)

// urlResolver turns stored paths into URLs a client can fetch: local files
// are served under the public base URL, S3 objects get presigned links.
type urlResolver struct {
	baseURL    string
	presignTTL time.Duration
	client     upload.Client
}

func (r *urlResolver) prepare(ctx context.Context, files ...*domain.File) error {
	for _, f := range files {
		if f == nil || f.Props == nil {
			continue
		}
		switch upload.Provider(f.Props.Provider) {
		case upload.Local:
			f.URL = common.JoinURLPath(r.baseURL, f.URL)
			if f.ThumbnailURL != "" {
				f.ThumbnailURL = common.JoinURLPath(r.baseURL, f.ThumbnailURL)
			}

		case upload.S3:
			url, err := r.client.GenerateGetPresignURL(ctx, f.Props.StoragePath, r.presignTTL)
			if err != nil {
				return err
			}
			f.URL = url

			if f.Props.ThumbStoragePath != "" {
				thumbURL, err := r.client.GenerateGetPresignURL(ctx, f.Props.ThumbStoragePath, r.presignTTL)
				if err != nil {
					return err
				}
				f.ThumbnailURL = thumbURL
			}
		}
	}
	return nil
}
