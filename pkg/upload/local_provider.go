package upload

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"
)

// StaticsFsPath is the URL prefix the HTTP server serves LocalDir under.
const StaticsFsPath = "/uploads/"

// LocalUploader writes files below a directory. Storage paths are relative
// to that directory so they map one to one onto static URLs.
type LocalUploader struct {
	uploadDirPath string
}

func NewLocalUploader(opts *Config) (*LocalUploader, error) {
	if opts.LocalDir == "" {
		return nil, errors.New("local upload dir is required")
	}
	if err := os.MkdirAll(opts.LocalDir, 0o755); err != nil {
		return nil, err
	}
	return &LocalUploader{
		uploadDirPath: opts.LocalDir,
	}, nil
}

func (u *LocalUploader) Provider() Provider {
	return Local
}

func (u *LocalUploader) diskPath(storagePath string) string {
	return filepath.Join(u.uploadDirPath, filepath.FromSlash(storagePath))
}

func (u *LocalUploader) saveFile(content []byte, storagePath string) error {
	dst := u.diskPath(storagePath)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, content, 0o644)
}

func (u *LocalUploader) Upload(ctx context.Context, files []*File, subPath string) ([]*UploadedFileInfo, error) {
	return uploadAll(ctx, files, func(_ context.Context, file *File) (*UploadedFileInfo, error) {
		hash := generateHash()
		fileInfo := newUploadedFileInfo(file, Local)
		fileInfo.StoragePath = path.Join(subPath, generateFileName(file.Name, hash))

		if err := u.saveFile(file.Content, fileInfo.StoragePath); err != nil {
			return nil, err
		}
		fileInfo.URL = path.Join(StaticsFsPath, fileInfo.StoragePath)

		if !file.IsImage() {
			return fileInfo, nil
		}

		// Undecodable images are kept without a thumbnail
		thumb, err := MakeThumbnail(file.Content, DefaultThumbnailWidthInPx, DefaultThumbnailHeightInPx)
		if err != nil {
			return fileInfo, nil
		}
		fileInfo.Width = thumb.Width
		fileInfo.Height = thumb.Height
		fileInfo.ThumbnailStoragePath = path.Join(subPath, generateThumbnailName(file.Name, hash))
		if err := u.saveFile(thumb.Content, fileInfo.ThumbnailStoragePath); err != nil {
			return nil, err
		}
		fileInfo.ThumbnailURL = path.Join(StaticsFsPath, fileInfo.ThumbnailStoragePath)

		return fileInfo, nil
	})
}

// Remove ignores files that are already gone.
func (u *LocalUploader) Remove(_ context.Context, fileInfos []*UploadedFileInfo) error {
	var errs []error
	for _, fileInfo := range fileInfos {
		for _, p := range []string{fileInfo.StoragePath, fileInfo.ThumbnailStoragePath} {
			if p == "" {
				continue
			}
			if err := os.Remove(u.diskPath(p)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// GenerateGetPresignURL returns the static URL, local files are not signed.
func (u *LocalUploader) GenerateGetPresignURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return path.Join(StaticsFsPath, objectKey), nil
}
