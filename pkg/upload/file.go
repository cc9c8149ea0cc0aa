package upload

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	"github.com/samber/lo"
)

const (
	HashLength = 32
)

type File struct {
	Name    string `json:"name"`
	Mime    string `json:"mime"`
	Content []byte `json:"content"`
}

func (file *File) IsImage() bool {
	return strings.HasPrefix(file.Mime, "image/")
}

type UploadedFileInfo struct {
	Name                 string   `json:"name"`
	Mime                 string   `json:"mime"`
	Ext                  string   `json:"ext"`
	URL                  string   `json:"url"`
	ThumbnailURL         string   `json:"thumbnail_url"`
	Width                int64    `json:"width"`
	Height               int64    `json:"height"`
	Size                 int64    `json:"size"`
	StoragePath          string   `json:"storage_path"`
	ThumbnailStoragePath string   `json:"thumbnail_storage_path"`
	Provider             Provider `json:"provider"`
}

func newUploadedFileInfo(file *File, provider Provider) *UploadedFileInfo {
	return &UploadedFileInfo{
		Name:     file.Name,
		Mime:     file.Mime,
		Ext:      getExt(file.Name),
		Size:     int64(len(file.Content)),
		Provider: provider,
	}
}

func getExt(fileName string) string {
	return strings.ToLower(path.Ext(fileName))
}

func generateHash() string {
	return lo.RandomString(HashLength, lo.AlphanumericCharset)
}

func sanitizeFileName(filename string) string {
	return strings.ReplaceAll(path.Base(filename), " ", "-")
}

func generateFileName(filename, hash string) string {
	return hash + "_" + sanitizeFileName(filename)
}

// Thumbnails are always PNG regardless of the source format.
func generateThumbnailName(filename, hash string) string {
	name := sanitizeFileName(filename)
	return "thumb_" + hash + "_" + strings.TrimSuffix(name, path.Ext(name)) + ".png"
}

// Thumbnail is the encoded preview of an image plus the source dimensions.
type Thumbnail struct {
	Width   int64
	Height  int64
	Content []byte
}

// MakeThumbnail decodes an image, honouring EXIF orientation, and scales it
// to fit into maxWidth x maxHeight keeping the aspect ratio.
func MakeThumbnail(content []byte, maxWidth, maxHeight uint) (*Thumbnail, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}

	thumb := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)

	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, thumb, imaging.PNG); err != nil {
		return nil, err
	}

	return &Thumbnail{
		Width:   int64(img.Bounds().Dx()),
		Height:  int64(img.Bounds().Dy()),
		Content: buf.Bytes(),
	}, nil
}

// DetectImageFormat returns the registered format name of content, or "" when
// content is not a decodable image.
func DetectImageFormat(content []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return ""
	}
	return format
}
