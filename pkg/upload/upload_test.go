package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestMakeThumbnail_KeepsAspectRatio(t *testing.T) {
	thumb, err := MakeThumbnail(pngBytes(t, 800, 400), 400, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(800), thumb.Width)
	assert.Equal(t, int64(400), thumb.Height)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb.Content))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 200, cfg.Height)
}

func TestDetectImageFormat(t *testing.T) {
	assert.Equal(t, "png", DetectImageFormat(pngBytes(t, 2, 2)))
	assert.Equal(t, "", DetectImageFormat([]byte("plain text")))
}

func TestGenerateNames(t *testing.T) {
	assert.Equal(t, "abc_my-photo.JPG", generateFileName("my photo.JPG", "abc"))
	assert.Equal(t, "thumb_abc_my-photo.png", generateThumbnailName("my photo.JPG", "abc"))
	assert.Equal(t, "abc_passwd", generateFileName("../../etc/passwd", "abc"))
	assert.Equal(t, ".jpg", getExt("a.JPG"))
}

func TestLocalUploader_UploadAndRemove(t *testing.T) {
	dir := t.TempDir()
	u, err := NewLocalUploader(&Config{LocalDir: dir})
	require.NoError(t, err)

	files := []*File{
		{Name: "lamp.png", Mime: "image/png", Content: pngBytes(t, 10, 20)},
		{Name: "notes.txt", Mime: "text/plain", Content: []byte("hello")},
	}

	infos, err := u.Upload(context.Background(), files, "user-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)

	img := infos[0]
	assert.Equal(t, "lamp.png", img.Name)
	assert.Equal(t, Local, img.Provider)
	assert.Equal(t, int64(10), img.Width)
	assert.Equal(t, int64(20), img.Height)
	assert.True(t, strings.HasPrefix(img.URL, "/uploads/user-1/"))
	assert.True(t, strings.HasPrefix(img.ThumbnailURL, "/uploads/user-1/thumb_"))
	assert.FileExists(t, filepath.Join(dir, img.StoragePath))
	assert.FileExists(t, filepath.Join(dir, img.ThumbnailStoragePath))

	txt := infos[1]
	assert.Equal(t, "notes.txt", txt.Name)
	assert.Empty(t, txt.ThumbnailStoragePath)
	content, err := os.ReadFile(filepath.Join(dir, txt.StoragePath))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	require.NoError(t, u.Remove(context.Background(), infos))
	assert.NoFileExists(t, filepath.Join(dir, img.StoragePath))
	assert.NoFileExists(t, filepath.Join(dir, img.ThumbnailStoragePath))

	// second removal is a no-op
	require.NoError(t, u.Remove(context.Background(), infos))
}

func TestLocalUploader_PresignReturnsStaticURL(t *testing.T) {
	u, err := NewLocalUploader(&Config{LocalDir: t.TempDir()})
	require.NoError(t, err)

	url, err := u.GenerateGetPresignURL(context.Background(), "user-1/a.png", 0)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/user-1/a.png", url)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("ftp", &Config{})
	assert.Error(t, err)
}
