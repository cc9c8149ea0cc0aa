package domain

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartHeaders(t *testing.T, files map[string][]byte) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["files"]
}

func TestReadMultipartFiles(t *testing.T) {
	headers := multipartHeaders(t, map[string][]byte{"lamp.png": []byte("png-bytes")})

	files, err := ReadMultipartFiles(headers, 64)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "lamp.png", files[0].Name)
	assert.Equal(t, []byte("png-bytes"), files[0].Content)

	_, err = ReadMultipartFiles(headers, 4)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
	var de *DetailedError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "lamp.png", de.Details()["file"])
}

func TestFileProps_RoundTrip(t *testing.T) {
	props := FileProps{Provider: "s3", StoragePath: "2026/10/u-1/a.png"}
	v, err := props.Value()
	require.NoError(t, err)

	var got FileProps
	require.NoError(t, got.Scan([]byte(v.(string))))
	assert.Equal(t, props, got)

	assert.Error(t, got.Scan(42))
}
