package domain

import (
	"context"
	"database/sql/driver"
	"io"
	"mime/multipart"
	"net/http"
)

/****************************
*        Upload errors      *
****************************/

var (
	ErrUploadFilesFailed = &DetailedError{
		IDField:         "UPLOAD_FILES_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to upload files",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrDeleteFilesFailed = &DetailedError{
		IDField:         "DELETE_FILES_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to delete files",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrUploadInvalidContentType = &DetailedError{
		IDField:         "UPLOAD_INVALID_CONTENT_TYPE",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Invalid content type for upload",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrUploadFilesRequired = &DetailedError{
		IDField:         "UPLOAD_FILES_REQUIRED",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "No files provided for upload",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrAddFileLinksFailed = &DetailedError{
		IDField:         "ADD_FILE_LINKS_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to add file relations",
		StatusCodeField: http.StatusInternalServerError,
	}
	ErrFileNotFound = &DetailedError{
		IDField:         "FILE_NOT_FOUND",
		StatusDescField: http.StatusText(http.StatusNotFound),
		ErrorField:      "File not found",
		StatusCodeField: http.StatusNotFound,
	}
	ErrFileTooLarge = &DetailedError{
		IDField:         "FILE_TOO_LARGE",
		StatusDescField: http.StatusText(http.StatusRequestEntityTooLarge),
		ErrorField:      "File exceeds the maximum allowed size",
		StatusCodeField: http.StatusRequestEntityTooLarge,
	}
	ErrTooManyFiles = &DetailedError{
		IDField:         "TOO_MANY_FILES",
		StatusDescField: http.StatusText(http.StatusBadRequest),
		ErrorField:      "Too many files in one upload",
		StatusCodeField: http.StatusBadRequest,
	}
	ErrFileNotOwned = &DetailedError{
		IDField:         "FILE_NOT_OWNED",
		StatusDescField: http.StatusText(http.StatusForbidden),
		ErrorField:      "File belongs to another user",
		StatusCodeField: http.StatusForbidden,
	}
	ErrGetFilesByEntitiesAndFieldFailed = &DetailedError{
		IDField:         "GET_FILES_BY_ENTITIES_FAILED",
		StatusDescField: http.StatusText(http.StatusInternalServerError),
		ErrorField:      "Failed to get files by entities",
		StatusCodeField: http.StatusInternalServerError,
	}
)

/***************************************
*       Upload entities and types      *
***************************************/

// File is an uploaded image. Props never leave the server.
type File struct {
	SQLModel
	UploaderID   string     `json:"uploader_id" gorm:"type:varchar(36);index"`
	Name         string     `json:"name" gorm:"type:varchar(255)"`
	Mime         string     `json:"mime" gorm:"type:varchar(128)"`
	Ext          string     `json:"ext" gorm:"type:varchar(16)"`
	URL          string     `json:"url" gorm:"type:text"`
	ThumbnailURL string     `json:"thumbnail_url" gorm:"type:text"`
	Width        int64      `json:"width"`
	Height       int64      `json:"height"`
	Size         int64      `json:"size"`
	Props        *FileProps `json:"-" gorm:"type:jsonb"`
}

// FileProps locate the stored objects so they can be removed later.
type FileProps struct {
	Provider         string `json:"provider"`
	StoragePath      string `json:"storage_path"`
	ThumbStoragePath string `json:"thumb_storage_path,omitempty"`
}

func (p FileProps) Value() (driver.Value, error) {
	return marshalColumn(p)
}

func (p *FileProps) Scan(input any) error {
	return unmarshalColumn(input, p)
}

type FileFilter struct {
	ID             *string
	IDIn           []string
	UploaderID     *string
	Ext            *string
	IncludeDeleted *bool
}

// FileLink attaches a file to a field of another entity, e.g. the images of
// a product, in display order.
type FileLink struct {
	FileID      string `json:"file_id" gorm:"primaryKey"`
	RelatedID   string `json:"related_id" gorm:"primaryKey;index:idx_related_lookup,priority:1"`
	RelatedType string `json:"related_type" gorm:"primaryKey;index:idx_related_lookup,priority:2"`
	Field       string `json:"field" gorm:"primaryKey;index:idx_related_lookup,priority:3"`
	Order       int    `json:"order" gorm:"column:sort_order;type:int4;not null;default:0"`
	File        *File  `json:"file,omitempty" gorm:"foreignKey:FileID"`
}

type FileLinkFilter struct {
	FileID      *string
	RelatedID   *string
	RelatedIDIn []string
	RelatedType *string
	Field       *string
	FieldIn     []string
}

type FileWithContent struct {
	File
	Content []byte `json:"-" gorm:"-"`
}

// ReadMultipartFiles loads every part into memory. Parts declared larger
// than maxSize are rejected before being read; maxSize <= 0 disables the
// check.
func ReadMultipartFiles(headers []*multipart.FileHeader, maxSize int64) ([]*FileWithContent, error) {
	out := make([]*FileWithContent, 0, len(headers))
	for _, header := range headers {
		if maxSize > 0 && header.Size > maxSize {
			return nil, ErrFileTooLarge.WithDetail("file", header.Filename).WithDetail("max_bytes", maxSize)
		}

		content, err := readPart(header)
		if err != nil {
			return nil, ErrUploadFilesFailed.WithWrap(err).WithDetail("file", header.Filename)
		}
		out = append(out, &FileWithContent{
			File:    File{Name: header.Filename, Mime: header.Header.Get("Content-Type")},
			Content: content,
		})
	}
	return out, nil
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

/***************************************
*  Upload usecase interfaces and types  *
****************************************/

type UploadUsecase interface {
	UploadFiles(ctx context.Context, uploaderID string, files []*FileWithContent) ([]*File, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	DeleteFile(ctx context.Context, actor *User, fileID string) error
	FindManyFiles(ctx context.Context, filter *FileFilter, option *FindManyOption) ([]*File, error)
	ReplaceFileLinks(ctx context.Context, relatedType, relatedID, field string, fileIDs []string) ([]*File, error)
	GetFilesByEntitiesAndField(ctx context.Context, relatedType string, relatedIDs []string, field string) (map[string][]*File, error)
}
