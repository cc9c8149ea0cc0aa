package usecase

import (
	"context"
	"errors"
	"path"
	"time"

	"auction-market/domain"
	"auction-market/pkg/log"
	"auction-market/pkg/upload"

	"github.com/samber/lo"
)

var allowedImageFormats = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

type FileRepository interface {
	CreateMany(ctx context.Context, files []*domain.File) error
	FindByID(ctx context.Context, id string) (*domain.File, error)
	FindMany(ctx context.Context, filter *domain.FileFilter, option *domain.FindManyOption) ([]*domain.File, error)
	DeleteByID(ctx context.Context, id string) error
	PrepareURLs(ctx context.Context, files ...*domain.File) error
}

type FileLinkRepository interface {
	Replace(ctx context.Context, relatedType, relatedID, field string, fileIDs []string) error
	DeleteByFile(ctx context.Context, fileID string) error
	FindFilesByEntities(ctx context.Context, relatedType string, relatedIDs []string, field string) (map[string][]*domain.File, error)
}

type Config struct {
	MaxFileSize int64
	MaxFiles    int
}

type Deps struct {
	FileRepo     FileRepository
	FileLinkRepo FileLinkRepository
	Client       upload.Client
	Logger       log.Logger
	Config       Config
}

type uploadUsecase struct {
	fileRepo     FileRepository
	fileLinkRepo FileLinkRepository
	client       upload.Client
	logger       log.Logger
	cfg          Config
}

func NewUploadUsecase(deps *Deps) domain.UploadUsecase {
	return &uploadUsecase{
		fileRepo:     deps.FileRepo,
		fileLinkRepo: deps.FileLinkRepo,
		client:       deps.Client,
		logger:       deps.Logger,
		cfg:          deps.Config,
	}
}

// UploadFiles accepts images only. The type is sniffed from the content,
// the client supplied Content-Type is ignored.
func (u *uploadUsecase) UploadFiles(ctx context.Context, uploaderID string, files []*domain.FileWithContent) ([]*domain.File, error) {
	if len(files) == 0 {
		return nil, domain.ErrUploadFilesRequired
	}
	if u.cfg.MaxFiles > 0 && len(files) > u.cfg.MaxFiles {
		return nil, domain.ErrTooManyFiles.WithReasonf("at most %d files per upload", u.cfg.MaxFiles)
	}

	toStore := make([]*upload.File, len(files))
	for idx, f := range files {
		if u.cfg.MaxFileSize > 0 && int64(len(f.Content)) > u.cfg.MaxFileSize {
			return nil, domain.ErrFileTooLarge.WithDetail("file", f.Name).WithDetail("max_bytes", u.cfg.MaxFileSize)
		}
		mime, ok := allowedImageFormats[upload.DetectImageFormat(f.Content)]
		if !ok {
			return nil, domain.ErrUploadInvalidContentType.
				WithReason("only jpeg, png and gif images are accepted").
				WithDetail("file", f.Name)
		}
		toStore[idx] = &upload.File{Name: f.Name, Mime: mime, Content: f.Content}
	}

	subPath := path.Join(time.Now().UTC().Format("2006/01"), uploaderID)
	infos, err := u.client.Upload(ctx, toStore, subPath)
	if err != nil {
		return nil, domain.ErrUploadFilesFailed.WithWrap(err)
	}

	records := lo.Map(infos, func(info *upload.UploadedFileInfo, _ int) *domain.File {
		return &domain.File{
			UploaderID:   uploaderID,
			Name:         info.Name,
			Mime:         info.Mime,
			Ext:          info.Ext,
			URL:          info.URL,
			ThumbnailURL: info.ThumbnailURL,
			Width:        info.Width,
			Height:       info.Height,
			Size:         info.Size,
			Props: &domain.FileProps{
				Provider:         string(info.Provider),
				StoragePath:      info.StoragePath,
				ThumbStoragePath: info.ThumbnailStoragePath,
			},
		}
	})
	if err := u.fileRepo.CreateMany(ctx, records); err != nil {
		if rmErr := u.client.Remove(context.WithoutCancel(ctx), infos); rmErr != nil {
			u.logger.ErrorContext(ctx, "Failed to remove orphaned uploads", log.Error(rmErr))
		}
		return nil, domain.ErrUploadFilesFailed.WithWrap(err)
	}

	u.logger.InfoContext(ctx, "Files uploaded",
		log.UserID(uploaderID),
		log.Int("count", len(records)),
		log.String("provider", string(u.client.Provider())),
	)
	return records, nil
}

func (u *uploadUsecase) GetFile(ctx context.Context, fileID string) (*domain.File, error) {
	file, err := u.findFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if err := u.fileRepo.PrepareURLs(ctx, file); err != nil {
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return file, nil
}

// DeleteFile soft deletes the record, unlinks it from products and removes
// the stored objects. Storage errors are logged only.
func (u *uploadUsecase) DeleteFile(ctx context.Context, actor *domain.User, fileID string) error {
	file, err := u.findFile(ctx, fileID)
	if err != nil {
		return err
	}
	if file.UploaderID != actor.ID && !actor.IsAdmin() {
		return domain.ErrFileNotOwned
	}

	if err := u.fileLinkRepo.DeleteByFile(ctx, file.ID); err != nil {
		return domain.ErrDeleteFilesFailed.WithWrap(err)
	}
	if err := u.fileRepo.DeleteByID(ctx, file.ID); err != nil {
		return domain.ErrDeleteFilesFailed.WithWrap(err)
	}

	if file.Props != nil {
		err := u.client.Remove(context.WithoutCancel(ctx), []*upload.UploadedFileInfo{{
			StoragePath:          file.Props.StoragePath,
			ThumbnailStoragePath: file.Props.ThumbStoragePath,
		}})
		if err != nil {
			u.logger.WarnContext(ctx, "Failed to remove stored file", log.String("file_id", file.ID), log.Error(err))
		}
	}
	return nil
}

func (u *uploadUsecase) FindManyFiles(ctx context.Context, filter *domain.FileFilter, option *domain.FindManyOption) ([]*domain.File, error) {
	return u.fileRepo.FindMany(ctx, filter, option)
}

func (u *uploadUsecase) ReplaceFileLinks(ctx context.Context, relatedType, relatedID, field string, fileIDs []string) ([]*domain.File, error) {
	if err := u.fileLinkRepo.Replace(ctx, relatedType, relatedID, field, fileIDs); err != nil {
		return nil, domain.ErrAddFileLinksFailed.WithWrap(err)
	}
	files, err := u.fileLinkRepo.FindFilesByEntities(ctx, relatedType, []string{relatedID}, field)
	if err != nil {
		return nil, domain.ErrGetFilesByEntitiesAndFieldFailed.WithWrap(err)
	}
	if files[relatedID] == nil {
		return []*domain.File{}, nil
	}
	return files[relatedID], nil
}

func (u *uploadUsecase) GetFilesByEntitiesAndField(ctx context.Context, relatedType string, relatedIDs []string, field string) (map[string][]*domain.File, error) {
	if len(relatedIDs) == 0 {
		return map[string][]*domain.File{}, nil
	}
	files, err := u.fileLinkRepo.FindFilesByEntities(ctx, relatedType, relatedIDs, field)
	if err != nil {
		return nil, domain.ErrGetFilesByEntitiesAndFieldFailed.WithWrap(err)
	}
	return files, nil
}

func (u *uploadUsecase) findFile(ctx context.Context, fileID string) (*domain.File, error) {
	file, err := u.fileRepo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrFileNotFound
		}
		return nil, domain.ErrInternalServerError.WithWrap(err)
	}
	return file, nil
}
