package upload

import (
	"bytes"
	"context"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	smithyEndpoints "github.com/aws/smithy-go/endpoints"
	"github.com/samber/lo"
)

type S3Uploader struct {
	s3Client        *s3.Client
	s3PresignClient *s3.PresignClient
	uploader        *manager.Uploader
	bucketName      string
	pathPrefix      string
}

type ResolverV2 struct{}

func (*ResolverV2) ResolveEndpoint(ctx context.Context, params s3.EndpointParameters) (
	smithyEndpoints.Endpoint, error,
) {
	return s3.NewDefaultEndpointResolverV2().ResolveEndpoint(ctx, params)
}

func NewS3Provider(opts *Config) (*S3Uploader, error) {
	creds := credentials.NewStaticCredentialsProvider(opts.S3AccessKey, opts.S3SecretKey, "")

	cfg, err := config.LoadDefaultConfig(
		context.Background(),
		config.WithCredentialsProvider(creds),
		config.WithRegion(opts.S3Region),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.S3EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.S3EndpointURL)
			// MinIO and friends only speak path-style
			o.UsePathStyle = true
		}
		o.EndpointResolverV2 = &ResolverV2{}
	})

	return &S3Uploader{
		uploader:        manager.NewUploader(client),
		s3Client:        client,
		s3PresignClient: s3.NewPresignClient(client),
		bucketName:      opts.S3BucketName,
		pathPrefix:      opts.S3PathPrefix,
	}, nil
}

func (u *S3Uploader) Provider() Provider {
	return S3
}

func (u *S3Uploader) put(ctx context.Context, content []byte, objectKey, contentType string) (*manager.UploadOutput, error) {
	return u.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucketName),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
		Body:        bytes.NewReader(content),
		ACL:         types.ObjectCannedACLPrivate,
	})
}

func (u *S3Uploader) Upload(ctx context.Context, files []*File, subPath string) ([]*UploadedFileInfo, error) {
	return uploadAll(ctx, files, func(ctx context.Context, file *File) (*UploadedFileInfo, error) {
		hash := generateHash()
		fileInfo := newUploadedFileInfo(file, S3)
		fileInfo.StoragePath = path.Join(u.pathPrefix, subPath, generateFileName(file.Name, hash))

		out, err := u.put(ctx, file.Content, fileInfo.StoragePath, fileInfo.Mime)
		if err != nil {
			return nil, err
		}
		fileInfo.URL = out.Location

		if !file.IsImage() {
			return fileInfo, nil
		}

		thumb, err := MakeThumbnail(file.Content, DefaultThumbnailWidthInPx, DefaultThumbnailHeightInPx)
		if err != nil {
			return fileInfo, nil
		}
		fileInfo.Width = thumb.Width
		fileInfo.Height = thumb.Height
		fileInfo.ThumbnailStoragePath = path.Join(u.pathPrefix, subPath, generateThumbnailName(file.Name, hash))

		thumbOut, err := u.put(ctx, thumb.Content, fileInfo.ThumbnailStoragePath, "image/png")
		if err != nil {
			return nil, err
		}
		fileInfo.ThumbnailURL = thumbOut.Location

		return fileInfo, nil
	})
}

func (u *S3Uploader) Remove(ctx context.Context, fileInfos []*UploadedFileInfo) error {
	var objectIds []types.ObjectIdentifier
	for _, fileInfo := range fileInfos {
		objectIds = append(objectIds, types.ObjectIdentifier{Key: aws.String(fileInfo.StoragePath)})
		if fileInfo.ThumbnailStoragePath != "" {
			objectIds = append(objectIds, types.ObjectIdentifier{Key: aws.String(fileInfo.ThumbnailStoragePath)})
		}
	}
	if len(objectIds) == 0 {
		return nil
	}

	// DeleteObjects accepts at most 1000 keys per call
	for _, chunk := range lo.Chunk(objectIds, 1000) {
		_, err := u.s3Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(u.bucketName),
			Delete: &types.Delete{Objects: chunk, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (u *S3Uploader) GenerateGetPresignURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	presignReq, err := u.s3PresignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Key:    aws.String(objectKey),
		Bucket: aws.String(u.bucketName),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return "", err
	}

	return presignReq.URL, nil
}
