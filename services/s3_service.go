package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/wineprocure/procurement-api/config"
	"github.com/wineprocure/procurement-api/utils"
)

// FileStore stores uploaded attachment files
type FileStore interface {
	UploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
	GetFileURL(ctx context.Context, key string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

// S3FileStore keeps attachments in a private S3 bucket
type S3FileStore struct {
	client *s3.Client
	bucket string
}

// NewS3FileStore creates an S3 client from the application configuration
func NewS3FileStore(ctx context.Context, cfg *config.Config) (*S3FileStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3FileStore{
		client: s3.NewFromConfig(awsConfig),
		bucket: cfg.AWSS3Bucket,
	}, nil
}

// UploadFile uploads the file under attachments/ and returns its key
func (s *S3FileStore) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	key := fmt.Sprintf("attachments/%s_%s", uuid.NewString(), filepath.Base(fileHeader.Filename))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(utils.AttachmentContentType(fileHeader.Filename)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return key, nil
}

// GetFileURL returns a presigned GET URL valid for one hour
func (s *S3FileStore) GetFileURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	presignClient := s3.NewPresignClient(s.client)
	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Hour
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}

// DeleteFile removes an object from the bucket
func (s *S3FileStore) DeleteFile(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}

	return nil
}

// LocalFileStore keeps attachments on local disk, served by the uploads route.
// Used when no S3 bucket is configured.
type LocalFileStore struct {
	dir string
}

// NewLocalFileStore stores files under dir
func NewLocalFileStore(dir string) *LocalFileStore {
	return &LocalFileStore{dir: dir}
}

// UploadFile writes the file to disk and returns its file name
func (l *LocalFileStore) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	return utils.SaveUploadedFile(fileHeader, l.dir)
}

// GetFileURL returns the API path that serves the file
func (l *LocalFileStore) GetFileURL(ctx context.Context, key string) (string, error) {
	return utils.GetFileURL(key), nil
}

// DeleteFile removes the file from disk
func (l *LocalFileStore) DeleteFile(ctx context.Context, key string) error {
	return utils.RemoveUploadedFile(key, l.dir)
}

// Path returns where key lives on disk
func (l *LocalFileStore) Path(key string) string {
	return filepath.Join(l.dir, filepath.Base(key))
}

// NewFileStore picks S3 when a bucket is configured
func NewFileStore(ctx context.Context, cfg *config.Config) (FileStore, error) {
	if cfg.S3Enabled() {
		return NewS3FileStore(ctx, cfg)
	}
	log.Printf("AWS_S3_BUCKET not set, storing attachments under %s", cfg.UploadDir)
	return NewLocalFileStore(cfg.UploadDir), nil
}
