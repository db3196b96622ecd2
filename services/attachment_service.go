package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/wineprocure/procurement-api/utils"
)

// AttachmentService validates, stores and links RFQ attachments
type AttachmentService struct {
	store FileStore
}

var attachmentServiceInstance *AttachmentService

// NewAttachmentService creates an attachment service backed by store
func NewAttachmentService(store FileStore) *AttachmentService {
	return &AttachmentService{store: store}
}

// InitAttachmentService creates the shared attachment service instance
func InitAttachmentService(store FileStore) *AttachmentService {
	attachmentServiceInstance = NewAttachmentService(store)
	return attachmentServiceInstance
}

// GetAttachmentService returns the shared attachment service instance
func GetAttachmentService() *AttachmentService {
	return attachmentServiceInstance
}

// SetAttachmentService sets the shared instance (primarily for testing)
func SetAttachmentService(service *AttachmentService) {
	attachmentServiceInstance = service
}

// Upload validates and stores an attachment, returning its storage key
func (s *AttachmentService) Upload(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateAttachment(fileHeader); err != nil {
		return "", err
	}

	key, err := s.store.UploadFile(ctx, fileHeader)
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}
	return key, nil
}

// URL returns a link to the attachment, or "" when there is none
func (s *AttachmentService) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}

	url, err := s.store.GetFileURL(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to generate attachment URL: %w", err)
	}
	return url, nil
}

// Delete removes an attachment from storage
func (s *AttachmentService) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.store.DeleteFile(ctx, key); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// LocalPath returns the on-disk path of key when attachments are stored
// locally. It reports false for S3, where files are served by presigned URL.
func (s *AttachmentService) LocalPath(key string) (string, bool) {
	local, ok := s.store.(*LocalFileStore)
	if !ok || key == "" {
		return "", false
	}
	return local.Path(key), true
}
