package storage

import "context"

// StorageService is the file-storage collaborator for report and prescription
// artifacts. It produces opaque pointers (public IDs / URLs); nothing in the
// core depends on how the bytes are stored.
type StorageService interface {
	UploadFile(ctx context.Context, localFilePath, destFolder string) (string, error)
	DeleteFile(ctx context.Context, publicID string) error
}
