package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"abetcrm/internal/apperr"
	"abetcrm/internal/authz"
	"abetcrm/internal/models"
	"abetcrm/internal/repositories"
)

// FileService keeps uploads on local disk under FilesRoot and their
// metadata in the files table.
type FileService struct {
	Repo      *repositories.FileRepository
	FilesRoot string
	MaxBytes  int64
	now       func() time.Time
}

func NewFileService(repo *repositories.FileRepository, filesRoot string, maxBytes int64) *FileService {
	return &FileService{Repo: repo, FilesRoot: filesRoot, MaxBytes: maxBytes, now: time.Now}
}

func (s *FileService) Upload(ctx context.Context, p authz.Principal, fh *multipart.FileHeader, relatedType, relatedID string) (*models.FileAttachment, error) {
	if fh == nil {
		return nil, apperr.Invalid("file is required")
	}
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return nil, apperr.Invalid(fmt.Sprintf("file exceeds %d bytes", s.MaxBytes))
	}
	if err := os.MkdirAll(s.FilesRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create files root: %w", err)
	}

	id := uuid.NewString()
	stored := id + strings.ToLower(filepath.Ext(filepath.Base(fh.Filename)))
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	abs := filepath.Join(s.FilesRoot, stored)
	dst, err := os.Create(abs)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(abs)
		return nil, fmt.Errorf("write file: %w", err)
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	f := &models.FileAttachment{
		ID:            id,
		StoredName:    stored,
		OriginalName:  filepath.Base(fh.Filename),
		ContentType:   contentType,
		Size:          n,
		UploadedBy:    p.UserID,
		RelatedToType: relatedType,
		CreatedAt:     s.now().UTC(),
	}
	if relatedID != "" {
		f.RelatedToID = &relatedID
	}
	if err := s.Repo.Create(ctx, f); err != nil {
		_ = os.Remove(abs)
		return nil, err
	}
	return f, nil
}

func (s *FileService) Get(ctx context.Context, id string) (*models.FileAttachment, error) {
	f, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, apperr.NotFound("File not found")
	}
	return f, nil
}

// Resolve returns the metadata and the absolute path of a stored file.
func (s *FileService) Resolve(ctx context.Context, id string) (*models.FileAttachment, string, error) {
	f, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	// no nesting below the root
	abs := filepath.Join(s.FilesRoot, filepath.Base(f.StoredName))
	if _, err := os.Stat(abs); err != nil {
		return nil, "", apperr.NotFound("File not found")
	}
	return f, abs, nil
}

// Delete removes metadata and bytes; uploader or admin only.
func (s *FileService) Delete(ctx context.Context, p authz.Principal, id string) error {
	f, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if f.UploadedBy != p.UserID && !p.IsAdmin() {
		return apperr.Forbidden("Only the uploader or admin can delete a file")
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.FilesRoot, filepath.Base(f.StoredName))); err != nil && !os.IsNotExist(err) {
		log.Printf("[files][delete] remove %s: %v", f.StoredName, err)
	}
	return nil
}
