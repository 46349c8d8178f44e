package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"abetcrm/internal/database"
	"abetcrm/internal/models"
)

const fileColumns = `id, stored_name, original_name, content_type, size, uploaded_by, related_to_type, related_to_id, created_at`

type FileRepository struct{ db database.DBTX }

func NewFileRepository(db database.DBTX) *FileRepository { return &FileRepository{db: db} }

func scanFile(row rowScanner) (models.FileAttachment, error) {
	var f models.FileAttachment
	err := row.Scan(&f.ID, &f.StoredName, &f.OriginalName, &f.ContentType, &f.Size, &f.UploadedBy,
		&f.RelatedToType, &f.RelatedToID, &f.CreatedAt)
	return f, err
}

func (r *FileRepository) Create(ctx context.Context, f *models.FileAttachment) error {
	const q = `
		INSERT INTO files (id, stored_name, original_name, content_type, size, uploaded_by, related_to_type, related_to_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	if _, err := r.db.ExecContext(ctx, q, f.ID, f.StoredName, f.OriginalName, f.ContentType, f.Size, f.UploadedBy,
		f.RelatedToType, nullable(f.RelatedToID), f.CreatedAt); err != nil {
		return mapPgError(fmt.Errorf("create file: %w", err))
	}
	return nil
}

func (r *FileRepository) GetByID(ctx context.Context, id string) (*models.FileAttachment, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, mapPgError(fmt.Errorf("get file: %w", err))
	}
	return &f, nil
}

func (r *FileRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
