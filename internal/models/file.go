package models

import "time"

// FileAttachment is the metadata of an uploaded file; the bytes live on disk.
type FileAttachment struct {
	ID            string    `json:"id"`
	StoredName    string    `json:"-"`
	OriginalName  string    `json:"originalName"`
	ContentType   string    `json:"contentType"`
	Size          int64     `json:"size"`
	UploadedBy    string    `json:"uploadedBy"`
	RelatedToType string    `json:"relatedToType"`
	RelatedToID   *string   `json:"relatedToId"`
	CreatedAt     time.Time `json:"createdAt"`
}
