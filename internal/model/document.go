package model

import "time"

// Document is an uploaded source PDF. It carries no persistence tags and can
// be passed between the HTTP, service and storage layers.
type Document struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Filename    string    `json:"filename"`
	StoragePath string    `json:"storage_path"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	NumPages    int       `json:"num_pages"`
	CreatedAt   time.Time `json:"created_at"`
}
