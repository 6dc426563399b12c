package domain

import "time"

// Attachment stores metadata for a file uploaded against an item.
type Attachment struct {
	ID            string
	IncidentID    *string
	RequirementID *string
	FileName      string
	StoragePath   string
	MimeType      string
	SizeBytes     int64
	UploadedBy    string
	CreatedAt     time.Time
}
