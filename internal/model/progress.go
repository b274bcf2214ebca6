package model

import "time"

// BeltProgress is one stored row per (student, belt) pair. The pair is
// unique; a repeated submission replaces file_name, uploaded_at and
// created_at. created_at therefore records the last write time.
type BeltProgress struct {
	StudentID  string    `json:"studentId"`
	BeltSlug   string    `json:"beltSlug"`
	FileName   *string   `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ProgressRecord is the wire shape of a progress row.
type ProgressRecord struct {
	BeltSlug   string    `json:"beltSlug"`
	FileName   *string   `json:"fileName"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Record strips storage-only fields for the API response.
func (p *BeltProgress) Record() ProgressRecord {
	return ProgressRecord{
		BeltSlug:   p.BeltSlug,
		FileName:   p.FileName,
		UploadedAt: p.UploadedAt,
	}
}

// SaveProgressRequest is the payload for POST /portal/progress.
// UploadedAt is a free-form timestamp string; unparsable values fall back
// to the server clock instead of rejecting the request.
type SaveProgressRequest struct {
	StudentID  string `json:"studentId" binding:"required"`
	BeltSlug   string `json:"beltSlug" binding:"required"`
	FileName   string `json:"fileName"`
	UploadedAt string `json:"uploadedAt"`
}
