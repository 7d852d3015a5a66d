package models

import (
	"time"

	"gorm.io/gorm"
)

// FilterAudit records one filter request that altered its input.
type FilterAudit struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	RequestID      string    `gorm:"size:64;index" json:"request_id"`
	ClientIP       string    `gorm:"size:45" json:"client_ip"`
	Endpoint       string    `gorm:"size:32;index" json:"endpoint"`
	InputSHA256    string    `gorm:"size:64;index" json:"input_sha256"`
	InputBytes     int       `json:"input_bytes"`
	OutputBytes    int       `json:"output_bytes"`
	RejectedCount  int       `json:"rejected_count"`
	OrphanCount    int       `json:"orphan_count"`
	RejectedSample string    `gorm:"type:text" json:"rejected_sample"` // JSON array of raw tokens
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// BeforeCreate hook ensures the timestamp is set even when not provided.
func (a *FilterAudit) BeforeCreate(tx *gorm.DB) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return nil
}
