package database

import (
	"time"

	"gorm.io/datatypes"
)

// ResumeRecord is the persisted shape of one resume submission. The id is
// generated by the submitter, not the database; CreatedAt/UpdatedAt are set
// server-side on write.
type ResumeRecord struct {
	ID             string         `gorm:"primaryKey;size:64"`
	OwnerID        string         `gorm:"index;size:128"`
	CompanyName    string         `gorm:"size:255"`
	JobTitle       string         `gorm:"size:255"`
	JobDescription string         `gorm:"type:text"`
	ResumePath     string         `gorm:"size:512"`
	ImagePath      string         `gorm:"size:512"`
	Status         string         `gorm:"size:32"`
	Feedback       datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}
