package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"resumecheck/internal/database"
	"resumecheck/internal/resume"
)

// ErrNotFound marks a read of a record id that does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the authoritative, owner-scoped record store for resumes, backed
// by the relational database. Writes are last-writer-wins on the full record.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an existing GORM handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Put upserts the full record under its id. CreatedAt/UpdatedAt are assigned
// server-side; callers never supply them.
func (s *Store) Put(ctx context.Context, r *resume.Resume) error {
	record, err := toRecord(r)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"owner_id", "company_name", "job_title", "job_description",
			"resume_path", "image_path", "status", "feedback", "updated_at",
		}),
	}).Create(record)
	if result.Error != nil {
		return fmt.Errorf("put resume %q: %w", r.ID, result.Error)
	}
	return nil
}

// Get returns the record under id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*resume.Resume, error) {
	var record database.ResumeRecord
	if err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("resume %q: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get resume %q: %w", id, err)
	}
	return fromRecord(&record)
}

// Query returns all records owned by ownerID, most recently updated first.
func (s *Store) Query(ctx context.Context, ownerID string) ([]resume.Resume, error) {
	var records []database.ResumeRecord
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("query resumes for owner %q: %w", ownerID, err)
	}

	resumes := make([]resume.Resume, 0, len(records))
	for i := range records {
		r, err := fromRecord(&records[i])
		if err != nil {
			return nil, err
		}
		resumes = append(resumes, *r)
	}
	return resumes, nil
}

// Delete removes the record under id. Missing records count as success.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&database.ResumeRecord{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete resume %q: %w", id, err)
	}
	return nil
}

func toRecord(r *resume.Resume) (*database.ResumeRecord, error) {
	feedback, err := json.Marshal(r.Feedback)
	if err != nil {
		return nil, fmt.Errorf("marshal feedback for resume %q: %w", r.ID, err)
	}
	return &database.ResumeRecord{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		CompanyName:    r.CompanyName,
		JobTitle:       r.JobTitle,
		JobDescription: r.JobDescription,
		ResumePath:     r.ResumePath,
		ImagePath:      r.ImagePath,
		Status:         r.Status,
		Feedback:       feedback,
	}, nil
}

func fromRecord(record *database.ResumeRecord) (*resume.Resume, error) {
	r := resume.Resume{
		ID:             record.ID,
		OwnerID:        record.OwnerID,
		CompanyName:    record.CompanyName,
		JobTitle:       record.JobTitle,
		JobDescription: record.JobDescription,
		ResumePath:     record.ResumePath,
		ImagePath:      record.ImagePath,
		Status:         record.Status,
	}
	if len(record.Feedback) > 0 {
		if err := json.Unmarshal(record.Feedback, &r.Feedback); err != nil {
			return nil, fmt.Errorf("unmarshal feedback for resume %q: %w", record.ID, err)
		}
	}
	return &r, nil
}
