package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"resumecheck/internal/analysis"
	"resumecheck/internal/auth"
	"resumecheck/internal/resume"
)

// ErrValidation marks a precondition violation: missing session or empty form
// fields. A validation failure performs zero side effects.
var ErrValidation = errors.New("validation failed")

// StepError reports at which phase a run failed, with the human-readable
// message shown to the user.
type StepError struct {
	Phase   Phase
	Message string
	Err     error
}

func (e *StepError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// BlobStore is the object-storage capability the pipeline uploads through.
type BlobStore interface {
	Upload(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) (string, error)
}

// Converter turns the submitted document into a raster preview image.
type Converter interface {
	Convert(ctx context.Context, pdf []byte) ([]byte, error)
}

// Analyzer produces feedback for a stored document and instruction payload.
type Analyzer interface {
	Analyze(ctx context.Context, resumePath, instructions string) (*analysis.Message, error)
}

// RecordWriter persists resume records; in production this is the dual
// persistence coordinator.
type RecordWriter interface {
	Save(ctx context.Context, r *resume.Resume) error
}

// Input is one submission's form data plus the raw resume file.
type Input struct {
	CompanyName    string
	JobTitle       string
	JobDescription string
	FileName       string
	File           []byte
}

// Runner drives one submission end to end: upload, convert, upload image,
// persist draft, analyze, persist final. Steps run strictly in order, each
// gated on the previous step's success, and no step is retried; a resubmit
// starts over with a fresh id.
type Runner struct {
	blobs     BlobStore
	converter Converter
	analyzer  Analyzer
	records   RecordWriter
	logger    *slog.Logger
	newID     func() string
}

// NewRunner wires the pipeline's collaborators.
func NewRunner(blobs BlobStore, converter Converter, analyzer Analyzer, records RecordWriter, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		blobs:     blobs,
		converter: converter,
		analyzer:  analyzer,
		records:   records,
		logger:    logger,
		newID:     uuid.NewString,
	}
}

// Run executes one submission for the given session and returns the resume
// id. The id is generated once, at the preparing step, and stays stable across
// every persistence write of the run. On failure after the draft write the
// draft record is deliberately left in place so the user keeps a retrievable
// result.
func (r *Runner) Run(ctx context.Context, session *auth.Session, in Input, progress ProgressFunc) (string, error) {
	if err := validate(session, in); err != nil {
		progress.report(PhaseFailed, err.Error())
		return "", err
	}

	log := r.logger.With(slog.String("owner_id", session.UserID))

	// Step 1: original document. Blob writes happen before the first record
	// write so a stored record always points at durable blobs.
	progress.report(PhaseUploading, "")
	resumeKey := fmt.Sprintf("resumes/%s/%s.pdf", session.UserID, r.newID())
	resumePath, err := r.blobs.Upload(ctx, resumeKey, bytes.NewReader(in.File), int64(len(in.File)), "application/pdf")
	if err != nil {
		return "", r.fail(log, progress, PhaseUploading, "file upload failed", err)
	}

	// Step 2. A failed conversion leaves step 1's blob behind; orphaned blobs
	// are accepted rather than cleaned up mid-run.
	progress.report(PhaseConverting, "")
	imageBytes, err := r.converter.Convert(ctx, in.File)
	if err != nil {
		return "", r.fail(log, progress, PhaseConverting, "conversion failed", err)
	}

	// Step 3: derived image.
	progress.report(PhaseUploadingImage, "")
	imageKey := fmt.Sprintf("resumes/%s/%s.png", session.UserID, r.newID())
	imagePath, err := r.blobs.Upload(ctx, imageKey, bytes.NewReader(imageBytes), int64(len(imageBytes)), "image/png")
	if err != nil {
		return "", r.fail(log, progress, PhaseUploadingImage, "image upload failed", err)
	}

	// Step 4: draft record with placeholder feedback.
	progress.report(PhasePreparing, "")
	record := resume.Resume{
		ID:             r.newID(),
		OwnerID:        session.UserID,
		CompanyName:    strings.TrimSpace(in.CompanyName),
		JobTitle:       strings.TrimSpace(in.JobTitle),
		JobDescription: strings.TrimSpace(in.JobDescription),
		ResumePath:     resumePath,
		ImagePath:      imagePath,
		Status:         resume.StatusDraft,
		Feedback:       resume.PlaceholderFeedback(),
	}
	if err := r.records.Save(ctx, &record); err != nil {
		return "", r.fail(log, progress, PhasePreparing, "failed to save resume", err)
	}

	log = log.With(slog.String("resume_id", record.ID))

	// Steps 5-7: from here on, failures leave the draft in place.
	progress.report(PhaseAnalyzing, "")
	message, err := r.analyzer.Analyze(ctx, resumePath, analysis.Instructions(record.JobTitle, record.JobDescription))
	if err != nil {
		return "", r.fail(log, progress, PhaseAnalyzing, "failed to analyze resume", err)
	}

	text, err := message.Text()
	if err != nil {
		return "", r.fail(log, progress, PhaseAnalyzing, "analysis returned no feedback", err)
	}
	feedback, err := analysis.ParseFeedback(text)
	if err != nil {
		return "", r.fail(log, progress, PhaseAnalyzing, "analysis returned malformed feedback", err)
	}

	record.Feedback = feedback
	record.Status = resume.StatusAnalyzed
	if err := r.records.Save(ctx, &record); err != nil {
		return "", r.fail(log, progress, PhaseAnalyzing, "failed to save analysis results", err)
	}

	log.Info("submission complete", slog.Float64("overall_score", feedback.OverallScore))
	progress.report(PhaseComplete, record.ID)
	return record.ID, nil
}

func (r *Runner) fail(log *slog.Logger, progress ProgressFunc, phase Phase, message string, err error) *StepError {
	log.Error(message, slog.String("phase", string(phase)), slog.Any("error", err))
	progress.report(PhaseFailed, message)
	return &StepError{Phase: phase, Message: message, Err: err}
}

func validate(session *auth.Session, in Input) error {
	if session == nil || session.UserID == "" {
		return fmt.Errorf("%w: not signed in", ErrValidation)
	}
	if strings.TrimSpace(in.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", ErrValidation)
	}
	if strings.TrimSpace(in.JobTitle) == "" {
		return fmt.Errorf("%w: job title is required", ErrValidation)
	}
	if strings.TrimSpace(in.JobDescription) == "" {
		return fmt.Errorf("%w: job description is required", ErrValidation)
	}
	if len(in.File) == 0 {
		return fmt.Errorf("%w: resume file is required", ErrValidation)
	}
	return nil
}
