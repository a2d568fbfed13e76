package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"resumecheck/internal/api/middleware"
	"resumecheck/internal/docstore"
	"resumecheck/internal/persist"
	"resumecheck/internal/resume"
	"resumecheck/internal/tasks"
)

const downloadLinkTTL = 15 * time.Minute

// linkSigner is the slice of the storage client the handler needs for
// building time-limited download links.
type linkSigner interface {
	PresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
}

// ResumeHandler serves stored resumes: owner-scoped listing, detail reads
// through the dual persistence coordinator, blob links and deletion.
type ResumeHandler struct {
	records     *persist.Coordinator
	signer      linkSigner
	asynqClient *asynq.Client
}

// NewResumeHandler builds the handler.
func NewResumeHandler(records *persist.Coordinator, signer linkSigner, asynqClient *asynq.Client) *ResumeHandler {
	return &ResumeHandler{
		records:     records,
		signer:      signer,
		asynqClient: asynqClient,
	}
}

type resumeListItem struct {
	ID           string  `json:"id"`
	CompanyName  string  `json:"companyName"`
	JobTitle     string  `json:"jobTitle"`
	ImagePath    string  `json:"imagePath"`
	Status       string  `json:"status"`
	OverallScore float64 `json:"overallScore"`
}

// ListResumes returns all resumes owned by the caller.
func (h *ResumeHandler) ListResumes(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	resumes, err := h.records.List(c.Request.Context(), userID)
	if err != nil {
		middleware.LoggerFromContext(c).Error("list resumes failed", slog.Any("error", err))
		Internal(c, "failed to list resumes")
		return
	}

	items := make([]resumeListItem, 0, len(resumes))
	for i := range resumes {
		items = append(items, resumeListItem{
			ID:           resumes[i].ID,
			CompanyName:  resumes[i].CompanyName,
			JobTitle:     resumes[i].JobTitle,
			ImagePath:    resumes[i].ImagePath,
			Status:       resumes[i].Status,
			OverallScore: resumes[i].Feedback.OverallScore,
		})
	}

	c.JSON(http.StatusOK, gin.H{"resumes": items})
}

// GetResume returns one resume's full record, feedback included.
func (h *ResumeHandler) GetResume(c *gin.Context) {
	record, ok := h.ownedResume(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, record)
}

// GetResumeLinks returns presigned URLs for the stored document and its
// preview image.
func (h *ResumeHandler) GetResumeLinks(c *gin.Context) {
	record, ok := h.ownedResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	resumeURL, err := h.signer.PresignedURL(ctx, record.ResumePath, downloadLinkTTL)
	if err != nil {
		log.Error("presign resume url failed", slog.Any("error", err))
		Internal(c, "failed to build resume link")
		return
	}
	imageURL, err := h.signer.PresignedURL(ctx, record.ImagePath, downloadLinkTTL)
	if err != nil {
		log.Error("presign image url failed", slog.Any("error", err))
		Internal(c, "failed to build image link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resumeUrl": resumeURL,
		"imageUrl":  imageURL,
		"expiresIn": int(downloadLinkTTL.Seconds()),
	})
}

// DeleteResume removes the record from both stores and enqueues blob cleanup.
func (h *ResumeHandler) DeleteResume(c *gin.Context) {
	record, ok := h.ownedResume(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	if err := h.records.Delete(ctx, record.ID); err != nil {
		log.Error("delete resume failed", slog.Any("error", err))
		Internal(c, "failed to delete resume")
		return
	}

	task, err := tasks.NewBlobCleanupTask(
		[]string{record.ResumePath, record.ImagePath},
		middleware.GetCorrelationID(c),
	)
	if err != nil {
		log.Error("build cleanup task failed", slog.Any("error", err))
	} else if _, err := h.asynqClient.EnqueueContext(ctx, task); err != nil {
		// The record is already gone; orphaned blobs are tolerable.
		log.Error("enqueue cleanup task failed", slog.Any("error", err))
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *ResumeHandler) ownedResume(c *gin.Context) (*resume.Resume, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	id := c.Param("id")
	if id == "" {
		BadRequest(c, "missing resume id")
		return nil, false
	}

	record, err := h.records.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			NotFound(c, "resume not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("get resume failed", slog.Any("error", err))
		Internal(c, "failed to load resume")
		return nil, false
	}
	if record.OwnerID != userID {
		NotFound(c, "resume not found")
		return nil, false
	}
	return record, true
}
