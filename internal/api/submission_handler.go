package api

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"

	"resumecheck/internal/api/middleware"
	"resumecheck/internal/auth"
	"resumecheck/internal/errcode"
	"resumecheck/internal/metrics"
	"resumecheck/internal/notify"
	"resumecheck/internal/pipeline"
)

const maxResumeSize = 20 << 20 // 20 MiB

// SubmissionHandler accepts a resume plus job context and drives the
// submission pipeline, streaming progress over the notify channel.
type SubmissionHandler struct {
	runner    *pipeline.Runner
	manager   *auth.Manager
	publisher *notify.Publisher
	clamdAddr string
}

// NewSubmissionHandler builds the handler. An empty clamdAddr disables virus
// scanning.
func NewSubmissionHandler(runner *pipeline.Runner, manager *auth.Manager, publisher *notify.Publisher, clamdAddr string) *SubmissionHandler {
	return &SubmissionHandler{
		runner:    runner,
		manager:   manager,
		publisher: publisher,
		clamdAddr: clamdAddr,
	}
}

// Submit handles POST /v1/submissions.
func (h *SubmissionHandler) Submit(c *gin.Context) {
	log := middleware.LoggerFromContext(c)
	correlationID := middleware.GetCorrelationID(c)

	session := h.manager.Session()
	if session == nil {
		AbortUnauthorized(c)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing resume file")
		return
	}
	if fileHeader.Size > maxResumeSize {
		BadRequest(c, "resume file too large")
		return
	}

	fileReader, err := fileHeader.Open()
	if err != nil {
		Internal(c, "failed to open uploaded file")
		return
	}
	fileBytes, err := io.ReadAll(fileReader)
	fileReader.Close()
	if err != nil {
		Internal(c, "failed to read uploaded file")
		return
	}

	if h.clamdAddr != "" {
		if err := h.scan(fileBytes); err != nil {
			log.Warn("uploaded file rejected by scanner", slog.Any("error", err))
			BadRequest(c, "malicious file detected")
			return
		}
	}

	input := pipeline.Input{
		CompanyName:    c.PostForm("company-name"),
		JobTitle:       c.PostForm("job-title"),
		JobDescription: c.PostForm("job-description"),
		FileName:       fileHeader.Filename,
		File:           fileBytes,
	}

	metrics.SubmissionStarted()
	progress := h.progressFunc(c, session.UserID, correlationID)

	id, err := h.runner.Run(c.Request.Context(), session, input, progress)
	if err != nil {
		var stepErr *pipeline.StepError
		switch {
		case errors.Is(err, pipeline.ErrValidation):
			metrics.SubmissionFinished(string(pipeline.PhaseFailed))
			BadRequest(c, err.Error())
		case errors.As(err, &stepErr):
			metrics.SubmissionFinished(string(stepErr.Phase))
			log.Error("submission pipeline failed",
				slog.String("phase", string(stepErr.Phase)),
				slog.Any("error", err),
			)
			BadGateway(c, stepErr.Message)
		default:
			metrics.SubmissionFinished(string(pipeline.PhaseFailed))
			log.Error("submission pipeline failed", slog.Any("error", err))
			Internal(c, "submission failed")
		}
		return
	}

	metrics.SubmissionFinished(string(pipeline.PhaseComplete))
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// progressFunc forwards pipeline phase transitions to the user's notify
// channel. Publish failures must not disturb the run, so they are only logged.
func (h *SubmissionHandler) progressFunc(c *gin.Context, userID, correlationID string) pipeline.ProgressFunc {
	log := middleware.LoggerFromContext(c)

	return func(phase pipeline.Phase, detail string) {
		msg := notify.SubmissionProgressMessage{
			Phase:         string(phase),
			CorrelationID: correlationID,
		}
		switch phase {
		case pipeline.PhaseComplete:
			msg.ResumeID = detail
		case pipeline.PhaseFailed:
			msg.ErrorCode = errcode.SystemError
			msg.ErrorMessage = detail
		}

		if err := h.publisher.PublishProgress(c.Request.Context(), userID, msg); err != nil {
			log.Warn("publish submission progress failed",
				slog.String("phase", string(phase)),
				slog.Any("error", err),
			)
		}
	}
}

func (h *SubmissionHandler) scan(fileBytes []byte) error {
	clamdClient := clamd.NewClamd(h.clamdAddr)

	abortChan := make(chan bool)
	defer close(abortChan)

	scanChan, err := clamdClient.ScanStream(bytes.NewReader(fileBytes), abortChan)
	if err != nil {
		return err
	}

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errors.New("scanner flagged file: " + result.Status)
		}
	}
	return nil
}
