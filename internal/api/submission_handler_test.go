package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumecheck/internal/analysis"
	"resumecheck/internal/api/middleware"
	"resumecheck/internal/auth"
	"resumecheck/internal/notify"
	"resumecheck/internal/pipeline"
	"resumecheck/internal/resume"
)

const submissionFeedbackJSON = `{
	"overallScore": 82,
	"ATS": {"score": 80, "tips": []},
	"toneAndStyle": {"score": 75, "tips": []},
	"content": {"score": 85, "tips": []},
	"structure": {"score": 90, "tips": []},
	"skills": {"score": 70, "tips": []}
}`

type stubBlobs struct {
	uploads []string
	err     error
}

func (s *stubBlobs) Upload(_ context.Context, objectKey string, _ io.Reader, _ int64, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploads = append(s.uploads, objectKey)
	return objectKey, nil
}

type stubConverter struct{}

func (stubConverter) Convert(_ context.Context, _ []byte) ([]byte, error) {
	return []byte("png-bytes"), nil
}

type stubAnalyzer struct {
	text string
	err  error
}

func (s *stubAnalyzer) Analyze(_ context.Context, _, _ string) (*analysis.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &analysis.Message{Content: analysis.TextContent(s.text)}, nil
}

type stubRecords struct {
	saves []resume.Resume
}

func (s *stubRecords) Save(_ context.Context, r *resume.Resume) error {
	s.saves = append(s.saves, *r)
	return nil
}

// unreachablePublisher points at a closed port; publish failures must be
// swallowed by the handler.
func unreachablePublisher() *notify.Publisher {
	return notify.NewPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
}

type submissionFixture struct {
	engine  *gin.Engine
	token   string
	blobs   *stubBlobs
	records *stubRecords
}

func newSubmissionFixture(t *testing.T, blobs *stubBlobs, an *stubAnalyzer, signedIn bool) *submissionFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := auth.NewManager(&stubProvider{identity: &auth.Identity{UserID: "user-1"}}, testLogger())
	if signedIn {
		if _, err := manager.SignIn(context.Background()); err != nil {
			t.Fatalf("SignIn: %v", err)
		}
	}

	tokens := newTestTokens(t)
	token, err := tokens.Mint(&auth.Session{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	records := &stubRecords{}
	runner := pipeline.NewRunner(blobs, stubConverter{}, an, records, testLogger())
	handler := NewSubmissionHandler(runner, manager, unreachablePublisher(), "")

	engine := gin.New()
	engine.Use(middleware.CorrelationIDMiddleware(), middleware.SlogLoggerMiddleware(testLogger()))
	engine.POST("/v1/submissions", middleware.AuthMiddleware(tokens), handler.Submit)

	return &submissionFixture{engine: engine, token: token, blobs: blobs, records: records}
}

func submissionRequest(t *testing.T, token string, fields map[string]string, file []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if file != nil {
		part, err := writer.CreateFormFile("file", "resume.pdf")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write(file); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/submissions", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"company-name":    "Acme",
		"job-title":       "Backend Engineer",
		"job-description": "Build APIs in Go",
	}
}

func TestSubmitHappyPath(t *testing.T) {
	fx := newSubmissionFixture(t, &stubBlobs{}, &stubAnalyzer{text: submissionFeedbackJSON}, true)

	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, submissionRequest(t, fx.token, validFields(), []byte("%PDF-1.4 fake")))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var body struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ID == "" {
		t.Fatal("response missing resume id")
	}
	if len(fx.records.saves) != 2 {
		t.Fatalf("record writes = %d, want draft plus final", len(fx.records.saves))
	}
	if fx.records.saves[1].Status != resume.StatusAnalyzed {
		t.Fatalf("final status = %q", fx.records.saves[1].Status)
	}
}

func TestSubmitRequiresToken(t *testing.T) {
	fx := newSubmissionFixture(t, &stubBlobs{}, &stubAnalyzer{text: submissionFeedbackJSON}, true)

	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, submissionRequest(t, "", validFields(), []byte("pdf")))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestSubmitRequiresActiveSession(t *testing.T) {
	// Valid token but the manager holds no session.
	fx := newSubmissionFixture(t, &stubBlobs{}, &stubAnalyzer{text: submissionFeedbackJSON}, false)

	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, submissionRequest(t, fx.token, validFields(), []byte("pdf")))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
	if len(fx.blobs.uploads) != 0 {
		t.Fatal("upload attempted without a session")
	}
}

func TestSubmitMissingFileIsBadRequest(t *testing.T) {
	fx := newSubmissionFixture(t, &stubBlobs{}, &stubAnalyzer{text: submissionFeedbackJSON}, true)

	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, submissionRequest(t, fx.token, validFields(), nil))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSubmitMissingFieldIsBadRequest(t *testing.T) {
	fx := newSubmissionFixture(t, &stubBlobs{}, &stubAnalyzer{text: submissionFeedbackJSON}, true)

	fields := validFields()
	delete(fields, "job-title")

	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, submissionRequest(t, fx.token, fields, []byte("pdf")))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(fx.records.saves) != 0 {
		t.Fatal("record written for an invalid submission")
	}
}

func TestSubmitPipelineFailureIsBadGateway(t *testing.T) {
	fx := newSubmissionFixture(t, &stubBlobs{}, &stubAnalyzer{err: errors.New("model timeout")}, true)

	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, submissionRequest(t, fx.token, validFields(), []byte("pdf")))

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502, body %s", w.Code, w.Body.String())
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "failed to analyze resume" {
		t.Fatalf("error = %q", body.Error)
	}
	// The draft persisted before the failure stays retrievable.
	if len(fx.records.saves) != 1 || fx.records.saves[0].Status != resume.StatusDraft {
		t.Fatalf("saves = %+v, want the surviving draft", fx.records.saves)
	}
}
