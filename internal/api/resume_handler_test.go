package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"resumecheck/internal/api/middleware"
	"resumecheck/internal/auth"
	"resumecheck/internal/database"
	"resumecheck/internal/docstore"
	"resumecheck/internal/persist"
	"resumecheck/internal/resume"
)

type kvStub struct {
	values map[string]string
}

func newKvStub() *kvStub {
	return &kvStub{values: make(map[string]string)}
}

func (s *kvStub) Set(_ context.Context, key, value string) error {
	s.values[key] = value
	return nil
}

func (s *kvStub) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *kvStub) Del(_ context.Context, key string) error {
	delete(s.values, key)
	return nil
}

type stubSigner struct{}

func (stubSigner) PresignedURL(_ context.Context, objectKey string, _ time.Duration) (string, error) {
	return "https://blobs.example/" + objectKey + "?sig=abc", nil
}

type resumeFixture struct {
	engine  *gin.Engine
	records *persist.Coordinator
	token   string
}

func newResumeFixture(t *testing.T) *resumeFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.ResumeRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	records := persist.NewCoordinator(docstore.NewStore(db), newKvStub(), testLogger())

	tokens := newTestTokens(t)
	token, err := tokens.Mint(&auth.Session{UserID: "user-1"})
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// The enqueue target is a closed port; cleanup enqueue failures must not
	// fail the delete.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { asynqClient.Close() })

	handler := NewResumeHandler(records, stubSigner{}, asynqClient)

	engine := gin.New()
	engine.Use(middleware.CorrelationIDMiddleware(), middleware.SlogLoggerMiddleware(testLogger()))
	group := engine.Group("/v1/resumes", middleware.AuthMiddleware(tokens))
	group.GET("", handler.ListResumes)
	group.GET("/:id", handler.GetResume)
	group.GET("/:id/links", handler.GetResumeLinks)
	group.DELETE("/:id", handler.DeleteResume)

	return &resumeFixture{engine: engine, records: records, token: token}
}

func (fx *resumeFixture) seed(t *testing.T, id, ownerID string, score float64) {
	t.Helper()
	fb := resume.PlaceholderFeedback()
	fb.OverallScore = score
	r := &resume.Resume{
		ID:          id,
		OwnerID:     ownerID,
		CompanyName: "Acme",
		JobTitle:    "Backend Engineer",
		ResumePath:  "resumes/" + ownerID + "/" + id + ".pdf",
		ImagePath:   "resumes/" + ownerID + "/" + id + ".png",
		Status:      resume.StatusAnalyzed,
		Feedback:    fb,
	}
	if err := fx.records.Save(context.Background(), r); err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
}

func (fx *resumeFixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+fx.token)
	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, req)
	return w
}

func TestListResumesScopedToOwner(t *testing.T) {
	fx := newResumeFixture(t)
	fx.seed(t, "r1", "user-1", 82)
	fx.seed(t, "r2", "user-1", 64)
	fx.seed(t, "r3", "user-2", 90)

	w := fx.do(t, http.MethodGet, "/v1/resumes")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		Resumes []struct {
			ID           string  `json:"id"`
			OverallScore float64 `json:"overallScore"`
			Status       string  `json:"status"`
		} `json:"resumes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body.Resumes) != 2 {
		t.Fatalf("resumes = %d, want 2", len(body.Resumes))
	}
	scores := map[string]float64{}
	for _, item := range body.Resumes {
		scores[item.ID] = item.OverallScore
		if item.Status != resume.StatusAnalyzed {
			t.Fatalf("status = %q", item.Status)
		}
	}
	if scores["r1"] != 82 || scores["r2"] != 64 {
		t.Fatalf("scores = %v", scores)
	}
}

func TestGetResumeOwnership(t *testing.T) {
	fx := newResumeFixture(t)
	fx.seed(t, "mine", "user-1", 82)
	fx.seed(t, "theirs", "user-2", 90)

	w := fx.do(t, http.MethodGet, "/v1/resumes/mine")
	if w.Code != http.StatusOK {
		t.Fatalf("own resume: status = %d", w.Code)
	}

	// Foreign and missing ids are indistinguishable to the caller.
	if w := fx.do(t, http.MethodGet, "/v1/resumes/theirs"); w.Code != http.StatusNotFound {
		t.Fatalf("foreign resume: status = %d, want 404", w.Code)
	}
	if w := fx.do(t, http.MethodGet, "/v1/resumes/ghost"); w.Code != http.StatusNotFound {
		t.Fatalf("missing resume: status = %d, want 404", w.Code)
	}
}

func TestGetResumeLinks(t *testing.T) {
	fx := newResumeFixture(t)
	fx.seed(t, "r1", "user-1", 82)

	w := fx.do(t, http.MethodGet, "/v1/resumes/r1/links")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var body struct {
		ResumeURL string `json:"resumeUrl"`
		ImageURL  string `json:"imageUrl"`
		ExpiresIn int    `json:"expiresIn"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.ResumeURL == "" || body.ImageURL == "" {
		t.Fatalf("links missing: %+v", body)
	}
	if body.ExpiresIn != int(downloadLinkTTL.Seconds()) {
		t.Fatalf("expiresIn = %d", body.ExpiresIn)
	}
}

func TestDeleteResume(t *testing.T) {
	fx := newResumeFixture(t)
	fx.seed(t, "r1", "user-1", 82)

	w := fx.do(t, http.MethodDelete, "/v1/resumes/r1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w := fx.do(t, http.MethodGet, "/v1/resumes/r1"); w.Code != http.StatusNotFound {
		t.Fatalf("deleted resume still served: status = %d", w.Code)
	}
}

func TestResumesRequireToken(t *testing.T) {
	fx := newResumeFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/resumes", nil)
	w := httptest.NewRecorder()
	fx.engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
