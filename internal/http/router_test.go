package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	"github.com/yungbote/medsim-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/medsim-backend/internal/http/handlers"
	httpMW "github.com/yungbote/medsim-backend/internal/http/middleware"
	"github.com/yungbote/medsim-backend/internal/observability"
	"github.com/yungbote/medsim-backend/internal/services"
)

type stubTTS struct{}

func (stubTTS) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte("ID3" + text), nil
}

type stubSTT struct{}

func (stubSTT) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return "patient reports " + mimeType, nil
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
	token  string
}

func (a *apiClient) do(method, path string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	threadRepo := repos.NewThreadRepo(db, log)
	messageRepo := repos.NewMessageRepo(db, log)
	feedbackRepo := repos.NewFeedbackRepo(db, log)

	authService := services.NewAuthService(db, log, userRepo, nil, services.AuthConfig{
		JWTSecretKey:    "router-test",
		AccessTTL:       time.Hour,
		DevLoginEnabled: true,
	})
	threadService := services.NewThreadService(db, log, threadRepo, messageRepo, feedbackRepo,
		services.NewPatientSimulator(log, nil),
		services.NewFeedbackAggregator(log, nil),
	)

	return NewRouter(RouterConfig{
		Log:              log,
		Metrics:          observability.NewMetrics(),
		AuthMiddleware:   httpMW.NewAuthMiddleware(log, authService),
		HealthHandler:    httpH.NewHealthHandler(db),
		AuthHandler:      httpH.NewAuthHandler(authService),
		UserHandler:      httpH.NewUserHandler(services.NewUserService(db, log, userRepo)),
		ThreadHandler:    httpH.NewThreadHandler(threadService),
		MessageHandler:   httpH.NewMessageHandler(threadService),
		SpeechHandler:    httpH.NewSpeechHandler(services.NewSpeechService(db, log, messageRepo, threadRepo, stubTTS{}, nil)),
		DictationHandler: httpH.NewDictationHandler(services.NewDictationService(log, threadRepo, stubSTT{})),
		AnalyticsHandler: httpH.NewAnalyticsHandler(services.NewAnalyticsService(db, log, threadRepo, feedbackRepo)),
	})
}

func login(t *testing.T, engine *gin.Engine, email string) *apiClient {
	t.Helper()
	api := &apiClient{t: t, engine: engine}
	rec := api.do(http.MethodPost, "/api/auth/dev-login", map[string]string{"email": email, "hospital": "General"})
	if rec.Code != http.StatusOK {
		t.Fatalf("dev-login: got=%d body=%s", rec.Code, rec.Body.String())
	}
	res := decode[struct {
		Token string `json:"token"`
	}](t, rec)
	api.token = res.Token
	return api
}

type threadJSON struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Status  string  `json:"status"`
	EndedAt *string `json:"ended_at"`
}

type messageJSON struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type feedbackJSON struct {
	OverallScore int `json:"overall_score"`
	Rubric       struct {
		Sections map[string]struct {
			Score int `json:"score"`
		} `json:"sections"`
	} `json:"rubric"`
}

func TestSessionScenario(t *testing.T) {
	engine := newTestRouter(t)
	api := login(t, engine, "doc@example.com")

	rec := api.do(http.MethodPost, "/api/threads", map[string]string{"title": "Patient 1"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create thread: got=%d body=%s", rec.Code, rec.Body.String())
	}
	th := decode[threadJSON](t, rec)
	if th.Title != "Patient 1" || th.Status != "open" || th.EndedAt != nil {
		t.Fatalf("create thread: got=%+v", th)
	}
	base := "/api/threads/" + th.ID

	rec = api.do(http.MethodPost, base+"/messages", map[string]string{"role": "doctor", "content": "Any fever?"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post message: got=%d body=%s", rec.Code, rec.Body.String())
	}
	msgs := decode[[]messageJSON](t, rec)
	if len(msgs) != 2 || msgs[0].Role != "doctor" || msgs[1].Role != "patient" {
		t.Fatalf("post message: got=%+v", msgs)
	}
	if !strings.Contains(msgs[1].Content, "feverish") {
		t.Fatalf("patient reply: got=%q", msgs[1].Content)
	}

	rec = api.do(http.MethodPost, base+"/messages", map[string]string{"role": "doctor", "content": "Any allergies?"})
	msgs = decode[[]messageJSON](t, rec)
	if len(msgs) != 4 || msgs[2].Content != "Any allergies?" || msgs[3].Role != "patient" {
		t.Fatalf("second post: got=%+v", msgs)
	}

	rec = api.do(http.MethodGet, "/api/messages/"+msgs[3].ID+"/speech", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "audio/mpeg" {
		t.Fatalf("speech: got=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec = api.do(http.MethodGet, "/api/messages/"+msgs[2].ID+"/speech", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("doctor speech: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}

	rec = api.do(http.MethodPost, base+"/end", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("end: got=%d body=%s", rec.Code, rec.Body.String())
	}
	ended := decode[struct {
		Thread   threadJSON   `json:"thread"`
		Feedback feedbackJSON `json:"feedback"`
	}](t, rec)
	if ended.Thread.Status != "closed" || ended.Thread.EndedAt == nil {
		t.Fatalf("end thread: got=%+v", ended.Thread)
	}
	if ended.Feedback.OverallScore < 0 || ended.Feedback.OverallScore > 100 || len(ended.Feedback.Rubric.Sections) != 6 {
		t.Fatalf("end feedback: got=%+v", ended.Feedback)
	}

	rec = api.do(http.MethodGet, base+"/feedback", nil)
	fb := decode[feedbackJSON](t, rec)
	if rec.Code != http.StatusOK || fb.OverallScore != ended.Feedback.OverallScore {
		t.Fatalf("feedback: got=%d score=%d want=%d", rec.Code, fb.OverallScore, ended.Feedback.OverallScore)
	}

	rec = api.do(http.MethodPost, base+"/messages", map[string]string{"role": "doctor", "content": "One more?"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("post to closed: got=%d want=%d", rec.Code, http.StatusConflict)
	}
	if got := decode[map[string]any](t, rec)["message"]; got != "Thread is closed" {
		t.Fatalf("post to closed message: got=%v", got)
	}

	rec = api.do(http.MethodGet, base+"/transcript", nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "Doctor: Any fever?\n\nPatient: ") {
		t.Fatalf("transcript: got=%d body=%q", rec.Code, rec.Body.String())
	}

	rec = api.do(http.MethodGet, "/api/analytics", nil)
	stats := decode[struct {
		TotalSessions int     `json:"total_sessions"`
		OverallAvg    float64 `json:"overall_avg"`
	}](t, rec)
	if stats.TotalSessions != 1 || stats.OverallAvg != float64(ended.Feedback.OverallScore) {
		t.Fatalf("analytics: got=%+v", stats)
	}
}

func TestShortSessionIsDiscarded(t *testing.T) {
	engine := newTestRouter(t)
	api := login(t, engine, "short@example.com")

	th := decode[threadJSON](t, api.do(http.MethodPost, "/api/threads", nil))
	if th.Title != "Patient 1" {
		t.Fatalf("default title: got=%q", th.Title)
	}
	api.do(http.MethodPost, "/api/threads/"+th.ID+"/messages", map[string]string{"role": "doctor", "content": "Hello"})

	rec := api.do(http.MethodPost, "/api/threads/"+th.ID+"/end", nil)
	if got := decode[map[string]any](t, rec)["deleted"]; rec.Code != http.StatusOK || got != true {
		t.Fatalf("end: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec = api.do(http.MethodGet, "/api/threads/"+th.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get discarded: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestAuthAndOwnership(t *testing.T) {
	engine := newTestRouter(t)
	alice := login(t, engine, "alice@example.com")
	bob := login(t, engine, "bob@example.com")

	anon := &apiClient{t: t, engine: engine}
	if rec := anon.do(http.MethodGet, "/api/threads", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}
	forged := &apiClient{t: t, engine: engine, token: alice.token + "x"}
	if rec := forged.do(http.MethodGet, "/api/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged: got=%d want=%d", rec.Code, http.StatusUnauthorized)
	}

	me := decode[struct {
		Email    string `json:"email"`
		Hospital string `json:"hospital"`
	}](t, alice.do(http.MethodGet, "/api/me", nil))
	if me.Email != "alice@example.com" || me.Hospital != "General" {
		t.Fatalf("me: got=%+v", me)
	}

	th := decode[threadJSON](t, alice.do(http.MethodPost, "/api/threads", map[string]string{"title": "Mine"}))
	msgs := decode[[]messageJSON](t, alice.do(http.MethodPost, "/api/threads/"+th.ID+"/messages", map[string]string{"role": "doctor", "content": "Where does it hurt?"}))

	paths := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/threads/" + th.ID, http.StatusNotFound},
		{http.MethodPatch, "/api/threads/" + th.ID, http.StatusNotFound},
		{http.MethodDelete, "/api/threads/" + th.ID, http.StatusNotFound},
		{http.MethodGet, "/api/threads/" + th.ID + "/messages", http.StatusNotFound},
		{http.MethodPost, "/api/threads/" + th.ID + "/end", http.StatusNotFound},
		{http.MethodGet, "/api/messages/" + msgs[1].ID + "/speech", http.StatusForbidden},
		{http.MethodGet, "/api/threads/not-a-uuid", http.StatusNotFound},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			if rec := bob.do(p.method, p.path, map[string]string{"title": "x"}); rec.Code != p.want {
				t.Fatalf("got=%d want=%d body=%s", rec.Code, p.want, rec.Body.String())
			}
		})
	}

	list := decode[[]threadJSON](t, bob.do(http.MethodGet, "/api/threads", nil))
	if len(list) != 0 {
		t.Fatalf("bob threads: got=%d want=0", len(list))
	}
}

func TestThreadEditing(t *testing.T) {
	engine := newTestRouter(t)
	api := login(t, engine, "edit@example.com")
	th := decode[threadJSON](t, api.do(http.MethodPost, "/api/threads", nil))
	path := "/api/threads/" + th.ID

	if rec := api.do(http.MethodPatch, path, map[string]string{"title": "  "}); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank rename: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	renamed := decode[threadJSON](t, api.do(http.MethodPatch, path, map[string]string{"title": "Chest pain"}))
	if renamed.Title != "Chest pain" {
		t.Fatalf("rename: got=%q", renamed.Title)
	}
	if rec := api.do(http.MethodPost, path+"/messages", map[string]string{"role": "nurse", "content": "hi"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if rec := api.do(http.MethodGet, path+"/feedback", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("feedback while open: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
	open := decode[[]threadJSON](t, api.do(http.MethodGet, "/api/threads?status=open", nil))
	closed := decode[[]threadJSON](t, api.do(http.MethodGet, "/api/threads?status=closed", nil))
	if len(open) != 1 || len(closed) != 0 {
		t.Fatalf("status filter: open=%d closed=%d", len(open), len(closed))
	}
	if rec := api.do(http.MethodDelete, path, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete: got=%d", rec.Code)
	}
	if rec := api.do(http.MethodGet, path, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("get deleted: got=%d want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestTranscribeUpload(t *testing.T) {
	engine := newTestRouter(t)
	api := login(t, engine, "dictate@example.com")
	th := decode[threadJSON](t, api.do(http.MethodPost, "/api/threads", nil))

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="audio"; filename="clip.webm"`}
	hdr["Content-Type"] = []string{"audio/webm"}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("webm-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/threads/"+th.ID+"/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+api.token)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("transcribe: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[map[string]string](t, rec)["text"]; got != "patient reports audio/webm" {
		t.Fatalf("transcribe text: got=%q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/threads/"+th.ID+"/transcribe", strings.NewReader("raw"))
	req.Header.Set("Content-Type", "audio/ogg")
	req.Header.Set("Authorization", "Bearer "+api.token)
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if got := decode[map[string]string](t, rec)["text"]; got != "patient reports audio/ogg" {
		t.Fatalf("raw transcribe text: got=%q", got)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	engine := newTestRouter(t)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d body=%q", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "medsim_api_requests_total") {
		t.Fatalf("metrics: got=%d", rec.Code)
	}
}
