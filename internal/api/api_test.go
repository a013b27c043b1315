package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/meetmate/core/internal/apperr"
	"github.com/meetmate/core/internal/auth"
	"github.com/meetmate/core/internal/dispatch"
	"github.com/meetmate/core/internal/meetings"
	"github.com/meetmate/core/internal/middleware"
	"github.com/meetmate/core/internal/models"
	"github.com/meetmate/core/internal/pipeline"
	"github.com/meetmate/core/internal/playback"
	"github.com/meetmate/core/internal/testutil"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	saveErr  error
	retry    dispatch.Result
	gotRetry uuid.UUID

	saves    int
	gotPath  string
	gotName  string
	gotBytes []byte
}

func (f *fakeService) SaveRecording(ctx context.Context, localPath, name string, opts pipeline.SaveOptions) (*models.Meeting, dispatch.Result, error) {
	f.saves++
	f.gotPath, f.gotName = localPath, name
	f.gotBytes, _ = os.ReadFile(localPath)
	if f.saveErr != nil {
		return nil, dispatch.Result{}, f.saveErr
	}
	opts.OnProgress(models.UploadProgress{BytesUploaded: 5, BytesTotal: 10, Percentage: 50})
	opts.OnProgress(models.UploadProgress{BytesUploaded: 10, BytesTotal: 10, Percentage: 100})
	sess, _ := auth.FromContext(ctx)
	return &models.Meeting{ID: uuid.New(), Owner: sess.UserID, Name: name, Recording: localPath, Status: models.StatusProcessing},
		dispatch.Result{Success: true, Message: "queued", StatusCode: 200}, nil
}

func (f *fakeService) RetryProcessing(_ context.Context, id uuid.UUID) (dispatch.Result, error) {
	f.gotRetry = id
	return f.retry, nil
}

func (f *fakeService) Playback(_ context.Context, id uuid.UUID) (*playback.SignedURL, error) {
	return &playback.SignedURL{URL: "https://signed.example/" + id.String(), ExpiresAt: time.Unix(1700003600, 0)}, nil
}

type fakeNotifier struct {
	owner, meeting uuid.UUID
}

func (f *fakeNotifier) PublishCompleted(_ context.Context, owner, meeting uuid.UUID) error {
	f.owner, f.meeting = owner, meeting
	return nil
}

type server struct {
	router   *gin.Engine
	spoolDir string
	service  *fakeService
	store    *testutil.MeetingStore
	notifier *fakeNotifier
	userID   uuid.UUID
	token    string
}

func newServer(t *testing.T) *server {
	t.Helper()
	verifier := auth.NewVerifier("test-secret", time.Hour)
	userID := uuid.New()
	token, err := verifier.Issue(userID, "ana@example.com")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	s := &server{
		service:  &fakeService{retry: dispatch.Result{Success: true, Message: "ok", StatusCode: 200}},
		store:    testutil.NewMeetingStore(),
		notifier: &fakeNotifier{},
		userID:   userID,
		token:    token,
		spoolDir: t.TempDir(),
	}
	records := meetings.NewManager(s.store, auth.ContextProvider{}, nil)
	s.router = NewRouter(RouterConfig{
		CORSAllowedOrigins: "*",
		Verifier:           verifier,
		Meetings:           NewHandler(s.service, records, s.spoolDir, nil),
		Webhooks:           NewWebhookHandler(s.notifier, "hook-secret", nil),
	}, nil)
	return s
}

func (s *server) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
		req.Header.Set(middleware.HeaderRefreshToken, "refresh")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) upload(t *testing.T, filename string, content []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile(FormFile, filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/meetings", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) {
	t.Helper()
	var body struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	if data != nil {
		if err := json.Unmarshal(body.Data, data); err != nil {
			t.Fatalf("decode data %q: %v", body.Data, err)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	w := s.do(http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get(middleware.HeaderRequestID) == "" {
		t.Fatal("missing request id header")
	}
}

func TestMeetingsRequireAuth(t *testing.T) {
	s := newServer(t)
	if w := s.do(http.MethodGet, "/meetings", nil, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestListMeetingsIsOwnerScoped(t *testing.T) {
	s := newServer(t)
	mine := models.Meeting{ID: uuid.New(), Owner: s.userID, Name: "mine", CreatedAt: time.Now()}
	s.store.Put(mine)
	s.store.Put(models.Meeting{ID: uuid.New(), Owner: uuid.New(), Name: "theirs", CreatedAt: time.Now()})

	w := s.do(http.MethodGet, "/meetings", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	var list []models.Meeting
	decode(t, w, &list)
	if len(list) != 1 || list[0].ID != mine.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestGetMeeting(t *testing.T) {
	s := newServer(t)
	m := models.Meeting{ID: uuid.New(), Owner: s.userID, Name: "mine", Status: models.StatusCompleted, Summary: &models.Summary{Text: "done"}}
	s.store.Put(m)

	w := s.do(http.MethodGet, "/meetings/"+m.ID.String(), nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got models.Meeting
	decode(t, w, &got)
	if got.Status != models.StatusCompleted || got.Summary == nil || got.Summary.Text != "done" {
		t.Fatalf("unexpected meeting %+v", got)
	}

	if w := s.do(http.MethodGet, "/meetings/"+uuid.NewString(), nil, true); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d, want 404", w.Code)
	}
	if w := s.do(http.MethodGet, "/meetings/not-a-uuid", nil, true); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d, want 400", w.Code)
	}
}

func TestCreateMeetingStreamsProgress(t *testing.T) {
	s := newServer(t)

	w := s.upload(t, "standup.m4a", []byte("audio"), map[string]string{FormName: " Standup "})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	progress := strings.Index(body, "event:progress")
	final := strings.Index(body, "event:meeting")
	if progress < 0 || final < 0 || final < progress {
		t.Fatalf("unexpected event stream %q", body)
	}
	if strings.Count(body, "event:progress") != 2 {
		t.Fatalf("expected two progress events in %q", body)
	}
	if !strings.Contains(body, `"queued"`) {
		t.Fatalf("dispatch result missing from %q", body)
	}
	if string(s.service.gotBytes) != "audio" || s.service.gotName != "Standup" {
		t.Fatalf("service got %q named %q", s.service.gotBytes, s.service.gotName)
	}
	if filepath.Base(s.service.gotPath) != "standup.m4a" || !strings.HasPrefix(s.service.gotPath, s.spoolDir) {
		t.Fatalf("recording spooled to %q, want a file under %q", s.service.gotPath, s.spoolDir)
	}
	if _, err := os.Stat(s.service.gotPath); !os.IsNotExist(err) {
		t.Fatalf("spooled recording should be removed after the request, stat err = %v", err)
	}
}

func TestCreateMeetingValidation(t *testing.T) {
	s := newServer(t)
	if w := s.upload(t, "", nil, map[string]string{FormName: "x"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing file status = %d, want 400", w.Code)
	}
	if w := s.upload(t, "notes.txt", []byte("x"), nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unsupported type status = %d, want 400", w.Code)
	}
	if s.service.saves != 0 {
		t.Fatalf("service called %d times for invalid requests", s.service.saves)
	}
}

func TestCreateMeetingNeverReadsServerFiles(t *testing.T) {
	s := newServer(t)
	secret := filepath.Join(t.TempDir(), "server.env")
	if err := os.WriteFile(secret, []byte("DB_PASSWORD=hunter2\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	w := s.do(http.MethodPost, "/meetings", map[string]string{"path": secret}, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("json path status = %d, want 400", w.Code)
	}
	w = s.upload(t, "", nil, map[string]string{"path": secret})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("form path status = %d, want 400", w.Code)
	}
	w = s.upload(t, "../../"+filepath.Base(secret), []byte("x"), nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("traversal filename status = %d, want 400", w.Code)
	}
	if s.service.saves != 0 {
		t.Fatalf("service called %d times, last path %q", s.service.saves, s.service.gotPath)
	}
}

func TestCreateMeetingStripsClientDirectories(t *testing.T) {
	s := newServer(t)
	w := s.upload(t, "../../etc/standup.m4a", []byte("audio"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if filepath.Dir(filepath.Dir(s.service.gotPath)) != s.spoolDir || filepath.Base(s.service.gotPath) != "standup.m4a" {
		t.Fatalf("recording spooled to %q outside %q", s.service.gotPath, s.spoolDir)
	}
}

func TestCreateMeetingUploadErrorEvent(t *testing.T) {
	s := newServer(t)
	s.service.saveErr = apperr.Upload("upload chunk 2 of a.m4a", errors.New("reset"))

	w := s.upload(t, "a.m4a", []byte("x"), map[string]string{FormSimple: "true"})
	body := w.Body.String()
	if !strings.Contains(body, "event:error") || !strings.Contains(body, "502") {
		t.Fatalf("unexpected event stream %q", body)
	}
}

func TestProcessMeeting(t *testing.T) {
	s := newServer(t)
	id := uuid.New()
	if w := s.do(http.MethodPost, "/meetings/"+id.String()+"/process", nil, true); w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if s.service.gotRetry != id {
		t.Fatal("retry was not requested for the meeting")
	}

	s.service.retry = dispatch.Result{Success: false, Message: "internal error", StatusCode: 500}
	w := s.do(http.MethodPost, "/meetings/"+id.String()+"/process", nil, true)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("failed dispatch status = %d, want 502", w.Code)
	}
	var res dispatch.Result
	decode(t, w, &res)
	if res.StatusCode != 500 || res.Message != "internal error" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestPlaybackURL(t *testing.T) {
	s := newServer(t)
	id := uuid.New()
	w := s.do(http.MethodGet, "/meetings/"+id.String()+"/playback-url", nil, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got PlaybackURL
	decode(t, w, &got)
	if got.ExpiresIn != 3600 || !strings.HasSuffix(got.URL, id.String()) {
		t.Fatalf("unexpected playback url %+v", got)
	}
}

func TestMeetingCompletedWebhook(t *testing.T) {
	s := newServer(t)
	meetingID, ownerID := uuid.New(), uuid.New()
	payload := MeetingCompletedPayload{MeetingID: meetingID.String(), UserID: ownerID.String()}

	if w := s.do(http.MethodPost, "/webhooks/meeting-completed", payload, false); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing secret status = %d, want 401", w.Code)
	}

	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(payload)
	req := httptest.NewRequest(http.MethodPost, "/webhooks/meeting-completed", &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderWebhookSecret, "hook-secret")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", w.Code, w.Body.String())
	}
	if s.notifier.meeting != meetingID || s.notifier.owner != ownerID {
		t.Fatalf("notifier got %s/%s", s.notifier.owner, s.notifier.meeting)
	}
}
