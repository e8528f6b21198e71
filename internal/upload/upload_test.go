package upload

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/jobmatchclient/internal/api"
	"github.com/muhammadolammi/jobmatchclient/internal/auth"
	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/muhammadolammi/jobmatchclient/internal/resume"
	"github.com/muhammadolammi/jobmatchclient/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	retry.Backoff = time.Millisecond
}

var (
	employer = &models.User{ID: "u1", Role: models.RoleEmployer}
	seeker   = &models.User{ID: "u2", Role: models.RoleJobSeeker}
)

// fakeBackend plays both the API and the object store.
type fakeBackend struct {
	mu        sync.Mutex
	steps     []string
	objects   map[string]string
	completed []api.CompleteUploadRequest
	analyzed  []api.AnalyzeRequest
	putFails  int
	putAuth   []string
	srv       *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{objects: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /sessions/{id}/presign", func(w http.ResponseWriter, r *http.Request) {
		var req api.PresignRequest
		json.NewDecoder(r.Body).Decode(&req)
		key := "resumes/" + r.PathValue("id") + "/" + req.FileName
		b.step("presign " + req.FileName)
		json.NewEncoder(w).Encode(api.PresignResponse{UploadURL: b.srv.URL + "/bucket/" + key, ObjectKey: key})
	})
	mux.HandleFunc("PUT /bucket/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		fail := b.putFails > 0
		if fail {
			b.putFails--
		}
		b.putAuth = append(b.putAuth, r.Header.Get("Authorization"))
		b.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if r.ContentLength <= 0 {
			w.WriteHeader(http.StatusLengthRequired)
			return
		}
		body, _ := io.ReadAll(r.Body)
		key := strings.TrimPrefix(r.URL.Path, "/bucket/")
		b.mu.Lock()
		b.objects[key] = string(body)
		b.mu.Unlock()
		b.step("put " + key)
	})
	mux.HandleFunc("POST /uploads/complete", func(w http.ResponseWriter, r *http.Request) {
		var req api.CompleteUploadRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.completed = append(b.completed, req)
		b.mu.Unlock()
		b.step("complete " + req.FileName)
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("resume")
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		body, _ := io.ReadAll(file)
		b.mu.Lock()
		b.objects[r.FormValue("session_id")+"/"+header.Filename] = string(body)
		b.mu.Unlock()
		b.step("multipart " + header.Filename)
	})
	mux.HandleFunc("POST /analyze", func(w http.ResponseWriter, r *http.Request) {
		var req api.AnalyzeRequest
		json.NewDecoder(r.Body).Decode(&req)
		b.mu.Lock()
		b.analyzed = append(b.analyzed, req)
		b.mu.Unlock()
		b.step("analyze")
	})
	mux.HandleFunc("GET /results/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.step("results")
		w.Write([]byte(`[{"results":[{"candidate_email":"jane@doe.io","match_score":82,"summary":"Strong Go background"}]}]`))
	})
	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) step(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.steps = append(b.steps, s)
}

func (b *fakeBackend) client() *api.Client {
	logger := log.New(io.Discard, "", 0)
	gw := gateway.New(gateway.Config{BaseURL: b.srv.URL, ClientKey: "web-client", Logger: logger},
		auth.NewSession(auth.NewMemoryStore("tok")))
	return api.New(gw, logger)
}

func txt(t *testing.T, name, body string) *resume.File {
	t.Helper()
	f, err := resume.FromBytes(name, []byte(body))
	require.NoError(t, err)
	return f
}

func newUploader(t *testing.T, b *fakeBackend, mode Mode, opts ...Option) *Uploader {
	t.Helper()
	opts = append([]Option{WithLogger(log.New(io.Discard, "", 0))}, opts...)
	u, err := New(b.client(), mode, opts...)
	require.NoError(t, err)
	return u
}

func TestValidateBeforeNetwork(t *testing.T) {
	b := newFakeBackend(t)
	u := newUploader(t, b, ModePresign)
	session := &models.Session{ID: uuid.New()}

	var verr *models.ValidationError
	_, err := u.Run(context.Background(), Job{Session: session, User: seeker})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Please select at least one file.", verr.Message)

	_, err = u.Run(context.Background(), Job{Session: session, User: seeker,
		Files: []*resume.File{txt(t, "a.txt", "one"), txt(t, "b.txt", "two")}})
	require.ErrorAs(t, err, &verr)

	_, err = u.Run(context.Background(), Job{Session: session, User: employer,
		Files: []*resume.File{txt(t, "a.txt", "one"), {Name: "b.txt", Mime: resume.MimeText}}})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "b.txt")

	assert.Empty(t, b.steps)
}

func TestPresignedRunUploadsThenAnalyzes(t *testing.T) {
	b := newFakeBackend(t)
	u := newUploader(t, b, ModePresign)

	var mu sync.Mutex
	progress := map[string]int{}
	var statuses []string
	u.OnProgress = func(file string, p int) {
		mu.Lock()
		progress[file] = p
		mu.Unlock()
	}
	u.OnStatus = func(msg string) { statuses = append(statuses, msg) }

	session := &models.Session{ID: uuid.New(), JobTitle: "Backend Engineer", JobDescription: "Go, Postgres"}
	results, err := u.Run(context.Background(), Job{
		Session: session,
		User:    employer,
		Files:   []*resume.File{txt(t, "jane.txt", "Jane, Go"), txt(t, "john.txt", "John, Rust")},
	})
	require.NoError(t, err)

	prefix := "resumes/" + session.ID.String() + "/"
	assert.Equal(t, []string{
		"presign jane.txt", "put " + prefix + "jane.txt", "complete jane.txt",
		"presign john.txt", "put " + prefix + "john.txt", "complete john.txt",
		"analyze", "results",
	}, b.steps)
	assert.Equal(t, "Jane, Go", b.objects[prefix+"jane.txt"])
	assert.Equal(t, []string{"", ""}, b.putAuth, "presigned PUTs carry no API credential")

	require.Len(t, b.completed, 2)
	assert.Equal(t, session.ID, b.completed[0].SessionID)
	assert.Equal(t, int64(8), b.completed[0].Size)
	assert.Equal(t, resume.MimeText, b.completed[0].MimeType)

	require.Len(t, b.analyzed, 1)
	assert.Equal(t, "Backend Engineer", b.analyzed[0].JobTitle)

	require.Len(t, results, 1)
	assert.Equal(t, 82, results[0].MatchScore)
	assert.Equal(t, 100, progress["jane.txt"])
	assert.Equal(t, "Uploading resume(s)...", statuses[0])
	assert.Equal(t, "✅ Analysis complete.", statuses[len(statuses)-1])
}

func TestPresignedPutIsRetried(t *testing.T) {
	b := newFakeBackend(t)
	b.putFails = 2
	u := newUploader(t, b, ModePresign)

	err := u.Upload(context.Background(), uuid.New(), []*resume.File{txt(t, "cv.txt", "Go")})
	require.NoError(t, err)
	assert.Len(t, b.putAuth, 3)
	assert.Len(t, b.completed, 1)
}

func TestPresignedPutFailureStopsBeforeComplete(t *testing.T) {
	b := newFakeBackend(t)
	b.putFails = 10
	u := newUploader(t, b, ModePresign)

	err := u.Upload(context.Background(), uuid.New(), []*resume.File{txt(t, "cv.txt", "Go")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload failed: 503")
	assert.Empty(t, b.completed)
}

type memoryStore struct {
	mu      sync.Mutex
	objects map[string]string
}

func (m *memoryStore) Put(_ context.Context, key, _ string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = string(data)
	return nil
}

func TestDirectModeWritesStoreAndCompletes(t *testing.T) {
	b := newFakeBackend(t)
	store := &memoryStore{objects: map[string]string{}}
	u := newUploader(t, b, ModeDirect, WithObjectStore(store))
	id := uuid.New()

	require.NoError(t, u.Upload(context.Background(), id, []*resume.File{txt(t, "cv.txt", "Go")}))
	require.Len(t, b.completed, 1)
	key := b.completed[0].ObjectKey
	assert.True(t, strings.HasPrefix(key, "resumes/"+id.String()+"/"))
	assert.True(t, strings.HasSuffix(key, "-cv.txt"))
	assert.Equal(t, "Go", store.objects[key])
}

func TestDirectModeNeedsStore(t *testing.T) {
	b := newFakeBackend(t)
	_, err := New(b.client(), ModeDirect)
	assert.Error(t, err)
	_, err = New(b.client(), Mode("ftp"))
	assert.Error(t, err)
}

func TestMultipartMode(t *testing.T) {
	b := newFakeBackend(t)
	u := newUploader(t, b, ModeMultipart)
	id := uuid.New()

	require.NoError(t, u.Upload(context.Background(), id, []*resume.File{txt(t, "cv.txt", "Go and SQL")}))
	assert.Equal(t, "Go and SQL", b.objects[id.String()+"/cv.txt"])
	assert.Empty(t, b.completed)
}
