package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dipesh37/quiz1/internal/database"
	"github.com/dipesh37/quiz1/internal/services"
	"github.com/dipesh37/quiz1/internal/testutil"
	"github.com/dipesh37/quiz1/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success     bool              `json:"success"`
	Message     string            `json:"message"`
	SubmittedAt *time.Time        `json:"submittedAt"`
	Count       int               `json:"count"`
	Database    string            `json:"database"`
	Submissions []json.RawMessage `json:"submissions"`
}

type harness struct {
	engine *gin.Engine
	store  *database.Store
	hub    *ws.Hub
}

func newHarness(t *testing.T, store *database.Store) *harness {
	t.Helper()
	cfg := testutil.Config()
	cfg.StaticDir = t.TempDir()
	hub := ws.NewHub(testutil.DiscardLogger())
	engine := New(Deps{
		Config:      cfg,
		Log:         testutil.DiscardLogger(),
		Store:       store,
		Submissions: services.NewSubmissionService(store, cfg.AllowedDomain),
		Hub:         hub,
	})
	return &harness{engine: engine, store: store, hub: hub}
}

func (h *harness) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func submission(email, answer string) map[string]string {
	return map[string]string{"email": email, "answer": answer}
}

func TestSubmit_ThenDuplicate(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))
	body := submission("abc@nitj.ac.in", "this is a sufficiently long answer")

	w, env := h.do(t, http.MethodPost, "/submit", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Success)
	require.NotNil(t, env.SubmittedAt)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, env = h.do(t, http.MethodPost, "/submit", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "This email has already submitted an answer", env.Message)
}

func TestSubmit_ValidationMessages(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing answer", map[string]string{"email": "abc@nitj.ac.in"}, "Email and answer are required"},
		{"missing email", map[string]string{"answer": "this is a sufficiently long answer"}, "Email and answer are required"},
		{"wrong domain", submission("abc@gmail.com", "this is a sufficiently long answer"), "Only @nitj.ac.in email addresses are allowed"},
		{"short answer", submission("abc@nitj.ac.in", "  too short "), "Answer must be at least 10 characters long"},
		{"too long answer", submission("abc@nitj.ac.in", strings.Repeat("y", 2001)), "Answer cannot exceed 2000 characters"},
		{"empty local part", submission("@NITJ.ac.in", "this is a sufficiently long answer"), "Please provide a valid NITJ email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := h.do(t, http.MethodPost, "/submit", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.False(t, env.Success)
			assert.Equal(t, tt.want, env.Message)
		})
	}

	_, env := h.do(t, http.MethodGet, "/admin/submissions", nil)
	assert.Equal(t, 0, env.Count)
}

func TestSubmit_MalformedBody(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))

	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Invalid request body"}`, w.Body.String())
}

func TestSubmit_FormEncodedAndForwardedIP(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))

	form := url.Values{"email": {"Form@NITJ.ac.in"}, "answer": {"submitted from a plain html form"}}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	_, env := h.do(t, http.MethodGet, "/admin/submissions", nil)
	require.Len(t, env.Submissions, 1)

	var row map[string]any
	require.NoError(t, json.Unmarshal(env.Submissions[0], &row))
	assert.Equal(t, "form@nitj.ac.in", row["email"])
	assert.Equal(t, "203.0.113.5", row["ipAddress"])
	assert.NotContains(t, row, "version")
	assert.NotContains(t, row, "Version")
}

func TestRoundTrip_ListAndDelete(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))
	before := time.Now().UTC().Truncate(time.Millisecond)

	w, _ := h.do(t, http.MethodPost, "/submit", submission("  Round@Nitj.ac.in ", "   a round trip answer   "))
	require.Equal(t, http.StatusOK, w.Code)

	w, env := h.do(t, http.MethodGet, "/admin/submissions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 1, env.Count)
	require.Len(t, env.Submissions, 1)

	var row struct {
		Email       string    `json:"email"`
		Answer      string    `json:"answer"`
		SubmittedAt time.Time `json:"submittedAt"`
	}
	require.NoError(t, json.Unmarshal(env.Submissions[0], &row))
	assert.Equal(t, "round@nitj.ac.in", row.Email)
	assert.Equal(t, "a round trip answer", row.Answer)
	assert.False(t, row.SubmittedAt.Before(before))

	w, env = h.do(t, http.MethodDelete, "/admin/submissions/ROUND@nitj.ac.in", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	_, env = h.do(t, http.MethodGet, "/admin/submissions", nil)
	assert.Equal(t, 0, env.Count)
	assert.NotNil(t, env.Submissions)

	w, env = h.do(t, http.MethodDelete, "/admin/submissions/round@nitj.ac.in", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Submission not found", env.Message)
}

func TestSubmit_ConcurrentDuplicates(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))
	body := submission("same@nitj.ac.in", "this is a sufficiently long answer")

	const n = 6
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, _ := json.Marshal(body)
			req := httptest.NewRequest(http.MethodPost, "/submit", bytes.NewReader(b))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			h.engine.ServeHTTP(w, req)
			codes[i] = w.Code
		}(i)
	}
	wg.Wait()

	ok, dup := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			ok++
		case http.StatusBadRequest:
			dup++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, n-1, dup)

	_, env := h.do(t, http.MethodGet, "/admin/submissions", nil)
	assert.Equal(t, 1, env.Count)
}

func TestDisconnectedStore(t *testing.T) {
	store := testutil.SQLiteStore(t.TempDir() + "/never.db")
	h := newHarness(t, store)

	w, env := h.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "disconnected", env.Database)

	w, env = h.do(t, http.MethodPost, "/submit", submission("abc@nitj.ac.in", "this is a sufficiently long answer"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", env.Message)

	w, _ = h.do(t, http.MethodGet, "/admin/submissions", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w, _ = h.do(t, http.MethodDelete, "/admin/submissions/abc@nitj.ac.in", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w, _ = h.do(t, http.MethodPost, "/submit", submission("abc@gmail.com", "this is a sufficiently long answer"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth_Connected(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))

	w, env := h.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "connected", env.Database)
}

func TestAdminFeed_BroadcastsMutations(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))
	srv := httptest.NewServer(h.engine)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/admin/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return h.hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	w, _ := h.do(t, http.MethodPost, "/submit", submission("live@nitj.ac.in", "watch this arrive live"))
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = h.do(t, http.MethodDelete, "/admin/submissions/live@nitj.ac.in", nil)
	require.Equal(t, http.StatusOK, w.Code)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var created, deleted ws.Event
	require.NoError(t, conn.ReadJSON(&created))
	require.NoError(t, conn.ReadJSON(&deleted))

	assert.Equal(t, ws.EventSubmissionCreated, created.Type)
	assert.Equal(t, "live@nitj.ac.in", created.Data.(map[string]any)["email"])
	assert.Equal(t, ws.EventSubmissionDeleted, deleted.Type)
	assert.Equal(t, "live@nitj.ac.in", deleted.Data.(map[string]any)["email"])
}

func TestUnknownNonGetRoute(t *testing.T) {
	h := newHarness(t, testutil.NewStore(t))

	w, env := h.do(t, http.MethodPatch, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}
