package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/notegraph/internal/graph"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/store"
	"github.com/starford/notegraph/internal/testutil"
)

type testEnv struct {
	cache  *graph.Cache
	db     *store.DB
	router http.Handler
}

// newTestEnv seeds testutil.ShareTree and mounts the router.
// An empty authToken means disabled mode.
func newTestEnv(t *testing.T, authToken string, sseHandler http.Handler) *testEnv {
	t.Helper()
	cache, db := testutil.SeededCache(t)
	svc := noteservice.NewService(cache)
	return &testEnv{
		cache:  cache,
		db:     db,
		router: NewRouter(svc, authToken != "", authToken, sseHandler),
	}
}

func (e *testEnv) do(t *testing.T, method, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func attributeNames(attrs []AttributeDTO) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, a.Name)
	}
	return out
}

func TestShare(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/share")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	info := decode[ShareInfo](t, w)
	assert.Equal(t, "_share", info.RootNoteID)
	assert.Empty(t, info.ShareID, "an owned shareRoot label clears the share id")
	assert.False(t, info.IndexEnabled)

	var ids []string
	for _, c := range info.Children {
		ids = append(ids, c.NoteID)
	}
	assert.Equal(t, []string{"guide", "data", "secret", "tpl"}, ids)
	assert.Equal(t, 6, info.Stats.Notes)
	assert.Zero(t, info.Stats.Skeletons)
}

func TestGetNote(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/guide")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	note := decode[NoteDetail](t, w)
	assert.Equal(t, "Guide", note.Title)
	assert.Equal(t, "getting-started", note.ShareID)
	assert.Equal(t, []string{"shareAlias", "template", "imageLink", "color", "layout"}, attributeNames(note.Attributes))
	assert.Equal(t, []string{"_share"}, note.ParentNoteIDs)
	assert.Empty(t, note.Children, "imageLink hides the picture branch")
	require.Len(t, note.Attachments, 1)
	assert.Equal(t, "att1", note.Attachments[0].AttachmentID)
}

func TestGetNote_NotFound(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/notes/root")
	assert.Equal(t, http.StatusNotFound, w.Code, "notes outside the shared subtree are not loaded")
}

func TestAttributes_Filter(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/data/attributes?type=label&name=color")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[AttributeListResponse](t, w)
	require.Len(t, resp.Attributes, 1)
	assert.Equal(t, "red", resp.Attributes[0].Value)
	assert.Equal(t, "_share", resp.Attributes[0].NoteID, "inherited from the share root")

	w = env.do(t, http.MethodGet, "/notes/guide/attributes?type=relation")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"template", "imageLink"}, attributeNames(decode[AttributeListResponse](t, w).Attributes))
}

func TestAttributes_InvalidType(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/guide/attributes?type=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChildren(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/_share/children")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[ChildListResponse](t, w)
	require.Len(t, resp.Children, 4)
	assert.Equal(t, "_share_guide", resp.Children[0].BranchID)
	assert.Equal(t, 10, resp.Children[0].Position)
	assert.False(t, resp.Children[0].HasChildren, "only child is hidden")
	assert.Equal(t, "[protected]", resp.Children[2].Title)
}

func TestNoteContent_ETag(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/guide/content")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>hello</p>", w.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	w = env.do(t, http.MethodGet, "/notes/guide/content", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, w.Code)
	assert.Empty(t, w.Body.String())

	w = env.do(t, http.MethodGet, "/notes/guide/content", "If-None-Match", `"stale"`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNoteContent_Protected(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/secret/content")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestNoteContent_JSON(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/notes/data/content")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"answer": 42}`, w.Body.String())
}

func TestNoteByAlias(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/alias/getting-started")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "guide", decode[NoteDetail](t, w).NoteID)

	w = env.do(t, http.MethodGet, "/alias/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBranch(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/branches/guide_pic")
	require.Equal(t, http.StatusOK, w.Code)
	b := decode[BranchDTO](t, w)
	assert.Equal(t, "pic", b.NoteID)
	assert.Equal(t, "guide", b.ParentNoteID)
	assert.True(t, b.IsHidden)

	w = env.do(t, http.MethodGet, "/branches/root__share")
	assert.Equal(t, http.StatusNotFound, w.Code, "branches into the subtree root are not loaded")
}

func TestAttachment(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/attachments/att1")
	require.Equal(t, http.StatusOK, w.Code)
	a := decode[AttachmentDTO](t, w)
	assert.Equal(t, "guide", a.OwnerID)
	assert.Equal(t, "image", a.Role)

	w = env.do(t, http.MethodGet, "/attachments/att1/content")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<svg/>", w.Body.String())
	assert.Equal(t, "image/svg+xml; charset=utf-8", w.Header().Get("Content-Type"))

	w = env.do(t, http.MethodGet, "/attachments/missing/content")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEntity(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/entities/attributes/guide-r0")
	require.Equal(t, http.StatusOK, w.Code)
	attr := decode[AttributeDTO](t, w)
	assert.Equal(t, "template", attr.Name)
	assert.Equal(t, "tpl", attr.Value)

	w = env.do(t, http.MethodGet, "/entities/note/tpl")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Template", decode[NoteDetail](t, w).Title)

	w = env.do(t, http.MethodGet, "/entities/widgets/x")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/entities/branches/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetCache(t *testing.T) {
	env := newTestEnv(t, "", nil)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/share").Code)
	require.True(t, env.cache.Loaded())

	w := env.do(t, http.MethodPost, "/cache/reset")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[ResetResponse](t, w).Reset)
	assert.False(t, env.cache.Loaded())
}

func TestWritesAreVisibleAfterInvalidation(t *testing.T) {
	env := newTestEnv(t, "", nil)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/notes/guide").Code)

	err := env.db.PutAttribute(context.Background(), models.AttributeRow{
		AttributeID: "data-l9",
		NoteID:      "data",
		Type:        models.AttributeLabel,
		Name:        "shareAlias",
		Value:       "numbers",
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/alias/numbers")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "data", decode[NoteDetail](t, w).NoteID)
}

func TestGraphUnavailable(t *testing.T) {
	db := testutil.TestDB(t, nil)
	cache := graph.NewCache(db, graph.Config{RootNoteID: "_share"}, testutil.Logger())
	router := NewRouter(noteservice.NewService(cache), false, "", nil)
	require.NoError(t, db.Close())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/share", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	env := newTestEnv(t, "secret123", nil)

	w := env.do(t, http.MethodGet, "/share", "Authorization", "Bearer secret123")
	if w.Code != http.StatusOK {
		t.Errorf("authed share = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	env := newTestEnv(t, "secret123", nil)

	w := env.do(t, http.MethodGet, "/share")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	env := newTestEnv(t, "secret123", nil)

	for _, header := range []string{"Bearer wrong", "Bearer secret1234", "secret123", "Basic secret123"} {
		w := env.do(t, http.MethodGet, "/share", "Authorization", header)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%q = %d, want 401", header, w.Code)
		}
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	env := newTestEnv(t, "", nil)

	w := env.do(t, http.MethodGet, "/share")
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	env := newTestEnv(t, "secret", blockingSSE)

	// No token → 401.
	w := env.do(t, http.MethodGet, "/events")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	env := newTestEnv(t, "", blockingSSE)

	// Disabled mode → should not 401. SSE handler will write 200 and block,
	// so we cancel the context after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	env := newTestEnv(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestETagMatches(t *testing.T) {
	etag := `"abc"`
	assert.True(t, etagMatches(`"abc"`, etag))
	assert.True(t, etagMatches(`"x", W/"abc"`, etag))
	assert.True(t, etagMatches(`*`, etag))
	assert.False(t, etagMatches(``, etag))
	assert.False(t, etagMatches(`"abcd"`, etag))
}
