package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/YashLoriya02/storage-management/db"
	"github.com/YashLoriya02/storage-management/internal"
	"github.com/YashLoriya02/storage-management/internal/catalog"
	"github.com/YashLoriya02/storage-management/internal/extract"
	"github.com/YashLoriya02/storage-management/internal/ingest"
	"github.com/YashLoriya02/storage-management/internal/model"
	"github.com/YashLoriya02/storage-management/internal/service"
	"github.com/YashLoriya02/storage-management/internal/storage"
	"github.com/YashLoriya02/storage-management/internal/tagger"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jellydator/ttlcache/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type oracleFunc func(ctx context.Context, prompt string) (string, error)

func (f oracleFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

type testAPI struct {
	router  *gin.Engine
	deps    *internal.Deps
	objects *storage.Memory
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("jwt.secret", testSecret)
	viper.Set("host.cors_origins", []string{"http://localhost:3000"})
	viper.Set("security.rate_limit", 0)

	gdb, err := db.Open("sqlite", ":memory:")
	require.NoError(t, err)

	users := []model.User{
		{ID: "u1", FullName: "Alice A", Email: "alice@example.com"},
		{ID: "u2", FullName: "Bob B", Email: "bob@example.com"},
		{ID: "u3", FullName: "Carol C", Email: "carol@example.com"},
	}
	require.NoError(t, gdb.Create(&users).Error)

	objects := storage.NewMemory("files")
	files := service.NewFiles(gdb, objects)

	o := &ingest.Orchestrator{
		Objects:   objects,
		Files:     files,
		Extractor: extract.Default(extract.NewOCR("", "")),
		Tagger: tagger.New(oracleFunc(func(context.Context, string) (string, error) {
			return "acme corp, q3 2024", nil
		}), tagger.Config{}),
		MaxKeywords: 10,
		TempDir:     t.TempDir(),
	}

	pool := ingest.NewPool(o, 1, 10)
	pool.Start()
	t.Cleanup(pool.Close)

	d := &internal.Deps{
		DB:            gdb,
		Objects:       objects,
		Files:         files,
		Catalog:       catalog.New(gdb, 2<<30),
		Queue:         pool,
		Orchestrator:  o,
		Cache:         persist.NewMemoryStore(time.Minute),
		MaxUploadSize: 1 << 20,
		PresignTTL:    time.Minute,
	}

	return &testAPI{router: NewRouter(d), deps: d, objects: objects}
}

func token(t *testing.T, userID string) string {
	t.Helper()

	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	return s
}

func (a *testAPI) do(t *testing.T, userID, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) upload(t *testing.T, userID, path, name, content string, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	if name != "" {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token(t, userID))

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

type fileResponse struct {
	File model.File `json:"file"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "", http.MethodHead, "/api/heartbeat", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestFilesRequireToken(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "", http.MethodGet, "/api/files/listFiles", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(t, "ghost", http.MethodGet, "/api/files/listFiles", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadShareReadOnly(t *testing.T) {
	a := newTestAPI(t)

	w := a.upload(t, "u1", "/api/files/upload", "q3.txt", "Quarterly Report for Acme Corp, Q3 2024", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	f := decode[fileResponse](t, w).File
	assert.Equal(t, model.TypeDocument, f.Type)
	assert.Equal(t, "txt", f.Extension)
	assert.True(t, a.objects.Has(f.BucketFileID))

	id := fmt.Sprint(f.ID)

	// Bob can't see it yet
	w = a.do(t, "u2", http.MethodGet, "/api/files/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, "u1", http.MethodPost, "/api/files/shareFile", gin.H{
		"fileId": f.ID,
		"users":  []gin.H{{"email": "bob@example.com", "accessType": "read"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, "u2", http.MethodGet, "/api/files/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"actions":["view","download","view-details"]`)

	w = a.do(t, "u2", http.MethodGet, "/api/files/"+id+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "memory://files/"+f.BucketFileID)

	w = a.do(t, "u2", http.MethodPost, "/api/files/renameFile", gin.H{"fileId": f.ID, "name": "mine.txt"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, "u2", http.MethodPost, "/api/files/deleteFile", gin.H{"bucketFileId": f.BucketFileID})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, "u3", http.MethodPost, "/api/files/renameFile", gin.H{"fileId": f.ID, "name": "mine.txt"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, "u2", http.MethodGet, "/api/files/listFiles?types=document,image&sort=name-asc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	listed := decode[[]model.File](t, w)
	require.Len(t, listed, 1)
	require.NotNil(t, listed[0].Owner)
	assert.Equal(t, "Alice A", listed[0].Owner.FullName)

	w = a.do(t, "u1", http.MethodPost, "/api/files/renameFile", gin.H{"fileId": f.ID, "name": "final.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "final.txt", decode[fileResponse](t, w).File.Name)

	w = a.do(t, "u1", http.MethodPost, "/api/files/deleteFile", gin.H{"bucketFileId": f.BucketFileID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, a.objects.Has(f.BucketFileID))
}

func TestListFilesChecksIdentity(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "u1", http.MethodGet, "/api/files/listFiles?ownerId=u2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, "u1", http.MethodGet, "/api/files/getFiles?email=ALICE@example.com", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	w = a.do(t, "u1", http.MethodGet, "/api/files/listFiles?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddFileAndKeywords(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "u1", http.MethodPost, "/api/files/addFile", gin.H{
		"type":         "document",
		"name":         "cv.pdf",
		"extension":    "pdf",
		"size":         1200,
		"owner":        "u1",
		"bucketFileId": "elsewhere-1",
		"bucketId":     "another-bucket",
		"users":        []gin.H{{"email": "bob@example.com", "accessType": "rw"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := decode[fileResponse](t, w).File

	w = a.do(t, "u1", http.MethodPost, "/api/files/addFile", gin.H{
		"type": "document", "name": "x.pdf", "owner": "u2", "bucketFileId": "elsewhere-2",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, "u2", http.MethodPost, "/api/files/addCustomKeywords", gin.H{
		"fileId":   f.ID,
		"keywords": []string{"Resume", "resume", "cv"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.StringSlice{"Resume", "cv"}, decode[fileResponse](t, w).File.Keywords)

	w = a.do(t, "u2", http.MethodPost, "/api/files/addCustomKeywords", gin.H{"fileId": f.ID, "keywords": []string{" "}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, "u1", http.MethodPost, "/api/files/shareFile", gin.H{
		"fileId": f.ID,
		"users":  []gin.H{{"email": "alice@example.com", "accessType": "read"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, "u1", http.MethodPost, "/api/files/shareFile", gin.H{"fileId": f.ID, "isRemove": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[fileResponse](t, w).File.Grants)
}

func TestGenerateKeywords(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "u1", http.MethodPost, "/api/files/addFile", gin.H{
		"type": "document", "name": "q3.txt", "owner": "u1", "bucketFileId": "remote-q3", "bucketId": "remote",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := decode[fileResponse](t, w).File
	id := fmt.Sprint(f.ID)

	w = a.upload(t, "u1", "/api/files/generateKeywords", "", "", map[string]string{"fileId": id})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.upload(t, "u1", "/api/files/generateKeywords", "q3.txt", "Quarterly Report for Acme Corp, Q3 2024", map[string]string{"fileId": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[struct {
		Keywords []string `json:"keywords"`
		State    string   `json:"state"`
	}](t, w)
	assert.Equal(t, []string{"acme corp", "q3 2024"}, res.Keywords)
	assert.Equal(t, model.StateTagged, res.State)

	// Blank content tags nothing but isn't an error, and the file stays tagged
	w = a.upload(t, "u1", "/api/files/generateKeywords", "blank.txt", "   ", map[string]string{"fileId": id})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"keywords":[]`)
	assert.Contains(t, w.Body.String(), `"state":"tagged"`)

	w = a.do(t, "u1", http.MethodGet, "/api/files/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"tagged"`)
	assert.Contains(t, w.Body.String(), `"acme corp"`)

	w = a.do(t, "u1", http.MethodGet, "/api/files/listFiles?searchText=ACME", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.File](t, w), 1)

	w = a.upload(t, "u2", "/api/files/generateKeywords", "q3.txt", "text", map[string]string{"fileId": id})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUsage(t *testing.T) {
	a := newTestAPI(t)

	w := a.upload(t, "u1", "/api/files/upload", "notes.txt", strings.Repeat("a", 100), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, "u1", http.MethodGet, "/api/files/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)

	u := decode[model.Usage](t, w)
	assert.EqualValues(t, 100, u.Document.Size)
	assert.EqualValues(t, 100, u.Used)
	assert.EqualValues(t, 2<<30, u.All)

	w = a.upload(t, "u1", "/api/files/upload", "more.txt", strings.Repeat("b", 50), nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(t, "u1", http.MethodGet, "/api/files/usage", nil)
	assert.EqualValues(t, 150, decode[model.Usage](t, w).Used)

	w = a.do(t, "u1", http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"alice@example.com"`)
}

func TestUsageFollowsSharing(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, "u2", http.MethodGet, "/api/files/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode[model.Usage](t, w).Used)

	w = a.upload(t, "u1", "/api/files/upload", "notes.txt", strings.Repeat("a", 100), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := decode[fileResponse](t, w).File

	w = a.do(t, "u1", http.MethodPost, "/api/files/shareFile", gin.H{
		"fileId": f.ID,
		"users":  []gin.H{{"email": "bob@example.com", "accessType": "read"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, "u2", http.MethodGet, "/api/files/usage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	u := decode[model.Usage](t, w)
	assert.EqualValues(t, 100, u.Used)
	assert.EqualValues(t, 100, u.Document.Size)

	// Replacing the grants takes it away again
	w = a.do(t, "u1", http.MethodPost, "/api/files/shareFile", gin.H{
		"fileId": f.ID,
		"users":  []gin.H{{"email": "carol@example.com", "accessType": "read"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, "u2", http.MethodGet, "/api/files/usage", nil)
	assert.EqualValues(t, 0, decode[model.Usage](t, w).Used)

	w = a.do(t, "u3", http.MethodGet, "/api/files/usage", nil)
	assert.EqualValues(t, 100, decode[model.Usage](t, w).Used)
}

func TestDownloadLinkCache(t *testing.T) {
	a := newTestAPI(t)

	w := a.upload(t, "u1", "/api/files/upload", "notes.txt", "some notes", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	f := decode[fileResponse](t, w).File
	path := "/api/files/" + fmt.Sprint(f.ID) + "/download"

	type linkResponse struct {
		URL       string `json:"url"`
		ExpiresIn int    `json:"expiresIn"`
	}

	w = a.do(t, "u1", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decode[linkResponse](t, w)
	assert.InDelta(t, 60, first.ExpiresIn, 2)

	links := a.deps.Cache.(*persist.MemoryStore).Cache
	_, err := links.Get("link:" + f.BucketFileID)
	require.NoError(t, err)

	// Cached links still go through access checks
	w = a.do(t, "u2", http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, "u1", http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.URL, decode[linkResponse](t, w).URL)

	w = a.do(t, "u1", http.MethodPost, "/api/files/renameFile", gin.H{"fileId": f.ID, "name": "final.txt"})
	require.Equal(t, http.StatusOK, w.Code)
	_, err = links.Get("link:" + f.BucketFileID)
	assert.ErrorIs(t, err, ttlcache.ErrNotFound)

	w = a.do(t, "u1", http.MethodPost, "/api/files/deleteFile", gin.H{"fileId": f.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, "u1", http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
