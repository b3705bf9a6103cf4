package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var storedNamePattern = regexp.MustCompile(`^(\d+)-(.+)$`)

type testServer struct {
	router *gin.Engine
	dir    string
}

func newTestServer(t *testing.T, opts RouteOptions) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := filepath.Join(t.TempDir(), "filestorage")
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	router := gin.New()
	RegisterRoutes(&router.RouterGroup, NewService(store), opts)
	return &testServer{router: router, dir: dir}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) upload(t *testing.T, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	return s.do(newUploadRequest(t, filename, content))
}

func newUploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(FormField, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func (s *testServer) list(t *testing.T) []string {
	t.Helper()
	rr := s.do(httptest.NewRequest(http.MethodGet, "/view", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Files []string `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Files
}

func (s *testServer) diskEntries(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(s.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestUploadCreatesPrefixedEntryAndRedirects(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})

	var prefixes []int64
	for i := 0; i < 3; i++ {
		rr := srv.upload(t, "a.txt", []byte("alpha"))
		require.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/", rr.Header().Get("Location"))

		entries := srv.diskEntries(t)
		require.Len(t, entries, i+1)

		latest := entries[len(entries)-1]
		m := storedNamePattern.FindStringSubmatch(latest)
		require.NotNil(t, m, "unexpected stored name %q", latest)
		assert.Equal(t, "a.txt", m[2])

		prefix, err := strconv.ParseInt(m[1], 10, 64)
		require.NoError(t, err)
		prefixes = append(prefixes, prefix)
	}

	assert.Less(t, prefixes[0], prefixes[1])
	assert.Less(t, prefixes[1], prefixes[2])
}

func TestViewListsFiles(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/view", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"files": []}`, rr.Body.String())

	srv.upload(t, "a.txt", []byte("a"))
	srv.upload(t, "b.txt", []byte("b"))

	files := srv.list(t)
	require.Len(t, files, 2)
	assert.Regexp(t, storedNamePattern, files[0])
	assert.True(t, strings.HasSuffix(files[0], "-a.txt"))
	assert.True(t, strings.HasSuffix(files[1], "-b.txt"))
}

func TestViewReportsUnreadableDirectory(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})
	require.NoError(t, os.RemoveAll(srv.dir))

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/view", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Error reading the upload directory", rr.Body.String())
}

func TestDeleteRemovesThenReportsNotFound(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})
	srv.upload(t, "a.txt", []byte("a"))
	name := srv.list(t)[0]

	rr := srv.do(httptest.NewRequest(http.MethodDelete, "/delete/"+name, nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, fmt.Sprintf("File %s deleted successfully.", name), rr.Body.String())
	assert.Empty(t, srv.diskEntries(t))

	rr = srv.do(httptest.NewRequest(http.MethodDelete, "/delete/"+name, nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "File not found.", rr.Body.String())
}

func TestServeReturnsExactBytes(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})
	payload := []byte("line one\nline two\x00\xff")
	srv.upload(t, "notes.txt", payload)
	name := srv.list(t)[0]

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, payload, rr.Body.Bytes())
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")

	head := srv.do(httptest.NewRequest(http.MethodHead, "/uploads/"+name, nil))
	assert.Equal(t, http.StatusOK, head.Code)
	assert.Equal(t, strconv.Itoa(len(payload)), head.Header().Get("Content-Length"))
}

func TestServeMissingFileIsNotFound(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/uploads/nope.txt", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = srv.do(httptest.NewRequest(http.MethodGet, "/uploads/..%2F..%2Fetc%2Fpasswd", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUploadWithoutFileFieldStoresNothing(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("comment", "no file here"))
	require.NoError(t, writer.Close())
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := srv.do(req)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/", rr.Header().Get("Location"))
	assert.Empty(t, srv.diskEntries(t))

	rr = srv.do(httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("plain body")))
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Empty(t, srv.diskEntries(t))
}

func TestUploadMalformedMultipartIsBadRequest(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})

	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("garbage"))
	req.Header.Set("Content-Type", "multipart/form-data")

	rr := srv.do(req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, srv.diskEntries(t))
}

func TestConcurrentUploadsNeverCollide(t *testing.T) {
	srv := newTestServer(t, RouteOptions{})

	const uploads = 20
	requests := make([]*http.Request, uploads)
	for i := range requests {
		requests[i] = newUploadRequest(t, fmt.Sprintf("f%d.txt", i%2), []byte("x"))
	}

	codes := make([]int, uploads)
	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req *http.Request) {
			defer wg.Done()
			codes[i] = srv.do(req).Code
		}(i, req)
	}
	wg.Wait()

	for _, code := range codes {
		assert.Equal(t, http.StatusFound, code)
	}
	assert.Len(t, srv.diskEntries(t), uploads)
}

func TestUploadMiddlewareRunsFirst(t *testing.T) {
	reject := func(c *gin.Context) {
		c.Abort()
		c.String(http.StatusTooManyRequests, "Too many uploads.")
	}
	srv := newTestServer(t, RouteOptions{UploadMiddleware: []gin.HandlerFunc{reject}})

	rr := srv.upload(t, "a.txt", []byte("a"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Empty(t, srv.diskEntries(t))
}

func TestServeRedirectsToLinkWhenConfigured(t *testing.T) {
	linker := &fakeLinker{url: "https://objects.example.com/signed"}
	srv := newTestServer(t, RouteOptions{Linker: linker})
	srv.upload(t, "a.txt", []byte("a"))
	name := srv.list(t)[0]

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, linker.url, rr.Header().Get("Location"))
	assert.Equal(t, name, linker.lastName)

	rr = srv.do(httptest.NewRequest(http.MethodGet, "/uploads/missing.txt", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	linker.err = errors.New("signer down")
	rr = srv.do(httptest.NewRequest(http.MethodGet, "/uploads/"+name, nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

type fakeLinker struct {
	url      string
	err      error
	lastName string
}

func (f *fakeLinker) PresignedGetURL(_ context.Context, name string) (string, error) {
	f.lastName = name
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}
