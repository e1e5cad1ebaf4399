package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var helloPost = map[string]interface{}{
	"id": 3, "title": "Hello world", "status": "published", "tags": []string{"go", "web"},
	"category": map[string]interface{}{"id": 2, "name": "Tech", "active": true},
	"show": false, "word_count": 120, "reading_minutes": 1, "likes_count": 2, "comments_count": 1,
}

var niceComment = map[string]interface{}{
	"id": 9, "blog_id": 3, "content": "nice post", "user": map[string]interface{}{"id": 6, "username": "bob"},
}

func TestAdminPostGolden(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/admin/blog/3", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		writeJSON(w, http.StatusOK, map[string]interface{}{"post": helloPost, "comments": []interface{}{niceComment}})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "admin")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "admin", "post", "3")
	require.NoError(t, err)
	newGolden(t).Assert(t, "admin_post_text", []byte(out))
}

func TestAdminPostsFilters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/admin/posts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "false", q.Get("show"))
		assert.Equal(t, "published", q.Get("status"))
		assert.Equal(t, "2", q.Get("page"))
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": 4, "total_pages": 2, "page": 2, "results": []interface{}{helloPost},
		})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "admin")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state,
		"admin", "posts", "--show", "false", "--status", "published", "--page", "2")
	require.NoError(t, err)
	assert.Equal(t, "[3] Hello world (published, 120 words) #go #web hidden\npage 2 of 2 (4 posts)\n", out)

	_, _, err = runCLI(t, "--server", srv.URL, "--state", state, "admin", "posts", "--show", "maybe")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestAdminModerationCommands(t *testing.T) {
	var deleted, status string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/admin/blog/3", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "tok", r.Header.Get("X-CSRF-Token"))
		deleted = r.URL.Query().Get("comment_id")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/api/v1/admin/users/5/status", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		status = body["status"]
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"id": 5, "username": "amy", "email": "amy@example.com", "role": "user", "is_active": false, "posts": 3,
		})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "admin")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "admin", "delete-comment", "3", "9")
	require.NoError(t, err)
	assert.Equal(t, "9", deleted)
	assert.Equal(t, "deleted comment #9 from post #3\n", out)

	out, _, err = runCLI(t, "--server", srv.URL, "--state", state, "admin", "deactivate", "5")
	require.NoError(t, err)
	assert.Equal(t, "Inactive", status)
	assert.Equal(t, "[5] amy <amy@example.com> user, inactive, 3 posts\n", out)
}

func TestAdminExportWritesBundle(t *testing.T) {
	bundle := []byte("PK\x03\x04 zip bytes")
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/admin/blog/3/export", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(bundle)
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "admin")
	path := filepath.Join(t.TempDir(), "hello.zip")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "--format", "json", "admin", "export", "3", "-o", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, bundle, data)

	var resp struct {
		Data exportView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, exportView{PostID: 3, Path: path, Bytes: len(bundle)}, resp.Data)
}

func TestReadShowsComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/explore/blogs/3", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, helloPost)
	})
	mux.HandleFunc("/api/v1/explore/blogs/3/comments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []interface{}{})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "read", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "#3 Hello world [published]\n")
	assert.Contains(t, out, "\nno comments\n")
}

func TestCommentEditAndDelete(t *testing.T) {
	var methods []string
	var edited map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/explore/comments/9", func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&edited))
		c := map[string]interface{}{}
		for k, v := range niceComment {
			c[k] = v
		}
		c["content"] = edited["content"]
		writeJSON(w, http.StatusOK, c)
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "comment", "edit", "9", "much", "better")
	require.NoError(t, err)
	assert.Equal(t, "much better", edited["content"])
	assert.Equal(t, "comment #9 on post #3 by bob: much better\n", out)

	out, _, err = runCLI(t, "--server", srv.URL, "--state", state, "comment", "delete", "9")
	require.NoError(t, err)
	assert.Equal(t, "deleted comment #9\n", out)
	assert.Equal(t, []string{http.MethodPut, http.MethodDelete}, methods)
}

func TestPostImportShowDelete(t *testing.T) {
	var uploaded []byte
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/user/blogs/import", func(w http.ResponseWriter, r *http.Request) {
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "trip.zip", hdr.Filename)
		uploaded, err = io.ReadAll(f)
		require.NoError(t, err)
		writeJSON(w, http.StatusCreated, map[string]interface{}{"id": 12, "title": "Trip", "status": "draft", "tags": []string{}, "show": true})
	})
	mux.HandleFunc("/api/v1/user/blogs/12", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"id": 12, "title": "Trip", "status": "draft", "tags": []string{}, "show": true, "word_count": 2})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")
	zipPath := filepath.Join(t.TempDir(), "trip.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("PK\x03\x04"), 0o644))

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "post", "import", zipPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK\x03\x04"), uploaded)
	assert.Contains(t, out, "#12 Trip [draft]")

	out, _, err = runCLI(t, "--server", srv.URL, "--state", state, "post", "show", "12")
	require.NoError(t, err)
	assert.Contains(t, out, "2 words")

	out, _, err = runCLI(t, "--server", srv.URL, "--state", state, "post", "delete", "12")
	require.NoError(t, err)
	assert.Equal(t, "deleted post #12\n", out)
}

func TestVerboseJSONLogsNotifications(t *testing.T) {
	srv := fakeServer(t, http.NewServeMux())
	state := signedInState(t, srv.URL, "user")
	postPath := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(postPath, []byte("title: \"\"\n"), 0o644))

	out, stderr, err := runCLI(t, "--server", srv.URL, "--state", state, "--format", "json", "-v", "post", "save", postPath)
	require.Error(t, err)
	assert.Contains(t, stderr, "cmsctl: error: Please enter a blog title.")

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}
