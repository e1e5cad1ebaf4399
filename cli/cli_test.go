package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newGolden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// runCLI executes cmsctl with args and returns stdout, stderr and the error.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fakeServer hands out a CSRF token on every response like the real API.
func fakeServer(t *testing.T, mux *http.ServeMux) *httptest.Server {
	t.Helper()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRF-Token", "tok")
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signedInState(t *testing.T, server, role string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.yaml")
	st := State{Server: server, Email: "amy@example.com", Role: role, Cookies: []savedCookie{{Name: "cms_session", Value: "abc"}}}
	require.NoError(t, st.Save(path))
	return path
}

func TestTagsGolden(t *testing.T) {
	g := newGolden(t)

	out, _, err := runCLI(t, "tags", "#go is #fun #go")
	require.NoError(t, err)
	g.Assert(t, "tags_text", []byte(out))

	out, _, err = runCLI(t, "--format", "json", "tags", "no tags here")
	require.NoError(t, err)
	g.Assert(t, "tags_json", []byte(out))
}

func TestCheckGolden(t *testing.T) {
	g := newGolden(t)

	out, _, err := runCLI(t, "check", "testdata/post_ready.yaml")
	require.NoError(t, err)
	g.Assert(t, "check_publish_text", []byte(out))

	out, _, err = runCLI(t, "check", "--mode", "draft", "testdata/post_two_tags.yaml")
	require.NoError(t, err)
	g.Assert(t, "check_draft_text", []byte(out))

	out, _, err = runCLI(t, "--format", "json", "check", "testdata/post_two_tags.yaml")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, Reported(err))
	g.Assert(t, "check_missing_tags_json", []byte(out))
}

func TestCheckBadInput(t *testing.T) {
	_, _, err := runCLI(t, "check", "--mode", "sometime", "testdata/post_ready.yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, _, err = runCLI(t, "check", "testdata/missing.yaml")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, "--format", "xml", "tags", "#a")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.False(t, Reported(err))
}

func TestPostsGolden(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/user/blogs", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("status"))
		writeJSON(w, http.StatusOK, []map[string]interface{}{
			{"id": 3, "title": "Hello world", "status": "published", "tags": []string{"go", "web"}, "show": true, "word_count": 120},
			{"id": 4, "title": "Untitled idea", "status": "draft", "tags": []string{}, "show": true, "content": "<p>one two</p>"},
		})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "posts")
	require.NoError(t, err)
	newGolden(t).Assert(t, "posts_text", []byte(out))
}

func TestAdminCommandNeedsAdmin(t *testing.T) {
	srv := fakeServer(t, http.NewServeMux())
	state := signedInState(t, srv.URL, "user")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "admin", "users")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	newGolden(t).Assert(t, "admin_not_signed_in_text", []byte(out))
}

func TestCommandsNeedLogin(t *testing.T) {
	state := filepath.Join(t.TempDir(), "state.yaml")
	out, _, err := runCLI(t, "--server", "http://127.0.0.1:1", "--state", state, "--format", "json", "posts")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "NOT_SIGNED_IN", resp.Error.Code)
}

func TestLoginSavesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error": map[string]string{"code": "INVALID_CREDENTIALS", "message": "No active account found with the given credentials"},
			})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "cms_session", Value: "signed", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "role": "user",
			"user": map[string]interface{}{"id": 5, "email": "amy@example.com", "username": "amy"},
		})
	})
	srv := fakeServer(t, mux)
	state := filepath.Join(t.TempDir(), "state.yaml")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "login", "--email", "amy@example.com", "--password", "wrong")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "Error [INVALID_CREDENTIALS]: No active account found with the given credentials\n", out)

	out, _, err = runCLI(t, "--server", srv.URL, "--state", state, "login", "--email", "amy@example.com", "--password", "secret")
	require.NoError(t, err)
	assert.Equal(t, "amy <amy@example.com> (user)\n", out)

	st, err := LoadState(state)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, st.Server)
	assert.Equal(t, "user", st.Role)
	assert.Contains(t, st.Cookies, savedCookie{Name: "cms_session", Value: "signed"})

	info, err := os.Stat(state)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestExpiredSessionIsForgotten(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/explore/blogs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
			"error": map[string]string{"code": "UNAUTHORIZED", "message": "Authentication required"},
		})
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "explore")
	require.Error(t, err)
	assert.Equal(t, "Error [AUTH_EXPIRED]: session expired: run cmsctl login\n", out)

	st, err := LoadState(state)
	require.NoError(t, err)
	assert.Empty(t, st.Cookies)
	assert.Empty(t, st.Role)
}

func TestPublishPostFile(t *testing.T) {
	var saved map[string]interface{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/uploads/image", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tok", r.Header.Get("X-CSRF-Token"))
		writeJSON(w, http.StatusCreated, map[string]string{"url": "https://img.example/new.png"})
	})
	mux.HandleFunc("/api/v1/user/blogs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&saved))
		saved["id"] = 11
		saved["show"] = true
		saved["category"] = map[string]interface{}{"id": 2, "name": "Tech", "active": true}
		writeJSON(w, http.StatusCreated, saved)
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")

	thumb := filepath.Join(t.TempDir(), "new.png")
	require.NoError(t, os.WriteFile(thumb, pngHeader, 0o644))

	out, _, err := runCLI(t, "--server", srv.URL, "--state", state, "--format", "json",
		"post", "publish", "testdata/post_ready.yaml", "--thumbnail-file", thumb)
	require.NoError(t, err)

	assert.Equal(t, "published", saved["status"])
	assert.Equal(t, "https://img.example/new.png", saved["thumbnail"])
	assert.Equal(t, []interface{}{"go", "web", "cms"}, saved["tags"])

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, int64(11), resp.Data.ID)
}

func TestSaveDraftValidationIsLocal(t *testing.T) {
	calls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/user/blogs", func(w http.ResponseWriter, r *http.Request) {
		calls++
	})
	srv := fakeServer(t, mux)
	state := signedInState(t, srv.URL, "user")

	postPath := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(postPath, []byte("title: \"\"\n"), 0o644))

	out, stderr, err := runCLI(t, "--server", srv.URL, "--state", state, "post", "save", postPath)
	require.Error(t, err)
	assert.True(t, Reported(err))
	assert.Empty(t, out)
	assert.Equal(t, "✘ Please enter a blog title.\n", stderr)
	assert.Zero(t, calls)
}
