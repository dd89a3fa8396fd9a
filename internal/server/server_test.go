package server_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookmark-api/internal/config"
	"github.com/sakif/bookmark-api/internal/model"
	"github.com/sakif/bookmark-api/internal/repository/sqlstore"
	"github.com/sakif/bookmark-api/internal/server"
)

// newTestHandler builds the whole stack over a fresh in-memory database.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlstore.Migrate(db, sqlstore.DriverSQLite))

	cfg := &config.Config{}
	cfg.HTTP.Addr = ":0"
	cfg.DB.Driver = sqlstore.DriverSQLite
	cfg.DB.DSN = ":memory:"
	cfg.JWT.Secret = "server-test-secret-0123456789"
	cfg.JWT.TTL = 15 * time.Minute
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.ShutdownTimeout = time.Second

	srv, err := server.New(cfg, db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return srv.Handler()
}

func do(t *testing.T, h http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func signup(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/auth/signup", "", `{"email":"`+email+`","password":"123"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func createBookmark(t *testing.T, h http.Handler, token, body string) model.Bookmark {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/bookmark", token, body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var b model.Bookmark
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&b))
	return b
}

func listBookmarks(t *testing.T, h http.Handler, token string) []model.Bookmark {
	t.Helper()
	rr := do(t, h, http.MethodGet, "/bookmark", token, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var list []model.Bookmark
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
	return list
}

func bookmarkPath(id int64) string {
	return "/bookmark/" + strconv.FormatInt(id, 10)
}

func TestAuthFlow(t *testing.T) {
	h := newTestHandler(t)

	t.Run("signup rejects missing email", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signup", "", `{"password":"123"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("signup rejects missing password", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signup", "", `{"email":"vlad@gmail.com"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("signup rejects empty body", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signup", "", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	signup(t, h, "vlad@gmail.com")

	t.Run("signup with a taken email is forbidden", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signup", "", `{"email":"vlad@gmail.com","password":"456"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "Credentials taken")
	})

	t.Run("signin rejects missing fields", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signin", "", `{"email":"vlad@gmail.com"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("signin with a wrong password is forbidden", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signin", "", `{"email":"vlad@gmail.com","password":"nope"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Contains(t, rr.Body.String(), "Credentials incorrect")
	})

	t.Run("signin with an unknown email is forbidden", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signin", "", `{"email":"nobody@gmail.com","password":"123"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("signin returns a usable token", func(t *testing.T) {
		rr := do(t, h, http.MethodPost, "/auth/signin", "", `{"email":"vlad@gmail.com","password":"123"}`)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))

		me := do(t, h, http.MethodGet, "/users/me", resp.AccessToken, "")
		require.Equal(t, http.StatusOK, me.Code)
		assert.Contains(t, me.Body.String(), `"email":"vlad@gmail.com"`)
		assert.NotContains(t, me.Body.String(), "hash")
	})

	t.Run("github routes are not mounted without credentials", func(t *testing.T) {
		rr := do(t, h, http.MethodGet, "/auth/github/login", "", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	h := newTestHandler(t)

	routes := []struct{ method, target string }{
		{http.MethodGet, "/users/me"},
		{http.MethodPatch, "/users"},
		{http.MethodGet, "/bookmark"},
		{http.MethodPost, "/bookmark"},
		{http.MethodGet, "/bookmark/1"},
		{http.MethodPatch, "/bookmark/1"},
		{http.MethodDelete, "/bookmark/1"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.target, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, do(t, h, rt.method, rt.target, "", "").Code)
			assert.Equal(t, http.StatusUnauthorized, do(t, h, rt.method, rt.target, "not-a-jwt", "").Code)
		})
	}
}

func TestEditUser(t *testing.T) {
	h := newTestHandler(t)
	token := signup(t, h, "vlad@gmail.com")
	signup(t, h, "taken@gmail.com")

	rr := do(t, h, http.MethodPatch, "/users", token, `{"firstName":"Vladimir","email":"vlad2@gmail.com"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var u model.User
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&u))
	assert.Equal(t, "vlad2@gmail.com", u.Email)
	require.NotNil(t, u.FirstName)
	assert.Equal(t, "Vladimir", *u.FirstName)

	rr = do(t, h, http.MethodPatch, "/users", token, `{"email":"taken@gmail.com"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, h, http.MethodPatch, "/users", token, `{"email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBookmarkLifecycle(t *testing.T) {
	h := newTestHandler(t)
	token := signup(t, h, "vlad@gmail.com")

	assert.Empty(t, listBookmarks(t, h, token), "new account starts with no bookmarks")

	created := createBookmark(t, h, token, `{"title":"First Bookmark","link":"https://www.youtube.com/watch?v=d6WC5n9G_sM"}`)
	assert.Positive(t, created.ID)
	assert.Equal(t, "First Bookmark", created.Title)
	assert.Nil(t, created.Description)

	list := listBookmarks(t, h, token)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	rr := do(t, h, http.MethodGet, bookmarkPath(created.ID), token, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var got model.Bookmark
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, created.Title, got.Title)
	assert.Equal(t, created.Link, got.Link)

	rr = do(t, h, http.MethodPatch, bookmarkPath(created.ID), token, `{"description":"Kubernetes course"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var edited model.Bookmark
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&edited))
	assert.Equal(t, created.Title, edited.Title, "unpatched title survives")
	assert.Equal(t, created.Link, edited.Link, "unpatched link survives")
	require.NotNil(t, edited.Description)
	assert.Equal(t, "Kubernetes course", *edited.Description)

	rr = do(t, h, http.MethodPatch, "/bookmark", token, `{"id":`+strconv.FormatInt(created.ID, 10)+`,"title":"Renamed"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"title":"Renamed"`)

	rr = do(t, h, http.MethodDelete, bookmarkPath(created.ID), token, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	assert.Empty(t, listBookmarks(t, h, token))

	rr = do(t, h, http.MethodDelete, bookmarkPath(created.ID), token, "")
	assert.Equal(t, http.StatusForbidden, rr.Code, "deleted bookmark cannot be deleted again")
	rr = do(t, h, http.MethodPatch, bookmarkPath(created.ID), token, `{"title":"ghost"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code, "deleted bookmark cannot be edited")
}

func TestBookmarkValidation(t *testing.T) {
	h := newTestHandler(t)
	token := signup(t, h, "vlad@gmail.com")

	bodies := []string{
		`{"link":"https://example.com"}`,
		`{"title":"no link"}`,
		`{"title":"   ","link":"https://example.com"}`,
		`{"title":"blank link","link":""}`,
		`{"title":"x","link":"https://example.com","userId":99}`,
		`not json`,
	}
	for _, body := range bodies {
		rr := do(t, h, http.MethodPost, "/bookmark", token, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
	assert.Empty(t, listBookmarks(t, h, token), "rejected creates store nothing")

	b := createBookmark(t, h, token, `{"title":"t","link":"https://example.com"}`)

	rr := do(t, h, http.MethodPatch, bookmarkPath(b.ID), token, `{"title":""}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodGet, "/bookmark/abc", token, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBookmarkOwnershipIsolation(t *testing.T) {
	h := newTestHandler(t)
	alice := signup(t, h, "alice@gmail.com")
	bob := signup(t, h, "bob@gmail.com")

	b := createBookmark(t, h, alice, `{"title":"alice's","link":"https://alice.example","description":"private"}`)

	assert.Empty(t, listBookmarks(t, h, bob), "bob sees none of alice's bookmarks")

	rr := do(t, h, http.MethodGet, bookmarkPath(b.ID), bob, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "null", strings.TrimSpace(rr.Body.String()))

	rr = do(t, h, http.MethodPatch, bookmarkPath(b.ID), bob, `{"title":"pwned"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "Access to resource denied")

	rr = do(t, h, http.MethodDelete, bookmarkPath(b.ID), bob, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	list := listBookmarks(t, h, alice)
	require.Len(t, list, 1)
	assert.Equal(t, "alice's", list[0].Title, "alice's bookmark is untouched")
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	do(t, h, http.MethodGet, "/bookmark", "", "")
	rr = do(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "bookmarks_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodOptions, "/bookmark", bytes.NewReader(nil))
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}
