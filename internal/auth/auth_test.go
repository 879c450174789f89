package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPublicPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/login", true},
		{"/api/auth/login", true},
		{"/api/auth", true},
		{"/logo.png", true},
		{"/img/photo.JPG", true},
		{"/a.jpeg", true},
		{"/anim.gif", true},
		{"/icon.svg", true},
		{"/favicon.ico", true},
		{"/", false},
		{"/login/extra", false},
		{"/dashboard", false},
		{"/api/sessions", false},
		{"/app.js", false},
		{"/styles.css", false},
		{"/ws/practice/abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPublicPath(tt.path))
		})
	}
}

func gated() http.Handler {
	return Gate()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestGateRedirectsWithoutCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	w := httptest.NewRecorder()
	gated().ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestGateRejectsWrongCookieValue(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "yes"})
	w := httptest.NewRecorder()
	gated().ServeHTTP(w, req)

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
}

func TestGateAllowsCookieAndPublicPaths(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: CookieValue})
	w := httptest.NewRecorder()
	gated().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/favicon.ico", nil)
	w = httptest.NewRecorder()
	gated().ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func loginRouter(isDev bool) chi.Router {
	r := chi.NewRouter()
	NewHandler("coach", "s3cret", isDev).RegisterRoutes(r)
	return r
}

func TestLoginSuccessSetsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"coach","password":"s3cret"}`))
	w := httptest.NewRecorder()
	loginRouter(false).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.Equal(t, CookieValue, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
}

func TestLoginDevCookieNotSecure(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"coach","password":"s3cret"}`))
	w := httptest.NewRecorder()
	loginRouter(true).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, w.Result().Cookies()[0].Secure)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "wrong password", body: `{"username":"coach","password":"nope"}`, want: http.StatusUnauthorized},
		{name: "wrong user", body: `{"username":"other","password":"s3cret"}`, want: http.StatusUnauthorized},
		{name: "empty", body: `{}`, want: http.StatusUnauthorized},
		{name: "malformed", body: `{"username":`, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			loginRouter(false).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestLoginRejectsWhenUnconfigured(t *testing.T) {
	r := chi.NewRouter()
	NewHandler("", "", true).RegisterRoutes(r)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"","password":""}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutExpiresCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	w := httptest.NewRecorder()
	loginRouter(false).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}
