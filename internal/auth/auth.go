// Package auth provides the boundary gate: a single shared login that sets a
// marker cookie, and middleware that redirects requests without it.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ashureev/feedback-coach/internal/api"
)

// Cookie and route names.
const (
	CookieName   = "auth_token"
	CookieValue  = "authenticated"
	LoginPath    = "/login"
	cookieMaxAge = 7 * 24 * time.Hour
)

// bypassPrefix and publicAssetExts are reachable without the cookie.
const bypassPrefix = "/api/auth"

var publicAssetExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".svg":  true,
	".ico":  true,
}

// IsPublicPath reports whether p bypasses the gate.
func IsPublicPath(p string) bool {
	if p == LoginPath || strings.HasPrefix(p, bypassPrefix) {
		return true
	}
	return publicAssetExts[strings.ToLower(path.Ext(p))]
}

// Authenticated reports whether r carries the marker cookie.
func Authenticated(r *http.Request) bool {
	c, err := r.Cookie(CookieName)
	return err == nil && c.Value == CookieValue
}

// Gate redirects unauthenticated requests to the login page.
func Gate() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsPublicPath(r.URL.Path) || Authenticated(r) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusTemporaryRedirect)
		})
	}
}

// Handler serves login and logout.
type Handler struct {
	username string
	password string
	isDev    bool
}

// NewHandler creates a login handler for one shared credential pair.
func NewHandler(username, password string, isDev bool) *Handler {
	return &Handler{username: username, password: password, isDev: isDev}
}

// RegisterRoutes registers auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(bypassPrefix, func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) valid(req loginRequest) bool {
	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.password)) == 1
	return userOK && passOK && h.username != ""
}

// HandleLogin handles POST /api/auth/login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.valid(req) {
		slog.Warn("Login rejected", "ip", api.ClientIP(r))
		api.Error(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	http.SetCookie(w, h.cookie(CookieValue, cookieMaxAge))
	slog.Info("Login accepted", "ip", api.ClientIP(r))
	api.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleLogout handles POST /api/auth/logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, h.cookie("", -1))
	api.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) cookie(value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !h.isDev,
	}
	if maxAge < 0 {
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		return c
	}
	c.MaxAge = int(maxAge.Seconds())
	c.Expires = time.Now().Add(maxAge)
	return c
}
