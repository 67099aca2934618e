package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/kodemy-backend/internal/config"
	"github.com/stemsi/kodemy-backend/internal/model"
	"github.com/stemsi/kodemy-backend/internal/repository"
	"github.com/stemsi/kodemy-backend/internal/response"
	"github.com/stemsi/kodemy-backend/internal/service"
	"github.com/stemsi/kodemy-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   *struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

// ─── JWT ──────────────────────────────────────────────────────────────

type stubUsers map[int]*model.User

func (s stubUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func newAuth() *service.AuthService {
	cfg := &config.Config{JWTSecret: "middleware-secret", JWTExpiry: time.Hour, BcryptCost: 4}
	return service.NewAuthService(cfg, nil, nil, zerolog.Nop())
}

func TestRequireJWT(t *testing.T) {
	auth := newAuth()
	users := stubUsers{7: {ID: 7, Email: "a@b.c"}}

	r := gin.New()
	r.GET("/me", RequireJWT(auth, users), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c)})
	})

	valid, _ := auth.GenerateToken(7)
	deleted, _ := auth.GenerateToken(8)

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantErr  response.ErrCode
	}{
		{"bearer header", "Bearer " + valid, "", http.StatusOK, ""},
		{"lowercase scheme", "bearer " + valid, "", http.StatusOK, ""},
		{"query token", "", valid, http.StatusOK, ""},
		{"missing", "", "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"wrong scheme", "Basic " + valid, "", http.StatusUnauthorized, response.ErrTokenRequired},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized, response.ErrTokenInvalid},
		{"deleted account", "Bearer " + deleted, "", http.StatusUnauthorized, response.ErrTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr != "" {
				env := decode(t, w)
				if env.Success || env.Error == nil || env.Error.Code != string(tt.wantErr) {
					t.Errorf("body = %s", w.Body.String())
				}
			} else if !strings.Contains(w.Body.String(), `"id":7`) {
				t.Errorf("body = %s", w.Body.String())
			}
		})
	}
}

// ─── Error handler ────────────────────────────────────────────────────

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(response.RequestIDMiddleware(), ErrorHandler(zerolog.Nop()))

	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(response.NotFound("Course not found"))
	})
	r.GET("/wrapped", func(c *gin.Context) {
		_ = c.Error(errors.Join(errors.New("context"), response.Conflict("Email already registered")))
	})
	r.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("db exploded"))
	})
	r.POST("/validate", func(c *gin.Context) {
		var body struct {
			Email string `json:"email" binding:"required,email"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/written", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		_ = c.Error(errors.New("late"))
	})

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		wantErr  response.ErrCode
		wantMsg  string
	}{
		{"app error", http.MethodGet, "/app", "", http.StatusNotFound, response.ErrNotFound, "Course not found"},
		{"wrapped app error", http.MethodGet, "/wrapped", "", http.StatusConflict, response.ErrConflict, "Email already registered"},
		{"plain error", http.MethodGet, "/plain", "", http.StatusInternalServerError, response.ErrInternal, response.GetMessage(response.ErrInternal)},
		{"validation error", http.MethodPost, "/validate", `{"email":"nope"}`, http.StatusBadRequest, response.ErrValidation, ""},
		{"already written", http.MethodGet, "/written", "", http.StatusOK, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantCode, w.Body.String())
			}
			if tt.wantErr == "" {
				return
			}
			env := decode(t, w)
			if env.Error == nil || env.Error.Code != string(tt.wantErr) {
				t.Fatalf("body = %s", w.Body.String())
			}
			if tt.wantMsg != "" && env.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", env.Message, tt.wantMsg)
			}
			if tt.wantErr == response.ErrValidation && env.Error.Fields["email"] == "" {
				t.Errorf("expected a field error for email, got %v", env.Error.Fields)
			}
		})
	}
}

// ─── Rate limiter ─────────────────────────────────────────────────────

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.GET("/quiz", rl.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/quiz", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := hit("10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
	w := hit("10.0.0.1")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After should be set")
	}
	if env := decode(t, w); env.Error == nil || env.Error.Code != string(response.ErrRateLimitExceeded) {
		t.Errorf("body = %s", w.Body.String())
	}

	if w := hit("10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other IPs have their own budget, got %d", w.Code)
	}

	now = now.Add(time.Minute)
	if w := hit("10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("budget should reset after the window, got %d", w.Code)
	}
}

// ─── Brotli ───────────────────────────────────────────────────────────

func TestBrotliCompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("kodemy ", 500)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) { c.String(http.StatusOK, large) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "tiny") })

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br;q=0.9")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("Content-Encoding = %q, want br", w.Header().Get("Content-Encoding"))
	}
	plain, err := io.ReadAll(brotli.NewReader(bytes.NewReader(w.Body.Bytes())))
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if string(plain) != large {
		t.Error("decompressed body differs")
	}

	req = httptest.NewRequest(http.MethodGet, "/small", nil)
	req.Header.Set("Accept-Encoding", "br")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "tiny" {
		t.Errorf("small body should pass through, got %q (%q)", w.Body.String(), w.Header().Get("Content-Encoding"))
	}
}

func TestBrotliSkipsWithoutAcceptEncoding(t *testing.T) {
	large := strings.Repeat("x", 4096)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, large) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Content-Encoding") != "" || w.Body.Len() != len(large) {
		t.Error("response should be uncompressed")
	}
}

// ─── Cache-Control ────────────────────────────────────────────────────

func TestCacheControl(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler(zerolog.Nop()))
	r.GET("/ok", CacheControl(5*time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", CacheControl(5*time.Minute), func(c *gin.Context) {
		_ = c.Error(response.NotFound("Course not found"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if got := w.Header().Get("Cache-Control"); got != "public, max-age=300" {
		t.Errorf("Cache-Control = %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control on error = %q, want no-store", got)
	}
}
