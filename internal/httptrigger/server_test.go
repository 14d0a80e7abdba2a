package httptrigger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func okScan(_ context.Context) (*types.Summary, error) {
	return &types.Summary{ScanID: "scan-1", Drafted: 2, Skipped: 1}, nil
}

func TestHealthEndpoints(t *testing.T) {
	router := NewRouter(okScan, "")

	for _, path := range []string{"/healthz", "/health"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("HEAD /healthz = %d, want 200", w.Code)
	}
}

func TestScanWithoutSecret(t *testing.T) {
	router := NewRouter(okScan, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/scan", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/scan = %d, want 200", w.Code)
	}

	var summary types.Summary
	if err := json.Unmarshal(w.Body.Bytes(), &summary); err != nil {
		t.Fatal(err)
	}
	if summary.ScanID != "scan-1" || summary.Drafted != 2 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestScanAuth(t *testing.T) {
	const secret = "trigger-secret"
	router := NewRouter(okScan, secret)

	token, err := Token(secret, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	wrongToken, err := Token("other-secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	expiredToken, err := Token(secret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + wrongToken, http.StatusUnauthorized},
		{"expired token", "Bearer " + expiredToken, http.StatusUnauthorized},
		{"valid token", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/scan", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestScanErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"authentication failure maps to bad gateway", fmt.Errorf("%w: token grant", types.ErrAuthentication), http.StatusBadGateway},
		{"other failures map to internal error", fmt.Errorf("%w: listing failed", types.ErrProvider), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(func(_ context.Context) (*types.Summary, error) {
				return &types.Summary{ScanID: "scan-err"}, tt.err
			}, "")

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/scan", nil))

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}

			var body struct {
				Error   string         `json:"error"`
				Summary *types.Summary `json:"summary"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error == "" || body.Summary == nil || body.Summary.ScanID != "scan-err" {
				t.Errorf("body = %+v, want the error and partial summary", body)
			}
		})
	}
}
