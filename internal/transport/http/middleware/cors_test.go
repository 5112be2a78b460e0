package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newCORSEngine(origins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(CORS(origins))
	engine.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doCORSRequest(engine *gin.Engine, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/ping", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCORSWildcardEntryAllowsAnyOrigin(t *testing.T) {
	// The default config ships a literal "*" entry; it must behave as
	// allow-all, not as an origin that never matches.
	engine := newCORSEngine([]string{"*"})

	rec := doCORSRequest(engine, http.MethodGet, "http://localhost:3000")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSEmptyListAllowsAnyOrigin(t *testing.T) {
	engine := newCORSEngine(nil)

	rec := doCORSRequest(engine, http.MethodGet, "http://localhost:3000")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestCORSExplicitOriginList(t *testing.T) {
	engine := newCORSEngine([]string{"https://app.example.com"})

	rec := doCORSRequest(engine, http.MethodGet, "https://app.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want echoed origin", got)
	}

	rec = doCORSRequest(engine, http.MethodGet, "https://evil.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want empty for unlisted origin", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	engine := newCORSEngine([]string{"*"})

	rec := doCORSRequest(engine, http.MethodOptions, "http://localhost:3000")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Fatal("expected Access-Control-Allow-Methods on preflight")
	}
}
