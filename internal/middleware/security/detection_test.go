package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuspicious(t *testing.T) {
	d := NewDetector()
	cases := []struct {
		name   string
		method string
		target string
		agent  string
		want   string
	}{
		{"api call", http.MethodGet, "/api/stores/1/dashboard", "curl/8.5", ""},
		{"dotenv lookup", http.MethodGet, "/.env", "", "pattern"},
		{"traversal in query", http.MethodGet, "/api/products?file=../../etc/passwd", "", "pattern"},
		{"trace method", "TRACE", "/api/products", "", "method"},
		{"scanner agent", http.MethodGet, "/api/products", "sqlmap/1.7", "user_agent"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.agent != "" {
				r.Header.Set("User-Agent", tc.agent)
			}
			assert.Equal(t, tc.want, d.Suspicious(r))
		})
	}
}

func TestMiddlewareBlocksScanners(t *testing.T) {
	d := NewDetector()
	reached := 0
	h := d.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached++
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/wp-admin/install.php", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 1, reached)
	assert.EqualValues(t, 1, d.Blocked())
}
