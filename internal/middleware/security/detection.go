// Package security screens incoming requests for scanner traffic before they
// reach the API routes.
package security

import (
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/tvs2025ia/stackblitz-starters-brpja43a/internal/log"
)

// scannerPatterns appear in paths or queries sent by vulnerability scanners and
// never in a legitimate call to the point of sale API.
var scannerPatterns = []string{
	"../", "..\\", ".env", ".git", ".ssh",
	"wp-admin", "phpmyadmin", "admin.php", "config.php",
	"<script", "javascript:", "union select", "etc/passwd", "cmd.exe",
}

// scannerAgents identify known attack tooling. Generic clients such as curl
// are allowed since till scripts use them.
var scannerAgents = []string{"sqlmap", "nikto", "nmap", "gobuster", "dirb", "masscan"}

var blockedMethods = map[string]struct{}{
	"TRACE": {}, "TRACK": {}, "DEBUG": {}, "CONNECT": {},
}

const maxURLLength = 2048

// Detector counts and rejects requests that look like scanner traffic.
type Detector struct {
	blocked atomic.Int64
}

func NewDetector() *Detector {
	return &Detector{}
}

// Suspicious reports why r looks like scanner traffic, or "" when it does not.
func (d *Detector) Suspicious(r *http.Request) string {
	if _, ok := blockedMethods[r.Method]; ok {
		return "method"
	}
	if len(r.URL.String()) > maxURLLength {
		return "url_length"
	}
	path := strings.ToLower(r.URL.Path)
	query := strings.ToLower(r.URL.RawQuery)
	for _, p := range scannerPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return "pattern"
		}
	}
	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, a := range scannerAgents {
		if strings.Contains(agent, a) {
			return "user_agent"
		}
	}
	return ""
}

// Blocked returns how many requests were rejected so far.
func (d *Detector) Blocked() int64 {
	return d.blocked.Load()
}

// Middleware answers scanner traffic with a bare 404 so scanners learn nothing about
// the routes behind it.
func (d *Detector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reason := d.Suspicious(r); reason != "" {
			d.blocked.Add(1)
			log.FromContext(r.Context()).WarnContext(r.Context(), "Suspicious request blocked",
				"reason", reason,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
