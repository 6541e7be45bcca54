package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line %q", line)
		out = append(out, rec)
	}
	return out
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentLedger, Output: &buf, Level: slog.LevelDebug})
	l.Info("Movement appended", FieldMovementID, "m1")
	l.WithComponent(ComponentRegister).Warn("Register closed with shortage")

	recs := decodeLines(t, &buf)
	require.Len(t, recs, 2)
	assert.Equal(t, ComponentLedger, recs[0][FieldComponent])
	assert.Equal(t, "m1", recs[0][FieldMovementID])
	assert.Equal(t, ComponentRegister, recs[1][FieldComponent])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentApp, Output: &buf, Level: ParseLevel("warn")})
	l.Debug("hidden")
	l.Info("hidden")
	l.Error("shown")
	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	assert.Equal(t, "shown", recs[0]["msg"])
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().
		WithStore("1").
		WithMovement("m1", "sale", "s1", decimal.NewFromInt(1500)).
		WithError(errors.New("boom")).
		WithOperation(OpAppend)
	assert.Equal(t, "1", f[FieldStoreID])
	assert.Equal(t, "sale", f[FieldMovementTyp])
	assert.Equal(t, "boom", f[FieldError])
	assert.Equal(t, OpAppend, f[FieldOperation])
	assert.Len(t, f.ToSlice(), 2*len(f), "slice form holds key value pairs")
}

func TestMiddlewareLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "json", Component: ComponentApp, Output: &buf})

	var seen *Logger
	h := middleware.RequestID(Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusConflict)
	})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/registers", nil))

	require.NotNil(t, seen, "request logger in context")
	assert.Equal(t, ComponentApp, seen.Component())
	recs := decodeLines(t, &buf)
	require.Len(t, recs, 1)
	rec := recs[0]
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, float64(http.StatusConflict), rec[FieldStatusCode])
	assert.NotEmpty(t, rec[FieldRequestID])
}

func TestFromContextFallback(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l)
	assert.Equal(t, "unknown", l.Component())
}
