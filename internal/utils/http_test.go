package utils

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestHttpError(t *testing.T) {
	tests := []struct {
		name    string
		details []string
		want    map[string]string
	}{
		{"message only", nil, map[string]string{"error": "Route not found"}},
		{"with details", []string{"boom"}, map[string]string{"error": "Route not found", "details": "boom"}},
		{"empty details", []string{""}, map[string]string{"error": "Route not found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HttpError(rec, http.StatusNotFound, "Route not found", tt.details...)

			if rec.Code != http.StatusNotFound {
				t.Errorf("status = %d, want 404", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}

			var got map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) || got["error"] != tt.want["error"] || got["details"] != tt.want["details"] {
				t.Errorf("body = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLogWriter(t *testing.T) {
	var buf bytes.Buffer
	w := LogWriter(zerolog.New(&buf))

	n, err := w.Write([]byte("http: TLS handshake error\n"))
	if err != nil || n != 26 {
		t.Fatalf("Write() = %d, %v", n, err)
	}

	var entry map[string]string
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["level"] != "warn" || entry["message"] != "http: TLS handshake error" {
		t.Errorf("entry = %v", entry)
	}
}
