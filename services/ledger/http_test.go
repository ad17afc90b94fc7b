package ledgersvc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/trezcool/shughuli/core"
)

func newTestLedger(handler http.HandlerFunc) (*httpLedger, *httptest.Server) {
	srv := httptest.NewServer(handler)
	l := NewHTTPLedger(core.LedgerConfig{
		BaseURL: srv.URL,
		Token:   "test-token",
		Timeout: time.Second,
	})
	return l, srv
}

func TestHTTPLedger_Distributed(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr bool
	}{
		{name: "not distributed", status: http.StatusOK, body: `{"distributed": false}`},
		{name: "distributed", status: http.StatusOK, body: `{"distributed": true}`, want: true},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
		{name: "bad payload", status: http.StatusOK, body: `lol`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, srv := newTestLedger(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				if r.URL.Path != "/activities/act1/distribution" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if auth := r.Header.Get("Authorization"); auth != "Bearer test-token" {
					t.Errorf("Authorization = %s", auth)
				}
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			})
			defer srv.Close()

			got, err := l.Distributed(context.Background(), "act1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Distributed() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Distributed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHTTPLedger_Distribute(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "credited", status: http.StatusCreated},
		{name: "already credited counts as success", status: http.StatusConflict},
		{name: "server error", status: http.StatusInternalServerError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, srv := newTestLedger(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				w.WriteHeader(tt.status)
			})
			defer srv.Close()

			err := l.Distribute(context.Background(), "act1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Distribute() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
