package main

import (
	"net/http"
	"testing"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name          string
		token         string
		authorization string
		userAgent     string
		wantAuth      string
		wantUserAgent string
	}{
		{
			name:          "anonymous",
			wantUserAgent: "gw-install",
		},
		{
			name:          "token",
			token:         "secret",
			wantAuth:      "Bearer secret",
			wantUserAgent: "gw-install",
		},
		{
			name:          "existing credentials",
			token:         "secret",
			authorization: "token other",
			wantAuth:      "token other",
			wantUserAgent: "gw-install",
		},
		{
			name:          "existing user agent",
			userAgent:     "custom/1.0",
			wantUserAgent: "custom/1.0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, srv := setupServer(t)

			mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Authorization", r.Header.Get("Authorization"))
				w.Header().Set("X-User-Agent", r.Header.Get("User-Agent"))
			})

			req, err := http.NewRequest(http.MethodGet, srv.URL+"/", nil)
			if err != nil {
				t.Fatal(err)
			}
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}

			resp, err := newClient(tt.token).Do(req)
			if err != nil {
				t.Fatalf("Do() failed: %v", err)
			}
			_ = resp.Body.Close()

			gotAuth := resp.Header.Get("X-Authorization")
			gotUserAgent := resp.Header.Get("X-User-Agent")

			if gotAuth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", gotAuth, tt.wantAuth)
			}
			if gotUserAgent != tt.wantUserAgent {
				t.Errorf("User-Agent = %q, want %q", gotUserAgent, tt.wantUserAgent)
			}
			if req.Header.Get("Authorization") != tt.authorization {
				t.Error("request headers were modified")
			}
		})
	}
}
