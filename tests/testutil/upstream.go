package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// Holder is one warehouse row served by NewDuneServer. Spent is encoded as
// a JSON number.
type Holder struct {
	ID        int
	Name      string
	Addresses []string
	Spent     json.Number
}

// UpstreamServer is a fake provider that counts the requests it serves
type UpstreamServer struct {
	*httptest.Server
	calls atomic.Int32
}

// Calls returns how many requests reached the server
func (s *UpstreamServer) Calls() int32 {
	return s.calls.Load()
}

// NewDuneServer serves holders as the latest result of a saved query, in
// the given order
func NewDuneServer(t *testing.T, holders ...Holder) *UpstreamServer {
	t.Helper()

	rows := make([]map[string]any, 0, len(holders))
	for _, h := range holders {
		addresses := h.Addresses
		if addresses == nil {
			addresses = []string{}
		}
		spent := h.Spent
		if spent == "" {
			spent = "0"
		}
		rows = append(rows, map[string]any{
			"fid":                h.ID,
			"fname":              h.Name,
			"verified_addresses": addresses,
			"total_grnd_spent":   spent,
		})
	}
	body, err := json.Marshal(map[string]any{"result": map[string]any{"rows": rows}})
	if err != nil {
		t.Fatalf("marshal dune rows: %v", err)
	}

	s := &UpstreamServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

// NewStatusServer answers every request with status and an empty body
func NewStatusServer(t *testing.T, status int) *UpstreamServer {
	t.Helper()

	s := &UpstreamServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(s.Close)
	return s
}
