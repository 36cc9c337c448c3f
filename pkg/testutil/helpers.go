// Package testutil provides common utility functions for testing.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// PricePayload builds a currency API document of the form
// {"date": date, code: rates}.
func PricePayload(code, date string, rates map[string]float64) []byte {
	doc := map[string]interface{}{code: rates}
	if date != "" {
		doc["date"] = date
	}
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}

// PriceSource is a fake currency API. Paths are matched on their final
// element, e.g. "xau.json".
type PriceSource struct {
	*httptest.Server

	mu       sync.Mutex
	status   int
	payloads map[string][]byte
	hits     atomic.Int64
	block    chan struct{}
}

// NewPriceSource starts a PriceSource that answers status with the payload
// registered for the requested file. It is closed when the test ends.
func NewPriceSource(tb testing.TB, status int, payloads map[string][]byte) *PriceSource {
	tb.Helper()

	source := &PriceSource{status: status, payloads: payloads}
	source.Server = httptest.NewServer(http.HandlerFunc(source.serve))
	tb.Cleanup(source.Close)
	return source
}

// Hits returns the number of requests served.
func (s *PriceSource) Hits() int64 {
	return s.hits.Load()
}

// SetStatus changes the status of subsequent responses.
func (s *PriceSource) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// SetPayload replaces the payload served for file.
func (s *PriceSource) SetPayload(file string, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[file] = payload
}

// Block makes requests wait until the returned function is called.
func (s *PriceSource) Block() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.block = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { close(ch) })
	}
}

func (s *PriceSource) serve(w http.ResponseWriter, r *http.Request) {
	s.hits.Add(1)

	s.mu.Lock()
	block := s.block
	status := s.status
	file := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	payload, ok := s.payloads[file]
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-r.Context().Done():
			return
		}
	}

	if !ok && status == http.StatusOK {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
