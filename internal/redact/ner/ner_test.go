package ner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/gonka-redact-go/internal/redact"
)

func sidecar(t *testing.T, hits *atomic.Int32, spans []redact.Entity) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req classifyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.Text)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(classifyResponse{Spans: spans})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRecognize(t *testing.T) {
	var hits atomic.Int32
	want := []redact.Entity{{Start: 33, End: 36, Label: "PERSON", Text: "Tan"}}
	srv := sidecar(t, &hits, want)

	c, err := New([]string{srv.URL + "/"})
	require.NoError(t, err)

	got, err := c.Recognize(context.Background(), "Dear coordinator, please see Dr. Tan.")
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.EqualValues(t, 1, hits.Load())
}

func TestRecognizeRoundRobin(t *testing.T) {
	var a, b atomic.Int32
	srvA := sidecar(t, &a, nil)
	srvB := sidecar(t, &b, nil)

	c, err := New([]string{srvA.URL, " ", srvB.URL}, WithRate(1000))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	for i := 0; i < 6; i++ {
		_, err := c.Recognize(context.Background(), "John Tan")
		require.NoError(t, err)
	}
	assert.EqualValues(t, 3, a.Load())
	assert.EqualValues(t, 3, b.Load())
}

func TestRecognizeDegrades(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	c, err := New([]string{failing.URL})
	require.NoError(t, err)
	got, err := c.Recognize(context.Background(), "John Tan")
	require.NoError(t, err)
	assert.Empty(t, got)

	down := failing.URL
	failing.Close()
	c, err = New([]string{down})
	require.NoError(t, err)
	got, err = c.Recognize(context.Background(), "John Tan")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecognizeBlankTextSkipsSidecar(t *testing.T) {
	var hits atomic.Int32
	srv := sidecar(t, &hits, nil)

	c, err := New([]string{srv.URL})
	require.NoError(t, err)
	got, err := c.Recognize(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, hits.Load())
}

func TestNewRequiresURL(t *testing.T) {
	_, err := New([]string{"", "  "})
	require.Error(t, err)
}
