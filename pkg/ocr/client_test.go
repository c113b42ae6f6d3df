package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestPredictReturnsTranscript(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Equal(t, "aGVsbG8=", payload["image"])

		_ = json.NewEncoder(w).Encode(map[string]string{"pred": "hello world"})
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second, zerolog.Nop())

	text, err := client.Predict(context.Background(), "aGVsbG8=")
	require.NoError(t, err)
	require.Equal(t, "hello world", text)
}

func TestPredictNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, 5*time.Second, zerolog.Nop())

	_, err := client.Predict(context.Background(), "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}

func TestPredictUnconfigured(t *testing.T) {
	client := New("", time.Second, zerolog.Nop())

	require.False(t, client.Configured())

	_, err := client.Predict(context.Background(), "payload")
	require.Error(t, err)
}
